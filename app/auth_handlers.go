package kiosk

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/PatrickAmbrosso/kiosk/core"
	"github.com/PatrickAmbrosso/kiosk/pkg/router"
	"github.com/PatrickAmbrosso/kiosk/pkg/template"
)

type AuthHandler struct {
	auth      *core.Auth
	templates *template.Store
}

func NewAuthHandler(auth *core.Auth, templates *template.Store) *AuthHandler {
	return &AuthHandler{auth: auth, templates: templates}
}

type loginForm struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

type loginPageData struct {
	Error string
}

func (h *AuthHandler) LoginPageHandler(w http.ResponseWriter, r *http.Request) error {
	return h.templates.Render(w, "login", loginPageData{})
}

// LoginHandler runs the login state machine: look up the user, verify
// the password, mint a token and attach it as the session cookie. Every
// failure renders the same generic outcome with no cookie so an unknown
// username and a wrong password cannot be told apart.
func (h *AuthHandler) LoginHandler(w http.ResponseWriter, r *http.Request) error {
	if err := r.ParseForm(); err != nil {
		return router.NewHTTPError(http.StatusBadRequest, "bad request")
	}

	form := loginForm{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}
	if err := validate.Struct(form); err != nil {
		return h.loginFailed(w)
	}

	session, err := h.auth.Login(r.Context(), form.Username, form.Password)
	if err != nil {
		if errors.Is(err, core.ErrBadCredentials) {
			return h.loginFailed(w)
		}
		return err
	}

	http.SetCookie(w, core.SessionCookie(session))
	return router.SeeOther("/admin")
}

// loginFailed renders the page into a buffer before touching the
// response writer, so a render failure can still surface as a clean 500.
func (h *AuthHandler) loginFailed(w http.ResponseWriter) error {
	var body bytes.Buffer
	if err := h.templates.Render(&body, "login", loginPageData{Error: "incorrect username or password"}); err != nil {
		return err
	}
	w.WriteHeader(http.StatusUnauthorized)
	_, err := body.WriteTo(w)
	return err
}

// LogoutHandler clears the session cookie unconditionally: clearing an
// absent cookie is a no-op, not an error, so no prior authentication is
// required.
func (h *AuthHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) error {
	http.SetCookie(w, core.ExpiredSessionCookie())
	return router.SeeOther("/admin/login")
}
