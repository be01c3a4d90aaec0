package router

import (
	"fmt"
	"io"
	"net/http"
)

// Error is an error that knows how to present itself to the client.
type Error interface {
	error
	StatusCode() int
	Encode(w io.Writer) error
}

// HTTPError is a plain-text error response.
type HTTPError struct {
	Code int
	Msg  string
}

func NewHTTPError(code int, msg string) HTTPError {
	return HTTPError{Code: code, Msg: msg}
}

func (e HTTPError) StatusCode() int {
	return e.Code
}

func (e HTTPError) Error() string {
	return e.Msg
}

func (e HTTPError) Encode(w io.Writer) error {
	_, err := io.WriteString(w, e.Msg)
	return err
}

// Redirect is an error value that instructs the router to redirect the
// client instead of rendering an error body. Handlers and middlewares
// return it to express route policy as a value.
type Redirect struct {
	Code     int
	Location string
}

func NewRedirect(code int, location string) Redirect {
	return Redirect{Code: code, Location: location}
}

// SeeOther is the redirect used after form submissions.
func SeeOther(location string) Redirect {
	return Redirect{Code: http.StatusSeeOther, Location: location}
}

func (e Redirect) Error() string {
	return fmt.Sprintf("redirect to %s", e.Location)
}
