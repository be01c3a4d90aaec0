package kiosk

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/cors"

	"github.com/PatrickAmbrosso/kiosk/core"
	"github.com/PatrickAmbrosso/kiosk/pkg/router"
	"github.com/PatrickAmbrosso/kiosk/pkg/template"
)

type App struct {
	config      *Config
	db          *core.SQLiteDB
	context     context.Context
	server      *http.Server
	logger      *slog.Logger
	router      *router.Router
	templates   *template.Store
	eventRouter *core.EventRouter
	hub         *core.DisplayHub
	tracker     *DisplayTracker

	exit chan int

	userStore core.UserStore
	nodeStore core.NodeStore
	auth      *core.Auth

	authHandler *AuthHandler
	nodeHandler *NodeHandler

	cleanupFuncs []func(context.Context)

	wg sync.WaitGroup
}

func New(ctx context.Context, config *Config) *App {
	var err error
	app := &App{
		exit: make(chan int),
	}
	if ctx == nil {
		ctx, _ = signal.NotifyContext(
			context.Background(),
			syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)
	}
	app.context = ctx

	if config == nil {
		config, err = LoadConfig()
		if err != nil {
			failed(1, "failed to load config: %v\n", err)
		}
	}
	if err := config.Validate(); err != nil {
		failed(1, FormatValidationErrors(err))
	}
	app.config = config

	app.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug,
		AddSource: true,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.SourceKey {
				source, _ := a.Value.Any().(*slog.Source)
				if source != nil {
					source.File = filepath.Base(source.File)
				}
			}
			return a
		},
	}))

	sqliteOptions := &core.SQLiteDBOption{
		Mode:        "rwc",
		Cache:       "shared",
		JournalMode: "WAL",
	}
	app.db, err = core.NewSQLiteDB(app.config.SQLite.File, app.config.SQLite.Migrations, sqliteOptions)
	if err != nil {
		failed(1, "failed to open database: %v\n", err)
	}
	app.AddCleanupFunc(func(ctx context.Context) {
		app.db.Close()
	})
	if err := app.db.Migrate(); err != nil {
		failed(1, "failed to migrate database: %v\n", err)
	}

	app.userStore = core.NewSQLiteUserStore(app.db.DB)
	app.nodeStore = core.NewSQLiteNodeStore(app.db.DB)
	app.auth = core.NewAuth(app.userStore, app.config.Auth.Secret,
		core.WithTokenTTL(time.Duration(app.config.Auth.TTLMinutes)*time.Minute))

	app.templates, err = template.New(app.config.Templates)
	if err != nil {
		failed(1, "failed to load templates: %v\n", err)
	}

	app.tracker = NewDisplayTracker()
	app.hub = core.NewDisplayHub(app.context, &app.wg, app.logger,
		core.WithCheckOrigin(originChecker(app.config.AllowedOrigins)))
	app.hub.OnDisplayConnected(app.onDisplayConnected)
	app.hub.OnDisplayDisconnected(app.onDisplayDisconnected)
	app.eventRouter = core.NewEventRouter(app.context, app.logger, app.hub)
	app.eventRouter.On(ViewingEvent, app.ViewingEventHandler)

	app.authHandler = NewAuthHandler(app.auth, app.templates)
	app.nodeHandler = NewNodeHandler(app.nodeStore, app.templates, app.eventRouter, app.tracker)

	app.router = router.New(router.WithLogger(app.logger))

	app.router.RegisterErrorMapper(core.ErrNodeNotFound, func(err error) router.Error {
		return router.NewHTTPError(http.StatusNotFound, "node not found")
	})

	app.router.Router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   app.config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	}))

	app.router.Get("/", app.nodeHandler.OverviewHandler)
	app.router.Get("/node/{nodeID}", app.nodeHandler.NodeContentHandler)

	app.router.Router.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		if err := app.hub.Connect(w, r); err != nil {
			app.logger.Error(fmt.Sprintf("display connect: %v", err))
		}
	})

	if app.config.Static != "" {
		staticFS, err := NewStaticFS(os.DirFS(app.config.Static), map[string]string{
			"*.css": "max-age=86400",
			"*.js":  "max-age=86400",
		})
		if err != nil {
			failed(1, "failed to load static files: %v\n", err)
		}
		app.router.Router.With(staticFS.EtagMiddleware("/static")).
			Handle("/static/*", http.StripPrefix("/static/", http.FileServer(staticFS)))
	}

	app.router.Route("/admin", func(r *router.Router) {
		r.Use(core.ResolveIdentity(app.auth))

		r.With(core.RedirectAuthenticated("/admin")).Get("/login", app.authHandler.LoginPageHandler)
		r.Post("/login", app.authHandler.LoginHandler)
		r.Post("/logout", app.authHandler.LogoutHandler)

		r.Group(func(r *router.Router) {
			r.Use(core.RequireAuth("/admin/login"))
			r.Get("/", app.nodeHandler.DashboardHandler)
			r.Get("/{nodeID}", app.nodeHandler.NodeConfigHandler)
			r.Post("/{nodeID}", app.nodeHandler.UpdateNodeHandler)
		})
	})

	app.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", app.config.Hostname, app.config.Port),
		Handler: app.router.Router,
		BaseContext: func(listener net.Listener) context.Context {
			return app.context
		},
	}
	if app.config.Mode == ProdMode {
		app.server.TLSConfig = &defaultTLSConfig
	}

	return app
}

// originChecker builds the handshake origin policy for the display
// channel. An empty list or "*" admits every origin. Requests without an
// Origin header are always admitted: dedicated display devices are not
// browsers and send none.
func originChecker(allowed []string) func(r *http.Request) bool {
	allowAll := len(allowed) == 0
	for _, origin := range allowed {
		if origin == "*" {
			allowAll = true
		}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || allowAll {
			return true
		}
		for _, o := range allowed {
			if strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}

// Handler exposes the app's HTTP handler, primarily for tests.
func (app *App) Handler() http.Handler {
	return app.router.Router
}

func (app *App) Start() {
	app.eventRouter.Listen()

	// listen for shutdown signal
	go func() {
		<-app.context.Done()
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer closeCancel()
		var wg sync.WaitGroup

		for _, f := range app.cleanupFuncs {
			wg.Add(1)
			go func(f func(context.Context)) {
				defer wg.Done()
				f(closeCtx)
			}(f)
		}

		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			app.logger.Info("app shutdown gracefully")
			app.exit <- 0
		case <-closeCtx.Done():
			app.logger.Info("app shutdown timed out")
			app.exit <- 1
		}
	}()

	app.AddCleanupFunc(func(ctx context.Context) {
		app.server.Shutdown(ctx)
	})
	app.logger.Info(fmt.Sprintf("app running in %s mode on: %s:%d",
		app.config.Mode, app.config.Hostname, app.config.Port))

	var err error
	if app.config.TLS.Key != "" && app.config.TLS.Crt != "" {
		err = app.server.ListenAndServeTLS(app.config.TLS.Crt, app.config.TLS.Key)
	} else {
		err = app.server.ListenAndServe()
	}
	if err != nil && err != http.ErrServerClosed {
		failed(1, "server error: %v\n", err)
	}

	code := <-app.exit
	if code != 0 {
		failed(code, "app exit with code: %d\n", code)
	} else {
		os.Exit(code)
	}
}

func (app *App) AddCleanupFunc(f func(context.Context)) {
	app.cleanupFuncs = append(app.cleanupFuncs, f)
}

func failed(code int, s string, args ...interface{}) {
	fmt.Printf(s, args...)
	os.Exit(code)
}
