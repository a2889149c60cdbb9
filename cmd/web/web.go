package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aerokit/internal/cache"
	"aerokit/internal/client"
	"aerokit/internal/guard"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type application struct {
	config config
	logger *zap.SugaredLogger
	redis  *goredis.Client
	// api is bound to each browser session with WithSession.
	api    *client.Client
	routes *guard.Routes
	pages  pageSet
	now    func() time.Time
}

type config struct {
	addr          string
	env           string
	apiURL        string
	sessionTTL    time.Duration
	secureCookies bool
	redis         cache.Config
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Group(func(r chi.Router) {
		r.Use(app.sessionMiddleware)

		r.Get("/", app.homeHandler)
		r.Get("/forbidden", app.forbiddenHandler)
		r.Post("/logout", app.logoutHandler)

		r.With(app.authPageMiddleware).Get("/login", app.loginPageHandler)
		r.Post("/login", app.loginHandler)
		r.With(app.authPageMiddleware).Get("/register", app.registerPageHandler)
		r.Post("/register", app.registerHandler)

		r.Group(func(r chi.Router) {
			r.Use(app.protectMiddleware)

			r.Get("/account", app.accountHandler)
			r.Get("/admin/dashboard", app.adminDashboardHandler)
			r.Get("/owner/dashboard", app.ownerDashboardHandler)
		})
	})

	return r
}

func (app *application) run(mux http.Handler) error {
	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("storefront has started", "addr", app.config.addr, "env", app.config.env, "api", app.config.apiURL)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	if err := <-shutdown; err != nil {
		return err
	}

	app.logger.Infow("storefront has stopped", "addr", app.config.addr)
	return nil
}
