package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"aerokit/docs" //this is required to generate swagger docs
	"aerokit/internal/auth"
	"aerokit/internal/domain/accesscontrol"
	"aerokit/internal/domain/storage"
	"aerokit/internal/mailer"
	"aerokit/internal/metrics"
	"aerokit/internal/ratelimiter"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

// txRunner runs a unit of work atomically. *storage.Container satisfies it.
type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *storage.Tx) error) error
}

type application struct {
	config        config
	store         *storage.Container
	tx            txRunner
	logger        *zap.SugaredLogger
	mailer        mailer.Client
	authenticator auth.Authenticator
	rateLimiter   ratelimiter.Limiter
	metrics       *metrics.Auth
	registry      *prometheus.Registry
	wg            sync.WaitGroup
	now           func() time.Time
}

type config struct {
	addr        string
	db          dbConfig
	env         string
	apiURL      string
	mail        mailConfig
	frontendURL string
	auth        authConfig
	rateLimiter ratelimiter.Config
}

type authConfig struct {
	basic basicConfig
	token tokenConfig
}

type tokenConfig struct {
	secret    string
	expiresIn string
	iss       string
}

type basicConfig struct {
	user string
	pass string
}

type mailConfig struct {
	fromEmail string
	smtp      smtpConfig
}

type smtpConfig struct {
	host     string
	port     int
	username string
	password string
}

type dbConfig struct {
	addr        string
	maxConns    int32
	maxIdleTime string
}

var (
	staffOnly = accesscontrol.Roles(accesscontrol.RoleAdmin, accesscontrol.RoleOwner)
	ownerOnly = accesscontrol.Roles(accesscontrol.RoleOwner)
)

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{app.config.frontendURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Retry-After", "WWW-Authenticate"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	//Set a timeout value on the request context (ctx), that will signal through ctx.Done() that the request has timed out and further processing should be stopped
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.With(app.BasicAuthMiddleware()).Get("/health", app.healthCheckHandler)
		r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)
		r.With(app.BasicAuthMiddleware()).Handle("/metrics", promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{}))

		docsURL := fmt.Sprintf("%s/v1/swagger/doc.json", app.config.apiURL)
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL(docsURL)))

		r.Route("/auth", func(r chi.Router) {
			r.With(app.RateLimiterMiddleware).Post("/login", app.loginHandler)
			r.With(app.RateLimiterMiddleware).Post("/register", app.registerUserHandler)
			r.Post("/logout", app.logoutHandler)
			r.With(app.AuthTokenMiddleware).Get("/me", app.meHandler)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", app.listProductsHandler)
			r.Get("/{productID}", app.getProductHandler)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.Use(app.RequireRoles(accesscontrol.AnyRole))
			r.Post("/", app.createOrderHandler)
			r.Get("/", app.listMyOrdersHandler)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.Use(app.RequireRoles(staffOnly))

			r.Post("/products", app.createProductHandler)
			r.Put("/products/{productID}", app.updateProductHandler)
			r.Delete("/products/{productID}", app.deleteProductHandler)

			r.Get("/orders", app.adminListOrdersHandler)
			r.Patch("/orders/{orderID}/status", app.updateOrderStatusHandler)

			r.Get("/customers", app.adminListCustomersHandler)
		})

		r.Route("/owner", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.Use(app.RequireRoles(ownerOnly))

			r.Get("/analytics", app.ownerAnalyticsHandler)
			r.Put("/users/{userID}/role", app.setUserRoleHandler)
		})
	})
	return r
}

func (app *application) run(mux http.Handler) error {
	// Docs
	docs.SwaggerInfo.Version = version
	docs.SwaggerInfo.Host = app.config.apiURL
	docs.SwaggerInfo.BasePath = "/v1"

	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	// Implementing graceful shutdown
	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		err := srv.Shutdown(ctx)
		app.logger.Infow("waiting for background tasks")
		app.wg.Wait()
		shutdown <- err
	}()

	app.logger.Infow("server has started", "addr", app.config.addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.addr, "env", app.config.env)

	return nil
}
