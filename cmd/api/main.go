package main

import (
	"expvar"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"aerokit/internal/auth"
	"aerokit/internal/db"
	"aerokit/internal/domain/orders"
	"aerokit/internal/domain/storage"
	"aerokit/internal/mailer"
	"aerokit/internal/metrics"
	"aerokit/internal/ratelimiter"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoadRateLimiterConfig retrieves rate limiter settings from environment variables
func LoadRateLimiterConfig(logger *zap.SugaredLogger) ratelimiter.Config {
	defaultRequests := 20
	defaultEnabled := true

	requestsPerTimeFrame := defaultRequests
	if val, exists := os.LookupEnv("RATELIMITER_REQUESTS_COUNT"); exists {
		if parsedVal, err := strconv.Atoi(val); err == nil && parsedVal > 0 {
			requestsPerTimeFrame = parsedVal
		} else {
			logger.Warnw("invalid RATELIMITER_REQUESTS_COUNT, using default", "value", val, "default", defaultRequests)
		}
	}

	enabled := defaultEnabled
	if val, exists := os.LookupEnv("RATELIMITER_ENABLED"); exists {
		if parsedVal, err := strconv.ParseBool(val); err == nil {
			enabled = parsedVal
		} else {
			logger.Warnw("invalid RATELIMITER_ENABLED, using default", "value", val, "default", defaultEnabled)
		}
	}

	return ratelimiter.Config{
		RequestsPerTimeFrame: requestsPerTimeFrame,
		TimeFrame:            time.Minute,
		Enabled:              enabled,
		Strategy:             getEnv("RATELIMITER_STRATEGY", ratelimiter.StrategyFixedWindow),
	}
}

// NewLogger creates a new zap logger with color.
func NewLogger() (*zap.SugaredLogger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	consoleEncoder := zapcore.NewConsoleEncoder(encoderCfg)
	core := zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stdout), zapcore.InfoLevel)

	return zap.New(core).Sugar(), nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

var version = "0.3.0"

//	@title			Aerokit API
//	@description	Storefront API for Aerokit inhalers and accessories.

//	@contact.name	Aerokit Support
//	@contact.email	support@aerokit.example

//	@BasePath					/v1
//	@securityDefinitions.apikey	ApiKeyAuth
//	@in							header
//	@name						Authorization
//	@description				Type "Bearer" followed by a space and the token.

func main() {
	logger, err := NewLogger()
	if err != nil {
		fmt.Println("Error creating logger:", err)
		return
	}
	defer logger.Sync()

	if err := godotenv.Load(); err != nil {
		logger.Infow("no .env file loaded, using process environment", "error", err)
	}

	maxConns := int32(10)
	if raw := os.Getenv("DB_MAX_CONNS"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			logger.Fatalw("invalid DB_MAX_CONNS", "value", raw, "error", err)
		}
		maxConns = int32(n)
	}

	smtpPort := 587
	if raw := os.Getenv("SMTP_PORT"); raw != "" {
		smtpPort, err = strconv.Atoi(raw)
		if err != nil {
			logger.Fatalw("invalid SMTP_PORT", "value", raw, "error", err)
		}
	}

	cfg := config{
		addr:        getEnv("ADDR", ":8080"),
		env:         getEnv("ENV", "development"),
		frontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
		apiURL:      getEnv("EXTERNAL_URL", "localhost:8080"),
		db: dbConfig{
			addr:        os.Getenv("DB_ADDR"),
			maxConns:    maxConns,
			maxIdleTime: getEnv("DB_MAX_IDLE_TIME", "15m"),
		},
		mail: mailConfig{
			fromEmail: os.Getenv("MAIL_FROM"),
			smtp: smtpConfig{
				host:     os.Getenv("SMTP_HOST"),
				port:     smtpPort,
				username: os.Getenv("SMTP_USER"),
				password: os.Getenv("SMTP_PASS"),
			},
		},
		auth: authConfig{
			basic: basicConfig{
				user: os.Getenv("AUTH_BASIC_USER"),
				pass: os.Getenv("AUTH_BASIC_PASS"),
			},
			token: tokenConfig{
				secret:    os.Getenv("AUTH_TOKEN_SECRET"),
				expiresIn: getEnv("AUTH_TOKEN_EXPIRES_IN", auth.DefaultExpiresIn),
				iss:       getEnv("AUTH_TOKEN_ISS", "aerokit"),
			},
		},
		rateLimiter: LoadRateLimiterConfig(logger),
	}

	// Authenticator
	jwtAuthenticator, err := auth.NewJWTAuthenticator(auth.Config{
		Secret:    cfg.auth.token.secret,
		ExpiresIn: cfg.auth.token.expiresIn,
		Issuer:    cfg.auth.token.iss,
	})
	if err != nil {
		logger.Fatalw("authenticator misconfigured", "error", err)
	}

	// Database
	pool, err := db.New(cfg.db.addr, cfg.db.maxConns, cfg.db.maxIdleTime)
	if err != nil {
		logger.Fatal(err)
	}
	defer pool.Close()
	logger.Info("database connection pool established")

	numbers, err := orders.NewNumberGenerator("aerokit-orders:" + cfg.auth.token.secret)
	if err != nil {
		logger.Fatal(err)
	}
	store := storage.NewContainer(pool, numbers)

	registry := metrics.NewRegistry()

	app := &application{
		config:        cfg,
		logger:        logger,
		store:         store,
		tx:            store,
		authenticator: jwtAuthenticator,
		rateLimiter:   ratelimiter.New(cfg.rateLimiter),
		metrics:       metrics.NewAuth(registry),
		registry:      registry,
		now:           time.Now,
	}

	if cfg.mail.smtp.host != "" {
		smtp, err := mailer.NewSMTPMailer(
			cfg.mail.smtp.host,
			cfg.mail.smtp.port,
			cfg.mail.smtp.username,
			cfg.mail.smtp.password,
			cfg.mail.fromEmail,
		)
		if err != nil {
			logger.Fatal(err)
		}
		app.mailer = smtp
	} else {
		logger.Warn("SMTP_HOST not set, welcome mails are disabled")
	}

	//Metrics collected http://localhost:8080/v1/debug/vars
	expvar.NewString("version").Set(version)
	expvar.Publish("database", expvar.Func(func() any {
		s := pool.Stat()
		return map[string]int64{
			"total_conns":    int64(s.TotalConns()),
			"idle_conns":     int64(s.IdleConns()),
			"acquired_conns": int64(s.AcquiredConns()),
			"acquire_count":  s.AcquireCount(),
		}
	}))
	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.mount()

	logger.Fatal(app.run(mux))
}
