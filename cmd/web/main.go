package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"aerokit/internal/cache"
	"aerokit/internal/client"
	"aerokit/internal/guard"
	"aerokit/internal/session"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func NewLogger() (*zap.SugaredLogger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.AddSync(os.Stdout), zapcore.InfoLevel)
	return zap.New(core).Sugar(), nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

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

	redisDB := 0
	if raw := os.Getenv("REDIS_DB"); raw != "" {
		if redisDB, err = strconv.Atoi(raw); err != nil {
			logger.Fatalw("invalid REDIS_DB", "value", raw, "error", err)
		}
	}

	sessionTTL := session.DefaultTTL
	if raw := os.Getenv("SESSION_TTL"); raw != "" {
		if sessionTTL, err = time.ParseDuration(raw); err != nil || sessionTTL <= 0 {
			logger.Fatalw("invalid SESSION_TTL", "value", raw, "error", err)
		}
	}

	cfg := config{
		addr:          getEnv("WEB_ADDR", ":3000"),
		env:           getEnv("ENV", "development"),
		apiURL:        getEnv("API_URL", "http://localhost:8080"),
		sessionTTL:    sessionTTL,
		secureCookies: getEnv("ENV", "development") == "production",
		redis: cache.Config{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
	}

	rdb, err := cache.NewRedisClient(cfg.redis)
	if err != nil {
		logger.Fatal(err)
	}
	defer rdb.Close()
	logger.Infow("redis connected", "addr", cfg.redis.Addr)

	api, err := client.NewClient(client.Config{
		BaseURL:   cfg.apiURL,
		Store:     session.NewMemoryStore(),
		LoginPath: guard.LoginPath,
		Logger:    logger,
	})
	if err != nil {
		logger.Fatal(err)
	}

	pages, err := parseTemplates()
	if err != nil {
		logger.Fatal(err)
	}

	app := &application{
		config: cfg,
		logger: logger,
		redis:  rdb,
		api:    api,
		routes: guard.DefaultRoutes(),
		pages:  pages,
		now:    time.Now,
	}

	logger.Fatal(app.run(app.mount()))
}
