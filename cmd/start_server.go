package server

import (
	"context"
	"fmt"
	"os"
	"time"

	authHTTP "github.com/abisalde/storefront-auth/internal/auth/handler/http"
	"github.com/abisalde/storefront-auth/internal/auth/repository"
	"github.com/abisalde/storefront-auth/internal/auth/service"
	"github.com/abisalde/storefront-auth/internal/configs"
	"github.com/abisalde/storefront-auth/internal/database"
	"github.com/abisalde/storefront-auth/internal/middleware"
	"github.com/abisalde/storefront-auth/pkg/logger"
	"github.com/abisalde/storefront-auth/pkg/mail"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	fiberLogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

const trustedDockerNetworkCIDR = "172.18.0.0/16"

func InitConfig() (*configs.Config, logger.Logger, error) {
	cfg, err := configs.Load(os.Getenv("APP_ENV"))
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger.New(cfg.App.Env, cfg.App.LogLevel), nil
}

func SetupDatabase(ctx context.Context, cfg *configs.Config) (*database.Database, *database.RedisCache, error) {
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	if err := db.HealthCheck(ctx); err != nil {
		_ = db.Close(ctx)
		return nil, nil, err
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	redisCache, err := database.InitRedis(ctxWithTimeout, cfg)
	if err != nil {
		_ = db.Close(ctx)
		return nil, nil, err
	}

	return db, redisCache, nil
}

func SetupAuthService(ctx context.Context, db *database.Database, cache *database.RedisCache, cfg *configs.Config, log logger.Logger) (*service.AuthService, error) {
	mailerService, err := mail.NewMailerService(cfg, log)
	if err != nil {
		return nil, err
	}

	userRepo, err := SetupUserRepository(ctx, db)
	if err != nil {
		return nil, err
	}

	return service.NewAuthService(userRepo, cfg, cache, mailerService, log)
}

func SetupUserRepository(ctx context.Context, db *database.Database) (repository.UserRepository, error) {
	if db.Driver() != "mongo" {
		return repository.NewSQLUserRepository(db.SQLDB), nil
	}

	if err := repository.EnsureIndexes(ctx, db.Users()); err != nil {
		return nil, fmt.Errorf("failed to create user indexes: %w", err)
	}
	return repository.NewMongoUserRepository(db.Users()), nil
}

func SetupFiberApp(db *database.Database, cache *database.RedisCache, authService *service.AuthService, cfg *configs.Config, log logger.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:                 cfg.App.Name,
		ErrorHandler:            middleware.ErrorHandler(log),
		ProxyHeader:             fiber.HeaderXForwardedFor,
		CaseSensitive:           true,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          []string{trustedDockerNetworkCIDR},
	})

	app.Use(recover.New())
	app.Use(requestid.New())

	app.Use(healthcheck.New(healthcheck.Config{
		LivenessProbe: func(c *fiber.Ctx) bool {
			return true
		},
		LivenessEndpoint: "/health",
		ReadinessProbe: func(c *fiber.Ctx) bool {
			return db.HealthCheck(c.UserContext()) == nil
		},
		ReadinessEndpoint: "/ready",
	}))

	app.Use(fiberLogger.New(fiberLogger.Config{
		Format: "[${ip}]:${port} ${locals:requestid} ${status} - ${method} ${path} ${latency}\n",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins(),
		AllowMethods:     "GET,POST,PATCH,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
	}))

	app.Use(middleware.SecurityHeaders())
	app.Use(middleware.FiberWebMiddleware)

	limiter := middleware.NewRateLimiter(cfg.RateLimit, cache.RawClient(), log)
	authHTTP.RegisterRoutes(app, authService, cfg, limiter.Handler())

	return app
}
