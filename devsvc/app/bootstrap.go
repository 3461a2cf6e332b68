package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"crivo-thalam/app/logging"
	"crivo-thalam/devsvc/app/clients"
	"crivo-thalam/devsvc/app/handlers"
	"crivo-thalam/devsvc/app/services"
	"crivo-thalam/devsvc/storage/sqlite"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// App represents the application
type App struct {
	Config   *Config
	Storage  clients.StorageAdapter
	Registry *services.DeviceRegistryService
	Router   *gin.Engine
	Log      zerolog.Logger
}

// Bootstrap loads configuration from the environment and builds the app
func Bootstrap() (*App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logging.New(logging.Config{Level: cfg.LogLevel, Output: os.Stderr})
	if err != nil {
		return nil, fmt.Errorf("failed to configure logging: %w", err)
	}
	if cfg.GeneratedSecret {
		log.Warn().Msg("DEVSVC_JWT_SECRET not set, using a random secret; auth links will not survive a restart")
	}

	return New(cfg, log)
}

// New wires storage, services and the router for cfg
func New(cfg *Config, log zerolog.Logger) (*App, error) {
	// cors refuses an empty origin list.
	origins := parseOrigins(strings.Join(cfg.AllowOrigins, ","))
	if len(origins) == 0 {
		origins = parseOrigins(defaultAllowOrigins)
	}

	store, err := sqlite.NewStore(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	tokens := services.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	registry := services.NewDeviceRegistryService(store, tokens, cfg.PublicURL, log)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.SetHTMLTemplate(handlers.AuthTemplate)

	setupRoutes(router,
		handlers.NewDeviceHandler(registry, log),
		handlers.NewAuthHandler(registry, log),
	)

	return &App{
		Config:   cfg,
		Storage:  store,
		Registry: registry,
		Router:   router,
		Log:      log,
	}, nil
}

// setupRoutes configures HTTP routes
func setupRoutes(router *gin.Engine, deviceHandler *handlers.DeviceHandler, authHandler *handlers.AuthHandler) {
	healthHandler := handlers.NewHealthHandler()
	router.GET("/health", healthHandler.Health)

	api := router.Group("/api/devices")
	{
		api.POST("/register", deviceHandler.Register)
		api.GET("/:device_id/status", deviceHandler.Status)
		api.GET("", deviceHandler.ListDevices)
	}

	router.GET("/auth/:token", authHandler.Page)
	router.POST("/auth/:token", authHandler.Approve)
}

// requestLogger logs one line per request
func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Str("request_id", c.GetHeader("X-Request-ID")).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	}
}
