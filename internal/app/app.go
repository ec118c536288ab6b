package app

import (
	"fmt"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	infraevents "github.com/teamforge/server/internal/infra/events"
	"github.com/teamforge/server/internal/module/application"
	"github.com/teamforge/server/internal/module/auth"
	"github.com/teamforge/server/internal/module/invitation"
	"github.com/teamforge/server/internal/module/matching"
	"github.com/teamforge/server/internal/module/profile"
	"github.com/teamforge/server/internal/module/team"
	sharedcache "github.com/teamforge/server/internal/shared/cache"
	"github.com/teamforge/server/internal/shared/config"
	"github.com/teamforge/server/internal/shared/database"
	sharedevents "github.com/teamforge/server/internal/shared/events"
	"github.com/teamforge/server/internal/shared/logger"
	"github.com/teamforge/server/internal/shared/metrics"
	"github.com/teamforge/server/internal/shared/middleware"
)

// App represents the application.
type App struct {
	config    *config.Config
	db        *gorm.DB
	redis     redis.UniversalClient
	router    *gin.Engine
	logger    *logger.Logger
	zapLogger *zap.Logger
	metrics   *metrics.Metrics

	// Event infrastructure
	eventBus *infraevents.Bus

	// Modules
	jwtManager         *auth.JWTManager
	profileHandler     *profile.Handler
	matchingHandler    *matching.Handler
	teamHandler        *team.Handler
	applicationHandler *application.Handler
	invitationHandler  *invitation.Handler
}

// New creates a new application instance.
func New(cfg *config.Config) (*App, error) {
	// Initialize logger
	log := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	// Initialize zap logger for modules that use zap
	zapLog, err := logger.NewZapLogger(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return nil, fmt.Errorf("init zap logger: %w", err)
	}

	app := &App{
		config:    cfg,
		logger:    log,
		zapLogger: zapLog,
		metrics:   metrics.New("teamforge"),
	}

	// Initialize database
	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	app.db = db

	// Initialize Redis (optional; rankings fall back to recomputation)
	if cfg.Redis.Address != "" {
		redisClient, err := sharedcache.NewRedisClient(&cfg.Redis)
		if err != nil {
			log.Warn("redis connection failed, ranking cache disabled", logger.Err(err))
		} else {
			app.redis = redisClient
		}
	}

	app.router = app.setupRouter()

	if err := app.initModules(); err != nil {
		return nil, fmt.Errorf("init modules: %w", err)
	}

	app.registerRoutes()

	return app, nil
}

// setupRouter creates and configures the Gin router.
func (a *App) setupRouter() *gin.Engine {
	if a.config.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(middleware.Recovery(a.logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(a.logger))
	r.Use(middleware.Metrics(a.metrics))
	r.Use(cors.Default())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

// initModules initializes all application modules.
func (a *App) initModules() error {
	// Event bus for team formation events
	a.eventBus = infraevents.NewBus(a.zapLogger)
	a.eventBus.Register(sharedevents.NewLoggingHandler(a.zapLogger))

	// Token verification; tokens are issued by the external identity provider
	a.jwtManager = auth.NewJWTManager(&auth.JWTConfig{
		Secret: a.config.Auth.JWTSecret,
		Issuer: a.config.Auth.Issuer,
	})

	// Profile module
	profileRepo := profile.NewRepository(a.db)
	var directory *profile.DirectoryClient
	if a.config.Directory.BaseURL != "" {
		directory = profile.NewDirectoryClient(&profile.DirectoryConfig{
			BaseURL:          a.config.Directory.BaseURL,
			RequestTimeout:   a.config.Directory.RequestTimeout,
			FailureThreshold: a.config.Directory.FailureThreshold,
			CircuitTimeout:   a.config.Directory.CircuitTimeout,
		})
	}
	profileService := profile.NewService(profileRepo, directory, a.zapLogger)
	a.profileHandler = profile.NewHandler(profileService)

	// Matching module
	var rankingCache *matching.RankingCache
	if a.redis != nil {
		rankingCache = matching.NewRankingCache(a.redis, a.config.Matching.CacheTTL)
	}
	matchingService := matching.NewService(profileService, rankingCache, a.metrics, a.zapLogger)
	a.matchingHandler = matching.NewHandler(matchingService, a.config.Matching.DefaultLimit, a.config.Matching.MaxLimit)

	// Lifecycle repositories; application and invitation plug into the
	// team registry's archive cascade.
	teamRepo := team.NewRepository(a.db)
	applicationRepo := application.NewRepository(a.db)
	invitationRepo := invitation.NewRepository(a.db)

	teamService := team.NewService(teamRepo, applicationRepo, invitationRepo, a.eventBus, a.metrics, a.zapLogger)
	a.teamHandler = team.NewHandler(teamService)

	applicationService := application.NewService(applicationRepo, teamRepo, a.eventBus, a.metrics, a.zapLogger)
	a.applicationHandler = application.NewHandler(applicationService)

	invitationService := invitation.NewService(invitationRepo, teamRepo, a.eventBus, a.metrics, a.zapLogger)
	a.invitationHandler = invitation.NewHandler(invitationService)

	return nil
}

// registerRoutes registers routes for all modules.
func (a *App) registerRoutes() {
	v1 := a.router.Group("/api/v1")
	v1.Use(auth.Middleware(a.jwtManager))

	a.profileHandler.RegisterRoutes(v1)
	a.matchingHandler.RegisterRoutes(v1)
	a.teamHandler.RegisterRoutes(v1)
	a.applicationHandler.RegisterRoutes(v1)
	a.invitationHandler.RegisterRoutes(v1)
}

// Router returns the HTTP router.
func (a *App) Router() *gin.Engine {
	return a.router
}

// Stop stops the application and releases resources.
func (a *App) Stop() {
	if a.zapLogger != nil {
		_ = a.zapLogger.Sync()
	}

	if a.redis != nil {
		_ = sharedcache.Close(a.redis)
	}

	if a.db != nil {
		_ = database.Close(a.db)
	}
}
