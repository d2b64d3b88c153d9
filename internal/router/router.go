package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/lawdesk/internal/handler/health"
	promHandler "github.com/jwalitptl/lawdesk/internal/handler/prometheus"
	reminderHandler "github.com/jwalitptl/lawdesk/internal/handler/reminder"
	"github.com/jwalitptl/lawdesk/internal/middleware"
	"github.com/jwalitptl/lawdesk/pkg/logger"
	"github.com/jwalitptl/lawdesk/pkg/metrics"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type RouterConfig struct {
	Production     bool
	CronSecret     string
	RateLimit      rate.Limit
	RateBurst      int
	AllowedOrigins []string
	MaxBodyBytes   int64
	RequestTimeout time.Duration
}

// Handlers are the route owners mounted by Setup.
type Handlers struct {
	Health    *health.Handler
	Metrics   *promHandler.Handler
	Reminders *reminderHandler.Handler
	Cases     Handler
	Hearings  Handler
	Profile   Handler
}

type Router struct {
	engine   *gin.Engine
	config   RouterConfig
	handlers Handlers
	tokens   middleware.TokenValidator
	limiter  *middleware.RateLimiter
}

func NewRouter(
	config RouterConfig,
	handlers Handlers,
	tokens middleware.TokenValidator,
	log *logger.Logger,
	m *metrics.Metrics,
) *Router {
	if config.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "route not found"})
	})
	engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"status": "error", "message": "method not allowed"})
	})

	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(log),
		middleware.Logger(log),
		middleware.Metrics(m),
		middleware.SecurityHeaders(config.Production),
		middleware.CORS(middleware.DefaultCORSConfig(config.AllowedOrigins)),
	)

	r := &Router{
		engine:   engine,
		config:   config,
		handlers: handlers,
		tokens:   tokens,
	}
	if config.RateLimit > 0 {
		r.limiter = middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
		})
	}
	return r
}

func (r *Router) Setup() {
	if r.handlers.Health != nil {
		r.handlers.Health.RegisterRoutes(r.engine)
	}
	if r.handlers.Metrics != nil {
		r.engine.GET("/metrics", r.handlers.Metrics.Handler())
	}

	api := r.engine.Group("/api/v1")
	if r.limiter != nil {
		api.Use(r.limiter.RateLimit())
	}

	// Scheduler triggers authenticate with the shared cron secret.
	triggers := api.Group("/reminders")
	triggers.Use(middleware.CronAuth(r.config.CronSecret, r.config.Production))
	r.handlers.Reminders.RegisterTriggerRoutes(triggers)

	protected := api.Group("")
	protected.Use(
		middleware.Authenticate(r.tokens),
		middleware.BodyLimit(r.config.MaxBodyBytes),
		middleware.Timeout(r.config.RequestTimeout),
	)
	r.handlers.Cases.RegisterRoutes(protected)
	r.handlers.Hearings.RegisterRoutes(protected)
	r.handlers.Profile.RegisterRoutes(protected)
	r.handlers.Reminders.RegisterRoutes(protected.Group("/reminders"))
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
