// Package app assembles the process from configuration. Both binaries and the
// ops CLI build on it.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/lawdesk/config"
	"github.com/jwalitptl/lawdesk/internal/email"
	"github.com/jwalitptl/lawdesk/internal/handler/health"
	caseHandler "github.com/jwalitptl/lawdesk/internal/handler/legalcase"
	hearingHandler "github.com/jwalitptl/lawdesk/internal/handler/hearing"
	profileHandler "github.com/jwalitptl/lawdesk/internal/handler/profile"
	promHandler "github.com/jwalitptl/lawdesk/internal/handler/prometheus"
	reminderHandler "github.com/jwalitptl/lawdesk/internal/handler/reminder"
	"github.com/jwalitptl/lawdesk/internal/model"
	"github.com/jwalitptl/lawdesk/internal/reminder"
	"github.com/jwalitptl/lawdesk/internal/repository"
	"github.com/jwalitptl/lawdesk/internal/repository/postgres"
	"github.com/jwalitptl/lawdesk/internal/router"
	caseService "github.com/jwalitptl/lawdesk/internal/service/legalcase"
	hearingService "github.com/jwalitptl/lawdesk/internal/service/hearing"
	profileService "github.com/jwalitptl/lawdesk/internal/service/profile"
	"github.com/jwalitptl/lawdesk/internal/sms"
	"github.com/jwalitptl/lawdesk/pkg/auth"
	"github.com/jwalitptl/lawdesk/pkg/lock"
	"github.com/jwalitptl/lawdesk/pkg/logger"
	"github.com/jwalitptl/lawdesk/pkg/messaging"
	messagingRedis "github.com/jwalitptl/lawdesk/pkg/messaging/redis"
	"github.com/jwalitptl/lawdesk/pkg/metrics"
	"github.com/jwalitptl/lawdesk/pkg/validator"
)

const metricsNamespace = "lawdesk"

// Stores are the repositories the app runs on.
type Stores struct {
	Users    repository.UserRepository
	Cases    repository.CaseRepository
	Hearings repository.HearingRepository
}

// Overrides replace providers built from configuration. Tests use them to
// avoid network calls.
type Overrides struct {
	SMS   sms.Sender
	Email email.Service
	Clock reminder.Clock
}

type App struct {
	Config    *config.Config
	Logger    *logger.Logger
	DB        *sqlx.DB
	Redis     *goredis.Client
	Broker    messaging.Broker
	Registry  *prometheus.Registry
	Metrics   *metrics.Metrics
	Stores    Stores
	SMS       sms.Sender
	Tokens    *auth.TokenManager
	Reminders *reminder.Service
	Cases     *caseService.Service
	Hearings  *hearingService.Service
	Profiles  *profileService.Service
}

// NewLogger builds the process logger from the log section.
func NewLogger(cfg config.LogConfig) *logger.Logger {
	return logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Level),
		TimeFormat: time.RFC3339,
		JSON:       cfg.JSON,
	})
}

// New connects to Postgres and, when configured, Redis, then assembles the
// app on top of them.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
	}

	var rdb *goredis.Client
	if cfg.Redis.URL != "" {
		rdb, err = messagingRedis.NewClient(ctx, messagingRedis.Config{
			URL:          cfg.Redis.URL,
			MaxRetries:   cfg.Redis.MaxRetries,
			RetryBackoff: cfg.Redis.RetryBackoff,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
		})
		if err != nil {
			db.Close()
			return nil, err
		}
	} else {
		log.Warn("REDIS_URL not set; run lock and de-dup are process local")
	}

	repos := postgres.NewRepositories(db)
	a, err := Build(cfg, log, Stores{Users: repos.Users, Cases: repos.Cases, Hearings: repos.Hearings}, rdb, Overrides{})
	a.DB = db
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// Build assembles services and providers without doing any I/O. rdb may be nil.
func Build(cfg *config.Config, log *logger.Logger, stores Stores, rdb *goredis.Client, o Overrides) (*App, error) {
	a := &App{
		Config:   cfg,
		Logger:   log,
		Redis:    rdb,
		Registry: prometheus.NewRegistry(),
		Metrics:  metrics.New(metricsNamespace),
		Stores:   stores,
	}
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if err := a.Metrics.Register(a.Registry); err != nil {
		return a, fmt.Errorf("failed to register metrics: %w", err)
	}
	if err := validator.Register(model.Date{}); err != nil {
		return a, err
	}

	loc, err := cfg.Reminders.Location()
	if err != nil {
		return a, err
	}
	schedule := reminder.Schedule{
		Location:    loc,
		DefaultTime: cfg.Reminders.DefaultTime,
		OffsetDays:  cfg.Reminders.OffsetDays,
		Window:      time.Duration(cfg.Reminders.WindowMinutes) * time.Minute,
	}

	a.SMS = o.SMS
	if a.SMS == nil {
		a.SMS = sms.NewTwilioSender(sms.TwilioConfig{
			AccountSID:          cfg.SMS.AccountSID,
			AuthToken:           cfg.SMS.AuthToken,
			MessagingServiceSID: cfg.SMS.MessagingServiceSID,
			FromNumber:          cfg.SMS.FromNumber,
		})
	}
	mailer := o.Email
	if mailer == nil {
		mailer = newEmailService(cfg)
	}

	composer := reminder.Composer{BrandName: cfg.Reminders.BrandName, AppBaseURL: cfg.Reminders.AppBaseURL}
	var channel reminder.Channel
	switch cfg.Reminders.Channel {
	case config.ChannelEmail:
		channel = reminder.NewEmailChannel(mailer, composer)
	default:
		channel = reminder.NewSMSChannel(a.SMS, composer, cfg.Reminders.DefaultCountryCode)
	}

	deps := reminder.Deps{
		Hearings: stores.Hearings,
		Cases:    stores.Cases,
		Users:    stores.Users,
		Channel:  channel,
		Clock:    o.Clock,
		Logger:   log,
		Metrics:  a.Metrics,
	}
	if rdb != nil {
		a.Broker = messagingRedis.NewRedisBroker(rdb, &log.ZL)
		deps.Locker = lock.NewRedisLocker(rdb, "lawdesk:lock:")
		deps.Deduper = reminder.NewRedisDeduper(rdb, "lawdesk:sent:")
		deps.Publisher = a.Broker
	}
	a.Reminders = reminder.NewService(deps, reminder.Options{
		Policy:    cfg.Reminders.Policy,
		Schedule:  schedule,
		BatchSize: cfg.Reminders.BatchSize,
		LockTTL:   cfg.Reminders.LockTTL,
	})

	a.Tokens = auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)
	a.Cases = caseService.NewService(stores.Cases)
	a.Hearings = hearingService.NewService(stores.Hearings, stores.Cases, a.Cases, a.Reminders.Schedule(), o.Clock)
	a.Profiles = profileService.NewService(stores.Users, cfg.Reminders.DefaultCountryCode)
	return a, nil
}

func newEmailService(cfg *config.Config) email.Service {
	sender := email.Sender{From: cfg.Email.From, FromName: cfg.Email.FromName, ReplyTo: cfg.Email.ReplyTo}
	switch cfg.Email.Provider {
	case config.EmailProviderResend:
		return email.NewResendService(email.ResendConfig{
			Sender:     sender,
			APIKey:     cfg.Email.ResendAPIKey,
			Categories: cfg.Email.Categories,
		})
	case config.EmailProviderSMTP:
		return email.NewSMTPService(email.SMTPConfig{
			Sender:   sender,
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
		})
	default:
		return email.NewSendGridService(email.SendGridConfig{
			Sender:               sender,
			APIKey:               cfg.Email.SendGridAPIKey,
			TemplateID:           cfg.Email.TemplateID,
			UseTemplate:          cfg.Email.UseTemplate,
			Categories:           cfg.Email.Categories,
			ClickTracking:        cfg.Email.ClickTracking,
			OpenTracking:         cfg.Email.OpenTracking,
			BypassListManagement: cfg.Email.BypassListManagement,
		})
	}
}

// Router wires the HTTP surface.
func (a *App) Router() *router.Router {
	checks := map[string]health.Check{}
	if a.DB != nil {
		checks["database"] = a.DB.PingContext
	}
	if a.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return a.Redis.Ping(ctx).Err() }
	}

	var limit rate.Limit
	if a.Config.RateLimit.Enabled {
		limit = rate.Limit(a.Config.RateLimit.RequestsPerSecond)
	}

	r := router.NewRouter(router.RouterConfig{
		Production:     a.Config.IsProduction(),
		CronSecret:     a.Config.Cron.Secret,
		RateLimit:      limit,
		RateBurst:      a.Config.RateLimit.Burst,
		AllowedOrigins: a.Config.Server.AllowedOrigins,
		MaxBodyBytes:   a.Config.Server.MaxBodyBytes,
		RequestTimeout: a.Config.Server.RequestTimeout,
	}, router.Handlers{
		Health:    health.NewHandler(checks),
		Metrics:   promHandler.New(a.Registry),
		Reminders: reminderHandler.NewHandler(a.Reminders, a.SMS, a.Logger),
		Cases:     caseHandler.NewHandler(a.Cases),
		Hearings:  hearingHandler.NewHandler(a.Hearings),
		Profile:   profileHandler.NewHandler(a.Profiles),
	}, a.Tokens, a.Logger, a.Metrics)
	r.Setup()
	return r
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Error(err, "Failed to close Redis client")
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Error(err, "Failed to close database")
		}
	}
}
