package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"

	PolicyTimestamp = "timestamp"
	PolicyWindow    = "window"

	ChannelSMS   = "sms"
	ChannelEmail = "email"

	EmailProviderSendGrid = "sendgrid"
	EmailProviderResend   = "resend"
	EmailProviderSMTP     = "smtp"
)

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN returns a lib/pq keyword/value connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxHeaderBytes  int           `mapstructure:"max_header_bytes"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	Issuer      string `mapstructure:"issuer"`
	ExpiryHours int    `mapstructure:"expiry_hours"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type CronConfig struct {
	Secret string `mapstructure:"secret"`
}

// ReminderConfig drives selection and composition of hearing reminders.
type ReminderConfig struct {
	Policy             string        `mapstructure:"policy"`
	Channel            string        `mapstructure:"channel"`
	Timezone           string        `mapstructure:"timezone"`
	DefaultTime        string        `mapstructure:"default_time"`
	OffsetDays         int           `mapstructure:"offset_days"`
	WindowMinutes      int           `mapstructure:"window_minutes"`
	BatchSize          int           `mapstructure:"batch_size"`
	DefaultCountryCode string        `mapstructure:"default_country_code"`
	AppBaseURL         string        `mapstructure:"app_base_url"`
	BrandName          string        `mapstructure:"brand_name"`
	PollInterval       time.Duration `mapstructure:"poll_interval"`
	LockTTL            time.Duration `mapstructure:"lock_ttl"`
}

// Location loads the reference timezone.
func (c ReminderConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid reminders.timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

type EmailConfig struct {
	Provider             string   `mapstructure:"provider"`
	SendGridAPIKey       string   `mapstructure:"sendgrid_api_key"`
	ResendAPIKey         string   `mapstructure:"resend_api_key"`
	From                 string   `mapstructure:"from"`
	FromName             string   `mapstructure:"from_name"`
	ReplyTo              string   `mapstructure:"reply_to"`
	TemplateID           string   `mapstructure:"template_id"`
	UseTemplate          bool     `mapstructure:"use_template"`
	Categories           []string `mapstructure:"categories"`
	ClickTracking        bool     `mapstructure:"click_tracking"`
	OpenTracking         bool     `mapstructure:"open_tracking"`
	BypassListManagement bool     `mapstructure:"bypass_list_management"`
}

type SMSConfig struct {
	AccountSID          string `mapstructure:"account_sid"`
	AuthToken           string `mapstructure:"auth_token"`
	MessagingServiceSID string `mapstructure:"messaging_service_sid"`
	FromNumber          string `mapstructure:"from_number"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type Config struct {
	Environment string          `mapstructure:"environment"`
	Server      ServerConfig    `mapstructure:"server"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Redis       RedisConfig     `mapstructure:"redis"`
	JWT         JWTConfig       `mapstructure:"jwt"`
	Log         LogConfig       `mapstructure:"log"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
	Cron        CronConfig      `mapstructure:"cron"`
	Reminders   ReminderConfig  `mapstructure:"reminders"`
	Email       EmailConfig     `mapstructure:"email"`
	SMS         SMSConfig       `mapstructure:"sms"`
	SMTP        SMTPConfig      `mapstructure:"smtp"`
}

func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// providerEnv holds the conventional environment names used by deployment
// platforms. Set values win over config.yml and the dotted viper keys.
type providerEnv struct {
	Environment         string `envconfig:"APP_ENV"`
	CronSecret          string `envconfig:"CRON_SECRET"`
	DatabaseHost        string `envconfig:"DATABASE_HOST"`
	RedisURL            string `envconfig:"REDIS_URL"`
	JWTSecret           string `envconfig:"JWT_SECRET"`
	SendGridAPIKey      string `envconfig:"SENDGRID_API_KEY"`
	ResendAPIKey        string `envconfig:"RESEND_API_KEY"`
	FromEmail           string `envconfig:"NOTIFY_FROM_EMAIL"`
	FromName            string `envconfig:"NOTIFY_FROM_NAME"`
	ReplyTo             string `envconfig:"NOTIFY_REPLY_TO"`
	TemplateID          string `envconfig:"SENDGRID_TEMPLATE_ID"`
	UseTemplate         *bool  `envconfig:"NOTIFY_USE_TEMPLATE"`
	ClickTracking       *bool  `envconfig:"NOTIFY_CLICK_TRACKING"`
	OpenTracking        *bool  `envconfig:"NOTIFY_OPEN_TRACKING"`
	BypassListMgmt      *bool  `envconfig:"NOTIFY_BYPASS_LIST_MANAGEMENT"`
	TwilioAccountSID    string `envconfig:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken     string `envconfig:"TWILIO_AUTH_TOKEN"`
	TwilioServiceSID    string `envconfig:"TWILIO_MESSAGING_SERVICE_SID"`
	TwilioFromNumber    string `envconfig:"TWILIO_PHONE_NUMBER"`
	DailyHHMM           string `envconfig:"NOTIFY_DAILY_HHMM"`
	OffsetDays          *int   `envconfig:"NOTIFY_OFFSET_DAYS"`
	WindowMinutes       *int   `envconfig:"NOTIFY_WINDOW_MINUTES"`
	AppBaseURL          string `envconfig:"APP_BASE_URL"`
	BrandName           string `envconfig:"APP_BRAND_NAME"`
	DefaultCountryCode  string `envconfig:"DEFAULT_COUNTRY_CODE"`
	ReminderChannel     string `envconfig:"REMINDER_CHANNEL"`
	ReminderPolicy      string `envconfig:"REMINDER_POLICY"`
	EmailProvider       string `envconfig:"EMAIL_PROVIDER"`
	ReminderBatchSize   *int   `envconfig:"REMINDER_BATCH_SIZE"`
	ReminderTimezoneEnv string `envconfig:"REMINDER_TIMEZONE"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", EnvDevelopment)

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.max_header_bytes", 1<<20)
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "lawdesk")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.retry_backoff", 100*time.Millisecond)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 1)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "lawdesk")
	v.SetDefault("jwt.expiry_hours", 24)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", true)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 1.0)
	v.SetDefault("rate_limit.burst", 5)

	v.SetDefault("cron.secret", "")

	v.SetDefault("reminders.policy", PolicyTimestamp)
	v.SetDefault("reminders.channel", ChannelSMS)
	v.SetDefault("reminders.timezone", "Asia/Kolkata")
	v.SetDefault("reminders.default_time", "18:00")
	v.SetDefault("reminders.offset_days", 1)
	v.SetDefault("reminders.window_minutes", 10)
	v.SetDefault("reminders.batch_size", 20)
	v.SetDefault("reminders.default_country_code", "+91")
	v.SetDefault("reminders.app_base_url", "")
	v.SetDefault("reminders.brand_name", "LawDesk")
	v.SetDefault("reminders.poll_interval", time.Duration(0))
	v.SetDefault("reminders.lock_ttl", 2*time.Minute)

	v.SetDefault("email.provider", EmailProviderSendGrid)
	v.SetDefault("email.sendgrid_api_key", "")
	v.SetDefault("email.resend_api_key", "")
	v.SetDefault("email.from", "")
	v.SetDefault("email.from_name", "LawDesk Reminders")
	v.SetDefault("email.reply_to", "")
	v.SetDefault("email.template_id", "")
	v.SetDefault("email.use_template", false)
	v.SetDefault("email.categories", []string{"hearing-reminder"})
	v.SetDefault("email.click_tracking", false)
	v.SetDefault("email.open_tracking", false)
	v.SetDefault("email.bypass_list_management", false)

	v.SetDefault("sms.account_sid", "")
	v.SetDefault("sms.auth_token", "")
	v.SetDefault("sms.messaging_service_sid", "")
	v.SetDefault("sms.from_number", "")

	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
}

// LoadConfig reads .env and config.yml when present, then env keys derived
// from the dotted names (REMINDERS_BATCH_SIZE) and finally the conventional
// provider env names.
func LoadConfig() (*Config, error) {
	// A missing .env is the normal case outside development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/app")
	v.AddConfigPath("/app/config")

	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	var env providerEnv
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("failed to read provider environment: %w", err)
	}
	env.apply(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (e providerEnv) apply(cfg *Config) {
	setString(&cfg.Environment, e.Environment)
	setString(&cfg.Cron.Secret, e.CronSecret)
	setString(&cfg.Database.Host, e.DatabaseHost)
	setString(&cfg.Redis.URL, e.RedisURL)
	setString(&cfg.JWT.Secret, e.JWTSecret)

	setString(&cfg.Email.SendGridAPIKey, e.SendGridAPIKey)
	setString(&cfg.Email.ResendAPIKey, e.ResendAPIKey)
	setString(&cfg.Email.From, e.FromEmail)
	setString(&cfg.Email.FromName, e.FromName)
	setString(&cfg.Email.ReplyTo, e.ReplyTo)
	setString(&cfg.Email.TemplateID, e.TemplateID)
	setString(&cfg.Email.Provider, e.EmailProvider)
	setBool(&cfg.Email.UseTemplate, e.UseTemplate)
	setBool(&cfg.Email.ClickTracking, e.ClickTracking)
	setBool(&cfg.Email.OpenTracking, e.OpenTracking)
	setBool(&cfg.Email.BypassListManagement, e.BypassListMgmt)

	setString(&cfg.SMS.AccountSID, e.TwilioAccountSID)
	setString(&cfg.SMS.AuthToken, e.TwilioAuthToken)
	setString(&cfg.SMS.MessagingServiceSID, e.TwilioServiceSID)
	setString(&cfg.SMS.FromNumber, e.TwilioFromNumber)

	setString(&cfg.Reminders.DefaultTime, e.DailyHHMM)
	setInt(&cfg.Reminders.OffsetDays, e.OffsetDays)
	setInt(&cfg.Reminders.WindowMinutes, e.WindowMinutes)
	setInt(&cfg.Reminders.BatchSize, e.ReminderBatchSize)
	setString(&cfg.Reminders.AppBaseURL, e.AppBaseURL)
	setString(&cfg.Reminders.BrandName, e.BrandName)
	setString(&cfg.Reminders.DefaultCountryCode, e.DefaultCountryCode)
	setString(&cfg.Reminders.Channel, e.ReminderChannel)
	setString(&cfg.Reminders.Policy, e.ReminderPolicy)
	setString(&cfg.Reminders.Timezone, e.ReminderTimezoneEnv)
}

// Validate checks structural settings only. Provider credentials are checked
// per reminder run so a misconfigured channel rejects the run, not the boot.
func (c *Config) Validate() error {
	switch c.Reminders.Policy {
	case PolicyTimestamp, PolicyWindow:
	default:
		return fmt.Errorf("invalid reminders.policy %q", c.Reminders.Policy)
	}
	switch c.Reminders.Channel {
	case ChannelSMS, ChannelEmail:
	default:
		return fmt.Errorf("invalid reminders.channel %q", c.Reminders.Channel)
	}
	switch c.Email.Provider {
	case EmailProviderSendGrid, EmailProviderResend, EmailProviderSMTP:
	default:
		return fmt.Errorf("invalid email.provider %q", c.Email.Provider)
	}
	if c.Reminders.BatchSize <= 0 {
		return fmt.Errorf("reminders.batch_size must be positive")
	}
	if c.Reminders.WindowMinutes < 0 || c.Reminders.OffsetDays < 0 {
		return fmt.Errorf("reminders window and offset must not be negative")
	}
	if _, err := c.Reminders.Location(); err != nil {
		return err
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
