package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Environment)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, PolicyTimestamp, cfg.Reminders.Policy)
	assert.Equal(t, ChannelSMS, cfg.Reminders.Channel)
	assert.Equal(t, "18:00", cfg.Reminders.DefaultTime)
	assert.Equal(t, 1, cfg.Reminders.OffsetDays)
	assert.Equal(t, 10, cfg.Reminders.WindowMinutes)
	assert.Equal(t, 20, cfg.Reminders.BatchSize)
	assert.Equal(t, "+91", cfg.Reminders.DefaultCountryCode)
	assert.Equal(t, 2*time.Minute, cfg.Reminders.LockTTL)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.Equal(t, "host=localhost port=5432 user=postgres password=postgres dbname=lawdesk sslmode=disable", cfg.Database.DSN())

	loc, err := cfg.Reminders.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Kolkata", loc.String())
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte(`
environment: production
reminders:
  policy: window
  channel: email
  batch_size: 5
email:
  provider: resend
`), 0o600))

	t.Setenv("CRON_SECRET", "from-env")
	t.Setenv("TWILIO_PHONE_NUMBER", "+15550001111")
	t.Setenv("NOTIFY_DAILY_HHMM", "19:30")
	t.Setenv("NOTIFY_OFFSET_DAYS", "0")
	t.Setenv("NOTIFY_USE_TEMPLATE", "true")
	t.Setenv("REMINDER_BATCH_SIZE", "7")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, PolicyWindow, cfg.Reminders.Policy)
	assert.Equal(t, ChannelEmail, cfg.Reminders.Channel)
	assert.Equal(t, EmailProviderResend, cfg.Email.Provider)
	assert.Equal(t, "from-env", cfg.Cron.Secret)
	assert.Equal(t, "+15550001111", cfg.SMS.FromNumber)
	assert.Equal(t, "19:30", cfg.Reminders.DefaultTime)
	assert.Equal(t, 0, cfg.Reminders.OffsetDays, "an explicit zero overrides the default")
	assert.True(t, cfg.Email.UseTemplate)
	assert.Equal(t, 7, cfg.Reminders.BatchSize)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Reminders: ReminderConfig{Policy: PolicyTimestamp, Channel: ChannelSMS, Timezone: "UTC", BatchSize: 1},
			Email:     EmailConfig{Provider: EmailProviderSendGrid},
		}
	}
	require.NoError(t, base().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"policy", func(c *Config) { c.Reminders.Policy = "cron" }},
		{"channel", func(c *Config) { c.Reminders.Channel = "fax" }},
		{"provider", func(c *Config) { c.Email.Provider = "mailgun" }},
		{"batch size", func(c *Config) { c.Reminders.BatchSize = 0 }},
		{"negative offset", func(c *Config) { c.Reminders.OffsetDays = -1 }},
		{"timezone", func(c *Config) { c.Reminders.Timezone = "Mars/Olympus" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
