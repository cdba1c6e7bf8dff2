package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/unclebandit/campaign-mailer/internal/db"
	"github.com/unclebandit/campaign-mailer/internal/mailer"
	"github.com/unclebandit/campaign-mailer/internal/service"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	SMTP      mailer.SMTPConfig
	Dispatch  DispatchConfig
	AMQP      AMQPConfig
	Scheduler SchedulerConfig
	Branding  service.Branding
	LogLevel  string
}

type ServerConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	// RequestsPerMinute is the per-IP limit; 0 disables it.
	RequestsPerMinute int
	PreviewCacheTTL   time.Duration
}

type DatabaseConfig struct {
	// Driver is "memory" or "postgres".
	Driver   string
	Postgres db.Config
}

type DispatchConfig struct {
	// Limiter is "fixed", "token_bucket" or "none".
	Limiter    string
	SendDelay  time.Duration
	// StaleAfter is the heartbeat age at which a sending campaign is paused.
	StaleAfter time.Duration
	RatePerSec float64
	Burst      int
	LogoPath   string
	SenderRole string
	// Transport is "smtp" or "memory".
	Transport string
}

type AMQPConfig struct {
	// URL is empty when dispatch jobs stay in process.
	URL string
}

type SchedulerConfig struct {
	Enabled bool
	Spec    string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("SERVER_READ_TIMEOUT", "15s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "30s")
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 120)
	v.SetDefault("PREVIEW_CACHE_TTL", "1m")

	v.SetDefault("DB_DRIVER", "memory")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "campaign_mailer")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("SMTP_HOST", "smtp.gmail.com")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USER", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("SMTP_FROM", "")
	v.SetDefault("SMTP_INSECURE_SKIP_VERIFY", false)

	v.SetDefault("MAIL_TRANSPORT", "smtp")
	v.SetDefault("MAIL_LIMITER", "fixed")
	v.SetDefault("MAIL_SEND_DELAY", service.DefaultSendDelay.String())
	v.SetDefault("MAIL_RATE", 1.0)
	v.SetDefault("MAIL_BURST", 1)
	v.SetDefault("MAIL_STALE_AFTER", service.DefaultStaleAfter.String())
	v.SetDefault("LOGO_PATH", "")
	v.SetDefault("SENDER_ROLE", "Digital Growth Consultant")

	v.SetDefault("AMQP_URL", "")

	v.SetDefault("SCHEDULER_ENABLED", true)
	v.SetDefault("SCHEDULER_SPEC", "@every 30s")

	brand := service.DefaultBranding()
	v.SetDefault("COMPANY_NAME", brand.CompanyName)
	v.SetDefault("COMPANY_PHONE", brand.CompanyPhone)
	v.SetDefault("COMPANY_WEBSITE", brand.CompanyWebsite)
	v.SetDefault("COMPANY_ADDRESS", brand.CompanyAddress)
	v.SetDefault("EMAIL_TITLE", brand.Title)
	v.SetDefault("EMAIL_TAGLINE", brand.Tagline)
	v.SetDefault("UNSUBSCRIBE_EMAIL", brand.UnsubscribeEmail)

	v.SetDefault("LOG_LEVEL", "info")
}

// Load reads .env files if present, then the environment.
func Load(envFiles ...string) (*Config, error) {
	// a missing .env is fine; the environment may carry everything
	_ = godotenv.Load(envFiles...)

	v := viper.New()
	setDefaults(v)
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:              v.GetInt("SERVER_PORT"),
			ReadTimeout:       v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout:      v.GetDuration("SERVER_WRITE_TIMEOUT"),
			ShutdownTimeout:   v.GetDuration("SERVER_SHUTDOWN_TIMEOUT"),
			RequestsPerMinute: v.GetInt("RATE_LIMIT_PER_MINUTE"),
			PreviewCacheTTL:   v.GetDuration("PREVIEW_CACHE_TTL"),
		},
		Database: DatabaseConfig{
			Driver: strings.ToLower(v.GetString("DB_DRIVER")),
			Postgres: db.Config{
				Host:     v.GetString("DB_HOST"),
				Port:     v.GetInt("DB_PORT"),
				User:     v.GetString("DB_USER"),
				Password: v.GetString("DB_PASSWORD"),
				Name:     v.GetString("DB_NAME"),
				SSLMode:  v.GetString("DB_SSLMODE"),
			},
		},
		SMTP: mailer.SMTPConfig{
			Host:               v.GetString("SMTP_HOST"),
			Port:               v.GetInt("SMTP_PORT"),
			Username:           v.GetString("SMTP_USER"),
			Password:           v.GetString("SMTP_PASSWORD"),
			From:               v.GetString("SMTP_FROM"),
			InsecureSkipVerify: v.GetBool("SMTP_INSECURE_SKIP_VERIFY"),
		},
		Dispatch: DispatchConfig{
			Limiter:    strings.ToLower(v.GetString("MAIL_LIMITER")),
			SendDelay:  v.GetDuration("MAIL_SEND_DELAY"),
			StaleAfter: v.GetDuration("MAIL_STALE_AFTER"),
			RatePerSec: v.GetFloat64("MAIL_RATE"),
			Burst:      v.GetInt("MAIL_BURST"),
			LogoPath:   v.GetString("LOGO_PATH"),
			SenderRole: v.GetString("SENDER_ROLE"),
			Transport:  strings.ToLower(v.GetString("MAIL_TRANSPORT")),
		},
		AMQP: AMQPConfig{
			URL: v.GetString("AMQP_URL"),
		},
		Scheduler: SchedulerConfig{
			Enabled: v.GetBool("SCHEDULER_ENABLED"),
			Spec:    v.GetString("SCHEDULER_SPEC"),
		},
		Branding: service.Branding{
			CompanyName:      v.GetString("COMPANY_NAME"),
			CompanyPhone:     v.GetString("COMPANY_PHONE"),
			CompanyWebsite:   v.GetString("COMPANY_WEBSITE"),
			CompanyAddress:   v.GetString("COMPANY_ADDRESS"),
			Title:            v.GetString("EMAIL_TITLE"),
			Tagline:          v.GetString("EMAIL_TAGLINE"),
			LogoContentID:    "logo",
			UnsubscribeEmail: v.GetString("UNSUBSCRIBE_EMAIL"),
		},
		LogLevel: v.GetString("LOG_LEVEL"),
	}

	if cfg.SMTP.From == "" {
		cfg.SMTP.From = cfg.SMTP.Username
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "memory", "postgres":
	default:
		return fmt.Errorf("DB_DRIVER must be memory or postgres, got %q", c.Database.Driver)
	}
	switch c.Dispatch.Transport {
	case "smtp", "memory":
	default:
		return fmt.Errorf("MAIL_TRANSPORT must be smtp or memory, got %q", c.Dispatch.Transport)
	}
	if _, err := service.NewLimiter(c.Dispatch.Limiter, c.Dispatch.SendDelay, c.Dispatch.RatePerSec, c.Dispatch.Burst); err != nil {
		return fmt.Errorf("invalid dispatch limiter: %w", err)
	}
	if c.Dispatch.StaleAfter <= 0 {
		return fmt.Errorf("MAIL_STALE_AFTER must be positive, got %s", c.Dispatch.StaleAfter)
	}
	if c.Dispatch.LogoPath != "" {
		if _, err := os.Stat(c.Dispatch.LogoPath); err != nil {
			return fmt.Errorf("LOGO_PATH: %w", err)
		}
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("SERVER_PORT must be positive, got %d", c.Server.Port)
	}
	return nil
}

// Limiter builds the configured send limiter.
func (c *Config) Limiter() (service.Limiter, error) {
	return service.NewLimiter(c.Dispatch.Limiter, c.Dispatch.SendDelay, c.Dispatch.RatePerSec, c.Dispatch.Burst)
}

// Attachments returns the inline logo sent with every message, if configured.
func (c *Config) Attachments() []mailer.Attachment {
	if c.Dispatch.LogoPath == "" {
		return nil
	}
	return []mailer.Attachment{{Filename: "logo.png", Path: c.Dispatch.LogoPath, ContentID: c.Branding.LogoContentID}}
}
