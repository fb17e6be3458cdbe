package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host string
	Port int
}

type DBConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

type AuthConfig struct {
	AccessSecret string
}

type WebhookConfig struct {
	LeadURL      string
	OrderURL     string
	AlternateURL string
	AnalyticsURL string
	UserAgent    string
	Timeout      time.Duration
	RetryDelay   time.Duration
}

type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type DiagnosticsConfig struct {
	Capacity int
}

type DistanceConfig struct {
	BaseURL string
	APIKey  string
}

type LocationsConfig struct {
	DataPath string
}

type HealthConfig struct {
	Enabled  bool
	Schedule string
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Webhook     WebhookConfig
	Email       EmailConfig
	Diagnostics DiagnosticsConfig
	Distance    DistanceConfig
	Locations   LocationsConfig
	Health      HealthConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")
	v.AutomaticEnv()

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host: v.GetString("HTTP_HOST"),
			Port: v.GetInt("HTTP_PORT"),
		},
		DB: DBConfig{
			DSN:          v.GetString("DB_DSN"),
			MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Webhook: WebhookConfig{
			LeadURL:      v.GetString("WEBHOOK_LEAD_URL"),
			OrderURL:     v.GetString("WEBHOOK_ORDER_URL"),
			AlternateURL: v.GetString("WEBHOOK_ALTERNATE_URL"),
			AnalyticsURL: v.GetString("WEBHOOK_ANALYTICS_URL"),
			UserAgent:    v.GetString("WEBHOOK_USER_AGENT"),
			Timeout:      v.GetDuration("WEBHOOK_TIMEOUT"),
			RetryDelay:   v.GetDuration("WEBHOOK_RETRY_DELAY"),
		},
		Email: EmailConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			Username: v.GetString("SMTP_USERNAME"),
			Password: v.GetString("SMTP_PASSWORD"),
			From:     v.GetString("SMTP_FROM"),
		},
		Diagnostics: DiagnosticsConfig{
			Capacity: v.GetInt("DIAGNOSTICS_CAPACITY"),
		},
		Distance: DistanceConfig{
			BaseURL: v.GetString("DISTANCE_API_URL"),
			APIKey:  v.GetString("DISTANCE_API_KEY"),
		},
		Locations: LocationsConfig{
			DataPath: v.GetString("LOCATIONS_DATA_PATH"),
		},
		Health: HealthConfig{
			Enabled:  v.GetBool("WEBHOOK_HEALTH_ENABLED"),
			Schedule: v.GetString("WEBHOOK_HEALTH_SCHEDULE"),
		},
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.Webhook.UserAgent == "" {
		cfg.Webhook.UserAgent = "Amerigo-Auto-Transport/1.0"
	}
	if cfg.Webhook.Timeout == 0 {
		cfg.Webhook.Timeout = 15 * time.Second
	}
	if cfg.Webhook.RetryDelay == 0 {
		cfg.Webhook.RetryDelay = 2 * time.Second
	}
	if cfg.Webhook.AlternateURL == "" {
		// The retry target is the lead endpoint without its trailing slash.
		cfg.Webhook.AlternateURL = strings.TrimSuffix(cfg.Webhook.LeadURL, "/")
	}
	if cfg.Email.Port == 0 {
		cfg.Email.Port = 587
	}
	if cfg.Diagnostics.Capacity == 0 {
		cfg.Diagnostics.Capacity = 20
	}
	if cfg.Distance.BaseURL == "" {
		cfg.Distance.BaseURL = "https://www.mapquestapi.com"
	}
	if cfg.Locations.DataPath == "" {
		cfg.Locations.DataPath = "./data/city-data.json"
	}
	if cfg.Health.Schedule == "" {
		cfg.Health.Schedule = "@every 30m"
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Webhook.LeadURL == "" {
		return fmt.Errorf("WEBHOOK_LEAD_URL is required")
	}
	if cfg.Webhook.OrderURL == "" {
		return fmt.Errorf("WEBHOOK_ORDER_URL is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	return nil
}
