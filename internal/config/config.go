package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Datastore backends selectable through DATASTORE.
const (
	DatastoreFirestore = "firestore"
	DatastoreMemory    = "memory"
)

// ServerConfig holds the configuration of the application API.
type ServerConfig struct {
	Port                             string        `mapstructure:"PORT"`
	GinMode                          string        `mapstructure:"GIN_MODE"`
	Datastore                        string        `mapstructure:"DATASTORE"`
	FirebaseProjectID                string        `mapstructure:"FIREBASE_PROJECT_ID"`
	GoogleApplicationCredentials     string        `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS"`
	FirebaseServiceAccountJSONBase64 string        `mapstructure:"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64"`
	CORSAllowedOrigins               string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RedisURL                         string        `mapstructure:"REDIS_URL"`
	NotifierURL                      string        `mapstructure:"NOTIFIER_URL"`
	NotifierTimeout                  time.Duration `mapstructure:"NOTIFIER_TIMEOUT"`
	ReconcileInterval                time.Duration `mapstructure:"RECONCILE_INTERVAL"`
	PresenceTTL                      time.Duration `mapstructure:"PRESENCE_TTL"`
}

// NotifierConfig holds the configuration of the notification dispatcher.
type NotifierConfig struct {
	Port                   string `mapstructure:"PORT"`
	GinMode                string `mapstructure:"GIN_MODE"`
	CORSAllowedOrigins     string `mapstructure:"CORS_ALLOWED_ORIGINS"`
	NotificationLegacyPath string `mapstructure:"NOTIFICATION_LEGACY_PATH"`
	AppURL                 string `mapstructure:"APP_URL"`
	EmailFrom              string `mapstructure:"EMAIL_FROM"`
	ResendAPIKey           string `mapstructure:"RESEND_API_KEY"`
	ResendEndpoint         string `mapstructure:"RESEND_ENDPOINT"`
	SMTPHost               string `mapstructure:"SMTP_HOST"`
	SMTPPort               string `mapstructure:"SMTP_PORT"`
	SMTPUser               string `mapstructure:"SMTP_USER"`
	SMTPPass               string `mapstructure:"SMTP_PASS"`
	SendConcurrency        int    `mapstructure:"SEND_CONCURRENCY"`
}

// ImageRelayConfig holds the configuration of the image relay.
type ImageRelayConfig struct {
	Port                 string `mapstructure:"PORT"`
	GinMode              string `mapstructure:"GIN_MODE"`
	CORSAllowedOrigins   string `mapstructure:"CORS_ALLOWED_ORIGINS"`
	ObjectStoreEndpoint  string `mapstructure:"OBJECT_STORE_ENDPOINT"`
	ObjectStoreAccessKey string `mapstructure:"OBJECT_STORE_ACCESS_KEY"`
	ObjectStoreSecretKey string `mapstructure:"OBJECT_STORE_SECRET_KEY"`
	ObjectStoreBucket    string `mapstructure:"OBJECT_STORE_BUCKET"`
	ObjectStoreRegion    string `mapstructure:"OBJECT_STORE_REGION"`
	ObjectStoreUseTLS    bool   `mapstructure:"OBJECT_STORE_USE_TLS"`
}

// AllowedOrigins splits a comma-separated origin list, dropping blanks.
func AllowedOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, strings.TrimSuffix(o, "/"))
		}
	}
	return origins
}

// loadDotEnv reads a local .env file outside release mode. A missing file is
// not an error.
func loadDotEnv() {
	if strings.EqualFold(os.Getenv("GIN_MODE"), "release") {
		return
	}
	_ = godotenv.Load()
}

// newViper returns a viper instance bound to the given environment keys.
func newViper(defaults map[string]any, keys ...string) *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	for _, k := range keys {
		_ = v.BindEnv(k)
	}
	return v
}

// LoadServer loads the application API configuration from the environment.
func LoadServer() (*ServerConfig, error) {
	loadDotEnv()
	v := newViper(map[string]any{
		"PORT":               "8080",
		"GIN_MODE":           "debug",
		"DATASTORE":          DatastoreFirestore,
		"NOTIFIER_TIMEOUT":   "10s",
		"RECONCILE_INTERVAL": "0s",
		"PRESENCE_TTL":       "60s",
	},
		"FIREBASE_PROJECT_ID",
		"GOOGLE_APPLICATION_CREDENTIALS",
		"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64",
		"CORS_ALLOWED_ORIGINS",
		"REDIS_URL",
		"NOTIFIER_URL",
	)

	var cfg ServerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	switch cfg.Datastore {
	case DatastoreFirestore:
		if cfg.FirebaseProjectID == "" {
			return nil, errors.New("FIREBASE_PROJECT_ID is required when DATASTORE=firestore")
		}
	case DatastoreMemory:
	default:
		return nil, fmt.Errorf("DATASTORE must be %q or %q, got %q", DatastoreFirestore, DatastoreMemory, cfg.Datastore)
	}
	if cfg.ReconcileInterval < 0 {
		return nil, errors.New("RECONCILE_INTERVAL must not be negative")
	}
	if cfg.PresenceTTL <= 0 {
		return nil, errors.New("PRESENCE_TTL must be positive")
	}
	return &cfg, nil
}

// LoadNotifier loads the notification dispatcher configuration. Missing email
// provider credentials are not a load error: the dispatcher reports them per
// request with a 500.
func LoadNotifier() (*NotifierConfig, error) {
	loadDotEnv()
	v := newViper(map[string]any{
		"PORT":             "8081",
		"GIN_MODE":         "debug",
		"SMTP_PORT":        "587",
		"RESEND_ENDPOINT":  "https://api.resend.com/emails",
		"EMAIL_FROM":       "Help From Founder <notifications@helpfromfounder.com>",
		"APP_URL":          "http://localhost:5173",
		"SEND_CONCURRENCY": 5,
	},
		"CORS_ALLOWED_ORIGINS",
		"NOTIFICATION_LEGACY_PATH",
		"RESEND_API_KEY",
		"SMTP_HOST",
		"SMTP_USER",
		"SMTP_PASS",
	)

	var cfg NotifierConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.NotificationLegacyPath != "" && !strings.HasPrefix(cfg.NotificationLegacyPath, "/") {
		cfg.NotificationLegacyPath = "/" + cfg.NotificationLegacyPath
	}
	if cfg.SendConcurrency <= 0 {
		return nil, errors.New("SEND_CONCURRENCY must be positive")
	}
	return &cfg, nil
}

// LoadImageRelay loads the image relay configuration.
func LoadImageRelay() (*ImageRelayConfig, error) {
	loadDotEnv()
	v := newViper(map[string]any{
		"PORT":                 "8082",
		"GIN_MODE":             "debug",
		"OBJECT_STORE_REGION":  "auto",
		"OBJECT_STORE_USE_TLS": true,
	},
		"CORS_ALLOWED_ORIGINS",
		"OBJECT_STORE_ENDPOINT",
		"OBJECT_STORE_ACCESS_KEY",
		"OBJECT_STORE_SECRET_KEY",
		"OBJECT_STORE_BUCKET",
	)

	var cfg ImageRelayConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.ObjectStoreEndpoint == "" {
		return nil, errors.New("OBJECT_STORE_ENDPOINT is required")
	}
	if cfg.ObjectStoreAccessKey == "" || cfg.ObjectStoreSecretKey == "" {
		return nil, errors.New("OBJECT_STORE_ACCESS_KEY and OBJECT_STORE_SECRET_KEY are required")
	}
	if cfg.ObjectStoreBucket == "" {
		return nil, errors.New("OBJECT_STORE_BUCKET is required")
	}
	return &cfg, nil
}
