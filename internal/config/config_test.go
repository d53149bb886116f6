package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoadServerDefaults(t *testing.T) {
	t.Setenv("DATASTORE", "memory")

	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer failed: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.NotifierTimeout != 10*time.Second {
		t.Errorf("NotifierTimeout = %v, want 10s", cfg.NotifierTimeout)
	}
	if cfg.ReconcileInterval != 0 {
		t.Errorf("ReconcileInterval = %v, want 0", cfg.ReconcileInterval)
	}
}

func TestLoadServerRequiresProjectForFirestore(t *testing.T) {
	t.Setenv("DATASTORE", "firestore")
	t.Setenv("FIREBASE_PROJECT_ID", "")

	if _, err := LoadServer(); err == nil {
		t.Fatal("expected error without FIREBASE_PROJECT_ID")
	}
}

func TestLoadServerRejectsUnknownDatastore(t *testing.T) {
	t.Setenv("DATASTORE", "postgres")

	if _, err := LoadServer(); err == nil {
		t.Fatal("expected error for unknown datastore")
	}
}

func TestLoadServerDurations(t *testing.T) {
	t.Setenv("DATASTORE", "memory")
	t.Setenv("RECONCILE_INTERVAL", "15m")
	t.Setenv("PRESENCE_TTL", "30s")

	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer failed: %v", err)
	}
	if cfg.ReconcileInterval != 15*time.Minute {
		t.Errorf("ReconcileInterval = %v, want 15m", cfg.ReconcileInterval)
	}
	if cfg.PresenceTTL != 30*time.Second {
		t.Errorf("PresenceTTL = %v, want 30s", cfg.PresenceTTL)
	}
}

func TestLoadNotifierLegacyPath(t *testing.T) {
	t.Setenv("NOTIFICATION_LEGACY_PATH", "api/notify-founder")

	cfg, err := LoadNotifier()
	if err != nil {
		t.Fatalf("LoadNotifier failed: %v", err)
	}
	if cfg.NotificationLegacyPath != "/api/notify-founder" {
		t.Errorf("NotificationLegacyPath = %q", cfg.NotificationLegacyPath)
	}
	if cfg.SendConcurrency != 5 {
		t.Errorf("SendConcurrency = %d, want 5", cfg.SendConcurrency)
	}
}

func TestLoadImageRelayValidation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
	}{
		{
			name:    "missing endpoint",
			env:     map[string]string{"OBJECT_STORE_ACCESS_KEY": "k", "OBJECT_STORE_SECRET_KEY": "s", "OBJECT_STORE_BUCKET": "b"},
			wantErr: true,
		},
		{
			name:    "missing bucket",
			env:     map[string]string{"OBJECT_STORE_ENDPOINT": "localhost:9000", "OBJECT_STORE_ACCESS_KEY": "k", "OBJECT_STORE_SECRET_KEY": "s"},
			wantErr: true,
		},
		{
			name: "complete",
			env: map[string]string{
				"OBJECT_STORE_ENDPOINT":   "localhost:9000",
				"OBJECT_STORE_ACCESS_KEY": "k",
				"OBJECT_STORE_SECRET_KEY": "s",
				"OBJECT_STORE_BUCKET":     "images",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{"OBJECT_STORE_ENDPOINT", "OBJECT_STORE_ACCESS_KEY", "OBJECT_STORE_SECRET_KEY", "OBJECT_STORE_BUCKET"} {
				t.Setenv(k, tt.env[k])
			}
			_, err := LoadImageRelay()
			if (err != nil) != tt.wantErr {
				t.Errorf("LoadImageRelay() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAllowedOrigins(t *testing.T) {
	got := AllowedOrigins(" https://a.example.com/, ,http://localhost:5173")
	want := []string{"https://a.example.com", "http://localhost:5173"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("AllowedOrigins = %v, want %v", got, want)
	}
	if AllowedOrigins("") != nil {
		t.Error("expected nil for empty list")
	}
}
