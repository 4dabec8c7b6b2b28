package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	// Rely on t.Setenv's cleanup to restore any ambient values.
	t.Setenv("APP_ENV", "testing")
	t.Setenv("APP_PORT", "")
	t.Setenv("POSTGRES_HOST", "")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.DBHost != "localhost" {
		t.Errorf("DBHost = %q, want localhost", cfg.DBHost)
	}
	if cfg.JWTSecret != "dev-secret" {
		t.Errorf("JWTSecret = %q, want dev-secret", cfg.JWTSecret)
	}
	if cfg.IsDev() {
		t.Error("IsDev() should be false for testing env")
	}
}

func TestLoadProductionGuards(t *testing.T) {
	tests := []struct {
		name       string
		dbPassword string
		jwtSecret  string
		wantErr    bool
	}{
		{name: "default db password rejected", dbPassword: "", jwtSecret: "supersecret", wantErr: true},
		{name: "default jwt secret rejected", dbPassword: "strongpass", jwtSecret: "", wantErr: true},
		{name: "explicit values accepted", dbPassword: "strongpass", jwtSecret: "supersecret", wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("APP_ENV", "production")
			t.Setenv("POSTGRES_PASSWORD", tt.dbPassword)
			t.Setenv("JWT_SECRET", tt.jwtSecret)

			_, err := Load()
			if (err != nil) != tt.wantErr {
				t.Errorf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDSN(t *testing.T) {
	cfg := &Config{
		DBUser: "quest", DBPassword: "pw", DBHost: "db", DBPort: "5433", DBName: "blog",
	}
	want := "postgres://quest:pw@db:5433/blog?sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}

func TestCORSOriginsSplit(t *testing.T) {
	t.Setenv("APP_ENV", "testing")
	t.Setenv("CORS_ORIGINS", "https://questmeraki.netlify.app, http://localhost:5173 ,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Fatalf("CORSOrigins = %v, want 2 entries", cfg.CORSOrigins)
	}
	if cfg.CORSOrigins[0] != "https://questmeraki.netlify.app" {
		t.Errorf("first origin = %q", cfg.CORSOrigins[0])
	}
}

func TestStorageConfigured(t *testing.T) {
	cfg := &Config{}
	if cfg.StorageConfigured() {
		t.Error("empty config should not report storage configured")
	}
	cfg = &Config{S3Endpoint: "https://s3.local", S3AccessKey: "k", S3SecretKey: "s"}
	if !cfg.StorageConfigured() {
		t.Error("full credentials should report storage configured")
	}
}
