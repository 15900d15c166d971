package config

import (
	"testing"
	"time"
)

func TestValidate_AppliesDocumentedDefaults(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err != nil {
		t.Fatalf("expected empty config to be valid, got %v", err)
	}
	if c.App.Env != "local" || c.App.Port != 3001 {
		t.Fatalf("unexpected app defaults: %+v", c.App)
	}
	if c.Auth.AccessTokenTTL != 7*24*time.Hour {
		t.Fatalf("expected 7d access ttl, got %s", c.Auth.AccessTokenTTL)
	}
	if c.Auth.BcryptCost != 12 {
		t.Fatalf("expected cost 12, got %d", c.Auth.BcryptCost)
	}
	if c.Security.RateLimitWindow != 15*time.Minute || c.Security.RateLimitMax != 100 || c.Security.AuthRateLimit != 5 {
		t.Fatalf("unexpected rate limit defaults: %+v", c.Security)
	}
	if len(c.Security.AllowedOrigins) != 2 {
		t.Fatalf("expected local dev origins, got %v", c.Security.AllowedOrigins)
	}
	if c.Log.Dir != "logs" || c.Log.SentryDSN != "" {
		t.Fatalf("unexpected log defaults: %+v", c.Log)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
	if c.RedisEnabled() {
		t.Fatalf("redis should be off without REDIS_HOST")
	}
}

func TestValidate_ProductionRequiresSecretAndSSLMode(t *testing.T) {
	c := Config{App: AppConfig{Env: "production"}}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production with default secret and no sslmode")
	}

	c = Config{
		App:  AppConfig{Env: "production"},
		DB:   DBConfig{SSLMode: "require"},
		Auth: AuthConfig{JWTSecret: "prod-secret"},
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidate_RejectsOutOfRangeCost(t *testing.T) {
	c := Config{Auth: AuthConfig{BcryptCost: 40}}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected bcrypt cost error")
	}
}

func TestValidate_RejectsBadOrigins(t *testing.T) {
	cases := map[string][]string{
		"missing scheme":     {"localhost:5173"},
		"wildcard":           {"*"},
		"one bad among good": {"https://site.example", "site.example"},
	}
	for name, origins := range cases {
		t.Run(name, func(t *testing.T) {
			c := Config{Security: SecurityConfig{AllowedOrigins: origins}}
			if err := c.Validate(); err == nil {
				t.Fatalf("expected origin error for %v", origins)
			}
		})
	}

	c := Config{Security: SecurityConfig{AllowedOrigins: []string{"https://site.example", "http://localhost:5173"}}}
	if err := c.Validate(); err != nil {
		t.Fatalf("expected valid origins, got %v", err)
	}
}

func TestLoad_BadOriginIsConfigError(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "localhost:5173")
	if _, err := Load(); err == nil {
		t.Fatalf("expected config error for origin without scheme")
	}
}

func TestValidate_RedisURL(t *testing.T) {
	c := Config{Redis: RedisConfig{URL: "redis://:pw@cache:6380/2"}}
	if err := c.Validate(); err != nil {
		t.Fatalf("expected valid redis url, got %v", err)
	}
	if !c.RedisEnabled() {
		t.Fatalf("redis should be on with REDIS_URL")
	}

	c = Config{Redis: RedisConfig{URL: "cache:6379"}}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for redis url without scheme")
	}
}

func TestLoad_ReadsEnv(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("JWT_EXPIRES_IN", "2d")
	t.Setenv("ALLOWED_ORIGINS", "https://site.example, https://admin.example")
	t.Setenv("RATE_LIMIT_WINDOW_MS", "60000")
	t.Setenv("RATE_LIMIT_MAX_REQUESTS", "10")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8")
	t.Setenv("SENTRY_DSN", "https://key@sentry.example/1")
	t.Setenv("LOG_DIR", "/var/log/api")

	c, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Auth.AccessTokenTTL != 48*time.Hour {
		t.Fatalf("expected 48h, got %s", c.Auth.AccessTokenTTL)
	}
	if len(c.Security.AllowedOrigins) != 2 || c.Security.AllowedOrigins[1] != "https://admin.example" {
		t.Fatalf("unexpected origins: %v", c.Security.AllowedOrigins)
	}
	if c.Security.RateLimitWindow != time.Minute || c.Security.RateLimitMax != 10 {
		t.Fatalf("unexpected limits: %+v", c.Security)
	}
	if len(c.Security.TrustedProxies) != 1 || c.Security.TrustedProxies[0] != "10.0.0.0/8" {
		t.Fatalf("unexpected trusted proxies: %v", c.Security.TrustedProxies)
	}
	if c.Log.SentryDSN != "https://key@sentry.example/1" || c.Log.Dir != "/var/log/api" {
		t.Fatalf("unexpected log config: %+v", c.Log)
	}
	if c.RedisAddr() != "cache:6379" {
		t.Fatalf("unexpected redis addr %q", c.RedisAddr())
	}
}

func TestLoad_RejectsOverflowingDays(t *testing.T) {
	t.Setenv("JWT_EXPIRES_IN", "200000d")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for overflowing JWT_EXPIRES_IN")
	}
}

func TestLoad_ReportsBadIntegers(t *testing.T) {
	t.Setenv("APP_PORT", "eighty")
	if _, err := Load(); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestParseDuration(t *testing.T) {
	cases := map[string]time.Duration{
		"7d":  7 * 24 * time.Hour,
		"90m": 90 * time.Minute,
		"1h":  time.Hour,
	}
	for in, want := range cases {
		got, err := ParseDuration(in)
		if err != nil || got != want {
			t.Fatalf("ParseDuration(%q) = %s, %v; want %s", in, got, err, want)
		}
	}
	for _, bad := range []string{"xd", "200000d", "-200000d"} {
		if _, err := ParseDuration(bad); err == nil {
			t.Fatalf("expected error for %s", bad)
		}
	}
	if got, err := ParseDuration("106751d"); err != nil || got <= 0 {
		t.Fatalf("largest day count should fit, got %s, %v", got, err)
	}
}
