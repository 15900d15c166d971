package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// DefaultJWTSecret is the development fallback. Production refuses to start with it.
const DefaultJWTSecret = "your-secret-key-change-in-production"

// Config holds all configuration required by the API process.
// Every value is optional and has a documented default; Validate fills them in.
// No business logic should depend on raw environment variables.
type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Security SecurityConfig
	Log      LogConfig
}

type AppConfig struct {
	Env  string
	Port int
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// Accepts: disable, require, verify-ca, verify-full
	SSLMode string
}

// RedisConfig is optional. With neither URL nor Host set, rate-limit counters
// stay in process memory. URL (redis://[:password@]host:port/db) wins over Host.
type RedisConfig struct {
	URL  string
	Host string
	Port int
}

type AuthConfig struct {
	JWTSecret      string
	JWTIssuer      string
	JWTAudience    string
	AccessTokenTTL time.Duration
	BcryptCost     int
}

type SecurityConfig struct {
	AllowedOrigins  []string
	RateLimitWindow time.Duration
	RateLimitMax    int
	AuthRateLimit   int

	// TrustedProxies may set X-Forwarded-For. Empty trusts none, so the
	// rate limiter keys on the socket address.
	TrustedProxies []string
}

type LogConfig struct {
	Level string

	// Dir receives rotating error.log and combined.log in production.
	// "-" disables the file sinks.
	Dir string

	// SentryDSN enables error tracking. Empty disables it.
	SentryDSN string
}

func Load() (Config, error) {
	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env != "production" {
		// A missing .env is the normal case outside local development.
		_ = godotenv.Load()
		env = strings.TrimSpace(os.Getenv("APP_ENV"))
	}

	c := Config{}
	var parseErrs []error

	c.App.Env = env
	c.App.Port, parseErrs = optInt(parseErrs, "APP_PORT")

	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	c.DB.Port, parseErrs = optInt(parseErrs, "DB_PORT")
	c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
	c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))

	c.Redis.URL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	c.Redis.Port, parseErrs = optInt(parseErrs, "REDIS_PORT")

	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	c.Auth.JWTIssuer = strings.TrimSpace(os.Getenv("JWT_ISSUER"))
	c.Auth.JWTAudience = strings.TrimSpace(os.Getenv("JWT_AUDIENCE"))
	c.Auth.AccessTokenTTL, parseErrs = optDuration(parseErrs, "JWT_EXPIRES_IN")
	c.Auth.BcryptCost, parseErrs = optInt(parseErrs, "BCRYPT_ROUNDS")

	c.Security.AllowedOrigins = splitList(os.Getenv("ALLOWED_ORIGINS"))
	var windowMS int
	windowMS, parseErrs = optInt(parseErrs, "RATE_LIMIT_WINDOW_MS")
	c.Security.RateLimitWindow = time.Duration(windowMS) * time.Millisecond
	c.Security.RateLimitMax, parseErrs = optInt(parseErrs, "RATE_LIMIT_MAX_REQUESTS")
	c.Security.AuthRateLimit, parseErrs = optInt(parseErrs, "AUTH_RATE_LIMIT_MAX")
	c.Security.TrustedProxies = splitList(os.Getenv("TRUSTED_PROXIES"))

	c.Log.Level = strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL")))
	c.Log.Dir = strings.TrimSpace(os.Getenv("LOG_DIR"))
	c.Log.SentryDSN = strings.TrimSpace(os.Getenv("SENTRY_DSN"))

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate applies defaults in place and reports every invalid value at once.
func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		c.App.Env = "local"
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port == 0 {
		c.App.Port = 3001
	}
	if c.App.Port < 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	if c.DB.Host == "" {
		c.DB.Host = "localhost"
	}
	if c.DB.Port == 0 {
		c.DB.Port = 5432
	}
	if c.DB.Port < 0 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
	}
	if c.DB.User == "" {
		c.DB.User = "postgres"
	}
	if c.DB.Name == "" {
		c.DB.Name = "construction"
	}
	if c.DB.SSLMode == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("DB_SSLMODE is required in production"))
		} else {
			// Local-friendly default; production must be explicit.
			c.DB.SSLMode = "disable"
		}
	}
	if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
		errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
	}

	if c.Redis.Port == 0 {
		c.Redis.Port = 6379
	}
	if c.Redis.Port < 0 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}
	if c.Redis.URL != "" && !strings.HasPrefix(c.Redis.URL, "redis://") && !strings.HasPrefix(c.Redis.URL, "rediss://") {
		errs = append(errs, fmt.Errorf("REDIS_URL must start with redis:// or rediss://, got %q", c.Redis.URL))
	}

	if c.Auth.JWTSecret == "" {
		c.Auth.JWTSecret = DefaultJWTSecret
	}
	if c.IsProduction() && c.Auth.JWTSecret == DefaultJWTSecret {
		errs = append(errs, errors.New("JWT_SECRET must be set in production"))
	}
	if c.Auth.JWTIssuer == "" {
		c.Auth.JWTIssuer = "construction-management"
	}
	if c.Auth.JWTAudience == "" {
		c.Auth.JWTAudience = "construction-management-api"
	}
	if c.Auth.AccessTokenTTL == 0 {
		c.Auth.AccessTokenTTL = 7 * 24 * time.Hour
	}
	if c.Auth.AccessTokenTTL < 0 {
		errs = append(errs, fmt.Errorf("JWT_EXPIRES_IN must be positive, got %s", c.Auth.AccessTokenTTL))
	}
	if c.Auth.BcryptCost == 0 {
		c.Auth.BcryptCost = 12
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("BCRYPT_ROUNDS must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, c.Auth.BcryptCost))
	}

	if len(c.Security.AllowedOrigins) == 0 {
		c.Security.AllowedOrigins = []string{"http://localhost:5173", "http://localhost:5174"}
	}
	for _, o := range c.Security.AllowedOrigins {
		switch {
		case o == "*":
			// CORS sends credentials, which browsers refuse with a wildcard origin.
			errs = append(errs, errors.New("ALLOWED_ORIGINS cannot contain * because credentials are allowed"))
		case !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://"):
			errs = append(errs, fmt.Errorf("ALLOWED_ORIGINS entries must start with http:// or https://, got %q", o))
		}
	}
	if c.Security.RateLimitWindow == 0 {
		c.Security.RateLimitWindow = 15 * time.Minute
	}
	if c.Security.RateLimitWindow < 0 {
		errs = append(errs, errors.New("RATE_LIMIT_WINDOW_MS must be positive"))
	}
	if c.Security.RateLimitMax == 0 {
		c.Security.RateLimitMax = 100
	}
	if c.Security.RateLimitMax < 0 {
		errs = append(errs, errors.New("RATE_LIMIT_MAX_REQUESTS must be positive"))
	}
	if c.Security.AuthRateLimit == 0 {
		c.Security.AuthRateLimit = 5
	}
	if c.Security.AuthRateLimit < 0 {
		errs = append(errs, errors.New("AUTH_RATE_LIMIT_MAX must be positive"))
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	} else if !isValidLogLevel(c.Log.Level) {
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error, got %q", c.Log.Level))
	}
	if c.Log.Dir == "" {
		c.Log.Dir = "logs"
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

// RedisEnabled reports whether rate-limit counters should live in Redis.
func (c Config) RedisEnabled() bool {
	return c.Redis.URL != "" || c.Redis.Host != ""
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func optInt(errs []error, key string) (int, []error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, errs
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, append(errs, fmt.Errorf("%s must be an integer, got %q", key, v))
	}
	return n, errs
}

func optDuration(errs []error, key string) (time.Duration, []error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, errs
	}
	d, err := ParseDuration(v)
	if err != nil {
		return 0, append(errs, fmt.Errorf("%s must be a duration like 7d or 12h, got %q", key, v))
	}
	return d, errs
}

// maxDays is the largest day count a time.Duration can hold.
const maxDays = math.MaxInt64 / int64(24*time.Hour)

// ParseDuration extends time.ParseDuration with a whole-day suffix ("7d").
func ParseDuration(v string) (time.Duration, error) {
	if days, ok := strings.CutSuffix(v, "d"); ok {
		n, err := strconv.ParseInt(days, 10, 64)
		if err != nil {
			return 0, err
		}
		if n > maxDays || n < -maxDays {
			return 0, fmt.Errorf("duration %q overflows", v)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(v)
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func isValidLogLevel(v string) bool {
	switch v {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
