package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort string

	DBDriver string
	DBDSN    string

	// AI provider
	AIProvider     string
	AIBaseURL      string
	AIAPIKey       string
	AISiteURL      string
	AIAppName      string
	AITimeout      time.Duration
	AISystemPrompt string
	AITemperature  float64
	AIMaxTokens    int

	ChatContextWindowSize int

	// rate limiting
	RateLimitMax     int
	RateLimitWindow  time.Duration
	RateLimitKey     string
	RateLimitBackend string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// rabbitMQ, events are disabled when RabbitURL is empty
	RabbitURL   string
	RabbitQueue string

	CORSAllowOrigins []string
	// TrustedProxies are the IPs/CIDRs whose X-Forwarded-For is believed.
	// Empty trusts none, so the client IP is the socket peer.
	TrustedProxies   []string

	LogMode  string
	LogLevel string
}

const (
	DefaultSystemPrompt = "You are an AI assistant who knows everything."
	DefaultBaseURL      = "https://api.aimlapi.com/v1"
)

// ErrMissingAPIKey is returned by Load when AI_API_KEY is not set.
var ErrMissingAPIKey = errors.New("AI_API_KEY environment variable is required")

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first if it exists.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from an env lookup function.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	e := env{lookup: lookup}

	cfg := Config{
		HTTPPort: e.str("HTTP_PORT", "8080"),

		DBDriver: strings.ToLower(e.str("DB_DRIVER", "sqlite")),
		DBDSN:    e.str("DB_DSN", "chat.db"),

		AIProvider:     strings.ToLower(e.str("AI_PROVIDER", "openai")),
		AIBaseURL:      e.str("AI_BASE_URL", DefaultBaseURL),
		AIAPIKey:       strings.TrimSpace(e.str("AI_API_KEY", "")),
		AISiteURL:      e.str("AI_SITE_URL", ""),
		AIAppName:      e.str("AI_APP_NAME", ""),
		AITimeout:      e.duration("AI_TIMEOUT", 30*time.Second),
		AISystemPrompt: e.str("AI_SYSTEM_PROMPT", DefaultSystemPrompt),
		AITemperature:  e.number("AI_TEMPERATURE", 0.7),
		AIMaxTokens:    e.integer("AI_MAX_TOKENS", 500),

		ChatContextWindowSize: e.integer("CHAT_CONTEXT_WINDOW_SIZE", 1),

		RateLimitMax:     e.integer("RATE_LIMIT_MAX", 20),
		RateLimitWindow:  e.duration("RATE_LIMIT_WINDOW", time.Minute),
		RateLimitKey:     strings.ToLower(e.str("RATE_LIMIT_KEY", "global")),
		RateLimitBackend: strings.ToLower(e.str("RATE_LIMIT_BACKEND", "memory")),

		RedisAddr:     e.str("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: e.str("REDIS_PASSWORD", ""),
		RedisDB:       e.integer("REDIS_DB", 0),

		RabbitURL:   e.str("RABBIT_URL", ""),
		RabbitQueue: e.str("RABBIT_QUEUE", "chat_events"),

		CORSAllowOrigins: splitList(e.str("CORS_ALLOW_ORIGINS", "*")),
		TrustedProxies:   splitList(e.str("TRUSTED_PROXIES", "")),

		LogMode:  e.str("LOG_MODE", "development"),
		LogLevel: e.str("LOG_LEVEL", ""),
	}

	if len(e.errs) > 0 {
		return Config{}, errors.Join(e.errs...)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports configuration that cannot start the service.
func (c Config) Validate() error {
	if c.AIAPIKey == "" {
		return ErrMissingAPIKey
	}
	switch c.DBDriver {
	case "sqlite", "mysql", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER=%q", c.DBDriver)
	}
	switch c.RateLimitKey {
	case "global", "ip":
	default:
		return fmt.Errorf("unsupported RATE_LIMIT_KEY=%q", c.RateLimitKey)
	}
	switch c.RateLimitBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unsupported RATE_LIMIT_BACKEND=%q", c.RateLimitBackend)
	}
	if c.RateLimitMax <= 0 || c.RateLimitWindow <= 0 {
		return errors.New("rate limit max and window must be positive")
	}
	if c.AITimeout <= 0 {
		return errors.New("AI_TIMEOUT must be positive")
	}
	for _, p := range c.TrustedProxies {
		if _, err := netip.ParsePrefix(p); err == nil {
			continue
		}
		if _, err := netip.ParseAddr(p); err != nil {
			return fmt.Errorf("TRUSTED_PROXIES: %q is not an IP or CIDR", p)
		}
	}
	return nil
}

type env struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (e *env) str(key, def string) string {
	if v, ok := e.lookup(key); ok && v != "" {
		return v
	}
	return def
}

func (e *env) integer(key string, def int) int {
	v := e.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (e *env) number(key string, def float64) float64 {
	v := e.str(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return f
}

func (e *env) duration(key string, def time.Duration) time.Duration {
	v := e.str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
