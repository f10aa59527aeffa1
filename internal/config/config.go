package config // package config loads application configuration from environment variables

import (
	"crypto/rand"     // crypto/rand generates the fallback signing secret
	"encoding/base64" // base64 encodes the generated secret
	"fmt"             // fmt builds configuration errors
	"strings"         // strings normalizes enum-like values
	"time"            // time expresses durations

	"github.com/joho/godotenv" // godotenv loads a local .env file when present
)

// Store drivers understood by the server.
const (
	StoreMySQL  = "mysql"
	StoreMemory = "memory"
)

// DefaultAccessTTLMin is the default access token lifetime: 60 minutes * 24 hours * 8 days.
const DefaultAccessTTLMin = 60 * 24 * 8

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  A Config is built once at startup and handed to
// constructors; nothing mutates it afterwards.
type Config struct {
	Env         string // application environment (e.g. "dev", "prod")
	Port        string // HTTP port to listen on
	APIPrefix   string // prefix for every versioned route
	LogLevel    string // zap level name (debug, info, warn, error)
	StoreDriver string // "mysql" or "memory"

	DBUser    string        // database username
	DBPass    string        // database password (optional)
	DBHost    string        // database host address
	DBPort    string        // database port number
	DBName    string        // database name
	DBTimeout time.Duration // dial/read/write timeout of the store client

	JWTSecret       string // secret used to sign access tokens
	SecretGenerated bool   // true when JWTSecret was generated at start
	AccessTTLMin    int    // access token time-to-live in minutes

	Argon2Time      uint32 // argon2id iterations
	Argon2MemoryKiB uint32 // argon2id memory in KiB
	Argon2Threads   uint8  // argon2id parallelism
	HashWorkers     int    // maximum concurrent hash computations

	RequestTimeout time.Duration // upper bound for store calls made by a request

	AdminUserName       string // bootstrap admin (optional)
	AdminPassword       string
	AdminSecurityAnswer string

	RateLimit RateLimitConfig
	Redis     RedisConfig
	Events    EventsConfig
}

// AccessTTL returns the default token lifetime as a duration.
func (c Config) AccessTTL() time.Duration {
	return time.Duration(c.AccessTTLMin) * time.Minute
}

// BootstrapAdmin reports whether an admin account should be ensured at start.
func (c Config) BootstrapAdmin() bool {
	return c.AdminUserName != "" && c.AdminPassword != ""
}

// Load reads configuration values from the environment (after loading an
// optional .env file) and returns a Config.  Invalid values are reported as
// errors; the caller decides whether they are fatal.
func Load() (Config, error) {
	_ = godotenv.Load() // a missing .env file is not an error

	cfg := Config{
		Env:         envStr("APP_ENV", "dev"),
		Port:        envStr("APP_PORT", "8000"),
		APIPrefix:   envStr("API_PREFIX", "/api/v1"),
		LogLevel:    envStr("LOG_LEVEL", "info"),
		StoreDriver: strings.ToLower(envStr("STORE_DRIVER", StoreMySQL)),

		DBUser:    envStr("DB_USER", "root"),
		DBPass:    envStr("DB_PASS", ""),
		DBHost:    envStr("DB_HOST", "127.0.0.1"),
		DBPort:    envStr("DB_PORT", "3306"),
		DBName:    envStr("DB_NAME", "accounts"),
		DBTimeout: envDur("DB_TIMEOUT", 5*time.Second),

		JWTSecret:    envStr("JWT_SECRET", ""),
		AccessTTLMin: envInt("ACCESS_TOKEN_TTL_MIN", DefaultAccessTTLMin),

		HashWorkers: envInt("HASH_WORKERS", 4),

		RequestTimeout: envDur("REQUEST_TIMEOUT", 5*time.Second),

		AdminUserName:       envStr("ADMIN_USERNAME", ""),
		AdminPassword:       envStr("ADMIN_PASSWORD", ""),
		AdminSecurityAnswer: envStr("ADMIN_SECURITY_ANSWER", ""),

		RateLimit: LoadRateLimitConfig(),
		Redis:     LoadRedisConfig(),
		Events:    LoadEventsConfig(),
	}

	if err := cfg.loadArgon2(); err != nil {
		return Config{}, err
	}

	if cfg.JWTSecret == "" {
		secret, err := generateSecret(32)
		if err != nil {
			return Config{}, fmt.Errorf("generate jwt secret: %w", err)
		}
		cfg.JWTSecret = secret
		cfg.SecretGenerated = true
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.StoreDriver {
	case StoreMySQL, StoreMemory:
	default:
		return fmt.Errorf("invalid STORE_DRIVER %q: want %s or %s", c.StoreDriver, StoreMySQL, StoreMemory)
	}
	if c.AccessTTLMin <= 0 {
		return fmt.Errorf("invalid ACCESS_TOKEN_TTL_MIN %d: must be positive", c.AccessTTLMin)
	}
	if c.HashWorkers < 1 {
		return fmt.Errorf("invalid HASH_WORKERS %d: must be at least 1", c.HashWorkers)
	}
	if !strings.HasPrefix(c.APIPrefix, "/") {
		return fmt.Errorf("invalid API_PREFIX %q: must start with /", c.APIPrefix)
	}
	return nil
}

// Argon2 bounds.  Memory is capped at 4 GiB per hash.
const (
	maxArgon2Time      = 1 << 10
	maxArgon2MemoryKiB = 4 << 20
	maxArgon2Threads   = 255
)

// loadArgon2 reads the hashing cost.  Values are range-checked as ints
// before narrowing so a negative or oversized setting is an error instead
// of wrapping around.
func (c *Config) loadArgon2() error {
	t := envInt("ARGON2_TIME", 3)
	m := envInt("ARGON2_MEMORY_KIB", 64*1024)
	p := envInt("ARGON2_THREADS", 2)

	if t < 1 || t > maxArgon2Time {
		return fmt.Errorf("invalid ARGON2_TIME %d: want 1..%d", t, maxArgon2Time)
	}
	if p < 1 || p > maxArgon2Threads {
		return fmt.Errorf("invalid ARGON2_THREADS %d: want 1..%d", p, maxArgon2Threads)
	}
	if m < 8*p || m > maxArgon2MemoryKiB {
		return fmt.Errorf("invalid ARGON2_MEMORY_KIB %d: want %d..%d", m, 8*p, maxArgon2MemoryKiB)
	}

	c.Argon2Time = uint32(t)
	c.Argon2MemoryKiB = uint32(m)
	c.Argon2Threads = uint8(p)
	return nil
}

// generateSecret returns n random bytes encoded as URL-safe base64.
func generateSecret(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
