package config

import (
	"os"
	"strings"
	"time"
)

// Config captures server-level configuration.
type Config struct {
	Addr        string
	DatabaseURL string
	Redis       RedisConfig

	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string

	// AllowlistPath points at the YAML false-positive allow-list; empty
	// means the compiled-in defaults.
	AllowlistPath string
	// InstitutionalDomains are email domains exempt from the
	// personal-email detector.
	InstitutionalDomains []string
}

// RedisConfig configures the optional Redis connection used for audit
// deduplication. An empty URL disables Redis.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	addr := os.Getenv("CARELOG_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("CARELOG_JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	issuer := os.Getenv("CARELOG_JWT_ISSUER")
	if issuer == "" {
		issuer = "carelog"
	}
	audience := os.Getenv("CARELOG_JWT_AUDIENCE")
	if audience == "" {
		audience = "carelog-api"
	}

	var domains []string
	if raw := os.Getenv("CARELOG_INSTITUTIONAL_DOMAINS"); raw != "" {
		for _, d := range strings.Split(raw, ",") {
			if d = strings.TrimSpace(d); d != "" {
				domains = append(domains, d)
			}
		}
	}

	return Config{
		Addr:        addr,
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		JWTSigningKey:        jwtSigningKey,
		JWTIssuer:            issuer,
		JWTAudience:          audience,
		AllowlistPath:        os.Getenv("CARELOG_ALLOWLIST_PATH"),
		InstitutionalDomains: domains,
	}
}
