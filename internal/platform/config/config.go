package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr          string
	DatabaseURL   string
	JWTSigningKey string

	// VerifyBaseURL is the public scan endpoint embedded in QR payloads.
	VerifyBaseURL string
	// PayloadSalt feeds the snapshot integrity tag; share it with whoever
	// verifies printed passes offline.
	PayloadSalt string

	// RenderAPIEndpoint enables the external QR renderer fallback when set.
	RenderAPIEndpoint string
	RenderTimeout     time.Duration

	Redis RedisConfig
}

// RedisConfig captures the rendered-image cache settings.
type RedisConfig struct {
	URL          string
	ImageTTL     time.Duration
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("GATEPASS_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	verifyBase := os.Getenv("GATEPASS_VERIFY_BASE_URL")
	if verifyBase == "" {
		verifyBase = "http://localhost:8080/attend"
	}

	salt := os.Getenv("GATEPASS_PAYLOAD_SALT")
	if salt == "" {
		// Use a default for development - should be overridden in production
		salt = "dev-payload-salt-change-in-production"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Server{
		Addr:              addr,
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		JWTSigningKey:     jwtSigningKey,
		VerifyBaseURL:     verifyBase,
		PayloadSalt:       salt,
		RenderAPIEndpoint: os.Getenv("GATEPASS_RENDER_API"),
		RenderTimeout:     durationFromEnv("GATEPASS_RENDER_TIMEOUT", 3*time.Second),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			ImageTTL:     durationFromEnv("GATEPASS_IMAGE_TTL", 15*time.Minute),
			PoolSize:     intFromEnv("REDIS_POOL_SIZE", 10),
			MinIdleConns: intFromEnv("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  durationFromEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  durationFromEnv("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: durationFromEnv("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
	}
}

func durationFromEnv(key string, fallback time.Duration) time.Duration {
	if raw := os.Getenv(key); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			return d
		}
	}
	return fallback
}

func intFromEnv(key string, fallback int) int {
	if raw := os.Getenv(key); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
	}
	return fallback
}
