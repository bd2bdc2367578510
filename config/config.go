package config

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendMemory    = "memory"
	BackendPostgres  = "postgres"
	BackendFirestore = "firestore"
)

// devJWTSecret signs tokens only for the in-memory backend.
const devJWTSecret = "dev-jwt-secret"

var ErrMissingJWTSecret = errors.New("JWT_SECRET not set")

type Config struct {
	Addr            string
	StoreBackend    string
	DatabaseURL     string
	Firebase        Firebase
	JWTSecret       string
	JWTTTL          time.Duration
	RateLimit       RateLimit
	TrustProxy      bool
	CORSOrigins     []string
	ShutdownTimeout time.Duration
}

type Firebase struct {
	CredentialsPath      string
	ProjectID            string
	CollectionPrefix     string
	NotificationsEnabled bool
}

type RateLimit struct {
	RequestsPerSecond float64
	Burst             int
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over .env entries.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Config: failed to load .env: %v", err)
	}
	return FromEnv()
}

func FromEnv() Config {
	backend := strings.ToLower(envString("STORE_BACKEND", BackendMemory))
	secret := envString("JWT_SECRET", "")
	if secret == "" && backend == BackendMemory {
		secret = devJWTSecret
	}

	return Config{
		Addr:         ":" + envString("PORT", "2000"),
		StoreBackend: backend,
		DatabaseURL:  envString("DATABASE_URL", ""),
		Firebase: Firebase{
			CredentialsPath:      envString("FIREBASE_CREDENTIALS_PATH", ""),
			ProjectID:            envString("FIREBASE_PROJECT_ID", ""),
			CollectionPrefix:     envString("FIRESTORE_COLLECTION_PREFIX", ""),
			NotificationsEnabled: envBool("NOTIFICATIONS_ENABLED", false),
		},
		JWTSecret: secret,
		JWTTTL:    envDuration("JWT_TTL", time.Hour),
		RateLimit: RateLimit{
			RequestsPerSecond: envFloat("RATE_LIMIT_RPS", 10),
			Burst:             envInt("RATE_LIMIT_BURST", 20),
		},
		TrustProxy:      envBool("TRUST_PROXY_HEADERS", false),
		CORSOrigins:     envList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		ShutdownTimeout: envDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

// Validate rejects configurations the server must not start with.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	return nil
}

// UsesFirebase reports whether a Firebase app has to be initialised.
func (c Config) UsesFirebase() bool {
	return c.StoreBackend == BackendFirestore || c.Firebase.NotificationsEnabled
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func envList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
