package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	HTTPPort string
	Database DatabaseConfig
	ACL      ACLConfig
	Cache    CacheConfig
	Graph    GraphConfig
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	Driver   string // "postgres" or "sqlite"
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// ACLConfig tunes the §4.4 in-query vs post-query filter cutoff.
type ACLConfig struct {
	// InQueryMaxIDs is the largest accessible-ACL set size the filter will
	// inline as bound parameters before falling back to post-query filtering.
	InQueryMaxIDs int
	// OversampleFactor is applied to the page size when post-query filtering.
	OversampleFactor int
}

// CacheConfig holds TTLs for the C8 read-through cache.
type CacheConfig struct {
	EntityTTL     time.Duration
	PrincipalsTTL time.Duration
}

// GraphConfig holds version-chain traversal limits.
type GraphConfig struct {
	// MaxChainHops bounds the iterative chain walk (§9) to guard against
	// pathological loops from buggy inserts.
	MaxChainHops int
}

// Load loads configuration from an optional .env file at the module root,
// falling back to environment variables and then to defaults.
func Load() (*Config, error) {
	root := findModuleRoot()
	envPath := filepath.Join(root, ".env")

	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	cfg := &Config{
		HTTPPort: getEnv("HTTP_PORT", "8080"),
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "postgres"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "graphstore"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		ACL: ACLConfig{
			InQueryMaxIDs:    getEnvInt("ACL_IN_QUERY_MAX_IDS", 200),
			OversampleFactor: getEnvInt("ACL_OVERSAMPLE_FACTOR", 3),
		},
		Cache: CacheConfig{
			EntityTTL:     getEnvDuration("CACHE_ENTITY_TTL", 60*time.Second),
			PrincipalsTTL: getEnvDuration("CACHE_PRINCIPALS_TTL", 180*time.Second),
		},
		Graph: GraphConfig{
			MaxChainHops: getEnvInt("GRAPH_MAX_CHAIN_HOPS", 1000),
		},
	}

	return cfg, nil
}

// GetDSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

func findModuleRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "."
		}
		dir = parent
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
