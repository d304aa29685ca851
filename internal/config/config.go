package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Log struct {
	Level  string
	Format string
}

type Redis struct {
	Addr     string
	Password string
	DB       int
	Stream   string
}

type Config struct {
	Env               string
	ListenAddr        string
	DatabaseURL       string
	Store             string
	Redis             Redis
	ARBRoutingFile    string
	StrictTransitions bool
	RecalcWorkers     int
	Log               Log
}

// ErrNoDatabase is returned alongside a usable config when DATABASE_URL is
// unset and the in-memory store was selected.
var ErrNoDatabase = errors.New("DATABASE_URL not set; using in-memory store")

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func Load() (Config, error) {
	cfg := Config{
		Env:         getenv("APP_ENV", "development"),
		ListenAddr:  getenv("LISTEN_ADDR", ":8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Redis: Redis{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getenvInt("REDIS_DB", 0),
			Stream:   getenv("RISK_EVENT_STREAM", "risk:domain-events"),
		},
		ARBRoutingFile:    os.Getenv("ARB_ROUTING_FILE"),
		StrictTransitions: getenvBool("RISK_STRICT_TRANSITIONS", true),
		RecalcWorkers:     getenvInt("RECALC_WORKERS", 4),
		Log: Log{
			Level:  getenv("LOG_LEVEL", "info"),
			Format: getenv("LOG_FORMAT", "json"),
		},
	}

	def := StorePostgres
	if cfg.DatabaseURL == "" {
		def = StoreMemory
	}
	cfg.Store = strings.ToLower(getenv("STORE", def))
	switch cfg.Store {
	case StoreMemory:
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return cfg, fmt.Errorf("STORE=postgres requires DATABASE_URL")
		}
	default:
		return cfg, fmt.Errorf("unknown STORE %q", cfg.Store)
	}
	if cfg.RecalcWorkers < 1 {
		cfg.RecalcWorkers = 1
	}
	if cfg.DatabaseURL == "" {
		// Not fatal for local runs; callers decide.
		return cfg, ErrNoDatabase
	}
	return cfg, nil
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		var out int
		_, err := fmt.Sscanf(v, "%d", &out)
		if err == nil {
			return out
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
