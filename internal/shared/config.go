package shared

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv         string
	HTTPAddr       string
	MetricsAddr    string
	BasePath       string
	StoreDriver    string
	MySQLDSN       string
	PostgresDSN    string
	SQLitePath     string
	RedisAddr      string
	RedisDB        int
	RedisPass      string
	CacheTTL       time.Duration
	RequestTimeout time.Duration
	CORSOrigins    []string
}

// Store drivers accepted by STORE_DRIVER.
const (
	DriverMySQL     = "mysql"
	DriverPostgres  = "postgres"
	DriverSQLite    = "sqlite"
	DriverGormMySQL = "gorm-mysql"
)

// LoadDotEnv reads .env into the environment when present; real variables win.
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg(".env could not be loaded")
	}
}

func Load() Config {
	c := Config{
		AppEnv:         env("APP_ENV", "prod"),
		HTTPAddr:       env("HTTP_ADDR", ":8080"),
		MetricsAddr:    env("METRICS_ADDR", ":9100"),
		BasePath:       env("API_BASE_PATH", "/api"),
		StoreDriver:    strings.ToLower(env("STORE_DRIVER", DriverMySQL)),
		MySQLDSN:       env("MYSQL_DSN", "root:root@tcp(localhost:3306)/hotel?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		PostgresDSN:    env("POSTGRES_DSN", "host=localhost user=postgres password=postgres dbname=hotel port=5432 sslmode=disable TimeZone=UTC"),
		SQLitePath:     env("SQLITE_PATH", "hotel.db"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPass:      env("REDIS_PASSWORD", ""),
		RedisDB:        atoi("REDIS_DB", 0),
		CacheTTL:       time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
		RequestTimeout: time.Duration(atoi("REQUEST_TIMEOUT_SECONDS", 15)) * time.Second,
		CORSOrigins:    splitList(os.Getenv("CORS_ORIGINS")),
	}
	if c.RedisAddr == "" {
		log.Info().Msg("REDIS_ADDR is empty, cache disabled")
	}
	return c
}

// Validate reports configuration that cannot start the API.
func (c Config) Validate() error {
	switch c.StoreDriver {
	case DriverMySQL, DriverGormMySQL:
		if c.MySQLDSN == "" {
			return fmt.Errorf("MYSQL_DSN is required for STORE_DRIVER=%s", c.StoreDriver)
		}
	case DriverPostgres:
		if c.PostgresDSN == "" {
			return errors.New("POSTGRES_DSN is required for STORE_DRIVER=postgres")
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required for STORE_DRIVER=sqlite")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if !strings.HasPrefix(c.BasePath, "/") {
		return fmt.Errorf("API_BASE_PATH must start with /, got %q", c.BasePath)
	}
	return nil
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func atoi(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Warn().Str("key", k).Str("value", v).Msg("not an integer, using default")
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
