package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string

	Storage     string
	DatabaseURL string
	SQLitePath  string
	SeedCatalog bool

	JWTSecret []byte
	AccessTTL time.Duration

	AdminUsername string
	AdminPassword string
	AdminEmail    string

	KafkaBrokers []string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	CORSOrigins []string
}

// Load reads an optional .env file and then the process environment.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	if err := godotenv.Load(envFiles...); err != nil {
		slog.Info("env file not loaded, using process environment", "files", envFiles, "error", err)
	}

	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func FromEnv() Config {
	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", "shop_engine"),
		ServerPort:  EnvIntDefault("SERVER_PORT", 8001),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),

		Storage:     strings.ToLower(EnvDefault("STORAGE", StorageMemory)),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		SQLitePath:  EnvDefault("SQLITE_PATH", "shop.db"),
		SeedCatalog: EnvBoolDefault("SEED_CATALOG", true),

		JWTSecret: []byte(os.Getenv("JWT_SECRET")),
		AccessTTL: time.Duration(EnvIntDefault("ACCESS_TOKEN_TTL_MINUTES", 60)) * time.Minute,

		AdminUsername: os.Getenv("ADMIN_USERNAME"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		AdminEmail:    EnvDefault("ADMIN_EMAIL", "admin@example.com"),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    EnvDefault("ES_INDEX", "products"),

		CORSOrigins: CSV(os.Getenv("CORS_ORIGINS")),
	}
}

func (c Config) Validate() error {
	var errs []error
	if err := NonEmptyBytes(c.JWTSecret, "JWT_SECRET"); err != nil {
		errs = append(errs, err)
	}
	switch c.Storage {
	case StorageMemory:
	case StorageSQLite:
		if err := NonEmpty(c.SQLitePath, "SQLITE_PATH"); err != nil {
			errs = append(errs, err)
		}
	case StoragePostgres:
		if err := NonEmpty(c.DatabaseURL, "DATABASE_URL"); err != nil {
			errs = append(errs, err)
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE %q", c.Storage))
	}
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid SERVER_PORT %d", c.ServerPort))
	}
	if c.AccessTTL <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_TTL_MINUTES must be positive"))
	}
	if (c.AdminUsername == "") != (c.AdminPassword == "") {
		errs = append(errs, errors.New("ADMIN_USERNAME and ADMIN_PASSWORD must be set together"))
	}
	return errors.Join(errs...)
}

func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.ServerPort)
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
