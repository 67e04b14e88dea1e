package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DefaultPort      = 7071
	DefaultContainer = "imu-alpha"
)

type Config struct {
	Port        int
	DatabaseURL string
	LogLevel    string

	// Blob storage. An empty connection string is allowed at startup; the
	// storage-backed endpoints answer 500 until it is configured.
	StorageConnectionString string
	StorageContainer        string

	// Identity provider
	AuthDomain   string
	AuthAudience string

	CORSOrigins []string
}

// ParseFlags validates flags and falls back to the environment (and an
// optional .env file) for anything not given on the command line
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}

	fs := flag.NewFlagSet("dojogo", flag.ContinueOnError)

	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.StorageConnectionString, "storage", "", "Blob storage connection string (prefer env)")
	fs.StringVar(&cfg.AuthDomain, "auth-domain", "", "Identity provider domain")
	fs.StringVar(&cfg.AuthAudience, "auth-audience", "", "Expected token audience")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = DefaultPort
		}
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = databaseURLFromParts()
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d, DATABASE_URL or DB_HOST/DB_USER/DB_NAME env)")
	}
	dbURL, err := WithUTC(cfg.DatabaseURL)
	if err != nil {
		return Config{}, err
	}
	cfg.DatabaseURL = dbURL

	if cfg.LogLevel == "" {
		cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	}

	if cfg.StorageConnectionString == "" {
		cfg.StorageConnectionString = os.Getenv("AZURE_STORAGE_CONNECTION_STRING")
	}
	cfg.StorageContainer = getEnv("IMU_CONTAINER", DefaultContainer)

	if cfg.AuthDomain == "" {
		cfg.AuthDomain = os.Getenv("AUTH0_DOMAIN")
	}
	if cfg.AuthDomain == "" {
		return Config{}, errors.New("AUTH0_DOMAIN required")
	}
	if cfg.AuthAudience == "" {
		cfg.AuthAudience = os.Getenv("AUTH0_AUDIENCE")
	}
	if cfg.AuthAudience == "" {
		return Config{}, errors.New("AUTH0_AUDIENCE required")
	}

	for _, origin := range strings.Split(getEnv("CORS_ORIGINS", "*"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
		}
	}

	return cfg, nil
}

// WithUTC forces the session time zone of every connection opened from the
// URL to UTC, so naive TIMESTAMP columns always hold UTC wall time.
func WithUTC(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
		return "", errors.New("database URL must be a postgres:// URL")
	}
	q := u.Query()
	q.Set("timezone", "UTC")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// databaseURLFromParts assembles a URL from the discrete DB_* variables the
// hosting environment provides. Returns "" when DB_HOST is not set.
func databaseURLFromParts() string {
	host := os.Getenv("DB_HOST")
	if host == "" {
		return ""
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%s", host, getEnv("DB_PORT", "5432")),
		Path:   "/" + os.Getenv("DB_NAME"),
	}
	if user := os.Getenv("DB_USER"); user != "" {
		if password, ok := os.LookupEnv("DB_PASSWORD"); ok {
			u.User = url.UserPassword(user, password)
		} else {
			u.User = url.User(user)
		}
	}
	q := url.Values{}
	q.Set("sslmode", getEnv("DB_SSLMODE", "require"))
	u.RawQuery = q.Encode()

	return u.String()
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
