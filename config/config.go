package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// StationURL is the report page of the observation point.
	StationURL string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// StorageDriver selects the persistence backend: "postgres" or
	// "memory" (dry runs, nothing survives the process).
	StorageDriver string

	HTTPTimeout   time.Duration
	FetchInterval time.Duration

	// ConnectRetries bounds the storage connection ping attempts at startup.
	ConnectRetries int

	ImageDir   string
	RawCSVPath string
	LogFile    string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		StationURL: getEnv("STATION_URL", "http://www2.thr.mlit.go.jp/sendai/html/DR-74125.html"),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "delta"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "delta123"),
		PostgresDB:       getEnv("POSTGRES_DB", "delta_station"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		StorageDriver: getEnv("STORAGE_DRIVER", "postgres"),

		HTTPTimeout:   getEnvDuration("HTTP_TIMEOUT", 30*time.Second),
		FetchInterval: getEnvDuration("FETCH_INTERVAL", 15*time.Minute),

		ConnectRetries: getEnvInt("CONNECT_RETRIES", 5),

		ImageDir:   getEnv("IMAGE_DIR", "./output/images"),
		RawCSVPath: getEnv("RAW_CSV_PATH", "./output/raw_reports.csv"),
		LogFile:    getEnv("LOG_FILE", "./output/scraper.log"),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err == nil {
			return d
		}
	}
	return fallback
}
