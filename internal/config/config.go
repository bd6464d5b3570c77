package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	API      APIConfig
	Log      LogConfig
	Review   ReviewConfig
	Pitch    PitchConfig
	Archive  ArchiveConfig
	Database DatabaseConfig
}

type APIConfig struct {
	BaseURL string
	UserID  string
	Timeout time.Duration
}

type LogConfig struct {
	File string
	Env  string
}

type ReviewConfig struct {
	OutputDir   string
	MaxFileSize int64
}

type PitchConfig struct {
	ExportDir   string
	MaxInFlight int
}

type ArchiveConfig struct {
	Enabled bool
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using default values.")
	}

	return &Config{
		API: APIConfig{
			BaseURL: getEnv("COACH_API_URL", "http://localhost:8000"),
			UserID:  getEnv("COACH_USER_ID", "web_user"),
			Timeout: getEnvAsDuration("COACH_HTTP_TIMEOUT", "0s"),
		},
		Log: LogConfig{
			File: getEnv("COACH_LOG_FILE", "coach.log"),
			Env:  getEnv("ENV", "development"),
		},
		Review: ReviewConfig{
			OutputDir:   getEnv("REVIEW_OUTPUT_DIR", "./cache/reports"),
			MaxFileSize: getEnvAsInt64("REVIEW_MAX_FILE_SIZE", 10485760),
		},
		Pitch: PitchConfig{
			ExportDir:   getEnv("PITCH_EXPORT_DIR", "."),
			MaxInFlight: getEnvAsInt("PITCH_MAX_IN_FLIGHT", 1),
		},
		Archive: ArchiveConfig{
			Enabled: getEnvAsBool("ARCHIVE_ENABLED", false),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "coach_client"),
		},
	}
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

// SetupLogging points the standard logger at the configured log file.
// "-" keeps stderr. The returned func closes the file.
func (c *Config) SetupLogging() (func(), error) {
	if c.Log.File == "" || c.Log.File == "-" {
		log.SetOutput(os.Stderr)
		return func() {}, nil
	}

	f, err := os.OpenFile(c.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	log.SetOutput(f)

	return func() { f.Close() }, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
