package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"fieldtrack/internal/analysis"
)

type Config struct {
	Host     string
	Port     string
	LogLevel string

	// Timezone is the farm-local timezone telemetry is interpreted in.
	Timezone string

	RedisURL string

	// Pipeline tunables.
	MedianWindow      int
	ProcessNoise      float64
	MovingSpeed       float64
	RealWorkSpeed     float64
	ConfirmationCount int
	PresenceRatio     float64
}

func LoadConfig() *Config {
	return &Config{
		Host:     getEnv("HOST", "0.0.0.0"),
		Port:     getEnv("PORT", "8000"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Timezone: getEnv("FARM_TIMEZONE", "UTC"),
		RedisURL: getEnv("REDIS_URL", ""),

		MedianWindow:      getEnvInt("MEDIAN_WINDOW", 5),
		ProcessNoise:      getEnvFloat("KALMAN_PROCESS_NOISE", 3.0),
		MovingSpeed:       getEnvFloat("MOVING_SPEED_THRESHOLD", 2.0),
		RealWorkSpeed:     getEnvFloat("REAL_WORK_SPEED_THRESHOLD", 5.0),
		ConfirmationCount: getEnvInt("MOVEMENT_CONFIRMATION_COUNT", 3),
		PresenceRatio:     getEnvFloat("TASK_PRESENCE_RATIO", 0.7),
	}
}

// Location resolves the configured timezone, falling back to UTC with a
// logged warning on a bad name.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.Printf("Invalid timezone %q, falling back to UTC: %v", c.Timezone, err)
		return time.UTC
	}
	return loc
}

// Thresholds assembles the analysis thresholds from the config.
func (c *Config) Thresholds() analysis.Thresholds {
	return analysis.Thresholds{
		MovingSpeed:       c.MovingSpeed,
		RealWorkSpeed:     c.RealWorkSpeed,
		ConfirmationCount: c.ConfirmationCount,
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return strings.TrimSpace(value)
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		log.Printf("Invalid value for %s: %q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		log.Printf("Invalid value for %s: %q, using %f", key, value, defaultValue)
		return defaultValue
	}
	return f
}
