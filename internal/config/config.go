package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is everything tunable from the environment.
type Config struct {
	Addr                 string
	TickInterval         time.Duration
	QueueSweepInterval   time.Duration
	CountdownSeconds     float64
	SessionTimeout       time.Duration
	SessionSweepInterval time.Duration
	Debug                bool
}

// Load reads .env if present, then the environment, falling back to defaults.
func Load() Config {
	_ = godotenv.Load() // missing .env is fine

	return Config{
		Addr:                 getString("ADDR", ":8080"),
		TickInterval:         getDuration("TICK_INTERVAL", 50*time.Millisecond),
		QueueSweepInterval:   getDuration("QUEUE_SWEEP_INTERVAL", 2*time.Second),
		CountdownSeconds:     getFloat("COUNTDOWN_SECONDS", 3),
		SessionTimeout:       getDuration("SESSION_TIMEOUT", 30*time.Minute),
		SessionSweepInterval: getDuration("SESSION_SWEEP_INTERVAL", 5*time.Minute),
		Debug:                getBool("DEBUG", false),
	}
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
