package main

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Config holds the defaults for command-line flags plus logging options.
// Flags given on the command line take precedence.
type Config struct {
	Count       int
	Interval    float64 // seconds
	Timeout     float64 // seconds
	MetricsAddr string
	PushGateway string
	LogLevel    slog.Level
	LogFormat   string
}

func loadConfig() Config {
	return Config{
		Count:       envInt("TCPING_COUNT", 4),
		Interval:    envFloat("TCPING_INTERVAL", 1),
		Timeout:     envFloat("TCPING_TIMEOUT", 2),
		MetricsAddr: envString("TCPING_METRICS_ADDR", ""),
		PushGateway: envString("TCPING_PUSHGATEWAY", ""),
		LogLevel:    envLevel("TCPING_LOG_LEVEL", slog.LevelInfo),
		LogFormat:   strings.ToLower(envString("TCPING_LOG_FORMAT", "text")),
	}
}

// envValue returns the trimmed value of key and whether it was set to
// something other than whitespace.
func envValue(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

func envString(key, fallback string) string {
	if v, ok := envValue(key); ok {
		return v
	}
	return fallback
}

// envInt, envFloat and envLevel fall back silently on unparsable values.
func envInt(key string, fallback int) int {
	v, ok := envValue(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v, ok := envValue(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envLevel(key string, fallback slog.Level) slog.Level {
	v, ok := envValue(key)
	if !ok {
		return fallback
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(v)); err != nil {
		return fallback
	}
	return lvl
}
