package shared

import (
	"os"
	"strconv"
	"strings"
	"time"
)

func GetEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func GetEnvAsInt(key string) int {
	if value := GetEnv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return 0
}

// GetEnvAsFloat takes a default because zero is a meaningful value for
// offsets and bearings.
func GetEnvAsFloat(key string, defaultValue float64) float64 {
	if value := GetEnv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func GetEnvAsBool(key string, defaultValue bool) bool {
	if value := GetEnv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func GetEnvAsDuration(key string) time.Duration {
	if value := GetEnv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}

	return time.Duration(0)
}
