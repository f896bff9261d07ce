package serviceiface

import (
	"fmt"
	"time"
)

type Service interface {
	Name() string
	Start() error
	Stop() error
}

// Values in a services.yaml config block arrive as whatever yaml.v3 decoded
// them into. The helpers below coerce them and fall back to def when the key
// is missing or unusable.

func IntFromConfig(cfg map[string]interface{}, key string, def int) int {
	v, ok := cfg[key]
	if !ok || v == nil {
		return def
	}
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	case string:
		var parsed int
		if _, err := fmt.Sscanf(t, "%d", &parsed); err == nil {
			return parsed
		}
	}
	return def
}

func FloatFromConfig(cfg map[string]interface{}, key string, def float64) float64 {
	v, ok := cfg[key]
	if !ok || v == nil {
		return def
	}
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case string:
		var parsed float64
		if _, err := fmt.Sscanf(t, "%g", &parsed); err == nil {
			return parsed
		}
	}
	return def
}

func StringFromConfig(cfg map[string]interface{}, key, def string) string {
	if v, ok := cfg[key].(string); ok && v != "" {
		return v
	}
	return def
}

func BoolFromConfig(cfg map[string]interface{}, key string, def bool) bool {
	if v, ok := cfg[key].(bool); ok {
		return v
	}
	return def
}

// DurationFromConfig accepts "30s" style strings or a bare number of seconds.
func DurationFromConfig(cfg map[string]interface{}, key string, def time.Duration) time.Duration {
	v, ok := cfg[key]
	if !ok || v == nil {
		return def
	}
	switch t := v.(type) {
	case string:
		if d, err := time.ParseDuration(t); err == nil && d > 0 {
			return d
		}
	case int:
		if t > 0 {
			return time.Duration(t) * time.Second
		}
	case float64:
		if t > 0 {
			return time.Duration(t * float64(time.Second))
		}
	}
	return def
}

// SubConfig returns a nested block, or nil.
func SubConfig(cfg map[string]interface{}, key string) map[string]interface{} {
	if v, ok := cfg[key].(map[string]interface{}); ok {
		return v
	}
	return nil
}
