package serviceiface

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"
)

func TestConfigHelpersFromYAML(t *testing.T) {
	raw := `
port: 9090
port_str: "7070"
ratio: 0.5
whole: 3
name: feed
enabled: true
interval: 45s
interval_num: 10
scores:
  collection_efficiency: 80
`
	var cfg map[string]interface{}
	assert.NoError(t, yaml.Unmarshal([]byte(raw), &cfg))

	assert.Equal(t, 9090, IntFromConfig(cfg, "port", 1))
	assert.Equal(t, 7070, IntFromConfig(cfg, "port_str", 1))
	assert.Equal(t, 1, IntFromConfig(cfg, "missing", 1))

	assert.Equal(t, 0.5, FloatFromConfig(cfg, "ratio", 0))
	assert.Equal(t, 3.0, FloatFromConfig(cfg, "whole", 0))
	assert.Equal(t, 2.5, FloatFromConfig(cfg, "missing", 2.5))

	assert.Equal(t, "feed", StringFromConfig(cfg, "name", "x"))
	assert.Equal(t, "x", StringFromConfig(cfg, "port", "x"))

	assert.True(t, BoolFromConfig(cfg, "enabled", false))
	assert.False(t, BoolFromConfig(cfg, "missing", false))

	assert.Equal(t, 45*time.Second, DurationFromConfig(cfg, "interval", time.Second))
	assert.Equal(t, 10*time.Second, DurationFromConfig(cfg, "interval_num", time.Second))
	assert.Equal(t, time.Second, DurationFromConfig(cfg, "name", time.Second))

	sub := SubConfig(cfg, "scores")
	assert.Equal(t, 80, IntFromConfig(sub, "collection_efficiency", 0))
	assert.Nil(t, SubConfig(cfg, "port"))
}

func TestConfigHelpersNilMap(t *testing.T) {
	assert.Equal(t, 8080, IntFromConfig(nil, "port", 8080))
	assert.Equal(t, "a", StringFromConfig(nil, "k", "a"))
	assert.Equal(t, time.Minute, DurationFromConfig(nil, "k", time.Minute))
}
