package config_test

import (
	"testing"
	"time"

	"github.com/randalmurphal/eventmgr/pkg/eventmgr/config"
	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	assert.NotNil(t, config.New(nil).Raw())
	assert.False(t, config.New(nil).Has("anything"))
}

func TestLookup_FlatAndNested(t *testing.T) {
	cfg := config.New(map[string]any{
		"log.level": "debug",
		"manager": map[string]any{
			"timeout": "30s",
			"nested":  map[string]any{"deep": 3},
		},
	})

	assert.Equal(t, "debug", cfg.String("log.level", "info"))
	assert.Equal(t, 30*time.Second, cfg.Duration("manager.timeout", 0))
	assert.Equal(t, 3, cfg.Int("manager.nested.deep", 0))
	assert.True(t, cfg.Has("manager.timeout"))
	assert.False(t, cfg.Has("manager.missing"))
	assert.False(t, cfg.Has("log.level.extra"))
}

func TestString(t *testing.T) {
	tests := []struct {
		name string
		data map[string]any
		want string
	}{
		{"key exists", map[string]any{"name": "alice"}, "alice"},
		{"key missing", map[string]any{"other": "value"}, "default"},
		{"empty string", map[string]any{"name": ""}, ""},
		{"wrong type", map[string]any{"name": 123}, "default"},
		{"nil map", nil, "default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, config.New(tt.data).String("name", "default"))
		})
	}
}

func TestDuration(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  time.Duration
	}{
		{"duration string", "50ms", 50 * time.Millisecond},
		{"numeric string is seconds", "2", 2 * time.Second},
		{"int seconds", 3, 3 * time.Second},
		{"int64 seconds", int64(4), 4 * time.Second},
		{"float seconds", 1.5, 1500 * time.Millisecond},
		{"time.Duration", 7 * time.Minute, 7 * time.Minute},
		{"invalid string", "soon", time.Hour},
		{"wrong type", true, time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New(map[string]any{"d": tt.value})
			assert.Equal(t, tt.want, cfg.Duration("d", time.Hour))
		})
	}
}

func TestInt(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  int
	}{
		{"int", 5, 5},
		{"int64", int64(6), 6},
		{"whole float", 7.0, 7},
		{"fractional float", 7.5, -1},
		{"string", " 8 ", 8},
		{"bad string", "eight", -1},
		{"bool", true, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New(map[string]any{"n": tt.value})
			assert.Equal(t, tt.want, cfg.Int("n", -1))
		})
	}
}

func TestBool(t *testing.T) {
	cfg := config.New(map[string]any{"a": true, "b": "false", "c": "maybe", "d": 1})
	assert.True(t, cfg.Bool("a", false))
	assert.False(t, cfg.Bool("b", true))
	assert.True(t, cfg.Bool("c", true))
	assert.True(t, cfg.Bool("d", true))
	assert.False(t, cfg.Bool("missing", false))
}

func TestStringSlice(t *testing.T) {
	cfg := config.New(map[string]any{
		"typed":  []string{"a", "b"},
		"any":    []any{"c", "d"},
		"mixed":  []any{"e", 1},
		"csv":    "f, g,,h",
		"number": 3,
	})

	assert.Equal(t, []string{"a", "b"}, cfg.StringSlice("typed", nil))
	assert.Equal(t, []string{"c", "d"}, cfg.StringSlice("any", nil))
	assert.Equal(t, []string{"x"}, cfg.StringSlice("mixed", []string{"x"}))
	assert.Equal(t, []string{"f", "g", "h"}, cfg.StringSlice("csv", nil))
	assert.Equal(t, []string{"x"}, cfg.StringSlice("number", []string{"x"}))
}
