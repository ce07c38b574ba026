package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// Settings is the decoded configuration of the gateway bot.
type Settings struct {
	Token   string          `yaml:"token"`
	Intents []string        `yaml:"intents"`
	Manager ManagerSettings `yaml:"manager"`
	Journal JournalSettings `yaml:"journal"`
	Log     LogSettings     `yaml:"log"`
}

// ManagerSettings configures the event manager.
type ManagerSettings struct {
	// Timeout is the default per-listener timeout. Zero means unlimited.
	Timeout time.Duration `yaml:"timeout"`
	// Workers bounds concurrent dispatches. Zero means one goroutine per event.
	Workers int `yaml:"workers"`
}

// JournalSettings configures the incident journal.
type JournalSettings struct {
	// Path is the SQLite file. Empty keeps incidents in memory.
	Path     string `yaml:"path"`
	Capacity int    `yaml:"capacity"`
}

// LogSettings configures logging. An empty File logs to stderr.
type LogSettings struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"maxsize"`
	MaxBackups int    `yaml:"maxbackups"`
	MaxAgeDays int    `yaml:"maxage"`
}

// Defaults returns the built-in configuration as flat keys.
func Defaults() map[string]any {
	return map[string]any{
		"token":            "",
		"intents":          []string{"guilds", "guild_messages", "direct_messages", "message_content"},
		"manager.timeout":  "0s",
		"manager.workers":  0,
		"journal.path":     "",
		"journal.capacity": 1000,
		"log.level":        "info",
		"log.format":       "json",
		"log.file":         "",
		"log.maxsize":      100,
		"log.maxbackups":   3,
		"log.maxage":       28,
	}
}

// SettingsFrom decodes c, falling back to Defaults for missing keys.
func SettingsFrom(c Config) Settings {
	d := New(Defaults())
	return Settings{
		Token:   c.String("token", d.String("token", "")),
		Intents: c.StringSlice("intents", d.StringSlice("intents", nil)),
		Manager: ManagerSettings{
			Timeout: c.Duration("manager.timeout", d.Duration("manager.timeout", 0)),
			Workers: c.Int("manager.workers", d.Int("manager.workers", 0)),
		},
		Journal: JournalSettings{
			Path:     c.String("journal.path", d.String("journal.path", "")),
			Capacity: c.Int("journal.capacity", d.Int("journal.capacity", 0)),
		},
		Log: LogSettings{
			Level:      c.String("log.level", d.String("log.level", "")),
			Format:     c.String("log.format", d.String("log.format", "")),
			File:       c.String("log.file", d.String("log.file", "")),
			MaxSizeMB:  c.Int("log.maxsize", d.Int("log.maxsize", 0)),
			MaxBackups: c.Int("log.maxbackups", d.Int("log.maxbackups", 0)),
			MaxAgeDays: c.Int("log.maxage", d.Int("log.maxage", 0)),
		},
	}
}

// Validate reports every invalid field.
func (s Settings) Validate() error {
	var result *multierror.Error
	if s.Manager.Timeout < 0 {
		result = multierror.Append(result, fmt.Errorf("manager.timeout must not be negative: %s", s.Manager.Timeout))
	}
	if s.Manager.Workers < 0 {
		result = multierror.Append(result, fmt.Errorf("manager.workers must not be negative: %d", s.Manager.Workers))
	}
	if s.Journal.Capacity < 0 {
		result = multierror.Append(result, fmt.Errorf("journal.capacity must not be negative: %d", s.Journal.Capacity))
	}
	switch strings.ToLower(s.Log.Format) {
	case "json", "text":
	default:
		result = multierror.Append(result, fmt.Errorf("log.format must be json or text: %q", s.Log.Format))
	}
	switch strings.ToLower(s.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		result = multierror.Append(result, fmt.Errorf("log.level must be debug, info, warn or error: %q", s.Log.Level))
	}
	return result.ErrorOrNil()
}

// Redacted returns a copy safe to print.
func (s Settings) Redacted() Settings {
	if s.Token != "" {
		s.Token = "<redacted>"
	}
	return s
}

// YAML renders the settings with the token redacted.
func (s Settings) YAML() ([]byte, error) {
	out, err := yaml.Marshal(s.Redacted())
	if err != nil {
		return nil, fmt.Errorf("marshal settings: %w", err)
	}
	return out, nil
}
