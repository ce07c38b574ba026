/*
Package config loads event manager and gateway bot configuration.

# Overview

Config wraps a map[string]any and provides typed accessors that return a
default when a key is missing or has the wrong type. Keys are dotted paths
and resolve against flat maps (as produced by the layered loader) or nested
ones (as decoded from a YAML or JSON file):

	cfg := config.New(map[string]any{
	    "manager": map[string]any{"timeout": "30s"},
	    "log.level": "debug",
	})

	timeout := cfg.Duration("manager.timeout", 0) // 30s
	level := cfg.String("log.level", "info")      // "debug"

# Type Coercion

Values coming from environment variables and flags are strings, so the
numeric, boolean and duration accessors also parse strings. Duration treats
bare numbers as seconds.

# Layered Loading

Load merges, in increasing priority:

  - Defaults()
  - a YAML or JSON file (LoadOptions.Path), by extension
  - EVENTMGR_* environment variables
  - changed command-line flags (LoadOptions.Flags)

and decodes the result into Settings:

	settings, err := config.Load(config.LoadOptions{
	    Path:  "gatewaybot.yaml",
	    Flags: cmd.Flags(),
	})

# Thread Safety

Config is safe for concurrent read access. The underlying map is not
modified after creation.
*/
package config
