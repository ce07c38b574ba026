package main

import (
	"io"
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/randalmurphal/eventmgr/pkg/eventmgr/config"
	"github.com/randalmurphal/eventmgr/pkg/eventmgr/observability"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// newLogger builds the process logger. With a log file configured, output
// goes to a rotating file instead of stderr.
func newLogger(s config.LogSettings, stderr io.Writer) (*slog.Logger, io.Closer, error) {
	level, err := observability.ParseLevel(s.Level)
	if err != nil {
		return nil, nil, err
	}

	if s.File == "" {
		return observability.NewLogger(stderr, level, s.Format), nopCloser{}, nil
	}

	file := &lumberjack.Logger{
		Filename:   s.File,
		MaxSize:    s.MaxSizeMB,
		MaxBackups: s.MaxBackups,
		MaxAge:     s.MaxAgeDays,
		Compress:   true,
	}
	return observability.NewLogger(file, level, s.Format), file, nil
}
