/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package logging

import (
	stdlog "log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Log source tags used in structured logger contexts.
const (
	SourceApp        = "app"
	SourceWeb        = "web"
	SourceWebRequest = "web_request"
	SourceDB         = "db"
	SourceIndivo     = "indivo"
	SourceLabs       = "labs"
)

// LevelEnvVar selects the minimum level (debug, info, warn, error).
const LevelEnvVar = "LOG_LEVEL"

var (
	initOnce sync.Once
	root     *log.Logger
)

func levelFromEnv(value string) log.Level {
	value = strings.TrimSpace(value)
	if value == "" {
		return log.InfoLevel
	}

	level, err := log.ParseLevel(strings.ToLower(value))
	if err != nil {
		return log.InfoLevel
	}
	return level
}

// Init sets up the shared logfmt logger once and routes the stdlib logger
// through it.
func Init() {
	initOnce.Do(func() {
		root = log.NewWithOptions(os.Stderr, log.Options{
			TimeFunction:    log.NowUTC,
			TimeFormat:      time.RFC3339Nano,
			Level:           levelFromEnv(os.Getenv(LevelEnvVar)),
			ReportTimestamp: true,
			Formatter:       log.LogfmtFormatter,
		})

		stdlog.SetFlags(0)
		stdlog.SetOutput(standardLog(SourceApp).Writer())
	})
}

// Logger returns a logger tagged with source.
func Logger(source string) *log.Logger {
	Init()
	return root.With("source", source)
}

// StdLogger adapts a source-tagged logger for APIs that want *log.Logger,
// such as http.Server.ErrorLog.
func StdLogger(source string) *stdlog.Logger {
	Init()
	return standardLog(source)
}

func standardLog(source string) *stdlog.Logger {
	return root.With("source", source).StandardLog(log.StandardLogOptions{ForceLevel: log.WarnLevel})
}
