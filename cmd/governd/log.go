package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/decred/slog"
	"github.com/jrick/logrotate/rotator"

	"github.com/asthmajoy/govcore/pkg/api"
	"github.com/asthmajoy/govcore/pkg/events"
	"github.com/asthmajoy/govcore/pkg/gov"
	"github.com/asthmajoy/govcore/pkg/timelock"
	"github.com/asthmajoy/govcore/pkg/token"
)

// logWriter implements an io.Writer that outputs to both standard output and
// the write-end pipe of an initialized log rotator.
type logWriter struct{}

func (logWriter) Write(p []byte) (n int, err error) {
	os.Stdout.Write(p)
	if logRotator != nil {
		return logRotator.Write(p)
	}
	return len(p), nil
}

// Loggers per subsystem. A single backend logger is created and all subsystem
// loggers created from it will write to the backend.
//
// Loggers can not be used before the log rotator has been initialized with a
// log file. This must be performed early during application startup by
// calling initLogRotator.
var (
	// backendLog is the logging backend used to create all subsystem loggers.
	backendLog = slog.NewBackend(logWriter{})

	// logRotator is one of the logging outputs. It should be closed on
	// application shutdown.
	logRotator *rotator.Rotator

	log         = backendLog.Logger("GOVD")
	engineLog   = backendLog.Logger("GOVN")
	timelockLog = backendLog.Logger("TMLK")
	tokenLog    = backendLog.Logger("TOKN")
	eventsLog   = backendLog.Logger("EVNT")
	apiLog      = backendLog.Logger("API")
)

// Initialize package-global logger variables.
func init() {
	gov.UseLogger(engineLog)
	timelock.UseLogger(timelockLog)
	token.UseLogger(tokenLog)
	events.UseLogger(eventsLog)
	api.UseLogger(apiLog)
}

// subsystemLoggers maps each subsystem identifier to its associated logger.
var subsystemLoggers = map[string]slog.Logger{
	"GOVD": log,
	"GOVN": engineLog,
	"TMLK": timelockLog,
	"TOKN": tokenLog,
	"EVNT": eventsLog,
	"API":  apiLog,
}

// initLogRotator initializes the logging rotater to write logs to logFile and
// create roll files in the same directory. It must be called before the
// package-global log rotater variables are used.
func initLogRotator(logFile string) {
	logDir, _ := filepath.Split(logFile)
	err := os.MkdirAll(logDir, 0700)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create log directory: %v\n", err)
		os.Exit(1)
	}
	r, err := rotator.New(logFile, 10*1024, false, 3)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create file rotator: %v\n", err)
		os.Exit(1)
	}

	logRotator = r
}

// setLogLevels sets the log level for all subsystem loggers to the passed
// level. Invalid levels default to info.
func setLogLevels(logLevel string) {
	level, _ := slog.LevelFromString(logLevel)
	for _, logger := range subsystemLoggers {
		logger.SetLevel(level)
	}
}
