package playbot

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/heartrobot/pkg/logger"
)

const logFilePermission = 0600

// SetupLogging returns a logger writing to stdout and logFile. An empty
// logFile gets a timestamped name. The caller closes the returned file.
func SetupLogging(logFile string, verbose bool) (logger.Logger, io.Closer, error) {
	if logFile == "" {
		logFile = "playbot_" + time.Now().Format("20060102_150405") + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create log file: %w", err)
	}

	level := "info"
	if verbose {
		level = "debug"
	}
	if err := logger.SetLevelString(level); err != nil {
		_ = file.Close()
		return nil, nil, err
	}

	l := logger.New(io.MultiWriter(os.Stdout, file), logger.FormatText).Named("playbot")
	return l, file, nil
}

// ShowHelp prints usage information for the playbot.
func ShowHelp() {
	os.Stdout.WriteString(`Heart Robot Playbot
===================

Plays missions against a running Heart Robot service with simulated
players and checks the scoreboard they produce.

Usage:
  go run ./cmd/playbot [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -players int
        Number of simulated players (default 10)
  -level string
        Difficulty every player picks: Easy, Medium or Hard (default: stored preference)
  -workers int
        Players playing at the same time (default 4)
  -timeout duration
        HTTP request timeout (default 10s)
  -log string
        Log file for run output (default: playbot_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Ten players on the default level
  go run ./cmd/playbot

  # Fifty Hard missions, eight at a time
  go run ./cmd/playbot -players 50 -level Hard -workers 8
`)
}
