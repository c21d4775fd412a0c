package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/heartrobot/internal/playbot"
)

const defaultRunTimeout = 10 * time.Minute

func main() {
	var (
		baseURL = flag.String("url", playbot.DefaultBaseURL, "Base URL of the service")
		players = flag.Int("players", playbot.DefaultPlayers, "Number of simulated players")
		level   = flag.String("level", "", "Difficulty every player picks (default: stored preference)")
		workers = flag.Int("workers", playbot.DefaultWorkers, "Players playing at the same time")
		timeout = flag.Duration("timeout", playbot.DefaultTimeout, "HTTP request timeout")
		logFile = flag.String("log", "", "Log file for run output (default: playbot_TIMESTAMP.log)")
		verbose = flag.Bool("verbose", false, "Enable verbose logging")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		playbot.ShowHelp()
		return
	}

	log, closer, err := playbot.SetupLogging(*logFile, *verbose)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)

	cfg := &playbot.Config{
		BaseURL: *baseURL,
		Players: *players,
		Level:   *level,
		Workers: *workers,
		Timeout: *timeout,
		LogFile: *logFile,
		Verbose: *verbose,
	}

	_, runErr := playbot.Run(ctx, cfg, log)
	cancel()
	stop()
	_ = closer.Close()
	if runErr != nil {
		os.Stderr.WriteString("Playbot failed: " + runErr.Error() + "\n")
		os.Exit(1)
	}
}
