package playbot

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/heartrobot/internal/domain/session"
	"github.com/okian/heartrobot/pkg/logger"
)

// ErrMissionStuck is returned when a mission does not progress within the poll budget.
var ErrMissionStuck = errors.New("mission made no progress")

// counters are shared between player goroutines.
type counters struct {
	registered atomic.Int64
	finished   atomic.Int64
	failed     atomic.Int64
	guesses    atomic.Int64
	correct    atomic.Int64
	retries    atomic.Int64
}

// Run registers cfg.Players players, plays one mission each and verifies
// the scoreboard they produce.
func Run(ctx context.Context, cfg *Config, log logger.Logger) (*Stats, error) {
	if log == nil {
		log = logger.NewNop()
	}
	applyDefaults(cfg)
	stats := &Stats{StartTime: time.Now()}

	log.Info(ctx, "starting heart robot playbot",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("players", cfg.Players),
		logger.String("level", cfg.Level),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout),
		logger.Bool("verbose", cfg.Verbose))

	// Step 1: check service health
	log.Info(ctx, "checking service health")
	if err := newHTTPClient(cfg.BaseURL, cfg.Timeout).checkHealth(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: play missions concurrently
	results, err := playAll(ctx, cfg, log, stats)
	if err != nil {
		return stats, fmt.Errorf("playing missions failed: %w", err)
	}

	// Step 3: verify scoreboards
	if err := verifyResults(ctx, cfg, log, results, stats); err != nil {
		return stats, fmt.Errorf("result verification failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, log, stats)

	log.Info(ctx, "playbot completed successfully")
	return stats, nil
}

func applyDefaults(cfg *Config) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Players <= 0 {
		cfg.Players = DefaultPlayers
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.MaxGuess <= 0 {
		cfg.MaxGuess = DefaultMaxGuess
	}
}

// playAll runs every player through a worker pool and collects the results
// of those that finished their mission.
func playAll(ctx context.Context, cfg *Config, log logger.Logger, stats *Stats) ([]Result, error) {
	log.Info(ctx, "playing missions", logger.Int("players", cfg.Players), logger.Int("workers", cfg.Workers))

	jobs := make(chan int, cfg.Players)
	for i := range cfg.Players {
		jobs <- i
	}
	close(jobs)

	var (
		c       counters
		mu      sync.Mutex
		results = make([]Result, 0, cfg.Players)
		wg      sync.WaitGroup
	)
	for range cfg.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					return
				}
				res, err := playOne(ctx, cfg, log, i, &c)
				if err != nil {
					c.failed.Add(1)
					log.Warn(ctx, "player failed", logger.String("player", res.Name), logger.Error(err))
					continue
				}
				c.finished.Add(1)
				mu.Lock()
				results = append(results, res)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	stats.PlayersRegistered = int(c.registered.Load())
	stats.MissionsFinished = int(c.finished.Load())
	stats.MissionsFailed = int(c.failed.Load())
	stats.Guesses = int(c.guesses.Load())
	stats.CorrectGuesses = int(c.correct.Load())
	stats.Retries = int(c.retries.Load())

	if err := ctx.Err(); err != nil {
		return results, err
	}
	if len(results) == 0 {
		return nil, errors.New("no player finished a mission")
	}
	return results, nil
}

// playOne registers a player and plays a mission to its end with random guesses.
func playOne(ctx context.Context, cfg *Config, log logger.Logger, n int, c *counters) (Result, error) {
	suffix := uuid.NewString()[:8]
	res := Result{Name: fmt.Sprintf("Playbot %d %s", n+1, suffix)}
	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)

	email := fmt.Sprintf("playbot-%d-%s@playbot.local", n+1, suffix)
	if _, err := client.register(ctx, res.Name, email, botPassword); err != nil {
		return res, fmt.Errorf("register: %w", err)
	}
	c.registered.Add(1)
	res.Token = client.token

	snap, err := client.startMission(ctx, cfg.Level)
	if err != nil {
		return res, fmt.Errorf("start mission: %w", err)
	}
	res.MissionID = snap.MissionID
	if cfg.Verbose {
		log.Debug(ctx, "mission started", logger.String("player", res.Name), logger.String("mission", snap.MissionID))
	}

	for polls := 0; snap.State != session.StateFinished; {
		switch {
		case snap.State == session.StateActive:
			polls = 0
			hearts, carrots := rand.IntN(cfg.MaxGuess+1), rand.IntN(cfg.MaxGuess+1)
			out, err := client.guess(ctx, snap.MissionID, hearts, carrots)
			c.guesses.Add(1)
			res.Guesses++
			if err != nil {
				// A rejected guess leaves the mission in a state worth re-reading.
				if snap, err = client.mission(ctx, res.MissionID); err != nil {
					return res, fmt.Errorf("read mission after guess: %w", err)
				}
				continue
			}
			if out.Verdict.Correct {
				c.correct.Add(1)
				res.Correct++
			}
			snap = out.Snapshot

		case snap.State == session.StateLoading && snap.Error != "":
			if res.Retries >= maxRetries {
				_ = client.abandon(ctx, res.MissionID)
				return res, fmt.Errorf("puzzle unavailable after %d retries: %s", res.Retries, snap.Error)
			}
			c.retries.Add(1)
			res.Retries++
			if snap, err = client.retry(ctx, res.MissionID); err != nil {
				if snap, err = client.mission(ctx, res.MissionID); err != nil {
					return res, fmt.Errorf("read mission after retry: %w", err)
				}
			}

		default:
			polls++
			if polls > maxPolls {
				_ = client.abandon(ctx, res.MissionID)
				return res, ErrMissionStuck
			}
			select {
			case <-ctx.Done():
				return res, ctx.Err()
			case <-time.After(cfg.PollInterval):
			}
			if snap, err = client.mission(ctx, res.MissionID); err != nil {
				return res, fmt.Errorf("poll mission: %w", err)
			}
		}
	}

	res.FinalScore = snap.Run.TotalScore
	res.Reason = string(snap.Reason)
	if cfg.Verbose {
		log.Debug(ctx, "mission finished",
			logger.String("player", res.Name),
			logger.Int("score", res.FinalScore),
			logger.String("reason", res.Reason),
			logger.Int("guesses", res.Guesses))
	}
	return res, nil
}

// displayFinalStats logs the run statistics.
func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var accuracy, missionsPerSecond float64
	if stats.Guesses > 0 {
		accuracy = float64(stats.CorrectGuesses) / float64(stats.Guesses) * percentageBase
	}
	if stats.Duration > 0 {
		missionsPerSecond = float64(stats.MissionsFinished) / stats.Duration.Seconds()
	}

	log.Info(ctx, "final statistics",
		logger.Int("playersRegistered", stats.PlayersRegistered),
		logger.Int("missionsFinished", stats.MissionsFinished),
		logger.Int("missionsFailed", stats.MissionsFailed),
		logger.Int("guesses", stats.Guesses),
		logger.Int("correctGuesses", stats.CorrectGuesses),
		logger.Int("retries", stats.Retries),
		logger.Int("scoreboardRows", stats.ScoreboardRows),
		logger.Duration("duration", stats.Duration),
		logger.Float64("accuracy", accuracy),
		logger.Float64("missionsPerSecond", missionsPerSecond))
}
