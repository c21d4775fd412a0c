package playbot

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/heartrobot/internal/domain/difficulty"
	"github.com/okian/heartrobot/internal/domain/model"
	"github.com/okian/heartrobot/pkg/logger"
)

// ErrVerification is returned when a scoreboard is inconsistent with the run.
var ErrVerification = errors.New("verification failed")

const scoreboardTopLimit = 25

// verifyResults checks the global scoreboard and each player's own standings.
func verifyResults(ctx context.Context, cfg *Config, log logger.Logger, results []Result, stats *Stats) error {
	log.Info(ctx, "verifying scoreboards", logger.Int("players", len(results)))

	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)
	rows, err := client.scoreboard(ctx, "all")
	if err != nil {
		return err
	}
	stats.ScoreboardRows = len(rows)

	var problems []string
	problems = append(problems, checkRanking(rows)...)

	// A short board holds every standing, so every bot must be on it.
	if len(rows) < scoreboardTopLimit {
		names := make(map[string]bool, len(rows))
		for _, r := range rows {
			names[r.PlayerName] = true
		}
		for _, res := range results {
			if !names[res.Name] {
				problems = append(problems, fmt.Sprintf("%s missing from scoreboard", res.Name))
			}
		}
	}

	for _, res := range results {
		problems = append(problems, checkOwnScore(ctx, cfg, res)...)
	}

	if len(problems) > 0 {
		for _, p := range problems {
			log.Error(ctx, "scoreboard problem", logger.String("problem", p))
		}
		return fmt.Errorf("%w: %d problems, first: %s", ErrVerification, len(problems), problems[0])
	}
	log.Info(ctx, "scoreboards verified", logger.Int("rows", len(rows)))
	return nil
}

// checkRanking requires ranks to run 1..n without gaps over a board ordered
// by descending total.
func checkRanking(rows []model.AggregatedScoreRow) []string {
	var problems []string
	for i, r := range rows {
		if r.Rank != i+1 {
			problems = append(problems, fmt.Sprintf("row %d has rank %d", i, r.Rank))
		}
		if i > 0 && r.TotalScore > rows[i-1].TotalScore {
			problems = append(problems, fmt.Sprintf("row %d total %d above row %d total %d",
				i, r.TotalScore, i-1, rows[i-1].TotalScore))
		}
	}
	return problems
}

// checkOwnScore reads the player's filtered board and matches the mission score.
func checkOwnScore(ctx context.Context, cfg *Config, res Result) []string {
	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)
	client.token = res.Token
	rows, err := client.scoreboard(ctx, "mine")
	if err != nil {
		return []string{fmt.Sprintf("%s: %v", res.Name, err)}
	}
	problems := checkRanking(rows)
	if len(rows) != 1 {
		return append(problems, fmt.Sprintf("%s has %d rows, want 1", res.Name, len(rows)))
	}
	row := rows[0]
	if row.PlayerName != res.Name {
		problems = append(problems, fmt.Sprintf("%s row named %q", res.Name, row.PlayerName))
	}
	if want := difficulty.Resolve(cfg.Level).Name; row.Level != want {
		problems = append(problems, fmt.Sprintf("%s row level %s, want %s", res.Name, row.Level, want))
	}
	if row.TotalScore != res.FinalScore {
		problems = append(problems, fmt.Sprintf("%s total %d, mission scored %d", res.Name, row.TotalScore, res.FinalScore))
	}
	return problems
}
