// Package leaderboard aggregates raw score records into ranked standings
// per (player, level). Aggregation is pure; nothing it produces is stored.
package leaderboard

import (
	"sort"
	"time"

	"github.com/okian/heartrobot/internal/domain/model"
)

// Defaults applied to incomplete records.
const (
	AnonymousName = "Anonymous"
	DisplayLayout = "Jan 2, 2006, 03:04 PM"
)

// Input is everything one aggregation pass looks at.
type Input struct {
	// Persisted records from the score store.
	Persisted []model.ScoreRecord
	// Local results of recently finished missions that may not be persisted yet.
	Local []model.LocalResult
	// Current is the summary just handed off by a finished mission, if any.
	Current *model.ResultSummary
	// CurrentPlayer names the player the Current summary belongs to.
	CurrentPlayer string
	// Now stamps rows created from local results.
	Now time.Time
	// Location is used for LastPlayedDisplay; UTC when nil.
	Location *time.Location
}

type key struct {
	name  string
	level model.Level
}

// Aggregate groups persisted records, merges local results whose mission is
// not persisted yet, sorts by total score descending (stable) and ranks 1..N.
func Aggregate(in Input) []model.AggregatedScoreRow {
	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}

	rows := make([]*model.AggregatedScoreRow, 0)
	index := make(map[key]*model.AggregatedScoreRow)
	persisted := make(map[string]struct{})

	for _, rec := range in.Persisted {
		if rec.MissionID != "" {
			persisted[rec.MissionID] = struct{}{}
		}
		k := key{name: orDefault(rec.Name, AnonymousName), level: levelOrEasy(rec.Level)}
		row, ok := index[k]
		if !ok {
			row = &model.AggregatedScoreRow{PlayerName: k.name, Level: k.level}
			index[k] = row
			rows = append(rows, row)
		}
		row.TotalScore += rec.Score
		if rec.Attempts > 0 {
			row.TotalAttempts += rec.Attempts
		}
		if rec.CreatedAt.After(row.LastPlayed) {
			row.LastPlayed = rec.CreatedAt
		}
	}
	sortByTotal(rows)

	merged := make(map[string]struct{})
	for _, lr := range pending(in) {
		if lr.MissionID != "" {
			if _, ok := persisted[lr.MissionID]; ok {
				continue
			}
			if _, ok := merged[lr.MissionID]; ok {
				continue
			}
			merged[lr.MissionID] = struct{}{}
		}
		k := key{name: orDefault(lr.Name, AnonymousName), level: levelOrEasy(lr.Level)}
		row, ok := index[k]
		if !ok {
			row = &model.AggregatedScoreRow{PlayerName: k.name, Level: k.level, LastPlayed: in.Now}
			index[k] = row
			rows = append(rows, row)
		}
		row.TotalScore += lr.Score
		if lr.Attempts > 0 {
			row.TotalAttempts += lr.Attempts
		}
	}
	sortByTotal(rows)

	out := make([]model.AggregatedScoreRow, len(rows))
	for i, row := range rows {
		row.CarrotsDerived = max(0, row.TotalScore*6/10)
		row.HeartsDerived = max(0, row.TotalScore*4/10)
		row.Rank = i + 1
		if !row.LastPlayed.IsZero() {
			row.LastPlayedDisplay = row.LastPlayed.In(loc).Format(DisplayLayout)
		}
		out[i] = *row
	}
	return out
}

// pending lists local results followed by the current summary.
func pending(in Input) []model.LocalResult {
	list := make([]model.LocalResult, 0, len(in.Local)+1)
	list = append(list, in.Local...)
	if in.Current != nil {
		list = append(list, model.LocalResult{
			MissionID:       in.Current.MissionID,
			Name:            in.CurrentPlayer,
			Level:           in.Current.Level,
			Score:           in.Current.Score,
			Attempts:        in.Current.PuzzlesCleared,
			TimestampMillis: in.Current.TimestampMillis,
		})
	}
	return list
}

func sortByTotal(rows []*model.AggregatedScoreRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].TotalScore > rows[j].TotalScore
	})
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func levelOrEasy(l model.Level) model.Level {
	if l == "" {
		return model.LevelEasy
	}
	return l
}
