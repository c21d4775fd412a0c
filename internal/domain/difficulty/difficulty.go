// Package difficulty maps difficulty names to mission parameters.
package difficulty

import (
	"strings"

	"github.com/okian/heartrobot/internal/domain/model"
)

var profiles = map[model.Level]model.DifficultyProfile{
	model.LevelEasy:   {Name: model.LevelEasy, TimeLimitSeconds: 40, AttemptBudget: 40, PuzzlesRequired: 5},
	model.LevelMedium: {Name: model.LevelMedium, TimeLimitSeconds: 30, AttemptBudget: 30, PuzzlesRequired: 7},
	model.LevelHard:   {Name: model.LevelHard, TimeLimitSeconds: 20, AttemptBudget: 20, PuzzlesRequired: 10},
}

// Resolve returns the profile for name. Unknown or empty names resolve to Easy.
func Resolve(name string) model.DifficultyProfile {
	if p, ok := profiles[model.Level(strings.TrimSpace(name))]; ok {
		return p
	}
	return profiles[model.LevelEasy]
}

// IsKnown reports whether name is one of the defined levels.
func IsKnown(name string) bool {
	_, ok := profiles[model.Level(strings.TrimSpace(name))]
	return ok
}

// Profiles lists every profile from easiest to hardest.
func Profiles() []model.DifficultyProfile {
	return []model.DifficultyProfile{
		profiles[model.LevelEasy],
		profiles[model.LevelMedium],
		profiles[model.LevelHard],
	}
}
