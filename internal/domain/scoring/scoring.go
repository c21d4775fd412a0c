// Package scoring defines the answer scoring policy and player feedback.
package scoring

import (
	"errors"
	"strconv"
	"strings"

	"github.com/okian/heartrobot/internal/domain/model"
)

// Points awarded per guess.
const (
	FullScore    = 100
	PartialScore = 50
)

// Player-facing messages.
const (
	MessageCorrect      = "Correct! Heart Robot approves!"
	MessageBothWrong    = "Almost! Both the heart and carrot counts need another look."
	MessageHeartWrong   = "Almost! The heart count is off."
	MessageCarrotWrong  = "Almost! The carrot count is off."
	MessageInvalidInput = "Enter numbers for both the hearts and the carrots."
)

// ErrNotANumber is returned by ParseGuess for input without a leading integer.
var ErrNotANumber = errors.New("guess is not a number")

// Evaluate scores a guess against the solution: both counts right earns
// FullScore, exactly one earns PartialScore, none earns zero.
func Evaluate(solution model.Solution, hearts, carrots int) model.Verdict {
	v := model.Verdict{
		HeartCorrect:  hearts == solution.Hearts,
		CarrotCorrect: carrots == solution.Carrots,
	}
	v.Correct = v.HeartCorrect && v.CarrotCorrect
	switch {
	case v.Correct:
		v.Score = FullScore
	case v.HeartCorrect || v.CarrotCorrect:
		v.Score = PartialScore
	}
	return v
}

// Feedback returns the message shown after a verdict.
func Feedback(v model.Verdict) string {
	switch {
	case v.Correct:
		return MessageCorrect
	case !v.HeartCorrect && !v.CarrotCorrect:
		return MessageBothWrong
	case !v.HeartCorrect:
		return MessageHeartWrong
	default:
		return MessageCarrotWrong
	}
}

// ParseGuess reads the leading signed base-10 integer of raw, so "12abc" is 12
// and "-4" is -4. Values beyond the int range saturate. Only input without
// leading digits is rejected.
func ParseGuess(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	sign := ""
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		sign, s = s[:1], s[1:]
	}
	end := 0
	for end < len(s) && '0' <= s[end] && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, ErrNotANumber
	}
	n, err := strconv.Atoi(sign + s[:end])
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, ErrNotANumber
	}
	return n, nil
}
