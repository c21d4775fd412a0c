package difficulty_test

import (
	"testing"

	"github.com/okian/heartrobot/internal/domain/difficulty"
	"github.com/okian/heartrobot/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestResolve(t *testing.T) {
	Convey("Given the difficulty table", t, func() {
		Convey("When resolving known names", func() {
			easy := difficulty.Resolve("Easy")
			medium := difficulty.Resolve("Medium")
			hard := difficulty.Resolve(" Hard ")

			Convey("Then the fixed parameters are returned", func() {
				So(easy, ShouldResemble, model.DifficultyProfile{Name: model.LevelEasy, TimeLimitSeconds: 40, AttemptBudget: 40, PuzzlesRequired: 5})
				So(medium, ShouldResemble, model.DifficultyProfile{Name: model.LevelMedium, TimeLimitSeconds: 30, AttemptBudget: 30, PuzzlesRequired: 7})
				So(hard, ShouldResemble, model.DifficultyProfile{Name: model.LevelHard, TimeLimitSeconds: 20, AttemptBudget: 20, PuzzlesRequired: 10})
			})
		})

		Convey("When resolving unknown or missing names", func() {
			for _, name := range []string{"", "easy", "HARD", "Nightmare", "🥕", "Medium-ish"} {
				Convey("Then "+name+" falls back to Easy", func() {
					So(difficulty.Resolve(name).Name, ShouldEqual, model.LevelEasy)
					So(difficulty.IsKnown(name), ShouldBeFalse)
				})
			}
		})

		Convey("When listing profiles", func() {
			list := difficulty.Profiles()

			Convey("Then they are ordered by difficulty", func() {
				So(len(list), ShouldEqual, 3)
				So(list[0].Name, ShouldEqual, model.LevelEasy)
				So(list[2].Name, ShouldEqual, model.LevelHard)
			})
		})
	})
}
