package playbot

import (
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/heartrobot/internal/domain/model"
)

func TestCheckRanking(t *testing.T) {
	convey.Convey("checkRanking", t, func() {
		convey.Convey("accepts contiguous ranks in descending order", func() {
			rows := []model.AggregatedScoreRow{
				{PlayerName: "a", TotalScore: 500, Rank: 1},
				{PlayerName: "b", TotalScore: 300, Rank: 2},
				{PlayerName: "c", TotalScore: 300, Rank: 3},
			}
			convey.So(checkRanking(rows), convey.ShouldBeEmpty)
		})

		convey.Convey("flags a gap in the ranks", func() {
			rows := []model.AggregatedScoreRow{
				{PlayerName: "a", TotalScore: 500, Rank: 1},
				{PlayerName: "b", TotalScore: 300, Rank: 3},
			}
			convey.So(checkRanking(rows), convey.ShouldHaveLength, 1)
		})

		convey.Convey("flags a total above its predecessor", func() {
			rows := []model.AggregatedScoreRow{
				{PlayerName: "a", TotalScore: 100, Rank: 1},
				{PlayerName: "b", TotalScore: 300, Rank: 2},
			}
			convey.So(checkRanking(rows), convey.ShouldHaveLength, 1)
		})

		convey.Convey("accepts an empty board", func() {
			convey.So(checkRanking(nil), convey.ShouldBeEmpty)
		})
	})
}
