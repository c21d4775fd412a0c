package kv_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/heartrobot/internal/adapters/kv"
	"github.com/okian/heartrobot/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestSecretStore(t *testing.T) {
	convey.Convey("Given a secret store holding two puzzles", t, func() {
		ctx := context.Background()
		s := kv.NewSecretStore(kv.WithCapacity(2))
		convey.So(s.Put(ctx, "a", model.Solution{Hearts: 1, Carrots: 2}), convey.ShouldBeNil)
		convey.So(s.Put(ctx, "b", model.Solution{Hearts: 3, Carrots: 4}), convey.ShouldBeNil)

		convey.Convey("When a solution is taken", func() {
			sol, ok := s.Take(ctx, "a")
			_, again := s.Take(ctx, "a")

			convey.Convey("Then it is returned exactly once", func() {
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(sol, convey.ShouldResemble, model.Solution{Hearts: 1, Carrots: 2})
				convey.So(again, convey.ShouldBeFalse)
				convey.So(s.Len(), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When the capacity is exceeded", func() {
			convey.So(s.Put(ctx, "c", model.Solution{Hearts: 5, Carrots: 6}), convey.ShouldBeNil)

			convey.Convey("Then the oldest solution is evicted", func() {
				_, okA := s.Take(ctx, "a")
				_, okC := s.Take(ctx, "c")
				convey.So(okA, convey.ShouldBeFalse)
				convey.So(okC, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When an empty id is stored", func() {
			err := s.Put(ctx, "", model.Solution{})

			convey.Convey("Then it is rejected", func() {
				convey.So(err, convey.ShouldEqual, kv.ErrEmptyKey)
			})
		})

		convey.Convey("When many goroutines race to take the same id", func() {
			var wg sync.WaitGroup
			var mu sync.Mutex
			hits := 0
			for i := 0; i < 32; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if _, ok := s.Take(ctx, "b"); ok {
						mu.Lock()
						hits++
						mu.Unlock()
					}
				}()
			}
			wg.Wait()

			convey.Convey("Then only one wins", func() {
				convey.So(hits, convey.ShouldEqual, 1)
			})
		})
	})
}

func TestHandoff(t *testing.T) {
	convey.Convey("Given an empty handoff slot", t, func() {
		ctx := context.Background()
		slot := kv.NewHandoffSlot()

		convey.Convey("When nothing was written", func() {
			_, ok := slot.ReadAndClear(ctx)

			convey.Convey("Then the read reports no summary", func() {
				convey.So(ok, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When a summary is written", func() {
			summary := model.ResultSummary{MissionID: "m1", Score: 250, PuzzlesCleared: 3, Level: model.LevelMedium, TimestampMillis: 1}
			convey.So(slot.Write(ctx, summary), convey.ShouldBeNil)

			first, ok1 := slot.ReadAndClear(ctx)
			_, ok2 := slot.ReadAndClear(ctx)

			convey.Convey("Then the first read returns it and the second finds nothing", func() {
				convey.So(ok1, convey.ShouldBeTrue)
				convey.So(first, convey.ShouldResemble, summary)
				convey.So(ok2, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When two summaries are written before a read", func() {
			convey.So(slot.Write(ctx, model.ResultSummary{MissionID: "old"}), convey.ShouldBeNil)
			convey.So(slot.Write(ctx, model.ResultSummary{MissionID: "new"}), convey.ShouldBeNil)
			got, _ := slot.ReadAndClear(ctx)

			convey.Convey("Then the latest wins", func() {
				convey.So(got.MissionID, convey.ShouldEqual, "new")
			})
		})
	})

	convey.Convey("Given a handoff registry", t, func() {
		ctx := context.Background()
		reg := kv.NewHandoffRegistry()

		convey.Convey("When two players write", func() {
			for _, p := range []string{"alice", "bob"} {
				convey.So(reg.Slot(p).Write(ctx, model.ResultSummary{MissionID: fmt.Sprintf("m-%s", p)}), convey.ShouldBeNil)
			}

			convey.Convey("Then each slot is independent", func() {
				convey.So(reg.Len(), convey.ShouldEqual, 2)
				a, _ := reg.Slot("alice").ReadAndClear(ctx)
				b, _ := reg.Slot("bob").ReadAndClear(ctx)
				convey.So(a.MissionID, convey.ShouldEqual, "m-alice")
				convey.So(b.MissionID, convey.ShouldEqual, "m-bob")
			})
		})

		convey.Convey("When many players finish and read their results", func() {
			for i := range 100 {
				slot := reg.Slot(fmt.Sprintf("player-%d", i))
				convey.So(slot.Write(ctx, model.ResultSummary{MissionID: fmt.Sprintf("m-%d", i)}), convey.ShouldBeNil)
				_, ok := slot.ReadAndClear(ctx)
				convey.So(ok, convey.ShouldBeTrue)
			}
			_, ok := reg.Slot("never-played").ReadAndClear(ctx)

			convey.Convey("Then no entry is left behind", func() {
				convey.So(ok, convey.ShouldBeFalse)
				convey.So(reg.Len(), convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When a slot handed out earlier is written after a read", func() {
			slot := reg.Slot("carol")
			_, _ = reg.Slot("carol").ReadAndClear(ctx)
			convey.So(slot.Write(ctx, model.ResultSummary{MissionID: "late"}), convey.ShouldBeNil)

			convey.Convey("Then the summary is still delivered", func() {
				got, ok := reg.Slot("carol").ReadAndClear(ctx)
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(got.MissionID, convey.ShouldEqual, "late")
			})
		})
	})
}

func TestPreferenceStore(t *testing.T) {
	convey.Convey("Given a preference store", t, func() {
		ctx := context.Background()
		p := kv.NewPreferenceStore()

		convey.Convey("Then a new player defaults to Easy", func() {
			convey.So(p.Level(ctx, "u1"), convey.ShouldEqual, model.LevelEasy)
		})

		convey.Convey("When a level is chosen", func() {
			set := p.SetLevel(ctx, "u1", "Hard")
			bad := p.SetLevel(ctx, "u2", "Impossible")

			convey.Convey("Then it is remembered and unknown names become Easy", func() {
				convey.So(set, convey.ShouldEqual, model.LevelHard)
				convey.So(p.Level(ctx, "u1"), convey.ShouldEqual, model.LevelHard)
				convey.So(bad, convey.ShouldEqual, model.LevelEasy)
			})
		})
	})
}
