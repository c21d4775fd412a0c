package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/heartrobot/internal/adapters/repository"
	"github.com/okian/heartrobot/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

var epoch = time.Date(2026, time.January, 5, 10, 0, 0, 0, time.UTC)

func stores(t *testing.T) map[string]func() repository.Store {
	out := map[string]func() repository.Store{
		"memory": func() repository.Store { return repository.NewMemoryStore() },
		"sqlite": func() repository.Store {
			path := filepath.Join(t.TempDir(), "scores.db")
			s, err := repository.Open(context.Background(), repository.BackendSQLite, path)
			if err != nil {
				t.Fatalf("open sqlite: %v", err)
			}
			return s
		},
	}
	if dsn := os.Getenv("HEARTROBOT_TEST_POSTGRES_DSN"); dsn != "" {
		out["postgres"] = func() repository.Store {
			s, err := repository.Open(context.Background(), repository.BackendPostgres, dsn)
			if err != nil {
				t.Fatalf("open postgres: %v", err)
			}
			return s
		}
	}
	return out
}

func TestStores(t *testing.T) {
	for name, open := range stores(t) {
		Convey("Given an empty "+name+" store", t, func() {
			ctx := context.Background()
			s := open()
			defer s.Close()

			Convey("When scores from several players are appended", func() {
				recs := []model.ScoreRecord{
					{MissionID: "m1", Name: "Ada", Level: model.LevelEasy, Score: 300, Attempts: 3, UserID: "u1", CreatedAt: epoch},
					{MissionID: "m2", Name: "Bo", Level: model.LevelHard, Score: 500, Attempts: 5, UserID: "u2", CreatedAt: epoch.Add(time.Minute)},
					{MissionID: "m3", Name: "Ada", Level: model.LevelMedium, Score: 100, Attempts: 1, UserID: "u1", CreatedAt: epoch.Add(2 * time.Minute)},
					{MissionID: "m4", Name: "Cy", Level: model.LevelEasy, Score: 300, CreatedAt: epoch.Add(3 * time.Minute)},
				}
				for _, r := range recs {
					So(s.Append(ctx, r), ShouldBeNil)
				}

				Convey("Then TopN orders by score with older records first on ties", func() {
					top, err := s.TopN(ctx, 3)
					So(err, ShouldBeNil)
					So(len(top), ShouldEqual, 3)
					So(top[0].MissionID, ShouldEqual, "m2")
					So(top[1].MissionID, ShouldEqual, "m1")
					So(top[2].MissionID, ShouldEqual, "m4")
					So(top[0].ID, ShouldNotBeEmpty)
					So(top[0].CreatedAt.Equal(epoch.Add(time.Minute)), ShouldBeTrue)
				})

				Convey("Then ByUser returns the newest first", func() {
					mine, err := s.ByUser(ctx, "u1", 50)
					So(err, ShouldBeNil)
					So(len(mine), ShouldEqual, 2)
					So(mine[0].MissionID, ShouldEqual, "m3")
					So(mine[1].MissionID, ShouldEqual, "m1")
				})

				Convey("Then ByUser honours the limit", func() {
					mine, err := s.ByUser(ctx, "u1", 1)
					So(err, ShouldBeNil)
					So(len(mine), ShouldEqual, 1)
					So(mine[0].MissionID, ShouldEqual, "m3")
				})

				Convey("Then a resubmitted mission is stored once", func() {
					So(s.Append(ctx, recs[0]), ShouldBeNil)
					top, err := s.TopN(ctx, 25)
					So(err, ShouldBeNil)
					So(len(top), ShouldEqual, 4)
				})
			})

			Convey("When an incomplete record is appended", func() {
				So(s.Append(ctx, model.ScoreRecord{Score: -20, Attempts: -1}), ShouldBeNil)
				top, err := s.TopN(ctx, 1)
				So(err, ShouldBeNil)

				Convey("Then defaults are applied", func() {
					So(top[0].Name, ShouldEqual, repository.DefaultPlayerName)
					So(top[0].Level, ShouldEqual, model.LevelEasy)
					So(top[0].Score, ShouldEqual, 0)
					So(top[0].Attempts, ShouldEqual, 0)
					So(top[0].CreatedAt.IsZero(), ShouldBeFalse)
				})
			})

			Convey("When records without a mission id repeat", func() {
				for i := 0; i < 2; i++ {
					So(s.Append(ctx, model.ScoreRecord{Name: "Anon", Score: 50}), ShouldBeNil)
				}
				top, err := s.TopN(ctx, 10)
				So(err, ShouldBeNil)

				Convey("Then each is kept", func() {
					So(len(top), ShouldEqual, 2)
				})
			})

			Convey("When a limit is not positive", func() {
				_, err1 := s.TopN(ctx, 0)
				_, err2 := s.ByUser(ctx, "u1", -1)

				Convey("Then it is rejected", func() {
					So(errors.Is(err1, repository.ErrInvalidLimit), ShouldBeTrue)
					So(errors.Is(err2, repository.ErrInvalidLimit), ShouldBeTrue)
				})
			})
		})
	}
}

func TestOpen(t *testing.T) {
	Convey("Given an unknown backend", t, func() {
		_, err := repository.Open(context.Background(), "firestore", "")

		Convey("Then Open fails", func() {
			So(errors.Is(err, repository.ErrUnknownBackend), ShouldBeTrue)
		})
	})

	Convey("Given the memory backend", t, func() {
		s, err := repository.Open(context.Background(), "", "")

		Convey("Then a memory store is returned", func() {
			So(err, ShouldBeNil)
			_, ok := s.(*repository.MemoryStore)
			So(ok, ShouldBeTrue)
		})
	})
}

func TestMemoryStoreTopOrderAtScale(t *testing.T) {
	Convey("Given a thousand shuffled scores", t, func() {
		ctx := context.Background()
		s := repository.NewMemoryStore()
		for i := 0; i < 1000; i++ {
			score := (i * 7919) % 1000
			So(s.Append(ctx, model.ScoreRecord{MissionID: fmt.Sprintf("m%d", i), Score: score, CreatedAt: epoch}), ShouldBeNil)
		}

		Convey("Then TopN returns them in descending order", func() {
			top, err := s.TopN(ctx, 1000)
			So(err, ShouldBeNil)
			So(len(top), ShouldEqual, 1000)
			for i := 1; i < len(top); i++ {
				So(top[i-1].Score, ShouldBeGreaterThanOrEqualTo, top[i].Score)
			}
			So(s.Len(), ShouldEqual, 1000)
		})
	})
}

func BenchmarkMemoryStoreAppend(b *testing.B) {
	ctx := context.Background()
	s := repository.NewMemoryStore()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = s.Append(ctx, model.ScoreRecord{Score: i % 1000, CreatedAt: epoch})
	}
}

func BenchmarkMemoryStoreTopN(b *testing.B) {
	ctx := context.Background()
	s := repository.NewMemoryStore()
	for i := 0; i < 100_000; i++ {
		_ = s.Append(ctx, model.ScoreRecord{Score: i % 1000, CreatedAt: epoch})
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = s.TopN(ctx, 25)
	}
}
