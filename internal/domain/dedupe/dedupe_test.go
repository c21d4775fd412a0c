package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	dedupe "github.com/okian/heartrobot/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	Convey("Given a new deduper", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper()

		Convey("Then it starts empty", func() {
			So(d.Size(), ShouldEqual, 0)
		})

		Convey("When a mission is submitted for the first time", func() {
			seen := d.SeenAndRecord(ctx, "mission-1")

			Convey("Then it is recorded as new", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("Then a repeat is detected", func() {
				So(d.SeenAndRecord(ctx, "mission-1"), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("Then unrecording allows a retry", func() {
				d.Unrecord(ctx, "mission-1")
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "mission-1"), ShouldBeFalse)
			})
		})

		Convey("When unrecording an unknown id", func() {
			d.Unrecord(ctx, "ghost")

			Convey("Then nothing changes", func() {
				So(d.Size(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a deduper bounded to three ids", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
		for i := 1; i <= 4; i++ {
			So(d.SeenAndRecord(ctx, fmt.Sprintf("m%d", i)), ShouldBeFalse)
		}

		Convey("Then the oldest id was evicted", func() {
			So(d.Size(), ShouldEqual, 3)
			So(d.SeenAndRecord(ctx, "m4"), ShouldBeTrue)
			So(d.SeenAndRecord(ctx, "m2"), ShouldBeTrue)
			So(d.SeenAndRecord(ctx, "m1"), ShouldBeFalse)
		})
	})

	Convey("Given an unbounded deduper", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
		for i := 0; i < 500; i++ {
			d.SeenAndRecord(ctx, fmt.Sprintf("m%d", i))
		}

		Convey("Then nothing is evicted", func() {
			So(d.Size(), ShouldEqual, 500)
		})
	})

	Convey("Given concurrent submissions of the same mission", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper()
		var fresh atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if !d.SeenAndRecord(ctx, "mission-x") {
					fresh.Add(1)
				}
			}()
		}
		wg.Wait()

		Convey("Then exactly one is treated as new", func() {
			So(int(fresh.Load()), ShouldEqual, 1)
		})
	})
}
