package config_test

import (
	"errors"
	"testing"

	"github.com/okian/heartrobot/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with defaults", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.Puzzle.TimeoutMS, convey.ShouldEqual, 5000)
			convey.So(cfg.Session.SettleDelayMS, convey.ShouldEqual, 1100)
			convey.So(cfg.Store.Backend, convey.ShouldEqual, "memory")
			convey.So(cfg.Scoreboard.TopLimit, convey.ShouldEqual, 25)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("And derived durations follow the millisecond settings", func() {
			convey.So(cfg.PuzzleTimeout().Seconds(), convey.ShouldEqual, 5)
			convey.So(cfg.SettleDelay().Milliseconds(), convey.ShouldEqual, 1100)
			convey.So(cfg.TickInterval().Seconds(), convey.ShouldEqual, 1)
			convey.So(cfg.TokenTTL().Hours(), convey.ShouldEqual, 12)
			convey.So(cfg.Location().String(), convey.ShouldEqual, "UTC")
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given invalid configurations", t, func() {
		cases := map[string]func(c *config.Config){
			"empty addr":         func(c *config.Config) { c.Addr = " " },
			"zero timeout":       func(c *config.Config) { c.Puzzle.TimeoutMS = 0 },
			"zero tick":          func(c *config.Config) { c.Session.TickMS = 0 },
			"negative settle":    func(c *config.Config) { c.Session.SettleDelayMS = -1 },
			"empty secret":       func(c *config.Config) { c.Auth.JWTSecret = "" },
			"unknown backend":    func(c *config.Config) { c.Store.Backend = "redis" },
			"sqlite without dsn": func(c *config.Config) { c.Store.Backend = "sqlite" },
			"bad timezone":       func(c *config.Config) { c.Scoreboard.Timezone = "Mars/Olympus" },
			"empty bank":         func(c *config.Config) { c.Puzzle.FallbackEnabled = true },
		}
		for name, mutate := range cases {
			cfg := config.New()
			mutate(cfg)
			err := cfg.Validate()
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			_ = name
		}
	})
}
