package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/heartrobot/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

var configEnvVars = []string{
	"HEARTROBOT_CONFIG",
	"HEARTROBOT_ADDR",
	"HEARTROBOT_LOG_LEVEL",
	"HEARTROBOT_PUZZLE__TIMEOUT_MS",
	"HEARTROBOT_STORE__BACKEND",
	"HEARTROBOT_STORE__DSN",
	"HEARTROBOT_SUBMISSION__WORKER_COUNT",
}

func clearConfigEnvVars() {
	for _, v := range configEnvVars {
		_ = os.Unsetenv(v)
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then the defaults are returned", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.Puzzle.URL, convey.ShouldEqual, "https://marcconrad.com/uob/heart/api.php")
				convey.So(cfg.Submission.WorkerCount, convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When loading with environment variables", func() {
			_ = os.Setenv("HEARTROBOT_ADDR", ":8080")
			_ = os.Setenv("HEARTROBOT_PUZZLE__TIMEOUT_MS", "2500")
			_ = os.Setenv("HEARTROBOT_SUBMISSION__WORKER_COUNT", "6")

			cfg, err := config.Load(ctx)

			convey.Convey("Then env overrides flat and nested keys", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.Puzzle.TimeoutMS, convey.ShouldEqual, 2500)
				convey.So(cfg.Submission.WorkerCount, convey.ShouldEqual, 6)
				convey.So(cfg.Session.SettleDelayMS, convey.ShouldEqual, 1100)
			})
		})

		convey.Convey("When loading a YAML file with a fallback bank", func() {
			path := writeConfigFile(t, `
addr: ":9090"
puzzle:
  fallback_enabled: true
  fallback_bank:
    - image: "https://example.test/a.png"
      hearts: 3
      carrots: 4
session:
  settle_delay_ms: 500
store:
  backend: sqlite
  dsn: "scores.db"
`)
			_ = os.Setenv("HEARTROBOT_CONFIG", path)

			cfg, err := config.Load(ctx)

			convey.Convey("Then file values are applied over defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.Puzzle.FallbackEnabled, convey.ShouldBeTrue)
				convey.So(len(cfg.Puzzle.FallbackBank), convey.ShouldEqual, 1)
				convey.So(cfg.Puzzle.FallbackBank[0].Carrots, convey.ShouldEqual, 4)
				convey.So(cfg.Puzzle.TimeoutMS, convey.ShouldEqual, 5000)
				convey.So(cfg.Session.SettleDelayMS, convey.ShouldEqual, 500)
				convey.So(cfg.Store.Backend, convey.ShouldEqual, "sqlite")
			})

			convey.Convey("And env still wins over the file", func() {
				_ = os.Setenv("HEARTROBOT_ADDR", ":7070")
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
			})
		})

		convey.Convey("When the config file does not exist", func() {
			_ = os.Setenv("HEARTROBOT_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

			_, err := config.Load(ctx)

			convey.Convey("Then a load error is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When env selects an invalid backend", func() {
			_ = os.Setenv("HEARTROBOT_STORE__BACKEND", "redis")

			_, err := config.Load(ctx)

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}
