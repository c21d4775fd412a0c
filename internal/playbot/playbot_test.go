package playbot_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/heartrobot/internal/adapters/http/api"
	"github.com/okian/heartrobot/internal/adapters/puzzle"
	service "github.com/okian/heartrobot/internal/app"
	"github.com/okian/heartrobot/internal/config"
	"github.com/okian/heartrobot/internal/domain/clock"
	"github.com/okian/heartrobot/internal/domain/model"
	"github.com/okian/heartrobot/internal/domain/session"
	"github.com/okian/heartrobot/internal/playbot"
)

type fixedProvider struct{}

func (fixedProvider) Fetch(context.Context) (puzzle.Payload, error) {
	return puzzle.Payload{Question: "https://img.example/bot.png", Solution: 1, Carrots: 2}, nil
}

func (fixedProvider) Source() model.PuzzleSource { return model.SourceLive }

func newServer() (*httptest.Server, func()) {
	cfg := config.New()
	cfg.Session.SettleDelayMS = 1
	cfg.Auth.BcryptCost = 4
	svc, err := service.New(cfg,
		service.WithPuzzleProvider(fixedProvider{}),
		service.WithClockFactory(func(onTick func(int), onExpire func()) session.Clock {
			return clock.New(onTick, onExpire, clock.WithTickInterval(time.Hour))
		}),
	)
	if err != nil {
		panic(err)
	}
	if err := svc.Start(context.Background()); err != nil {
		panic(err)
	}
	srv := api.NewServer(svc)
	mux := http.NewServeMux()
	srv.Register(context.Background(), mux)
	ts := httptest.NewServer(srv.Handler(mux))
	return ts, func() {
		ts.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		svc.Stop(ctx)
	}
}

func TestRun(t *testing.T) {
	Convey("Given a running service", t, func() {
		ts, stop := newServer()
		defer stop()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		Convey("When six bots play Easy missions", func() {
			cfg := &playbot.Config{
				BaseURL:      ts.URL,
				Players:      6,
				Level:        "Easy",
				Workers:      3,
				PollInterval: 2 * time.Millisecond,
				MaxGuess:     2,
			}
			stats, err := playbot.Run(ctx, cfg, nil)

			Convey("Then every mission finishes and the scoreboard verifies", func() {
				So(err, ShouldBeNil)
				So(stats.PlayersRegistered, ShouldEqual, 6)
				So(stats.MissionsFinished, ShouldEqual, 6)
				So(stats.MissionsFailed, ShouldEqual, 0)
				So(stats.ScoreboardRows, ShouldEqual, 6)
				So(stats.Guesses, ShouldBeGreaterThanOrEqualTo, stats.CorrectGuesses)
			})
		})

		Convey("When the defaults are left empty", func() {
			cfg := &playbot.Config{BaseURL: ts.URL, Players: 1, PollInterval: time.Millisecond, MaxGuess: 2}
			_, err := playbot.Run(ctx, cfg, nil)

			Convey("Then the stored preference level is played", func() {
				So(err, ShouldBeNil)
				So(cfg.Workers, ShouldEqual, playbot.DefaultWorkers)
				So(cfg.Timeout, ShouldEqual, playbot.DefaultTimeout)
			})
		})
	})

	Convey("Given no service", t, func() {
		ts := httptest.NewServer(http.NotFoundHandler())
		url := ts.URL
		ts.Close()

		Convey("Then the health check fails the run", func() {
			_, err := playbot.Run(context.Background(), &playbot.Config{BaseURL: url, Timeout: time.Second}, nil)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "health check")
		})
	})

	Convey("Given a service without mission routes", t, func() {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"success":true,"data":{"status":"ok"}}`))
		})
		ts := httptest.NewServer(mux)
		defer ts.Close()

		Convey("Then no player finishes and the run fails", func() {
			_, err := playbot.Run(context.Background(), &playbot.Config{BaseURL: ts.URL, Players: 2, Timeout: time.Second}, nil)
			So(err, ShouldNotBeNil)
			So(errors.Is(err, playbot.ErrVerification), ShouldBeFalse)
			So(err.Error(), ShouldContainSubstring, "no player finished")
		})
	})
}
