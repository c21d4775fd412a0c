package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the global logger", t, func() {
		Convey("When initialized with the default format", func() {
			So(Init(), ShouldBeNil)

			Convey("Then Get and Named should return loggers", func() {
				So(Get(), ShouldNotBeNil)
				So(Named("test"), ShouldNotBeNil)
				So(Sync(), ShouldBeNil)
			})
		})

		Convey("When initialized with json", func() {
			So(InitWithFormat(FormatJSON), ShouldBeNil)
			So(Get(), ShouldNotBeNil)
		})

		Convey("When initialized with an unknown format", func() {
			So(InitWithFormat("xml"), ShouldNotBeNil)
		})
	})
}

func TestLoggerOutput(t *testing.T) {
	Convey("Given a json logger writing to a buffer", t, func() {
		SetLevel(slog.LevelInfo)
		defer SetLevel(slog.LevelInfo)
		var buf bytes.Buffer
		l := New(&buf, FormatJSON).Named("mission")
		ctx := context.Background()

		Convey("When logging with fields", func() {
			l.Info(ctx, "puzzle loaded", String("difficulty", "Easy"), Int("attempts", 40), Error(errors.New("boom")))

			Convey("Then the entry carries fields, component and source", func() {
				out := buf.String()
				So(out, ShouldContainSubstring, `"msg":"puzzle loaded"`)
				So(out, ShouldContainSubstring, `"difficulty":"Easy"`)
				So(out, ShouldContainSubstring, `"component":"mission"`)
				So(out, ShouldContainSubstring, `"error":"boom"`)
				So(out, ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When the level filters debug entries", func() {
			l.Debug(ctx, "hidden")
			So(buf.Len(), ShouldEqual, 0)

			So(SetLevelString("debug"), ShouldBeNil)
			l.Debug(ctx, "visible")
			So(buf.String(), ShouldContainSubstring, "visible")
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given level names", t, func() {
		defer SetLevel(slog.LevelInfo)
		for _, lvl := range []string{"debug", "info", "", "warn", "warning", "ERROR"} {
			So(SetLevelString(lvl), ShouldBeNil)
		}
		So(SetLevelString("loud"), ShouldNotBeNil)
	})
}

func TestNop(t *testing.T) {
	Convey("Given a nop logger", t, func() {
		l := NewNop()
		So(func() { l.Error(context.Background(), "ignored") }, ShouldNotPanic)
		So(func() { l.Named("x").Info(context.TODO(), "ignored") }, ShouldNotPanic)
	})
}
