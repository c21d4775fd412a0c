package puzzle_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/okian/heartrobot/internal/adapters/kv"
	"github.com/okian/heartrobot/internal/adapters/puzzle"
	"github.com/okian/heartrobot/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func heartAPI(body string, status int, delay time.Duration) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = fmt.Fprint(w, body)
	}))
}

func TestHTTPProvider(t *testing.T) {
	Convey("Given the remote heart API", t, func() {
		ctx := context.Background()

		Convey("When it answers with a full payload", func() {
			srv := heartAPI(`{"question":"https://img/heart.png","solution":6,"carrots":4}`, http.StatusOK, 0)
			defer srv.Close()

			p, err := puzzle.NewHTTPProvider(srv.URL).Fetch(ctx)

			Convey("Then the puzzle is decoded", func() {
				So(err, ShouldBeNil)
				So(p, ShouldResemble, puzzle.Payload{Question: "https://img/heart.png", Solution: 6, Carrots: 4})
			})
		})

		Convey("When a zero count is present", func() {
			srv := heartAPI(`{"question":"q","solution":0,"carrots":0}`, http.StatusOK, 0)
			defer srv.Close()

			p, err := puzzle.NewHTTPProvider(srv.URL).Fetch(ctx)

			Convey("Then zero is a valid count", func() {
				So(err, ShouldBeNil)
				So(p.Solution, ShouldEqual, 0)
			})
		})

		Convey("When fields are missing", func() {
			for _, body := range []string{`{"solution":6,"carrots":4}`, `{"question":"q","carrots":4}`, `{"question":"q","solution":1}`, `not json`} {
				srv := heartAPI(body, http.StatusOK, 0)
				_, err := puzzle.NewHTTPProvider(srv.URL).Fetch(ctx)
				srv.Close()

				So(errors.Is(err, puzzle.ErrMalformedPayload), ShouldBeTrue)
			}
		})

		Convey("When it answers with an error status", func() {
			srv := heartAPI(`{}`, http.StatusBadGateway, 0)
			defer srv.Close()

			_, err := puzzle.NewHTTPProvider(srv.URL).Fetch(ctx)

			Convey("Then the status is reported", func() {
				So(errors.Is(err, puzzle.ErrUnexpectedStatus), ShouldBeTrue)
			})
		})
	})
}

func TestClient(t *testing.T) {
	Convey("Given a client backed by a working API", t, func() {
		ctx := context.Background()
		srv := heartAPI(`{"question":"img","solution":6,"carrots":4}`, http.StatusOK, 0)
		defer srv.Close()

		secrets := kv.NewSecretStore()
		client := puzzle.NewClient(puzzle.NewHTTPProvider(srv.URL), secrets)

		Convey("When a puzzle is requested", func() {
			session, err := client.RequestPuzzle(ctx, model.LevelMedium)

			Convey("Then only the public part is returned", func() {
				So(err, ShouldBeNil)
				So(session.SessionID, ShouldNotBeEmpty)
				So(session.ImageRef, ShouldEqual, "img")
				So(session.Source, ShouldEqual, model.SourceLive)
				So(session.Level, ShouldEqual, model.LevelMedium)
				So(secrets.Len(), ShouldEqual, 1)
			})

			Convey("Then the answer validates exactly once", func() {
				v, err := client.ValidateAnswer(ctx, session.SessionID, 6, 4)
				So(err, ShouldBeNil)
				So(v.Correct, ShouldBeTrue)
				So(v.Score, ShouldEqual, 100)

				_, err = client.ValidateAnswer(ctx, session.SessionID, 6, 4)
				So(errors.Is(err, puzzle.ErrSessionExpired), ShouldBeTrue)
			})

			Convey("Then a partial answer earns half", func() {
				v, err := client.ValidateAnswer(ctx, session.SessionID, 6, 3)
				So(err, ShouldBeNil)
				So(v.HeartCorrect, ShouldBeTrue)
				So(v.CarrotCorrect, ShouldBeFalse)
				So(v.Score, ShouldEqual, 50)
			})

			Convey("Then concurrent validations have a single winner", func() {
				var wg sync.WaitGroup
				var mu sync.Mutex
				wins := 0
				for i := 0; i < 16; i++ {
					wg.Add(1)
					go func() {
						defer wg.Done()
						if _, err := client.ValidateAnswer(ctx, session.SessionID, 1, 1); err == nil {
							mu.Lock()
							wins++
							mu.Unlock()
						}
					}()
				}
				wg.Wait()
				So(wins, ShouldEqual, 1)
			})

			Convey("Then a discarded puzzle cannot be validated", func() {
				client.Discard(ctx, session.SessionID)
				_, err := client.ValidateAnswer(ctx, session.SessionID, 6, 4)
				So(errors.Is(err, puzzle.ErrSessionExpired), ShouldBeTrue)
			})
		})

		Convey("When validating an id that was never issued", func() {
			_, err := client.ValidateAnswer(ctx, "nope", 1, 1)

			Convey("Then the session is expired", func() {
				So(errors.Is(err, puzzle.ErrSessionExpired), ShouldBeTrue)
			})
		})
	})

	Convey("Given a client whose API is too slow", t, func() {
		ctx := context.Background()
		srv := heartAPI(`{"question":"img","solution":1,"carrots":1}`, http.StatusOK, 500*time.Millisecond)
		defer srv.Close()

		secrets := kv.NewSecretStore()
		live := puzzle.NewHTTPProvider(srv.URL)

		Convey("When no fallback is configured", func() {
			client := puzzle.NewClient(live, secrets, puzzle.WithTimeout(20*time.Millisecond))
			start := time.Now()
			_, err := client.RequestPuzzle(ctx, model.LevelEasy)

			Convey("Then the request fails within the timeout", func() {
				So(errors.Is(err, puzzle.ErrPuzzleUnavailable), ShouldBeTrue)
				So(time.Since(start), ShouldBeLessThan, 400*time.Millisecond)
				So(secrets.Len(), ShouldEqual, 0)
			})
		})

		Convey("When the offline bank is configured", func() {
			bank, err := puzzle.NewBankProvider([]puzzle.Payload{{Question: "bank-1", Solution: 2, Carrots: 3}})
			So(err, ShouldBeNil)
			client := puzzle.NewClient(live, secrets,
				puzzle.WithTimeout(20*time.Millisecond),
				puzzle.WithFallback(bank),
				puzzle.WithIDGenerator(func() string { return "fixed" }),
			)
			session, err := client.RequestPuzzle(ctx, model.LevelEasy)

			Convey("Then the bank puzzle is served and marked as fallback", func() {
				So(err, ShouldBeNil)
				So(session.SessionID, ShouldEqual, "fixed")
				So(session.ImageRef, ShouldEqual, "bank-1")
				So(session.Source, ShouldEqual, model.SourceFallback)

				v, err := client.ValidateAnswer(ctx, "fixed", 2, 3)
				So(err, ShouldBeNil)
				So(v.Correct, ShouldBeTrue)
			})
		})
	})
}

func TestBankProvider(t *testing.T) {
	Convey("Given a bank of two puzzles", t, func() {
		bank, err := puzzle.NewBankProvider([]puzzle.Payload{{Question: "a"}, {Question: "b"}})
		So(err, ShouldBeNil)

		Convey("Then puzzles are served round-robin", func() {
			var got []string
			for i := 0; i < 3; i++ {
				p, err := bank.Fetch(context.Background())
				So(err, ShouldBeNil)
				got = append(got, p.Question)
			}
			So(got, ShouldResemble, []string{"a", "b", "a"})
		})
	})

	Convey("Given an empty bank", t, func() {
		_, err := puzzle.NewBankProvider(nil)

		Convey("Then construction fails", func() {
			So(err, ShouldEqual, puzzle.ErrEmptyBank)
		})
	})
}
