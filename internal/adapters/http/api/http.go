// Package api exposes the mission service over HTTP/JSON and WebSocket.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/cors"

	"github.com/okian/heartrobot/internal/adapters/identity"
	"github.com/okian/heartrobot/internal/domain/model"
	"github.com/okian/heartrobot/internal/domain/session"
	"github.com/okian/heartrobot/pkg/logger"
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	StartMission(ctx context.Context, p session.Player, level string) (session.Snapshot, error)
	Mission(ctx context.Context, p session.Player, id string) (session.Snapshot, error)
	Guess(ctx context.Context, p session.Player, id, hearts, carrots string) (session.GuessOutcome, error)
	Retry(ctx context.Context, p session.Player, id string) (session.Snapshot, error)
	Abandon(ctx context.Context, p session.Player, id string) error
	Subscribe(ctx context.Context, p session.Player, id string) (<-chan session.Snapshot, func(), error)

	Scoreboard(ctx context.Context, p session.Player, filter string) ([]model.AggregatedScoreRow, error)
	SetLevel(ctx context.Context, p session.Player, level string) model.DifficultyProfile
	Level(ctx context.Context, p session.Player) model.DifficultyProfile

	Identity() identity.Provider
	StatsProvider
}

// Server wires HTTP routes for the mission API.
type Server struct {
	deps        Dependencies
	origins     []string
	logger      logger.Logger
	healthH     *HealthHandler
	statsH      *StatsHandler
	authH       *AuthHandler
	missionsH   *MissionsHandler
	scoreboardH *ScoreboardHandler
	levelsH     *LevelsHandler
	streamH     *StreamHandler
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCORSOrigins sets the browser origins allowed to call the API.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.origins = origins
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		deps:    deps,
		origins: []string{"*"},
		logger:  logger.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.healthH = NewHealthHandler()
	s.statsH = NewStatsHandler(deps)
	s.authH = NewAuthHandler(deps.Identity(), s.logger)
	s.missionsH = NewMissionsHandler(deps, s.logger)
	s.scoreboardH = NewScoreboardHandler(deps, s.logger)
	s.levelsH = NewLevelsHandler(deps, s.logger)
	s.streamH = NewStreamHandler(deps, s.logger)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthH.HandleHealth, "healthz"))
	mux.Handle("GET /metrics", s.healthH.MetricsHandler())
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsH.HandleStats, "stats"))

	mux.HandleFunc("POST /auth/register", MetricsMiddleware(s.authH.HandleRegister, "auth_register"))
	mux.HandleFunc("POST /auth/login", MetricsMiddleware(s.authH.HandleLogin, "auth_login"))
	mux.HandleFunc("POST /auth/logout", MetricsMiddleware(s.authH.HandleLogout, "auth_logout"))
	mux.HandleFunc("GET /auth/me", MetricsMiddleware(s.authH.HandleMe, "auth_me"))

	mux.HandleFunc("GET /levels", MetricsMiddleware(s.levelsH.HandleList, "levels"))
	mux.HandleFunc("GET /preferences/level", MetricsMiddleware(s.levelsH.HandleGetPreference, "preferences"))
	mux.HandleFunc("PUT /preferences/level", MetricsMiddleware(s.levelsH.HandlePutPreference, "preferences"))

	mux.HandleFunc("POST /missions", MetricsMiddleware(s.missionsH.HandleStart, "missions_start"))
	mux.HandleFunc("GET /missions/{id}", MetricsMiddleware(s.missionsH.HandleGet, "missions_get"))
	mux.HandleFunc("POST /missions/{id}/guesses", MetricsMiddleware(s.missionsH.HandleGuess, "missions_guess"))
	mux.HandleFunc("POST /missions/{id}/retry", MetricsMiddleware(s.missionsH.HandleRetry, "missions_retry"))
	mux.HandleFunc("DELETE /missions/{id}", MetricsMiddleware(s.missionsH.HandleAbandon, "missions_abandon"))
	mux.HandleFunc("GET /missions/{id}/stream", s.streamH.HandleStream)

	mux.HandleFunc("GET /scoreboard", MetricsMiddleware(s.scoreboardH.HandleGet, "scoreboard"))
}

// Handler wraps mux with the CORS policy for browser clients.
func (s *Server) Handler(mux *http.ServeMux) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	})(mux)
}

type envelope struct {
	Success bool           `json:"success"`
	Data    any            `json:"data,omitempty"`
	Error   *errorResponse `json:"error,omitempty"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func writeFailure(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, envelope{Error: &errorResponse{Code: code, Message: message}})
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}

const maxBodyBytes = 64 << 10
