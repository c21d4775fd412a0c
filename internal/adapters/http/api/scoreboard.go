package api

import (
	"net/http"

	"github.com/okian/heartrobot/pkg/logger"
)

// ScoreboardHandler handles scoreboard requests.
type ScoreboardHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewScoreboardHandler creates a scoreboard handler.
func NewScoreboardHandler(deps Dependencies, l logger.Logger) *ScoreboardHandler {
	return &ScoreboardHandler{deps: deps, logger: l}
}

// HandleGet handles GET /scoreboard?filter=all|mine requests.
func (h *ScoreboardHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_scoreboard"
	p, err := resolvePlayer(r.Context(), h.deps.Identity(), r)
	if err != nil {
		writeError(w, err)
		return
	}
	filter := r.URL.Query().Get("filter")
	rows, err := h.deps.Scoreboard(r.Context(), p, filter)
	if err != nil {
		if f := writeError(w, err); f.status >= http.StatusInternalServerError {
			h.logger.Error(r.Context(), "scoreboard failed", logger.String("op", op), logger.Error(err))
		}
		return
	}
	writeData(w, http.StatusOK, map[string]any{
		"filter": filterOrAll(filter),
		"rows":   rows,
	})
}

func filterOrAll(f string) string {
	if f == "" {
		return "all"
	}
	return f
}
