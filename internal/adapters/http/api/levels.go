package api

import (
	"net/http"

	"github.com/okian/heartrobot/internal/domain/difficulty"
	"github.com/okian/heartrobot/pkg/logger"
)

// LevelsHandler lists difficulty levels and stores the player's choice.
type LevelsHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewLevelsHandler creates a levels handler.
func NewLevelsHandler(deps Dependencies, l logger.Logger) *LevelsHandler {
	return &LevelsHandler{deps: deps, logger: l}
}

type levelRequest struct {
	Level string `json:"level"`
}

// HandleList handles GET /levels.
func (h *LevelsHandler) HandleList(w http.ResponseWriter, _ *http.Request) {
	writeData(w, http.StatusOK, difficulty.Profiles())
}

// HandleGetPreference handles GET /preferences/level.
func (h *LevelsHandler) HandleGetPreference(w http.ResponseWriter, r *http.Request) {
	p, err := resolvePlayer(r.Context(), h.deps.Identity(), r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, h.deps.Level(r.Context(), p))
}

// HandlePutPreference handles PUT /preferences/level. Unknown names store Easy.
func (h *LevelsHandler) HandlePutPreference(w http.ResponseWriter, r *http.Request) {
	p, err := resolvePlayer(r.Context(), h.deps.Identity(), r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req levelRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	profile := h.deps.SetLevel(r.Context(), p, req.Level)
	if !difficulty.IsKnown(req.Level) {
		h.logger.Debug(r.Context(), "unknown level stored as default", logger.String("requested", req.Level))
	}
	writeData(w, http.StatusOK, profile)
}
