package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/okian/heartrobot/internal/domain/session"
	"github.com/okian/heartrobot/pkg/logger"
)

// MissionsHandler handles mission lifecycle requests.
type MissionsHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewMissionsHandler creates a missions handler.
func NewMissionsHandler(deps Dependencies, l logger.Logger) *MissionsHandler {
	return &MissionsHandler{deps: deps, logger: l}
}

type startRequest struct {
	Level string `json:"level"`
}

// count accepts a guess typed as a JSON string or number. The raw text is
// validated by the mission, not here.
type count string

func (c *count) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*c = count(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.New("hearts and carrots must be strings or numbers")
	}
	*c = count(n.String())
	return nil
}

type guessRequest struct {
	Hearts  count `json:"hearts"`
	Carrots count `json:"carrots"`
}

type guessFailure struct {
	Success bool             `json:"success"`
	Error   errorResponse    `json:"error"`
	Data    session.Snapshot `json:"data"`
}

// HandleStart handles POST /missions.
func (h *MissionsHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	p, err := resolvePlayer(r.Context(), h.deps.Identity(), r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req startRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	snap, err := h.deps.StartMission(r.Context(), p, req.Level)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Location", "/missions/"+snap.MissionID)
	writeData(w, http.StatusCreated, snap)
}

// HandleGet handles GET /missions/{id}.
func (h *MissionsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	p, err := resolvePlayer(r.Context(), h.deps.Identity(), r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	snap, err := h.deps.Mission(r.Context(), p, r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, snap)
}

// HandleGuess handles POST /missions/{id}/guesses. A rejected guess still
// carries the mission snapshot so the client can show its message.
func (h *MissionsHandler) HandleGuess(w http.ResponseWriter, r *http.Request) {
	p, err := resolvePlayer(r.Context(), h.deps.Identity(), r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req guessRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := h.deps.Guess(r.Context(), p, r.PathValue("id"), string(req.Hearts), string(req.Carrots))
	if err != nil {
		if out.Snapshot.MissionID == "" {
			h.fail(w, r, err)
			return
		}
		f := classify(err)
		writeJSON(w, f.status, guessFailure{
			Error: errorResponse{Code: f.code, Message: f.message},
			Data:  out.Snapshot,
		})
		return
	}
	writeData(w, http.StatusOK, out)
}

// HandleRetry handles POST /missions/{id}/retry.
func (h *MissionsHandler) HandleRetry(w http.ResponseWriter, r *http.Request) {
	p, err := resolvePlayer(r.Context(), h.deps.Identity(), r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	snap, err := h.deps.Retry(r.Context(), p, r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, snap)
}

// HandleAbandon handles DELETE /missions/{id}.
func (h *MissionsHandler) HandleAbandon(w http.ResponseWriter, r *http.Request) {
	p, err := resolvePlayer(r.Context(), h.deps.Identity(), r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	id := r.PathValue("id")
	if err := h.deps.Abandon(r.Context(), p, id); err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"mission_id": id, "state": string(session.StateFinished)})
}

func (h *MissionsHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if f := writeError(w, err); f.status >= http.StatusInternalServerError {
		h.logger.Error(r.Context(), "mission request failed",
			logger.String("path", r.URL.Path),
			logger.String("status", strconv.Itoa(f.status)),
			logger.Error(err),
		)
	}
}
