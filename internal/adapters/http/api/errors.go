package api

import (
	"errors"
	"net/http"

	"github.com/okian/heartrobot/internal/adapters/identity"
	"github.com/okian/heartrobot/internal/adapters/puzzle"
	service "github.com/okian/heartrobot/internal/app"
	"github.com/okian/heartrobot/internal/domain/scoring"
	"github.com/okian/heartrobot/internal/domain/session"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
)

// Player-facing messages for mapped errors.
const (
	messageSignIn   = "Please log in to view your scores"
	messageInternal = "Something went wrong. Please try again."
)

type failure struct {
	status  int
	code    string
	message string
}

// classify maps a domain error to its HTTP status, code and message.
func classify(err error) failure {
	switch {
	case errors.Is(err, ErrBadRequest):
		return failure{http.StatusBadRequest, "bad_request", err.Error()}
	case errors.Is(err, identity.ErrInvalidInput):
		return failure{http.StatusBadRequest, "invalid_input", err.Error()}
	case errors.Is(err, identity.ErrEmailTaken):
		return failure{http.StatusConflict, "email_taken", err.Error()}
	case errors.Is(err, identity.ErrInvalidCredentials):
		return failure{http.StatusUnauthorized, "invalid_credentials", err.Error()}
	case errors.Is(err, identity.ErrUnauthenticated):
		return failure{http.StatusUnauthorized, "unauthenticated", "Please log in"}
	case errors.Is(err, service.ErrSignInRequired):
		return failure{http.StatusUnauthorized, "sign_in_required", messageSignIn}
	case errors.Is(err, service.ErrMissionNotFound):
		return failure{http.StatusNotFound, "mission_not_found", "Mission not found"}
	case errors.Is(err, service.ErrNotYourMission):
		return failure{http.StatusForbidden, "forbidden", "This mission belongs to another player"}
	case errors.Is(err, service.ErrUnknownFilter):
		return failure{http.StatusBadRequest, "bad_filter", err.Error()}
	case errors.Is(err, service.ErrNotStarted):
		return failure{http.StatusServiceUnavailable, "unavailable", "Service is starting"}
	case errors.Is(err, session.ErrInvalidInput):
		return failure{http.StatusBadRequest, "invalid_guess", scoring.MessageInvalidInput}
	case errors.Is(err, puzzle.ErrSessionExpired):
		return failure{http.StatusConflict, "session_expired", session.MessageValidationFailed}
	case errors.Is(err, puzzle.ErrPuzzleUnavailable):
		return failure{http.StatusBadGateway, "puzzle_unavailable", session.MessagePuzzleFailed}
	case errors.Is(err, session.ErrFinished):
		return failure{http.StatusConflict, "mission_finished", "Mission is over"}
	case errors.Is(err, session.ErrNotActive),
		errors.Is(err, session.ErrNotLoading),
		errors.Is(err, session.ErrBusy),
		errors.Is(err, session.ErrAlreadyStarted):
		return failure{http.StatusConflict, "conflict", err.Error()}
	default:
		return failure{http.StatusInternalServerError, "internal_error", messageInternal}
	}
}

func writeError(w http.ResponseWriter, err error) failure {
	f := classify(err)
	writeFailure(w, f.status, f.code, f.message)
	return f
}
