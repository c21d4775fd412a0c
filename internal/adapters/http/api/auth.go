package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/heartrobot/internal/adapters/identity"
	"github.com/okian/heartrobot/internal/domain/model"
	"github.com/okian/heartrobot/internal/domain/session"
	"github.com/okian/heartrobot/pkg/logger"
)

// bearerToken reads the token from the Authorization header, or from the
// token query parameter for WebSocket clients that cannot set headers.
func bearerToken(r *http.Request) identity.Token {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return identity.Token(strings.TrimSpace(strings.TrimPrefix(h, "Bearer ")))
	}
	return identity.Token(r.URL.Query().Get("token"))
}

// resolvePlayer returns the signed-in player, or the anonymous player when
// no token is presented. A presented token that does not verify is an error.
func resolvePlayer(ctx context.Context, idp identity.Provider, r *http.Request) (session.Player, error) {
	tok := bearerToken(r)
	if tok == "" {
		return session.Player{}, nil
	}
	u, err := idp.CurrentUser(ctx, tok)
	if err != nil {
		return session.Player{}, err
	}
	return session.Player{ID: u.ID, Name: u.Name}, nil
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	User  model.User `json:"user"`
	Token string     `json:"token"`
}

// AuthHandler handles registration and sign-in.
type AuthHandler struct {
	idp    identity.Provider
	logger logger.Logger
}

// NewAuthHandler creates an auth handler.
func NewAuthHandler(idp identity.Provider, l logger.Logger) *AuthHandler {
	return &AuthHandler{idp: idp, logger: l}
}

// HandleRegister handles POST /auth/register.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	u, tok, err := h.idp.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, authResponse{User: u, Token: string(tok)})
}

// HandleLogin handles POST /auth/login.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	u, tok, err := h.idp.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, authResponse{User: u, Token: string(tok)})
}

// HandleLogout handles POST /auth/logout.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	tok := bearerToken(r)
	if tok == "" {
		writeError(w, identity.ErrUnauthenticated)
		return
	}
	if err := h.idp.Logout(r.Context(), tok); err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]bool{"signed_out": true})
}

// HandleMe handles GET /auth/me.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	tok := bearerToken(r)
	if tok == "" {
		writeError(w, identity.ErrUnauthenticated)
		return
	}
	u, err := h.idp.CurrentUser(r.Context(), tok)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, u)
}

func (h *AuthHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if f := writeError(w, err); f.status >= http.StatusInternalServerError {
		h.logger.Error(r.Context(), "auth request failed", logger.String("path", r.URL.Path), logger.Error(err))
	}
}
