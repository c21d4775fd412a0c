package playbot

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/okian/heartrobot/internal/domain/model"
	"github.com/okian/heartrobot/internal/domain/session"
)

type authResponse struct {
	User  model.User `json:"user"`
	Token string     `json:"token"`
}

type scoreboardResponse struct {
	Filter string                   `json:"filter"`
	Rows   []model.AggregatedScoreRow `json:"rows"`
}

// checkHealth calls the health endpoint.
func (c *HTTPClient) checkHealth(ctx context.Context) error {
	return c.call(ctx, http.MethodGet, "/healthz", nil, nil)
}

// register creates an account and keeps its token for later calls.
func (c *HTTPClient) register(ctx context.Context, name, email, password string) (model.User, error) {
	var out authResponse
	body := map[string]string{"name": name, "email": email, "password": password}
	if err := c.call(ctx, http.MethodPost, "/auth/register", body, &out); err != nil {
		return model.User{}, err
	}
	c.token = out.Token
	return out.User, nil
}

func (c *HTTPClient) startMission(ctx context.Context, level string) (session.Snapshot, error) {
	var snap session.Snapshot
	err := c.call(ctx, http.MethodPost, "/missions", map[string]string{"level": level}, &snap)
	return snap, err
}

func (c *HTTPClient) mission(ctx context.Context, id string) (session.Snapshot, error) {
	var snap session.Snapshot
	err := c.call(ctx, http.MethodGet, "/missions/"+url.PathEscape(id), nil, &snap)
	return snap, err
}

func (c *HTTPClient) guess(ctx context.Context, id string, hearts, carrots int) (session.GuessOutcome, error) {
	var out session.GuessOutcome
	body := map[string]int{"hearts": hearts, "carrots": carrots}
	err := c.call(ctx, http.MethodPost, "/missions/"+url.PathEscape(id)+"/guesses", body, &out)
	return out, err
}

func (c *HTTPClient) retry(ctx context.Context, id string) (session.Snapshot, error) {
	var snap session.Snapshot
	err := c.call(ctx, http.MethodPost, "/missions/"+url.PathEscape(id)+"/retry", nil, &snap)
	return snap, err
}

func (c *HTTPClient) abandon(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, "/missions/"+url.PathEscape(id), nil, nil)
}

func (c *HTTPClient) scoreboard(ctx context.Context, filter string) ([]model.AggregatedScoreRow, error) {
	var out scoreboardResponse
	if err := c.call(ctx, http.MethodGet, "/scoreboard?filter="+url.QueryEscape(filter), nil, &out); err != nil {
		return nil, fmt.Errorf("scoreboard %s: %w", filter, err)
	}
	return out.Rows, nil
}
