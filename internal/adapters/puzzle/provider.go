package puzzle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/okian/heartrobot/internal/domain/model"
)

const maxPayloadBytes = 1 << 20

// Payload is one puzzle as delivered by a provider.
type Payload struct {
	Question string
	Solution int
	Carrots  int
}

// Provider produces puzzles.
type Provider interface {
	Fetch(ctx context.Context) (Payload, error)
	Source() model.PuzzleSource
}

// HTTPProvider fetches puzzles from the remote heart API with a GET request
// that answers {"question": <image>, "solution": <hearts>, "carrots": <carrots>}.
type HTTPProvider struct {
	url    string
	client *http.Client
}

// NewHTTPProvider creates a provider for url.
func NewHTTPProvider(url string, opts ...HTTPOption) *HTTPProvider {
	p := &HTTPProvider{url: url, client: http.DefaultClient}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type wirePayload struct {
	Question string `json:"question"`
	Solution *int   `json:"solution"`
	Carrots  *int   `json:"carrots"`
}

// Fetch performs one request. Deadlines come from ctx.
func (p *HTTPProvider) Fetch(ctx context.Context) (Payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return Payload{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return Payload{}, fmt.Errorf("request puzzle: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Payload{}, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var wire wirePayload
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxPayloadBytes)).Decode(&wire); err != nil {
		return Payload{}, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	if strings.TrimSpace(wire.Question) == "" || wire.Solution == nil || wire.Carrots == nil {
		return Payload{}, ErrMalformedPayload
	}
	return Payload{Question: wire.Question, Solution: *wire.Solution, Carrots: *wire.Carrots}, nil
}

// Source reports live.
func (p *HTTPProvider) Source() model.PuzzleSource { return model.SourceLive }

// BankProvider serves a fixed set of puzzles round-robin. It is the offline
// source used when the remote API cannot be reached.
type BankProvider struct {
	mu      sync.Mutex
	puzzles []Payload
	next    int
}

// NewBankProvider creates a provider over puzzles.
func NewBankProvider(puzzles []Payload) (*BankProvider, error) {
	if len(puzzles) == 0 {
		return nil, ErrEmptyBank
	}
	return &BankProvider{puzzles: append([]Payload(nil), puzzles...)}, nil
}

// Fetch returns the next puzzle of the bank.
func (b *BankProvider) Fetch(ctx context.Context) (Payload, error) {
	if err := ctx.Err(); err != nil {
		return Payload{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	p := b.puzzles[b.next]
	b.next = (b.next + 1) % len(b.puzzles)
	return p, nil
}

// Source reports fallback.
func (b *BankProvider) Source() model.PuzzleSource { return model.SourceFallback }
