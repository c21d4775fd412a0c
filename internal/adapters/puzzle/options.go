package puzzle

import (
	"net/http"
	"time"

	"github.com/okian/heartrobot/pkg/logger"
)

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds every provider call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithFallback sets an alternate provider used when the live one fails.
func WithFallback(p Provider) Option {
	return func(c *Client) {
		c.fallback = p
	}
}

// WithLogger sets the client logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithIDGenerator replaces the session id generator.
func WithIDGenerator(gen func() string) Option {
	return func(c *Client) {
		if gen != nil {
			c.newID = gen
		}
	}
}

// HTTPOption configures an HTTPProvider.
type HTTPOption func(*HTTPProvider)

// WithHTTPClient sets the HTTP client used for provider calls.
func WithHTTPClient(hc *http.Client) HTTPOption {
	return func(p *HTTPProvider) {
		if hc != nil {
			p.client = hc
		}
	}
}
