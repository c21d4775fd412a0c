package identity

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/okian/heartrobot/pkg/logger"
)

// Option configures a MemoryProvider.
type Option func(*MemoryProvider)

// WithTokenTTL sets the bearer token lifetime.
func WithTokenTTL(ttl time.Duration) Option {
	return func(p *MemoryProvider) {
		if ttl > 0 {
			p.ttl = ttl
		}
	}
}

// WithBcryptCost sets the password hashing cost. Out-of-range values keep the default.
func WithBcryptCost(cost int) Option {
	return func(p *MemoryProvider) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			p.cost = cost
		}
	}
}

// WithIssuer sets the iss claim.
func WithIssuer(issuer string) Option {
	return func(p *MemoryProvider) {
		if issuer != "" {
			p.issuer = issuer
		}
	}
}

// WithNow overrides the time source.
func WithNow(now func() time.Time) Option {
	return func(p *MemoryProvider) {
		if now != nil {
			p.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(p *MemoryProvider) {
		if l != nil {
			p.logger = l
		}
	}
}
