package identity

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/okian/heartrobot/internal/domain/model"
	"github.com/okian/heartrobot/pkg/logger"
	"github.com/okian/heartrobot/pkg/metrics"
)

const (
	defaultTTL     = 12 * time.Hour
	defaultIssuer  = "heartrobot"
	minPasswordLen = 6
	rolePlayer     = "player"
)

type account struct {
	user model.User
	hash []byte
}

type claims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// MemoryProvider keeps accounts in memory and issues HS256 tokens.
type MemoryProvider struct {
	secret []byte
	ttl    time.Duration
	cost   int
	issuer string
	now    func() time.Time
	logger logger.Logger

	mu        sync.RWMutex
	byEmail   map[string]*account
	byID      map[string]*account
	revoked   map[string]time.Time // jti -> token expiry
	listeners map[int]func(Change)
	nextID    int
}

// NewMemoryProvider creates a provider signing tokens with secret.
func NewMemoryProvider(secret []byte, opts ...Option) (*MemoryProvider, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("%w: empty signing secret", ErrInvalidInput)
	}
	p := &MemoryProvider{
		secret:    append([]byte(nil), secret...),
		ttl:       defaultTTL,
		cost:      bcrypt.DefaultCost,
		issuer:    defaultIssuer,
		now:       time.Now,
		logger:    logger.NewNop(),
		byEmail:   make(map[string]*account),
		byID:      make(map[string]*account),
		revoked:   make(map[string]time.Time),
		listeners: make(map[int]func(Change)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// DisplayName picks the name shown for a player.
func DisplayName(name, email string) string {
	if n := strings.TrimSpace(name); n != "" {
		return n
	}
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return DefaultName
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account and signs it in.
func (p *MemoryProvider) Register(ctx context.Context, name, email, password string) (model.User, Token, error) {
	email = normalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return model.User{}, "", fmt.Errorf("%w: email", ErrInvalidInput)
	}
	if len(password) < minPasswordLen {
		return model.User{}, "", fmt.Errorf("%w: password must have at least %d characters", ErrInvalidInput, minPasswordLen)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return model.User{}, "", fmt.Errorf("hash password: %w", err)
	}

	acc := &account{
		user: model.User{
			ID:    uuid.NewString(),
			Name:  DisplayName(name, email),
			Email: email,
			Role:  rolePlayer,
		},
		hash: hash,
	}

	p.mu.Lock()
	if _, taken := p.byEmail[email]; taken {
		p.mu.Unlock()
		metrics.RecordAuthEvent("register_rejected")
		return model.User{}, "", ErrEmailTaken
	}
	p.byEmail[email] = acc
	p.byID[acc.user.ID] = acc
	p.mu.Unlock()

	metrics.RecordAuthEvent("register")
	p.logger.Info(ctx, "player registered", logger.String("user_id", acc.user.ID))
	return p.signIn(acc.user)
}

// Login verifies credentials and issues a token.
func (p *MemoryProvider) Login(ctx context.Context, email, password string) (model.User, Token, error) {
	p.mu.RLock()
	acc, ok := p.byEmail[normalizeEmail(email)]
	p.mu.RUnlock()
	if !ok || bcrypt.CompareHashAndPassword(acc.hash, []byte(password)) != nil {
		metrics.RecordAuthEvent("login_rejected")
		return model.User{}, "", ErrInvalidCredentials
	}
	p.logger.Debug(ctx, "player signed in", logger.String("user_id", acc.user.ID))
	return p.signIn(acc.user)
}

func (p *MemoryProvider) signIn(u model.User) (model.User, Token, error) {
	now := p.now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   u.ID,
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		},
	})
	signed, err := tok.SignedString(p.secret)
	if err != nil {
		return model.User{}, "", fmt.Errorf("sign token: %w", err)
	}
	metrics.RecordAuthEvent(string(SignedIn))
	p.notify(Change{Kind: SignedIn, User: u})
	return u, Token(signed), nil
}

func (p *MemoryProvider) parse(token Token) (*claims, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	c := &claims{}
	_, err := jwt.ParseWithClaims(string(token), c, func(*jwt.Token) (interface{}, error) {
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(p.issuer),
		jwt.WithTimeFunc(p.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	return c, nil
}

// CurrentUser resolves a token to its account.
func (p *MemoryProvider) CurrentUser(_ context.Context, token Token) (model.User, error) {
	c, err := p.parse(token)
	if err != nil {
		return model.User{}, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if _, gone := p.revoked[c.ID]; gone {
		return model.User{}, ErrUnauthenticated
	}
	acc, ok := p.byID[c.Subject]
	if !ok {
		return model.User{}, ErrUnauthenticated
	}
	return acc.user, nil
}

// Logout revokes token. Revoking an already revoked token fails.
func (p *MemoryProvider) Logout(ctx context.Context, token Token) error {
	c, err := p.parse(token)
	if err != nil {
		return err
	}

	p.mu.Lock()
	if _, gone := p.revoked[c.ID]; gone {
		p.mu.Unlock()
		return ErrUnauthenticated
	}
	p.pruneLocked()
	p.revoked[c.ID] = c.ExpiresAt.Time
	acc, ok := p.byID[c.Subject]
	p.mu.Unlock()
	if !ok {
		return ErrUnauthenticated
	}

	metrics.RecordAuthEvent(string(SignedOut))
	p.logger.Debug(ctx, "player signed out", logger.String("user_id", acc.user.ID))
	p.notify(Change{Kind: SignedOut, User: acc.user})
	return nil
}

// pruneLocked drops revocations of tokens that have expired anyway.
func (p *MemoryProvider) pruneLocked() {
	now := p.now()
	for id, exp := range p.revoked {
		if now.After(exp) {
			delete(p.revoked, id)
		}
	}
}

// OnChange registers fn for sign-in and sign-out events.
func (p *MemoryProvider) OnChange(fn func(Change)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.listeners, id)
			p.mu.Unlock()
		})
	}
}

func (p *MemoryProvider) notify(c Change) {
	p.mu.RLock()
	fns := make([]func(Change), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.RUnlock()
	for _, fn := range fns {
		fn(c)
	}
}

// IsAuthError reports whether err means the caller is not signed in.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrUnauthenticated) || errors.Is(err, ErrInvalidCredentials)
}
