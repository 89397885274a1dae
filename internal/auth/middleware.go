package auth

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/infonest-auth/internal/domain"
)

const bearerPrefix = "Bearer "

// GateOutcome names how the gate treated a request.
type GateOutcome string

const (
	GateOutcomeExempt        GateOutcome = "exempt"
	GateOutcomeAnonymous     GateOutcome = "anonymous"
	GateOutcomeAuthenticated GateOutcome = "authenticated"
	// GateOutcomeRejected means a token was presented but failed verification.
	// The request continues anonymously.
	GateOutcomeRejected GateOutcome = "rejected"
)

// TokenVerifier is the part of TokenManager the gate depends on.
type TokenVerifier interface {
	ParseAndVerify(tokenStr string, now time.Time) (domain.Identity, error)
}

// OutcomeObserver receives the outcome of every gate pass.
type OutcomeObserver interface {
	ObserveGate(outcome GateOutcome)
}

// Gate establishes the request identity from a bearer token. It never
// rejects a request; access control happens downstream.
type Gate struct {
	tokens   TokenVerifier
	exempt   ExemptMatcher
	logger   *zap.Logger
	observer OutcomeObserver
	now      func() time.Time
}

// GateOption customizes a Gate.
type GateOption func(*Gate)

// WithOutcomeObserver reports outcomes to o.
func WithOutcomeObserver(o OutcomeObserver) GateOption {
	return func(g *Gate) { g.observer = o }
}

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) GateOption {
	return func(g *Gate) { g.now = now }
}

// NewGate constructs the authentication gate.
func NewGate(tokens TokenVerifier, exempt ExemptMatcher, logger *zap.Logger, opts ...GateOption) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Gate{tokens: tokens, exempt: exempt, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Handle is the fiber middleware entry point.
func (g *Gate) Handle(c *fiber.Ctx) error {
	ctx, outcome := g.Authenticate(c)
	c.SetUserContext(ctx)
	if g.observer != nil {
		g.observer.ObserveGate(outcome)
	}
	return c.Next()
}

// Authenticate computes the request context the downstream handlers see.
func (g *Gate) Authenticate(c *fiber.Ctx) (context.Context, GateOutcome) {
	ctx := c.UserContext()
	if g.exempt.Matches(c.Path()) {
		return ctx, GateOutcomeExempt
	}

	header := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(header, bearerPrefix) {
		return ctx, GateOutcomeAnonymous
	}
	raw := strings.TrimSpace(header[len(bearerPrefix):])
	if raw == "" {
		return ctx, GateOutcomeAnonymous
	}

	identity, err := g.tokens.ParseAndVerify(raw, g.now())
	if err != nil {
		g.logger.Debug("bearer token rejected",
			zap.String("path", c.Path()),
			zap.String("reason", err.Error()),
		)
		return ctx, GateOutcomeRejected
	}

	if _, ok := IdentityFromContext(ctx); ok {
		return ctx, GateOutcomeAuthenticated
	}
	return WithIdentity(ctx, identity), GateOutcomeAuthenticated
}
