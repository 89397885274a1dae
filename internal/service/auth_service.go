package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/infonest-auth/internal/auth"
	"github.com/spec-kit/infonest-auth/internal/domain"
	"github.com/spec-kit/infonest-auth/internal/events"
	"github.com/spec-kit/infonest-auth/internal/repository"
)

// RegisteredMessage is returned on successful registration.
const RegisteredMessage = "User registered successfully!"

var (
	ErrDuplicateIdentity = errors.New("email already registered")
	// ErrInvalidCredentials covers both unknown email and wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidRole        = errors.New("invalid role")
	ErrStoreUnavailable   = errors.New("credential store unavailable")
	ErrTooManyAttempts    = errors.New("too many failed login attempts")
)

// LockoutError reports a throttled login and when it may be retried.
type LockoutError struct {
	RetryAfter time.Duration
}

func (e *LockoutError) Error() string {
	return fmt.Sprintf("%s; retry after %s", ErrTooManyAttempts, e.RetryAfter)
}

func (e *LockoutError) Is(target error) bool {
	return target == ErrTooManyAttempts
}

// Signup is a registration request.
type Signup struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      string
	ClubID    *string
}

// Credentials is a login request.
type Credentials struct {
	Email      string
	Password   string
	RemoteAddr string
}

// LoginResult is returned on successful login.
type LoginResult struct {
	Token     domain.Token
	Role      domain.Role
	FirstName string
	ClubID    *string
}

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	hasher     auth.PasswordHasher
	tokens     *auth.TokenManager
	limiter    LoginLimiter
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time

	dummyMu   sync.Mutex
	dummyHash string
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Hasher     auth.PasswordHasher
	Tokens     *auth.TokenManager
	Limiter    LoginLimiter
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Clock      func() time.Time
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	s := &AuthService{
		users:      deps.UserRepo,
		hasher:     deps.Hasher,
		tokens:     deps.Tokens,
		limiter:    deps.Limiter,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		now:        deps.Clock,
	}
	if s.limiter == nil {
		s.limiter = NoopLoginLimiter{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Register creates a new account. The role is uppercased before it is stored.
func (s *AuthService) Register(ctx context.Context, req Signup) (string, error) {
	email := normalizeEmail(req.Email)

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		s.publish(ctx, events.Event{Type: events.EventRegistrationFailed, Subject: email, Reason: events.ReasonDuplicateIdentity})
		return "", ErrDuplicateIdentity
	} else if !errors.Is(err, repository.ErrNotFound) {
		return "", s.storeFailure(ctx, events.EventRegistrationFailed, email, "", err)
	}

	role := domain.NormalizeRole(req.Role)
	if !role.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, req.Role)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		ClubID:       normalizeClubID(req.ClubID),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			s.publish(ctx, events.Event{Type: events.EventRegistrationFailed, Subject: email, Reason: events.ReasonDuplicateIdentity})
			return "", ErrDuplicateIdentity
		}
		return "", s.storeFailure(ctx, events.EventRegistrationFailed, email, "", err)
	}

	s.publish(ctx, events.Event{Type: events.EventUserRegistered, Subject: email, Role: role})
	return RegisteredMessage, nil
}

// Login verifies credentials and issues a signed token.
func (s *AuthService) Login(ctx context.Context, req Credentials) (*LoginResult, error) {
	email := normalizeEmail(req.Email)
	key := limiterKey(email, req.RemoteAddr)

	retryAfter, err := s.limiter.Locked(ctx, key)
	if err != nil {
		s.logger.Warn("login limiter unavailable; allowing attempt", zap.Error(err))
	} else if retryAfter > 0 {
		s.publish(ctx, events.Event{Type: events.EventLoginFailed, Subject: email, RemoteAddr: req.RemoteAddr, Reason: events.ReasonTooManyAttempts})
		return nil, &LockoutError{RetryAfter: retryAfter}
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, s.storeFailure(ctx, events.EventLoginFailed, email, req.RemoteAddr, err)
		}
		// keep response time independent of whether the account exists
		s.hasher.Verify(req.Password, s.dummy())
		return nil, s.loginFailed(ctx, key, email, req.RemoteAddr)
	}

	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		return nil, s.loginFailed(ctx, key, email, req.RemoteAddr)
	}

	if err := s.limiter.Reset(ctx, key); err != nil {
		s.logger.Warn("reset login limiter", zap.Error(err))
	}

	token, err := s.tokens.Issue(user.Email, user.Role, s.now())
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.publish(ctx, events.Event{Type: events.EventLoginSucceeded, Subject: user.Email, Role: user.Role, RemoteAddr: req.RemoteAddr})
	return &LoginResult{
		Token:     token,
		Role:      user.Role,
		FirstName: user.FirstName,
		ClubID:    user.ClubID,
	}, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}

func (s *AuthService) loginFailed(ctx context.Context, key, email, remoteAddr string) error {
	if err := s.limiter.RecordFailure(ctx, key); err != nil {
		s.logger.Warn("record failed login", zap.Error(err))
	}
	s.publish(ctx, events.Event{Type: events.EventLoginFailed, Subject: email, RemoteAddr: remoteAddr, Reason: events.ReasonInvalidCredentials})
	return ErrInvalidCredentials
}

func (s *AuthService) storeFailure(ctx context.Context, eventType events.EventType, email, remoteAddr string, err error) error {
	s.logger.Error("credential store call failed", zap.String("event", string(eventType)), zap.Error(err))
	s.publish(ctx, events.Event{Type: eventType, Subject: email, RemoteAddr: remoteAddr, Reason: events.ReasonStoreUnavailable})
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = s.now().UTC()
	s.dispatcher.Publish(ctx, event)
}

// dummy returns a valid hash that no submitted password is expected to match.
// A failed build is retried on the next call.
func (s *AuthService) dummy() string {
	s.dummyMu.Lock()
	defer s.dummyMu.Unlock()
	if s.dummyHash != "" {
		return s.dummyHash
	}
	hash, err := s.hasher.Hash(uuid.NewString())
	if err != nil {
		s.logger.Warn("build dummy password hash", zap.Error(err))
		return ""
	}
	s.dummyHash = hash
	return hash
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func normalizeClubID(clubID *string) *string {
	if clubID == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*clubID)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
