package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/infonest-auth/internal/domain"
)

type memoryUserRepository struct {
	mu      sync.RWMutex
	byEmail map[string]domain.User
	now     func() time.Time
}

// NewMemoryUserRepository returns a process-local store, used when no database is configured.
func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{byEmail: make(map[string]domain.User), now: time.Now}
}

func (r *memoryUserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[user.Email]; exists {
		return ErrDuplicate
	}
	now := r.now().UTC()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now

	stored := *user
	if user.ClubID != nil {
		club := *user.ClubID
		stored.ClubID = &club
	}
	r.byEmail[user.Email] = stored
	return nil
}

func (r *memoryUserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (r *memoryUserRepository) Ping(context.Context) error {
	return nil
}
