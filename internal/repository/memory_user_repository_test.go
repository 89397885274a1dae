package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/infonest-auth/internal/domain"
)

func TestMemoryUserRepository_CreateAndGet(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()
	club := "robotics"

	user := &domain.User{Email: "f@x.com", FirstName: "Fay", Role: domain.RoleFaculty, PasswordHash: "h", ClubID: &club}
	require.NoError(t, repo.Create(ctx, user))
	assert.NotEmpty(t, user.ID)
	assert.False(t, user.CreatedAt.IsZero())

	got, err := repo.GetByEmail(ctx, "f@x.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	require.NotNil(t, got.ClubID)
	assert.Equal(t, "robotics", *got.ClubID)

	club = "chess"
	got, err = repo.GetByEmail(ctx, "f@x.com")
	require.NoError(t, err)
	assert.Equal(t, "robotics", *got.ClubID, "stored record must not alias caller memory")
}

func TestMemoryUserRepository_NotFound(t *testing.T) {
	_, err := NewMemoryUserRepository().GetByEmail(context.Background(), "nobody@x.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryUserRepository_ConcurrentDuplicate(t *testing.T) {
	repo := NewMemoryUserRepository()
	var created, duplicates atomic.Int32

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.Create(context.Background(), &domain.User{Email: "dup@x.com", Role: domain.RoleStudent})
			switch {
			case err == nil:
				created.Add(1)
			case assert.ErrorIs(t, err, ErrDuplicate):
				duplicates.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), created.Load())
	assert.Equal(t, int32(15), duplicates.Load())
}
