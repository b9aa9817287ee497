package repository

import (
	"context"
	"fmt"
	userserrors "roombook/internal/users/errors"
	"roombook/pkg/model"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryUserRepository struct {
	mu      sync.RWMutex
	byEmail map[string]*model.User
}

func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{byEmail: make(map[string]*model.User)}
}

func (r *memoryUserRepository) Insert(ctx context.Context, user *model.User) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", userserrors.ErrStoreUnavailable, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[user.Email]; taken {
		return userserrors.ErrDuplicateEmail
	}

	now := time.Now().UTC()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now

	stored := *user
	r.byEmail[user.Email] = &stored
	return nil
}

func (r *memoryUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byEmail[email]
	if !ok {
		return nil, userserrors.ErrNotFound
	}
	found := *user
	return &found, nil
}

func (r *memoryUserRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.byEmail {
		if user.ID == id {
			user.LastLogin = &at
			user.UpdatedAt = at
			return nil
		}
	}
	return userserrors.ErrNotFound
}
