package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	autherrors "carpool/internal/auth/errors"
	"carpool/pkg/model"
)

type memoryUserRepository struct {
	mu      sync.RWMutex
	users   map[int64]*model.User
	byEmail map[string]int64
	nextID  int64
}

func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{
		users:   make(map[int64]*model.User),
		byEmail: make(map[string]int64),
	}
}

func (r *memoryUserRepository) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[user.Email]; exists {
		return fmt.Errorf("%w: %s", autherrors.ErrEmailTaken, user.Email)
	}

	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = time.Now().UTC()

	stored := *user
	r.users[user.ID] = &stored
	r.byEmail[user.Email] = user.ID
	return nil
}

func (r *memoryUserRepository) FindByID(_ context.Context, id int64) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", autherrors.ErrUserNotFound, id)
	}
	out := *user
	return &out, nil
}

func (r *memoryUserRepository) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, fmt.Errorf("%w: %s", autherrors.ErrUserNotFound, email)
	}
	out := *r.users[id]
	return &out, nil
}
