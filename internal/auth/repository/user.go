package repository

import (
	"context"

	"carpool/pkg/model"
)

const (
	CollectionName = "Users"
	SequenceName   = "users"
)

type UserRepository interface {
	// Create assigns the id. It returns ErrEmailTaken when the email is
	// already registered.
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id int64) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}
