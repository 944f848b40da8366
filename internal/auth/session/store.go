package session

import (
	"context"

	"carpool/pkg/model"
)

// Store keeps the server side of a credential. Get returns
// ErrSessionNotFound for missing and expired sessions alike.
type Store interface {
	Save(ctx context.Context, s *model.Session) error
	Get(ctx context.Context, id string) (*model.Session, error)
	Delete(ctx context.Context, id string) error
}
