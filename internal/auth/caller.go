package auth

import (
	"context"
	"net/http"

	apperrors "carpool/pkg/errors"
	"carpool/pkg/model"
)

// Caller is the authenticated identity of a request. Handlers pass Caller.ID
// explicitly into services; nothing below the HTTP layer reads the context.
type Caller struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	SessionID string `json:"-"`
}

func NewCaller(user *model.User, sessionID string) *Caller {
	return &Caller{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		SessionID: sessionID,
	}
}

type callerKey struct{}

func WithCaller(ctx context.Context, caller *Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

func CallerFromContext(ctx context.Context) (*Caller, bool) {
	caller, ok := ctx.Value(callerKey{}).(*Caller)
	return caller, ok && caller != nil
}

// CurrentUser returns the caller resolved by the Authenticate middleware, or
// an UNAUTHENTICATED error when the request carried no valid credential.
func CurrentUser(r *http.Request) (*Caller, error) {
	if caller, ok := CallerFromContext(r.Context()); ok {
		return caller, nil
	}
	return nil, apperrors.Unauthenticated("Authentication required")
}
