package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	autherrors "carpool/internal/auth/errors"

	"github.com/golang-jwt/jwt/v5"
)

const Issuer = "carpool"

// Claims identify a session. The session id travels as the JWT id so a
// credential can be revoked by deleting its session.
type Claims struct {
	SessionID string
	UserID    int64
	ExpiresAt time.Time
}

type Manager struct {
	secret []byte
	ttl    time.Duration
}

func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

func (m *Manager) TTL() time.Duration {
	return m.ttl
}

func (m *Manager) Issue(sessionID string, userID int64, issuedAt, expiresAt time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        sessionID,
		Subject:   strconv.FormatInt(userID, 10),
		Issuer:    Issuer,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign credential: %w", err)
	}
	return signed, nil
}

// Parse verifies the signature, algorithm, issuer and expiry of raw.
func (m *Manager) Parse(raw string) (*Claims, error) {
	var registered jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &registered, func(token *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", autherrors.ErrInvalidToken, err)
	}

	userID, err := strconv.ParseInt(registered.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return nil, fmt.Errorf("%w: bad subject", autherrors.ErrInvalidToken)
	}
	if registered.ID == "" {
		return nil, fmt.Errorf("%w: missing session id", autherrors.ErrInvalidToken)
	}

	return &Claims{
		SessionID: registered.ID,
		UserID:    userID,
		ExpiresAt: registered.ExpiresAt.Time,
	}, nil
}

// IsExpired reports whether err came from an expired credential.
func IsExpired(err error) bool {
	return errors.Is(err, jwt.ErrTokenExpired)
}
