package service

import (
	"context"
	"errors"
	"time"

	autherrors "carpool/internal/auth/errors"
	"carpool/internal/auth/repository"
	"carpool/internal/auth/session"
	"carpool/internal/auth/token"
	apperrors "carpool/pkg/errors"
	"carpool/pkg/logger"
	"carpool/pkg/model"
	"carpool/pkg/sanitizer"
	"carpool/pkg/validation"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Result is what register and login hand back: the user and the credential
// the client must present on later requests.
type Result struct {
	User       *model.User
	Credential string
	ExpiresAt  time.Time
}

type AuthService interface {
	Register(ctx context.Context, input *model.RegisterInput) (*Result, error)
	Login(ctx context.Context, input *model.LoginInput) (*Result, error)
	Logout(ctx context.Context, credential string) error
	Authenticate(ctx context.Context, credential string) (*model.User, *model.Session, error)
}

type authService struct {
	users      repository.UserRepository
	sessions   session.Store
	tokens     *token.Manager
	validate   *validation.Validator
	bcryptCost int
	now        func() time.Time
	log        *logger.Logger
}

func NewAuthService(
	users repository.UserRepository,
	sessions session.Store,
	tokens *token.Manager,
	bcryptCost int,
	log *logger.Logger,
) AuthService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &authService{
		users:      users,
		sessions:   sessions,
		tokens:     tokens,
		validate:   validation.New(),
		bcryptCost: bcryptCost,
		now:        time.Now,
		log:        log,
	}
}

// dummyHash is compared against when the email is unknown so that login
// takes the same time either way.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("carpool-dummy-password"), bcrypt.DefaultCost)

func (s *authService) Register(ctx context.Context, input *model.RegisterInput) (*Result, error) {
	input.Name = sanitizer.NormalizeName(input.Name)
	input.Email = sanitizer.NormalizeEmail(input.Email)
	if input.Phone != "" {
		normalized := sanitizer.NormalizePhone(input.Phone)
		if normalized == "" {
			return nil, apperrors.Validation("Registration validation failed", map[string]any{
				"phone": "phone must be a valid phone number",
			})
		}
		input.Phone = normalized
	}

	if err := s.validate.Struct(input); err != nil {
		s.log.WithContext(ctx).Warn("Registration validation failed", "email", input.Email, "error", err)
		return nil, validation.ToAppError("Registration validation failed", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return nil, apperrors.Internal("Failed to hash password", err)
	}

	user := &model.User{
		Name:         input.Name,
		Email:        input.Email,
		Phone:        input.Phone,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, autherrors.ErrEmailTaken) {
			return nil, apperrors.Conflict("Email is already registered")
		}
		s.log.WithContext(ctx).Error("Failed to create user", "email", input.Email, "error", err)
		return nil, apperrors.Internal("Failed to register user", err)
	}

	s.log.WithContext(ctx).Info("User registered successfully", "user_id", user.ID)
	return s.startSession(ctx, user)
}

func (s *authService) Login(ctx context.Context, input *model.LoginInput) (*Result, error) {
	input.Email = sanitizer.NormalizeEmail(input.Email)
	if err := s.validate.Struct(input); err != nil {
		return nil, validation.ToAppError("Login validation failed", err)
	}

	user, err := s.users.FindByEmail(ctx, input.Email)
	if err != nil {
		if !errors.Is(err, autherrors.ErrUserNotFound) {
			s.log.WithContext(ctx).Error("Failed to look up user", "error", err)
			return nil, apperrors.Internal("Failed to log in", err)
		}
		bcrypt.CompareHashAndPassword(dummyHash, []byte(input.Password))
		return nil, apperrors.Unauthenticated("Invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		s.log.WithContext(ctx).Warn("Login failed", "user_id", user.ID)
		return nil, apperrors.Unauthenticated("Invalid email or password")
	}

	return s.startSession(ctx, user)
}

// Logout revokes the session behind credential. Unknown or already revoked
// credentials are not an error.
func (s *authService) Logout(ctx context.Context, credential string) error {
	claims, err := s.tokens.Parse(credential)
	if err != nil {
		return nil
	}
	if err := s.sessions.Delete(ctx, claims.SessionID); err != nil {
		s.log.WithContext(ctx).Error("Failed to delete session", "session_id", claims.SessionID, "error", err)
		return apperrors.Unavailable("Session store")
	}
	s.log.WithContext(ctx).Info("User logged out", "user_id", claims.UserID)
	return nil
}

func (s *authService) Authenticate(ctx context.Context, credential string) (*model.User, *model.Session, error) {
	if credential == "" {
		return nil, nil, apperrors.Unauthenticated("Authentication required")
	}

	claims, err := s.tokens.Parse(credential)
	if err != nil {
		if token.IsExpired(err) {
			return nil, nil, apperrors.Unauthenticated("Session expired")
		}
		return nil, nil, apperrors.Unauthenticated("Invalid credential")
	}

	sess, err := s.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, autherrors.ErrSessionNotFound) {
			return nil, nil, apperrors.Unauthenticated("Session expired or revoked")
		}
		s.log.WithContext(ctx).Error("Failed to load session", "error", err)
		return nil, nil, apperrors.Unavailable("Session store")
	}
	if sess.UserID != claims.UserID {
		return nil, nil, apperrors.Unauthenticated("Invalid credential")
	}

	user, err := s.users.FindByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, autherrors.ErrUserNotFound) {
			return nil, nil, apperrors.Unauthenticated("Unknown user")
		}
		s.log.WithContext(ctx).Error("Failed to load user", "user_id", sess.UserID, "error", err)
		return nil, nil, apperrors.Internal("Failed to authenticate", err)
	}

	return user, sess, nil
}

func (s *authService) startSession(ctx context.Context, user *model.User) (*Result, error) {
	now := s.now().UTC()
	sess := &model.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.tokens.TTL()),
	}

	if err := s.sessions.Save(ctx, sess); err != nil {
		s.log.WithContext(ctx).Error("Failed to save session", "user_id", user.ID, "error", err)
		return nil, apperrors.Unavailable("Session store")
	}

	credential, err := s.tokens.Issue(sess.ID, user.ID, sess.CreatedAt, sess.ExpiresAt)
	if err != nil {
		return nil, apperrors.Internal("Failed to issue credential", err)
	}

	return &Result{
		User:       user,
		Credential: credential,
		ExpiresAt:  sess.ExpiresAt,
	}, nil
}
