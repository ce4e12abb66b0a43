package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/example/shared-tracker/internal/persistence"
)

// UserDirectory captures the user operations needed by the service.
type UserDirectory interface {
	CreateUser(ctx context.Context, user persistence.User) error
	ListUsers(ctx context.Context) ([]persistence.User, error)
}

// UserService lists and provisions user accounts.
type UserService struct {
	users       UserDirectory
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewUserService constructs a user service with the provided dependencies.
func NewUserService(users UserDirectory, idGenerator func() string, now func() time.Time) *UserService {
	return NewUserServiceWithLogger(users, idGenerator, now, nil)
}

// NewUserServiceWithLogger constructs a user service with a specified logger.
func NewUserServiceWithLogger(users UserDirectory, idGenerator func() string, now func() time.Time, logger *slog.Logger) *UserService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &UserService{users: users, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *UserService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

// ListUsers returns every user account.
func (s *UserService) ListUsers(ctx context.Context) ([]persistence.User, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		mapped := mapStoreError(err)
		s.loggerWith(ctx, "ListUsers").ErrorContext(ctx, "user list failed", "error", err, "error_kind", ErrorKind(mapped))
		return nil, mapped
	}
	return users, nil
}

// CreateUser validates input and provisions a new account.
func (s *UserService) CreateUser(ctx context.Context, user persistence.User) (persistence.User, error) {
	logger := s.loggerWith(ctx, "CreateUser")

	vErr := &ValidationError{}
	if strings.TrimSpace(user.DisplayName) == "" {
		vErr.add("displayName", "display name is required")
	}
	if vErr.HasErrors() {
		logger.ErrorContext(ctx, "user validation failed", "error_kind", ErrorKind(vErr))
		return persistence.User{}, vErr
	}

	if user.ID == "" {
		user.ID = s.idGenerator()
	}
	user.CreatedAt = s.now().UTC()
	user.UpdatedAt = user.CreatedAt

	if err := s.users.CreateUser(ctx, user); err != nil {
		mapped := mapStoreError(err)
		logger.ErrorContext(ctx, "user creation failed", "error", err, "error_kind", ErrorKind(mapped))
		return persistence.User{}, mapped
	}

	logger.With("user_id", user.ID).InfoContext(ctx, "user created")
	return user, nil
}
