package application

import (
	"context"
	"log/slog"
	"strings"

	"authkit/domain/entities"
	domainerrors "authkit/domain/errors"
	"authkit/ports"
)

// ResolveLogger falls back to the process default when a use case was
// built without one.
func ResolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// ResolveSubject loads the host user by id and extracts the configured
// subject attribute. Both the write path and the evaluator identify
// subjects through this single helper.
func ResolveSubject(ctx context.Context, users ports.UserDirectory, id string) (entities.User, string, error) {
	user, found, err := users.FindByID(ctx, id)
	if err != nil {
		return entities.User{}, "", err
	}
	if !found {
		return entities.User{}, "", domainerrors.ErrUserNotFound
	}
	subject := strings.TrimSpace(user.Subject)
	if subject == "" {
		return entities.User{}, "", domainerrors.ErrSubjectEmpty
	}
	return user, subject, nil
}
