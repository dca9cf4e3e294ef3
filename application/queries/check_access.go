package queries

import (
	"context"
	"log/slog"
	"strings"

	"authkit/application"
	domainerrors "authkit/domain/errors"
	"authkit/domain/services"
	"authkit/ports"
)

// Permission is one requested (resource, action) pair.
type Permission struct {
	Resource string
	Action   string
}

// CheckAccessQuery asks whether one subject holds every listed permission.
// Exactly one of Subject or UserID must be supplied.
type CheckAccessQuery struct {
	Subject     string
	UserID      string
	Permissions []Permission
}

// CheckAccess is the read-side evaluator over the denormalized index. It
// is a pure read: safe to call concurrently and repeatedly, no ordering
// between requested permissions.
type CheckAccess struct {
	Store  ports.Store
	Logger *slog.Logger
}

// Execute returns true iff every requested permission is covered by at
// least one index row for the subject. An empty permission list is
// vacuously true.
func (q CheckAccess) Execute(ctx context.Context, query CheckAccessQuery) (bool, error) {
	logger := application.ResolveLogger(q.Logger)

	subject := strings.TrimSpace(query.Subject)
	if subject == "" && strings.TrimSpace(query.UserID) == "" {
		return false, domainerrors.ErrInvalidRequest
	}
	if subject == "" {
		_, resolved, err := application.ResolveSubject(ctx, q.Store.Users(), query.UserID)
		if err != nil {
			logger.Error("subject resolution failed",
				"event", "authz_check_subject_failed",
				"layer", "query",
				"user_id", query.UserID,
				"error", err.Error(),
			)
			return false, err
		}
		subject = resolved
	}

	logger.Debug("access check started",
		"event", "authz_check_started",
		"layer", "query",
		"subject", subject,
		"permission_count", len(query.Permissions),
	)

	// Writers and this read path must build keys through the identical
	// codec, or the index silently stops agreeing with the graph.
	required := make(map[string]struct{}, len(query.Permissions))
	keys := make([]string, 0, len(query.Permissions))
	for _, permission := range query.Permissions {
		key := services.PolicyMapKey(permission.Resource, permission.Action)
		if _, seen := required[key]; seen {
			continue
		}
		required[key] = struct{}{}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return true, nil
	}

	granted, err := q.Store.Denorm().GrantedKeys(ctx, subject, keys)
	if err != nil {
		return false, err
	}
	for _, key := range granted {
		delete(required, key)
	}
	if len(required) > 0 {
		logger.Warn("access check denied",
			"event", "authz_check_denied",
			"layer", "query",
			"subject", subject,
			"missing_count", len(required),
		)
		return false, nil
	}
	return true, nil
}
