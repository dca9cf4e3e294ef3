package postgresadapter

import (
	"context"
	"errors"
	"log/slog"

	"authkit/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// UserTableConfig locates the host-owned user records the library reads
// but does not own. SubjectColumn names the attribute whose value keys
// every grant.
type UserTableConfig struct {
	Table         string
	IDColumn      string
	SubjectColumn string
}

// Store is the relational adapter implementing the full ports.Store
// boundary on gorm. It works against PostgreSQL and SQLite alike;
// transactions map onto database transactions.
type Store struct {
	db     *gorm.DB
	users  UserTableConfig
	logger *slog.Logger
}

func NewStore(db *gorm.DB, users UserTableConfig, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		db:     db,
		users:  users,
		logger: logger,
	}
}

func (s *Store) Roles() ports.RoleRepository                  { return roleRepo{s} }
func (s *Store) Policies() ports.PolicyRepository             { return policyRepo{s} }
func (s *Store) Permissions() ports.UserPermissionsRepository { return permsRepo{s} }
func (s *Store) Denorm() ports.DenormRepository               { return denormRepo{s} }
func (s *Store) Users() ports.UserDirectory                   { return userDirectory{s} }

// InTransaction runs fn against a store view bound to one database
// transaction. Nested calls become savepoints through gorm.
func (s *Store) InTransaction(ctx context.Context, fn func(tx ports.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, users: s.users, logger: s.logger})
	})
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
