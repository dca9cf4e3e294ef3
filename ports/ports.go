package ports

import (
	"context"
	"time"

	"authkit/domain/entities"
)

// Clock abstracts current time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts UUID generation for entity and event ids.
type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// RoleFilter narrows role listings. Zero-valued fields are unconstrained.
type RoleFilter struct {
	IDs  []string
	Name string
}

// PolicyFilter narrows policy listings. Zero-valued fields are
// unconstrained.
type PolicyFilter struct {
	IDs      []string
	Resource string
	Action   string
}

// DenormFilter selects rows of the denormalized index. Zero-valued fields
// are unconstrained; DirectOnly restricts to rows with no role
// association (direct grants).
type DenormFilter struct {
	Subject      string
	PolicyMapKey string
	RoleKey      string
	DirectOnly   bool
}

// RoleRepository is the persistence boundary for roles. Find results carry
// the attached policy set.
type RoleRepository interface {
	FindByID(ctx context.Context, id string) (entities.Role, bool, error)
	FindByName(ctx context.Context, name string) (entities.Role, bool, error)
	List(ctx context.Context, filter RoleFilter) ([]entities.Role, error)
	Create(ctx context.Context, role entities.Role) (entities.Role, error)
	// Save persists the role and its policy associations. The write is
	// compare-and-swap on Role.Revision and fails with
	// ErrConcurrentModification on a stale revision.
	Save(ctx context.Context, role entities.Role) (entities.Role, error)
	Delete(ctx context.Context, id string) error
}

// PolicyRepository is the persistence boundary for policies. Policies are
// never updated or deleted, only created and found.
type PolicyRepository interface {
	FindByID(ctx context.Context, id string) (entities.Policy, bool, error)
	FindByResourceAction(ctx context.Context, resource, action string) (entities.Policy, bool, error)
	List(ctx context.Context, filter PolicyFilter) ([]entities.Policy, error)
	Create(ctx context.Context, policy entities.Policy) (entities.Policy, error)
}

// UserPermissionsRepository is the persistence boundary for per-subject
// grant records. Subjects are unique: one record per subject, enforced at
// write time.
type UserPermissionsRepository interface {
	FindBySubject(ctx context.Context, subject string) (entities.UserPermissions, bool, error)
	Create(ctx context.Context, perms entities.UserPermissions) (entities.UserPermissions, error)
	// Save persists the record and its role/policy associations with the
	// same compare-and-swap contract as RoleRepository.Save.
	Save(ctx context.Context, perms entities.UserPermissions) (entities.UserPermissions, error)
	DeleteBySubject(ctx context.Context, subject string) error
	// CountSubjectsWithRole reports how many subjects currently hold the
	// role through their normalized grant record.
	CountSubjectsWithRole(ctx context.Context, roleID string) (int64, error)
	// RemoveRoleFromAll strips the role association from every record
	// referencing it and returns the number of affected subjects.
	RemoveRoleFromAll(ctx context.Context, roleID string) (int64, error)
}

// DenormRepository is the persistence boundary for the flattened
// (subject, policy-map-key, role-key) index. Rows are inserted and deleted
// as grant units, never mutated.
type DenormRepository interface {
	// DistinctSubjectsByRoleKey lists each subject holding the role via
	// the index, deduplicated.
	DistinctSubjectsByRoleKey(ctx context.Context, roleKey string) ([]string, error)
	// GrantedKeys returns the distinct policy-map-keys out of keys that
	// the subject holds at least one row for.
	GrantedKeys(ctx context.Context, subject string, keys []string) ([]string, error)
	Count(ctx context.Context, filter DenormFilter) (int64, error)
	Insert(ctx context.Context, rows []entities.UserPolicyDenorm) error
	Delete(ctx context.Context, filter DenormFilter) error
}

// UserDirectory exposes the host-owned user records the library needs:
// lookup by id projecting the configured subject attribute, listing, and
// optional deletion on user removal.
type UserDirectory interface {
	FindByID(ctx context.Context, id string) (entities.User, bool, error)
	List(ctx context.Context) ([]entities.User, error)
	Delete(ctx context.Context, id string) error
}

// Store bundles the entity repositories behind one boundary and provides
// the single consistency mechanism of the module: InTransaction runs fn
// against a transactional view of the same store; every write inside
// either commits as one unit or rolls back entirely.
type Store interface {
	Roles() RoleRepository
	Policies() PolicyRepository
	Permissions() UserPermissionsRepository
	Denorm() DenormRepository
	Users() UserDirectory
	InTransaction(ctx context.Context, fn func(tx Store) error) error
}
