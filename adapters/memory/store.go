package memory

import (
	"context"
	"sort"
	"sync"

	"authkit/domain/entities"
	domainerrors "authkit/domain/errors"
	"authkit/ports"
)

// Store is an in-memory adapter implementing the full ports.Store boundary.
// It is intended for tests and local development wiring. Transactions hold
// the write lock for their whole extent and roll back by restoring a
// snapshot, so every use case observes the same all-or-nothing semantics
// as the relational adapter.
type Store struct {
	mu sync.RWMutex

	state *state

	// inTx marks a transactional view that already holds the lock.
	inTx bool
}

type state struct {
	roles    map[string]entities.Role
	policies map[string]entities.Policy
	perms    map[string]entities.UserPermissions
	denorm   map[string]entities.UserPolicyDenorm
	users    map[string]entities.User
}

// NewStore builds an empty in-memory adapter.
func NewStore() *Store {
	return &Store{state: &state{
		roles:    make(map[string]entities.Role),
		policies: make(map[string]entities.Policy),
		perms:    make(map[string]entities.UserPermissions),
		denorm:   make(map[string]entities.UserPolicyDenorm),
		users:    make(map[string]entities.User),
	}}
}

// AddUser registers a host user record so subject resolution can find it.
func (s *Store) AddUser(user entities.User) {
	s.lock()
	defer s.unlock()
	s.state.users[user.ID] = user
}

func (s *Store) Roles() ports.RoleRepository                  { return roleRepo{s} }
func (s *Store) Policies() ports.PolicyRepository             { return policyRepo{s} }
func (s *Store) Permissions() ports.UserPermissionsRepository { return permsRepo{s} }
func (s *Store) Denorm() ports.DenormRepository               { return denormRepo{s} }
func (s *Store) Users() ports.UserDirectory                   { return userDirectory{s} }

// InTransaction runs fn against a view sharing this store's state. The
// write lock is held throughout; on error the pre-transaction snapshot is
// restored. A nested call joins the enclosing transaction.
func (s *Store) InTransaction(ctx context.Context, fn func(tx ports.Store) error) error {
	if s.inTx {
		return fn(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	tx := &Store{state: s.state, inTx: true}
	if err := fn(tx); err != nil {
		*s.state = *snapshot
		return err
	}
	return nil
}

func (s *Store) lock() {
	if !s.inTx {
		s.mu.Lock()
	}
}

func (s *Store) unlock() {
	if !s.inTx {
		s.mu.Unlock()
	}
}

func (s *Store) rlock() {
	if !s.inTx {
		s.mu.RLock()
	}
}

func (s *Store) runlock() {
	if !s.inTx {
		s.mu.RUnlock()
	}
}

func (st *state) clone() *state {
	next := &state{
		roles:    make(map[string]entities.Role, len(st.roles)),
		policies: make(map[string]entities.Policy, len(st.policies)),
		perms:    make(map[string]entities.UserPermissions, len(st.perms)),
		denorm:   make(map[string]entities.UserPolicyDenorm, len(st.denorm)),
		users:    make(map[string]entities.User, len(st.users)),
	}
	for id, role := range st.roles {
		next.roles[id] = cloneRole(role)
	}
	for id, policy := range st.policies {
		next.policies[id] = policy
	}
	for subject, perms := range st.perms {
		next.perms[subject] = clonePerms(perms)
	}
	for id, row := range st.denorm {
		next.denorm[id] = cloneDenorm(row)
	}
	for id, user := range st.users {
		next.users[id] = user
	}
	return next
}

func cloneRole(role entities.Role) entities.Role {
	role.Policies = append([]entities.Policy(nil), role.Policies...)
	return role
}

func clonePerms(perms entities.UserPermissions) entities.UserPermissions {
	roles := make([]entities.Role, 0, len(perms.Roles))
	for _, role := range perms.Roles {
		roles = append(roles, cloneRole(role))
	}
	perms.Roles = roles
	perms.Policies = append([]entities.Policy(nil), perms.Policies...)
	return perms
}

func cloneDenorm(row entities.UserPolicyDenorm) entities.UserPolicyDenorm {
	if row.RoleKey != nil {
		key := *row.RoleKey
		row.RoleKey = &key
	}
	return row
}

type roleRepo struct {
	s *Store
}

func (r roleRepo) FindByID(_ context.Context, id string) (entities.Role, bool, error) {
	r.s.rlock()
	defer r.s.runlock()

	role, ok := r.s.state.roles[id]
	if !ok {
		return entities.Role{}, false, nil
	}
	return cloneRole(role), true, nil
}

func (r roleRepo) FindByName(_ context.Context, name string) (entities.Role, bool, error) {
	r.s.rlock()
	defer r.s.runlock()

	for _, role := range r.s.state.roles {
		if role.Name == name {
			return cloneRole(role), true, nil
		}
	}
	return entities.Role{}, false, nil
}

func (r roleRepo) List(_ context.Context, filter ports.RoleFilter) ([]entities.Role, error) {
	r.s.rlock()
	defer r.s.runlock()

	wanted := idSet(filter.IDs)
	items := make([]entities.Role, 0, len(r.s.state.roles))
	for _, role := range r.s.state.roles {
		if wanted != nil {
			if _, ok := wanted[role.ID]; !ok {
				continue
			}
		}
		if filter.Name != "" && role.Name != filter.Name {
			continue
		}
		items = append(items, cloneRole(role))
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

func (r roleRepo) Create(_ context.Context, role entities.Role) (entities.Role, error) {
	r.s.lock()
	defer r.s.unlock()

	for _, existing := range r.s.state.roles {
		if existing.Name == role.Name {
			return entities.Role{}, domainerrors.ErrRoleExists
		}
	}
	role.Revision = 1
	r.s.state.roles[role.ID] = cloneRole(role)
	return role, nil
}

func (r roleRepo) Save(_ context.Context, role entities.Role) (entities.Role, error) {
	r.s.lock()
	defer r.s.unlock()

	current, ok := r.s.state.roles[role.ID]
	if !ok {
		return entities.Role{}, domainerrors.ErrRoleNotFound
	}
	if current.Revision != role.Revision {
		return entities.Role{}, domainerrors.ErrConcurrentModification
	}
	role.Revision++
	r.s.state.roles[role.ID] = cloneRole(role)
	return role, nil
}

func (r roleRepo) Delete(_ context.Context, id string) error {
	r.s.lock()
	defer r.s.unlock()

	delete(r.s.state.roles, id)
	return nil
}

type policyRepo struct {
	s *Store
}

func (r policyRepo) FindByID(_ context.Context, id string) (entities.Policy, bool, error) {
	r.s.rlock()
	defer r.s.runlock()

	policy, ok := r.s.state.policies[id]
	return policy, ok, nil
}

func (r policyRepo) FindByResourceAction(_ context.Context, resource, action string) (entities.Policy, bool, error) {
	r.s.rlock()
	defer r.s.runlock()

	for _, policy := range r.s.state.policies {
		if policy.Resource == resource && policy.Action == action {
			return policy, true, nil
		}
	}
	return entities.Policy{}, false, nil
}

func (r policyRepo) List(_ context.Context, filter ports.PolicyFilter) ([]entities.Policy, error) {
	r.s.rlock()
	defer r.s.runlock()

	wanted := idSet(filter.IDs)
	items := make([]entities.Policy, 0, len(r.s.state.policies))
	for _, policy := range r.s.state.policies {
		if wanted != nil {
			if _, ok := wanted[policy.ID]; !ok {
				continue
			}
		}
		if filter.Resource != "" && policy.Resource != filter.Resource {
			continue
		}
		if filter.Action != "" && policy.Action != filter.Action {
			continue
		}
		items = append(items, policy)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Resource != items[j].Resource {
			return items[i].Resource < items[j].Resource
		}
		return items[i].Action < items[j].Action
	})
	return items, nil
}

func (r policyRepo) Create(_ context.Context, policy entities.Policy) (entities.Policy, error) {
	r.s.lock()
	defer r.s.unlock()

	for _, existing := range r.s.state.policies {
		if existing.Resource == policy.Resource && existing.Action == policy.Action {
			return entities.Policy{}, domainerrors.ErrPolicyExists
		}
	}
	r.s.state.policies[policy.ID] = policy
	return policy, nil
}

type permsRepo struct {
	s *Store
}

func (r permsRepo) FindBySubject(_ context.Context, subject string) (entities.UserPermissions, bool, error) {
	r.s.rlock()
	defer r.s.runlock()

	perms, ok := r.s.state.perms[subject]
	if !ok {
		return entities.UserPermissions{}, false, nil
	}
	return clonePerms(perms), true, nil
}

func (r permsRepo) Create(_ context.Context, perms entities.UserPermissions) (entities.UserPermissions, error) {
	r.s.lock()
	defer r.s.unlock()

	if _, exists := r.s.state.perms[perms.Subject]; exists {
		return entities.UserPermissions{}, domainerrors.ErrConcurrentModification
	}
	perms.Revision = 1
	r.s.state.perms[perms.Subject] = clonePerms(perms)
	return perms, nil
}

func (r permsRepo) Save(_ context.Context, perms entities.UserPermissions) (entities.UserPermissions, error) {
	r.s.lock()
	defer r.s.unlock()

	current, ok := r.s.state.perms[perms.Subject]
	if !ok {
		return entities.UserPermissions{}, domainerrors.ErrUserNotFound
	}
	if current.Revision != perms.Revision {
		return entities.UserPermissions{}, domainerrors.ErrConcurrentModification
	}
	perms.Revision++
	r.s.state.perms[perms.Subject] = clonePerms(perms)
	return perms, nil
}

func (r permsRepo) DeleteBySubject(_ context.Context, subject string) error {
	r.s.lock()
	defer r.s.unlock()

	delete(r.s.state.perms, subject)
	return nil
}

func (r permsRepo) CountSubjectsWithRole(_ context.Context, roleID string) (int64, error) {
	r.s.rlock()
	defer r.s.runlock()

	var count int64
	for _, perms := range r.s.state.perms {
		if perms.HasRole(roleID) {
			count++
		}
	}
	return count, nil
}

func (r permsRepo) RemoveRoleFromAll(_ context.Context, roleID string) (int64, error) {
	r.s.lock()
	defer r.s.unlock()

	var affected int64
	for subject, perms := range r.s.state.perms {
		if !perms.HasRole(roleID) {
			continue
		}
		perms.Roles = perms.WithoutRole(roleID)
		perms.Revision++
		r.s.state.perms[subject] = perms
		affected++
	}
	return affected, nil
}

type denormRepo struct {
	s *Store
}

func (r denormRepo) DistinctSubjectsByRoleKey(_ context.Context, roleKey string) ([]string, error) {
	r.s.rlock()
	defer r.s.runlock()

	seen := make(map[string]struct{})
	for _, row := range r.s.state.denorm {
		if row.RoleKey == nil || *row.RoleKey != roleKey {
			continue
		}
		seen[row.Subject] = struct{}{}
	}
	subjects := make([]string, 0, len(seen))
	for subject := range seen {
		subjects = append(subjects, subject)
	}
	sort.Strings(subjects)
	return subjects, nil
}

func (r denormRepo) GrantedKeys(_ context.Context, subject string, keys []string) ([]string, error) {
	r.s.rlock()
	defer r.s.runlock()

	wanted := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		wanted[key] = struct{}{}
	}
	granted := make(map[string]struct{})
	for _, row := range r.s.state.denorm {
		if row.Subject != subject {
			continue
		}
		if _, ok := wanted[row.PolicyMapKey]; ok {
			granted[row.PolicyMapKey] = struct{}{}
		}
	}
	items := make([]string, 0, len(granted))
	for key := range granted {
		items = append(items, key)
	}
	sort.Strings(items)
	return items, nil
}

func (r denormRepo) Count(_ context.Context, filter ports.DenormFilter) (int64, error) {
	r.s.rlock()
	defer r.s.runlock()

	var count int64
	for _, row := range r.s.state.denorm {
		if matchDenorm(row, filter) {
			count++
		}
	}
	return count, nil
}

func (r denormRepo) Insert(_ context.Context, rows []entities.UserPolicyDenorm) error {
	r.s.lock()
	defer r.s.unlock()

	for _, row := range rows {
		r.s.state.denorm[row.ID] = cloneDenorm(row)
	}
	return nil
}

func (r denormRepo) Delete(_ context.Context, filter ports.DenormFilter) error {
	r.s.lock()
	defer r.s.unlock()

	for id, row := range r.s.state.denorm {
		if matchDenorm(row, filter) {
			delete(r.s.state.denorm, id)
		}
	}
	return nil
}

func matchDenorm(row entities.UserPolicyDenorm, filter ports.DenormFilter) bool {
	if filter.Subject != "" && row.Subject != filter.Subject {
		return false
	}
	if filter.PolicyMapKey != "" && row.PolicyMapKey != filter.PolicyMapKey {
		return false
	}
	if filter.RoleKey != "" && (row.RoleKey == nil || *row.RoleKey != filter.RoleKey) {
		return false
	}
	if filter.DirectOnly && row.RoleKey != nil {
		return false
	}
	return true
}

type userDirectory struct {
	s *Store
}

func (r userDirectory) FindByID(_ context.Context, id string) (entities.User, bool, error) {
	r.s.rlock()
	defer r.s.runlock()

	user, ok := r.s.state.users[id]
	return user, ok, nil
}

func (r userDirectory) List(_ context.Context) ([]entities.User, error) {
	r.s.rlock()
	defer r.s.runlock()

	items := make([]entities.User, 0, len(r.s.state.users))
	for _, user := range r.s.state.users {
		items = append(items, user)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Subject < items[j].Subject })
	return items, nil
}

func (r userDirectory) Delete(_ context.Context, id string) error {
	r.s.lock()
	defer r.s.unlock()

	delete(r.s.state.users, id)
	return nil
}

func idSet(ids []string) map[string]struct{} {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
