package authkit

import (
	"log/slog"

	"authkit/adapters/events"
	"authkit/adapters/memory"
	postgresadapter "authkit/adapters/postgres"
	"authkit/application/commands"
	"authkit/application/queries"
	"authkit/application/transactions"
	"authkit/config"
	"authkit/internal/platform/db"
	"authkit/internal/platform/messaging"
	"authkit/ports"

	"gorm.io/gorm"
)

// Dependencies is everything a Module needs. Store is required; the other
// fields default to production implementations when zero.
type Dependencies struct {
	Store       ports.Store
	IDGenerator ports.IDGenerator
	Clock       ports.Clock
	Events      ports.EventPublisher
	DenormChunk int
	Logger      *slog.Logger
}

// Module bundles every use case behind one value. Construct it once and
// share it; the use-case values are stateless and safe for concurrent use.
type Module struct {
	CheckAccess     queries.CheckAccess
	GetRole         queries.GetRole
	ListRoles       queries.ListRoles
	ListPolicies    queries.ListPolicies
	PoliciesForRole queries.PoliciesForRole
	RolesForUser    queries.RolesForUser
	PoliciesForUser queries.PoliciesForUser
	ListUsers       queries.ListUsers

	CreateRole           commands.CreateRole
	CreatePolicy         commands.CreatePolicy
	CreateOrFindPolicy   commands.CreateOrFindPolicy
	AttachPolicyToRole   commands.AttachPolicyToRole
	RemovePolicyFromRole commands.RemovePolicyFromRole
	AttachRoleToUser     commands.AttachRoleToUser
	RemoveRoleFromUser   commands.RemoveRoleFromUser
	AttachPolicyToUser   commands.AttachPolicyToUser
	RemovePolicyFromUser commands.RemovePolicyFromUser
	RemoveRole           commands.RemoveRole
	RemoveUser           commands.RemoveUser

	// Bus carries grant change notifications when the module was built by
	// one of the platform constructors. Nil when the caller wired its own
	// publisher through Dependencies.
	Bus *messaging.Bus

	closers []func() error
}

func NewModule(deps Dependencies) *Module {
	if deps.IDGenerator == nil {
		deps.IDGenerator = postgresadapter.UUIDGenerator{}
	}
	if deps.Clock == nil {
		deps.Clock = postgresadapter.SystemClock{}
	}
	if deps.DenormChunk <= 0 {
		deps.DenormChunk = transactions.DefaultDenormChunkSize
	}

	return &Module{
		CheckAccess:     queries.CheckAccess{Store: deps.Store, Logger: deps.Logger},
		GetRole:         queries.GetRole{Store: deps.Store, Logger: deps.Logger},
		ListRoles:       queries.ListRoles{Store: deps.Store},
		ListPolicies:    queries.ListPolicies{Store: deps.Store},
		PoliciesForRole: queries.PoliciesForRole{Store: deps.Store, Logger: deps.Logger},
		RolesForUser:    queries.RolesForUser{Store: deps.Store, Logger: deps.Logger},
		PoliciesForUser: queries.PoliciesForUser{Store: deps.Store, Logger: deps.Logger},
		ListUsers:       queries.ListUsers{Store: deps.Store},

		CreateRole: commands.CreateRole{
			Store:       deps.Store,
			IDGenerator: deps.IDGenerator,
			Logger:      deps.Logger,
		},
		CreatePolicy: commands.CreatePolicy{
			Store:       deps.Store,
			IDGenerator: deps.IDGenerator,
			Logger:      deps.Logger,
		},
		CreateOrFindPolicy: commands.CreateOrFindPolicy{
			Store:       deps.Store,
			IDGenerator: deps.IDGenerator,
			Logger:      deps.Logger,
		},
		AttachPolicyToRole: commands.AttachPolicyToRole{
			Store:       deps.Store,
			IDGenerator: deps.IDGenerator,
			Clock:       deps.Clock,
			Events:      deps.Events,
			DenormChunk: deps.DenormChunk,
			Logger:      deps.Logger,
		},
		RemovePolicyFromRole: commands.RemovePolicyFromRole{
			Store:       deps.Store,
			IDGenerator: deps.IDGenerator,
			Clock:       deps.Clock,
			Events:      deps.Events,
			Logger:      deps.Logger,
		},
		AttachRoleToUser: commands.AttachRoleToUser{
			Store:       deps.Store,
			IDGenerator: deps.IDGenerator,
			Clock:       deps.Clock,
			Events:      deps.Events,
			DenormChunk: deps.DenormChunk,
			Logger:      deps.Logger,
		},
		RemoveRoleFromUser: commands.RemoveRoleFromUser{
			Store:       deps.Store,
			IDGenerator: deps.IDGenerator,
			Clock:       deps.Clock,
			Events:      deps.Events,
			Logger:      deps.Logger,
		},
		AttachPolicyToUser: commands.AttachPolicyToUser{
			Store:       deps.Store,
			IDGenerator: deps.IDGenerator,
			Clock:       deps.Clock,
			Events:      deps.Events,
			Logger:      deps.Logger,
		},
		RemovePolicyFromUser: commands.RemovePolicyFromUser{
			Store:       deps.Store,
			IDGenerator: deps.IDGenerator,
			Clock:       deps.Clock,
			Events:      deps.Events,
			Logger:      deps.Logger,
		},
		RemoveRole: commands.RemoveRole{
			Store:       deps.Store,
			IDGenerator: deps.IDGenerator,
			Clock:       deps.Clock,
			Events:      deps.Events,
			Logger:      deps.Logger,
		},
		RemoveUser: commands.RemoveUser{
			Store:       deps.Store,
			IDGenerator: deps.IDGenerator,
			Clock:       deps.Clock,
			Events:      deps.Events,
			Logger:      deps.Logger,
		},
	}
}

// Close releases resources owned by the module, such as database handles
// opened by the platform constructors.
func (m *Module) Close() error {
	var first error
	for _, closer := range m.closers {
		if err := closer(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// NewInMemoryModule wires a module against the in-memory store, intended
// for tests and local development. The returned store is the same one the
// module uses, so tests can seed users and inspect state.
func NewInMemoryModule(logger *slog.Logger) (*Module, *memory.Store) {
	store := memory.NewStore()
	bus := messaging.NewBus(logger)
	module := NewModule(Dependencies{
		Store:  store,
		Events: events.NewBusPublisher(bus),
		Logger: logger,
	})
	module.Bus = bus
	return module, store
}

// NewPostgresModule connects to PostgreSQL per cfg, migrates the tables
// this library owns and wires the full module.
func NewPostgresModule(cfg config.Config, logger *slog.Logger) (*Module, error) {
	conn, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	if err := postgresadapter.Migrate(conn.DB); err != nil {
		_ = conn.Close()
		return nil, err
	}

	module := newRelationalModule(conn.DB, cfg, logger)
	module.closers = append(module.closers, conn.Close)
	return module, nil
}

// NewSQLiteModule is the single-file variant of NewPostgresModule, useful
// for embedded deployments.
func NewSQLiteModule(cfg config.Config, logger *slog.Logger) (*Module, error) {
	conn, err := db.ConnectSQLite(cfg.SQLitePath)
	if err != nil {
		return nil, err
	}
	if err := postgresadapter.Migrate(conn.DB); err != nil {
		_ = conn.Close()
		return nil, err
	}

	module := newRelationalModule(conn.DB, cfg, logger)
	module.closers = append(module.closers, conn.Close)
	return module, nil
}

func newRelationalModule(handle *gorm.DB, cfg config.Config, logger *slog.Logger) *Module {
	store := postgresadapter.NewStore(handle, postgresadapter.UserTableConfig{
		Table:         cfg.UserTable,
		IDColumn:      cfg.UserIDColumn,
		SubjectColumn: cfg.SubjectColumn,
	}, logger)
	bus := messaging.NewBus(logger)
	module := NewModule(Dependencies{
		Store:       store,
		Events:      events.NewBusPublisher(bus),
		DenormChunk: cfg.DenormInsertChunk,
		Logger:      logger,
	})
	module.Bus = bus
	return module
}
