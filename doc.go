// Package authkit is an embeddable attribute and role based access
// control library. Permissions are atomic (resource, action) policies,
// grouped into roles or granted directly to subjects; every grant is
// mirrored into a denormalized index so that permission checks are a
// single indexed read regardless of how many roles a subject holds.
//
// The package root wires stores, use cases and the notification bus into
// a Module. Hosts embed it against PostgreSQL, SQLite or the in-memory
// store:
//
//	cfg, _ := config.Load()
//	module, err := authkit.NewPostgresModule(cfg, logger)
//	if err != nil {
//		...
//	}
//	defer module.Close()
//
//	ok, err := module.CheckAccess.Execute(ctx, queries.CheckAccessQuery{
//		Subject:     "alice@example.com",
//		Permissions: []queries.Permission{{Resource: "document", Action: "edit"}},
//	})
package authkit
