// Package mapper defines the ORM Mapper collaborator contract the
// coordinator consumes (SPEC_FULL.md §4.3). A concrete mapper translates a
// specific ORM's call arguments into the engine's canonical
// Statement/Mutation vocabulary; this package only defines the seam, since
// the translation itself is mechanical and specific to whichever ORM a host
// application brings.
package mapper

import (
	"context"

	"github.com/bold-minds/includekit-go/model"
)

// Request bundles an ORM call's arguments before translation. Model is the
// target model name; Operation is the ORM's own operation name (e.g.
// "findMany", "create"); Args is the ORM-specific argument payload, passed
// through opaquely.
type Request struct {
	Model     string
	Operation string
	Args      any
}

// Mapper is the contract the coordinator's collaborators must satisfy.
// BuildStatement and BuildMutation must never reject a request for an
// operator they cannot precisely represent: they must instead fall back to
// the engine's unsupported:*/unknown:* namespace so the engine can apply
// conservative invalidation and the query still runs.
type Mapper interface {
	BuildStatement(ctx context.Context, req Request) (model.Statement, error)
	BuildMutation(ctx context.Context, req Request) (model.Mutation, error)

	// ExtendClient wraps an ORM client so that every intercepted read/write
	// routes through coordinator, returning the wrapped client the host
	// application should use in place of the original.
	ExtendClient(client any, coordinator Coordinator) any
}

// Coordinator is the subset of the cache coordinator a Mapper's ExtendClient
// needs, kept as a narrow interface here (rather than importing package
// coordinator directly) to avoid a cache/coordinator/mapper import cycle:
// coordinator does not depend on mapper, mapper depends on coordinator only
// through this seam.
type Coordinator interface {
	ExecuteRead(ctx context.Context, stmt model.Statement, execute func(ctx context.Context) (any, error), resultHint any) (any, error)
	ExecuteWrite(ctx context.Context, mutation model.Mutation, execute func(ctx context.Context) (any, error), txContext any) (any, error)
}
