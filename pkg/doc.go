// Package pkg provides the core libraries for autowire.
//
// # Overview
//
// Autowire builds object graphs: given a type identifier it reflects the
// constructor signature, resolves every dependency recursively and calls the
// constructor. The pkg directory is organized into these areas:
//
//  1. [introspect] - Type catalog, signature reflection and the signature cache
//  2. [inject] - The resolver: shared instances, delegates, aliases, overrides
//  3. [cache] - Cache backends (file, memory, Redis, MongoDB)
//  4. [errors] - Coded error types for failed resolutions
//  5. [observability] - Resolver and cache hooks
//  6. [dag], [io] and [render/nodelink] - Construction graphs and their output
//
// # Architecture
//
// A resolution flows through the packages like this:
//
//	Resolver.Resolve("app.Service")
//	         ↓
//	    [inject] alias → shared → delegate → construct
//	         ↓
//	    [introspect] CachedReflector → Pool → [cache] backend
//	         ↓ (miss)
//	    [introspect] Reflector → Catalog
//
// # Quick Start
//
//	catalog := introspect.NewCatalog()
//	catalog.MustRegister((*Service)(nil),
//	    introspect.WithID("app.Service"),
//	    introspect.WithConstructor(NewService, "store", "retries"),
//	)
//
//	r := inject.New(introspect.NewReflector(catalog))
//	svc, err := inject.Get[*Service](ctx, r, inject.Overrides{"retries": 5})
//
// [introspect]: github.com/matzehuels/autowire/pkg/introspect
// [inject]: github.com/matzehuels/autowire/pkg/inject
// [cache]: github.com/matzehuels/autowire/pkg/cache
// [errors]: github.com/matzehuels/autowire/pkg/errors
// [observability]: github.com/matzehuels/autowire/pkg/observability
// [dag]: github.com/matzehuels/autowire/pkg/dag
// [io]: github.com/matzehuels/autowire/pkg/io
// [render/nodelink]: github.com/matzehuels/autowire/pkg/render/nodelink
package pkg
