// Package inject builds object graphs from type identifiers.
//
// A [Resolver] owns four registries, all scoped to the resolver instance:
//
//   - aliases redirect one identifier to another (single hop)
//   - shared instances short-circuit construction for their identifier
//   - delegates are factories invoked instead of constructing directly
//   - configured overrides supply default arguments per type
//
// Resolution is depth-first. For every constructor parameter the resolver
// applies, in order: a ":name" override (resolved or invoked, never used
// as a literal), a "name" override (used verbatim), the parameter's related
// type (resolved recursively with the same overrides), the default value,
// and finally fails with a missing argument error.
//
// Cycles are detected lazily during a call: a type requested again while
// its own constructor arguments are still being resolved fails with a
// circular dependency error. The in-progress set is cleared at the start of
// every Resolve, including nested Resolve calls made by delegates.
//
// # Usage
//
//	cat := introspect.NewCatalog()
//	cat.MustRegister(&Server{})
//
//	r := inject.New(introspect.NewReflector(cat))
//	r.Configure(introspect.TypeKey(&Server{}), inject.Overrides{"port": 9090})
//
//	srv, err := inject.Get[*Server](ctx, r, nil)
//
// The resolver registers itself as a shared instance under [ResolverID], so
// delegates and constructors can depend on *Resolver.
//
// A Resolver is not safe for concurrent use.
package inject
