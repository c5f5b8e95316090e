// Package introspect extracts constructor and method signatures from Go types
// so they can be assembled by a resolver.
//
// Go reflection cannot recover parameter names or default values, so the
// introspector works from a [Catalog]: an explicit registration table that
// names each constructible type and, optionally, its constructor function,
// method parameter names and default values.
//
// # Data Model
//
// A [Descriptor] describes one parameter: its name, its declared type, the
// type it relates to (for object parameters), whether it is optional and its
// default value. A [Signature] is the ordered list of descriptors of one
// method. A [Store] holds every signature reflected so far for one type; it
// is built lazily, one method at a time, and is the unit that gets cached.
//
// # Introspectors
//
// [Reflector] reflects signatures directly from the catalog. [CachedReflector]
// wraps a Reflector and memoizes whole stores in a [Pool], so a warm entry
// answers every later lookup for that type, including methods that were not
// part of the original request.
//
// # Registration
//
//	cat := introspect.NewCatalog()
//	cat.MustRegister(&Server{})                              // field injection
//	cat.MustRegister(&Client{}, introspect.WithConstructor(NewClient, "addr", "timeout"))
//	cat.MustRegister((*Store)(nil), introspect.WithID("store"))  // abstract id
//
// Struct fields take part in field injection when they carry an inject tag:
//
//	type Server struct {
//	    Logger *Logger `inject:"logger"`
//	    Port   int     `inject:"port" default:"8080"`
//	    Debug  bool    `inject:"debug,optional"`
//	}
//
// # Callables
//
// Callables are a tagged variant ([Function], [Closure], [StaticMethod],
// [BoundMethod]). [CallableOf] normalizes raw values such as "T::Method"
// strings or values implementing [Invoker].
package introspect
