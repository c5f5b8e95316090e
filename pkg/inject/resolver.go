package inject

import (
	"context"
	"io"
	"maps"
	"reflect"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/autowire/pkg/errors"
	"github.com/matzehuels/autowire/pkg/introspect"
	"github.com/matzehuels/autowire/pkg/observability"
)

// ResolverID is the identifier the resolver shares itself under.
var ResolverID = introspect.TypeKey((*Resolver)(nil))

// Delegate overrides passed to factory parameters.
const (
	DelegateTypeID    = "typeId"
	DelegateOverrides = "overrides"
)

// Overrides maps parameter names to argument values. A key prefixed with ":"
// names a type identifier or callable that is resolved or invoked to
// produce the argument.
type Overrides map[string]any

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger. The default discards all output.
func WithLogger(l *log.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// Resolver constructs instances of catalog types with their dependencies.
type Resolver struct {
	introspector introspect.Introspector
	logger       *log.Logger

	aliases   map[string]string
	shared    map[string]any
	delegates map[string]any
	configs   map[string]Overrides

	inProgress map[string]bool
	parents    []string
	depth      int
	callID     string
}

// New creates a resolver reading signatures from in.
func New(in introspect.Introspector, opts ...Option) *Resolver {
	r := &Resolver{
		introspector: in,
		aliases:      make(map[string]string),
		shared:       make(map[string]any),
		delegates:    make(map[string]any),
		configs:      make(map[string]Overrides),
		inProgress:   make(map[string]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = log.New(io.Discard)
	}
	r.Share(r)
	return r
}

// Introspector returns the introspector the resolver reads signatures from.
func (r *Resolver) Introspector() introspect.Introspector {
	return r.introspector
}

// TypeIDOf returns the identifier of v's type: its catalog identifier when
// registered, its TypeKey otherwise.
func (r *Resolver) TypeIDOf(v any) string {
	if t := reflect.TypeOf(v); t != nil {
		if id, ok := r.introspector.Catalog().IDOf(t); ok {
			return id
		}
	}
	return introspect.TypeKey(v)
}

// Share registers instance under its own type identifier. Later resolutions
// of that identifier return instance without construction or cycle checks.
// When alias is given, it is registered as an alias of the identifier.
// Sharing again replaces the earlier instance.
func (r *Resolver) Share(instance any, alias ...string) *Resolver {
	if instance == nil {
		r.logger.Warn("ignoring shared nil instance")
		return r
	}
	id := r.TypeIDOf(instance)
	r.logger.Debug("registered shared instance", "typeId", id)
	r.shared[id] = instance

	if len(alias) > 0 && alias[0] != "" {
		r.Alias(alias[0], id)
	}
	return r
}

// Delegate registers factory to produce instances of typeID. factory is
// anything CallableOf accepts, or a type identifier string whose instance
// is invocable. Its parameters named "typeId" and "overrides" receive the
// requested identifier and the active overrides.
func (r *Resolver) Delegate(typeID string, factory any) *Resolver {
	r.logger.Debug("registered delegate", "typeId", typeID)
	r.delegates[typeID] = factory
	return r
}

// Alias makes resolving original resolve target instead. Aliases are
// followed for one hop only and are not checked for cycles.
func (r *Resolver) Alias(original, target string) *Resolver {
	r.logger.Debug("registered alias", "typeId", original, "alias", target)
	r.aliases[original] = target
	return r
}

// Configure sets default overrides for typeID. They apply only to keys a
// call does not override itself, in either plain or ":" form.
func (r *Resolver) Configure(typeID string, overrides Overrides) *Resolver {
	r.logger.Debug("configured default arguments", "typeId", typeID, "keys", slices.Sorted(maps.Keys(overrides)))
	r.configs[typeID] = maps.Clone(overrides)
	return r
}

// Resolve returns an instance of typeID. overrides supply arguments by
// parameter name and cascade to nested dependencies.
func (r *Resolver) Resolve(ctx context.Context, typeID string, overrides Overrides) (any, error) {
	r.logger.Debug("requested instance", "typeId", typeID)
	if err := validateOverrides(overrides); err != nil {
		return nil, err
	}
	done := r.begin(ctx, typeID)
	r.inProgress = make(map[string]bool)
	v, err := r.resolveDependency(ctx, typeID, overrides)
	done(err)
	return v, err
}

// Invoke calls target with arguments resolved like constructor arguments.
// target is anything CallableOf accepts. A type identifier string is first
// resolved to an instance, which must then be invocable.
func (r *Resolver) Invoke(ctx context.Context, target any, overrides Overrides) (any, error) {
	if err := validateOverrides(overrides); err != nil {
		return nil, err
	}
	done := r.begin(ctx, targetName(target))
	v, err := r.invoke(ctx, target, overrides)
	done(err)
	return v, err
}

// Get resolves the identifier of T and returns the instance as a T.
func Get[T any](ctx context.Context, r *Resolver, overrides Overrides) (T, error) {
	var zero T
	t := reflect.TypeFor[T]()
	id, ok := r.introspector.Catalog().IDOf(t)
	if !ok {
		id = introspect.TypeKey(t)
	}
	v, err := r.Resolve(ctx, id, overrides)
	if err != nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		return zero, errors.New(errors.ErrCodeInvalidInput, "resolved %s as %T, not %s", id, v, t)
	}
	return out, nil
}

// begin opens a top-level call: it assigns the correlation id and fires the
// start hook. Nested Resolve and Invoke calls share the outer call's id.
func (r *Resolver) begin(ctx context.Context, target string) func(error) {
	r.depth++
	if r.depth > 1 {
		return func(error) { r.depth-- }
	}

	r.callID = uuid.NewString()
	r.parents = r.parents[:0]
	start := time.Now()
	observability.Resolver().OnResolveStart(ctx, r.callID, target)

	return func(err error) {
		r.depth--
		elapsed := time.Since(start)
		if err != nil {
			r.logger.Debug("resolution failed", "call", r.callID, "typeId", target, "err", err)
		} else {
			r.logger.Debug("resolution complete", "call", r.callID, "typeId", target, "duration", elapsed)
		}
		observability.Resolver().OnResolveComplete(ctx, r.callID, target, elapsed, err)
	}
}

func (r *Resolver) resolveDependency(ctx context.Context, typeID string, overrides Overrides) (any, error) {
	r.logger.Debug("resolving", "typeId", typeID, "call", r.callID)

	if target, ok := r.aliases[typeID]; ok {
		r.logger.Debug("following alias", "typeId", typeID, "alias", target)
		typeID = target
	}

	if inst, ok := r.shared[typeID]; ok {
		r.logger.Debug("found shared instance", "typeId", typeID)
		r.constructed(ctx, typeID, observability.ViaShared)
		return inst, nil
	}

	if factory, ok := r.delegates[typeID]; ok {
		r.logger.Debug("found delegate", "typeId", typeID)
		inst, err := r.invoke(ctx, factory, Overrides{DelegateTypeID: typeID, DelegateOverrides: overrides})
		if err != nil {
			return nil, err
		}
		r.constructed(ctx, typeID, observability.ViaDelegate)
		return inst, nil
	}

	if r.inProgress[typeID] {
		cerr := &errors.CircularDependencyError{TypeID: typeID, InProgress: maps.Clone(r.inProgress)}
		r.logger.Error("circular dependency", "typeId", typeID, "dependencyStack", cerr.Stack())
		return nil, cerr
	}
	r.inProgress[typeID] = true

	overrides = r.mergeConfig(typeID, overrides)

	sig, err := r.introspector.Signature(ctx, typeID, introspect.Constructor)
	if err != nil {
		return nil, err
	}

	r.parents = append(r.parents, typeID)
	args, err := r.resolveArguments(ctx, typeID, introspect.Constructor, sig, overrides)
	r.parents = r.parents[:len(r.parents)-1]
	if err != nil {
		return nil, err
	}

	r.inProgress[typeID] = false

	inst, err := r.introspector.Catalog().Construct(typeID, args)
	if err != nil {
		return nil, err
	}
	r.constructed(ctx, typeID, observability.ViaNew)
	return inst, nil
}

func (r *Resolver) constructed(ctx context.Context, typeID, via string) {
	parent := ""
	if n := len(r.parents); n > 0 {
		parent = r.parents[n-1]
	}
	observability.Resolver().OnConstruct(ctx, parent, typeID, via)
}

// mergeConfig adds the configured overrides of typeID for keys absent from
// overrides in both plain and ":" form. overrides itself is not modified.
func (r *Resolver) mergeConfig(typeID string, overrides Overrides) Overrides {
	cfg, ok := r.configs[typeID]
	if !ok {
		return overrides
	}
	r.logger.Debug("merging configured arguments", "typeId", typeID)

	merged := make(Overrides, len(overrides)+len(cfg))
	maps.Copy(merged, overrides)
	for key, value := range cfg {
		plain := trimColon(key)
		_, hasPlain := overrides[plain]
		_, hasRef := overrides[":"+plain]
		if !hasPlain && !hasRef {
			merged[key] = value
		}
	}
	return merged
}

func validateOverrides(overrides Overrides) error {
	for key := range overrides {
		if err := errors.ValidateOverrideKey(key); err != nil {
			return err
		}
	}
	return nil
}
