package inject

import (
	"context"
	"slices"
	"strings"

	"github.com/matzehuels/autowire/pkg/errors"
	"github.com/matzehuels/autowire/pkg/introspect"
)

// resolveArguments produces the positional arguments for sig.
func (r *Resolver) resolveArguments(ctx context.Context, typeID, method string, sig introspect.Signature, overrides Overrides) ([]any, error) {
	args := make([]any, 0, len(sig))
	for _, d := range sig {
		v, err := r.resolveArgument(ctx, typeID, method, d, overrides)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return args, nil
}

func (r *Resolver) resolveArgument(ctx context.Context, typeID, method string, d introspect.Descriptor, overrides Overrides) (any, error) {
	if ref, ok := lookup(overrides, ":"+d.Name); ok {
		return r.resolveReference(ctx, d.Name, ref, overrides)
	}
	if v, ok := lookup(overrides, d.Name); ok {
		return v, nil
	}
	if d.DeclaredType == introspect.TypeContext {
		return ctx, nil
	}
	if d.RelatedTypeID != "" {
		return r.resolveDependency(ctx, d.RelatedTypeID, overrides)
	}
	if d.Optional {
		return d.DefaultValue, nil
	}

	err := &errors.MissingArgumentError{TypeID: typeID, Method: method, Param: d.Name, DeclaredType: d.DeclaredType}
	r.logger.Error("missing argument", "typeId", typeID, "methodName", method, "param", d.Name,
		"dependencyStack", activeTypes(r.inProgress))
	return nil, err
}

// resolveReference interprets a ":"-prefixed override: callables are
// invoked, strings are resolved as type identifiers.
func (r *Resolver) resolveReference(ctx context.Context, name string, ref any, overrides Overrides) (any, error) {
	if introspect.IsCallable(ref) {
		return r.invoke(ctx, ref, overrides)
	}
	if id, ok := ref.(string); ok {
		return r.resolveDependency(ctx, id, overrides)
	}
	return nil, errors.New(errors.ErrCodeInvalidInput,
		"override %q must be a type id or a callable, got %T", ":"+name, ref)
}

// lookup reports whether key is set to a non-nil value.
func lookup(overrides Overrides, key string) (any, bool) {
	v, ok := overrides[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// activeTypes returns the sorted identifiers currently marked in progress.
func activeTypes(inProgress map[string]bool) []string {
	var ids []string
	for id, active := range inProgress {
		if active {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

func trimColon(key string) string {
	return strings.TrimLeft(key, ":")
}
