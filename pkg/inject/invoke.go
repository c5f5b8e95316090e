package inject

import (
	"context"
	"fmt"

	"github.com/matzehuels/autowire/pkg/introspect"
)

// invokeTypeID labels argument errors of free functions and closures.
const invokeTypeID = "callable"

func (r *Resolver) invoke(ctx context.Context, target any, overrides Overrides) (any, error) {
	if id, ok := target.(string); ok && r.instantiable(id) {
		inst, err := r.Resolve(ctx, id, nil)
		if err != nil {
			return nil, err
		}
		target = inst
	}

	c, err := introspect.CallableOf(target)
	if err != nil {
		return nil, err
	}
	sig, err := r.introspector.CallableSignature(ctx, c)
	if err != nil {
		return nil, err
	}

	typeID, method := describeCallable(c)
	r.logger.Debug("invoking", "typeId", typeID, "methodName", method, "call", r.callID)

	args, err := r.resolveArguments(ctx, typeID, method, sig, overrides)
	if err != nil {
		return nil, err
	}

	if sm, ok := c.(introspect.StaticMethod); ok {
		inst, err := r.resolveDependency(ctx, sm.TypeID, overrides)
		if err != nil {
			return nil, err
		}
		c = sm.Bind(inst)
	}
	return introspect.Call(c, args)
}

// instantiable reports whether id names something Resolve can produce on
// its own, as opposed to a "Type::Method" reference.
func (r *Resolver) instantiable(id string) bool {
	if _, ok := r.aliases[id]; ok {
		return true
	}
	if _, ok := r.shared[id]; ok {
		return true
	}
	if _, ok := r.delegates[id]; ok {
		return true
	}
	t, ok := r.introspector.Catalog().Lookup(id)
	return ok && !t.Abstract()
}

func describeCallable(c introspect.Callable) (typeID, method string) {
	switch x := c.(type) {
	case introspect.StaticMethod:
		return x.TypeID, x.Selector
	case introspect.BoundMethod:
		return introspect.TypeKey(x.Instance), x.Selector
	}
	return invokeTypeID, c.String()
}

func targetName(target any) string {
	switch x := target.(type) {
	case string:
		return x
	case introspect.Callable:
		return x.String()
	}
	if c, err := introspect.CallableOf(target); err == nil {
		return c.String()
	}
	return fmt.Sprintf("%T", target)
}

// Fn wraps fn as a callable whose parameters are named params, in order.
func Fn(fn any, params ...string) introspect.Callable {
	return introspect.Function{Fn: fn, Params: params}
}
