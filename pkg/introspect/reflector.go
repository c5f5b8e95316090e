package introspect

import (
	"context"
	"fmt"
	"io"
	"reflect"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/autowire/pkg/errors"
)

// Introspector produces parameter signatures for catalog types and callables.
type Introspector interface {
	// Signature returns the signature of method on typeID. Use Constructor
	// for the constructor.
	Signature(ctx context.Context, typeID, method string) (Signature, error)
	// CallableSignature returns the signature of a callable.
	CallableSignature(ctx context.Context, c Callable) (Signature, error)
	// Catalog returns the catalog the introspector reflects from.
	Catalog() *Catalog
}

// containerSource is the lazily populated store lookup shared by Reflector
// and CachedReflector.
type containerSource interface {
	Container(ctx context.Context, typeID string) (*Store, error)
	Reflect(ctx context.Context, store *Store, method string) error
}

func signatureOf(ctx context.Context, src containerSource, typeID, method string) (Signature, error) {
	store, err := src.Container(ctx, typeID)
	if err != nil {
		return nil, err
	}
	if !store.HasMethod(method) {
		if err := src.Reflect(ctx, store, method); err != nil {
			return nil, err
		}
	}
	return store.Signature(method), nil
}

// Option configures a Reflector or CachedReflector.
type Option func(*options)

type options struct {
	logger *log.Logger
	ttl    int
}

// WithLogger sets the logger. The default discards all output.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithTTL sets the cache lifetime of stored signatures in seconds.
// Only CachedReflector uses it.
func WithTTL(seconds int) Option {
	return func(o *options) { o.ttl = seconds }
}

func buildOptions(opts []Option) options {
	o := options{ttl: DefaultTTL}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.New(io.Discard)
	}
	return o
}

// Reflector reflects signatures from a catalog. It keeps no state besides
// the catalog; every Container call returns a new empty store.
type Reflector struct {
	catalog *Catalog
	logger  *log.Logger
}

// NewReflector creates a reflector over catalog.
func NewReflector(catalog *Catalog, opts ...Option) *Reflector {
	o := buildOptions(opts)
	return &Reflector{catalog: catalog, logger: o.logger}
}

// Catalog returns the catalog the reflector reads from.
func (r *Reflector) Catalog() *Catalog {
	return r.catalog
}

// Container returns a new empty store for typeID.
func (r *Reflector) Container(ctx context.Context, typeID string) (*Store, error) {
	r.logger.Debug("create signature store", "typeId", typeID)
	return NewStore(typeID), nil
}

// Reflect reflects exactly one method of the store's type into the store.
func (r *Reflector) Reflect(ctx context.Context, store *Store, method string) error {
	r.logger.Debug("reflect method", "typeId", store.TypeID, "methodName", method)

	t, ok := r.catalog.Lookup(store.TypeID)
	if !ok {
		return &errors.LookupError{TypeID: store.TypeID, Method: method}
	}
	sig, err := r.typeSignature(t, method)
	if err != nil {
		return err
	}
	store.AddMethod(method, sig)
	return nil
}

// Signature returns the signature of method on typeID.
func (r *Reflector) Signature(ctx context.Context, typeID, method string) (Signature, error) {
	return signatureOf(ctx, r, typeID, method)
}

// CallableSignature returns the signature of c. Static methods are looked up
// through Signature.
func (r *Reflector) CallableSignature(ctx context.Context, c Callable) (Signature, error) {
	return callableSignature(ctx, r, c)
}

func callableSignature(ctx context.Context, in Introspector, c Callable) (Signature, error) {
	cat := in.Catalog()
	switch x := c.(type) {
	case StaticMethod:
		return in.Signature(ctx, x.TypeID, x.Selector)
	case Function:
		fn, err := funcValue(x.Fn)
		if err != nil {
			return nil, err
		}
		return funcSignature(classifier{catalog: cat}, fn.Type(), 0, x.Params, x.Defaults)
	case Closure:
		fn, err := funcValue(x.Fn)
		if err != nil {
			return nil, err
		}
		return funcSignature(classifier{catalog: cat}, fn.Type(), 0, x.Params, x.Defaults)
	case BoundMethod:
		if x.Instance == nil {
			return nil, errors.New(errors.ErrCodeInvalidInput, "bound method %s has no instance", x.Selector)
		}
		m := reflect.ValueOf(x.Instance).MethodByName(x.Selector)
		if !m.IsValid() {
			return nil, &errors.LookupError{TypeID: TypeKey(x.Instance), Method: x.Selector, Reason: "no such method"}
		}
		cl := classifier{catalog: cat, self: baseType(reflect.TypeOf(x.Instance))}
		cl.selfID, _ = cat.IDOf(cl.self)
		if cl.selfID == "" {
			cl.selfID = TypeKey(cl.self)
		}
		params, defaults := x.Params, x.Defaults
		if t, ok := cat.Lookup(cl.selfID); ok {
			if len(params) == 0 {
				params = t.methodParams[x.Selector]
			}
			if defaults == nil {
				defaults = t.methodDefaults[x.Selector]
			}
		}
		return funcSignature(cl, m.Type(), 0, params, defaults)
	}
	return nil, errors.New(errors.ErrCodeInvalidInput, "unknown callable %T", c)
}

func (r *Reflector) typeSignature(t *Type, method string) (Signature, error) {
	cl := classifier{catalog: r.catalog, self: baseType(t.Type), selfID: t.ID}

	if method == Constructor {
		switch {
		case t.ctor.IsValid():
			return funcSignature(cl, t.ctor.Type(), 0, t.ctorParams, t.defaults)
		case t.Abstract():
			return nil, &errors.LookupError{TypeID: t.ID, Method: method, Reason: "abstract type has no constructor"}
		}
		return fieldSignature(cl, baseType(t.Type), t.defaults)
	}

	mt, skip, ok := lookupMethod(t, method)
	if !ok {
		return nil, &errors.LookupError{TypeID: t.ID, Method: method, Reason: "no such method"}
	}
	return funcSignature(cl, mt, skip, t.methodParams[method], t.methodDefaults[method])
}

// retype converts the default values of a decoded store back to the Go
// types of the parameters they belong to. JSON keeps only scalars typed, so
// a []float64 default comes back as []any and a time.Time as a string.
func (r *Reflector) retype(store *Store) error {
	t, ok := r.catalog.Lookup(store.TypeID)
	if !ok {
		return nil
	}
	for method, sig := range store.methods {
		var params []param
		if method == Constructor {
			params, ok = constructorParams(t)
		} else {
			params, ok = methodParams(t, method)
		}
		if !ok {
			continue
		}
		types := make(map[string]reflect.Type, len(params))
		for _, p := range params {
			types[p.name] = p.typ
		}

		var out Signature
		for i, d := range sig {
			pt, ok := types[d.Name]
			if !ok || d.DefaultValue == nil || reflect.TypeOf(d.DefaultValue).AssignableTo(pt) {
				continue
			}
			v, err := convertJSON(d.DefaultValue, pt)
			if err != nil {
				return fmt.Errorf("default of %s::%s(%s): %w", store.TypeID, method, d.Name, err)
			}
			if out == nil {
				out = slices.Clone(sig)
			}
			out[i].DefaultValue = v.Interface()
		}
		if out != nil {
			store.methods[method] = out
		}
	}
	return nil
}

// classifier turns Go parameter types into descriptors. self is the
// declaring type, if any, so parameters of that type relate to selfID.
type classifier struct {
	catalog *Catalog
	self    reflect.Type
	selfID  string
}

func funcSignature(cl classifier, ft reflect.Type, skip int, names []string, defaults map[string]any) (Signature, error) {
	n := ft.NumIn() - skip
	if n == 1 && !ft.IsVariadic() && isParamObject(ft.In(skip)) {
		return fieldSignature(cl, ft.In(skip), defaults)
	}

	sig := make(Signature, 0, n)
	for i := range n {
		name := paramName(names, i)
		variadic := ft.IsVariadic() && i == n-1
		d := cl.describe(name, ft.In(skip+i), variadic)
		if def, ok := defaults[name]; ok {
			d.Optional = true
			d.DefaultValue = def
		}
		sig = append(sig, d)
	}
	return sig, nil
}

func fieldSignature(cl classifier, st reflect.Type, defaults map[string]any) (Signature, error) {
	fields, err := injectFields(st)
	if err != nil {
		return nil, &errors.LookupError{TypeID: cl.selfID, Method: Constructor, Reason: err.Error()}
	}
	sig := make(Signature, 0, len(fields))
	for _, f := range fields {
		d := cl.describe(f.name, f.typ, false)
		if f.optional {
			d.Optional = true
		}
		if f.hasDefault {
			d.Optional = true
			d.DefaultValue = f.def
		}
		if def, ok := defaults[f.name]; ok {
			d.Optional = true
			d.DefaultValue = def
		}
		sig = append(sig, d)
	}
	return sig, nil
}

func (cl classifier) describe(name string, t reflect.Type, variadic bool) Descriptor {
	d := Descriptor{Name: name}
	switch {
	case variadic:
		d.DeclaredType = TypeVariadic
	case t == contextType:
		d.DeclaredType = TypeContext
	case isObjectType(t):
		d.DeclaredType = TypeObject
		d.RelatedTypeID = cl.relate(t)
	case t.Kind() == reflect.Interface && t.NumMethod() == 0:
		d.Optional = true
	default:
		d.DeclaredType = t.String()
		d.Optional = nilable(t.Kind())
	}
	return d
}

func (cl classifier) relate(t reflect.Type) string {
	if cl.self != nil && baseType(t) == cl.self {
		return cl.selfID
	}
	return cl.catalog.relate(t)
}

func isObjectType(t reflect.Type) bool {
	base := baseType(t)
	switch {
	case base == timeType || t == errorType:
		return false
	case t.Kind() == reflect.Interface:
		return t.NumMethod() > 0
	case base.Kind() == reflect.Struct:
		return t == base || t.Elem() == base
	}
	return false
}

func nilable(k reflect.Kind) bool {
	switch k {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan, reflect.Interface:
		return true
	}
	return false
}
