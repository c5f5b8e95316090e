package introspect

import (
	"context"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/autowire/pkg/errors"
)

// In marks a struct as a parameter object. A function whose only parameter
// is a struct embedding In has the struct's inject-tagged fields as its
// signature, and invocation fills the struct.
//
//	type ServerParams struct {
//	    introspect.In
//	    Logger *Logger `inject:"logger"`
//	    Port   int     `inject:"port" default:"8080"`
//	}
type In struct{}

var (
	inType      = reflect.TypeFor[In]()
	contextType = reflect.TypeFor[context.Context]()
	errorType   = reflect.TypeFor[error]()
	timeType    = reflect.TypeFor[time.Time]()
)

// TypeKey derives the identifier of a Go type: its package path and name
// joined by a dot. Pointers are dereferenced, so T and *T share a key.
// v may be a value, a typed nil pointer such as (*Iface)(nil), or a
// reflect.Type.
func TypeKey(v any) string {
	t, ok := v.(reflect.Type)
	if !ok {
		t = reflect.TypeOf(v)
	}
	if t == nil {
		return ""
	}
	t = baseType(t)
	if t.Name() == "" {
		return t.String()
	}
	if t.PkgPath() == "" {
		return t.Name()
	}
	return t.PkgPath() + "." + t.Name()
}

func baseType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// Type is a catalog entry.
type Type struct {
	ID string
	// Type is the Go type instances are produced as: *T, T, or an interface
	// type for abstract identifiers.
	Type reflect.Type

	ctor           reflect.Value
	ctorParams     []string
	defaults       map[string]any
	methodParams   map[string][]string
	methodDefaults map[string]map[string]any
	discovered     bool
}

// Abstract reports whether the type cannot be constructed directly. Abstract
// identifiers resolve only through aliases, delegates or shared instances.
func (t *Type) Abstract() bool {
	return t.Type.Kind() == reflect.Interface && !t.ctor.IsValid()
}

// Discovered reports whether the type was registered implicitly because a
// registered type depends on it.
func (t *Type) Discovered() bool {
	return t.discovered
}

// HasConstructor reports whether the type is built by a constructor function
// rather than by field injection.
func (t *Type) HasConstructor() bool {
	return t.ctor.IsValid()
}

// TypeOption configures a catalog entry.
type TypeOption func(*Type)

// WithID registers the type under id instead of its TypeKey.
func WithID(id string) TypeOption {
	return func(t *Type) { t.ID = id }
}

// WithConstructor builds the type with fn, a function returning T, *T or
// (T, error). Parameter names are given positionally; unnamed parameters are
// called p0, p1, and so on.
func WithConstructor(fn any, params ...string) TypeOption {
	return func(t *Type) {
		t.ctor = reflect.ValueOf(fn)
		t.ctorParams = params
	}
}

// WithDefaults supplies constructor default values keyed by parameter name.
// Parameters with a default are optional.
func WithDefaults(defaults map[string]any) TypeOption {
	return func(t *Type) {
		if t.defaults == nil {
			t.defaults = make(map[string]any)
		}
		maps.Copy(t.defaults, defaults)
	}
}

// WithMethod names the parameters of method.
func WithMethod(method string, params ...string) TypeOption {
	return func(t *Type) {
		if t.methodParams == nil {
			t.methodParams = make(map[string][]string)
		}
		t.methodParams[method] = params
	}
}

// WithMethodDefaults supplies default values for the parameters of method.
func WithMethodDefaults(method string, defaults map[string]any) TypeOption {
	return func(t *Type) {
		if t.methodDefaults == nil {
			t.methodDefaults = make(map[string]map[string]any)
		}
		if t.methodDefaults[method] == nil {
			t.methodDefaults[method] = make(map[string]any)
		}
		maps.Copy(t.methodDefaults[method], defaults)
	}
}

// Catalog is the registration table introspectors reflect from. It is safe
// for concurrent use.
type Catalog struct {
	mu     sync.RWMutex
	types  map[string]*Type
	byType map[reflect.Type]string
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		types:  make(map[string]*Type),
		byType: make(map[reflect.Type]string),
	}
}

// Register adds the type of v to the catalog and returns its identifier.
// v is a struct, a pointer to a struct, a typed nil interface pointer such
// as (*Iface)(nil), or a reflect.Type. Registering an identifier twice
// replaces the earlier entry.
func (c *Catalog) Register(v any, opts ...TypeOption) (string, error) {
	t, err := newType(v, opts)
	if err != nil {
		return "", err
	}
	c.mu.Lock()
	base := baseType(t.Type)
	if old, ok := c.byType[base]; ok && old != t.ID && c.types[old].discovered {
		delete(c.types, old)
	}
	c.types[t.ID] = t
	c.byType[base] = t.ID
	c.mu.Unlock()

	c.discover(t)
	return t.ID, nil
}

// MustRegister is like Register but panics on error.
func (c *Catalog) MustRegister(v any, opts ...TypeOption) string {
	id, err := c.Register(v, opts...)
	if err != nil {
		panic(err)
	}
	return id
}

func newType(v any, opts []TypeOption) (*Type, error) {
	if v == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "cannot register untyped nil")
	}
	rt, ok := v.(reflect.Type)
	if !ok {
		rt = reflect.TypeOf(v)
	}
	if rt.Kind() == reflect.Pointer && rt.Elem().Kind() == reflect.Interface {
		rt = rt.Elem()
	}

	t := &Type{ID: TypeKey(rt), Type: rt}
	for _, opt := range opts {
		opt(t)
	}
	if err := errors.ValidateTypeID(t.ID); err != nil {
		return nil, err
	}

	if t.ctor.IsValid() {
		if err := checkConstructor(t.ctor); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "register %s", t.ID)
		}
		return t, nil
	}
	switch base := baseType(rt); {
	case rt.Kind() == reflect.Interface:
	case base.Kind() == reflect.Struct:
		if _, err := injectFields(base); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "register %s", t.ID)
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"register %s: %s is not a struct or interface and has no constructor", t.ID, rt)
	}
	return t, nil
}

func checkConstructor(fn reflect.Value) error {
	if fn.Kind() != reflect.Func || fn.IsNil() {
		return fmt.Errorf("constructor must be a non-nil function, got %s", fn.Type())
	}
	ft := fn.Type()
	switch {
	case ft.NumOut() == 1 && ft.Out(0) != errorType:
		return nil
	case ft.NumOut() == 2 && ft.Out(1) == errorType:
		return nil
	}
	return fmt.Errorf("constructor %s must return T or (T, error)", ft)
}

// Lookup returns the entry registered under id.
func (c *Catalog) Lookup(id string) (*Type, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.types[id]
	return t, ok
}

// IDOf returns the identifier a Go type is registered under.
func (c *Catalog) IDOf(t reflect.Type) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.byType[baseType(t)]
	return id, ok
}

// IDs returns every registered identifier in sorted order, implicitly
// discovered types included.
func (c *Catalog) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Sorted(maps.Keys(c.types))
}

// relate returns the identifier of an object-typed parameter. Unregistered
// struct types are registered on the fly so they can be constructed by
// field injection.
func (c *Catalog) relate(t reflect.Type) string {
	id, added := c.relateType(t)
	if added != nil {
		c.discover(added)
	}
	return id
}

func (c *Catalog) relateType(t reflect.Type) (string, *Type) {
	if id, ok := c.IDOf(t); ok {
		return id, nil
	}
	if baseType(t).Kind() != reflect.Struct {
		return TypeKey(t), nil
	}
	nt, err := newType(t, nil)
	if err != nil {
		return TypeKey(t), nil
	}
	nt.discovered = true

	c.mu.Lock()
	defer c.mu.Unlock()
	if id, ok := c.byType[baseType(t)]; ok {
		return id, nil
	}
	c.types[nt.ID] = nt
	c.byType[baseType(t)] = nt.ID
	return nt.ID, nt
}

// discover registers the unregistered struct types t depends on, and
// theirs in turn. Catalog contents then do not depend on which signatures
// were reflected, so a type whose store comes from a persisted cache can
// still construct its dependencies.
func (c *Catalog) discover(t *Type) {
	for _, dep := range dependencyTypes(t) {
		if isObjectType(dep) {
			c.relate(dep)
		}
	}
}

// dependencyTypes returns the parameter types of t's constructor and of its
// named methods.
func dependencyTypes(t *Type) []reflect.Type {
	var deps []reflect.Type
	if ctor, ok := constructorParams(t); ok {
		for _, p := range ctor {
			deps = append(deps, p.typ)
		}
	}
	methods := slices.Sorted(maps.Keys(t.methodParams))
	for m := range t.methodDefaults {
		if !slices.Contains(methods, m) {
			methods = append(methods, m)
		}
	}
	for _, m := range methods {
		params, _ := methodParams(t, m)
		for _, p := range params {
			deps = append(deps, p.typ)
		}
	}
	return deps
}

// param is a named parameter type.
type param struct {
	name string
	typ  reflect.Type
}

// constructorParams returns the constructor parameters of t in signature
// order. It reports false for abstract types.
func constructorParams(t *Type) ([]param, bool) {
	switch {
	case t.ctor.IsValid():
		return funcParams(t.ctor.Type(), 0, t.ctorParams), true
	case t.Abstract():
		return nil, false
	}
	fields, err := injectFields(baseType(t.Type))
	if err != nil {
		return nil, false
	}
	return fieldParams(fields), true
}

// methodParams returns the parameters of method on t.
func methodParams(t *Type, method string) ([]param, bool) {
	mt, skip, ok := lookupMethod(t, method)
	if !ok {
		return nil, false
	}
	return funcParams(mt, skip, t.methodParams[method]), true
}

// lookupMethod returns the function type of method and the number of
// leading receiver parameters to skip. Interface method types carry no
// receiver; concrete ones do.
func lookupMethod(t *Type, method string) (reflect.Type, int, bool) {
	if t.Type.Kind() == reflect.Interface {
		m, ok := t.Type.MethodByName(method)
		return m.Type, 0, ok
	}
	m, ok := reflect.PointerTo(baseType(t.Type)).MethodByName(method)
	return m.Type, 1, ok
}

func funcParams(ft reflect.Type, skip int, names []string) []param {
	n := ft.NumIn() - skip
	if n == 1 && !ft.IsVariadic() && isParamObject(ft.In(skip)) {
		fields, err := injectFields(ft.In(skip))
		if err != nil {
			return nil
		}
		return fieldParams(fields)
	}
	params := make([]param, 0, n)
	for i := range n {
		params = append(params, param{name: paramName(names, i), typ: ft.In(skip + i)})
	}
	return params
}

func fieldParams(fields []injectField) []param {
	params := make([]param, 0, len(fields))
	for _, f := range fields {
		params = append(params, param{name: f.name, typ: f.typ})
	}
	return params
}

func paramName(names []string, i int) string {
	if i < len(names) && names[i] != "" {
		return names[i]
	}
	return fmt.Sprintf("p%d", i)
}

// Construct builds a new instance of id from positional arguments in the
// order of its constructor signature.
func (c *Catalog) Construct(id string, args []any) (any, error) {
	t, ok := c.Lookup(id)
	if !ok {
		return nil, &errors.LookupError{TypeID: id, Method: Constructor}
	}
	if t.ctor.IsValid() {
		return callFunc(id+"::"+Constructor, t.ctor, args)
	}
	if t.Abstract() {
		return nil, &errors.LookupError{TypeID: id, Method: Constructor, Reason: "abstract type has no constructor"}
	}

	base := baseType(t.Type)
	v, err := fillStruct(id, base, args)
	if err != nil {
		return nil, err
	}
	if t.Type.Kind() == reflect.Pointer {
		return v.Addr().Interface(), nil
	}
	return v.Interface(), nil
}

// injectField is a struct field taking part in field injection.
type injectField struct {
	index      []int
	name       string
	typ        reflect.Type
	optional   bool
	hasDefault bool
	def        any
}

// injectFields returns the inject-tagged fields of st in declaration order.
func injectFields(st reflect.Type) ([]injectField, error) {
	var fields []injectField
	for i := range st.NumField() {
		f := st.Field(i)
		if f.Anonymous && f.Type == inType {
			continue
		}
		tag, ok := f.Tag.Lookup("inject")
		if !ok || tag == "-" {
			continue
		}
		if !f.IsExported() {
			return nil, fmt.Errorf("field %s.%s is unexported and cannot be injected", st.Name(), f.Name)
		}

		name, flags, _ := strings.Cut(tag, ",")
		if name == "" {
			name = lowerFirst(f.Name)
		}
		field := injectField{
			index:    f.Index,
			name:     name,
			typ:      f.Type,
			optional: flags == "optional",
		}
		if raw, ok := f.Tag.Lookup("default"); ok {
			def, err := decodeTagDefault(raw, f.Type)
			if err != nil {
				return nil, fmt.Errorf("field %s.%s: default %q: %w", st.Name(), f.Name, raw, err)
			}
			field.hasDefault = true
			field.def = def
		}
		fields = append(fields, field)
	}
	return fields, nil
}

// decodeTagDefault decodes a default struct tag into a value of type t.
// Tags use YAML flow syntax, so lists and maps work as well as scalars:
// default:"8080", default:"[a, b]", default:"{k: v}".
func decodeTagDefault(raw string, t reflect.Type) (any, error) {
	v := reflect.New(t)
	if t.Kind() == reflect.String {
		v.Elem().SetString(raw)
		return v.Elem().Interface(), nil
	}
	if err := yaml.Unmarshal([]byte(raw), v.Interface()); err != nil {
		return nil, err
	}
	return v.Elem().Interface(), nil
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func isParamObject(t reflect.Type) bool {
	if t.Kind() != reflect.Struct {
		return false
	}
	for i := range t.NumField() {
		if f := t.Field(i); f.Anonymous && f.Type == inType {
			return true
		}
	}
	return false
}
