package introspect

import (
	"reflect"
	"regexp"
	"runtime"
	"strings"

	"github.com/matzehuels/autowire/pkg/errors"
)

// InvokeMethod is the method that makes a value invocable on its own.
const InvokeMethod = "Invoke"

// Callable is a reference to something the resolver can invoke. It is one of
// Function, Closure, StaticMethod or BoundMethod.
type Callable interface {
	String() string
	isCallable()
}

// Function is a package-level function. Params names its parameters
// positionally; Defaults supplies default values by name.
type Function struct {
	Fn       any
	Params   []string
	Defaults map[string]any
}

// Closure is an anonymous function value.
type Closure struct {
	Fn       any
	Params   []string
	Defaults map[string]any
}

// StaticMethod names a method of a catalog type. The resolver builds an
// instance of TypeID first and calls Selector on it.
type StaticMethod struct {
	TypeID   string
	Selector string
}

// BoundMethod is a method of an existing value. When Params is empty the
// parameter names registered for the value's catalog type are used.
type BoundMethod struct {
	Instance any
	Selector string
	Params   []string
	Defaults map[string]any
}

func (Function) isCallable()     {}
func (Closure) isCallable()      {}
func (StaticMethod) isCallable() {}
func (BoundMethod) isCallable()  {}

func (f Function) String() string { return funcName(f.Fn) }
func (c Closure) String() string  { return "closure " + funcName(c.Fn) }
func (s StaticMethod) String() string {
	return s.TypeID + "::" + s.Selector
}
func (b BoundMethod) String() string {
	return TypeKey(b.Instance) + "::" + b.Selector
}

// Bind turns the static method into a method bound to instance.
func (s StaticMethod) Bind(instance any) BoundMethod {
	return BoundMethod{Instance: instance, Selector: s.Selector}
}

var closureName = regexp.MustCompile(`\.func\d+(\.\d+)*$`)

// CallableOf normalizes v into a Callable:
//   - a Callable is returned unchanged
//   - a "Type::Method" string becomes a StaticMethod
//   - a named function becomes a Function, an anonymous one a Closure
//   - a value with an Invoke method becomes a BoundMethod on Invoke
//
// Plain strings are type identifiers, not callables, and are rejected.
func CallableOf(v any) (Callable, error) {
	switch x := v.(type) {
	case nil:
		return nil, errors.New(errors.ErrCodeInvalidInput, "nil is not callable")
	case Callable:
		return x, nil
	case string:
		typeID, selector, ok := strings.Cut(x, "::")
		if !ok || typeID == "" || selector == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "%q is not a Type::Method reference", x)
		}
		return StaticMethod{TypeID: typeID, Selector: selector}, nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Func {
		if rv.IsNil() {
			return nil, errors.New(errors.ErrCodeInvalidInput, "nil function is not callable")
		}
		if closureName.MatchString(funcName(v)) {
			return Closure{Fn: v}, nil
		}
		return Function{Fn: v}, nil
	}
	if rv.MethodByName(InvokeMethod).IsValid() {
		return BoundMethod{Instance: v, Selector: InvokeMethod}, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidInput, "value of type %T is not callable", v)
}

// IsCallable reports whether CallableOf accepts v.
func IsCallable(v any) bool {
	_, err := CallableOf(v)
	return err == nil
}

// Call invokes c with positional arguments. Static methods must be bound to
// an instance first.
func Call(c Callable, args []any) (any, error) {
	fn, err := callTarget(c)
	if err != nil {
		return nil, err
	}
	return callFunc(c.String(), fn, args)
}

func callTarget(c Callable) (reflect.Value, error) {
	switch x := c.(type) {
	case Function:
		return funcValue(x.Fn)
	case Closure:
		return funcValue(x.Fn)
	case BoundMethod:
		if x.Instance == nil {
			return reflect.Value{}, errors.New(errors.ErrCodeInvalidInput, "bound method %s has no instance", x.Selector)
		}
		m := reflect.ValueOf(x.Instance).MethodByName(x.Selector)
		if !m.IsValid() {
			return reflect.Value{}, &errors.LookupError{TypeID: TypeKey(x.Instance), Method: x.Selector, Reason: "no such method"}
		}
		return m, nil
	case StaticMethod:
		return reflect.Value{}, errors.New(errors.ErrCodeUnsupported, "static method %s must be bound to an instance before it is called", x)
	}
	return reflect.Value{}, errors.New(errors.ErrCodeInvalidInput, "unknown callable %T", c)
}

func funcValue(fn any) (reflect.Value, error) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return reflect.Value{}, errors.New(errors.ErrCodeInvalidInput, "%T is not a function", fn)
	}
	return v, nil
}

func funcName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return "<nil>"
	}
	if f := runtime.FuncForPC(v.Pointer()); f != nil {
		return f.Name()
	}
	return v.Type().String()
}
