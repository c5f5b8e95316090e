package introspect

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/matzehuels/autowire/pkg/errors"
)

// callFunc invokes fn with positional arguments. Functions taking a single
// parameter object receive a struct filled from args in field order. A nil
// argument for the trailing variadic parameter passes no variadic values.
// Panics and returned errors surface as *errors.InvocationError.
func callFunc(target string, fn reflect.Value, args []any) (result any, err error) {
	ft := fn.Type()
	var in []reflect.Value
	spread := false

	if ft.NumIn() == 1 && !ft.IsVariadic() && isParamObject(ft.In(0)) {
		v, err := fillStruct(target, ft.In(0), args)
		if err != nil {
			return nil, err
		}
		in = []reflect.Value{v}
	} else {
		if len(args) != ft.NumIn() {
			return nil, &errors.InvocationError{
				Target: target,
				Cause:  fmt.Errorf("expected %d arguments, got %d", ft.NumIn(), len(args)),
			}
		}
		for i, a := range args {
			if ft.IsVariadic() && i == ft.NumIn()-1 {
				if a == nil {
					break
				}
				spread = true
			}
			v, err := convertArg(a, ft.In(i))
			if err != nil {
				return nil, &errors.InvocationError{Target: target, Cause: fmt.Errorf("argument %d: %w", i, err)}
			}
			in = append(in, v)
		}
	}

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = &errors.InvocationError{Target: target, Cause: fmt.Errorf("panic: %v", r)}
		}
	}()

	var out []reflect.Value
	if spread {
		out = fn.CallSlice(in)
	} else {
		out = fn.Call(in)
	}
	return results(target, ft, out)
}

func results(target string, ft reflect.Type, out []reflect.Value) (any, error) {
	if len(out) == 0 {
		return nil, nil
	}
	last := len(out) - 1
	if ft.Out(last) != errorType {
		return out[0].Interface(), nil
	}
	if e := out[last]; !e.IsNil() {
		return nil, &errors.InvocationError{Target: target, Cause: e.Interface().(error)}
	}
	if last == 0 {
		return nil, nil
	}
	return out[0].Interface(), nil
}

// fillStruct allocates a value of struct type st and assigns its
// inject-tagged fields from args. The returned value is addressable.
func fillStruct(target string, st reflect.Type, args []any) (reflect.Value, error) {
	fields, err := injectFields(st)
	if err != nil {
		return reflect.Value{}, &errors.InvocationError{Target: target, Cause: err}
	}
	if len(args) != len(fields) {
		return reflect.Value{}, &errors.InvocationError{
			Target: target,
			Cause:  fmt.Errorf("expected %d fields, got %d values", len(fields), len(args)),
		}
	}

	v := reflect.New(st).Elem()
	for i, f := range fields {
		fv, err := convertArg(args[i], f.typ)
		if err != nil {
			return reflect.Value{}, &errors.InvocationError{Target: target, Cause: fmt.Errorf("field %s: %w", f.name, err)}
		}
		v.FieldByIndex(f.index).Set(fv)
	}
	return v, nil
}

// convertArg adapts a resolved value to parameter type t. Values are used
// as-is when assignable, pointers are dereferenced or taken as needed, and
// numeric values are converted between numeric kinds. Untyped JSON and
// YAML shapes are decoded into t.
func convertArg(a any, t reflect.Type) (reflect.Value, error) {
	if a == nil {
		return reflect.Zero(t), nil
	}
	v := reflect.ValueOf(a)
	vt := v.Type()
	switch {
	case vt.AssignableTo(t):
		return v, nil
	case vt.Kind() == reflect.Pointer && !v.IsNil() && vt.Elem().AssignableTo(t):
		return v.Elem(), nil
	case t.Kind() == reflect.Pointer && vt.AssignableTo(t.Elem()):
		p := reflect.New(t.Elem())
		p.Elem().Set(v)
		return p, nil
	case vt.ConvertibleTo(t) && (vt.Kind() == t.Kind() || (isNumeric(vt.Kind()) && isNumeric(t.Kind()))):
		return v.Convert(t), nil
	case isGenericValue(a):
		if rv, err := convertJSON(a, t); err == nil {
			return rv, nil
		}
	}
	return reflect.Value{}, fmt.Errorf("cannot use %s as %s", vt, t)
}

// isGenericValue reports whether a has one of the shapes encoding/json and
// yaml.v3 decode into an untyped destination.
func isGenericValue(a any) bool {
	switch a.(type) {
	case []any, map[string]any, string, float64, bool:
		return true
	}
	return false
}

// convertJSON re-encodes a as JSON and decodes it into a new value of type t.
func convertJSON(a any, t reflect.Type) (reflect.Value, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return reflect.Value{}, err
	}
	v := reflect.New(t)
	if err := json.Unmarshal(data, v.Interface()); err != nil {
		return reflect.Value{}, fmt.Errorf("cannot use %T as %s: %w", a, t, err)
	}
	return v.Elem(), nil
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
