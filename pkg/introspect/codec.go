package introspect

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"time"
)

type storeJSON struct {
	TypeID  string                 `json:"typeId"`
	Methods map[string][]Descriptor `json:"methods"`
}

type descriptorJSON struct {
	Name          string          `json:"name"`
	DeclaredType  string          `json:"declaredType"`
	RelatedTypeID string          `json:"relatedTypeId,omitempty"`
	Optional      bool            `json:"optional"`
	DefaultValue  json.RawMessage `json:"defaultValue"`
}

// scalarTypes maps declared type names to the Go types their default values
// are decoded into. Other declared types decode with encoding/json defaults.
var scalarTypes = map[string]reflect.Type{
	"bool":              reflect.TypeFor[bool](),
	"string":            reflect.TypeFor[string](),
	"int":               reflect.TypeFor[int](),
	"int8":              reflect.TypeFor[int8](),
	"int16":             reflect.TypeFor[int16](),
	"int32":             reflect.TypeFor[int32](),
	"int64":             reflect.TypeFor[int64](),
	"uint":              reflect.TypeFor[uint](),
	"uint8":             reflect.TypeFor[uint8](),
	"uint16":            reflect.TypeFor[uint16](),
	"uint32":            reflect.TypeFor[uint32](),
	"uint64":            reflect.TypeFor[uint64](),
	"float32":           reflect.TypeFor[float32](),
	"float64":           reflect.TypeFor[float64](),
	"time.Duration":     reflect.TypeFor[time.Duration](),
	"[]string":          reflect.TypeFor[[]string](),
	"[]int":             reflect.TypeFor[[]int](),
	"map[string]string": reflect.TypeFor[map[string]string](),
	"map[string]int":    reflect.TypeFor[map[string]int](),
}

// MarshalJSON encodes the store as {"typeId": ..., "methods": {...}}.
// Parameter order is preserved.
func (s *Store) MarshalJSON() ([]byte, error) {
	methods := s.methods
	if methods == nil {
		methods = map[string]Signature{}
	}
	out := storeJSON{TypeID: s.TypeID, Methods: make(map[string][]Descriptor, len(methods))}
	for name, sig := range methods {
		out.Methods[name] = []Descriptor(sig)
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a store produced by MarshalJSON. Default values are
// converted back to the Go type named by the descriptor's declared type.
func (s *Store) UnmarshalJSON(data []byte) error {
	var raw struct {
		TypeID  string                      `json:"typeId"`
		Methods map[string][]descriptorJSON `json:"methods"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	s.TypeID = raw.TypeID
	s.methods = make(map[string]Signature, len(raw.Methods))
	for name, params := range raw.Methods {
		sig := make(Signature, 0, len(params))
		for _, p := range params {
			def, err := decodeDefault(p.DeclaredType, p.DefaultValue)
			if err != nil {
				return fmt.Errorf("decode default of %s::%s(%s): %w", raw.TypeID, name, p.Name, err)
			}
			sig = append(sig, Descriptor{
				Name:          p.Name,
				DeclaredType:  p.DeclaredType,
				RelatedTypeID: p.RelatedTypeID,
				Optional:      p.Optional,
				DefaultValue:  def,
			})
		}
		s.methods[name] = sig
	}
	return nil
}

func decodeDefault(declared string, raw json.RawMessage) (any, error) {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if t, ok := scalarTypes[declared]; ok {
		v := reflect.New(t)
		if err := json.Unmarshal(raw, v.Interface()); err != nil {
			return nil, err
		}
		return v.Elem().Interface(), nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}
