package introspect

import (
	"maps"
	"slices"
)

// Constructor is the reserved method name under which a type's constructor
// signature is stored.
const Constructor = "constructor"

// Declared types with special meaning to the resolver.
const (
	TypeObject   = "object"   // parameter is a constructible type, see RelatedTypeID
	TypeVariadic = "variadic" // trailing variadic parameter
	TypeContext  = "context"  // receives the context of the active call
)

// Descriptor describes a single parameter of a constructor or method.
// Descriptors are immutable once produced by an introspector.
type Descriptor struct {
	Name          string `json:"name"`
	DeclaredType  string `json:"declaredType"`
	RelatedTypeID string `json:"relatedTypeId,omitempty"`
	Optional      bool   `json:"optional"`
	DefaultValue  any    `json:"defaultValue"`
}

// IsObject reports whether the parameter refers to another constructible type.
func (d Descriptor) IsObject() bool {
	return d.RelatedTypeID != ""
}

// Signature is the ordered parameter list of one method.
type Signature []Descriptor

// Lookup returns the descriptor with the given parameter name.
func (s Signature) Lookup(name string) (Descriptor, bool) {
	for _, d := range s {
		if d.Name == name {
			return d, true
		}
	}
	return Descriptor{}, false
}

// Names returns the parameter names in declaration order.
func (s Signature) Names() []string {
	names := make([]string, len(s))
	for i, d := range s {
		names[i] = d.Name
	}
	return names
}

// Store holds the reflected signatures of one type, keyed by method name.
// Methods are added lazily as they are first requested.
//
// A Store is not safe for concurrent mutation.
type Store struct {
	TypeID  string
	methods map[string]Signature
}

// NewStore creates an empty store for typeID.
func NewStore(typeID string) *Store {
	return &Store{TypeID: typeID, methods: make(map[string]Signature)}
}

// HasMethod reports whether method has already been reflected.
func (s *Store) HasMethod(method string) bool {
	_, ok := s.methods[method]
	return ok
}

// AddMethod records the signature of method, replacing any previous one.
// A nil signature is stored as an empty one so HasMethod reports true.
func (s *Store) AddMethod(method string, sig Signature) *Store {
	if s.methods == nil {
		s.methods = make(map[string]Signature)
	}
	if sig == nil {
		sig = Signature{}
	}
	s.methods[method] = sig
	return s
}

// AddParameter appends a descriptor to the signature of method, creating the
// method entry if needed. A descriptor with the same name is replaced in place.
func (s *Store) AddParameter(method string, d Descriptor) *Store {
	sig := slices.Clone(s.methods[method])
	if i := slices.IndexFunc(sig, func(x Descriptor) bool { return x.Name == d.Name }); i >= 0 {
		sig[i] = d
	} else {
		sig = append(sig, d)
	}
	return s.AddMethod(method, sig)
}

// Signature returns the signature of method, or an empty signature when the
// method has not been reflected.
func (s *Store) Signature(method string) Signature {
	if sig, ok := s.methods[method]; ok {
		return sig
	}
	return Signature{}
}

// Methods returns the reflected method names in sorted order.
func (s *Store) Methods() []string {
	return slices.Sorted(maps.Keys(s.methods))
}
