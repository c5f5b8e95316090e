package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation.
// This is useful when several binaries (or several builds of the same binary)
// share one Redis or Mongo backend: type ids are only meaningful within the
// build that registered them.
//
// Example usage:
//
//	// Keys for one release
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "autowire:v1.4.0:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// SignatureKey generates a prefixed signature store key.
func (k *ScopedKeyer) SignatureKey(typeID string) string {
	return k.prefix + k.inner.SignatureKey(typeID)
}
