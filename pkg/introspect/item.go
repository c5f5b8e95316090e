package introspect

import (
	"time"

	"github.com/matzehuels/autowire/pkg/errors"
)

// timeNow is replaced in tests.
var timeNow = time.Now

// Item is a cache entry holding the signature store of one type.
type Item struct {
	key      string
	hasValue bool
	value    *Store
	expires  *time.Time
}

// NewItem creates an empty item for key. Use Set to give it a value.
func NewItem(key string) *Item {
	return &Item{key: key}
}

// NewStoredItem creates an item holding store that expires at expires.
// A nil expires never expires.
func NewStoredItem(store *Store, expires *time.Time) *Item {
	return &Item{key: store.TypeID, hasValue: true, value: store, expires: expires}
}

// Key returns the item's key.
func (i *Item) Key() string {
	return i.key
}

// Get returns the stored value, or nil when the item is not a hit.
func (i *Item) Get() *Store {
	if !i.IsHit() {
		return nil
	}
	return i.value
}

// IsHit reports whether the item holds a value that has not expired.
func (i *Item) IsHit() bool {
	if i.IsExpired() {
		return false
	}
	return i.hasValue
}

// IsExpired reports whether an expiry is set and has been reached.
func (i *Item) IsExpired() bool {
	if i.expires == nil {
		return false
	}
	return !i.expires.After(timeNow())
}

// Set stores value. An item that was not a hit becomes one with no expiry.
func (i *Item) Set(value *Store) *Item {
	i.value = value
	if !i.IsHit() {
		i.hasValue = true
		i.expires = nil
	}
	return i
}

// ExpiresAt sets the expiry instant. expiration must be a time.Time, a
// *time.Time or nil; nil means the item never expires.
func (i *Item) ExpiresAt(expiration any) error {
	switch v := expiration.(type) {
	case nil:
		i.expires = nil
	case time.Time:
		i.expires = &v
	case *time.Time:
		if v == nil {
			i.expires = nil
			break
		}
		t := *v
		i.expires = &t
	default:
		return &errors.InvalidExpiryError{Value: expiration}
	}
	return nil
}

// ExpiresAfter sets the expiry relative to now. d is a number of seconds
// (int) or a time.Duration; any other value clears the expiry.
func (i *Item) ExpiresAfter(d any) *Item {
	var t time.Time
	switch v := d.(type) {
	case int:
		t = timeNow().Add(time.Duration(v) * time.Second)
	case time.Duration:
		t = timeNow().Add(v)
	default:
		i.expires = nil
		return i
	}
	i.expires = &t
	return i
}

// Expiry returns the expiry instant, or nil if the item never expires.
func (i *Item) Expiry() *time.Time {
	return i.expires
}
