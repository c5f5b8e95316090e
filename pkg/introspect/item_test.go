package introspect

import (
	stderrors "errors"
	"testing"
	"time"

	"github.com/matzehuels/autowire/pkg/errors"
)

func withFrozenTime(t *testing.T, at time.Time) *time.Time {
	t.Helper()
	now := at
	old := timeNow
	timeNow = func() time.Time { return now }
	t.Cleanup(func() { timeNow = old })
	return &now
}

func TestItemEmpty(t *testing.T) {
	item := NewItem("app.Server")
	if item.Key() != "app.Server" {
		t.Errorf("Key() = %s", item.Key())
	}
	if item.IsHit() {
		t.Error("empty item should not be a hit")
	}
	if item.Get() != nil {
		t.Error("Get() should be nil for a miss")
	}
	if item.IsExpired() {
		t.Error("item without expiry should not be expired")
	}
}

func TestItemHitAndExpiry(t *testing.T) {
	now := withFrozenTime(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	store := NewStore("app.Server")

	item := NewItem("app.Server").Set(store)
	if !item.IsHit() || item.Get() != store {
		t.Fatal("Set should make the item a hit")
	}

	if err := item.ExpiresAt(now.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	if !item.IsHit() {
		t.Error("item should be a hit before its expiry")
	}

	*now = now.Add(time.Minute)
	if !item.IsExpired() {
		t.Error("item should be expired at its expiry instant")
	}
	if item.IsHit() || item.Get() != nil {
		t.Error("expired item should not be a hit")
	}
}

func TestItemSetClearsExpiryOfMiss(t *testing.T) {
	now := withFrozenTime(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	item := NewItem("k")
	past := now.Add(-time.Second)
	if err := item.ExpiresAt(past); err != nil {
		t.Fatal(err)
	}
	item.Set(NewStore("k"))
	if item.Expiry() != nil {
		t.Error("Set on a miss should clear the expiry")
	}
	if !item.IsHit() {
		t.Error("item should be a hit after Set")
	}

	// A hit keeps its expiry.
	future := now.Add(time.Hour)
	_ = item.ExpiresAt(&future)
	item.Set(NewStore("k"))
	if item.Expiry() == nil || !item.Expiry().Equal(future) {
		t.Errorf("Set on a hit should keep the expiry, got %v", item.Expiry())
	}
}

func TestItemExpiresAtRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		v    any
		ok   bool
	}{
		{"time", time.Now(), true},
		{"time pointer", new(time.Time), true},
		{"nil time pointer", (*time.Time)(nil), true},
		{"nil", nil, true},
		{"string", "tomorrow", false},
		{"int", 42, false},
		{"duration", time.Hour, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewItem("k").ExpiresAt(tt.v)
			if tt.ok {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			var expiryErr *errors.InvalidExpiryError
			if !stderrors.As(err, &expiryErr) {
				t.Fatalf("want InvalidExpiryError, got %v", err)
			}
			if !errors.Is(err, errors.ErrCodeInvalidExpiry) {
				t.Errorf("code = %s", errors.GetCode(err))
			}
		})
	}
}

func TestItemExpiresAfter(t *testing.T) {
	now := withFrozenTime(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	item := NewItem("k").ExpiresAfter(60)
	if want := now.Add(time.Minute); item.Expiry() == nil || !item.Expiry().Equal(want) {
		t.Errorf("ExpiresAfter(60) = %v, want %v", item.Expiry(), want)
	}

	item.ExpiresAfter(2 * time.Hour)
	if want := now.Add(2 * time.Hour); !item.Expiry().Equal(want) {
		t.Errorf("ExpiresAfter(2h) = %v, want %v", item.Expiry(), want)
	}

	item.ExpiresAfter("soon")
	if item.Expiry() != nil {
		t.Error("unsupported values should clear the expiry")
	}
}
