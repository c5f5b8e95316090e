//go:build integration

package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

// exerciseBackend runs the Cache contract against a live backend.
func exerciseBackend(t *testing.T, c Cache) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	key := NewScopedKeyer(NewDefaultKeyer(), "autowire-test:"+uuid.NewString()+":").SignatureKey("demo.Service")
	t.Cleanup(func() { _ = c.Delete(context.Background(), key) })

	if _, hit, err := c.Get(ctx, key); err != nil || hit {
		t.Fatalf("Get() before Set = hit %v, err %v", hit, err)
	}
	if err := c.Set(ctx, key, []byte(`{"typeId":"demo.Service"}`), time.Minute); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	data, hit, err := c.Get(ctx, key)
	if err != nil || !hit {
		t.Fatalf("Get() after Set = hit %v, err %v", hit, err)
	}
	if string(data) != `{"typeId":"demo.Service"}` {
		t.Errorf("Get() = %s", data)
	}
	if err := c.Delete(ctx, key); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, key); hit {
		t.Error("Get() after Delete is a hit")
	}
}

func TestRedisCache_Integration(t *testing.T) {
	addr := os.Getenv("AUTOWIRE_TEST_REDIS")
	if addr == "" {
		t.Skip("AUTOWIRE_TEST_REDIS not set")
	}
	c, err := NewRedisCache(context.Background(), RedisConfig{Addr: addr})
	if err != nil {
		t.Fatalf("NewRedisCache() error: %v", err)
	}
	defer c.Close()
	exerciseBackend(t, c)
}

func TestMongoCache_Integration(t *testing.T) {
	uri := os.Getenv("AUTOWIRE_TEST_MONGO")
	if uri == "" {
		t.Skip("AUTOWIRE_TEST_MONGO not set")
	}
	c, err := NewMongoCache(context.Background(), MongoConfig{URI: uri, Database: "autowire_test"})
	if err != nil {
		t.Fatalf("NewMongoCache() error: %v", err)
	}
	defer c.Close()
	exerciseBackend(t, c)
}
