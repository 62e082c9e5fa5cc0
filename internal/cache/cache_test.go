package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func testDriver(t *testing.T, c Client) {
	t.Helper()
	ctx := context.Background()

	if _, err := c.Get(ctx, "nada"); !IsNotFound(err) {
		t.Fatalf("key inexistente: esperaba ErrNotFound, hubo %v", err)
	}

	if err := c.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v != "v" {
		t.Fatalf("Get = %q, esperaba %q", v, "v")
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := c.Get(ctx, "k"); !IsNotFound(err) {
		t.Fatalf("tras Delete: esperaba ErrNotFound, hubo %v", err)
	}

	// delete idempotente
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete repetido: %v", err)
	}

	if err := c.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestMemoryDriver(t *testing.T) {
	c := NewMemory("test")
	defer c.Close()
	testDriver(t, c)
}

func TestMemoryDriver_TTL(t *testing.T) {
	c := NewMemory("")
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "efimera", "x", 30*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(60 * time.Millisecond)
	if _, err := c.Get(ctx, "efimera"); !IsNotFound(err) {
		t.Fatalf("la key debería haber expirado, hubo %v", err)
	}

	// ttl 0 = sin expiración
	if err := c.Set(ctx, "fija", "y", 0); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get(ctx, "fija"); err != nil {
		t.Fatalf("key sin TTL: %v", err)
	}
}

func TestRedisDriver(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := NewRedis(Config{Driver: "redis", Addr: mr.Addr(), Prefix: "test"})
	if err != nil {
		t.Fatalf("NewRedis: %v", err)
	}
	defer c.Close()
	testDriver(t, c)
}

func TestRedisDriver_PrefixesKeys(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := NewRedis(Config{Addr: mr.Addr(), Prefix: "tasknest"})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if err := c.Set(context.Background(), "user:1:session", "v", time.Minute); err != nil {
		t.Fatal(err)
	}
	if !mr.Exists("tasknest:user:1:session") {
		t.Fatal("la key en redis debería llevar el prefijo")
	}
}

func TestRedisDriver_TTL(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := NewRedis(Config{Addr: mr.Addr()})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "efimera", "x", time.Minute); err != nil {
		t.Fatal(err)
	}
	// miniredis avanza el reloj a mano
	mr.FastForward(2 * time.Minute)
	if _, err := c.Get(ctx, "efimera"); !IsNotFound(err) {
		t.Fatalf("la key debería haber expirado, hubo %v", err)
	}
}

func TestNew_DriverSelection(t *testing.T) {
	c, err := New(Config{Driver: "memory"})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if _, ok := c.(*memoryClient); !ok {
		t.Fatalf("esperaba memoryClient, hay %T", c)
	}
}
