package configs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
)

func newTestRedisStorage(t *testing.T) (*RedisStorage, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewRedisClient(context.Background(), RedisConfig{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("NewRedisClient: %v", err)
	}
	storage := NewRedisStorage(client)
	t.Cleanup(func() { _ = storage.Close() })
	return storage, mr
}

func TestRedisStorageGetMiss(t *testing.T) {
	storage, _ := newTestRedisStorage(t)

	for _, key := range []string{"missing", ""} {
		val, err := storage.Get(key)
		if val != nil || err != nil {
			t.Errorf("Get(%q) = %q, %v; want nil, nil", key, val, err)
		}
	}
}

func TestRedisStorageSetGetExpiry(t *testing.T) {
	storage, mr := newTestRedisStorage(t)

	if err := storage.Set("abc", []byte("data"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !mr.Exists("session:abc") {
		t.Fatal("key not stored under the session: prefix")
	}
	if ttl := mr.TTL("session:abc"); ttl != time.Minute {
		t.Errorf("TTL = %s, want 1m", ttl)
	}
	val, err := storage.Get("abc")
	if err != nil || string(val) != "data" {
		t.Fatalf("Get = %q, %v", val, err)
	}

	mr.FastForward(2 * time.Minute)
	if val, err := storage.Get("abc"); val != nil || err != nil {
		t.Errorf("Get after expiry = %q, %v", val, err)
	}

	if err := storage.Set("forever", []byte("x"), 0); err != nil {
		t.Fatalf("Set without expiry: %v", err)
	}
	if ttl := mr.TTL("session:forever"); ttl != 0 {
		t.Errorf("TTL without expiry = %s", ttl)
	}

	if err := storage.Set("empty", nil, time.Minute); err != nil || mr.Exists("session:empty") {
		t.Errorf("empty value stored: err = %v", err)
	}
}

func TestRedisStorageDelete(t *testing.T) {
	storage, mr := newTestRedisStorage(t)
	_ = storage.Set("abc", []byte("data"), time.Minute)

	if err := storage.Delete("abc"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if mr.Exists("session:abc") {
		t.Error("key still present after Delete")
	}
	if err := storage.Delete("missing"); err != nil {
		t.Errorf("Delete(missing) = %v", err)
	}
}

func TestRedisStorageResetKeepsForeignKeys(t *testing.T) {
	storage, mr := newTestRedisStorage(t)

	// more than one SCAN/DEL batch
	for i := 0; i < 250; i++ {
		if err := storage.Set(fmt.Sprintf("s%d", i), []byte("v"), time.Hour); err != nil {
			t.Fatal(err)
		}
	}
	if err := mr.Set("cache:menu", "kept"); err != nil {
		t.Fatal(err)
	}

	if err := storage.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	keys := mr.Keys()
	if len(keys) != 1 || keys[0] != "cache:menu" {
		t.Errorf("keys after Reset = %v", keys)
	}
}

func TestSessionStoreOnRedis(t *testing.T) {
	storage, mr := newTestRedisStorage(t)
	store := SetupSession(&AppConfig{SessionExpiration: time.Hour}, storage)

	app := fiber.New()
	app.Get("/set", func(c *fiber.Ctx) error {
		sess, err := store.Get(c)
		if err != nil {
			return err
		}
		sess.Set("user_id", "p1")
		return sess.Save()
	})
	app.Get("/get", func(c *fiber.Ctx) error {
		sess, err := store.Get(c)
		if err != nil {
			return err
		}
		id, _ := sess.Get("user_id").(string)
		return c.SendString(id)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/set", nil))
	if err != nil {
		t.Fatal(err)
	}
	var cookie string
	for _, c := range resp.Cookies() {
		if c.Name == SessionCookieName {
			cookie = c.Value
		}
	}
	if cookie == "" || !mr.Exists("session:"+cookie) {
		t.Fatalf("session %q not persisted in redis (keys %v)", cookie, mr.Keys())
	}

	req := httptest.NewRequest(http.MethodGet, "/get", nil)
	req.Header.Set("Cookie", SessionCookieName+"="+cookie)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	if got := string(body); got != "p1" {
		t.Errorf("session value read back = %q, want p1", got)
	}
}
