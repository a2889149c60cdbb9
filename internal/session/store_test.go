package session

import (
	"context"
	"testing"
	"time"

	"aerokit/internal/domain/accesscontrol"

	miniredis "github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

var ana = accesscontrol.Principal{ID: 7, Name: "Ana", Email: "ana@example.com", Role: accesscontrol.RoleAdmin}

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store, err := NewRedisStore(client, "sid-1", time.Hour)
	if err != nil {
		t.Fatalf("new redis store: %v", err)
	}
	return store, mr
}

func storesUnderTest(t *testing.T) map[string]Store {
	rs, _ := newRedisStore(t)
	return map[string]Store{
		"memory": NewMemoryStore(),
		"redis":  rs,
	}
}

func TestStoreSaveLoadClear(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			snap, err := store.Load(ctx)
			if err != nil || snap.Valid() || snap.Token != "" || snap.User != nil {
				t.Fatalf("empty store loaded %+v, %v", snap, err)
			}

			if err := store.Save(ctx, "tok-1", ana); err != nil {
				t.Fatalf("save: %v", err)
			}
			snap, err = store.Load(ctx)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if !snap.Valid() || snap.Token != "tok-1" || *snap.User != ana {
				t.Fatalf("unexpected snapshot %+v", snap)
			}

			if err := store.Clear(ctx); err != nil {
				t.Fatalf("clear: %v", err)
			}
			if err := store.Clear(ctx); err != nil {
				t.Fatalf("second clear should be a no-op: %v", err)
			}
			snap, _ = store.Load(ctx)
			if snap.Token != "" || snap.User != nil {
				t.Fatalf("cleared store still holds %+v", snap)
			}
		})
	}
}

func TestStoreClearIfToken(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := store.Save(ctx, "tok-new", ana); err != nil {
				t.Fatalf("save: %v", err)
			}

			cleared, err := store.ClearIfToken(ctx, "tok-old")
			if err != nil || cleared {
				t.Fatalf("stale token cleared=%v err=%v", cleared, err)
			}
			if tok, _ := store.Token(ctx); tok != "tok-new" {
				t.Fatalf("session was touched by a stale token: %q", tok)
			}

			cleared, err = store.ClearIfToken(ctx, "tok-new")
			if err != nil || !cleared {
				t.Fatalf("current token cleared=%v err=%v", cleared, err)
			}
			cleared, _ = store.ClearIfToken(ctx, "tok-new")
			if cleared {
				t.Fatal("second ClearIfToken must report false")
			}
		})
	}
}

func TestStoreFlagsAreOneShot(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if ok, _ := store.ConsumeFlag(ctx, FlagRecentlyLoggedOut); ok {
				t.Fatal("flag set on a fresh store")
			}
			if err := store.SetFlag(ctx, FlagRecentlyLoggedOut); err != nil {
				t.Fatalf("set flag: %v", err)
			}
			if ok, _ := store.ConsumeFlag(ctx, FlagRecentlyLoggedOut); !ok {
				t.Fatal("flag not seen")
			}
			if ok, _ := store.ConsumeFlag(ctx, FlagRecentlyLoggedOut); ok {
				t.Fatal("flag seen twice")
			}

			if err := store.SetReturnPath(ctx, "/admin/dashboard"); err != nil {
				t.Fatalf("set return path: %v", err)
			}
			if p, _ := store.ConsumeReturnPath(ctx); p != "/admin/dashboard" {
				t.Fatalf("return path = %q", p)
			}
			if p, err := store.ConsumeReturnPath(ctx); p != "" || err != nil {
				t.Fatalf("return path consumed twice: %q, %v", p, err)
			}
		})
	}
}

func TestCorruptUserLoadsAsAbsent(t *testing.T) {
	cases := map[string]string{
		"not json":     "{oops",
		"unknown role": `{"id":1,"name":"Eve","email":"eve@example.com","role":"ROOT"}`,
		"missing id":   `{"name":"Eve","email":"eve@example.com","role":"ADMIN"}`,
	}
	for name, raw := range cases {
		t.Run("memory/"+name, func(t *testing.T) {
			store := NewMemoryStore()
			store.SetItem(keyToken, "tok")
			store.SetItem(keyUser, raw)

			snap, err := store.Load(context.Background())
			if err != nil {
				t.Fatalf("corrupt user must not error: %v", err)
			}
			if snap.User != nil || snap.Valid() {
				t.Fatalf("corrupt user loaded as %+v", snap.User)
			}
		})

		t.Run("redis/"+name, func(t *testing.T) {
			store, mr := newRedisStore(t)
			mr.HSet(store.key, keyToken, "tok", keyUser, raw)

			snap, err := store.Load(context.Background())
			if err != nil {
				t.Fatalf("corrupt user must not error: %v", err)
			}
			if snap.User != nil {
				t.Fatalf("corrupt user loaded as %+v", snap.User)
			}
		})
	}
}

func TestRedisStoreWritesRefreshTTL(t *testing.T) {
	store, mr := newRedisStore(t)
	if err := store.Save(context.Background(), "tok", ana); err != nil {
		t.Fatalf("save: %v", err)
	}
	if ttl := mr.TTL(store.key); ttl != time.Hour {
		t.Fatalf("ttl = %v, want 1h", ttl)
	}

	mr.FastForward(2 * time.Hour)
	snap, _ := store.Load(context.Background())
	if snap.Token != "" {
		t.Fatal("session outlived its TTL")
	}
}

func TestRedisScopedValuesLapseBeforeCredential(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)
	if err := store.Save(ctx, "tok", ana); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.SetFlag(ctx, FlagRecentlyLoggedOut); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	if err := store.SetReturnPath(ctx, "/account"); err != nil {
		t.Fatalf("set return path: %v", err)
	}
	if ttl := mr.TTL(store.scoped); ttl != ScopedTTL {
		t.Fatalf("scoped ttl = %v, want %v", ttl, ScopedTTL)
	}

	mr.FastForward(ScopedTTL + time.Minute)

	if ok, _ := store.ConsumeFlag(ctx, FlagRecentlyLoggedOut); ok {
		t.Fatal("flag outlived the browsing session")
	}
	if path, _ := store.ConsumeReturnPath(ctx); path != "" {
		t.Fatalf("return path outlived the browsing session: %q", path)
	}
	snap, _ := store.Load(ctx)
	if snap.Token != "tok" || snap.User == nil {
		t.Fatalf("credential lost with scoped values: %+v", snap)
	}

	if err := store.SetFlag(ctx, FlagRecentlyLoggedOut); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	if err := store.Destroy(ctx); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	if mr.Exists(store.key) || mr.Exists(store.scoped) {
		t.Fatal("destroy left keys behind")
	}
}

func TestNewRedisStoreValidates(t *testing.T) {
	if _, err := NewRedisStore(nil, "sid", time.Hour); err == nil {
		t.Fatal("expected error for nil client")
	}
	client := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:0"})
	defer client.Close()
	if _, err := NewRedisStore(client, " ", time.Hour); err == nil {
		t.Fatal("expected error for blank sid")
	}
}
