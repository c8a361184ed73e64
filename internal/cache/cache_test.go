// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// testValkey connects to a scratch database, or skips. VALKEY_HOST and
// VALKEY_PORT override localhost:6379.
func testValkey(t *testing.T) *redis.Client {
	t.Helper()
	host, port := os.Getenv("VALKEY_HOST"), os.Getenv("VALKEY_PORT")
	if host == "" {
		host = "localhost"
	}
	if port == "" {
		port = "6379"
	}
	client, err := ConnectValkey(host, port, os.Getenv("VALKEY_PASSWORD"), 15)
	if err != nil {
		t.Skipf("valkey not available: %v", err)
	}
	ctx := context.Background()
	client.FlushDB(ctx)
	t.Cleanup(func() {
		client.FlushDB(ctx)
		client.Close()
	})
	return client
}

func certificateHTML(names string) []byte {
	return []byte(`<div id="certificate">` + names + `</div>`)
}

func TestExportCacheRoundTrip(t *testing.T) {
	client := testValkey(t)
	ec := NewExportCache(client, time.Minute)
	ctx := context.Background()
	key := ExportKey(certificateHTML("Bruce &amp; Selina"))

	if png, ok := ec.Get(ctx, key); ok || png != nil {
		t.Fatalf("expected a miss, got %v", png)
	}

	png := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a}
	ec.Set(ctx, key, png)

	got, ok := ec.Get(ctx, key)
	if !ok || !bytes.Equal(got, png) {
		t.Fatalf("Get: got (%v, %v)", got, ok)
	}
	if ttl := client.TTL(ctx, exportKeyPrefix+key).Val(); ttl <= 0 || ttl > time.Minute {
		t.Errorf("TTL: got %v", ttl)
	}
}

func TestExportCacheSkipsOversized(t *testing.T) {
	ec := NewExportCache(testValkey(t), time.Minute)
	ctx := context.Background()

	ec.Set(ctx, "huge", make([]byte, MaxCachedExport+1))
	if _, ok := ec.Get(ctx, "huge"); ok {
		t.Error("oversized export should not be cached")
	}
}

func TestExportCacheInvalidateAll(t *testing.T) {
	client := testValkey(t)
	ec := NewExportCache(client, time.Minute)
	ctx := context.Background()

	// More than one unlink batch, plus a session key that must survive.
	const n = clearBatch + 17
	for i := range n {
		ec.Set(ctx, ExportKey(certificateHTML(fmt.Sprint("couple ", i))), []byte("png"))
	}
	client.Set(ctx, "form:keep-me", "{}", time.Minute)

	removed, err := ec.InvalidateAll(ctx)
	if err != nil {
		t.Fatalf("InvalidateAll: %v", err)
	}
	if removed != n {
		t.Errorf("removed: got %d, want %d", removed, n)
	}
	if left := client.Keys(ctx, exportKeyPrefix+"*").Val(); len(left) != 0 {
		t.Errorf("%d exports left", len(left))
	}
	if client.Exists(ctx, "form:keep-me").Val() != 1 {
		t.Error("non-export key was removed")
	}

	if removed, err := ec.InvalidateAll(ctx); err != nil || removed != 0 {
		t.Errorf("second clear: got (%d, %v)", removed, err)
	}
}

// TestExportCacheUnreachable checks that a dead Valkey degrades to misses.
func TestExportCacheUnreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	defer client.Close()
	ec := NewExportCache(client, time.Minute)
	ctx := context.Background()

	ec.Set(ctx, "k", []byte("png"))
	if _, ok := ec.Get(ctx, "k"); ok {
		t.Error("expected a miss")
	}
	if _, err := ec.InvalidateAll(ctx); err == nil {
		t.Error("expected a scan error")
	}
}

func TestConnectValkeyUnreachable(t *testing.T) {
	if _, err := ConnectValkey("127.0.0.1", "1", "", 0); err == nil {
		t.Fatal("expected error")
	}
}

func TestExportKey(t *testing.T) {
	a := ExportKey(certificateHTML("Bruce & Selina"))
	if a != ExportKey(certificateHTML("Bruce & Selina")) {
		t.Error("ExportKey should be deterministic")
	}
	if a == ExportKey(certificateHTML("Bruce & Harleen")) {
		t.Error("ExportKey should change with the certificate")
	}
	if len(a) != 64 {
		t.Errorf("length: got %d, want 64", len(a))
	}
}

func TestNewExportCacheDefaultTTL(t *testing.T) {
	for _, ttl := range []time.Duration{0, -time.Second} {
		if got := NewExportCache(nil, ttl).ttl; got != DefaultExportTTL {
			t.Errorf("ttl %v: got %v", ttl, got)
		}
	}
}

func TestShortKey(t *testing.T) {
	if got := shortKey(ExportKey([]byte("x"))); len(got) != 12 {
		t.Errorf("got %q", got)
	}
	if got := shortKey("abc"); got != "abc" {
		t.Errorf("got %q", got)
	}
}
