package redisad_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	redisad "hotel_booking/internal/adapters/redis"
	"hotel_booking/internal/domain"
)

func TestCache_SetGetExpire(t *testing.T) {
	mr := miniredis.RunT(t)
	c := redisad.New(mr.Addr(), "", 0)
	defer c.Close()
	ctx := context.Background()

	var out []domain.Hotel
	ok, err := c.Get(ctx, "hotels:k", &out)
	if err != nil || ok {
		t.Fatalf("expected miss, ok=%v err=%v", ok, err)
	}

	in := []domain.Hotel{{ID: 1, Title: "Sea View", Location: "Sochi"}}
	if err := c.Set(ctx, "hotels:k", in, 10); err != nil {
		t.Fatalf("set: %v", err)
	}
	if ttl := mr.TTL("hotels:k"); ttl != 10*time.Second {
		t.Fatalf("ttl = %v", ttl)
	}

	ok, err = c.Get(ctx, "hotels:k", &out)
	if err != nil || !ok {
		t.Fatalf("expected hit, ok=%v err=%v", ok, err)
	}
	if len(out) != 1 || out[0].Title != "Sea View" {
		t.Fatalf("unexpected value: %+v", out)
	}

	mr.FastForward(11 * time.Second)
	ok, _ = c.Get(ctx, "hotels:k", &out)
	if ok {
		t.Fatalf("entry survived its ttl")
	}
}

func TestCache_CorruptEntryAndRelease(t *testing.T) {
	mr := miniredis.RunT(t)
	c := redisad.New(mr.Addr(), "", 0)
	defer c.Close()
	ctx := context.Background()

	if err := mr.Set("facilities", "{not json"); err != nil {
		t.Fatal(err)
	}
	var out []domain.Facility
	if ok, err := c.Get(ctx, "facilities", &out); ok || err != nil {
		t.Fatalf("corrupt entry should read as miss, ok=%v err=%v", ok, err)
	}

	_ = c.Set(ctx, "facilities", []domain.Facility{{ID: 1, Title: "Wi-Fi"}}, 10)
	if err := c.Release(ctx, "facilities"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if mr.Exists("facilities") {
		t.Fatalf("key still present")
	}
}

func TestCache_Ping(t *testing.T) {
	mr := miniredis.RunT(t)
	c := redisad.New(mr.Addr(), "", 0)
	defer c.Close()
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
	mr.Close()
	if err := c.Ping(context.Background()); err == nil {
		t.Fatalf("expected ping error after shutdown")
	}
}

func TestCache_RefusesEntriesWithoutExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	c := redisad.New(mr.Addr(), "", 0)
	defer c.Close()
	ctx := context.Background()

	for _, ttl := range []int{0, -1} {
		if err := c.Set(ctx, "hotels:k", []domain.Hotel{{ID: 1}}, ttl); err == nil {
			t.Fatalf("ttl %d: expected error", ttl)
		}
	}
	mr.FastForward(24 * time.Hour)
	if mr.Exists("hotels:k") {
		t.Fatalf("entry stored without expiry")
	}
}

func TestCache_ClaimOnce(t *testing.T) {
	mr := miniredis.RunT(t)
	c := redisad.New(mr.Addr(), "", 0)
	defer c.Close()
	ctx := context.Background()

	ok, err := c.Claim(ctx, "checkin:1:2024-09-10", time.Hour)
	if err != nil || !ok {
		t.Fatalf("first claim ok=%v err=%v", ok, err)
	}
	if ok, _ := c.Claim(ctx, "checkin:1:2024-09-10", time.Hour); ok {
		t.Fatalf("second claim succeeded")
	}

	mr.FastForward(time.Hour + time.Second)
	if ok, _ := c.Claim(ctx, "checkin:1:2024-09-10", time.Hour); !ok {
		t.Fatalf("claim not released by expiry")
	}
	if err := c.Release(ctx, "checkin:1:2024-09-10"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if ok, _ := c.Claim(ctx, "checkin:1:2024-09-10", time.Hour); !ok {
		t.Fatalf("claim not free after release")
	}
}
