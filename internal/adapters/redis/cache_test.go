package redisad_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	redisad "hotel_reservations/internal/adapters/redis"
	"hotel_reservations/internal/domain"
)

func TestCache_SetGetDel(t *testing.T) {
	mr := miniredis.RunT(t)
	c := redisad.New(mr.Addr(), "", 0)
	defer c.Close()
	ctx := context.Background()

	if err := c.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}

	var got domain.Room
	ok, err := c.Get(ctx, "room:1", &got)
	if err != nil || ok {
		t.Fatalf("empty cache should miss: ok=%v err=%v", ok, err)
	}

	in := domain.Room{ID: 1, Number: "101", HotelID: 2, Floor: "1", Capacity: 2, Hotel: &domain.HotelSummary{Name: "Hotel Sol"}}
	if err := c.Set(ctx, "room:1", in, 60); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !mr.Exists("hotelres:room:1") {
		t.Fatalf("expected prefixed key, have %v", mr.Keys())
	}
	ok, err = c.Get(ctx, "room:1", &got)
	if err != nil || !ok {
		t.Fatalf("expected hit: ok=%v err=%v", ok, err)
	}
	if got.Number != "101" || got.Hotel == nil || got.Hotel.Name != "Hotel Sol" {
		t.Fatalf("round trip lost data: %+v", got)
	}

	if err := c.Del(ctx, "room:1"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if ok, _ := c.Get(ctx, "room:1", &got); ok {
		t.Fatal("deleted key should miss")
	}
}

func TestCache_TTLExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	c := redisad.New(mr.Addr(), "", 0)
	ctx := context.Background()

	_ = c.Set(ctx, "hotel:1", domain.Hotel{ID: 1, Name: "x"}, 10)
	mr.FastForward(11 * time.Second)

	var h domain.Hotel
	if ok, _ := c.Get(ctx, "hotel:1", &h); ok {
		t.Fatal("entry should have expired")
	}
}

func TestCache_CorruptEntryIsMiss(t *testing.T) {
	mr := miniredis.RunT(t)
	c := redisad.New(mr.Addr(), "", 0)
	if err := mr.Set("hotelres:hotel:9", "{not json"); err != nil {
		t.Fatal(err)
	}
	var h domain.Hotel
	ok, err := c.Get(context.Background(), "hotel:9", &h)
	if ok || err != nil {
		t.Fatalf("corrupt entry should be a silent miss: ok=%v err=%v", ok, err)
	}
	if mr.Exists("hotelres:hotel:9") {
		t.Fatal("corrupt entry should be dropped")
	}
}
