package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"trivia-match-service/internal/app"
	"trivia-match-service/internal/domain"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
)

func TestRegistrySetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	registry := NewRegistry(newClient(mr), time.Minute)
	defer registry.Close()
	room := app.NewOrchestrator(app.SessionConfig{ID: "room-1", Name: "Friday quiz"}, clockwork.NewFakeClock(), nil)

	if err := registry.Create(room); err != nil {
		t.Fatalf("create: %v", err)
	}
	eventually(t, func() bool { return mr.Exists("trivia:session:room-1") })
	if got, _ := mr.Get("trivia:session:room-1"); got != "Friday quiz" {
		t.Fatalf("expected room name stored, got %q", got)
	}
	if err := registry.Create(room); !errors.Is(err, domain.ErrSessionExists) {
		t.Fatalf("expected ErrSessionExists, got %v", err)
	}

	announced, err := registry.Announced(context.Background())
	if err != nil || len(announced) != 1 || announced[0] != "room-1" {
		t.Fatalf("unexpected announced rooms %v (%v)", announced, err)
	}

	mr.FastForward(30 * time.Second)
	if _, err := registry.Lookup("room-1"); err != nil {
		t.Fatalf("lookup: %v", err)
	}
	eventually(t, func() bool { return mr.TTL("trivia:session:room-1") == time.Minute })

	registry.Remove("room-1")
	eventually(t, func() bool { return !mr.Exists("trivia:session:room-1") })
	if _, err := registry.Lookup("room-1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestRegistryDoesNotWaitOnRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{
		Addr:        mr.Addr(),
		DialTimeout: time.Second,
		MaxRetries:  2,
	})
	registry := NewRegistry(client, time.Minute)
	defer registry.Close()
	mr.Close()

	room := app.NewOrchestrator(app.SessionConfig{ID: "room-1"}, clockwork.NewFakeClock(), nil)

	start := time.Now()
	if err := registry.Create(room); err != nil {
		t.Fatalf("create with redis down: %v", err)
	}
	for i := 0; i < 20; i++ {
		got, err := registry.Lookup("room-1")
		if err != nil || got != room {
			t.Fatalf("lookup with redis down: %v", err)
		}
	}
	registry.Remove("room-1")
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Fatalf("registry calls waited on redis for %s", elapsed)
	}
}

func TestRegistryCloseFlushesQueuedMarkers(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	registry := NewRegistry(newClient(mr), time.Minute)
	for _, id := range []string{"room-1", "room-2"} {
		room := app.NewOrchestrator(app.SessionConfig{ID: id}, clockwork.NewFakeClock(), nil)
		if err := registry.Create(room); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}
	registry.Close()

	members, err := mr.SMembers(roomsKey)
	if err != nil || len(members) != 2 {
		t.Fatalf("expected both rooms announced after close, got %v (%v)", members, err)
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met within 2s")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
