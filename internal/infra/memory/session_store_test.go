package memory

import (
	"testing"

	"provia-quiz-service/internal/app"
	"provia-quiz-service/internal/domain"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()

	first := newSession(t, "s1")
	if prev := store.Put("u1", first); prev != nil {
		t.Fatalf("expected no previous session")
	}
	if got, ok := store.Get("u1"); !ok || got.ID() != "s1" {
		t.Fatalf("expected session s1 present")
	}

	second := newSession(t, "s2")
	if prev := store.Put("u1", second); prev == nil || prev.ID() != "s1" {
		t.Fatalf("expected s1 returned as replaced session")
	}

	store.Delete("u1", "s1")
	if _, ok := store.Get("u1"); !ok {
		t.Fatalf("stale delete must not remove the newer session")
	}

	store.Delete("u1", "s2")
	if _, ok := store.Get("u1"); ok {
		t.Fatalf("expected session removed")
	}
}

func newSession(t *testing.T, id string) *app.Session {
	t.Helper()
	s, err := app.NewSession(id, sampleBank()[:1], domain.ModeDaily, app.WithDay(1))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return s
}
