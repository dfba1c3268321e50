package memory

import (
	"context"
	"testing"

	"mindgap-tutor/internal/app"
	"mindgap-tutor/internal/domain"
)

func TestSessionStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()

	deck, err := domain.NewDeck(sampleQuiz().Questions)
	if err != nil {
		t.Fatalf("deck: %v", err)
	}
	session := app.NewSession(app.SessionParams{ID: "s1", Topic: "arithmetic", Deck: deck})
	store.Save(ctx, session)

	got, ok := store.Get(ctx, "s1")
	if !ok || got != session {
		t.Fatalf("expected session present")
	}
	if store.Len() != 1 {
		t.Fatalf("expected one session, got %d", store.Len())
	}

	store.Delete(ctx, "s1")
	if _, ok := store.Get(ctx, "s1"); ok {
		t.Fatalf("expected session removed")
	}
}
