package scan

import (
	"testing"
	"time"

	"boxscan/models"
)

func TestSessionScanCooldownDropsRapidRepeats(t *testing.T) {
	s := newSession()
	now := time.Now()

	if !s.ShouldResolve("code-a", now) {
		t.Fatal("first scan should resolve")
	}
	if s.ShouldResolve("code-a", now.Add(200*time.Millisecond)) {
		t.Fatal("repeat inside cooldown should be dropped")
	}
	if !s.ShouldResolve("code-b", now.Add(200*time.Millisecond)) {
		t.Fatal("a different code is not debounced")
	}
	if !s.ShouldResolve("code-a", now.Add(ScanCooldown+time.Millisecond)) {
		t.Fatal("repeat after cooldown should resolve")
	}
}

func TestSessionStoreCloseDiscardsState(t *testing.T) {
	store := NewSessionStore()
	s := store.Open()
	s.Selection().Add(models.BoxRef{LabelIdentifier: "111111", State: models.BoxStateInStock})

	store.Close(s.ID)
	if _, ok := store.Get(s.ID); ok {
		t.Fatal("closed session should be gone from the store")
	}
	// A stale handle must observe no leftover selection state.
	if s.Selection().Len() != 0 {
		t.Fatal("closed session selection should be discarded")
	}

	reopened := store.Open()
	if reopened.ID == s.ID {
		t.Fatal("reopened session must get a fresh identity")
	}
	if reopened.Selection().Len() != 0 {
		t.Fatal("reopened session must start empty")
	}
}
