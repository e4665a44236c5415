package scan

import (
	"reflect"
	"testing"

	"boxscan/models"
)

func ref(label string, state models.BoxState) models.BoxRef {
	return models.BoxRef{LabelIdentifier: label, State: state}
}

func TestSelectionDedupKeepsFirstSeenOrder(t *testing.T) {
	s := NewSelection()
	if got := s.Add(ref("111111", models.BoxStateInStock)); got != Added {
		t.Fatalf("first add: expected Added, got %v", got)
	}
	if got := s.Add(ref("222222", models.BoxStateInStock)); got != Added {
		t.Fatalf("second add: expected Added, got %v", got)
	}
	if got := s.Add(ref("111111", models.BoxStateInStock)); got != AlreadyOnList {
		t.Fatalf("duplicate add: expected AlreadyOnList, got %v", got)
	}

	labels := s.Labels()
	if !reflect.DeepEqual(labels, []string{"111111", "222222"}) {
		t.Fatalf("unexpected order: %v", labels)
	}
}

func TestSelectionDuplicateAddRefreshesState(t *testing.T) {
	s := NewSelection()
	s.Add(ref("111111", models.BoxStateInStock))

	// A racing resolution completing later carries fresher state; last
	// writer wins per identifier without changing the position.
	if got := s.Add(ref("111111", models.BoxStateMarkedForShipment)); got != AlreadyOnList {
		t.Fatalf("expected AlreadyOnList, got %v", got)
	}
	refs := s.Refs()
	if len(refs) != 1 || refs[0].State != models.BoxStateMarkedForShipment {
		t.Fatalf("expected refreshed state, got %+v", refs)
	}
}

func TestSelectionUndo(t *testing.T) {
	s := NewSelection()
	s.Add(ref("111111", models.BoxStateInStock))
	s.Add(ref("222222", models.BoxStateInStock))

	last, ok := s.Undo()
	if !ok || last.LabelIdentifier != "222222" {
		t.Fatalf("expected to undo 222222, got (%+v, %v)", last, ok)
	}
	if got := s.Labels(); !reflect.DeepEqual(got, []string{"111111"}) {
		t.Fatalf("unexpected remaining: %v", got)
	}
}

func TestSelectionUndoOnEmptyIsNoop(t *testing.T) {
	s := NewSelection()
	if _, ok := s.Undo(); ok {
		t.Fatal("expected undo on empty selection to report false")
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty selection, got %d", s.Len())
	}
}

func TestSelectionFlush(t *testing.T) {
	s := NewSelection()
	s.Add(ref("111111", models.BoxStateInStock))
	s.Add(ref("222222", models.BoxStateInStock))
	s.Flush()
	if s.Len() != 0 {
		t.Fatalf("expected empty selection after flush, got %d", s.Len())
	}
}

func TestSelectionRemoveByIdentifiersPreservesOrder(t *testing.T) {
	s := NewSelection()
	for _, l := range []string{"111111", "222222", "333333", "444444"} {
		s.Add(ref(l, models.BoxStateInStock))
	}

	removed := s.RemoveByIdentifiers([]string{"222222", "444444"})
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	if got := s.Labels(); !reflect.DeepEqual(got, []string{"111111", "333333"}) {
		t.Fatalf("unexpected remaining: %v", got)
	}
}

func TestSelectionRemoveWhereNonInStock(t *testing.T) {
	s := NewSelection()
	s.Add(ref("111111", models.BoxStateInStock))
	s.Add(ref("222222", models.BoxStateMarkedForShipment))
	s.Add(ref("333333", models.BoxStateInStock))
	s.Add(ref("444444", models.BoxStateDonated))

	removed := s.RemoveWhere(func(r models.BoxRef) bool {
		return r.State != models.BoxStateInStock
	})
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	if got := s.Labels(); !reflect.DeepEqual(got, []string{"111111", "333333"}) {
		t.Fatalf("unexpected remaining: %v", got)
	}
}
