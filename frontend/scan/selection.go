package scan

import (
	"sync"

	"boxscan/models"
)

// AddOutcome signals whether an add appended a box or hit a duplicate.
type AddOutcome int

const (
	Added AddOutcome = iota
	AlreadyOnList
)

// Selection is the ordered, deduplicated list of boxes accumulated during a
// multi-scan session. First occurrence wins the position; a repeated scan
// refreshes the stored state in place (last writer wins per identifier) and
// reports AlreadyOnList.
type Selection struct {
	mu   sync.Mutex
	refs []models.BoxRef
}

func NewSelection() *Selection {
	return &Selection{refs: make([]models.BoxRef, 0, 16)}
}

func (s *Selection) Add(ref models.BoxRef) AddOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.refs {
		if s.refs[i].LabelIdentifier == ref.LabelIdentifier {
			s.refs[i].State = ref.State
			return AlreadyOnList
		}
	}
	s.refs = append(s.refs, ref)
	return Added
}

// Undo removes the last-appended entry. No-op on an empty selection.
func (s *Selection) Undo() (models.BoxRef, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.refs) == 0 {
		return models.BoxRef{}, false
	}
	last := s.refs[len(s.refs)-1]
	s.refs = s.refs[:len(s.refs)-1]
	return last, true
}

// Flush empties the selection unconditionally.
func (s *Selection) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refs = s.refs[:0]
}

// RemoveByIdentifiers removes every entry whose label is in ids, preserving
// the order of the remaining entries. Returns the number removed.
func (s *Selection) RemoveByIdentifiers(ids []string) int {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	return s.removeWhere(func(ref models.BoxRef) bool {
		_, ok := drop[ref.LabelIdentifier]
		return ok
	})
}

// RemoveWhere removes every entry matching pred, preserving order of the rest.
func (s *Selection) RemoveWhere(pred func(models.BoxRef) bool) int {
	return s.removeWhere(pred)
}

func (s *Selection) removeWhere(pred func(models.BoxRef) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.refs[:0]
	removed := 0
	for _, ref := range s.refs {
		if pred(ref) {
			removed++
			continue
		}
		kept = append(kept, ref)
	}
	s.refs = kept
	return removed
}

// Refs returns a copy of the current entries in insertion order.
func (s *Selection) Refs() []models.BoxRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.BoxRef, len(s.refs))
	copy(out, s.refs)
	return out
}

// Labels returns the label identifiers in insertion order.
func (s *Selection) Labels() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.refs))
	for i, ref := range s.refs {
		out[i] = ref.LabelIdentifier
	}
	return out
}

func (s *Selection) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.refs)
}
