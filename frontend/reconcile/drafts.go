package reconcile

import "sync"

// MatchDraft is a confirmed product/size/quantity match for one source
// product, reused across boxes of the same shipment.
type MatchDraft struct {
	ProductID     int64 `json:"productID"`
	SizeID        int64 `json:"sizeID"`
	NumberOfItems int64 `json:"numberOfItems"`
}

// Drafts holds the session-scoped reconciliation caches: manual matches keyed
// by source product and the last-used receiving location. Discarded when the
// session closes.
type Drafts struct {
	mu                sync.Mutex
	matches           map[int64]MatchDraft
	defaultLocationID int64
}

func NewDrafts() *Drafts {
	return &Drafts{matches: make(map[int64]MatchDraft)}
}

// PutMatch caches a manual match for a source product.
func (d *Drafts) PutMatch(sourceProductID int64, m MatchDraft) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.matches[sourceProductID] = m
}

// Match returns the cached match for a source product, if any.
func (d *Drafts) Match(sourceProductID int64) (MatchDraft, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	m, ok := d.matches[sourceProductID]
	return m, ok
}

// SetDefaultLocation remembers the last-used receiving location.
func (d *Drafts) SetDefaultLocation(locationID int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.defaultLocationID = locationID
}

// DefaultLocation returns the last-used receiving location, if one was set.
func (d *Drafts) DefaultLocation() (int64, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.defaultLocationID, d.defaultLocationID != 0
}

// Reset discards all cached state.
func (d *Drafts) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.matches = make(map[int64]MatchDraft)
	d.defaultLocationID = 0
}
