package reconcile

import (
	"context"
	"errors"
	"sync"

	"boxscan/infrastructure/boxtribute"
	"boxscan/models"
)

// API is the backend surface the engine needs.
type API interface {
	UpdateShipmentReceiving(ctx context.Context, shipmentID int64, lost []string, received []boxtribute.ReceivedDetailUpdate) (*models.Shipment, error)
}

// Step is the explicit state of one box's reconciliation.
type Step string

const (
	StepMatchingProduct   Step = "MatchingProduct"
	StepReceivingLocation Step = "ReceivingLocation"
	StepDone              Step = "Done"
	StepNotDelivered      Step = "NotDelivered"
)

var (
	// ErrMatchRequired means a location was submitted before the product
	// match was resolved; the machine falls back to MatchingProduct.
	ErrMatchRequired = errors.New("product match required before choosing a location")
	// ErrLocationRequired means an empty location was submitted; the
	// machine stays at ReceivingLocation.
	ErrLocationRequired = errors.New("receiving location required")
	// ErrInvalidMatch rejects a match with a missing product, size or a
	// non-positive quantity.
	ErrInvalidMatch = errors.New("product, size and a positive quantity are required")
	// ErrFinished rejects further transitions on a finished box.
	ErrFinished = errors.New("box already reconciled")
)

// Reconciliation drives the accept/deliver workflow for a single box inside
// an inbound shipment. Mutation errors leave the state unchanged so the user
// can retry with their input intact.
type Reconciliation struct {
	api        API
	shipmentID int64
	detail     models.ShipmentDetail
	drafts     *Drafts

	mu         sync.Mutex
	step       Step
	match      MatchDraft
	matched    bool
	locationID int64
}

// Begin creates the machine for one shipment detail and picks its initial
// step: a cached manual match for the same source product, or a server
// auto-match whose size range covers the source size, skips straight to
// ReceivingLocation. Anything else starts at MatchingProduct.
func Begin(api API, shipmentID int64, detail models.ShipmentDetail, drafts *Drafts) *Reconciliation {
	r := &Reconciliation{
		api:        api,
		shipmentID: shipmentID,
		detail:     detail,
		drafts:     drafts,
		step:       StepMatchingProduct,
	}

	if detail.SourceProduct != nil {
		if m, ok := drafts.Match(detail.SourceProduct.ID); ok {
			r.match = m
			r.matched = true
			r.step = StepReceivingLocation
		}
	}
	if !r.matched {
		auto := detail.AutoMatchingTargetProduct
		if auto != nil && detail.SourceSize != nil && auto.HasSize(detail.SourceSize.ID) {
			r.match = MatchDraft{
				ProductID:     auto.ID,
				SizeID:        detail.SourceSize.ID,
				NumberOfItems: detail.SourceQuantity,
			}
			r.matched = true
			r.step = StepReceivingLocation
		}
	}

	if loc, ok := drafts.DefaultLocation(); ok {
		r.locationID = loc
	}
	return r
}

// Step returns the current state.
func (r *Reconciliation) Step() Step {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.step
}

// Detail returns the shipment detail this machine reconciles.
func (r *Reconciliation) Detail() models.ShipmentDetail {
	return r.detail
}

// Match returns the resolved product match, if any.
func (r *Reconciliation) Match() (MatchDraft, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.match, r.matched
}

// DefaultLocationID returns the pre-filled receiving location, zero if none.
func (r *Reconciliation) DefaultLocationID() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.locationID
}

// SubmitMatch records a manual product/size/quantity selection, caches it
// for the source product and advances to ReceivingLocation.
func (r *Reconciliation) SubmitMatch(m MatchDraft) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.step == StepDone || r.step == StepNotDelivered {
		return ErrFinished
	}
	if m.ProductID == 0 || m.SizeID == 0 || m.NumberOfItems <= 0 {
		return ErrInvalidMatch
	}

	r.match = m
	r.matched = true
	if r.detail.SourceProduct != nil {
		r.drafts.PutMatch(r.detail.SourceProduct.ID, m)
	}
	r.step = StepReceivingLocation
	return nil
}

// SubmitLocation marks the box received at locationID, issuing the single
// receiving mutation. An unresolved match sends the machine back to
// MatchingProduct; an empty location keeps it at ReceivingLocation. On
// success the location becomes the shipment's new default.
func (r *Reconciliation) SubmitLocation(ctx context.Context, locationID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.step == StepDone || r.step == StepNotDelivered {
		return ErrFinished
	}
	if !r.matched {
		r.step = StepMatchingProduct
		return ErrMatchRequired
	}
	if locationID == 0 {
		return ErrLocationRequired
	}

	update := boxtribute.ReceivedDetailUpdate{
		ShipmentDetailID: r.detail.ID,
		TargetLocationID: locationID,
		TargetProductID:  r.match.ProductID,
		TargetSizeID:     r.match.SizeID,
		TargetQuantity:   r.match.NumberOfItems,
	}
	if _, err := r.api.UpdateShipmentReceiving(ctx, r.shipmentID, nil, []boxtribute.ReceivedDetailUpdate{update}); err != nil {
		return err
	}

	r.locationID = locationID
	r.drafts.SetDefaultLocation(locationID)
	r.step = StepDone
	return nil
}

// MarkNotDelivered reports the box lost in transit. Available from any
// unfinished step.
func (r *Reconciliation) MarkNotDelivered(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.step == StepDone || r.step == StepNotDelivered {
		return ErrFinished
	}
	if r.detail.Box == nil {
		return errors.New("shipment detail has no box")
	}

	lost := []string{r.detail.Box.LabelIdentifier}
	if _, err := r.api.UpdateShipmentReceiving(ctx, r.shipmentID, lost, nil); err != nil {
		return err
	}
	r.step = StepNotDelivered
	return nil
}
