package bulk

import (
	"context"
	"errors"
	"fmt"

	"boxscan/infrastructure/boxtribute"
	"boxscan/models"
)

// API is the backend surface the executor needs.
type API interface {
	MoveBoxesBatch(ctx context.Context, labelIdentifiers []string, locationID int64) (map[string]*boxtribute.MovedBox, error)
	AssignTagsBatch(ctx context.Context, labelIdentifiers []string, tagIDs []int64) (map[string]*boxtribute.TaggedBox, error)
	UpdateShipmentPreparing(ctx context.Context, shipmentID int64, prepared, removed []string) (*models.Shipment, error)
}

var (
	// ErrEmptySelection rejects an empty batch locally, before any call.
	ErrEmptySelection = errors.New("no boxes selected")
	// ErrNoTagsSelected rejects a tag action without tags.
	ErrNoTagsSelected = errors.New("no tags selected")
	// ErrNotAuthorized is a whole-batch FORBIDDEN failure.
	ErrNotAuthorized = errors.New("not authorized for this shipment")
	// ErrWrongShipmentState is a whole-batch failure: shipment not Preparing.
	ErrWrongShipmentState = errors.New("shipment is not in Preparing state")
	// ErrNetwork is a transport-level failure; no partition is available.
	ErrNetwork = errors.New("backend unreachable")
)

// Result partitions one bulk action: Requested is always the disjoint union
// of Succeeded and Failed, in request order.
type Result struct {
	Requested []string `json:"requested"`
	Succeeded []string `json:"succeeded"`
	Failed    []string `json:"failed"`
}

// PartialFailure reports whether some but not all boxes failed.
func (r Result) PartialFailure() bool {
	return len(r.Failed) > 0 && len(r.Succeeded) > 0
}

// Executor applies one bulk action to an accumulated selection.
type Executor struct {
	api API
}

func NewExecutor(api API) *Executor {
	return &Executor{api: api}
}

func partition(requested []string, succeeded func(label string) bool) Result {
	res := Result{
		Requested: append([]string(nil), requested...),
		Succeeded: make([]string, 0, len(requested)),
		Failed:    make([]string, 0),
	}
	for _, label := range requested {
		if succeeded(label) {
			res.Succeeded = append(res.Succeeded, label)
		} else {
			res.Failed = append(res.Failed, label)
		}
	}
	return res
}

// Move moves every box to locationID in one batched mutation. A box counts
// as succeeded only if the response reports its new location as the target;
// boxes the server silently dropped count as failed.
func (e *Executor) Move(ctx context.Context, labelIdentifiers []string, locationID int64) (Result, error) {
	if len(labelIdentifiers) == 0 {
		return Result{}, ErrEmptySelection
	}

	resp, err := e.api.MoveBoxesBatch(ctx, labelIdentifiers, locationID)
	if err != nil {
		if boxtribute.IsTransport(err) {
			return Result{}, fmt.Errorf("%w: %v", ErrNetwork, err)
		}
		return Result{}, err
	}

	return partition(labelIdentifiers, func(label string) bool {
		moved := resp[label]
		return moved != nil && moved.Location != nil && moved.Location.ID == locationID
	}), nil
}

// Tag adds tagIDs to every box in one batched mutation. A box counts as
// succeeded only if the response's tag set contains every requested tag.
func (e *Executor) Tag(ctx context.Context, labelIdentifiers []string, tagIDs []int64) (Result, error) {
	if len(labelIdentifiers) == 0 {
		return Result{}, ErrEmptySelection
	}
	if len(tagIDs) == 0 {
		return Result{}, ErrNoTagsSelected
	}

	resp, err := e.api.AssignTagsBatch(ctx, labelIdentifiers, tagIDs)
	if err != nil {
		if boxtribute.IsTransport(err) {
			return Result{}, fmt.Errorf("%w: %v", ErrNetwork, err)
		}
		return Result{}, err
	}

	return partition(labelIdentifiers, func(label string) bool {
		tagged := resp[label]
		if tagged == nil {
			return false
		}
		have := make(map[int64]struct{}, len(tagged.Tags))
		for _, tag := range tagged.Tags {
			have[tag.ID] = struct{}{}
		}
		for _, id := range tagIDs {
			if _, ok := have[id]; !ok {
				return false
			}
		}
		return true
	}), nil
}

// AssignToShipment adds the boxes to a shipment still in Preparing. Success
// per box is inferred by diffing the resulting non-removed detail list
// against the request; a detail for the same box that already existed before
// the call is indistinguishable from a fresh assignment under this contract.
// Callers are responsible for excluding non-InStock boxes beforehand.
func (e *Executor) AssignToShipment(ctx context.Context, shipmentID int64, labelIdentifiers []string) (Result, error) {
	if len(labelIdentifiers) == 0 {
		return Result{}, ErrEmptySelection
	}

	shipment, err := e.api.UpdateShipmentPreparing(ctx, shipmentID, labelIdentifiers, nil)
	if err != nil {
		switch {
		case boxtribute.IsForbidden(err):
			return Result{}, fmt.Errorf("%w: %v", ErrNotAuthorized, err)
		case boxtribute.IsBadUserInput(err):
			return Result{}, fmt.Errorf("%w: %v", ErrWrongShipmentState, err)
		case boxtribute.IsTransport(err):
			return Result{}, fmt.Errorf("%w: %v", ErrNetwork, err)
		default:
			return Result{}, err
		}
	}

	assigned := make(map[string]struct{})
	for _, detail := range shipment.ActiveDetails() {
		if detail.Box != nil {
			assigned[detail.Box.LabelIdentifier] = struct{}{}
		}
	}

	return partition(labelIdentifiers, func(label string) bool {
		_, ok := assigned[label]
		return ok
	}), nil
}
