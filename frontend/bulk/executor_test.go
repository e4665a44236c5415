package bulk

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"testing"
	"time"

	"boxscan/infrastructure/boxtribute"
	"boxscan/models"
)

type fakeAPI struct {
	moved    map[string]*boxtribute.MovedBox
	moveErr  error
	tagged   map[string]*boxtribute.TaggedBox
	tagErr   error
	shipment *models.Shipment
	shipErr  error

	movedLabels    []string
	preparedLabels []string
}

func (f *fakeAPI) MoveBoxesBatch(_ context.Context, labels []string, _ int64) (map[string]*boxtribute.MovedBox, error) {
	f.movedLabels = labels
	if f.moveErr != nil {
		return nil, f.moveErr
	}
	return f.moved, nil
}

func (f *fakeAPI) AssignTagsBatch(_ context.Context, labels []string, _ []int64) (map[string]*boxtribute.TaggedBox, error) {
	if f.tagErr != nil {
		return nil, f.tagErr
	}
	return f.tagged, nil
}

func (f *fakeAPI) UpdateShipmentPreparing(_ context.Context, _ int64, prepared, _ []string) (*models.Shipment, error) {
	f.preparedLabels = prepared
	if f.shipErr != nil {
		return nil, f.shipErr
	}
	return f.shipment, nil
}

func movedTo(label string, locationID int64) *boxtribute.MovedBox {
	return &boxtribute.MovedBox{
		LabelIdentifier: label,
		State:           models.BoxStateInStock,
		Location:        &models.Location{ID: locationID},
	}
}

func assertPartitionInvariant(t *testing.T, res Result) {
	t.Helper()
	union := append(append([]string(nil), res.Succeeded...), res.Failed...)
	sort.Strings(union)
	requested := append([]string(nil), res.Requested...)
	sort.Strings(requested)
	if !reflect.DeepEqual(union, requested) {
		t.Fatalf("partition broken: requested=%v succeeded=%v failed=%v", res.Requested, res.Succeeded, res.Failed)
	}
	seen := make(map[string]struct{})
	for _, l := range res.Succeeded {
		seen[l] = struct{}{}
	}
	for _, l := range res.Failed {
		if _, dup := seen[l]; dup {
			t.Fatalf("label %s in both partitions", l)
		}
	}
}

func TestMovePartitionsSilentlyDroppedBoxes(t *testing.T) {
	api := &fakeAPI{moved: map[string]*boxtribute.MovedBox{
		"111111": movedTo("111111", 7),
		"222222": nil,
	}}
	e := NewExecutor(api)

	res, err := e.Move(context.Background(), []string{"111111", "222222"}, 7)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	assertPartitionInvariant(t, res)
	if !reflect.DeepEqual(res.Succeeded, []string{"111111"}) {
		t.Fatalf("unexpected succeeded: %v", res.Succeeded)
	}
	if !reflect.DeepEqual(res.Failed, []string{"222222"}) {
		t.Fatalf("unexpected failed: %v", res.Failed)
	}
	if !res.PartialFailure() {
		t.Fatal("expected partial failure")
	}
}

func TestMoveRequiresTargetLocationInResponse(t *testing.T) {
	// Server reports the box back but at a different location: not moved.
	api := &fakeAPI{moved: map[string]*boxtribute.MovedBox{
		"111111": movedTo("111111", 3),
	}}
	e := NewExecutor(api)

	res, err := e.Move(context.Background(), []string{"111111"}, 7)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if len(res.Succeeded) != 0 || len(res.Failed) != 1 {
		t.Fatalf("expected move to a different location to fail, got %+v", res)
	}
}

func TestMoveRejectsEmptySelectionLocally(t *testing.T) {
	api := &fakeAPI{}
	e := NewExecutor(api)
	if _, err := e.Move(context.Background(), nil, 7); !errors.Is(err, ErrEmptySelection) {
		t.Fatalf("expected ErrEmptySelection, got %v", err)
	}
	if api.movedLabels != nil {
		t.Fatal("expected no backend call for empty selection")
	}
}

func TestMoveWrapsTransportFailure(t *testing.T) {
	api := &fakeAPI{moveErr: &boxtribute.TransportError{Err: errors.New("timeout")}}
	e := NewExecutor(api)
	if _, err := e.Move(context.Background(), []string{"111111"}, 7); !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
}

func TestTagSuccessRequiresSuperset(t *testing.T) {
	api := &fakeAPI{tagged: map[string]*boxtribute.TaggedBox{
		"111111": {LabelIdentifier: "111111", Tags: []models.Tag{{ID: 1}, {ID: 2}, {ID: 9}}},
		"222222": {LabelIdentifier: "222222", Tags: []models.Tag{{ID: 1}}},
		"333333": nil,
	}}
	e := NewExecutor(api)

	res, err := e.Tag(context.Background(), []string{"111111", "222222", "333333"}, []int64{1, 2})
	if err != nil {
		t.Fatalf("tag: %v", err)
	}
	assertPartitionInvariant(t, res)
	if !reflect.DeepEqual(res.Succeeded, []string{"111111"}) {
		t.Fatalf("unexpected succeeded: %v", res.Succeeded)
	}
	if !reflect.DeepEqual(res.Failed, []string{"222222", "333333"}) {
		t.Fatalf("unexpected failed: %v", res.Failed)
	}
}

func TestTagRejectsEmptyInputLocally(t *testing.T) {
	e := NewExecutor(&fakeAPI{})
	if _, err := e.Tag(context.Background(), nil, []int64{1}); !errors.Is(err, ErrEmptySelection) {
		t.Fatalf("expected ErrEmptySelection, got %v", err)
	}
	if _, err := e.Tag(context.Background(), []string{"111111"}, nil); !errors.Is(err, ErrNoTagsSelected) {
		t.Fatalf("expected ErrNoTagsSelected, got %v", err)
	}
}

func shipmentWithBoxes(labels ...string) *models.Shipment {
	s := &models.Shipment{ID: 5, State: models.ShipmentStatePreparing}
	for i, label := range labels {
		s.Details = append(s.Details, models.ShipmentDetail{
			ID:  int64(i + 1),
			Box: &models.Box{LabelIdentifier: label, State: models.BoxStateMarkedForShipment},
		})
	}
	return s
}

func TestAssignToShipmentDiffsResultingDetails(t *testing.T) {
	api := &fakeAPI{shipment: shipmentWithBoxes("111111", "333333")}
	e := NewExecutor(api)

	res, err := e.AssignToShipment(context.Background(), 5, []string{"111111", "222222", "333333"})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	assertPartitionInvariant(t, res)
	if !reflect.DeepEqual(res.Succeeded, []string{"111111", "333333"}) {
		t.Fatalf("unexpected succeeded: %v", res.Succeeded)
	}
	if !reflect.DeepEqual(res.Failed, []string{"222222"}) {
		t.Fatalf("unexpected failed: %v", res.Failed)
	}
}

func TestAssignToShipmentIgnoresRemovedDetails(t *testing.T) {
	shipment := shipmentWithBoxes("111111")
	removed := shipmentWithBoxes("222222").Details[0]
	when := time.Now()
	removed.RemovedOn = &when
	shipment.Details = append(shipment.Details, removed)

	api := &fakeAPI{shipment: shipment}
	e := NewExecutor(api)

	res, err := e.AssignToShipment(context.Background(), 5, []string{"111111", "222222"})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if !reflect.DeepEqual(res.Failed, []string{"222222"}) {
		t.Fatalf("soft-removed detail must not count as assigned, got %+v", res)
	}
}

func TestAssignToShipmentWholeBatchErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{name: "forbidden", err: &boxtribute.APIError{Code: boxtribute.CodeForbidden}, want: ErrNotAuthorized},
		{name: "wrong state", err: &boxtribute.APIError{Code: boxtribute.CodeBadUserInput}, want: ErrWrongShipmentState},
		{name: "network", err: &boxtribute.TransportError{Err: errors.New("reset")}, want: ErrNetwork},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := NewExecutor(&fakeAPI{shipErr: tc.err})
			_, err := e.AssignToShipment(context.Background(), 5, []string{"111111"})
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

// A detail that already existed for a requested box before the call counts as
// assigned: the contract diffs the entire resulting detail list, so a
// concurrent actor's assignment is indistinguishable from ours.
func TestAssignToShipmentCountsPreexistingDetailAsSuccess(t *testing.T) {
	api := &fakeAPI{shipment: shipmentWithBoxes("111111", "222222")}
	e := NewExecutor(api)

	res, err := e.AssignToShipment(context.Background(), 5, []string{"222222"})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if !reflect.DeepEqual(res.Succeeded, []string{"222222"}) {
		t.Fatalf("expected pre-existing detail to count as success, got %+v", res)
	}
}
