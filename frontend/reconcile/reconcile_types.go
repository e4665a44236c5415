package reconcile

import "boxscan/models"

type openRequest struct {
	ShipmentID int64 `json:"shipmentID"`
}

type matchRequest struct {
	ProductID     int64 `json:"productID"`
	SizeID        int64 `json:"sizeID"`
	NumberOfItems int64 `json:"numberOfItems"`
}

type locationRequest struct {
	LocationID int64 `json:"locationID"`
}

type sessionView struct {
	Token    string           `json:"token"`
	Shipment *models.Shipment `json:"shipment"`
}

// stateView describes where one box stands in the workflow and what the form
// should pre-fill.
type stateView struct {
	Step              Step                  `json:"step"`
	Detail            models.ShipmentDetail `json:"detail"`
	Match             *MatchDraft           `json:"match,omitempty"`
	DefaultLocationID int64                 `json:"defaultLocationID,omitempty"`
}

func newStateView(r *Reconciliation) stateView {
	view := stateView{
		Step:              r.Step(),
		Detail:            r.Detail(),
		DefaultLocationID: r.DefaultLocationID(),
	}
	if m, ok := r.Match(); ok {
		view.Match = &m
	}
	return view
}
