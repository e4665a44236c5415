package models

import "time"

// BoxState mirrors the backend box lifecycle states.
type BoxState string

const (
	BoxStateInStock           BoxState = "InStock"
	BoxStateMarkedForShipment BoxState = "MarkedForShipment"
	BoxStateReceiving         BoxState = "Receiving"
	BoxStateInTransit         BoxState = "InTransit"
	BoxStateDonated           BoxState = "Donated"
	BoxStateLost              BoxState = "Lost"
	BoxStateScrap             BoxState = "Scrap"
	BoxStateReceived          BoxState = "Received"
)

// BoxRef is the minimal identity used for list membership and dedup.
type BoxRef struct {
	LabelIdentifier string   `json:"labelIdentifier"`
	State           BoxState `json:"state"`
}

// Box is the full record returned by the backend for an authorized lookup.
type Box struct {
	LabelIdentifier string   `json:"labelIdentifier"`
	State           BoxState `json:"state"`
	NumberOfItems   int64    `json:"numberOfItems"`
	Product         *Product `json:"product"`
	Size            *Size    `json:"size"`
	Location        *Location `json:"location"`
	Tags            []Tag    `json:"tags"`
}

// Ref returns the minimal identity of the box.
func (b Box) Ref() BoxRef {
	return BoxRef{LabelIdentifier: b.LabelIdentifier, State: b.State}
}

type Organisation struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Base is a physical site belonging to an organisation.
type Base struct {
	ID           int64         `json:"id"`
	Name         string        `json:"name"`
	Organisation *Organisation `json:"organisation"`
}

type Location struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Base *Base  `json:"base"`
}

type Size struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
}

type SizeRange struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
	Sizes []Size `json:"sizes"`
}

type Product struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	SizeRange *SizeRange `json:"sizeRange"`
}

// HasSize reports whether sizeID falls within the product's size range.
func (p *Product) HasSize(sizeID int64) bool {
	if p == nil || p.SizeRange == nil {
		return false
	}
	for _, s := range p.SizeRange.Sizes {
		if s.ID == sizeID {
			return true
		}
	}
	return false
}

type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ShipmentState mirrors the backend shipment lifecycle.
type ShipmentState string

const (
	ShipmentStatePreparing ShipmentState = "Preparing"
	ShipmentStateSent      ShipmentState = "Sent"
	ShipmentStateReceiving ShipmentState = "Receiving"
	ShipmentStateCompleted ShipmentState = "Completed"
	ShipmentStateLost      ShipmentState = "Lost"
	ShipmentStateCanceled  ShipmentState = "Canceled"
)

// Shipment is a transfer of boxes between bases, possibly across organisations.
type Shipment struct {
	ID         int64            `json:"id"`
	State      ShipmentState    `json:"state"`
	SourceBase *Base            `json:"sourceBase"`
	TargetBase *Base            `json:"targetBase"`
	Details    []ShipmentDetail `json:"details"`
}

// ActiveDetails returns the details still part of the shipment, excluding
// soft-removed line items.
func (s *Shipment) ActiveDetails() []ShipmentDetail {
	if s == nil {
		return nil
	}
	active := make([]ShipmentDetail, 0, len(s.Details))
	for _, d := range s.Details {
		if d.RemovedOn == nil {
			active = append(active, d)
		}
	}
	return active
}

// ShipmentDetail is one line item of a shipment: one box with the
// sender-declared product, size and quantity.
type ShipmentDetail struct {
	ID                        int64      `json:"id"`
	Box                       *Box       `json:"box"`
	SourceProduct             *Product   `json:"sourceProduct"`
	SourceSize                *Size      `json:"sourceSize"`
	SourceQuantity            int64      `json:"sourceQuantity"`
	AutoMatchingTargetProduct *Product   `json:"autoMatchingTargetProduct"`
	RemovedOn                 *time.Time `json:"removedOn"`
}
