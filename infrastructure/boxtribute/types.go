package boxtribute

import (
	"encoding/json"
	"fmt"

	"boxscan/models"
)

// QRResult is the decoded outcome of a QR code resolution. Exactly one
// situation is described: code unknown (Found false), code unassigned (Box
// nil), box withheld for authorization reasons, or a full box record.
type QRResult struct {
	Found          bool
	Box            *models.Box
	BoxAuthorized  bool
	BaseAuthorized bool

	// Limited fields disclosed for boxes in a foreign organisation.
	BaseName         string
	OrganisationName string
}

// MovedBox is the per-box payload of a batched move mutation.
type MovedBox struct {
	LabelIdentifier string           `json:"labelIdentifier"`
	State           models.BoxState  `json:"state"`
	Location        *models.Location `json:"location"`
}

// TaggedBox is the per-box payload of a batched tag mutation.
type TaggedBox struct {
	LabelIdentifier string       `json:"labelIdentifier"`
	Tags            []models.Tag `json:"tags"`
}

// ReceivedDetailUpdate is one received line item of a receiving shipment.
type ReceivedDetailUpdate struct {
	ShipmentDetailID int64 `json:"id"`
	TargetLocationID int64 `json:"targetLocationId"`
	TargetProductID  int64 `json:"targetProductId"`
	TargetSizeID     int64 `json:"targetSizeId"`
	TargetQuantity   int64 `json:"targetQuantity"`
}

// boxUnion decodes the backend's box union: a Box, an authorization error
// variant, or null.
type boxUnion struct {
	Typename string `json:"__typename"`
	models.Box
	BaseName         string `json:"baseName"`
	OrganisationName string `json:"organisationName"`
}

func decodeBoxUnion(raw json.RawMessage, res *QRResult) error {
	if len(raw) == 0 || string(raw) == "null" {
		res.Box = nil
		res.BoxAuthorized = true
		res.BaseAuthorized = true
		return nil
	}

	var u boxUnion
	if err := json.Unmarshal(raw, &u); err != nil {
		return fmt.Errorf("decode box payload: %w", err)
	}

	switch u.Typename {
	case "UnauthorizedForBaseError":
		res.BaseAuthorized = false
		res.BaseName = u.BaseName
		res.OrganisationName = u.OrganisationName
	case "InsufficientPermissionError":
		res.BaseAuthorized = true
		res.BoxAuthorized = false
	default:
		box := u.Box
		res.Box = &box
		res.BoxAuthorized = true
		res.BaseAuthorized = true
	}
	return nil
}
