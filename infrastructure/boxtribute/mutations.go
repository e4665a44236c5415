package boxtribute

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"boxscan/models"
)

// The batched box mutations compose one document with one aliased updateBox
// field per box, so a whole selection moves in a single round trip. A box the
// server could not update comes back as a null alias.

func moveAlias(labelIdentifier string) string {
	return "moveBox" + labelIdentifier
}

func tagAlias(labelIdentifier string) string {
	return "tagBox" + labelIdentifier
}

func buildMoveBoxesDocument(labelIdentifiers []string, locationID int64) string {
	var b strings.Builder
	b.WriteString("mutation MoveBoxes {\n")
	for _, label := range labelIdentifiers {
		fmt.Fprintf(&b, "  %s: updateBox(updateInput: { labelIdentifier: %s, locationId: %d }) { labelIdentifier state location { id name } }\n",
			moveAlias(label), strconv.Quote(label), locationID)
	}
	b.WriteString("}")
	return b.String()
}

func buildAssignTagsDocument(labelIdentifiers []string, tagIDs []int64) string {
	ids := make([]string, len(tagIDs))
	for i, id := range tagIDs {
		ids[i] = strconv.FormatInt(id, 10)
	}
	tagList := "[" + strings.Join(ids, ", ") + "]"

	var b strings.Builder
	b.WriteString("mutation AssignTags {\n")
	for _, label := range labelIdentifiers {
		fmt.Fprintf(&b, "  %s: updateBox(updateInput: { labelIdentifier: %s, tagIdsToBeAdded: %s }) { labelIdentifier tags { id name } }\n",
			tagAlias(label), strconv.Quote(label), tagList)
	}
	b.WriteString("}")
	return b.String()
}

// MoveBoxesBatch moves every listed box to locationID in one mutation. The
// returned map has an entry per requested label; nil means the server did not
// report that box back.
func (c *Client) MoveBoxesBatch(ctx context.Context, labelIdentifiers []string, locationID int64) (map[string]*MovedBox, error) {
	doc := buildMoveBoxesDocument(labelIdentifiers, locationID)

	var data map[string]json.RawMessage
	if err := c.do(ctx, "MoveBoxes", doc, nil, &data); err != nil {
		return nil, err
	}

	out := make(map[string]*MovedBox, len(labelIdentifiers))
	for _, label := range labelIdentifiers {
		out[label] = nil
		raw, ok := data[moveAlias(label)]
		if !ok || string(raw) == "null" {
			continue
		}
		var moved MovedBox
		if err := json.Unmarshal(raw, &moved); err != nil {
			continue
		}
		out[label] = &moved
	}
	return out, nil
}

// AssignTagsBatch adds tagIDs to every listed box in one mutation.
func (c *Client) AssignTagsBatch(ctx context.Context, labelIdentifiers []string, tagIDs []int64) (map[string]*TaggedBox, error) {
	doc := buildAssignTagsDocument(labelIdentifiers, tagIDs)

	var data map[string]json.RawMessage
	if err := c.do(ctx, "AssignTags", doc, nil, &data); err != nil {
		return nil, err
	}

	out := make(map[string]*TaggedBox, len(labelIdentifiers))
	for _, label := range labelIdentifiers {
		out[label] = nil
		raw, ok := data[tagAlias(label)]
		if !ok || string(raw) == "null" {
			continue
		}
		var tagged TaggedBox
		if err := json.Unmarshal(raw, &tagged); err != nil {
			continue
		}
		out[label] = &tagged
	}
	return out, nil
}

const updateShipmentPreparingMutation = `
mutation UpdateShipmentPreparing($id: Int!, $prepared: [String!], $removed: [String!]) {
  updateShipmentWhenPreparing(updateInput: {
    id: $id
    preparedBoxLabelIdentifiers: $prepared
    removedBoxLabelIdentifiers: $removed
  }) {` + shipmentFields + `
  }
}`

const updateShipmentReceivingMutation = `
mutation UpdateShipmentReceiving($id: Int!, $lost: [String!], $received: [ShipmentDetailUpdateInput!]) {
  updateShipmentWhenReceiving(updateInput: {
    id: $id
    lostBoxLabelIdentifiers: $lost
    receivedShipmentDetailUpdateInputs: $received
  }) {` + shipmentFields + `
  }
}`

// UpdateShipmentPreparing adds and/or removes boxes on a shipment that is
// still being prepared and returns the resulting shipment.
func (c *Client) UpdateShipmentPreparing(ctx context.Context, shipmentID int64, prepared, removed []string) (*models.Shipment, error) {
	var data struct {
		Shipment *models.Shipment `json:"updateShipmentWhenPreparing"`
	}
	vars := map[string]any{"id": shipmentID, "prepared": prepared, "removed": removed}
	if err := c.do(ctx, "UpdateShipmentPreparing", updateShipmentPreparingMutation, vars, &data); err != nil {
		return nil, err
	}
	if data.Shipment == nil {
		return nil, fmt.Errorf("empty shipment payload for shipment %d", shipmentID)
	}
	return data.Shipment, nil
}

// UpdateShipmentReceiving marks boxes lost and/or records received line items
// on a receiving shipment and returns the resulting shipment.
func (c *Client) UpdateShipmentReceiving(ctx context.Context, shipmentID int64, lost []string, received []ReceivedDetailUpdate) (*models.Shipment, error) {
	var data struct {
		Shipment *models.Shipment `json:"updateShipmentWhenReceiving"`
	}
	vars := map[string]any{"id": shipmentID, "lost": lost, "received": received}
	if err := c.do(ctx, "UpdateShipmentReceiving", updateShipmentReceivingMutation, vars, &data); err != nil {
		return nil, err
	}
	if data.Shipment == nil {
		return nil, fmt.Errorf("empty shipment payload for shipment %d", shipmentID)
	}
	return data.Shipment, nil
}
