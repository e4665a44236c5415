package boxtribute

import (
	"context"
	"encoding/json"
	"fmt"

	"boxscan/models"
)

const boxFields = `
labelIdentifier
state
numberOfItems
product { id name sizeRange { id label sizes { id label } } }
size { id label }
location { id name base { id name organisation { id name } } }
tags { id name }`

const qrCodeQuery = `
query ResolveQrCode($code: String!) {
  qrCode(code: $code) {
    __typename
    ... on QrCode {
      code
      box {
        __typename
        ... on Box {` + boxFields + `
        }
        ... on UnauthorizedForBaseError { baseName organisationName }
        ... on InsufficientPermissionError { permissionName }
      }
    }
    ... on ResourceDoesNotExistError { resourceName }
  }
}`

const boxByLabelQuery = `
query BoxByLabel($labelIdentifier: String!) {
  box(labelIdentifier: $labelIdentifier) {
    __typename
    ... on Box {` + boxFields + `
    }
    ... on InsufficientPermissionError { permissionName }
  }
}`

const shipmentFields = `
id
state
sourceBase { id name organisation { id name } }
targetBase { id name organisation { id name } }
details {
  id
  removedOn
  sourceQuantity
  sourceProduct { id name sizeRange { id label sizes { id label } } }
  sourceSize { id label }
  autoMatchingTargetProduct { id name sizeRange { id label sizes { id label } } }
  box {` + boxFields + `
  }
}`

const shipmentQuery = `
query Shipment($id: Int!) {
  shipment(id: $id) {` + shipmentFields + `
  }
}`

// ResolveQRCode resolves a scanned code to its linked box, honoring the cache
// policy. Transport and server errors are returned as-is; authorization and
// not-found situations are reported inside the QRResult.
func (c *Client) ResolveQRCode(ctx context.Context, code string, policy CachePolicy) (QRResult, error) {
	if policy == CacheFirst {
		if cached, ok := c.qrCache.get(code); ok {
			return cached, nil
		}
	}

	var data struct {
		QrCode *struct {
			Typename string          `json:"__typename"`
			Code     string          `json:"code"`
			Box      json.RawMessage `json:"box"`
		} `json:"qrCode"`
	}
	if err := c.do(ctx, "ResolveQrCode", qrCodeQuery, map[string]any{"code": code}, &data); err != nil {
		return QRResult{}, err
	}

	if data.QrCode == nil || data.QrCode.Typename == "ResourceDoesNotExistError" {
		return QRResult{Found: false}, nil
	}

	res := QRResult{Found: true}
	if err := decodeBoxUnion(data.QrCode.Box, &res); err != nil {
		return QRResult{}, err
	}
	c.qrCache.put(code, res)
	return res, nil
}

// BoxByLabel looks a box up by its printed label identifier. A missing box is
// (nil, nil); a permission-denied box is a FORBIDDEN *APIError.
func (c *Client) BoxByLabel(ctx context.Context, labelIdentifier string) (QRResult, error) {
	var data struct {
		Box json.RawMessage `json:"box"`
	}
	if err := c.do(ctx, "BoxByLabel", boxByLabelQuery, map[string]any{"labelIdentifier": labelIdentifier}, &data); err != nil {
		return QRResult{}, err
	}

	if len(data.Box) == 0 || string(data.Box) == "null" {
		return QRResult{Found: false}, nil
	}
	res := QRResult{Found: true}
	if err := decodeBoxUnion(data.Box, &res); err != nil {
		return QRResult{}, err
	}
	if res.Box == nil && res.BaseAuthorized && res.BoxAuthorized {
		// The box field decoded to null content without an error variant.
		return QRResult{Found: false}, nil
	}
	return res, nil
}

// Shipment fetches one shipment with its full detail list.
func (c *Client) Shipment(ctx context.Context, id int64) (*models.Shipment, error) {
	var data struct {
		Shipment *models.Shipment `json:"shipment"`
	}
	if err := c.do(ctx, "Shipment", shipmentQuery, map[string]any{"id": id}, &data); err != nil {
		return nil, err
	}
	if data.Shipment == nil {
		return nil, fmt.Errorf("shipment %d not found", id)
	}
	return data.Shipment, nil
}
