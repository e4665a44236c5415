package bulk

import "boxscan/models"

type moveRequest struct {
	LocationID int64 `json:"locationID"`
}

type tagRequest struct {
	TagIDs []int64 `json:"tagIDs"`
}

type assignRequest struct {
	ShipmentID int64 `json:"shipmentID"`
}

// resultView echoes the partition plus the selection left after the action.
type resultView struct {
	Requested []string        `json:"requested"`
	Succeeded []string        `json:"succeeded"`
	Failed    []string        `json:"failed"`
	Selection []models.BoxRef `json:"selection"`
}

// blockedView is returned when an assign is refused because the selection
// still holds boxes that are not InStock. RemediationPath points at the
// endpoint that strips them in one call.
type blockedView struct {
	Error           string   `json:"error"`
	BlockingBoxes   []string `json:"blockingBoxes"`
	RemediationPath string   `json:"remediationPath"`
}
