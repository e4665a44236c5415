package scan

import "boxscan/models"

type resolveRequest struct {
	Value string `json:"value"`
	Multi bool   `json:"multi"`
}

type lookupRequest struct {
	LabelIdentifier string `json:"labelIdentifier"`
}

type removeRequest struct {
	LabelIdentifiers []string `json:"labelIdentifiers"`
}

// OutcomeView is the JSON rendering of a resolution outcome.
type OutcomeView struct {
	Kind             string          `json:"kind"`
	Box              *models.Box     `json:"box,omitempty"`
	Code             string          `json:"code,omitempty"`
	BaseName         string          `json:"baseName,omitempty"`
	OrganisationName string          `json:"organisationName,omitempty"`
	ErrorCode        string          `json:"errorCode,omitempty"`
	Notice           string          `json:"notice,omitempty"`
	Selection        []models.BoxRef `json:"selection,omitempty"`
}

// NewOutcomeView maps every outcome variant onto its view.
func NewOutcomeView(o Outcome) OutcomeView {
	switch v := o.(type) {
	case Success:
		box := v.Box
		return OutcomeView{Kind: "Success", Box: &box}
	case NotAssignedToBox:
		return OutcomeView{Kind: "NotAssignedToBox", Code: v.Code}
	case NotAuthorizedForBase:
		return OutcomeView{Kind: "NotAuthorizedForBase", BaseName: v.BaseName, OrganisationName: v.OrganisationName}
	case NotAuthorizedForBox:
		return OutcomeView{Kind: "NotAuthorizedForBox"}
	case NotBoxtributeCode:
		return OutcomeView{Kind: "NotBoxtributeCode"}
	case NotFound:
		return OutcomeView{Kind: "NotFound"}
	case Fail:
		return OutcomeView{Kind: "Fail", ErrorCode: v.ErrorCode}
	default:
		return OutcomeView{Kind: "Fail", ErrorCode: "INTERNAL_SERVER_ERROR"}
	}
}

type selectionView struct {
	Boxes []models.BoxRef `json:"boxes"`
	Count int             `json:"count"`
}
