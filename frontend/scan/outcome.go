package scan

import "boxscan/models"

// Outcome is the result of resolving a scanned code or a typed label
// identifier. Exactly one variant describes any resolution; call sites switch
// over the concrete type.
type Outcome interface {
	outcome()
}

// Success carries the full box record for an authorized, linked code.
type Success struct {
	Box models.Box
}

// NotAssignedToBox means the code is a valid boxtribute code with no box
// linked to it yet. Only reachable via code scanning, not label lookup.
type NotAssignedToBox struct {
	Code string
}

// NotAuthorizedForBase means the box lives in a base of a different
// organisation; only the base and organisation names are disclosed.
type NotAuthorizedForBase struct {
	BaseName         string
	OrganisationName string
}

// NotAuthorizedForBox means the caller's organisation owns the base but the
// caller lacks permission to view the box.
type NotAuthorizedForBox struct{}

// NotBoxtributeCode means the scanned payload is not a recognized code.
type NotBoxtributeCode struct{}

// NotFound means a label lookup matched no box.
type NotFound struct{}

// Fail is a transport or server failure; ErrorCode is the taxonomy bucket.
type Fail struct {
	ErrorCode string
	Err       error
}

func (Success) outcome()              {}
func (NotAssignedToBox) outcome()     {}
func (NotAuthorizedForBase) outcome() {}
func (NotAuthorizedForBox) outcome()  {}
func (NotBoxtributeCode) outcome()    {}
func (NotFound) outcome()             {}
func (Fail) outcome()                 {}
