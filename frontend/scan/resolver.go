package scan

import (
	"context"
	"errors"
	"net/url"
	"regexp"
	"strings"

	"boxscan/infrastructure/boxtribute"
)

// API is the backend surface the resolver needs.
type API interface {
	ResolveQRCode(ctx context.Context, code string, policy boxtribute.CachePolicy) (boxtribute.QRResult, error)
	BoxByLabel(ctx context.Context, labelIdentifier string) (boxtribute.QRResult, error)
}

// ErrInvalidLabel rejects malformed label input locally, before any query.
var ErrInvalidLabel = errors.New("label identifier must be at least 6 digits")

var (
	codePattern  = regexp.MustCompile(`^[0-9a-f]{8,}$`)
	labelPattern = regexp.MustCompile(`^[0-9]{6,}$`)
)

// Resolver turns raw scanner payloads and typed labels into Outcomes.
type Resolver struct {
	api API
}

func NewResolver(api API) *Resolver {
	return &Resolver{api: api}
}

// ExtractCode pulls the code token out of a raw scanned payload: either a
// boxtribute QR URL carrying a barcode query parameter, or a bare hex token.
func ExtractCode(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		u, err := url.Parse(raw)
		if err != nil || !strings.Contains(strings.ToLower(u.Host), "boxtribute") {
			return "", false
		}
		code := strings.ToLower(u.Query().Get("barcode"))
		if codePattern.MatchString(code) {
			return code, true
		}
		return "", false
	}

	lowered := strings.ToLower(raw)
	if codePattern.MatchString(lowered) {
		return lowered, true
	}
	return "", false
}

// ValidLabelIdentifier reports whether input passes the local label guard:
// digits only, at least 6 of them.
func ValidLabelIdentifier(labelIdentifier string) bool {
	return labelPattern.MatchString(strings.TrimSpace(labelIdentifier))
}

// Resolve classifies a scanned payload. Extraction failures never hit the
// backend. Outcome precedence: Fail, NotBoxtributeCode, NotAssignedToBox,
// NotAuthorizedForBase, NotAuthorizedForBox, Success.
func (r *Resolver) Resolve(ctx context.Context, rawValue string, policy boxtribute.CachePolicy) Outcome {
	code, ok := ExtractCode(rawValue)
	if !ok {
		return NotBoxtributeCode{}
	}

	res, err := r.api.ResolveQRCode(ctx, code, policy)
	if err != nil {
		return Fail{ErrorCode: boxtribute.ErrorCode(err), Err: err}
	}

	switch {
	case !res.Found:
		return NotBoxtributeCode{}
	case res.Box == nil && res.BaseAuthorized && res.BoxAuthorized:
		return NotAssignedToBox{Code: code}
	case !res.BaseAuthorized:
		return NotAuthorizedForBase{BaseName: res.BaseName, OrganisationName: res.OrganisationName}
	case !res.BoxAuthorized:
		return NotAuthorizedForBox{}
	default:
		return Success{Box: *res.Box}
	}
}

// Lookup resolves a typed label identifier. The outcome set is restricted to
// Success, NotAuthorizedForBox, NotFound and Fail; malformed input returns
// ErrInvalidLabel without querying.
func (r *Resolver) Lookup(ctx context.Context, labelIdentifier string) (Outcome, error) {
	labelIdentifier = strings.TrimSpace(labelIdentifier)
	if !ValidLabelIdentifier(labelIdentifier) {
		return nil, ErrInvalidLabel
	}

	res, err := r.api.BoxByLabel(ctx, labelIdentifier)
	if err != nil {
		if boxtribute.IsForbidden(err) {
			return NotAuthorizedForBox{}, nil
		}
		return Fail{ErrorCode: boxtribute.ErrorCode(err), Err: err}, nil
	}

	switch {
	case !res.Found:
		return NotFound{}, nil
	case !res.BoxAuthorized || res.Box == nil:
		return NotAuthorizedForBox{}, nil
	default:
		return Success{Box: *res.Box}, nil
	}
}
