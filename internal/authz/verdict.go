package authz

import (
	"net/http"

	"pixshare-backend/internal/models"
)

// Decision is the terminal outcome of one authorization check.
type Decision int

const (
	DecisionGranted Decision = iota
	DecisionAuthRequired
	DecisionForbidden
	DecisionNotFound
	DecisionInvalidShare
)

func (d Decision) String() string {
	switch d {
	case DecisionGranted:
		return "granted"
	case DecisionAuthRequired:
		return "authentication_required"
	case DecisionForbidden:
		return "forbidden"
	case DecisionNotFound:
		return "not_found"
	case DecisionInvalidShare:
		return "invalid_share"
	default:
		return "unknown"
	}
}

// Capabilities is the permission set attached to a granted verdict.
// Owner implies every flag.
type Capabilities struct {
	CanView    bool `json:"can_view"`
	CanComment bool `json:"can_comment"`
	CanReact   bool `json:"can_react"`
	CanUpload  bool `json:"can_upload"`
	CanCurate  bool `json:"can_curate"`
	Owner      bool `json:"owner"`
}

// OwnerCapabilities is the full capability set granted to resource owners.
func OwnerCapabilities() Capabilities {
	return Capabilities{
		CanView:    true,
		CanComment: true,
		CanReact:   true,
		CanUpload:  true,
		CanCurate:  true,
		Owner:      true,
	}
}

func capsFrom(c models.Capabilities) Capabilities {
	return Capabilities{
		CanView:    true,
		CanComment: c.CanComment,
		CanReact:   c.CanReact,
		CanUpload:  c.CanUpload,
		CanCurate:  c.CanCurate,
	}
}

// Actor records who the grant was issued to, for attributing writes.
// UserID is zero for guests; Share is non-nil when access came from a token.
type Actor struct {
	UserID models.UserID
	Share  *models.Share
}

// Verdict is the engine's answer for one protected operation.
type Verdict struct {
	Decision     Decision
	Capabilities Capabilities
	Actor        Actor
}

// Allowed reports whether the operation may proceed.
func (v Verdict) Allowed() bool { return v.Decision == DecisionGranted }

// HTTPStatus maps the verdict to the status the route layer should return.
// InvalidShare and NotFound both map to 404 so token probing cannot confirm
// resource existence.
func (v Verdict) HTTPStatus() int {
	switch v.Decision {
	case DecisionGranted:
		return http.StatusOK
	case DecisionAuthRequired:
		return http.StatusUnauthorized
	case DecisionForbidden:
		return http.StatusForbidden
	case DecisionNotFound, DecisionInvalidShare:
		return http.StatusNotFound
	default:
		return http.StatusForbidden
	}
}

// Message returns the user-facing denial message for the verdict.
func (v Verdict) Message() string {
	switch v.Decision {
	case DecisionAuthRequired:
		return "Missing session or share token"
	case DecisionInvalidShare:
		return "Invalid or expired link"
	case DecisionNotFound:
		return "Not found"
	default:
		return "Not authorized"
	}
}

func granted(caps Capabilities, actor Actor) Verdict {
	return Verdict{Decision: DecisionGranted, Capabilities: caps, Actor: actor}
}

func denied(d Decision) Verdict {
	return Verdict{Decision: d}
}
