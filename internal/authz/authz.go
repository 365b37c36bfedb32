package authz

import (
	"context"
	"errors"
	"time"

	"pixshare-backend/internal/models"

	"github.com/rs/zerolog/log"
)

// Operation is one class of protected action the engine can gate.
type Operation int

const (
	OpViewAlbum Operation = iota
	OpViewPhoto
	OpViewEvent
	OpUploadPhoto
	OpComment
	OpReact
	OpCurate
	OpEditEvent
	OpDeleteAlbum
	OpDeletePhoto
	OpJoinEvent
	OpShareResource
)

// isRead reports whether the operation only reads resource state.
// Reads need no capability flag.
func isRead(op Operation) bool {
	switch op {
	case OpViewAlbum, OpViewPhoto, OpViewEvent:
		return true
	}
	return false
}

// ownerOnly operations can never be granted through a share or a
// participant row, whatever flags they carry.
func ownerOnly(op Operation) bool {
	switch op {
	case OpEditEvent, OpDeleteAlbum, OpDeletePhoto, OpShareResource:
		return true
	}
	return false
}

// capAllows reports whether a capability snapshot permits the operation.
func capAllows(caps models.Capabilities, op Operation) bool {
	switch op {
	case OpViewAlbum, OpViewPhoto, OpViewEvent:
		return true
	case OpComment:
		return caps.CanComment
	case OpReact:
		return caps.CanReact
	case OpUploadPhoto:
		return caps.CanUpload
	case OpCurate:
		return caps.CanCurate
	}
	return false
}

// Target identifies the resource an operation acts on. Exactly one field is
// set; constructors below keep callers honest.
type Target struct {
	Album models.AlbumID
	Photo models.PhotoID
	Event models.EventID
}

func AlbumTarget(id models.AlbumID) Target { return Target{Album: id} }
func PhotoTarget(id models.PhotoID) Target { return Target{Photo: id} }
func EventTarget(id models.EventID) Target { return Target{Event: id} }

// Credentials carries the raw, unverified credential material extracted
// from a request. Empty fields mean the credential was not supplied.
type Credentials struct {
	SessionToken string
	ShareToken   string
	GuestKey     string
}

// IdentityResolver verifies session credentials and extracts the caller's
// user id. Absent and invalid credentials are indistinguishable: both
// report ok=false.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, sessionToken string) (models.UserID, bool)
}

// ShareResolver looks up a share row by its token. Expired shares are still
// returned; the engine applies the expiry check itself.
type ShareResolver interface {
	GetByToken(ctx context.Context, token string) (*models.Share, error)
}

// ResourceGraph answers the read-only ownership and membership questions
// the decision rules depend on. Lookups for a missing resource return
// models.ErrNotFound.
type ResourceGraph interface {
	GetAlbumOwner(ctx context.Context, id models.AlbumID) (models.UserID, error)
	GetPhoto(ctx context.Context, id models.PhotoID) (*models.Photo, error)
	GetEventOwner(ctx context.Context, id models.EventID) (models.UserID, error)
	GetAlbumsForEvent(ctx context.Context, id models.EventID) ([]models.AlbumID, error)
	IsParticipant(ctx context.Context, event models.EventID, user models.UserID) (bool, error)

	// EventParticipant returns the capability snapshot captured when the
	// user joined the event, or nil when they are not a participant.
	EventParticipant(ctx context.Context, event models.EventID, user models.UserID) (*models.Capabilities, error)

	// AlbumParticipant returns the joined capability snapshot for a user
	// who participates in at least one event the album is attached to,
	// or nil when no such membership exists.
	AlbumParticipant(ctx context.Context, album models.AlbumID, user models.UserID) (*models.Capabilities, error)

	// OwnsAlbumViaEvent reports whether the user owns an event the album
	// is currently attached to.
	OwnsAlbumViaEvent(ctx context.Context, album models.AlbumID, user models.UserID) (bool, error)
}

// Engine decides, for each protected operation, whether a request holding
// some combination of session identity and share token is authorized and at
// what capability level. It is stateless and safe for concurrent use; all
// state lives behind the collaborator interfaces.
type Engine struct {
	identity IdentityResolver
	shares   ShareResolver
	graph    ResourceGraph
	now      func() time.Time
}

// New creates an authorization engine over the given collaborators.
func New(identity IdentityResolver, shares ShareResolver, graph ResourceGraph) *Engine {
	return &Engine{
		identity: identity,
		shares:   shares,
		graph:    graph,
		now:      time.Now,
	}
}

// Authorize evaluates the decision rules in fixed precedence: owner,
// participant, share, default deny. Identity rules run first; the share is
// consulted only when identity does not already grant the operation, so a
// share can never downgrade an authenticated owner.
func (e *Engine) Authorize(ctx context.Context, op Operation, target Target, creds Credentials) Verdict {
	var (
		uid    models.UserID
		authed bool
	)
	if creds.SessionToken != "" {
		uid, authed = e.identity.ResolveIdentity(ctx, creds.SessionToken)
	}

	if op == OpJoinEvent {
		return e.authorizeJoin(ctx, target, creds, uid, authed)
	}

	if authed {
		if v, done := e.authorizeIdentity(ctx, op, target, uid); done {
			return v
		}
	}

	if creds.ShareToken != "" {
		return e.authorizeShare(ctx, op, target, creds.ShareToken)
	}

	if authed {
		return denied(DecisionForbidden)
	}
	return denied(DecisionAuthRequired)
}

// authorizeIdentity applies the owner and participant rules. done=false
// means neither rule applied and the share rule should be consulted;
// done=true carries a terminal verdict (grant, not-found, or fail-closed).
func (e *Engine) authorizeIdentity(ctx context.Context, op Operation, target Target, uid models.UserID) (Verdict, bool) {
	switch {
	case target.Photo != 0:
		p, err := e.graph.GetPhoto(ctx, target.Photo)
		if errors.Is(err, models.ErrNotFound) {
			return denied(DecisionNotFound), true
		}
		if err != nil {
			return e.failClosed(err), true
		}
		return e.albumMembership(ctx, op, p.AlbumID, p.UserID, uid)

	case target.Album != 0:
		owner, err := e.graph.GetAlbumOwner(ctx, target.Album)
		if errors.Is(err, models.ErrNotFound) {
			return denied(DecisionNotFound), true
		}
		if err != nil {
			return e.failClosed(err), true
		}
		return e.albumMembership(ctx, op, target.Album, owner, uid)

	case target.Event != 0:
		owner, err := e.graph.GetEventOwner(ctx, target.Event)
		if errors.Is(err, models.ErrNotFound) {
			return denied(DecisionNotFound), true
		}
		if err != nil {
			return e.failClosed(err), true
		}
		if owner == uid {
			return granted(OwnerCapabilities(), Actor{UserID: uid}), true
		}
		caps, err := e.graph.EventParticipant(ctx, target.Event, uid)
		if err != nil {
			return e.failClosed(err), true
		}
		if caps != nil && !ownerOnly(op) && capAllows(*caps, op) {
			return granted(capsFrom(*caps), Actor{UserID: uid}), true
		}
		return Verdict{}, false
	}
	return denied(DecisionForbidden), true
}

// albumMembership grants by album ownership (direct or through an owned
// event) or by event participation carrying the album.
func (e *Engine) albumMembership(ctx context.Context, op Operation, album models.AlbumID, owner, uid models.UserID) (Verdict, bool) {
	if owner == uid {
		return granted(OwnerCapabilities(), Actor{UserID: uid}), true
	}
	ownsVia, err := e.graph.OwnsAlbumViaEvent(ctx, album, uid)
	if err != nil {
		return e.failClosed(err), true
	}
	if ownsVia {
		return granted(OwnerCapabilities(), Actor{UserID: uid}), true
	}
	caps, err := e.graph.AlbumParticipant(ctx, album, uid)
	if err != nil {
		return e.failClosed(err), true
	}
	if caps != nil && !ownerOnly(op) && capAllows(*caps, op) {
		return granted(capsFrom(*caps), Actor{UserID: uid}), true
	}
	return Verdict{}, false
}

// authorizeShare applies the share rule: resolve the token, check scope
// containment, then gate the operation on the share's capability flags.
func (e *Engine) authorizeShare(ctx context.Context, op Operation, target Target, token string) Verdict {
	s, err := e.shares.GetByToken(ctx, token)
	if errors.Is(err, models.ErrNotFound) {
		return denied(DecisionInvalidShare)
	}
	if err != nil {
		return e.failClosed(err)
	}
	if s.Expired(e.now()) {
		return denied(DecisionInvalidShare)
	}

	in, deny := e.shareContains(ctx, s, target)
	if !in {
		return deny
	}
	if ownerOnly(op) || !capAllows(s.Caps, op) {
		return denied(DecisionForbidden)
	}
	return granted(capsFrom(s.Caps), Actor{Share: s})
}

// shareContains reports whether the share's scope covers the target.
// When it does not, the second value is the denial to return: Forbidden when
// the mismatch is provable from ids alone, NotFound when proving it needed a
// lookup that would otherwise confirm the resource exists.
func (e *Engine) shareContains(ctx context.Context, s *models.Share, target Target) (bool, Verdict) {
	switch s.Scope() {
	case models.ScopeAlbum:
		if target.Album != 0 {
			if target.Album == *s.AlbumID {
				return true, Verdict{}
			}
			return false, denied(DecisionForbidden)
		}
		if target.Photo != 0 {
			p, err := e.graph.GetPhoto(ctx, target.Photo)
			if errors.Is(err, models.ErrNotFound) {
				return false, denied(DecisionNotFound)
			}
			if err != nil {
				return false, e.failClosed(err)
			}
			if p.AlbumID == *s.AlbumID {
				return true, Verdict{}
			}
			return false, denied(DecisionNotFound)
		}
		return false, denied(DecisionForbidden)

	case models.ScopePhoto:
		// A photo share covers exactly that photo: not its siblings and
		// not album-level operations on its own album.
		if target.Photo != 0 && target.Photo == *s.PhotoID {
			return true, Verdict{}
		}
		return false, denied(DecisionForbidden)

	case models.ScopeEvent:
		if target.Event != 0 {
			if target.Event == *s.EventID {
				return true, Verdict{}
			}
			return false, denied(DecisionForbidden)
		}
		albums, err := e.graph.GetAlbumsForEvent(ctx, *s.EventID)
		if err != nil {
			return false, e.failClosed(err)
		}
		if target.Album != 0 {
			if containsAlbum(albums, target.Album) {
				return true, Verdict{}
			}
			return false, denied(DecisionForbidden)
		}
		if target.Photo != 0 {
			p, err := e.graph.GetPhoto(ctx, target.Photo)
			if errors.Is(err, models.ErrNotFound) {
				return false, denied(DecisionNotFound)
			}
			if err != nil {
				return false, e.failClosed(err)
			}
			if containsAlbum(albums, p.AlbumID) {
				return true, Verdict{}
			}
			return false, denied(DecisionNotFound)
		}
		return false, denied(DecisionForbidden)
	}

	// A share with no (or an ambiguous) scope authorizes nothing.
	return false, denied(DecisionForbidden)
}

// authorizeJoin gates event membership creation: it needs a verified
// identity and then ownership, an existing membership row, or a live share
// scoped to the event.
func (e *Engine) authorizeJoin(ctx context.Context, target Target, creds Credentials, uid models.UserID, authed bool) Verdict {
	if target.Event == 0 {
		return denied(DecisionForbidden)
	}
	if !authed {
		return denied(DecisionAuthRequired)
	}
	owner, err := e.graph.GetEventOwner(ctx, target.Event)
	if errors.Is(err, models.ErrNotFound) {
		return denied(DecisionNotFound)
	}
	if err != nil {
		return e.failClosed(err)
	}
	if owner == uid {
		return granted(OwnerCapabilities(), Actor{UserID: uid})
	}
	joined, err := e.graph.IsParticipant(ctx, target.Event, uid)
	if err != nil {
		return e.failClosed(err)
	}
	if joined {
		// Membership is idempotent: an existing participant may run the
		// join flow again even after the link rotated or expired.
		return granted(Capabilities{CanView: true}, Actor{UserID: uid})
	}
	if creds.ShareToken == "" {
		return denied(DecisionForbidden)
	}
	s, err := e.shares.GetByToken(ctx, creds.ShareToken)
	if errors.Is(err, models.ErrNotFound) {
		return denied(DecisionInvalidShare)
	}
	if err != nil {
		return e.failClosed(err)
	}
	if s.Expired(e.now()) {
		return denied(DecisionInvalidShare)
	}
	if s.Scope() != models.ScopeEvent || *s.EventID != target.Event {
		return denied(DecisionForbidden)
	}
	return granted(capsFrom(s.Caps), Actor{UserID: uid, Share: s})
}

// failClosed turns any collaborator failure into a denial. A lookup error
// must never surface as a grant.
func (e *Engine) failClosed(err error) Verdict {
	log.Error().Err(err).Msg("Authorization lookup failed")
	return denied(DecisionForbidden)
}

func containsAlbum(albums []models.AlbumID, id models.AlbumID) bool {
	for _, a := range albums {
		if a == id {
			return true
		}
	}
	return false
}
