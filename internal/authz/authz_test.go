package authz

import (
	"context"
	"errors"
	"testing"
	"time"

	"pixshare-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeIdentity resolves fixed session tokens to user ids.
type fakeIdentity map[string]models.UserID

func (f fakeIdentity) ResolveIdentity(_ context.Context, token string) (models.UserID, bool) {
	uid, ok := f[token]
	return uid, ok
}

// fakeShares is a ShareResolver over a fixed token map that counts lookups.
type fakeShares struct {
	byToken map[string]*models.Share
	calls   int
}

func (f *fakeShares) GetByToken(_ context.Context, token string) (*models.Share, error) {
	f.calls++
	s, ok := f.byToken[token]
	if !ok {
		return nil, models.ErrNotFound
	}
	return s, nil
}

type participantKey struct {
	event models.EventID
	user  models.UserID
}

// fakeGraph is an in-memory ResourceGraph that counts every lookup, so
// tests can assert that structural guards run before any data access.
type fakeGraph struct {
	albumOwners  map[models.AlbumID]models.UserID
	photos       map[models.PhotoID]*models.Photo
	eventOwners  map[models.EventID]models.UserID
	eventAlbums  map[models.EventID][]models.AlbumID
	participants map[participantKey]models.Capabilities
	calls        int
}

func (g *fakeGraph) GetAlbumOwner(_ context.Context, id models.AlbumID) (models.UserID, error) {
	g.calls++
	owner, ok := g.albumOwners[id]
	if !ok {
		return 0, models.ErrNotFound
	}
	return owner, nil
}

func (g *fakeGraph) GetPhoto(_ context.Context, id models.PhotoID) (*models.Photo, error) {
	g.calls++
	p, ok := g.photos[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return p, nil
}

func (g *fakeGraph) GetEventOwner(_ context.Context, id models.EventID) (models.UserID, error) {
	g.calls++
	owner, ok := g.eventOwners[id]
	if !ok {
		return 0, models.ErrNotFound
	}
	return owner, nil
}

func (g *fakeGraph) GetAlbumsForEvent(_ context.Context, id models.EventID) ([]models.AlbumID, error) {
	g.calls++
	return g.eventAlbums[id], nil
}

func (g *fakeGraph) IsParticipant(_ context.Context, event models.EventID, user models.UserID) (bool, error) {
	g.calls++
	_, ok := g.participants[participantKey{event, user}]
	return ok, nil
}

func (g *fakeGraph) EventParticipant(_ context.Context, event models.EventID, user models.UserID) (*models.Capabilities, error) {
	g.calls++
	caps, ok := g.participants[participantKey{event, user}]
	if !ok {
		return nil, nil
	}
	return &caps, nil
}

func (g *fakeGraph) AlbumParticipant(_ context.Context, album models.AlbumID, user models.UserID) (*models.Capabilities, error) {
	g.calls++
	for key, caps := range g.participants {
		if key.user != user {
			continue
		}
		for _, a := range g.eventAlbums[key.event] {
			if a == album {
				c := caps
				return &c, nil
			}
		}
	}
	return nil, nil
}

func (g *fakeGraph) OwnsAlbumViaEvent(_ context.Context, album models.AlbumID, user models.UserID) (bool, error) {
	g.calls++
	for event, owner := range g.eventOwners {
		if owner != user {
			continue
		}
		for _, a := range g.eventAlbums[event] {
			if a == album {
				return true, nil
			}
		}
	}
	return false, nil
}

func albumID(id models.AlbumID) *models.AlbumID { return &id }
func photoID(id models.PhotoID) *models.PhotoID { return &id }
func eventID(id models.EventID) *models.EventID { return &id }

// newTestEngine builds a small world:
//
//	user 1 owns albums 1 and 2 (photos 1,2 in album 1; photo 3 in album 2)
//	and event 10 with albums {1,2} attached.
//	user 2 joined event 10 with comment+upload capabilities.
//	user 3 owns album 3 with photo 4, unattached to any event.
func newTestEngine(t *testing.T) (*Engine, *fakeShares, *fakeGraph) {
	t.Helper()
	past := time.Now().Add(-time.Hour)
	graph := &fakeGraph{
		albumOwners: map[models.AlbumID]models.UserID{1: 1, 2: 1, 3: 3},
		photos: map[models.PhotoID]*models.Photo{
			1: {ID: 1, AlbumID: 1, UserID: 1, FilePath: "photos/1/1/x.jpg"},
			2: {ID: 2, AlbumID: 1, UserID: 1, FilePath: "photos/1/1/y.jpg"},
			3: {ID: 3, AlbumID: 2, UserID: 1, FilePath: "photos/1/2/x.jpg"},
			4: {ID: 4, AlbumID: 3, UserID: 3, FilePath: "photos/3/3/z.jpg"},
		},
		eventOwners: map[models.EventID]models.UserID{10: 1},
		eventAlbums: map[models.EventID][]models.AlbumID{10: {1, 2}},
		participants: map[participantKey]models.Capabilities{
			{10, 2}: {CanComment: true, CanUpload: true},
		},
	}
	shares := &fakeShares{byToken: map[string]*models.Share{
		"tokA": {ID: 1, Token: "tokA", AlbumID: albumID(1), Caps: models.Capabilities{CanComment: true}},
		"tokP": {ID: 2, Token: "tokP", PhotoID: photoID(1), Caps: models.Capabilities{CanComment: true}},
		"tokE": {ID: 3, Token: "tokE", EventID: eventID(10), Caps: models.Capabilities{CanUpload: true}},
		"tokX": {ID: 4, Token: "tokX", AlbumID: albumID(1), ExpiresAt: &past},
		"tokN": {ID: 5, Token: "tokN"},
	}}
	identity := fakeIdentity{"sess1": 1, "sess2": 2, "sess3": 3}

	return New(identity, shares, graph), shares, graph
}

func TestOwnerFullAccess(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	creds := Credentials{SessionToken: "sess1"}

	ops := []Operation{OpViewAlbum, OpUploadPhoto, OpComment, OpDeleteAlbum, OpShareResource}
	for _, op := range ops {
		v := e.Authorize(ctx, op, AlbumTarget(1), creds)
		require.Equal(t, DecisionGranted, v.Decision, "op %d", op)
		assert.True(t, v.Capabilities.Owner)
		assert.Equal(t, models.UserID(1), v.Actor.UserID)
	}

	// Ownership flows down the hierarchy: photo via album, album via event.
	v := e.Authorize(ctx, OpDeletePhoto, PhotoTarget(3), creds)
	assert.Equal(t, DecisionGranted, v.Decision)
	v = e.Authorize(ctx, OpEditEvent, EventTarget(10), creds)
	assert.Equal(t, DecisionGranted, v.Decision)
}

func TestEventOwnerReachesAttachedAlbums(t *testing.T) {
	e, _, g := newTestEngine(t)
	ctx := context.Background()

	// Hand album 3 to an event owned by user 1; its owner is still user 3
	// but the event owner gains full rights through the attachment.
	g.eventAlbums[10] = append(g.eventAlbums[10], 3)
	v := e.Authorize(ctx, OpViewAlbum, AlbumTarget(3), Credentials{SessionToken: "sess1"})
	assert.Equal(t, DecisionGranted, v.Decision)
	assert.True(t, v.Capabilities.Owner)
}

func TestAlbumShareScopesToItsPhotos(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	creds := Credentials{ShareToken: "tokA"}

	v := e.Authorize(ctx, OpViewPhoto, PhotoTarget(1), creds)
	require.Equal(t, DecisionGranted, v.Decision)
	assert.Equal(t, models.UserID(0), v.Actor.UserID)
	require.NotNil(t, v.Actor.Share)
	assert.Equal(t, "tokA", v.Actor.Share.Token)

	// Photo in somebody else's album: the mismatch can only be proven by
	// loading the photo, so the engine hides its existence.
	v = e.Authorize(ctx, OpViewPhoto, PhotoTarget(4), creds)
	assert.Equal(t, DecisionNotFound, v.Decision)

	// Wrong album id is provable from the ids alone.
	v = e.Authorize(ctx, OpViewAlbum, AlbumTarget(2), creds)
	assert.Equal(t, DecisionForbidden, v.Decision)
}

func TestShareCapabilityFlagsGateWrites(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	creds := Credentials{ShareToken: "tokA"}

	v := e.Authorize(ctx, OpComment, PhotoTarget(1), creds)
	assert.Equal(t, DecisionGranted, v.Decision)

	// tokA carries can_comment only.
	v = e.Authorize(ctx, OpUploadPhoto, AlbumTarget(1), creds)
	assert.Equal(t, DecisionForbidden, v.Decision)
	v = e.Authorize(ctx, OpReact, PhotoTarget(1), creds)
	assert.Equal(t, DecisionForbidden, v.Decision)

	// Owner-only operations are never share-grantable.
	v = e.Authorize(ctx, OpDeleteAlbum, AlbumTarget(1), creds)
	assert.Equal(t, DecisionForbidden, v.Decision)
}

func TestPhotoShareNeverGrantsAlbumAccess(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	creds := Credentials{ShareToken: "tokP"}

	v := e.Authorize(ctx, OpViewPhoto, PhotoTarget(1), creds)
	assert.Equal(t, DecisionGranted, v.Decision)

	// Not the photo's own album, and not a sibling photo.
	v = e.Authorize(ctx, OpViewAlbum, AlbumTarget(1), creds)
	assert.Equal(t, DecisionForbidden, v.Decision)
	v = e.Authorize(ctx, OpViewPhoto, PhotoTarget(2), creds)
	assert.Equal(t, DecisionForbidden, v.Decision)
}

func TestEventShareCoversAttachedAlbums(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	creds := Credentials{ShareToken: "tokE"}

	v := e.Authorize(ctx, OpViewEvent, EventTarget(10), creds)
	assert.Equal(t, DecisionGranted, v.Decision)
	v = e.Authorize(ctx, OpViewAlbum, AlbumTarget(2), creds)
	assert.Equal(t, DecisionGranted, v.Decision)
	v = e.Authorize(ctx, OpViewPhoto, PhotoTarget(3), creds)
	assert.Equal(t, DecisionGranted, v.Decision)

	// Unattached album and its photo stay invisible.
	v = e.Authorize(ctx, OpViewAlbum, AlbumTarget(3), creds)
	assert.Equal(t, DecisionForbidden, v.Decision)
	v = e.Authorize(ctx, OpViewPhoto, PhotoTarget(4), creds)
	assert.Equal(t, DecisionNotFound, v.Decision)

	// An event share never reaches the event's own metadata.
	v = e.Authorize(ctx, OpEditEvent, EventTarget(10), creds)
	assert.Equal(t, DecisionForbidden, v.Decision)
}

func TestExpiredShareGrantsNothing(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	v := e.Authorize(ctx, OpViewAlbum, AlbumTarget(1), Credentials{ShareToken: "tokX"})
	assert.Equal(t, DecisionInvalidShare, v.Decision)
}

func TestScopelessShareGrantsNothing(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	v := e.Authorize(ctx, OpViewAlbum, AlbumTarget(1), Credentials{ShareToken: "tokN"})
	assert.Equal(t, DecisionForbidden, v.Decision)
}

func TestUnknownShareToken(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	v := e.Authorize(ctx, OpViewAlbum, AlbumTarget(1), Credentials{ShareToken: "nope"})
	assert.Equal(t, DecisionInvalidShare, v.Decision)
}

func TestParticipantReadsAttachedAlbumsOnly(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	creds := Credentials{SessionToken: "sess2"}

	v := e.Authorize(ctx, OpViewAlbum, AlbumTarget(1), creds)
	assert.Equal(t, DecisionGranted, v.Decision)
	v = e.Authorize(ctx, OpViewPhoto, PhotoTarget(3), creds)
	assert.Equal(t, DecisionGranted, v.Decision)

	// Album 3 is not attached to the joined event; a valid session does
	// not help.
	v = e.Authorize(ctx, OpViewAlbum, AlbumTarget(3), creds)
	assert.Equal(t, DecisionForbidden, v.Decision)
}

func TestParticipantWritesMirrorJoinSnapshot(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	creds := Credentials{SessionToken: "sess2"}

	// Snapshot carries comment+upload, not react.
	v := e.Authorize(ctx, OpComment, PhotoTarget(1), creds)
	assert.Equal(t, DecisionGranted, v.Decision)
	assert.False(t, v.Capabilities.Owner)
	v = e.Authorize(ctx, OpUploadPhoto, AlbumTarget(1), creds)
	assert.Equal(t, DecisionGranted, v.Decision)
	v = e.Authorize(ctx, OpReact, PhotoTarget(1), creds)
	assert.Equal(t, DecisionForbidden, v.Decision)
}

func TestLeavingEventRevokesAccess(t *testing.T) {
	e, _, g := newTestEngine(t)
	ctx := context.Background()
	creds := Credentials{SessionToken: "sess2"}

	v := e.Authorize(ctx, OpViewPhoto, PhotoTarget(1), creds)
	require.Equal(t, DecisionGranted, v.Decision)

	delete(g.participants, participantKey{10, 2})

	v = e.Authorize(ctx, OpViewPhoto, PhotoTarget(1), creds)
	assert.Equal(t, DecisionForbidden, v.Decision)
}

func TestIdentityRulesWinOverShare(t *testing.T) {
	e, shares, _ := newTestEngine(t)
	ctx := context.Background()

	// An owner presenting a share keeps owner rights; the share is not
	// even consulted.
	v := e.Authorize(ctx, OpDeleteAlbum, AlbumTarget(1), Credentials{
		SessionToken: "sess1",
		ShareToken:   "tokA",
	})
	require.Equal(t, DecisionGranted, v.Decision)
	assert.True(t, v.Capabilities.Owner)
	assert.Equal(t, 0, shares.calls)
}

func TestShareRescuesInsufficientIdentity(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	// A stranger's session grants nothing on album 1, but the share
	// presented alongside it still works.
	v := e.Authorize(ctx, OpViewAlbum, AlbumTarget(1), Credentials{
		SessionToken: "sess3",
		ShareToken:   "tokA",
	})
	assert.Equal(t, DecisionGranted, v.Decision)
	require.NotNil(t, v.Actor.Share)
}

func TestDefaultDenials(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	// Nothing supplied at all.
	v := e.Authorize(ctx, OpViewAlbum, AlbumTarget(1), Credentials{})
	assert.Equal(t, DecisionAuthRequired, v.Decision)

	// An invalid session is indistinguishable from no session.
	v = e.Authorize(ctx, OpViewAlbum, AlbumTarget(1), Credentials{SessionToken: "garbage"})
	assert.Equal(t, DecisionAuthRequired, v.Decision)

	// A valid session without standing is Forbidden, not 401.
	v = e.Authorize(ctx, OpViewAlbum, AlbumTarget(1), Credentials{SessionToken: "sess3"})
	assert.Equal(t, DecisionForbidden, v.Decision)

	// Missing resources stay hidden behind NotFound.
	v = e.Authorize(ctx, OpViewAlbum, AlbumTarget(99), Credentials{SessionToken: "sess1"})
	assert.Equal(t, DecisionNotFound, v.Decision)
}

func TestJoinEvent(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	// Joining needs an account.
	v := e.Authorize(ctx, OpJoinEvent, EventTarget(10), Credentials{ShareToken: "tokE"})
	assert.Equal(t, DecisionAuthRequired, v.Decision)

	// Identity plus a live event share carries the share's capabilities
	// into the membership snapshot.
	v = e.Authorize(ctx, OpJoinEvent, EventTarget(10), Credentials{
		SessionToken: "sess3",
		ShareToken:   "tokE",
	})
	require.Equal(t, DecisionGranted, v.Decision)
	assert.Equal(t, models.UserID(3), v.Actor.UserID)
	assert.True(t, v.Capabilities.CanUpload)
	assert.False(t, v.Capabilities.CanComment)

	// An album share cannot open event membership.
	v = e.Authorize(ctx, OpJoinEvent, EventTarget(10), Credentials{
		SessionToken: "sess3",
		ShareToken:   "tokA",
	})
	assert.Equal(t, DecisionForbidden, v.Decision)

	// The owner is always in.
	v = e.Authorize(ctx, OpJoinEvent, EventTarget(10), Credentials{SessionToken: "sess1"})
	assert.Equal(t, DecisionGranted, v.Decision)
}

func TestShareResolutionIsIdempotent(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	creds := Credentials{ShareToken: "tokA"}

	first := e.Authorize(ctx, OpViewPhoto, PhotoTarget(1), creds)
	second := e.Authorize(ctx, OpViewPhoto, PhotoTarget(1), creds)
	assert.Equal(t, first.Decision, second.Decision)
	assert.Equal(t, first.Capabilities, second.Capabilities)
}

func TestVerdictHTTPStatus(t *testing.T) {
	assert.Equal(t, 200, Verdict{Decision: DecisionGranted}.HTTPStatus())
	assert.Equal(t, 401, Verdict{Decision: DecisionAuthRequired}.HTTPStatus())
	assert.Equal(t, 403, Verdict{Decision: DecisionForbidden}.HTTPStatus())
	assert.Equal(t, 404, Verdict{Decision: DecisionNotFound}.HTTPStatus())
	assert.Equal(t, 404, Verdict{Decision: DecisionInvalidShare}.HTTPStatus())
}

// errShares fails every lookup with a non-sentinel error.
type errShares struct{}

func (errShares) GetByToken(context.Context, string) (*models.Share, error) {
	return nil, errors.New("share lookup failed")
}

// errGraph fails every lookup with a non-sentinel error.
type errGraph struct{}

var errGraphDown = errors.New("graph lookup failed")

func (errGraph) GetAlbumOwner(context.Context, models.AlbumID) (models.UserID, error) {
	return 0, errGraphDown
}

func (errGraph) GetPhoto(context.Context, models.PhotoID) (*models.Photo, error) {
	return nil, errGraphDown
}

func (errGraph) GetEventOwner(context.Context, models.EventID) (models.UserID, error) {
	return 0, errGraphDown
}

func (errGraph) GetAlbumsForEvent(context.Context, models.EventID) ([]models.AlbumID, error) {
	return nil, errGraphDown
}

func (errGraph) IsParticipant(context.Context, models.EventID, models.UserID) (bool, error) {
	return false, errGraphDown
}

func (errGraph) EventParticipant(context.Context, models.EventID, models.UserID) (*models.Capabilities, error) {
	return nil, errGraphDown
}

func (errGraph) AlbumParticipant(context.Context, models.AlbumID, models.UserID) (*models.Capabilities, error) {
	return nil, errGraphDown
}

func (errGraph) OwnsAlbumViaEvent(context.Context, models.AlbumID, models.UserID) (bool, error) {
	return false, errGraphDown
}

// A collaborator failure must surface as a denial, never as a grant and
// never as a panic, on every lookup path.
func TestCollaboratorErrorsFailClosed(t *testing.T) {
	identity := fakeIdentity{"sess1": 1}
	shares := &fakeShares{byToken: map[string]*models.Share{
		"tokA": {ID: 1, Token: "tokA", AlbumID: albumID(1), Caps: models.Capabilities{CanComment: true}},
	}}
	e := New(identity, shares, errGraph{})
	ctx := context.Background()

	// Owner rule over a broken graph.
	v := e.Authorize(ctx, OpViewAlbum, AlbumTarget(1), Credentials{SessionToken: "sess1"})
	assert.Equal(t, DecisionForbidden, v.Decision)

	// Share scope containment that needs a photo lookup.
	v = e.Authorize(ctx, OpViewPhoto, PhotoTarget(1), Credentials{ShareToken: "tokA"})
	assert.Equal(t, DecisionForbidden, v.Decision)

	// The join flow hits the graph before anything else.
	v = e.Authorize(ctx, OpJoinEvent, EventTarget(10), Credentials{SessionToken: "sess1"})
	assert.Equal(t, DecisionForbidden, v.Decision)

	// File-path membership check for a non-owner segment.
	v = e.AuthorizeFilePath(ctx, "photos/2/2/x.jpg", Credentials{SessionToken: "sess1"})
	assert.Equal(t, DecisionForbidden, v.Decision)

	// A broken share resolver denies on both the resource and file paths.
	broken := New(identity, errShares{}, errGraph{})
	v = broken.Authorize(ctx, OpViewAlbum, AlbumTarget(1), Credentials{ShareToken: "tokA"})
	assert.Equal(t, DecisionForbidden, v.Decision)
	v = broken.AuthorizeFilePath(ctx, "photos/1/1/x.jpg", Credentials{ShareToken: "tokA"})
	assert.Equal(t, DecisionForbidden, v.Decision)
}

func TestRejoinWithoutLiveShare(t *testing.T) {
	e, _, g := newTestEngine(t)
	ctx := context.Background()

	// Membership survives link rotation: an existing participant may run
	// the join flow again with no token at all.
	v := e.Authorize(ctx, OpJoinEvent, EventTarget(10), Credentials{SessionToken: "sess2"})
	require.Equal(t, DecisionGranted, v.Decision)
	assert.Nil(t, v.Actor.Share)

	// An expired token alongside the membership changes nothing.
	v = e.Authorize(ctx, OpJoinEvent, EventTarget(10), Credentials{
		SessionToken: "sess2",
		ShareToken:   "tokX",
	})
	assert.Equal(t, DecisionGranted, v.Decision)

	// Once the membership row is gone, joining needs a live link again.
	delete(g.participants, participantKey{10, 2})
	v = e.Authorize(ctx, OpJoinEvent, EventTarget(10), Credentials{SessionToken: "sess2"})
	assert.Equal(t, DecisionForbidden, v.Decision)
}
