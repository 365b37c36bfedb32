package authz

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"pixshare-backend/internal/models"
)

// pathClass is the leading segment every stored photo path carries.
const pathClass = "photos"

// filePath is the structurally validated form of a storage-relative path
// photos/<owner_id>/<album_id>/<file>.
type filePath struct {
	owner models.UserID
	album models.AlbumID
	file  string
}

// parseFilePath bounds the shape of an attacker-controlled path string
// before anything touches the database. It accepts only the canonical
// four-segment layout with positive integer ids and a clean final segment.
func parseFilePath(raw string) (filePath, bool) {
	if raw == "" || strings.ContainsAny(raw, "\\\x00") {
		return filePath{}, false
	}
	segs := strings.Split(raw, "/")
	if len(segs) != 4 || segs[0] != pathClass {
		return filePath{}, false
	}
	owner, err := strconv.ParseInt(segs[1], 10, 64)
	if err != nil || owner <= 0 {
		return filePath{}, false
	}
	album, err := strconv.ParseInt(segs[2], 10, 64)
	if err != nil || album <= 0 {
		return filePath{}, false
	}
	file := segs[3]
	if file == "" || file == "." || file == ".." {
		return filePath{}, false
	}
	return filePath{
		owner: models.UserID(owner),
		album: models.AlbumID(album),
		file:  file,
	}, true
}

// AuthorizeFilePath authorizes raw file retrieval for a storage-relative
// path. Structural validation runs first and rejects malformed paths
// without issuing a single collaborator call; only then is the share or
// identity checked against the parsed album.
func (e *Engine) AuthorizeFilePath(ctx context.Context, raw string, creds Credentials) Verdict {
	fp, ok := parseFilePath(raw)
	if !ok {
		return denied(DecisionForbidden)
	}

	if creds.ShareToken != "" {
		return e.authorizeFileByShare(ctx, raw, fp, creds.ShareToken)
	}

	uid, authed := models.UserID(0), false
	if creds.SessionToken != "" {
		uid, authed = e.identity.ResolveIdentity(ctx, creds.SessionToken)
	}
	if !authed {
		return denied(DecisionForbidden)
	}
	if fp.owner == uid {
		return granted(OwnerCapabilities(), Actor{UserID: uid})
	}
	caps, err := e.graph.AlbumParticipant(ctx, fp.album, uid)
	if err != nil {
		return e.failClosed(err)
	}
	if caps != nil {
		return granted(capsFrom(*caps), Actor{UserID: uid})
	}
	return denied(DecisionForbidden)
}

// authorizeFileByShare narrows the share's scope to an album-id set (or an
// exact path for photo shares) and requires the parsed path to fall inside.
func (e *Engine) authorizeFileByShare(ctx context.Context, raw string, fp filePath, token string) Verdict {
	s, err := e.shares.GetByToken(ctx, token)
	if errors.Is(err, models.ErrNotFound) {
		return denied(DecisionNotFound)
	}
	if err != nil {
		return e.failClosed(err)
	}
	if s.Expired(e.now()) {
		return denied(DecisionNotFound)
	}

	switch s.Scope() {
	case models.ScopeAlbum:
		if fp.album == *s.AlbumID {
			return granted(capsFrom(s.Caps), Actor{Share: s})
		}
	case models.ScopePhoto:
		p, err := e.graph.GetPhoto(ctx, *s.PhotoID)
		if errors.Is(err, models.ErrNotFound) {
			return denied(DecisionNotFound)
		}
		if err != nil {
			return e.failClosed(err)
		}
		if p.FilePath == raw {
			return granted(capsFrom(s.Caps), Actor{Share: s})
		}
	case models.ScopeEvent:
		albums, err := e.graph.GetAlbumsForEvent(ctx, *s.EventID)
		if err != nil {
			return e.failClosed(err)
		}
		if containsAlbum(albums, fp.album) {
			return granted(capsFrom(s.Caps), Actor{Share: s})
		}
	}
	return denied(DecisionForbidden)
}
