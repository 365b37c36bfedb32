package services

import (
	"context"
	"fmt"

	"pixshare-backend/internal/authz"
	"pixshare-backend/internal/models"
	"pixshare-backend/internal/repository"
)

// Principal is the attributed author of a write: a registered user, or a
// guest bound to the share that authorized the request. Exactly one of
// UserID and GuestID is set.
type Principal struct {
	UserID  *models.UserID
	GuestID *models.GuestID
	ShareID *models.ShareID
	Guest   *models.Guest
}

// resolvePrincipal turns the actor an authorization verdict reports into a
// write attribution. Guests need a stable guest key; a key already bound to
// a different share is rejected rather than silently re-homed.
func resolvePrincipal(ctx context.Context, shares *repository.ShareRepository, actor authz.Actor, guestKey, displayName string) (Principal, error) {
	if actor.UserID != 0 {
		uid := actor.UserID
		return Principal{UserID: &uid}, nil
	}
	if actor.Share == nil {
		return Principal{}, fmt.Errorf("no principal on request")
	}
	if guestKey == "" {
		return Principal{}, fmt.Errorf("guest key required for anonymous writes")
	}
	guest, err := shares.EnsureGuest(ctx, actor.Share.ID, guestKey, displayName)
	if err != nil {
		return Principal{}, err
	}
	if guest.ShareID != actor.Share.ID {
		return Principal{}, fmt.Errorf("guest key belongs to a different share")
	}
	sid := actor.Share.ID
	return Principal{GuestID: &guest.ID, ShareID: &sid, Guest: guest}, nil
}
