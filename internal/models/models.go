package models

import "time"

// Typed identifiers. Authorization compares these values directly;
// ids must never be compared as display strings.
type (
	UserID  int64
	AlbumID int64
	PhotoID int64
	EventID int64
	ShareID int64
	GuestID int64
)

// User represents a registered account.
type User struct {
	ID           UserID    `json:"id"`
	FullName     string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	PushToken    *string   `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Album is an owned collection of photos.
type Album struct {
	ID          AlbumID   `json:"id"`
	Title       string    `json:"name"`
	Description string    `json:"description,omitempty"`
	UserID      UserID    `json:"user_id"`
	PhotoCount  int       `json:"photo_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// Photo belongs to exactly one album. UserID is a denormalized copy of the
// album owner's id; FilePath is relative to the upload root and always has
// the shape photos/<user_id>/<album_id>/<file>.
type Photo struct {
	ID         PhotoID   `json:"id"`
	Filename   string    `json:"filename"`
	FilePath   string    `json:"filepath"`
	Size       int64     `json:"size"`
	AlbumID    AlbumID   `json:"album_id"`
	UserID     UserID    `json:"user_id"`
	ViaShareID *ShareID  `json:"-"`
	GuestID    *GuestID  `json:"-"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Event groups albums for an occasion and carries participants.
type Event struct {
	ID          EventID    `json:"id"`
	Title       string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Date        *time.Time `json:"date,omitempty"`
	UserID      UserID     `json:"user_id"`
	ShareToken  string     `json:"shareId,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Capabilities are the write permissions a share or participant carries.
type Capabilities struct {
	CanComment bool `json:"can_comment"`
	CanReact   bool `json:"can_react"`
	CanUpload  bool `json:"can_upload"`
	CanCurate  bool `json:"can_curate"`
}

// Participant links a user to an event they joined through a share.
// The capability flags are a snapshot of the share used at join time.
type Participant struct {
	ID         int64        `json:"id"`
	EventID    EventID      `json:"event_id"`
	UserID     UserID       `json:"user_id"`
	ShareToken string       `json:"-"`
	Caps       Capabilities `json:"caps"`
	JoinedAt   time.Time    `json:"joined_at"`
}

// ShareScope identifies the single resource class a share is bound to.
type ShareScope int

const (
	ScopeNone ShareScope = iota
	ScopeAlbum
	ScopePhoto
	ScopeEvent
)

// Share is an unguessable capability token granting scoped access without
// an account. Exactly one of AlbumID/PhotoID/EventID is set on a valid row.
type Share struct {
	ID      ShareID  `json:"id"`
	Token   string   `json:"token"`
	AlbumID *AlbumID `json:"album_id,omitempty"`
	PhotoID *PhotoID `json:"photo_id,omitempty"`
	EventID *EventID `json:"event_id,omitempty"`

	Caps Capabilities `json:"caps"`

	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	MaxUploadBytes   *int64     `json:"max_upload_bytes,omitempty"`
	MaxFilesPerGuest *int       `json:"max_files_per_guest,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// Scope reports which resource class the share targets. A share that sets
// none (or more than one) of the scope ids reports ScopeNone and must never
// authorize anything.
func (s *Share) Scope() ShareScope {
	set := 0
	scope := ScopeNone
	if s.AlbumID != nil {
		set++
		scope = ScopeAlbum
	}
	if s.PhotoID != nil {
		set++
		scope = ScopePhoto
	}
	if s.EventID != nil {
		set++
		scope = ScopeEvent
	}
	if set != 1 {
		return ScopeNone
	}
	return scope
}

// Expired reports whether the share's expiry has passed. Expiry is a
// read-time check; expired rows stay in the store until revoked.
func (s *Share) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && s.ExpiresAt.Before(now)
}

// Guest is an anonymous identity bound to one share, used to attribute
// comments, reactions and uploads made without a session.
type Guest struct {
	ID          GuestID   `json:"id"`
	ShareID     ShareID   `json:"share_id"`
	GuestKey    string    `json:"guest_key"`
	DisplayName string    `json:"display_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	LastSeenAt  time.Time `json:"last_seen_at"`
}

// Comment is attached to a photo and attributed to either a user or a guest.
type Comment struct {
	ID        int64     `json:"id"`
	PhotoID   PhotoID   `json:"photo_id"`
	Content   string    `json:"content"`
	UserID    *UserID   `json:"user_id,omitempty"`
	GuestID   *GuestID  `json:"guest_id,omitempty"`
	ShareID   *ShareID  `json:"-"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}

// Reaction is an emoji set on a photo by a user or a guest. At most one row
// exists per (photo, principal, emoji).
type Reaction struct {
	ID        int64     `json:"id"`
	PhotoID   PhotoID   `json:"photo_id"`
	Emoji     string    `json:"emoji"`
	UserID    *UserID   `json:"user_id,omitempty"`
	GuestID   *GuestID  `json:"guest_id,omitempty"`
	ShareID   *ShareID  `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
