package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		full_name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		push_token TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS albums (
		id BIGSERIAL PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS photos (
		id BIGSERIAL PRIMARY KEY,
		filename TEXT NOT NULL,
		filepath TEXT NOT NULL,
		size BIGINT NOT NULL DEFAULT 0,
		album_id BIGINT NOT NULL REFERENCES albums(id) ON DELETE CASCADE,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		uploaded_via_share_id BIGINT,
		uploaded_by_guest_id BIGINT,
		uploaded_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS events (
		id BIGSERIAL PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		event_date DATE,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		share_token TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS event_albums (
		event_id BIGINT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
		album_id BIGINT NOT NULL REFERENCES albums(id) ON DELETE CASCADE,
		PRIMARY KEY (event_id, album_id)
	)`,
	`CREATE TABLE IF NOT EXISTS event_participants (
		id BIGSERIAL PRIMARY KEY,
		event_id BIGINT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		share_token TEXT NOT NULL,
		can_comment BOOLEAN NOT NULL DEFAULT FALSE,
		can_react BOOLEAN NOT NULL DEFAULT FALSE,
		can_upload BOOLEAN NOT NULL DEFAULT FALSE,
		can_curate BOOLEAN NOT NULL DEFAULT FALSE,
		joined_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT uq_event_user UNIQUE (event_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS shares (
		id BIGSERIAL PRIMARY KEY,
		token TEXT NOT NULL UNIQUE,
		album_id BIGINT REFERENCES albums(id) ON DELETE CASCADE,
		photo_id BIGINT REFERENCES photos(id) ON DELETE CASCADE,
		event_id BIGINT REFERENCES events(id) ON DELETE CASCADE,
		can_comment BOOLEAN NOT NULL DEFAULT FALSE,
		can_react BOOLEAN NOT NULL DEFAULT FALSE,
		can_upload BOOLEAN NOT NULL DEFAULT FALSE,
		can_curate BOOLEAN NOT NULL DEFAULT FALSE,
		expires_at TIMESTAMPTZ,
		max_upload_bytes BIGINT,
		max_files_per_guest INT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS guests (
		id BIGSERIAL PRIMARY KEY,
		share_id BIGINT NOT NULL REFERENCES shares(id) ON DELETE CASCADE,
		guest_key TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		last_seen_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS comments (
		id BIGSERIAL PRIMARY KEY,
		photo_id BIGINT NOT NULL REFERENCES photos(id) ON DELETE CASCADE,
		content TEXT NOT NULL,
		user_id BIGINT REFERENCES users(id) ON DELETE SET NULL,
		guest_id BIGINT REFERENCES guests(id) ON DELETE SET NULL,
		share_id BIGINT REFERENCES shares(id) ON DELETE SET NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS photo_reactions (
		id BIGSERIAL PRIMARY KEY,
		photo_id BIGINT NOT NULL REFERENCES photos(id) ON DELETE CASCADE,
		emoji TEXT NOT NULL,
		user_id BIGINT REFERENCES users(id) ON DELETE CASCADE,
		guest_id BIGINT REFERENCES guests(id) ON DELETE CASCADE,
		share_id BIGINT REFERENCES shares(id) ON DELETE SET NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT uq_react_user UNIQUE (photo_id, user_id, emoji),
		CONSTRAINT uq_react_guest UNIQUE (photo_id, guest_id, emoji)
	)`,
	`CREATE INDEX IF NOT EXISTS ix_albums_user ON albums(user_id)`,
	`CREATE INDEX IF NOT EXISTS ix_photos_album ON photos(album_id)`,
	`CREATE INDEX IF NOT EXISTS ix_events_user ON events(user_id)`,
	`CREATE INDEX IF NOT EXISTS ix_event_albums_album ON event_albums(album_id)`,
	`CREATE INDEX IF NOT EXISTS ix_participants_user ON event_participants(user_id)`,
	`CREATE INDEX IF NOT EXISTS ix_shares_album ON shares(album_id)`,
	`CREATE INDEX IF NOT EXISTS ix_shares_photo ON shares(photo_id)`,
	`CREATE INDEX IF NOT EXISTS ix_shares_event ON shares(event_id)`,
	`CREATE INDEX IF NOT EXISTS ix_guests_share ON guests(share_id)`,
	`CREATE INDEX IF NOT EXISTS ix_comments_photo ON comments(photo_id)`,
	`CREATE INDEX IF NOT EXISTS ix_reactions_photo ON photo_reactions(photo_id)`,
}

// Migrate creates the schema if it does not exist yet. Statements are
// idempotent so this runs unconditionally at startup.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
