package posts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/postbot/core/logger"
)

const postColumns = `id, title, body_text, photo_reference, photo_archive_key, author_identifier,
	status, review_note, reviewed_by, reviewed_at, channel_message_id, created_at`

// Store runs single-statement queries against the posts table.
// Queries are written with ? placeholders and rebound for the driver.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewStore wraps an open database handle.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db, now: time.Now}
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// Create inserts a new post with status pending and returns the stored row.
func (s *Store) Create(ctx context.Context, d Draft) (Post, error) {
	start := time.Now()
	p := Post{
		Title:     d.Title,
		Text:      d.Text,
		PhotoRef:  d.PhotoRef,
		Author:    d.Author,
		Status:    StatusPending,
		CreatedAt: s.timestamp(),
	}
	q := s.db.Rebind(`INSERT INTO posts (title, body_text, photo_reference, author_identifier, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?) RETURNING id`)
	if err := s.db.QueryRowxContext(ctx, q, p.Title, p.Text, p.PhotoRef, p.Author, p.Status, p.CreatedAt).Scan(&p.ID); err != nil {
		return Post{}, fmt.Errorf("posts: create: %w", err)
	}
	logger.LogEvent(ctx, logger.SVCPosts, slog.LevelInfo, "posts.create",
		slog.Int64("post_id", p.ID),
		slog.Bool("photo", p.HasPhoto()),
		slog.Duration("duration", logger.Took(start)),
	)
	return p, nil
}

// List returns summaries ordered by ascending id, optionally filtered by status.
func (s *Store) List(ctx context.Context, status *Status) ([]Summary, error) {
	q := `SELECT id, title, status FROM posts`
	var args []any
	if status != nil {
		if !status.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, *status)
		}
		q += ` WHERE status = ?`
		args = append(args, *status)
	}
	q += ` ORDER BY id`

	var out []Summary
	if err := s.db.SelectContext(ctx, &out, s.db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("posts: list: %w", err)
	}
	return out, nil
}

// ListFull returns complete rows ordered by ascending id.
func (s *Store) ListFull(ctx context.Context) ([]Post, error) {
	var out []Post
	if err := s.db.SelectContext(ctx, &out, `SELECT `+postColumns+` FROM posts ORDER BY id`); err != nil {
		return nil, fmt.Errorf("posts: list full: %w", err)
	}
	return out, nil
}

// Get returns one post or ErrNotFound.
func (s *Store) Get(ctx context.Context, id int64) (Post, error) {
	var p Post
	err := s.db.GetContext(ctx, &p, s.db.Rebind(`SELECT `+postColumns+` FROM posts WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return Post{}, ErrNotFound
	}
	if err != nil {
		return Post{}, fmt.Errorf("posts: get %d: %w", id, err)
	}
	return p, nil
}

// TitleTaken reports whether a post other than except already uses title.
// Titles compare exactly after trimming.
func (s *Store) TitleTaken(ctx context.Context, title string, except int64) (bool, error) {
	var taken bool
	q := s.db.Rebind(`SELECT EXISTS (SELECT 1 FROM posts WHERE title = ? AND id <> ?)`)
	if err := s.db.GetContext(ctx, &taken, q, strings.TrimSpace(title), except); err != nil {
		return false, fmt.Errorf("posts: title taken: %w", err)
	}
	return taken, nil
}

// UpdateField writes one content field and resets the status to pending.
// Reviewer stamps and the last note are kept as history.
func (s *Store) UpdateField(ctx context.Context, id int64, v FieldValue) error {
	col := v.field.column()
	if col == "" {
		return fmt.Errorf("%w: %q", ErrInvalidField, v.field)
	}
	if v.field != FieldPhoto && (v.value == nil || strings.TrimSpace(*v.value) == "") {
		return fmt.Errorf("%w: %s cannot be empty", ErrInvalidField, v.field)
	}
	q := `UPDATE posts SET ` + col + ` = ?, status = ? WHERE id = ?`
	if err := s.exec(ctx, "posts.update_field", q, v.value, StatusPending, id); err != nil {
		return err
	}
	logger.LogEvent(ctx, logger.SVCPosts, slog.LevelInfo, "posts.update_field",
		slog.Int64("post_id", id),
		slog.String("field", string(v.field)),
	)
	return nil
}

// Delete removes exactly the row with id or returns ErrNotFound.
func (s *Store) Delete(ctx context.Context, id int64) error {
	if err := s.exec(ctx, "posts.delete", `DELETE FROM posts WHERE id = ?`, id); err != nil {
		return err
	}
	logger.LogEvent(ctx, logger.SVCPosts, slog.LevelInfo, "posts.delete", slog.Int64("post_id", id))
	return nil
}

// SetStatus records a reviewer decision in one statement.
func (s *Store) SetStatus(ctx context.Context, id int64, r Review) error {
	if !r.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, r.Status)
	}
	if strings.TrimSpace(r.Reviewer) == "" {
		return errors.New("posts: reviewer is required")
	}
	var note *string
	if r.Status == StatusNeedsEdit && r.Note != "" {
		note = &r.Note
	}
	q := `UPDATE posts SET status = ?, reviewed_by = ?, reviewed_at = ?, review_note = ? WHERE id = ?`
	if err := s.exec(ctx, "posts.set_status", q, r.Status, r.Reviewer, s.timestamp(), note, id); err != nil {
		return err
	}
	logger.LogEvent(ctx, logger.SVCPosts, slog.LevelInfo, "posts.set_status",
		slog.Int64("post_id", id),
		slog.String("post_status", string(r.Status)),
		slog.String("reviewer", r.Reviewer),
	)
	return nil
}

// SetChannelMessage stores or clears the id of the channel copy.
func (s *Store) SetChannelMessage(ctx context.Context, id int64, msgID *int64) error {
	return s.exec(ctx, "posts.set_channel_message",
		`UPDATE posts SET channel_message_id = ? WHERE id = ?`, msgID, id)
}

// SetPhotoArchive stores the object key of the archived photo.
func (s *Store) SetPhotoArchive(ctx context.Context, id int64, key string) error {
	return s.exec(ctx, "posts.set_photo_archive",
		`UPDATE posts SET photo_archive_key = ? WHERE id = ?`, key, id)
}

// exec runs a single-row statement and maps zero affected rows to ErrNotFound.
func (s *Store) exec(ctx context.Context, op, q string, args ...any) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(q), args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
