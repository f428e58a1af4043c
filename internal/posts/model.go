// Package posts is the persistence gateway for the posts table.
package posts

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when no row matches the requested id.
	ErrNotFound = errors.New("posts: not found")
	// ErrInvalidField is returned for unknown editable field names.
	ErrInvalidField = errors.New("posts: invalid field")
	// ErrInvalidStatus is returned for values outside the status enumeration.
	ErrInvalidStatus = errors.New("posts: invalid status")
)

// Status is the review state of a post.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusNeedsEdit Status = "needs_edit"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusPending, StatusApproved, StatusRejected, StatusNeedsEdit}

// Valid reports whether s is one of the four known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusNeedsEdit:
		return true
	}
	return false
}

// ParseStatus validates a status name.
func ParseStatus(v string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(v)))
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, v)
	}
	return s, nil
}

// Post is a full row of the posts table.
type Post struct {
	ID               int64      `db:"id"`
	Title            string     `db:"title"`
	Text             string     `db:"body_text"`
	PhotoRef         *string    `db:"photo_reference"`
	PhotoArchiveKey  *string    `db:"photo_archive_key"`
	Author           string     `db:"author_identifier"`
	Status           Status     `db:"status"`
	ReviewNote       *string    `db:"review_note"`
	ReviewedBy       *string    `db:"reviewed_by"`
	ReviewedAt       *time.Time `db:"reviewed_at"`
	ChannelMessageID *int64     `db:"channel_message_id"`
	CreatedAt        time.Time  `db:"created_at"`
}

// HasPhoto reports whether the post carries a photo reference.
func (p Post) HasPhoto() bool {
	return p.PhotoRef != nil && *p.PhotoRef != ""
}

// Summary is the list projection of a post.
type Summary struct {
	ID     int64  `db:"id"`
	Title  string `db:"title"`
	Status Status `db:"status"`
}

// Draft holds the fields collected by the creation flow.
type Draft struct {
	Title    string
	Text     string
	PhotoRef *string
	Author   string
}

// Field names an editable content column.
type Field string

const (
	FieldTitle Field = "title"
	FieldText  Field = "text"
	FieldPhoto Field = "photo"
)

// Fields lists the editable fields in menu order.
var Fields = []Field{FieldTitle, FieldText, FieldPhoto}

// ParseField maps a field name to the closed set of editable fields.
func ParseField(v string) (Field, error) {
	switch f := Field(v); f {
	case FieldTitle, FieldText, FieldPhoto:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidField, v)
}

func (f Field) column() string {
	switch f {
	case FieldTitle:
		return "title"
	case FieldText:
		return "body_text"
	case FieldPhoto:
		return "photo_reference"
	}
	return ""
}

// FieldValue is a new value for exactly one editable field.
// Build it with TitleValue, TextValue, PhotoValue or NoPhoto.
type FieldValue struct {
	field Field
	value *string
}

// TitleValue sets a new title.
func TitleValue(title string) FieldValue { return FieldValue{field: FieldTitle, value: &title} }

// TextValue sets a new body text.
func TextValue(text string) FieldValue { return FieldValue{field: FieldText, value: &text} }

// PhotoValue sets a new photo reference.
func PhotoValue(ref string) FieldValue { return FieldValue{field: FieldPhoto, value: &ref} }

// NoPhoto removes the photo.
func NoPhoto() FieldValue { return FieldValue{field: FieldPhoto} }

// Field returns the field being updated.
func (v FieldValue) Field() Field { return v.field }

// Review is a reviewer decision.
type Review struct {
	Status   Status
	Reviewer string
	// Note is stored only with StatusNeedsEdit.
	Note string
}
