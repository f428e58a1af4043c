package flow

import (
	"context"

	"github.com/m3rciful/postbot/internal/posts"
)

// Button is an inline choice. Action is the callback key, Payload its data.
type Button struct {
	Label   string
	Action  string
	Payload string
}

// Message is an outbound HTML message, optionally a photo with caption.
type Message struct {
	Text    string
	PhotoID string
	Buttons [][]Button
}

// Messenger delivers messages to the user who triggered the event.
type Messenger interface {
	Send(ctx context.Context, chatID int64, m Message) (MessageRef, error)
	Edit(ctx context.Context, ref MessageRef, m Message) error
	// Answer shows a short toast for the pending callback query.
	Answer(ctx context.Context, text string) error
}

// Store is the post persistence the engine relies on.
type Store interface {
	Create(ctx context.Context, d posts.Draft) (posts.Post, error)
	List(ctx context.Context, status *posts.Status) ([]posts.Summary, error)
	ListFull(ctx context.Context) ([]posts.Post, error)
	Get(ctx context.Context, id int64) (posts.Post, error)
	TitleTaken(ctx context.Context, title string, except int64) (bool, error)
	UpdateField(ctx context.Context, id int64, v posts.FieldValue) error
	Delete(ctx context.Context, id int64) error
	SetStatus(ctx context.Context, id int64, r posts.Review) error
	SetChannelMessage(ctx context.Context, id int64, msgID *int64) error
	SetPhotoArchive(ctx context.Context, id int64, key string) error
}

// Publisher relays approved posts to a channel.
type Publisher interface {
	Publish(ctx context.Context, p posts.Post) (int64, error)
	Retract(ctx context.Context, messageID int64) error
}

// Notifier tells reviewers that a post awaits review. Delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, text string)
}

// Archiver copies a photo to durable storage and returns its key.
type Archiver interface {
	Archive(ctx context.Context, postID int64, photoID string) (string, error)
}
