package tgbot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/m3rciful/postbot/core/logger"
	"github.com/m3rciful/postbot/core/telegram/helpers"
	"github.com/m3rciful/postbot/internal/flow"
	"github.com/m3rciful/postbot/internal/posts"

	tele "gopkg.in/telebot.v4"
)

// Channel publishes approved posts to a Telegram channel the bot administers.
type Channel struct {
	bot  *tele.Bot
	name string
	chat *tele.Chat
}

// NewChannel prepares a publisher for name ("@channel" or a numeric chat id).
// Resolve must succeed before the first Publish.
func NewChannel(bot *tele.Bot, name string) *Channel {
	return &Channel{bot: bot, name: strings.TrimSpace(name)}
}

// Resolve looks the channel up once at startup.
func (ch *Channel) Resolve(ctx context.Context) error {
	chat, err := ch.bot.ChatByUsername(ch.name)
	if err != nil {
		return fmt.Errorf("resolve channel %s: %w", ch.name, err)
	}
	ch.chat = chat
	logger.LogEvent(ctx, logger.TWire, slog.LevelInfo, "channel.resolved",
		slog.String("channel", ch.name),
		slog.Int64("chat_id", chat.ID),
	)
	return nil
}

// Publish sends p and returns the channel message id.
func (ch *Channel) Publish(_ context.Context, p posts.Post) (int64, error) {
	if ch.chat == nil {
		return 0, errors.New("tgbot: channel not resolved")
	}
	var what any = flow.PostBody(p)
	if p.HasPhoto() {
		what = &tele.Photo{File: tele.File{FileID: *p.PhotoRef}, Caption: flow.PostBody(p)}
	}
	msg, err := ch.bot.Send(ch.chat, what, &tele.SendOptions{ParseMode: tele.ModeHTML})
	if err != nil {
		return 0, fmt.Errorf("publish post %d: %w", p.ID, err)
	}
	return int64(msg.ID), nil
}

// Retract deletes a previously published message.
func (ch *Channel) Retract(_ context.Context, messageID int64) error {
	if ch.chat == nil {
		return errors.New("tgbot: channel not resolved")
	}
	stored := &tele.StoredMessage{MessageID: strconv.FormatInt(messageID, 10), ChatID: ch.chat.ID}
	if err := ch.bot.Delete(stored); err != nil {
		return fmt.Errorf("retract message %d: %w", messageID, err)
	}
	return nil
}

// ReviewNotifier queues pending-post notices for a review chat.
type ReviewNotifier struct {
	bot *tele.Bot
	to  tele.Recipient
}

// NewReviewNotifier returns a notifier for chatID.
func NewReviewNotifier(bot *tele.Bot, chatID int64) *ReviewNotifier {
	return &ReviewNotifier{bot: bot, to: tele.ChatID(chatID)}
}

// Notify queues text on the async sender; failures are only logged.
func (n *ReviewNotifier) Notify(ctx context.Context, text string) {
	if err := helpers.NotifyHTML(ctx, n.bot, n.to, text); err != nil {
		logger.LogEvent(ctx, logger.TG, slog.LevelWarn, "review.notify",
			slog.String("outcome", "fail"),
			slog.String("err", err.Error()),
		)
	}
}

// PhotoFetcher downloads photos by Telegram file id.
type PhotoFetcher struct {
	bot *tele.Bot
}

// NewPhotoFetcher returns a fetcher using bot's file API.
func NewPhotoFetcher(bot *tele.Bot) PhotoFetcher {
	return PhotoFetcher{bot: bot}
}

// Fetch opens the photo content. The caller closes the reader.
func (f PhotoFetcher) Fetch(_ context.Context, fileID string) (io.ReadCloser, error) {
	rc, err := f.bot.File(&tele.File{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", fileID, err)
	}
	return rc, nil
}
