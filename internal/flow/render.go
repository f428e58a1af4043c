package flow

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/m3rciful/postbot/core/telegram/format"
	"github.com/m3rciful/postbot/internal/posts"
)

// Input bounds in runes after trimming.
const (
	MaxTitleRunes = 100
	MaxTextRunes  = 900
	MaxNoteRunes  = 500

	captionLimit = 1024
	messageLimit = 4096
	buttonTitle  = 40
)

// validLength trims s and reports whether it has 1..max runes.
func validLength(s string, max int) (string, bool) {
	s = strings.TrimSpace(s)
	n := utf8.RuneCountInString(s)
	return s, n >= 1 && n <= max
}

// PostBody renders title and text the way posts appear in chats and the channel.
func PostBody(p posts.Post) string {
	return format.Bold(p.Title) + "\n\n" + format.EscapeHTML(p.Text)
}

// postMessage renders a post with optional trailing meta lines, keeping
// within Telegram's caption or message limit by shortening the body text.
func postMessage(p posts.Post, meta []string) Message {
	limit := messageLimit
	photo := ""
	if p.HasPhoto() {
		limit = captionLimit
		photo = *p.PhotoRef
	}
	tail := ""
	if len(meta) > 0 {
		tail = "\n\n" + strings.Join(meta, "\n")
	}
	// meta lines are already escaped; count them as visible text
	budget := limit - utf8.RuneCountInString(p.Title) - 2 - utf8.RuneCountInString(tail)
	body := format.Bold(p.Title) + "\n\n" + format.EscapeHTML(format.Truncate(p.Text, max(budget, 1)))
	return Message{Text: body + tail, PhotoID: photo}
}

func (e *Engine) detailMeta(p posts.Post) []string {
	tx := e.texts
	meta := []string{
		fmt.Sprintf(tx.StatusLine, format.EscapeHTML(tx.status(p.Status))),
		fmt.Sprintf(tx.AuthorLine, format.EscapeHTML(p.Author)),
	}
	if note := format.Deref(p.ReviewNote, ""); p.Status == posts.StatusNeedsEdit && note != "" {
		meta = append(meta, fmt.Sprintf(tx.NoteLine, format.Italic(format.Truncate(note, 200))))
	}
	return meta
}

func summaryLabel(s posts.Summary) string {
	return "#" + strconv.FormatInt(s.ID, 10) + " " + format.Truncate(s.Title, buttonTitle)
}

func idPayload(id int64) string {
	return strconv.FormatInt(id, 10)
}

func pickButtons(list []posts.Summary, target string) [][]Button {
	rows := make([][]Button, 0, len(list))
	for _, s := range list {
		rows = append(rows, []Button{{
			Label:   summaryLabel(s),
			Action:  ActPick,
			Payload: target + ":" + idPayload(s.ID),
		}})
	}
	return rows
}

// confirmRow offers confirm and cancel for the prompt identified by token.
func (e *Engine) confirmRow(token string) []Button {
	return []Button{
		{Label: e.texts.BtnConfirm, Action: ActConfirm, Payload: token},
		{Label: e.texts.BtnCancel, Action: ActAbort, Payload: token},
	}
}

func (e *Engine) filterRow(current posts.Status) []Button {
	row := make([]Button, 0, len(posts.Statuses))
	for _, s := range posts.Statuses {
		label := e.texts.status(s)
		if s == current {
			label = "• " + label
		}
		row = append(row, Button{Label: label, Action: ActReviewFilter, Payload: string(s)})
	}
	return row
}

// reviewPayload encodes "<status>:<id>" for review actions.
func reviewPayload(s posts.Status, id int64) string {
	return string(s) + ":" + idPayload(id)
}

func parseReviewPayload(payload string) (posts.Status, int64, bool) {
	st, rawID, ok := strings.Cut(payload, ":")
	if !ok {
		return "", 0, false
	}
	status, err := posts.ParseStatus(st)
	if err != nil {
		return "", 0, false
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		return "", 0, false
	}
	return status, id, true
}

func parseID(payload string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(payload), 10, 64)
	return id, err == nil && id > 0
}
