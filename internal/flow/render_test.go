package flow

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/m3rciful/postbot/internal/posts"
)

func TestPostMessageFitsCaption(t *testing.T) {
	photo := "file"
	p := posts.Post{
		Title:    strings.Repeat("t", MaxTitleRunes),
		Text:     strings.Repeat("<", MaxTextRunes),
		PhotoRef: &photo,
	}
	m := postMessage(p, []string{"Status: pending"})
	if m.PhotoID != "file" {
		t.Fatalf("photo id = %q", m.PhotoID)
	}
	if !strings.HasPrefix(m.Text, "<b>") || !strings.Contains(m.Text, "&lt;") {
		t.Fatalf("body not escaped: %q", m.Text[:20])
	}

	p.PhotoRef = nil
	m = postMessage(p, nil)
	if m.PhotoID != "" {
		t.Fatal("text-only post must not carry a photo")
	}
}

func TestPostMessageShortensLongText(t *testing.T) {
	photo := "file"
	p := posts.Post{Title: "T", Text: strings.Repeat("a", 2000), PhotoRef: &photo}
	m := postMessage(p, []string{"meta"})
	// "<b>" and "</b>" are markup, not visible text
	visible := utf8.RuneCountInString(m.Text) - len("<b></b>")
	if visible > captionLimit {
		t.Fatalf("caption has %d visible runes", visible)
	}
	if !strings.HasSuffix(m.Text, "meta") {
		t.Fatalf("meta lines must be kept: %q", m.Text[len(m.Text)-10:])
	}
}

func TestValidLength(t *testing.T) {
	if _, ok := validLength("  ", 5); ok {
		t.Fatal("blank input accepted")
	}
	if v, ok := validLength(" abc ", 3); !ok || v != "abc" {
		t.Fatalf("got %q %v", v, ok)
	}
	if _, ok := validLength("abcd", 3); ok {
		t.Fatal("long input accepted")
	}
}
