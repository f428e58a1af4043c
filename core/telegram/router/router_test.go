package router

import (
	"errors"
	"fmt"
	"testing"
)

func TestCommandWord(t *testing.T) {
	cases := map[string]string{
		"/list":            "/list",
		"/List@PostBot":    "/list",
		"  /edit 12  ":     "/edit",
		"/posts@bot extra": "/posts",
		"":                 "",
	}
	for in, want := range cases {
		if got := commandWord(in); got != want {
			t.Errorf("commandWord(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeHandlerName(t *testing.T) {
	if got := normalizeHandlerName("/Start"); got != "start" {
		t.Fatalf("got %q", got)
	}
	if got := normalizeHandlerName(" "); got != "unknown" {
		t.Fatalf("got %q", got)
	}
	if got := normalizeHandlerName("conversation text"); got != "conversation_text" {
		t.Fatalf("got %q", got)
	}
}

type codedErr struct{}

func (codedErr) Error() string { return "coded" }
func (codedErr) Code() string  { return "queue full" }

type plainErr struct{}

func (*plainErr) Error() string { return "plain" }

func TestDeriveErrorCode(t *testing.T) {
	if got := deriveErrorCode(nil); got != "" {
		t.Fatalf("nil = %q", got)
	}
	if got := deriveErrorCode(fmt.Errorf("wrap: %w", codedErr{})); got != "QUEUE_FULL" {
		t.Fatalf("coded = %q", got)
	}
	if got := deriveErrorCode(fmt.Errorf("outer: %w", &plainErr{})); got != "PLAINERR" {
		t.Fatalf("plain = %q", got)
	}
	if got := deriveErrorCode(errors.New("x")); got != "ERRORSTRING" {
		t.Fatalf("stdlib = %q", got)
	}
}
