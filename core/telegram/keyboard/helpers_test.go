package keyboard

import "testing"

func TestInlineButtonsRows(t *testing.T) {
	m := InlineButtonsRows(
		[]InlineBtn{{Text: "A", Unique: "pick", Data: "1"}},
		nil,
		[]InlineBtn{{Text: "B", Unique: "pick", Data: "2"}, {Text: "C", Unique: "abort"}},
	)
	if m == nil {
		t.Fatal("expected markup")
	}
	if len(m.InlineKeyboard) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(m.InlineKeyboard))
	}
	if b := m.InlineKeyboard[1][0]; b.Unique != "pick" || b.Data != "2" {
		t.Fatalf("unexpected button %+v", b)
	}
	if b := m.InlineKeyboard[1][1]; b.Unique != "abort" || b.Data != "" {
		t.Fatalf("unexpected button %+v", b)
	}
}

func TestInlineButtonsEmpty(t *testing.T) {
	if m := InlineButtonsRows(); m != nil {
		t.Fatalf("expected nil markup, got %+v", m)
	}
}
