package format

import "testing"

func TestEscapeHTML(t *testing.T) {
	if got := Bold("a<b>&c"); got != "<b>a&lt;b&gt;&amp;c</b>" {
		t.Fatalf("unexpected bold: %q", got)
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello world", 6, "hello…"},
		{"مرحبا بالعالم", 4, "مرح…"},
		{"abc", 0, "abc"},
	}
	for _, tc := range cases {
		if got := Truncate(tc.in, tc.max); got != tc.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
		}
	}
}

func TestDeref(t *testing.T) {
	s := "x"
	if Deref(&s, "d") != "x" || Deref[string](nil, "d") != "d" {
		t.Fatal("unexpected deref result")
	}
	var n *int64
	if Deref(n, 7) != 7 {
		t.Fatal("unexpected deref for nil int64")
	}
}
