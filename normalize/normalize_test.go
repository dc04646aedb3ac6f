package normalize

import (
	"strings"
	"testing"
)

func newCleaner() *Cleaner {
	return NewCleaner(Capabilities{MojibakeRepair: true})
}

func TestClean_Empty(t *testing.T) {
	c := newCleaner()
	if got := c.Clean("", false); got != "" {
		t.Fatalf("empty input: got %q, want \"\"", got)
	}
}

func TestClean_ControlCharacters(t *testing.T) {
	c := newCleaner()
	got := c.Clean("до\x00кумент готов.", false)
	want := "документ готов."
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestClean_Whitespace(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"space runs", "первое   второе", "первое второе"},
		{"crlf", "первая строка.\r\nВторая строка.", "первая строка.\nВторая строка."},
		{"trailing spaces", "строка.   \nследующая.", "строка.\nследующая."},
	}

	c := newCleaner()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Clean(tt.in, false); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClean_HyphenWrap(t *testing.T) {
	c := newCleaner()
	got := c.Clean("длинный доку-\nмент.", false)
	want := "длинный документ."
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestClean_ParagraphReflow(t *testing.T) {
	c := newCleaner()
	// No terminal punctuation plus a lowercase continuation is one sentence.
	got := c.Clean("стороны заключили\nнастоящий договор.", false)
	want := "стороны заключили настоящий договор."
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	// A capitalized next line is a new sentence and stays separate.
	got = c.Clean("Первый абзац.\nВторой абзац.", false)
	if !strings.Contains(got, "\n") {
		t.Fatalf("separate sentences merged: %q", got)
	}
}

func TestClean_AggressiveBoilerplate(t *testing.T) {
	c := newCleaner()
	in := "Текст документа.\nСтраница 1 из 10\nConfidential\nПродолжение текста."
	got := c.Clean(in, true)
	want := "Текст документа.\nПродолжение текста."
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	// Non-aggressive keeps the furniture.
	got = c.Clean(in, false)
	if !strings.Contains(got, "Страница 1 из 10") {
		t.Fatalf("non-aggressive stripped boilerplate: %q", got)
	}
}

func TestClean_Mojibake(t *testing.T) {
	// "договор аренды" double-decoded through windows-1252.
	in := "Ð´Ð¾Ð³Ð¾Ð²Ð¾Ñ€ Ð°Ñ€ÐµÐ½Ð´Ñ‹"

	c := newCleaner()
	if got := c.Clean(in, false); got != "договор аренды" {
		t.Fatalf("got %q, want %q", got, "договор аренды")
	}

	// With the capability off the text passes through unrepaired.
	plain := NewCleaner(Capabilities{})
	if got := plain.Clean(in, false); got != in {
		t.Fatalf("repair ran without capability: got %q", got)
	}
}

func TestClean_MojibakeLeavesCleanTextAlone(t *testing.T) {
	c := newCleaner()
	in := "Обычный русский текст без артефактов."
	if got := c.Clean(in, false); got != in {
		t.Fatalf("clean text was altered: got %q", got)
	}
}

func TestCleanTable(t *testing.T) {
	c := newCleaner()
	rows := [][]any{
		{nil, "  имя  ", 42},
		{"", nil, "   "},
		{"адрес", "город", nil},
	}

	got := c.CleanTable(rows)
	if len(got) != 2 {
		t.Fatalf("rows: got %d, want 2 (empty row dropped)", len(got))
	}
	want := []string{"", "имя", "42"}
	for i, cell := range want {
		if got[0][i] != cell {
			t.Errorf("row 0 cell %d: got %q, want %q", i, got[0][i], cell)
		}
	}
}

func TestCleanTable_Empty(t *testing.T) {
	c := newCleaner()
	if got := c.CleanTable(nil); got != nil {
		t.Fatalf("nil rows: got %v, want nil", got)
	}
}
