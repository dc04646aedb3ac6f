// Package normalize repairs and cleans raw text extracted from documents.
//
// Extraction output is messy: mojibake from double-decoded encodings,
// control characters from binary formats, hard line wraps inside words,
// and repeating page furniture. Clean applies a fixed sequence of pure
// transforms and always returns a usable string — never an error.
//
// Usage:
//
//	c := normalize.NewCleaner(normalize.Capabilities{MojibakeRepair: true})
//	text := c.Clean(raw, false)
package normalize

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Capabilities gates optional enhancements. All real in this build; a flag
// exists per enhancement so fallback paths stay independently testable.
type Capabilities struct {
	// MojibakeRepair enables the encoding round-trip repair step.
	MojibakeRepair bool
}

// Cleaner normalizes extracted text. Safe for concurrent use; holds only
// compiled patterns after construction.
type Cleaner struct {
	caps Capabilities
}

// NewCleaner creates a Cleaner with the given capabilities.
func NewCleaner(caps Capabilities) *Cleaner {
	return &Cleaner{caps: caps}
}

var (
	spaceRuns  = regexp.MustCompile(` +`)
	blankRuns  = regexp.MustCompile(`\n{3,}`)
	hyphenWrap = regexp.MustCompile(`(?i)([а-яёa-z])-[ \t]*\n[ \t]*([а-яёa-z])`)

	// Page furniture stripped only in aggressive mode. Russian and English
	// variants, plus bare dates that PDF footers leave behind.
	boilerplate = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Страница\s+\d+\s+из\s+\d+`),
		regexp.MustCompile(`(?i)Page\s+\d+\s+of\s+\d+`),
		regexp.MustCompile(`(?i)Конфиденциально`),
		regexp.MustCompile(`(?i)Confidential`),
		regexp.MustCompile(`\d{1,2}[./-]\d{1,2}[./-]\d{2,4}`),
	}
)

// Clean normalizes text: encoding repair, control-char removal, whitespace
// normalization, line-wrap merging, optional boilerplate stripping, empty
// line removal. Empty or all-garbage input yields "".
func (c *Cleaner) Clean(text string, aggressive bool) string {
	if text == "" {
		return ""
	}

	if c.caps.MojibakeRepair {
		text = repairMojibake(text)
	}
	text = stripControl(text)
	text = normalizeWhitespace(text)
	text = mergeBrokenLines(text)
	if aggressive {
		for _, pat := range boilerplate {
			text = pat.ReplaceAllString(text, "")
		}
	}
	text = dropEmptyLines(text)

	return strings.TrimSpace(text)
}

// CleanTable applies the non-aggressive cell transforms to tabular data.
// Nil cells become empty strings, non-string cells are stringified, and
// rows left with no content are dropped.
func (c *Cleaner) CleanTable(rows [][]any) [][]string {
	if len(rows) == 0 {
		return nil
	}
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		cleaned := make([]string, len(row))
		empty := true
		for i, cell := range row {
			var s string
			switch v := cell.(type) {
			case nil:
				s = ""
			case string:
				s = c.Clean(v, false)
			default:
				s = c.Clean(fmt.Sprint(v), false)
			}
			cleaned[i] = s
			if strings.TrimSpace(s) != "" {
				empty = false
			}
		}
		if !empty {
			out = append(out, cleaned)
		}
	}
	return out
}

// repairMojibake undoes UTF-8 text that was decoded as a single-byte
// charset and re-encoded (the classic "Ð´Ð¾Ð³Ð¾Ð²Ð¾Ñ€" artifact). The text
// is pushed back through windows-1252 and windows-1251; a candidate wins
// only if the round-trip is lossless and strictly reduces the number of
// high-byte runes without introducing U+FFFD.
func repairMojibake(text string) string {
	if isASCII(text) {
		return text
	}
	for i := 0; i < 2; i++ {
		fixed, ok := roundTrip(text)
		if !ok {
			break
		}
		text = fixed
	}
	return text
}

func roundTrip(text string) (string, bool) {
	for _, cm := range []*charmap.Charmap{charmap.Windows1252, charmap.Windows1251} {
		raw, err := cm.NewEncoder().String(text)
		if err != nil {
			continue
		}
		if !utf8.ValidString(raw) || strings.ContainsRune(raw, utf8.RuneError) {
			continue
		}
		if highRunes(raw) < highRunes(text) {
			return raw, true
		}
	}
	return text, false
}

func highRunes(s string) int {
	n := 0
	for _, r := range s {
		if r > 0x7F {
			n++
		}
	}
	return n
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7F {
			return false
		}
	}
	return true
}

// stripControl removes non-printable control characters, keeping newline,
// carriage return and tab. Mirrors the garbage-rune handling used for
// extraction quality scoring.
func stripControl(text string) string {
	var sb strings.Builder
	sb.Grow(len(text))
	for _, r := range text {
		if r == '\n' || r == '\r' || r == '\t' {
			sb.WriteRune(r)
			continue
		}
		if r < 0x20 || (r >= 0x7F && r <= 0x9F) || r == 0xFFFD {
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func normalizeWhitespace(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = spaceRuns.ReplaceAllString(text, " ")
	text = blankRuns.ReplaceAllString(text, "\n\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.Join(lines, "\n")
}

// mergeBrokenLines rejoins words split by a hyphen at a line wrap, then
// reflows paragraph continuations: a line with no sentence-ending
// punctuation followed by a line starting in lowercase is one sentence.
func mergeBrokenLines(text string) string {
	text = hyphenWrap.ReplaceAllString(text, "$1$2")

	lines := strings.Split(text, "\n")
	var merged []string
	i := 0
	for i < len(lines) {
		line := strings.TrimSpace(lines[i])
		if line != "" && i < len(lines)-1 && !endsWithPunct(line) {
			next := strings.TrimSpace(lines[i+1])
			if next != "" && startsLower(next) {
				merged = append(merged, line+" "+next)
				i += 2
				continue
			}
		}
		if line != "" {
			merged = append(merged, line)
		} else {
			merged = append(merged, "")
		}
		i++
	}
	return strings.Join(merged, "\n")
}

func endsWithPunct(line string) bool {
	r, _ := utf8.DecodeLastRuneInString(line)
	switch r {
	case '.', '!', '?', ':', ';':
		return true
	}
	return false
}

func startsLower(line string) bool {
	r, _ := utf8.DecodeRuneInString(line)
	return unicode.IsLower(r)
}

func dropEmptyLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
