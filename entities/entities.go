// Package entities extracts typed entities from free text by pattern
// matching: emails, URLs, phone numbers, dates, monetary amounts, Russian
// registration numbers (ИНН/КПП/ОГРН) and person names.
//
// Each kind is recognized independently. A recognizer that fails degrades
// to an empty list for its kind only — extraction of the other kinds is
// never aborted, and ExtractAll never returns an error.
package entities

import (
	"log/slog"
	"regexp"
	"sort"
	"strings"
)

// Result holds all extracted entities for one text.
type Result struct {
	Emails      []string `json:"emails"`
	Phones      []Phone  `json:"phones"`
	URLs        []string `json:"urls"`
	Dates       []Date   `json:"dates"`
	Money       []Money  `json:"money"`
	INN         []string `json:"inn"`
	KPP         []string `json:"kpp"`
	OGRN        []string `json:"ogrn"`
	PersonNames []string `json:"person_names"`
	Statistics  Stats    `json:"statistics"`
}

// Stats summarizes an extraction run.
type Stats struct {
	TotalEntities int `json:"total_entities"`
	EntityTypes   int `json:"entity_types"`
}

// Phone is a recognized phone number. Parsed fields are zero when the
// primary matcher could not interpret the raw match.
type Phone struct {
	Raw           string `json:"raw"`
	International string `json:"formatted"`
	National      string `json:"national"`
	CountryCode   int    `json:"country_code,omitempty"`
	Valid         bool   `json:"is_valid"`
}

// Date is a recognized date literal. Parsed is empty (and the numeric
// fields zero) when the raw string could not be interpreted.
type Date struct {
	Raw    string `json:"raw"`
	Parsed string `json:"parsed,omitempty"` // ISO 8601
	Year   int    `json:"year,omitempty"`
	Month  int    `json:"month,omitempty"`
	Day    int    `json:"day,omitempty"`
}

// Money is a recognized monetary amount. Amount is nil when the numeric
// part could not be parsed; the raw match is still retained.
type Money struct {
	Raw       string   `json:"raw"`
	Amount    *float64 `json:"amount"`
	Currency  string   `json:"currency"`
	Formatted string   `json:"formatted"`
}

// Capabilities gates the optional primary phone matcher. When off, phones
// are recognized by the regional patterns alone and kept raw.
type Capabilities struct {
	PhoneMatcher bool
}

// Extractor recognizes entities using compiled pattern tables. Stateless
// after construction; safe for concurrent use.
type Extractor struct {
	caps   Capabilities
	logger *slog.Logger

	email *regexp.Regexp
	url   *regexp.Regexp
	inn   *regexp.Regexp
	kpp   *regexp.Regexp
	ogrn  *regexp.Regexp
	fio   *regexp.Regexp
	money *regexp.Regexp

	phonePatterns []*regexp.Regexp
	datePatterns  []*regexp.Regexp
}

// NewExtractor compiles the pattern tables once.
func NewExtractor(caps Capabilities, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		caps:   caps,
		logger: logger,

		email: regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
		url:   regexp.MustCompile(`(?i)https?://[A-Za-z0-9$\-_@.&+!*(),%/:;=?#~]+`),

		// Registration numbers validate by digit-run length alone: the
		// trailing \b rejects runs of any other length (an 11-digit run
		// matches none of the three).
		inn:  regexp.MustCompile(`\b\d{10}(?:\d{2})?\b`),
		kpp:  regexp.MustCompile(`\b\d{9}\b`),
		ogrn: regexp.MustCompile(`\b\d{13}(?:\d{2})?\b`),

		// Two or three capitalized Cyrillic tokens. RE2 word boundaries
		// are ASCII-only, so the token-count filter does the bounding.
		fio: regexp.MustCompile(`[А-ЯЁ][а-яё]+(?:\s+[А-ЯЁ][а-яё]+){1,2}`),

		money: regexp.MustCompile(`(?i)(?:(?:руб|₽|usd|eur|доллар|евро)[.\s]?)?\s?(\d[\d\s,.]*(?:\.\d{2})?)\s?(?:руб|₽|usd|eur|доллар|евро)?`),

		phonePatterns: []*regexp.Regexp{
			regexp.MustCompile(`\+7\s?\(?\d{3}\)?\s?\d{3}[-\s]?\d{2}[-\s]?\d{2}`),
			regexp.MustCompile(`8\s?\(?\d{3}\)?\s?\d{3}[-\s]?\d{2}[-\s]?\d{2}`),
			regexp.MustCompile(`\d{3}[-\s]?\d{3}[-\s]?\d{2}[-\s]?\d{2}`),
		},
		datePatterns: []*regexp.Regexp{
			regexp.MustCompile(`\b\d{1,2}[./-]\d{1,2}[./-]\d{2,4}\b`),
			regexp.MustCompile(`\b\d{4}[./-]\d{1,2}[./-]\d{1,2}\b`),
			regexp.MustCompile(`(?i)\b\d{1,2}\s+(?:января|февраля|марта|апреля|мая|июня|июля|августа|сентября|октября|ноября|декабря)\s+\d{4}\b`),
		},
	}
}

// ExtractAll runs every recognizer over the text. Empty input yields the
// all-empty shape.
func (e *Extractor) ExtractAll(text string) Result {
	if text == "" {
		return EmptyResult()
	}

	r := Result{
		Emails:      e.extractUnique(e.email, text),
		Phones:      e.extractPhones(text),
		URLs:        e.extractUnique(e.url, text),
		Dates:       e.extractDates(text),
		Money:       e.extractMoney(text),
		INN:         e.extractUnique(e.inn, text),
		KPP:         e.extractUnique(e.kpp, text),
		OGRN:        e.extractUnique(e.ogrn, text),
		PersonNames: e.extractNames(text),
	}

	counts := []int{
		len(r.Emails), len(r.Phones), len(r.URLs), len(r.Dates),
		len(r.Money), len(r.INN), len(r.KPP), len(r.OGRN), len(r.PersonNames),
	}
	for _, n := range counts {
		r.Statistics.TotalEntities += n
		if n > 0 {
			r.Statistics.EntityTypes++
		}
	}
	return r
}

// extractUnique finds all matches and deduplicates them preserving sorted
// order for stable output.
func (e *Extractor) extractUnique(pat *regexp.Regexp, text string) []string {
	matches := pat.FindAllString(text, -1)
	return dedupe(matches)
}

func (e *Extractor) extractNames(text string) []string {
	matches := e.fio.FindAllString(text, -1)
	var valid []string
	for _, m := range matches {
		n := len(strings.Fields(m))
		if n == 2 || n == 3 {
			valid = append(valid, m)
		}
	}
	return dedupe(valid)
}

func dedupe(values []string) []string {
	if len(values) == 0 {
		return []string{}
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// EmptyResult is the well-formed all-empty shape.
func EmptyResult() Result {
	return Result{
		Emails:      []string{},
		Phones:      []Phone{},
		URLs:        []string{},
		Dates:       []Date{},
		Money:       []Money{},
		INN:         []string{},
		KPP:         []string{},
		OGRN:        []string{},
		PersonNames: []string{},
	}
}
