// Package semantic profiles a text: ranked keywords, latent topics, an
// extractive summary and lexical statistics.
//
// Every sub-step degrades instead of failing: statistical keyword
// weighting falls back to frequency counting, topic extraction to an
// empty list, summarization to a head excerpt. Analyze never returns an
// error and its result is always safe to serialize.
package semantic

import (
	"log/slog"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

// minTopicLength is the text-length floor for topic extraction.
const minTopicLength = 500

// minStatisticalTokens is the token floor below which the statistical
// keyword path defers to frequency counting.
const minStatisticalTokens = 20

// minTokenLength filters noise tokens from keywords and statistics.
const minTokenLength = 3

// Capabilities gates the statistical enhancements. Fallback paths are the
// documented frequency/empty behaviors.
type Capabilities struct {
	StatisticalKeywords bool
	TopicModeling       bool
}

// Profile is the semantic analysis of one text.
type Profile struct {
	Keywords   []Keyword  `json:"keywords"`
	Topics     []Topic    `json:"topics"`
	Summary    string     `json:"summary"`
	Statistics Statistics `json:"statistics"`
}

// Keyword is one ranked keyword. Score is normalized to [0,1] by the top
// score; Count is set only by the frequency path.
type Keyword struct {
	Word  string  `json:"word"`
	Score float64 `json:"score"`
	Count int     `json:"count,omitempty"`
	Rank  int     `json:"rank"`
}

// Topic is one latent topic with its highest-weighted terms.
type Topic struct {
	TopicID  int            `json:"topic_id"`
	Keywords []TopicKeyword `json:"keywords"`
}

// TopicKeyword is a term-weight pair within a topic. Weights are raw.
type TopicKeyword struct {
	Word   string  `json:"word"`
	Weight float64 `json:"weight"`
}

// Statistics are surface-level lexical measurements.
type Statistics struct {
	TotalCharacters   int     `json:"total_characters"`
	TotalWords        int     `json:"total_words"`
	TotalSentences    int     `json:"total_sentences"`
	UniqueWords       int     `json:"unique_words"`
	LexicalDiversity  float64 `json:"lexical_diversity"`
	AvgWordLength     float64 `json:"avg_word_length"`
	AvgSentenceLength float64 `json:"avg_sentence_length"`
}

// Analyzer computes semantic profiles. Stateless after construction; safe
// for concurrent use.
type Analyzer struct {
	caps       Capabilities
	logger     *slog.Logger
	stopwords  map[string]struct{}
	topN       int
	summaryLen int
}

// Option tweaks Analyzer construction.
type Option func(*Analyzer)

// WithTopN sets how many keywords Analyze reports. Default 20.
func WithTopN(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.topN = n
		}
	}
}

// WithSummarySentences sets the extractive summary target. Default 3.
func WithSummarySentences(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.summaryLen = n
		}
	}
}

// NewAnalyzer builds an Analyzer with the combined stopword set.
func NewAnalyzer(caps Capabilities, logger *slog.Logger, opts ...Option) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Analyzer{
		caps:       caps,
		logger:     logger,
		stopwords:  combinedStopwords(),
		topN:       20,
		summaryLen: 3,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Analyze produces the full semantic profile. Empty input yields the
// empty shape.
func (a *Analyzer) Analyze(text string) Profile {
	if text == "" {
		return EmptyProfile()
	}

	p := Profile{
		Keywords:   a.ExtractKeywords(text, a.topN),
		Topics:     []Topic{},
		Summary:    a.Summarize(text, a.summaryLen),
		Statistics: a.TextStatistics(text),
	}
	if a.caps.TopicModeling && utf8.RuneCountInString(text) > minTopicLength {
		p.Topics = a.ExtractTopics(text, 3, 10)
	}
	return p
}

var wordPattern = regexp.MustCompile(`[а-яёА-ЯЁa-zA-Z]+`)

// tokenize splits text into alphabetic runs.
func tokenize(text string) []string {
	return wordPattern.FindAllString(text, -1)
}

var sentenceSplit = regexp.MustCompile(`[.!?]+`)

// splitSentences splits on sentence-terminator runs, dropping blanks.
func splitSentences(text string) []string {
	parts := sentenceSplit.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Summarize selects sentences verbatim. With the default target of 3 and
// at least 3 sentences it takes {first, middle, last}; shorter documents
// come back unchanged; any other target takes the first N.
func (a *Analyzer) Summarize(text string, sentences int) string {
	sents := splitSentences(text)
	if len(sents) == 0 {
		return headExcerpt(text)
	}
	if len(sents) <= sentences {
		return text
	}
	if sentences == 3 {
		return sents[0] + " " + sents[len(sents)/2] + " " + sents[len(sents)-1]
	}
	return strings.Join(sents[:sentences], " ")
}

// headExcerpt is the last-resort summary: the first 500 characters.
func headExcerpt(text string) string {
	runes := []rune(text)
	if len(runes) > 500 {
		return string(runes[:500]) + "..."
	}
	return text
}

// TextStatistics measures the surface of the text. All ratios are rounded
// to two decimals; divisions by zero yield 0.
func (a *Analyzer) TextStatistics(text string) Statistics {
	words := tokenize(text)
	sents := splitSentences(text)

	unique := make(map[string]struct{})
	runeTotal := 0
	for _, w := range words {
		n := utf8.RuneCountInString(w)
		runeTotal += n
		if n >= minTokenLength {
			unique[strings.ToLower(w)] = struct{}{}
		}
	}

	s := Statistics{
		TotalCharacters: utf8.RuneCountInString(text),
		TotalWords:      len(words),
		TotalSentences:  len(sents),
		UniqueWords:     len(unique),
	}
	if len(words) > 0 {
		s.LexicalDiversity = round2(float64(len(unique)) / float64(len(words)))
		s.AvgWordLength = round2(float64(runeTotal) / float64(len(words)))
	}
	if len(sents) > 0 {
		s.AvgSentenceLength = round2(float64(len(words)) / float64(len(sents)))
	}
	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// EmptyProfile is the well-formed empty shape.
func EmptyProfile() Profile {
	return Profile{
		Keywords: []Keyword{},
		Topics:   []Topic{},
	}
}
