// Package classify assigns a document type from a fixed, closed taxonomy
// by weighted keyword-bag scoring.
//
// The taxonomy is a data table (taxonomy.yaml, embedded) of category id,
// display name, bilingual keyword list and scalar weight. Classification
// never fails: text with no taxonomy vocabulary yields type "unknown"
// with confidence 0.
package classify

import (
	_ "embed"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed taxonomy.yaml
var taxonomyYAML []byte

// Category is one taxonomy entry.
type Category struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	Weight   float64  `yaml:"weight"`
	Keywords []string `yaml:"keywords"`
}

// minConfidence is the floor a top category must reach to be reported as
// the primary type.
const minConfidence = 0.1

// confidentThreshold marks a classification as confident.
const confidentThreshold = 0.5

// maxMatchedKeywords caps the matched-keyword detail for the primary type.
const maxMatchedKeywords = 10

// Result is the outcome of classifying one document.
type Result struct {
	DocumentType     string            `json:"document_type"`
	DocumentTypeName string            `json:"document_type_name"`
	Confidence       float64           `json:"confidence"`
	IsConfident      bool              `json:"is_confident"`
	AllProbabilities []TypeProbability `json:"all_probabilities"`
	MatchedKeywords  []KeywordMatch    `json:"matched_keywords"`
	MetadataHints    *MetadataHints    `json:"metadata_hints,omitempty"`
}

// TypeProbability is one entry of the ranked type distribution. Confidence
// is the raw score divided by the maximum raw score, so the top entry is
// always 1.0.
type TypeProbability struct {
	Type            string  `json:"type"`
	TypeName        string  `json:"type_name"`
	Confidence      float64 `json:"confidence"`
	MatchedKeywords int     `json:"matched_keywords"`
}

// KeywordMatch records one keyword hit for the primary type.
type KeywordMatch struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

// MetadataHints are non-authoritative signals from document metadata.
// They never alter the score.
type MetadataHints struct {
	TitleMatch string `json:"title_match,omitempty"`
	AuthorHint string `json:"author_hint,omitempty"`
}

// Classifier scores text against the taxonomy table. Stateless after
// construction; safe for concurrent use.
type Classifier struct {
	categories []Category
	logger     *slog.Logger
}

// New loads the embedded taxonomy. An invalid table is a programming
// error, surfaced at startup.
func New(logger *slog.Logger) (*Classifier, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var table struct {
		Categories []Category `yaml:"categories"`
	}
	if err := yaml.Unmarshal(taxonomyYAML, &table); err != nil {
		return nil, fmt.Errorf("parse taxonomy: %w", err)
	}
	if len(table.Categories) == 0 {
		return nil, fmt.Errorf("taxonomy has no categories")
	}
	for _, c := range table.Categories {
		if c.ID == "" || c.Weight <= 0 || len(c.Keywords) == 0 {
			return nil, fmt.Errorf("taxonomy category %q is incomplete", c.ID)
		}
	}
	return &Classifier{categories: table.Categories, logger: logger}, nil
}

// Categories exposes the loaded taxonomy (read-only by convention).
func (c *Classifier) Categories() []Category { return c.categories }

// Classify scores the text against every category. Metadata, when
// present, contributes hints only.
func (c *Classifier) Classify(text string, metadata map[string]string) Result {
	if text == "" {
		return EmptyResult()
	}

	lower := strings.ToLower(text)

	type scored struct {
		cat     Category
		score   float64
		matches []KeywordMatch
	}
	var matched []scored
	maxScore := 0.0

	for _, cat := range c.categories {
		var matches []KeywordMatch
		score := 0.0
		for _, kw := range cat.Keywords {
			count := strings.Count(lower, strings.ToLower(kw))
			if count == 0 {
				continue
			}
			matches = append(matches, KeywordMatch{Keyword: kw, Count: count})
			score += float64(count) * cat.Weight
		}
		if len(matches) == 0 {
			continue
		}
		matched = append(matched, scored{cat: cat, score: score, matches: matches})
		if score > maxScore {
			maxScore = score
		}
	}

	if len(matched) == 0 {
		r := EmptyResult()
		r.MetadataHints = c.metadataHints(metadata)
		return r
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].score > matched[j].score
	})

	probs := make([]TypeProbability, 0, len(matched))
	for _, s := range matched {
		probs = append(probs, TypeProbability{
			Type:            s.cat.ID,
			TypeName:        s.cat.Name,
			Confidence:      s.score / maxScore,
			MatchedKeywords: len(s.matches),
		})
	}

	r := Result{AllProbabilities: probs, MatchedKeywords: []KeywordMatch{}}
	top := matched[0]
	if probs[0].Confidence >= minConfidence {
		r.DocumentType = top.cat.ID
		r.DocumentTypeName = top.cat.Name
		r.Confidence = probs[0].Confidence
		r.IsConfident = r.Confidence > confidentThreshold
		detail := top.matches
		if len(detail) > maxMatchedKeywords {
			detail = detail[:maxMatchedKeywords]
		}
		r.MatchedKeywords = detail
	} else {
		r.DocumentType = "unknown"
		r.DocumentTypeName = "Unknown"
	}

	r.MetadataHints = c.metadataHints(metadata)
	return r
}

// metadataHints scans title and author for taxonomy signals. The first
// five keywords of each category are considered representative enough for
// a title hint.
func (c *Classifier) metadataHints(metadata map[string]string) *MetadataHints {
	if len(metadata) == 0 {
		return nil
	}
	hints := &MetadataHints{}

	if title := strings.ToLower(metadata["title"]); title != "" {
	scan:
		for _, cat := range c.categories {
			head := cat.Keywords
			if len(head) > 5 {
				head = head[:5]
			}
			for _, kw := range head {
				if strings.Contains(title, strings.ToLower(kw)) {
					hints.TitleMatch = cat.ID
					break scan
				}
			}
		}
	}

	if author := strings.ToLower(metadata["author"]); author != "" {
		switch {
		case strings.Contains(author, "hr"), strings.Contains(author, "recruiter"), strings.Contains(author, "кадры"):
			hints.AuthorHint = "resume"
		case strings.Contains(author, "accounting"), strings.Contains(author, "бухгалтерия"):
			hints.AuthorHint = "invoice"
		}
	}

	if hints.TitleMatch == "" && hints.AuthorHint == "" {
		return nil
	}
	return hints
}

// EmptyResult is the well-formed unknown shape.
func EmptyResult() Result {
	return Result{
		DocumentType:     "unknown",
		DocumentTypeName: "Unknown",
		AllProbabilities: []TypeProbability{},
		MatchedKeywords:  []KeywordMatch{},
	}
}
