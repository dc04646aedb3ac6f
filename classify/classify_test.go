package classify

import (
	"strings"
	"testing"
)

func newClassifier(t *testing.T) *Classifier {
	t.Helper()
	c, err := New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNew_TaxonomyLoads(t *testing.T) {
	c := newClassifier(t)
	if len(c.Categories()) < 2 {
		t.Fatalf("categories: got %d, want at least 2", len(c.Categories()))
	}
	for _, cat := range c.Categories() {
		if cat.ID == "" || cat.Name == "" || cat.Weight <= 0 || len(cat.Keywords) == 0 {
			t.Errorf("incomplete category: %+v", cat)
		}
	}
}

func TestClassify_Empty(t *testing.T) {
	c := newClassifier(t)
	r := c.Classify("", nil)

	if r.DocumentType != "unknown" || r.DocumentTypeName != "Unknown" {
		t.Errorf("type: got %s/%s, want unknown/Unknown", r.DocumentType, r.DocumentTypeName)
	}
	if r.Confidence != 0 || r.IsConfident {
		t.Errorf("confidence: got %v/%v, want 0/false", r.Confidence, r.IsConfident)
	}
	if r.AllProbabilities == nil || r.MatchedKeywords == nil {
		t.Error("got nil slices, want empty slices")
	}
}

func TestClassify_NoVocabulary(t *testing.T) {
	c := newClassifier(t)
	r := c.Classify("жил да был серый кот на белом свете", nil)

	if r.DocumentType != "unknown" {
		t.Errorf("type: got %s, want unknown", r.DocumentType)
	}
	if len(r.AllProbabilities) != 0 {
		t.Errorf("probabilities: got %v, want empty", r.AllProbabilities)
	}
}

func TestClassify_Contract(t *testing.T) {
	c := newClassifier(t)
	text := strings.Repeat("договор ", 10) + "резюме"
	r := c.Classify(text, nil)

	if r.DocumentType != "contract" {
		t.Fatalf("type: got %s, want contract", r.DocumentType)
	}
	if !r.IsConfident {
		t.Error("is_confident: got false, want true")
	}
	if len(r.AllProbabilities) == 0 || r.AllProbabilities[0].Confidence != 1.0 {
		t.Fatalf("top confidence: got %v, want 1.0", r.AllProbabilities)
	}
	for i := 1; i < len(r.AllProbabilities); i++ {
		if r.AllProbabilities[i].Confidence > r.AllProbabilities[i-1].Confidence {
			t.Fatalf("probabilities not descending: %v", r.AllProbabilities)
		}
	}
	if r.Confidence != r.AllProbabilities[0].Confidence {
		t.Errorf("confidence %v != top probability %v", r.Confidence, r.AllProbabilities[0].Confidence)
	}
}

func TestClassify_MatchedKeywordDetail(t *testing.T) {
	c := newClassifier(t)
	r := c.Classify("договор подписан, договор вступает в силу", nil)

	if r.DocumentType != "contract" {
		t.Fatalf("type: got %s, want contract", r.DocumentType)
	}
	if len(r.MatchedKeywords) == 0 {
		t.Fatal("matched_keywords: empty")
	}
	if len(r.MatchedKeywords) > maxMatchedKeywords {
		t.Fatalf("matched_keywords: got %d entries, cap is %d", len(r.MatchedKeywords), maxMatchedKeywords)
	}
	if r.MatchedKeywords[0].Keyword != "договор" || r.MatchedKeywords[0].Count != 2 {
		t.Errorf("first match: got %+v, want договор x2", r.MatchedKeywords[0])
	}
}

func TestClassify_MetadataHints(t *testing.T) {
	c := newClassifier(t)

	tests := []struct {
		name       string
		metadata   map[string]string
		titleMatch string
		authorHint string
	}{
		{"title invoice", map[string]string{"title": "Счет на оплату №42"}, "invoice", ""},
		{"author hr", map[string]string{"author": "отдел кадры"}, "", "resume"},
		{"author accounting", map[string]string{"author": "бухгалтерия"}, "", "invoice"},
		{"no signal", map[string]string{"title": "просто файл"}, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := c.Classify("обычный текст", tt.metadata)
			if tt.titleMatch == "" && tt.authorHint == "" {
				if r.MetadataHints != nil {
					t.Fatalf("hints: got %+v, want nil", r.MetadataHints)
				}
				return
			}
			if r.MetadataHints == nil {
				t.Fatal("hints: got nil")
			}
			if r.MetadataHints.TitleMatch != tt.titleMatch {
				t.Errorf("title_match: got %q, want %q", r.MetadataHints.TitleMatch, tt.titleMatch)
			}
			if r.MetadataHints.AuthorHint != tt.authorHint {
				t.Errorf("author_hint: got %q, want %q", r.MetadataHints.AuthorHint, tt.authorHint)
			}
		})
	}
}

func TestClassify_HintsDoNotScore(t *testing.T) {
	c := newClassifier(t)
	r := c.Classify("жил да был серый кот", map[string]string{"author": "hr department"})

	if r.DocumentType != "unknown" {
		t.Errorf("type: got %s, want unknown despite author hint", r.DocumentType)
	}
	if r.MetadataHints == nil || r.MetadataHints.AuthorHint != "resume" {
		t.Errorf("hints: got %+v, want resume author hint", r.MetadataHints)
	}
}
