// Package analyze orchestrates the text analysis pipeline: normalization,
// entity extraction, language identification, document classification and
// semantic profiling over plain text.
//
// All stages are pure functions of an immutable input. Enabled stages run
// concurrently; no stage depends on another stage's output, so a timed-out
// stage is simply abandoned and its sub-record keeps the default shape.
//
// Usage:
//
//	pipe, err := analyze.New(analyze.Config{})
//	rec := pipe.Analyze(ctx, text, nil, analyze.AllStages())
//	fmt.Println(rec.Classification.DocumentType, len(rec.Entities.Emails))
package analyze

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/hazyhaar/textlens/classify"
	"github.com/hazyhaar/textlens/entities"
	"github.com/hazyhaar/textlens/langid"
	"github.com/hazyhaar/textlens/normalize"
	"github.com/hazyhaar/textlens/semantic"
)

// Pipeline is the analysis engine. Stage services are stateless after
// construction, so a Pipeline is safe for concurrent use.
type Pipeline struct {
	cfg        Config
	logger     *slog.Logger
	cleaner    *normalize.Cleaner
	extractor  *entities.Extractor
	detector   *langid.Detector
	classifier *classify.Classifier
	analyzer   *semantic.Analyzer
}

// New creates a Pipeline with the given configuration.
func New(cfg Config) (*Pipeline, error) {
	cfg.defaults()

	classifier, err := classify.New(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("load taxonomy: %w", err)
	}

	return &Pipeline{
		cfg:    cfg,
		logger: cfg.Logger,
		cleaner: normalize.NewCleaner(normalize.Capabilities{
			MojibakeRepair: cfg.Capabilities.MojibakeRepair,
		}),
		extractor: entities.NewExtractor(entities.Capabilities{
			PhoneMatcher: cfg.Capabilities.PhoneMatcher,
		}, cfg.Logger),
		detector:   langid.NewDetector(cfg.Logger),
		classifier: classifier,
		analyzer: semantic.NewAnalyzer(semantic.Capabilities{
			StatisticalKeywords: cfg.Capabilities.StatisticalKeywords,
			TopicModeling:       cfg.Capabilities.TopicModeling,
		}, cfg.Logger,
			semantic.WithTopN(cfg.TopKeywords),
			semantic.WithSummarySentences(cfg.SummarySentences)),
	}, nil
}

// Normalize cleans text without running any analysis stage.
func (p *Pipeline) Normalize(text string, aggressive bool) string {
	return p.cleaner.Clean(text, aggressive)
}

// DetectEncoding guesses the charset of raw bytes.
func (p *Pipeline) DetectEncoding(raw []byte) langid.EncodingAssessment {
	return p.detector.DetectEncoding(raw)
}

// Analyze runs the selected stages over text and returns a structurally
// complete record. The input is never mutated; when the normalize stage is
// enabled the analysis stages see the cleaned copy. Stages below their
// length floor are skipped. If ctx is cancelled, unfinished stages are
// abandoned and their sub-records keep the default shape.
func (p *Pipeline) Analyze(ctx context.Context, text string, metadata map[string]string, stages Stages) Record {
	if stages.Normalize {
		text = p.cleaner.Clean(text, p.cfg.AggressiveClean)
	}

	length := utf8.RuneCountInString(text)
	rec := NewRecord(length)

	// Each stage goroutine sends back a closure that patches its own
	// sub-record. The collector owns rec, so no stage touches it directly.
	results := make(chan func(*Record))
	pending := 0
	run := func(fn func() func(*Record)) {
		pending++
		go func() {
			select {
			case results <- fn():
			case <-ctx.Done():
			}
		}()
	}

	if stages.Entities && length >= p.cfg.MinEntitiesLength {
		run(func() func(*Record) {
			r := p.extractor.ExtractAll(text)
			return func(rec *Record) { rec.Entities = r }
		})
	}
	if stages.Language && length >= p.cfg.MinLanguageLength {
		run(func() func(*Record) {
			a := p.detector.DetectLanguage(text)
			return func(rec *Record) { rec.Language = a }
		})
	}
	if stages.Classification && length >= p.cfg.MinClassifyLength {
		run(func() func(*Record) {
			r := p.classifier.Classify(text, metadata)
			return func(rec *Record) { rec.Classification = r }
		})
	}
	if stages.Semantic && length >= p.cfg.MinSemanticLength {
		run(func() func(*Record) {
			pr := p.analyzer.Analyze(text)
			return func(rec *Record) { rec.Semantic = pr }
		})
	}

	for pending > 0 {
		select {
		case patch := <-results:
			patch(&rec)
			pending--
		case <-ctx.Done():
			p.logger.Warn("analysis abandoned",
				"pending_stages", pending,
				"text_length", length,
				"reason", ctx.Err())
			return rec
		}
	}
	return rec
}
