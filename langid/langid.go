// Package langid identifies the language of extracted text and the byte
// encoding of raw input.
//
// Detection is statistical and unreliable on short fragments, so both
// entry points carry an explicit reliability gate instead of errors: any
// failure or too-short input yields the "unknown" shape. Callers can
// always serialize the result.
package langid

import (
	"log/slog"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/pemistahl/lingua-go"
)

// MinTextLength is the floor below which the detector is never invoked.
const MinTextLength = 20

// reliableThreshold is the top-probability bar for IsReliable.
const reliableThreshold = 0.9

// Assessment is the outcome of language detection.
type Assessment struct {
	Language      string        `json:"language"`
	LanguageName  string        `json:"language_name"`
	Confidence    float64       `json:"confidence"`
	Probabilities []Probability `json:"probabilities"`
	IsReliable    bool          `json:"is_reliable"`
	TextLength    int           `json:"text_length"`
	Err           string        `json:"error,omitempty"`
}

// Probability is one entry of the ranked language distribution.
type Probability struct {
	Language     string  `json:"language"`
	LanguageName string  `json:"language_name"`
	Probability  float64 `json:"probability"`
}

// supported is the closed language set the service reports on. Anything
// else comes back as the nearest member or unknown.
var supported = []lingua.Language{
	lingua.Russian, lingua.English, lingua.German, lingua.French,
	lingua.Spanish, lingua.Italian, lingua.Portuguese, lingua.Polish,
	lingua.Ukrainian, lingua.Belarusian, lingua.Chinese, lingua.Japanese,
	lingua.Korean, lingua.Arabic, lingua.Hebrew, lingua.Turkish,
}

// Detector wraps the statistical language model. Building the model loads
// n-gram tables, so construct once at startup and share.
type Detector struct {
	detector lingua.LanguageDetector
	logger   *slog.Logger
}

// NewDetector builds the language model for the supported set.
func NewDetector(logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{
		detector: lingua.NewLanguageDetectorBuilder().
			FromLanguages(supported...).
			Build(),
		logger: logger,
	}
}

// DetectLanguage identifies the primary language of text together with a
// ranked probability distribution. Inputs shorter than MinTextLength runes
// yield the unknown shape with the measured length — the detector is not
// consulted below the floor.
func (d *Detector) DetectLanguage(text string) Assessment {
	text = strings.TrimSpace(text)
	length := utf8.RuneCountInString(text)

	if length < MinTextLength {
		return unknownAssessment(length, "")
	}

	primary, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		d.logger.Warn("language detection failed", "text_length", length)
		return unknownAssessment(length, "no language could be detected")
	}

	values := d.detector.ComputeLanguageConfidenceValues(text)
	probs := make([]Probability, 0, len(values))
	for _, v := range values {
		if v.Value() <= 0 {
			continue
		}
		probs = append(probs, Probability{
			Language:     code(v.Language()),
			LanguageName: displayName(v.Language()),
			Probability:  v.Value(),
		})
	}
	sort.SliceStable(probs, func(i, j int) bool {
		return probs[i].Probability > probs[j].Probability
	})

	confidence := 0.0
	if len(probs) > 0 {
		confidence = probs[0].Probability
	}

	return Assessment{
		Language:      code(primary),
		LanguageName:  displayName(primary),
		Confidence:    confidence,
		Probabilities: probs,
		IsReliable:    confidence > reliableThreshold,
		TextLength:    length,
	}
}

// Unknown is the assessment for text where no detection ran.
func Unknown(length int) Assessment {
	return unknownAssessment(length, "")
}

func unknownAssessment(length int, errNote string) Assessment {
	return Assessment{
		Language:      "unknown",
		LanguageName:  "Unknown",
		Probabilities: []Probability{},
		TextLength:    length,
		Err:           errNote,
	}
}

func code(l lingua.Language) string {
	return strings.ToLower(l.IsoCode639_1().String())
}

func displayName(l lingua.Language) string {
	return l.String()
}
