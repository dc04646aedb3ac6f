package langid

import (
	"github.com/saintfish/chardet"
)

// EncodingAssessment is the outcome of byte-level charset detection.
type EncodingAssessment struct {
	Encoding   string  `json:"encoding"`
	Confidence float64 `json:"confidence"`
	IsReliable bool    `json:"is_reliable"`
	Language   string  `json:"language,omitempty"`
}

// encodingReliableThreshold is the confidence bar for IsReliable.
const encodingReliableThreshold = 0.8

// DetectEncoding runs byte-statistics charset detection over raw input.
// Empty input or detector failure yields the unknown shape.
func (d *Detector) DetectEncoding(raw []byte) EncodingAssessment {
	if len(raw) == 0 {
		return unknownEncoding()
	}

	result, err := chardet.NewTextDetector().DetectBest(raw)
	if err != nil {
		d.logger.Warn("encoding detection failed", "error", err)
		return unknownEncoding()
	}

	confidence := float64(result.Confidence) / 100.0
	if confidence < 0 {
		return unknownEncoding()
	}
	return EncodingAssessment{
		Encoding:   result.Charset,
		Confidence: confidence,
		IsReliable: confidence > encodingReliableThreshold,
		Language:   result.Language,
	}
}

func unknownEncoding() EncodingAssessment {
	return EncodingAssessment{Encoding: "unknown"}
}
