package analyze

import (
	"github.com/hazyhaar/textlens/classify"
	"github.com/hazyhaar/textlens/entities"
	"github.com/hazyhaar/textlens/langid"
	"github.com/hazyhaar/textlens/semantic"
)

// Record is the merged result of one analysis run. Every sub-record is
// always present; a stage that was disabled, gated by a length floor, or
// abandoned on cancellation leaves its default shape.
type Record struct {
	Entities       entities.Result   `json:"entities"`
	Language       langid.Assessment `json:"language"`
	Classification classify.Result   `json:"classification"`
	Semantic       semantic.Profile  `json:"semantic"`
}

// Stages selects which pipeline stages run. The zero value runs nothing
// and yields an all-default record.
type Stages struct {
	Normalize      bool `json:"normalize"`
	Entities       bool `json:"entities"`
	Language       bool `json:"language"`
	Classification bool `json:"classification"`
	Semantic       bool `json:"semantic"`
}

// AllStages enables every stage.
func AllStages() Stages {
	return Stages{
		Normalize:      true,
		Entities:       true,
		Language:       true,
		Classification: true,
		Semantic:       true,
	}
}

// NewRecord returns a structurally complete record with default shapes.
// length is the rune count of the text the record describes.
func NewRecord(length int) Record {
	return Record{
		Entities:       entities.EmptyResult(),
		Language:       langid.Unknown(length),
		Classification: classify.EmptyResult(),
		Semantic:       semantic.EmptyProfile(),
	}
}
