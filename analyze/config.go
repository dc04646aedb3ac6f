package analyze

import "log/slog"

// Capabilities gates the optional enhancements. Each disabled capability
// forces the corresponding documented fallback path.
type Capabilities struct {
	StatisticalKeywords bool `json:"statistical_keywords" yaml:"statistical_keywords"`
	TopicModeling       bool `json:"topic_modeling" yaml:"topic_modeling"`
	MojibakeRepair      bool `json:"mojibake_repair" yaml:"mojibake_repair"`
	PhoneMatcher        bool `json:"phone_matcher" yaml:"phone_matcher"`
}

// FullCapabilities returns every capability enabled.
func FullCapabilities() Capabilities {
	return Capabilities{
		StatisticalKeywords: true,
		TopicModeling:       true,
		MojibakeRepair:      true,
		PhoneMatcher:        true,
	}
}

// Config configures the analysis pipeline.
type Config struct {
	// Stage floors in runes. Text shorter than a floor skips that stage
	// and keeps its default shape.
	MinLanguageLength int `json:"min_language_length" yaml:"min_language_length"`
	MinEntitiesLength int `json:"min_entities_length" yaml:"min_entities_length"`
	MinClassifyLength int `json:"min_classify_length" yaml:"min_classify_length"`
	MinSemanticLength int `json:"min_semantic_length" yaml:"min_semantic_length"`

	// TopKeywords caps the semantic keyword list (default 20).
	TopKeywords int `json:"top_keywords" yaml:"top_keywords"`

	// SummarySentences is the extractive summary length (default 3).
	SummarySentences int `json:"summary_sentences" yaml:"summary_sentences"`

	// AggressiveClean also strips boilerplate lines during normalization.
	AggressiveClean bool `json:"aggressive_clean" yaml:"aggressive_clean"`

	// Capabilities is resolved once at startup. An all-false struct is
	// treated as unset and replaced with FullCapabilities.
	Capabilities Capabilities `json:"capabilities" yaml:"capabilities"`

	// Logger for stage diagnostics.
	Logger *slog.Logger `json:"-" yaml:"-"`
}

func (c *Config) defaults() {
	if c.MinLanguageLength <= 0 {
		c.MinLanguageLength = 20
	}
	if c.MinEntitiesLength <= 0 {
		c.MinEntitiesLength = 20
	}
	if c.MinClassifyLength <= 0 {
		c.MinClassifyLength = 50
	}
	if c.MinSemanticLength <= 0 {
		c.MinSemanticLength = 100
	}
	if c.TopKeywords <= 0 {
		c.TopKeywords = 20
	}
	if c.SummarySentences <= 0 {
		c.SummarySentences = 3
	}
	if c.Capabilities == (Capabilities{}) {
		c.Capabilities = FullCapabilities()
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}
