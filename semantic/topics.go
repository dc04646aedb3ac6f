package semantic

import (
	"sort"
	"strings"

	"github.com/james-bowman/nlp"
	"gonum.org/v1/gonum/mat"
)

// ExtractTopics decomposes the document into nTopics latent topics and
// reports the wordsPerTopic highest-weighted terms of each. Any failure —
// empty vocabulary, decomposition error, a panic inside the fit — yields
// an empty list.
func (a *Analyzer) ExtractTopics(text string, nTopics, wordsPerTopic int) (topics []Topic) {
	topics = []Topic{}

	defer func() {
		if r := recover(); r != nil {
			a.logger.Warn("topic extraction panicked", "recover", r)
			topics = []Topic{}
		}
	}()

	filtered := a.filterTokens(tokenize(text))
	if len(filtered) == 0 {
		return topics
	}

	vectoriser := nlp.NewCountVectoriser(stopwordList()...)
	m, err := vectoriser.FitTransform(strings.Join(filtered, " "))
	if err != nil || len(vectoriser.Vocabulary) == 0 {
		return topics
	}

	lda := nlp.NewLatentDirichletAllocation(nTopics)
	if _, err := lda.FitTransform(m); err != nil {
		a.logger.Warn("topic decomposition failed", "error", err)
		return topics
	}

	components := lda.Components()
	vocab := invertVocabulary(vectoriser.Vocabulary)

	for topicIdx := 0; topicIdx < nTopics; topicIdx++ {
		terms := make([]TopicKeyword, 0, len(vocab))
		for wordIdx, word := range vocab {
			terms = append(terms, TopicKeyword{
				Word:   word,
				Weight: topicWeight(components, nTopics, topicIdx, wordIdx),
			})
		}
		sort.SliceStable(terms, func(i, j int) bool {
			return terms[i].Weight > terms[j].Weight
		})
		if len(terms) > wordsPerTopic {
			terms = terms[:wordsPerTopic]
		}
		topics = append(topics, Topic{TopicID: topicIdx + 1, Keywords: terms})
	}
	return topics
}

// topicWeight reads the topic-word distribution independent of component
// matrix orientation.
func topicWeight(components mat.Matrix, nTopics, topicIdx, wordIdx int) float64 {
	rows, _ := components.Dims()
	if rows == nTopics {
		return components.At(topicIdx, wordIdx)
	}
	return components.At(wordIdx, topicIdx)
}

func invertVocabulary(vocabulary map[string]int) []string {
	out := make([]string, len(vocabulary))
	for word, idx := range vocabulary {
		if idx >= 0 && idx < len(out) {
			out[idx] = word
		}
	}
	return out
}
