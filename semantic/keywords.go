package semantic

import (
	"math"
	"sort"
	"strings"

	"github.com/james-bowman/nlp"
)

// ExtractKeywords returns the topN ranked keywords. The statistical path
// runs when the capability is on and the text carries at least
// minStatisticalTokens tokens; otherwise, or when the vectoriser yields
// nothing usable, it falls back to stopword-filtered frequency counting.
func (a *Analyzer) ExtractKeywords(text string, topN int) []Keyword {
	if topN <= 0 {
		topN = a.topN
	}
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return []Keyword{}
	}

	if a.caps.StatisticalKeywords && len(tokens) >= minStatisticalTokens {
		if kw, ok := a.statisticalKeywords(tokens, topN); ok {
			return kw
		}
		a.logger.Debug("statistical keyword path yielded nothing, using frequency fallback")
	}
	return a.frequencyKeywords(tokens, topN)
}

// filterTokens lowercases and drops stopwords and short tokens, keeping
// first-encountered order.
func (a *Analyzer) filterTokens(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if len([]rune(t)) < minTokenLength {
			continue
		}
		lower := strings.ToLower(t)
		if _, stop := a.stopwords[lower]; stop {
			continue
		}
		out = append(out, lower)
	}
	return out
}

// statisticalKeywords vectorises the filtered token stream and weights
// each term by L2-normalised term frequency — the value a TF-IDF
// vectoriser produces for a single document, where inverse document
// frequency is constant. The candidate vocabulary is capped to topN*2
// before selection.
func (a *Analyzer) statisticalKeywords(tokens []string, topN int) ([]Keyword, bool) {
	filtered := a.filterTokens(tokens)
	if len(filtered) == 0 {
		return nil, false
	}

	vectoriser := nlp.NewCountVectoriser(stopwordList()...)
	m, err := vectoriser.FitTransform(strings.Join(filtered, " "))
	if err != nil || len(vectoriser.Vocabulary) == 0 {
		return nil, false
	}

	type termWeight struct {
		word   string
		weight float64
		index  int
	}
	weights := make([]termWeight, 0, len(vectoriser.Vocabulary))
	var norm float64
	for word, row := range vectoriser.Vocabulary {
		count := m.At(row, 0)
		if count <= 0 {
			continue
		}
		norm += count * count
		weights = append(weights, termWeight{word: word, weight: count, index: row})
	}
	if len(weights) == 0 || norm == 0 {
		return nil, false
	}
	norm = math.Sqrt(norm)
	for i := range weights {
		weights[i].weight /= norm
	}

	// Ties break by vocabulary index, which follows first encounter.
	sort.SliceStable(weights, func(i, j int) bool {
		if weights[i].weight != weights[j].weight {
			return weights[i].weight > weights[j].weight
		}
		return weights[i].index < weights[j].index
	})
	if limit := topN * 2; len(weights) > limit {
		weights = weights[:limit]
	}
	if len(weights) > topN {
		weights = weights[:topN]
	}

	top := weights[0].weight
	out := make([]Keyword, 0, len(weights))
	for i, w := range weights {
		out = append(out, Keyword{
			Word:  w.word,
			Score: w.weight / top,
			Rank:  i + 1,
		})
	}
	return out, true
}

// frequencyKeywords is the fallback: stopword-filtered counts, score
// normalized by the top count, ties by first encounter.
func (a *Analyzer) frequencyKeywords(tokens []string, topN int) []Keyword {
	filtered := a.filterTokens(tokens)
	if len(filtered) == 0 {
		return []Keyword{}
	}

	counts := make(map[string]int, len(filtered))
	order := make([]string, 0, len(filtered))
	for _, t := range filtered {
		if counts[t] == 0 {
			order = append(order, t)
		}
		counts[t]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > topN {
		order = order[:topN]
	}

	top := counts[order[0]]
	out := make([]Keyword, 0, len(order))
	for i, w := range order {
		out = append(out, Keyword{
			Word:  w,
			Score: round2(float64(counts[w]) / float64(top)),
			Count: counts[w],
			Rank:  i + 1,
		})
	}
	return out
}
