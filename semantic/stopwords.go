package semantic

// Combined multilingual stopword set used by keyword and topic extraction.
// The lists cover the corpus languages (Russian, English); extend here,
// not in the algorithms.

var stopwordsRU = []string{
	"и", "в", "во", "не", "что", "он", "на", "я", "с", "со", "как", "а", "то",
	"все", "она", "так", "его", "но", "да", "ты", "к", "у", "же", "вы", "за",
	"бы", "по", "только", "ее", "мне", "было", "вот", "от", "меня", "еще", "нет",
	"о", "из", "ему", "теперь", "когда", "даже", "ну", "вдруг", "ли", "если",
	"уже", "или", "ни", "быть", "был", "него", "до", "вас", "нибудь", "опять",
	"уж", "вам", "ведь", "там", "потом", "себя", "ничего", "ей", "может", "они",
	"тут", "где", "есть", "надо", "ней", "для", "мы", "тебя", "их", "чем", "была",
	"сам", "чтоб", "без", "будто", "чего", "раз", "тоже", "себе", "под", "будет",
}

var stopwordsEN = []string{
	"the", "be", "to", "of", "and", "a", "in", "that", "have", "i", "it", "for",
	"not", "on", "with", "he", "as", "you", "do", "at", "this", "but", "his", "by",
	"from", "they", "we", "say", "her", "she", "or", "an", "will", "my", "one", "all",
	"would", "there", "their", "what", "so", "up", "out", "if", "about", "who", "get",
}

// combinedStopwords builds the merged lookup set once per Analyzer.
func combinedStopwords() map[string]struct{} {
	set := make(map[string]struct{}, len(stopwordsRU)+len(stopwordsEN))
	for _, w := range stopwordsRU {
		set[w] = struct{}{}
	}
	for _, w := range stopwordsEN {
		set[w] = struct{}{}
	}
	return set
}

// stopwordList flattens the combined set for APIs that take a slice.
func stopwordList() []string {
	out := make([]string, 0, len(stopwordsRU)+len(stopwordsEN))
	out = append(out, stopwordsRU...)
	out = append(out, stopwordsEN...)
	return out
}
