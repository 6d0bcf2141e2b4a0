package enrich

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

var (
	punctuation = regexp.MustCompile(`[^\w\s]`)

	// stopWords only lists words longer than three characters; shorter
	// tokens are dropped before the lookup.
	stopWords = makeSet(
		"about", "after", "again", "along", "also", "another", "around", "available", "away",
		"back", "because", "become", "been", "before", "being", "believe", "better", "between",
		"both", "come", "could", "despite", "different", "does", "down", "during", "each",
		"enough", "even", "every", "experience", "face", "fact", "fail", "field", "fill",
		"find", "first", "fish", "force", "form", "from", "full", "general", "give", "going",
		"good", "great", "hand", "have", "heat", "here", "high", "however", "human",
		"important", "include", "into", "item", "itself", "join", "just", "keep", "kind",
		"know", "large", "later", "learn", "less", "life", "like", "little", "local", "long",
		"look", "make", "many", "mean", "meat", "media", "might", "miss", "more", "most",
		"move", "much", "must", "name", "national", "need", "never", "news", "none", "note",
		"nothing", "number", "occur", "official", "often", "once", "only", "open", "order",
		"other", "over", "part", "people", "place", "point", "popular", "possible", "power",
		"probably", "problem", "process", "program", "provide", "public", "quite", "rather",
		"read", "really", "remember", "right", "room", "said", "same", "school", "seem",
		"several", "shall", "should", "show", "side", "since", "small", "some", "someone",
		"something", "sometimes", "sound", "specific", "start", "state", "still", "such",
		"sure", "system", "take", "tell", "than", "thanks", "that", "their", "them", "then",
		"there", "these", "they", "thing", "think", "this", "those", "though", "three",
		"through", "thus", "time", "today", "together", "toward", "turn", "under", "until",
		"upon", "used", "using", "usually", "very", "want", "water", "week", "well", "were",
		"what", "when", "where", "which", "while", "will", "with", "within", "without", "work",
		"world", "would", "write", "year", "young", "your",
	)
)

func makeSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// extractKeywords ranks the meaningful words of text by frequency and
// returns the top five. Words of three characters or fewer and stop words
// are ignored. Ties keep first-occurrence order.
func extractKeywords(text string) []string {
	cleaned := punctuation.ReplaceAllString(strings.ToLower(text), " ")

	counts := make(map[string]int)
	var order []string
	for _, w := range strings.Fields(cleaned) {
		if utf8.RuneCountInString(w) <= 3 {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > maxTags {
		order = order[:maxTags]
	}
	if order == nil {
		order = []string{}
	}
	return order
}
