package clustering

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"paperbot/config"
)

const (
	// candidateKeywordCount is how many top-weighted terms are considered
	// before length/numeric filtering
	candidateKeywordCount = 10

	// minDocFrequency excludes terms appearing in fewer documents
	minDocFrequency = 2
)

var tokenPattern = regexp.MustCompile(`[a-z0-9]{2,}`)

// englishStopWords is the filter applied before term counting
var englishStopWords = map[string]struct{}{}

func init() {
	words := strings.Fields(`a about above after again against all also am an and any are as at
		be because been before being below between both but by can cannot could did do does
		doing down during each few for from further had has have having he her here hers
		him his how i if in into is it its itself just me more most my myself no nor not
		now of off on once only or other our ours out over own same she should so some
		such than that the their theirs them then there these they this those through to
		too under until up very was we were what when where which while who whom why will
		with would you your yours due via using used use based new one two may many much
		however therefore thus moreover furthermore et al eg ie`)
	for _, w := range words {
		englishStopWords[w] = struct{}{}
	}
}

// ExtractKeywords computes TF-IDF over the given texts (1-2 word n-grams,
// English stop-words removed, terms in fewer than two documents excluded) and
// returns the top cluster keywords: the ten highest-weighted terms, minus any
// of length <= 3 or purely numeric, truncated to five.
func ExtractKeywords(texts []string) []string {
	if len(texts) == 0 {
		return nil
	}

	minDF := minDocFrequency
	if len(texts) < minDocFrequency {
		// A single-document cluster would otherwise produce no vocabulary
		minDF = 1
	}

	termFreq := make([]map[string]int, len(texts))
	docFreq := make(map[string]int)

	for i, text := range texts {
		counts := make(map[string]int)
		for _, term := range ngrams(text) {
			counts[term]++
		}
		termFreq[i] = counts
		for term := range counts {
			docFreq[term]++
		}
	}

	n := float64(len(texts))
	weights := make(map[string]float64)
	for term, df := range docFreq {
		if df < minDF {
			continue
		}
		idf := math.Log((1+n)/(1+float64(df))) + 1
		for _, counts := range termFreq {
			if tf, ok := counts[term]; ok {
				weights[term] += float64(tf) * idf
			}
		}
	}

	terms := make([]string, 0, len(weights))
	for term := range weights {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if weights[terms[i]] != weights[terms[j]] {
			return weights[terms[i]] > weights[terms[j]]
		}
		return terms[i] < terms[j]
	})

	if len(terms) > candidateKeywordCount {
		terms = terms[:candidateKeywordCount]
	}

	keywords := make([]string, 0, config.ClusterKeywordCount)
	for _, term := range terms {
		if len(term) <= 3 || isNumeric(term) {
			continue
		}
		keywords = append(keywords, term)
		if len(keywords) == config.ClusterKeywordCount {
			break
		}
	}
	return keywords
}

// ngrams tokenizes text and returns unigrams plus adjacent bigrams, with
// stop-words removed before n-gram formation
func ngrams(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)

	tokens := make([]string, 0, len(raw))
	for _, tok := range raw {
		if _, stop := englishStopWords[tok]; stop {
			continue
		}
		tokens = append(tokens, tok)
	}

	terms := make([]string, 0, 2*len(tokens))
	terms = append(terms, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		terms = append(terms, tokens[i]+" "+tokens[i+1])
	}
	return terms
}

func isNumeric(term string) bool {
	for _, r := range term {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(term) > 0
}
