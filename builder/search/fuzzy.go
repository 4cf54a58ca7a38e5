package search

import (
	"sort"
	"strings"
)

// MaxEditDistance caps the Levenshtein distance accepted by fuzzy search.
const MaxEditDistance = 2

// LevenshteinDistance calculates the edit distance between two strings
func LevenshteinDistance(a, b string) int {
	aRunes := []rune(a)
	bRunes := []rune(b)

	lenA := len(aRunes)
	lenB := len(bRunes)

	// Quick exit for empty strings
	if lenA == 0 {
		return lenB
	}
	if lenB == 0 {
		return lenA
	}

	// Use single slice optimization
	// We only need to track the previous row
	prev := make([]int, lenB+1)
	curr := make([]int, lenB+1)

	// Initialize first row
	for j := 0; j <= lenB; j++ {
		prev[j] = j
	}

	for i := 1; i <= lenA; i++ {
		curr[0] = i

		for j := 1; j <= lenB; j++ {
			cost := 1
			if aRunes[i-1] == bRunes[j-1] {
				cost = 0
			}

			// Minimum of insert, delete, replace
			insert := curr[j-1] + 1
			delete := prev[j] + 1
			replace := prev[j-1] + cost

			curr[j] = min3(insert, delete, replace)
		}

		// Swap slices
		prev, curr = curr, prev
	}

	return prev[lenB]
}

// FuzzyMatch checks if two strings match within maxDist edit distance
func FuzzyMatch(term, target string, maxDist int) bool {
	// Quick length check - if length difference > maxDist, can't match
	diff := len(term) - len(target)
	if diff < 0 {
		diff = -diff
	}
	if diff > maxDist {
		return false
	}

	return LevenshteinDistance(term, target) <= maxDist
}

// FuzzyExpandWithNgrams returns indexed terms within maxDist of term,
// using the trigram index to avoid scanning every term.
func FuzzyExpandWithNgrams(term string, ngramIndex map[string][]string, maxDist int) []string {
	trigrams := generateTrigrams(term)

	// Count how many trigrams each candidate shares
	candidateScores := make(map[string]int)
	for _, tg := range trigrams {
		for _, cand := range ngramIndex[tg] {
			candidateScores[cand]++
		}
	}

	var results []string
	minScore := len(trigrams) / 2
	for cand, score := range candidateScores {
		if score >= minScore && cand != term && FuzzyMatch(term, cand, maxDist) {
			results = append(results, cand)
		}
	}
	sort.Strings(results)
	return results
}

// generateTrigrams creates trigram (3-character) sequences from a word
func generateTrigrams(word string) []string {
	if len(word) < 3 {
		return []string{word}
	}

	runes := []rune(word)
	n := len(runes)
	trigrams := make([]string, 0, n-2)

	for i := 0; i <= n-3; i++ {
		trigrams = append(trigrams, string(runes[i:i+3]))
	}

	return trigrams
}

// BuildNgramIndex builds a trigram index for fast fuzzy lookups
func BuildNgramIndex(terms map[string][]Posting) map[string][]string {
	ngramIndex := make(map[string][]string, len(terms))

	for term := range terms {
		trigrams := generateTrigrams(term)
		for _, tg := range trigrams {
			ngramIndex[tg] = append(ngramIndex[tg], term)
		}
	}

	return ngramIndex
}

// min3 returns the minimum of three integers
func min3(a, b, c int) int {
	if a < b {
		if a < c {
			return a
		}
		return c
	}
	if b < c {
		return b
	}
	return c
}

// ParseQuery parses a search query into terms and phrases
// Phrases are enclosed in quotes: "machine learning"
type ParsedQuery struct {
	Terms   []string // Individual terms
	Phrases []string // Quoted phrases
	Raw     string   // Original query
}

// ParseQuery extracts terms and phrases from a query string
func ParseQuery(query string) ParsedQuery {
	result := ParsedQuery{
		Raw: query,
	}

	// Extract phrases (quoted strings)
	var phraseBuf strings.Builder
	inPhrase := false

	for _, r := range query {
		if r == '"' {
			if inPhrase {
				phrase := strings.TrimSpace(phraseBuf.String())
				if phrase != "" {
					result.Phrases = append(result.Phrases, phrase)
				}
				phraseBuf.Reset()
			}
			inPhrase = !inPhrase
		} else if inPhrase {
			phraseBuf.WriteRune(r)
		}
	}

	// Phrase words still count as terms; the phrase only adds a boost.
	text := strings.ReplaceAll(query, `"`, " ")
	result.Terms = DefaultAnalyzer.Analyze(text)
	if len(result.Terms) == 0 {
		// Only titles keep stop words, so these terms can still match a title.
		result.Terms = TitleAnalyzer.Analyze(text)
	}
	for i, phrase := range result.Phrases {
		result.Phrases[i] = strings.Join(TokenizeWithUnicode(Fold(phrase)), " ")
	}

	return result
}
