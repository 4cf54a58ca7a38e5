package search

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// Constants for snippet extraction
const (
	MaxSnippetContentLength = 10000
	DefaultSnippetLength    = 150
	SnippetContextBefore    = 60
	SnippetContextAfter     = 90
)

// Scoring weights for expanded and phrase matches
const (
	ScorePhraseMatch    = 15.0
	ScorePrefixModifier = 0.8
	ScoreFuzzyModifier  = 0.7
)

// DefaultLimit caps results when Options.Limit is zero.
const DefaultLimit = 5

// Options tunes query expansion.
type Options struct {
	// Prefix also matches indexed terms that start with a query term.
	Prefix bool
	// Fuzzy is the maximum edit distance for typo-tolerant matches; 0 disables it.
	Fuzzy int
	// Limit caps the number of results.
	Limit int
}

// Result is one ranked hit.
type Result struct {
	Document
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

// Search ranks documents for query by score, highest first, ties broken by URL.
// A leading "tag:<name>" restricts hits to documents carrying that tag.
func (idx *Index) Search(query string, opts Options) []Result {
	query = strings.TrimSpace(query)
	if query == "" || idx == nil {
		return nil
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	maxDist := opts.Fuzzy
	if maxDist > MaxEditDistance {
		maxDist = MaxEditDistance
	}

	tagFilter := ""
	if strings.HasPrefix(strings.ToLower(query), "tag:") {
		parts := strings.SplitN(query, " ", 2)
		tagFilter = Fold(strings.TrimPrefix(parts[0], parts[0][:4]))
		query = ""
		if len(parts) > 1 {
			query = parts[1]
		}
	}

	var allowed map[int]bool
	if tagFilter != "" {
		allowed = make(map[int]bool)
		for _, tag := range DefaultAnalyzer.Analyze(tagFilter) {
			for _, p := range idx.terms[tag] {
				if p.Field == tagsField {
					allowed[p.Doc] = true
				}
			}
		}
		if len(allowed) == 0 {
			return nil
		}
	}

	parsed := ParseQuery(query)
	scores := make(map[int]float64)

	for _, term := range parsed.Terms {
		for expanded, weight := range idx.expand(term, opts.Prefix, maxDist) {
			postings := idx.terms[expanded]
			df := docFreq(postings)
			for _, p := range postings {
				if allowed != nil && !allowed[p.Doc] {
					continue
				}
				scores[p.Doc] += weight * Fields[p.Field].Boost * idx.bm25(p, df)
			}
		}
	}

	for _, phrase := range parsed.Phrases {
		for id := range scores {
			doc := &idx.docs[id]
			if strings.Contains(normalized(doc.Title), phrase) {
				scores[id] += ScorePhraseMatch * 2
			} else if strings.Contains(normalized(doc.Summary), phrase) {
				scores[id] += ScorePhraseMatch
			}
		}
	}

	// Tag-only queries list every tagged document.
	if len(parsed.Terms) == 0 && allowed != nil {
		for id := range allowed {
			scores[id] = 1.0
		}
	}

	results := make([]Result, 0, len(scores))
	for id, score := range scores {
		doc := idx.docs[id]
		results = append(results, Result{
			Document: doc,
			Snippet:  ExtractSnippet(doc.Summary, parsed.Terms),
			Score:    score,
		})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].URL < results[j].URL
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// expand maps a query term to the indexed terms it matches and their weights.
func (idx *Index) expand(term string, prefix bool, maxDist int) map[string]float64 {
	out := make(map[string]float64)
	if _, ok := idx.terms[term]; ok {
		out[term] = 1
	}
	if prefix {
		for _, t := range idx.withPrefix(term) {
			out[t] = ScorePrefixModifier
		}
	}
	if maxDist > 0 {
		for _, t := range FuzzyExpandWithNgrams(term, idx.ngrams, maxDist) {
			if _, seen := out[t]; !seen {
				out[t] = ScoreFuzzyModifier
			}
		}
	}
	return out
}

// normalized folds s the way the analyzer does, keeping stop words.
func normalized(s string) string {
	return strings.Join(TokenizeWithUnicode(Fold(s)), " ")
}

// foldedText maps every byte of the folded content back to the rune it came from.
type foldedText struct {
	runes  []rune
	folded string
	origin []int
}

func foldRunes(runes []rune) foldedText {
	var sb strings.Builder
	origin := make([]int, 0, len(runes))
	for i, r := range runes {
		if r < utf8.RuneSelf {
			if 'A' <= r && r <= 'Z' {
				r += 'a' - 'A'
			}
			sb.WriteByte(byte(r))
			origin = append(origin, i)
			continue
		}
		f := Fold(string(r))
		sb.WriteString(f)
		for range len(f) {
			origin = append(origin, i)
		}
	}
	return foldedText{runes: runes, folded: sb.String(), origin: origin}
}

// span is a half-open range of rune indexes.
type span struct{ start, end int }

// matches returns every occurrence of terms, in rune positions, ordered by start.
func (ft foldedText) matches(terms []string) []span {
	var spans []span
	for _, term := range terms {
		if term == "" {
			continue
		}
		for off := 0; ; {
			i := strings.Index(ft.folded[off:], term)
			if i < 0 {
				break
			}
			from := off + i
			to := from + len(term)
			spans = append(spans, span{ft.origin[from], ft.origin[to-1] + 1})
			off = to
		}
	}
	sort.Slice(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return spans[i].end > spans[j].end
	})
	return spans
}

func head(runes []rune) string {
	if len(runes) > DefaultSnippetLength {
		return string(runes[:DefaultSnippetLength]) + "..."
	}
	return string(runes)
}

// ExtractSnippet returns a window of content around the first matched term
// with every term wrapped in <b>. Terms are matched against the folded
// content, so "cafe" highlights "Café".
func ExtractSnippet(content string, terms []string) string {
	runes := []rune(content)
	if len(runes) > MaxSnippetContentLength {
		runes = runes[:MaxSnippetContentLength]
	}
	if len(terms) == 0 {
		return head(runes)
	}

	spans := foldRunes(runes).matches(terms)
	if len(spans) == 0 {
		return head(runes)
	}

	first := spans[0].start
	start := max(first-SnippetContextBefore, 0)
	end := min(first+SnippetContextAfter, len(runes))

	var sb strings.Builder
	if start > 0 {
		sb.WriteString("...")
	}
	cursor := start
	for _, sp := range spans {
		if sp.start < cursor || sp.end > end {
			continue
		}
		sb.WriteString(string(runes[cursor:sp.start]))
		sb.WriteString("<b>")
		sb.WriteString(string(runes[sp.start:sp.end]))
		sb.WriteString("</b>")
		cursor = sp.end
	}
	sb.WriteString(string(runes[cursor:end]))
	if end < len(runes) {
		sb.WriteString("...")
	}
	return sb.String()
}
