// Package search builds the fielded full-text index shipped with the site
// and answers queries against it.
package search

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/Kush-Singh-26/inkwell/builder/models"
)

// ErrEmptyCorpus is returned when there is nothing to index.
var ErrEmptyCorpus = errors.New("search: empty corpus")

// indexVersion is bumped whenever the serialized layout changes.
const indexVersion = 2

// BM25 parameters
const (
	k1 = 1.2
	b  = 0.75
)

// Field is an indexed field and its boost.
type Field struct {
	Name  string  `json:"name"`
	Boost float64 `json:"boost"`
}

// Fields lists the indexed fields in posting order.
var Fields = []Field{
	{Name: "title", Boost: 1.6},
	{Name: "summary", Boost: 1.2},
	{Name: "content", Boost: 1.0},
	{Name: "tags", Boost: 1.8},
}

const (
	titleField = 0
	tagsField  = 3
)

// Document holds the stored fields returned with every hit.
type Document struct {
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	Date        time.Time `json:"date"`
	ReadingTime string    `json:"readingTime"`
	Image       string    `json:"image"`
}

// Posting records how often a term occurs in one field of one document.
type Posting struct {
	Doc   int `json:"d"`
	Field int `json:"f"`
	Freq  int `json:"n"`
}

// Index is an immutable search index. Build it with Build or Load.
type Index struct {
	docs      []Document
	terms     map[string][]Posting
	lengths   [][]int
	avgLength []float64
	ngrams    map[string][]string
	sorted    []string
}

type indexJSON struct {
	Version   int                  `json:"version"`
	Fields    []Field              `json:"fields"`
	Documents []Document           `json:"documents"`
	Lengths   [][]int              `json:"lengths"`
	Terms     map[string][]Posting `json:"terms"`
}

// Build indexes docs. An empty corpus yields ErrEmptyCorpus.
func Build(docs []*models.EnrichedDocument) (*Index, error) {
	if len(docs) == 0 {
		return nil, ErrEmptyCorpus
	}

	idx := &Index{
		docs:    make([]Document, len(docs)),
		terms:   make(map[string][]Posting, len(docs)*100),
		lengths: make([][]int, len(docs)),
	}
	for i, d := range docs {
		idx.docs[i] = Document{
			URL:         d.URL(),
			Title:       d.Title,
			Summary:     d.Summary,
			Date:        d.Date,
			ReadingTime: d.ReadingTime,
			Image:       d.Image.URL,
		}

		values := []string{d.Title, d.Summary, d.Text, strings.Join(d.Tags, " ")}
		idx.lengths[i] = make([]int, len(Fields))
		for f, value := range values {
			analyzer := DefaultAnalyzer
			if f == titleField {
				analyzer = TitleAnalyzer
			}
			tokens := analyzer.Analyze(value)
			idx.lengths[i][f] = len(tokens)

			freqs := make(map[string]int, len(tokens))
			for _, tok := range tokens {
				freqs[tok]++
			}
			for term, n := range freqs {
				idx.terms[term] = append(idx.terms[term], Posting{Doc: i, Field: f, Freq: n})
			}
		}
	}
	for _, postings := range idx.terms {
		sort.Slice(postings, func(a, b int) bool {
			if postings[a].Doc != postings[b].Doc {
				return postings[a].Doc < postings[b].Doc
			}
			return postings[a].Field < postings[b].Field
		})
	}

	idx.prepare()
	return idx, nil
}

// Load decodes an index written by MarshalJSON.
func Load(data []byte) (*Index, error) {
	var raw indexJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode search index: %w", err)
	}
	if raw.Version != indexVersion {
		return nil, fmt.Errorf("search index version %d, want %d", raw.Version, indexVersion)
	}
	if len(raw.Fields) != len(Fields) || len(raw.Lengths) != len(raw.Documents) {
		return nil, errors.New("search index: field layout mismatch")
	}
	idx := &Index{docs: raw.Documents, terms: raw.Terms, lengths: raw.Lengths}
	if idx.terms == nil {
		idx.terms = map[string][]Posting{}
	}
	for term, postings := range idx.terms {
		for _, p := range postings {
			if p.Doc < 0 || p.Doc >= len(idx.docs) || p.Field < 0 || p.Field >= len(Fields) {
				return nil, fmt.Errorf("search index: bad posting for %q", term)
			}
		}
	}
	idx.prepare()
	return idx, nil
}

// prepare derives the lookup tables that are not serialized.
func (idx *Index) prepare() {
	idx.avgLength = make([]float64, len(Fields))
	for _, lens := range idx.lengths {
		for f, n := range lens {
			idx.avgLength[f] += float64(n)
		}
	}
	for f := range idx.avgLength {
		idx.avgLength[f] /= float64(len(idx.docs))
		if idx.avgLength[f] == 0 {
			idx.avgLength[f] = 1
		}
	}

	idx.sorted = make([]string, 0, len(idx.terms))
	for term := range idx.terms {
		idx.sorted = append(idx.sorted, term)
	}
	sort.Strings(idx.sorted)
	idx.ngrams = BuildNgramIndex(idx.terms)
}

// Len is the number of indexed documents.
func (idx *Index) Len() int {
	return len(idx.docs)
}

func (idx *Index) MarshalJSON() ([]byte, error) {
	return json.Marshal(indexJSON{
		Version:   indexVersion,
		Fields:    Fields,
		Documents: idx.docs,
		Lengths:   idx.lengths,
		Terms:     idx.terms,
	})
}

// withPrefix returns indexed terms starting with prefix, excluding prefix itself.
func (idx *Index) withPrefix(prefix string) []string {
	i := sort.SearchStrings(idx.sorted, prefix)
	var out []string
	for ; i < len(idx.sorted) && strings.HasPrefix(idx.sorted[i], prefix); i++ {
		if idx.sorted[i] != prefix {
			out = append(out, idx.sorted[i])
		}
	}
	return out
}

// bm25 scores one posting.
func (idx *Index) bm25(p Posting, df int) float64 {
	n := float64(len(idx.docs))
	idf := math.Log(1 + (n-float64(df)+0.5)/(float64(df)+0.5))
	tf := float64(p.Freq)
	fieldLen := float64(idx.lengths[p.Doc][p.Field])
	return idf * (tf * (k1 + 1)) / (tf + k1*(1-b+b*(fieldLen/idx.avgLength[p.Field])))
}

// docFreq counts distinct documents in postings.
func docFreq(postings []Posting) int {
	n, last := 0, -1
	for _, p := range postings {
		if p.Doc != last {
			n++
			last = p.Doc
		}
	}
	return n
}
