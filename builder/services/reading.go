package services

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"
)

const wordsPerMinute = 200.0

var svgBlock = regexp.MustCompile(`(?s)<svg.+?</svg>`)

// ReadingTime estimates "N min read" for raw, ignoring inline SVG markup.
func ReadingTime(raw string) string {
	words := countWords(svgBlock.ReplaceAllString(raw, ""))
	minutes := int(math.Ceil(float64(words) / wordsPerMinute))
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("%d min read", minutes)
}

// countWords counts whitespace separated words; each CJK ideograph counts as one.
func countWords(s string) int {
	n := 0
	for _, field := range strings.Fields(s) {
		latin := false
		for _, r := range field {
			if unicode.Is(unicode.Han, r) || unicode.Is(unicode.Hiragana, r) || unicode.Is(unicode.Katakana, r) || unicode.Is(unicode.Hangul, r) {
				n++
				continue
			}
			if !latin && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
				latin = true
			}
		}
		if latin {
			n++
		}
	}
	return n
}
