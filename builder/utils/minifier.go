package utils

import (
	"regexp"
	"sync"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"github.com/tdewolff/minify/v2/json"
	"github.com/tdewolff/minify/v2/svg"
	"github.com/tdewolff/minify/v2/xml"
)

var (
	minifier     *minify.M
	minifierOnce sync.Once
)

// Minifier returns the shared minifier for HTML, SVG, XML and JSON output.
func Minifier() *minify.M {
	minifierOnce.Do(func() {
		m := minify.New()
		m.Add("text/html", &html.Minifier{
			KeepDocumentTags: true,
			KeepEndTags:      true,
			KeepQuotes:       true,
		})
		m.AddFunc("text/css", css.Minify)
		m.AddFunc("image/svg+xml", svg.Minify)
		m.AddFuncRegexp(regexp.MustCompile("^(application|text)/(x-)?(java|ecma)script$"), js.Minify)
		m.AddFuncRegexp(regexp.MustCompile("[/+]json$"), json.Minify)
		m.AddFuncRegexp(regexp.MustCompile("[/+]xml$"), xml.Minify)
		minifier = m
	})
	return minifier
}

// MinifyBytes minifies data for mediatype, returning the input unchanged on failure.
func MinifyBytes(mediatype string, data []byte) []byte {
	out, err := Minifier().Bytes(mediatype, data)
	if err != nil {
		return data
	}
	return out
}
