// Package embed replaces paragraphs holding a single bare link with rich
// embeds fetched from the link's provider.
package embed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/Kush-Singh-26/inkwell/builder/config"
)

// ErrFetch marks every provider fetch failure.
var ErrFetch = errors.New("embed: fetch failed")

// Kind is the closed set of embed payloads.
type Kind int

const (
	KindPullRequest Kind = iota + 1
	KindIssue
	KindPost
)

func (k Kind) String() string {
	switch k {
	case KindPullRequest:
		return "pull-request"
	case KindIssue:
		return "issue"
	case KindPost:
		return "post"
	}
	return "unknown"
}

type Author struct {
	Login     string
	Name      string
	Username  string
	AvatarURL string
	URL       string
}

type Repository struct {
	Owner string
	Name  string
}

// Embed is the metadata fetched for one link.
type Embed struct {
	Kind       Kind
	URL        string
	CreatedAt  time.Time
	Author     Author
	Number     int
	Title      string
	TitleHTML  string
	Repository Repository
	ID         string
	Text       string
}

// Task performs the fetch for a matched link.
type Task func(ctx context.Context) (*Embed, error)

// Provider turns links under its base URL into fetch tasks. Transform returns
// a nil Task for links it recognizes but does not support.
type Provider interface {
	Name() string
	BaseURL() string
	Policy() config.FetchPolicy
	Transform(ctx context.Context, link string) (Task, error)
}

// FetchError is recorded for a failed fetch under the fail policy.
type FetchError struct {
	Provider string
	URL      string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("embed %s %s: %v", e.Provider, e.URL, e.Err)
}

func (e *FetchError) Unwrap() []error {
	return []error{ErrFetch, e.Err}
}

var (
	ctxKey    = parser.NewContextKey()
	errorsKey = parser.NewContextKey()
)

// WithContext attaches the build context used by fetch tasks.
func WithContext(pc parser.Context, ctx context.Context) {
	pc.Set(ctxKey, ctx)
}

func contextOf(pc parser.Context) context.Context {
	if ctx, ok := pc.Get(ctxKey).(context.Context); ok && ctx != nil {
		return ctx
	}
	return context.Background()
}

// Errors returns the fetch failures recorded while parsing, or nil.
func Errors(pc parser.Context) error {
	if errs, ok := pc.Get(errorsKey).([]error); ok {
		return errors.Join(errs...)
	}
	return nil
}

func addError(pc parser.Context, err error) {
	errs, _ := pc.Get(errorsKey).([]error)
	pc.Set(errorsKey, append(errs, err))
}

// Embedder is a goldmark AST transformer. Providers are tried in order.
type Embedder struct {
	providers []Provider
	logger    *slog.Logger
}

func New(logger *slog.Logger, providers ...Provider) *Embedder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Embedder{providers: providers, logger: logger}
}

// Match returns the first provider whose base URL prefixes link.
func (e *Embedder) Match(link string) Provider {
	for _, p := range e.providers {
		base := strings.TrimSuffix(p.BaseURL(), "/")
		if !strings.HasPrefix(link, base) {
			continue
		}
		if rest := link[len(base):]; rest == "" || rest[0] == '/' || rest[0] == '?' {
			return p
		}
	}
	return nil
}

var bareURL = regexp.MustCompile(`^(https?://)?[\w-]+(\.[\w-]+)+(:\d+)?(/\S*)?$`)

// Normalize prefixes https:// unless the link already starts with http and
// rejects strings without a host.
func Normalize(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if !strings.HasPrefix(raw, "http") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", false
	}
	return raw, true
}

// candidate returns the link held by a paragraph whose only child is a bare
// URL, an autolink, or a link whose text equals its destination.
func candidate(p *ast.Paragraph, source []byte) (string, bool) {
	if p.ChildCount() != 1 {
		return "", false
	}
	switch n := p.FirstChild().(type) {
	case *ast.Text:
		s := strings.TrimSpace(string(n.Segment.Value(source)))
		if !bareURL.MatchString(s) {
			return "", false
		}
		return s, true
	case *ast.AutoLink:
		if n.AutoLinkType != ast.AutoLinkURL {
			return "", false
		}
		return string(n.URL(source)), true
	case *ast.Link:
		if len(n.Title) > 0 || n.ChildCount() != 1 {
			return "", false
		}
		t, ok := n.FirstChild().(*ast.Text)
		if !ok || string(t.Segment.Value(source)) != string(n.Destination) {
			return "", false
		}
		return string(n.Destination), true
	}
	return "", false
}

type pending struct {
	para     *ast.Paragraph
	provider Provider
	url      string
	task     Task
	result   *Embed
	err      error
}

func (e *Embedder) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	ctx := contextOf(pc)
	source := reader.Source()

	var jobs []*pending
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		p, ok := n.(*ast.Paragraph)
		if !ok {
			return ast.WalkContinue, nil
		}
		if raw, ok := candidate(p, source); ok {
			if link, ok := Normalize(raw); ok {
				if provider := e.Match(link); provider != nil {
					jobs = append(jobs, &pending{para: p, provider: provider, url: link})
				}
			}
		}
		return ast.WalkSkipChildren, nil
	})

	var wg sync.WaitGroup
	for _, j := range jobs {
		task, err := j.provider.Transform(ctx, j.url)
		if err != nil {
			j.err = err
			continue
		}
		if task == nil {
			continue
		}
		j.task = task
		wg.Add(1)
		go func(j *pending) {
			defer wg.Done()
			j.result, j.err = j.task(ctx)
		}(j)
	}
	wg.Wait()

	for _, j := range jobs {
		switch {
		case j.err != nil:
			e.fail(pc, j)
		case j.result != nil:
			node := NewNode(j.result)
			parent := j.para.Parent()
			parent.ReplaceChild(parent, j.para, node)
		}
	}
}

func (e *Embedder) fail(pc parser.Context, j *pending) {
	if j.provider.Policy() == config.PolicyDegrade {
		e.logger.Warn("embed fetch failed, keeping plain link",
			"provider", j.provider.Name(), "url", j.url, "error", j.err)
		return
	}
	addError(pc, &FetchError{Provider: j.provider.Name(), URL: j.url, Err: j.err})
}
