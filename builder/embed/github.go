package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Kush-Singh-26/inkwell/builder/config"
)

const (
	GitHubBaseURL  = "https://github.com"
	GitHubEndpoint = "https://api.github.com/graphql"
)

const githubQuery = `query %[1]s($owner: String!, $repo: String!, $id: Int!) {
  repository(owner: $owner, name: $repo) {
    %[1]s(number: $id) {
      number
      url
      titleHTML
      createdAt
      author { login avatarUrl url }
    }
  }
}`

// GitHub embeds pull requests and issues through the GraphQL API.
type GitHub struct {
	Endpoint      string
	Token         string
	Client        *http.Client
	Logger        *slog.Logger
	FailurePolicy config.FetchPolicy
}

func NewGitHub(endpoint, token string, client *http.Client, policy config.FetchPolicy, logger *slog.Logger) *GitHub {
	if endpoint == "" {
		endpoint = GitHubEndpoint
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GitHub{Endpoint: endpoint, Token: token, Client: client, Logger: logger, FailurePolicy: policy}
}

func (g *GitHub) Name() string { return "github" }

func (g *GitHub) BaseURL() string { return GitHubBaseURL }

func (g *GitHub) Policy() config.FetchPolicy { return g.FailurePolicy }

// GitHubLink is a parsed pull request or issue URL.
type GitHubLink struct {
	Owner  string
	Repo   string
	Kind   Kind
	Number int
}

var errUnsupported = errors.New("unsupported github link")

// ParseGitHubLink reads owner/repo/{pull|issues}/number from the path.
// Trailing segments such as /files are ignored.
func ParseGitHubLink(raw string) (GitHubLink, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return GitHubLink{}, err
	}
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segs) < 4 {
		return GitHubLink{}, errUnsupported
	}
	link := GitHubLink{Owner: segs[0], Repo: segs[1]}
	switch segs[2] {
	case "pull":
		link.Kind = KindPullRequest
	case "issues":
		link.Kind = KindIssue
	default:
		return GitHubLink{}, fmt.Errorf("%w: type %q", errUnsupported, segs[2])
	}
	link.Number, err = strconv.Atoi(segs[3])
	if err != nil || link.Number <= 0 {
		return GitHubLink{}, fmt.Errorf("%w: number %q", errUnsupported, segs[3])
	}
	return link, nil
}

func (g *GitHub) Transform(_ context.Context, raw string) (Task, error) {
	link, err := ParseGitHubLink(raw)
	if err != nil {
		g.Logger.Info("unsupported github link, leaving as is", "url", raw, "reason", err)
		return nil, nil
	}
	return func(ctx context.Context) (*Embed, error) {
		return g.fetch(ctx, link, raw)
	}, nil
}

type githubAuthor struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatarUrl"`
	URL       string `json:"url"`
}

type githubItem struct {
	Number    int           `json:"number"`
	URL       string        `json:"url"`
	TitleHTML string        `json:"titleHTML"`
	CreatedAt time.Time     `json:"createdAt"`
	Author    *githubAuthor `json:"author"`
}

type githubResponse struct {
	Data struct {
		Repository *struct {
			PullRequest *githubItem `json:"pullRequest"`
			Issue       *githubItem `json:"issue"`
		} `json:"repository"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (g *GitHub) fetch(ctx context.Context, link GitHubLink, raw string) (*Embed, error) {
	if g.Token == "" {
		return nil, errors.New("GITHUB_TOKEN is not set")
	}
	field := "pullRequest"
	if link.Kind == KindIssue {
		field = "issue"
	}
	payload, err := json.Marshal(map[string]any{
		"query": fmt.Sprintf(githubQuery, field),
		"variables": map[string]any{
			"owner": link.Owner,
			"repo":  link.Repo,
			"id":    link.Number,
		},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, g.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+g.Token)
	req.Header.Set("Content-Type", "application/json")

	body, err := do(ctx, g.Client, req)
	if err != nil {
		return nil, err
	}

	var resp githubResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode github response: %w", err)
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("github: %s", resp.Errors[0].Message)
	}
	if resp.Data.Repository == nil {
		return nil, fmt.Errorf("github: repository %s/%s not found", link.Owner, link.Repo)
	}
	item := resp.Data.Repository.PullRequest
	if link.Kind == KindIssue {
		item = resp.Data.Repository.Issue
	}
	if item == nil {
		return nil, fmt.Errorf("github: %s #%d not found", link.Kind, link.Number)
	}

	e := &Embed{
		Kind:       link.Kind,
		URL:        item.URL,
		Number:     item.Number,
		TitleHTML:  item.TitleHTML,
		Title:      htmlText(item.TitleHTML),
		CreatedAt:  item.CreatedAt,
		Repository: Repository{Owner: link.Owner, Name: link.Repo},
	}
	if e.URL == "" {
		e.URL = raw
	}
	if item.Author != nil {
		e.Author = Author{Login: item.Author.Login, AvatarURL: item.Author.AvatarURL, URL: item.Author.URL}
	}
	return e, nil
}

// htmlText reduces an HTML fragment to its text.
func htmlText(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	return strings.TrimSpace(doc.Text())
}
