package embed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/Kush-Singh-26/inkwell/builder/config"
	"github.com/Kush-Singh-26/inkwell/builder/utils"
)

const (
	MicroblogBaseURL     = "https://twitter.com"
	MicroblogSyndication = "https://cdn.syndication.twimg.com"
)

// Microblog embeds single posts via the public syndication endpoint. Fetched
// posts are archived under ArchiveDir and read from there afterwards.
type Microblog struct {
	Base          string
	Syndication   string
	Archive       afero.Fs
	ArchiveDir    string
	Client        *http.Client
	Logger        *slog.Logger
	FailurePolicy config.FetchPolicy
}

func NewMicroblog(base, syndication string, archive afero.Fs, archiveDir string, client *http.Client, policy config.FetchPolicy, logger *slog.Logger) *Microblog {
	if base == "" {
		base = MicroblogBaseURL
	}
	if syndication == "" {
		syndication = MicroblogSyndication
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Microblog{
		Base:          strings.TrimSuffix(base, "/"),
		Syndication:   strings.TrimSuffix(syndication, "/"),
		Archive:       archive,
		ArchiveDir:    archiveDir,
		Client:        client,
		Logger:        logger,
		FailurePolicy: policy,
	}
}

func (m *Microblog) Name() string { return "microblog" }

func (m *Microblog) BaseURL() string { return m.Base }

func (m *Microblog) Policy() config.FetchPolicy { return m.FailurePolicy }

// PostID returns the trailing path segment of a post URL.
func PostID(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	p := strings.TrimSuffix(u.Path, "/")
	return p[strings.LastIndex(p, "/")+1:]
}

func (m *Microblog) Transform(_ context.Context, raw string) (Task, error) {
	id := PostID(raw)
	token, err := SyndicationToken(id)
	if err != nil {
		m.Logger.Info("not a post link, leaving as is", "url", raw)
		return nil, nil
	}
	return func(ctx context.Context) (*Embed, error) {
		p, err := m.load(ctx, id, token)
		if err != nil {
			return nil, err
		}
		return p.embed(m.Base), nil
	}, nil
}

type microblogUser struct {
	Name                 string `json:"name"`
	ScreenName           string `json:"screen_name"`
	ProfileImageURLHTTPS string `json:"profile_image_url_https"`
}

type microblogPost struct {
	IDStr     string        `json:"id_str"`
	Text      string        `json:"text"`
	CreatedAt time.Time     `json:"created_at"`
	User      microblogUser `json:"user"`
}

func (p *microblogPost) embed(base string) *Embed {
	return &Embed{
		Kind:      KindPost,
		ID:        p.IDStr,
		Text:      p.Text,
		CreatedAt: p.CreatedAt,
		URL:       fmt.Sprintf("%s/%s/status/%s", base, p.User.ScreenName, p.IDStr),
		Author: Author{
			Name:      p.User.Name,
			Username:  p.User.ScreenName,
			AvatarURL: p.User.ProfileImageURLHTTPS,
		},
	}
}

func (m *Microblog) archivePath(id string) string {
	return filepath.Join(m.ArchiveDir, id+".json")
}

func (m *Microblog) load(ctx context.Context, id, token string) (*microblogPost, error) {
	if m.Archive != nil {
		data, err := afero.ReadFile(m.Archive, m.archivePath(id))
		switch {
		case err == nil:
			var p microblogPost
			if err := json.Unmarshal(data, &p); err != nil {
				return nil, fmt.Errorf("decode archived post %s: %w", id, err)
			}
			return &p, nil
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("read archived post %s: %w", id, err)
		}
	}

	p, err := m.fetch(ctx, id, token)
	if err != nil {
		return nil, err
	}
	if m.Archive != nil {
		data, err := json.MarshalIndent(p, "", "  ")
		if err == nil {
			err = utils.WriteFileAtomic(m.Archive, m.archivePath(id), data)
		}
		if err != nil {
			m.Logger.Warn("failed to archive post", "id", id, "error", err)
		}
	}
	return p, nil
}

func (m *Microblog) fetch(ctx context.Context, id, token string) (*microblogPost, error) {
	q := url.Values{}
	q.Set("id", id)
	q.Set("token", token)
	req, err := http.NewRequest(http.MethodGet, m.Syndication+"/tweet-result?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	body, err := do(ctx, m.Client, req)
	if err != nil {
		return nil, fmt.Errorf("fetch post %s: %w", id, err)
	}
	var p microblogPost
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("decode post %s: %w", id, err)
	}
	if p.IDStr == "" {
		p.IDStr = id
	}
	return &p, nil
}
