package services

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/Kush-Singh-26/inkwell/builder/cache"
	"github.com/Kush-Singh-26/inkwell/builder/metrics"
)

// gitDateLayout matches `git log --format=%ai`.
const gitDateLayout = "2006-01-02 15:04:05 -0700"

// GitLogFunc returns the raw `git log -1 --format=%ai` output for path.
type GitLogFunc func(ctx context.Context, dir, path string) (string, error)

// GitLog runs git in dir.
func GitLog(ctx context.Context, dir, path string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "log", "-1", "--format=%ai", "--", path)
	cmd.Dir = dir
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", err
	}
	return out.String(), nil
}

// LastModifier resolves when a source file last changed according to git.
// Results are memoized per path and content fingerprint; lookups that fail
// fall back to the build time and are not memoized.
type LastModifier struct {
	Fs        afero.Fs
	RepoDir   string
	BuildTime time.Time
	Memo      *cache.Memo
	Git       GitLogFunc
	Logger    *slog.Logger
	Metrics   *metrics.BuildMetrics
}

func (m *LastModifier) LastModification(ctx context.Context, path string) time.Time {
	fallback := m.BuildTime
	if fallback.IsZero() {
		fallback = time.Now().UTC()
	}

	var fingerprint string
	if data, err := afero.ReadFile(m.Fs, path); err == nil {
		fingerprint = cache.Fingerprint(data)
		if t, ok := m.Memo.LastModification(path, fingerprint); ok {
			m.Metrics.IncrementCacheHit()
			return t
		}
	}
	m.Metrics.IncrementCacheMiss()

	git := m.Git
	if git == nil {
		git = GitLog
	}
	out, err := git(ctx, m.RepoDir, path)
	out = strings.TrimSpace(out)
	if err != nil || out == "" {
		m.logger().Debug("no git history, using build time", "path", path, "error", err)
		return fallback
	}
	t, err := time.Parse(gitDateLayout, out)
	if err != nil {
		m.logger().Debug("unparseable git date, using build time", "path", path, "value", out)
		return fallback
	}

	t = t.UTC()
	if fingerprint != "" {
		if err := m.Memo.SetLastModification(path, fingerprint, t); err != nil {
			m.logger().Warn("failed to memoize last modification", "path", path, "error", err)
		}
	}
	return t
}

func (m *LastModifier) logger() *slog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return slog.Default()
}
