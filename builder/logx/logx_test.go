package logx

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestPrettyHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelInfo, "pretty").With("slug", "hello").WithGroup("fetch")
	logger.Debug("hidden")
	logger.Warn("rich link degraded", "url", "https://github.com/a/b/pull/1")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug record printed at info level: %q", out)
	}
	for _, want := range []string{"[WARN]", "rich link degraded", "slug=hello", "fetch.url=https://github.com/a/b/pull/1"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("non-terminal writer got ANSI colors")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug, "WARN": slog.LevelWarn, "warning": slog.LevelWarn,
		"error": slog.LevelError, "": slog.LevelInfo, "bogus": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, slog.LevelDebug, "json").Debug("x", "k", 1)
	if !strings.Contains(buf.String(), `"k":1`) {
		t.Errorf("json output = %q", buf.String())
	}
}
