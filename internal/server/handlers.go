package server

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"

	"github.com/Kush-Singh-26/inkwell/builder/generators"
	"github.com/Kush-Singh-26/inkwell/builder/search"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// handleSearch answers /search?query=... with the ranked hits as JSON.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		http.Error(w, "Missing query parameter", http.StatusBadRequest)
		return
	}

	idx, err := s.searchIndex()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			writeJSON(w, http.StatusOK, []search.Result{})
			return
		}
		s.Logger.Error("load search index", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "search index unavailable"})
		return
	}

	results := idx.Search(query, s.searchOptions())
	if results == nil {
		results = []search.Result{}
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) searchOptions() search.Options {
	opts := search.Options{Prefix: true, Limit: s.cfg.Search.MaxResults}
	if s.cfg.Search.Fuzzy {
		opts.Fuzzy = s.cfg.Search.MaxEditDistance
	}
	return opts
}

// searchIndex returns the index, reloading it when the file on disk changed.
func (s *Server) searchIndex() (*search.Index, error) {
	path := s.cfg.SearchIndexPath()
	info, err := s.Fs.Stat(path)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index != nil && info.ModTime().Equal(s.indexMod) {
		return s.index, nil
	}
	idx, err := search.Read(s.Fs, path)
	if err != nil {
		return nil, err
	}
	s.index, s.indexMod = idx, info.ModTime()
	return idx, nil
}

// handleSocialCard renders the card of one post as PNG.
func (s *Server) handleSocialCard(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	metas, err := generators.ReadSnapshot(s.Fs, s.cfg.SnapshotPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			writeJSON(w, http.StatusNotFound, errorBody{Error: "post not found"})
			return
		}
		s.Logger.Error("read snapshot", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "snapshot unavailable"})
		return
	}
	meta, err := generators.FindPost(metas, slug)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "post not found"})
		return
	}

	img, err := generators.SocialCard(meta, generators.CardOptions{
		SiteTitle: s.cfg.Title,
		Cover:     generators.LoadCover(s.Fs, s.cfg.PostsPublicDir, s.cfg.ResourcePath, meta.Image.URL),
	})
	if err != nil {
		s.Logger.Error("render social card", "slug", slug, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "render failed"})
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if err := generators.EncodePNG(w, img); err != nil {
		s.Logger.Warn("write social card", "slug", slug, "error", err)
	}
}
