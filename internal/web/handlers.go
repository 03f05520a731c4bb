package web

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
)

func (s *Server) handleLorebinder(w http.ResponseWriter, r *http.Request) {
	binder, err := s.Store.ReadLorebinder()
	if errors.Is(err, sql.ErrNoRows) {
		http.Error(w, "lorebinder not built yet", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// category query param narrows the response to one category.
	if cat := r.URL.Query().Get("category"); cat != "" {
		entries, ok := binder[cat]
		if !ok {
			http.Error(w, "unknown category", http.StatusNotFound)
			return
		}
		writeJSON(w, entries)
		return
	}

	writeJSON(w, binder)
}

func (s *Server) handleChapters(w http.ResponseWriter, r *http.Request) {
	chapters, err := s.Store.ReadChapters()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// Titles only; bodies can be megabytes of prose.
	type chapterInfo struct {
		Index int    `json:"index"`
		Title string `json:"title"`
	}
	infos := make([]chapterInfo, len(chapters))
	for i, ch := range chapters {
		infos[i] = chapterInfo{Index: ch.Index, Title: ch.Title}
	}
	writeJSON(w, infos)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{
		"chapters":  s.Store.ChapterCount(),
		"extracted": s.Store.ExtractedCount(),
		"analyzed":  s.Store.AnalyzedCount(),
		"built":     s.Store.HasLorebinder(),
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	// Wildcard CORS — this is a local development tool, not a public API.
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if v == nil {
		w.Write([]byte("[]"))
		return
	}
	json.NewEncoder(w).Encode(v)
}
