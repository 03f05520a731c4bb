// Package web serves a read-only JSON view of the finished lorebinder.
package web

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/ashrobertsdragon/lorebinder/internal/store"
)

//go:embed all:static
var staticFS embed.FS

// Server serves the lorebinder browser page and API.
type Server struct {
	Store *store.Store
	Addr  string
}

// ListenAndServe starts the HTTP server. The caller announces the
// address; nothing is printed here.
func (s *Server) ListenAndServe() error {
	mux, err := s.handler()
	if err != nil {
		return err
	}
	return http.ListenAndServe(s.Addr, mux)
}

func (s *Server) handler() (http.Handler, error) {
	mux := http.NewServeMux()

	// API endpoints
	mux.HandleFunc("/api/lorebinder", s.handleLorebinder)
	mux.HandleFunc("/api/chapters", s.handleChapters)
	mux.HandleFunc("/api/status", s.handleStatus)

	// Static files
	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("creating sub filesystem: %w", err)
	}
	mux.Handle("/", http.FileServer(http.FS(staticSub)))

	return mux, nil
}
