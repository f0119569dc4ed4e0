// Package server exposes the catalog and executor over HTTP: tool
// discovery under GET and batch call execution under POST, matching the
// three semantic endpoints external agent frameworks expect.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dreadnode/robopages-go/internal/catalog"
	"github.com/dreadnode/robopages-go/internal/executor"
	"github.com/dreadnode/robopages-go/internal/flavor"
)

// Server wires a catalog and an executor behind the HTTP surface.
type Server struct {
	Catalog  *catalog.Catalog
	Executor *executor.Executor
}

// New constructs a Server.
func New(cat *catalog.Catalog, ex *executor.Executor) *Server {
	return &Server{Catalog: cat, Executor: ex}
}

// Handler builds the net/http.ServeMux backing this server, with CORS
// headers applied to every response.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/process", s.handleProcess)
	mux.HandleFunc("/", s.handleCatalog)
	return withCORS(mux)
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleCatalog serves both "GET /" and "GET /<filter>": the path, minus
// its leading slash, is a substring filter applied per request to the
// loaded catalog's page paths (see filterCatalog), and the "flavor" query
// parameter selects the projection.
func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	f, err := flavor.Parse(r.URL.Query().Get("flavor"))
	if err != nil {
		writeJSONError(w, err, http.StatusBadRequest)
		return
	}

	filtered := s.Catalog
	if path := strings.TrimPrefix(r.URL.Path, "/"); path != "" {
		filtered = filterCatalog(s.Catalog, path)
	}

	rendered, err := flavor.RenderAsTools(filtered, f)
	if err != nil {
		writeJSONError(w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, rendered)
}

// filterCatalog narrows an already-loaded catalog to pages whose path
// contains substr, reusing the same substring semantics as catalog.Load's
// discovery filter.
func filterCatalog(cat *catalog.Catalog, substr string) *catalog.Catalog {
	var kept []catalog.PageEntry
	for _, entry := range cat.Pages() {
		if strings.Contains(entry.Path, substr) {
			kept = append(kept, entry)
		}
	}
	return catalog.NewFromPages(kept)
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var calls []flavor.Call
	if err := json.NewDecoder(r.Body).Decode(&calls); err != nil {
		writeJSONError(w, err, http.StatusBadRequest)
		return
	}

	results, err := s.Executor.Run(r.Context(), calls)
	if err != nil {
		slog.ErrorContext(r.Context(), "batch execution failed", "error", err)
		writeJSONError(w, err, http.StatusBadRequest)
		return
	}

	writeJSON(w, results)
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("encoding json response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, err error, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if encErr := json.NewEncoder(w).Encode(map[string]string{"error": err.Error()}); encErr != nil {
		slog.Error("encoding json error response", "error", encErr)
	}
}
