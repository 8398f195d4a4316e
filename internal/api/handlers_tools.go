package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/citeshield/internal/sections"
	"github.com/dgallion1/citeshield/internal/tools"
)

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tools": tools.Definitions()})
}

func (s *Server) handleToolStats(w http.ResponseWriter, r *http.Request) {
	if s.opts.Latency == nil {
		jsonError(w, "tool stats unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sessions": s.svc.Len(),
		"tools":    s.opts.Latency.Snapshot(),
	})
}

func (s *Server) handleListSections(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	start, err := queryInt(r, "start", 0)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	limit, err := queryInt(r, "limit", sections.DefaultListLimit)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	out, err := sess.Tools.List(start, limit)
	writeToolResult(w, tools.ListSections, out, err)
}

func (s *Server) handleGetSection(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		jsonError(w, "section index must be an integer", http.StatusBadRequest)
		return
	}
	out, err := sess.Tools.Get(index)
	writeToolResult(w, tools.GetSection, out, err)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	limit, err := queryInt(r, "limit", sections.DefaultSearchLimit)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	out, err := sess.Tools.Search(r.URL.Query().Get("q"), limit)
	writeToolResult(w, tools.SearchSections, out, err)
}

func (s *Server) handleInvokeTool(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		writeError(w, err)
		return
	}
	name := chi.URLParam(r, "tool")
	out, err := sess.Tools.Invoke(name, json.RawMessage(body))
	writeToolResult(w, name, out, err)
}

func writeToolResult(w http.ResponseWriter, name, out string, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"tool": name, "output": out})
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}
