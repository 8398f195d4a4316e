package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/citeshield/internal/chunker"
	"github.com/dgallion1/citeshield/internal/document"
	"github.com/dgallion1/citeshield/internal/parser"
	"github.com/dgallion1/citeshield/internal/pipeline"
	"github.com/dgallion1/citeshield/internal/report"
)

type createBriefRequest struct {
	Name     string `json:"name"`
	Text     string `json:"text"`
	MaxLines *int   `json:"max_lines"`
	Overlap  *int   `json:"overlap"`
}

func (s *Server) handleCreateBrief(w http.ResponseWriter, r *http.Request) {
	// Extra 1MB for form overhead.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var (
		doc *document.Document
		cfg chunker.Config
		err error
	)
	if mediaType == "multipart/form-data" {
		doc, cfg, err = s.briefFromForm(r)
	} else {
		doc, cfg, err = s.briefFromJSON(r)
	}
	if err != nil {
		code := statusFor(err)
		if code == http.StatusInternalServerError {
			code = http.StatusBadRequest
		}
		jsonError(w, err.Error(), code)
		return
	}

	sess, err := s.svc.Open(doc, cfg)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, briefResponse(sess))
}

func (s *Server) briefFromForm(r *http.Request) (*document.Document, chunker.Config, error) {
	cfg := s.svc.DefaultChunkConfig()
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return nil, cfg, fmt.Errorf("invalid multipart form: %w", err)
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, cfg, fmt.Errorf("file is required: %w", err)
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if name := r.FormValue("name"); name != "" {
		filename = sanitizeFilename(name)
	}
	if !parser.IsSupportedExtension(filename) {
		return nil, cfg, fmt.Errorf("unsupported file type: %s", filepath.Ext(filename))
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, cfg, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, cfg, &http.MaxBytesError{Limit: s.cfg.MaxUploadBytes}
	}

	if cfg.MaxLines, err = formInt(r, "max_lines", cfg.MaxLines); err != nil {
		return nil, cfg, err
	}
	if cfg.Overlap, err = formInt(r, "overlap", cfg.Overlap); err != nil {
		return nil, cfg, err
	}

	p, err := s.loader.ForFile(filename)
	if err != nil {
		return nil, cfg, err
	}
	doc, err := p.Parse(bytes.NewReader(data), filename)
	if err != nil {
		return nil, cfg, fmt.Errorf("load %s: %w", filename, err)
	}
	return doc, cfg, nil
}

func (s *Server) briefFromJSON(r *http.Request) (*document.Document, chunker.Config, error) {
	cfg := s.svc.DefaultChunkConfig()
	var req createBriefRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, cfg, err
		}
		return nil, cfg, fmt.Errorf("invalid request body: %w", err)
	}
	if req.MaxLines != nil {
		cfg.MaxLines = *req.MaxLines
	}
	if req.Overlap != nil {
		cfg.Overlap = *req.Overlap
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "stdin"
	}
	name = sanitizeFilename(name)
	return &document.Document{
		Name:   name,
		Title:  strings.TrimSuffix(name, filepath.Ext(name)),
		Format: "text",
		Text:   req.Text,
	}, cfg, nil
}

func formInt(r *http.Request, key string, fallback int) (int, error) {
	v := r.FormValue(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", chunker.ErrInvalidParameter, key)
	}
	return n, nil
}

func briefResponse(sess *pipeline.Session) map[string]any {
	return map[string]any{
		"brief":    sess.Snapshot(),
		"overview": sess.Directory.Overview(),
	}
}

// session resolves the {briefID} URL parameter, writing a 404 when absent.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*pipeline.Session, bool) {
	sess, err := s.svc.Get(chi.URLParam(r, "briefID"))
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return sess, true
}

func (s *Server) handleGetBrief(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, briefResponse(sess))
}

func (s *Server) handleDeleteBrief(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Delete(chi.URLParam(r, "briefID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAnnotated(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, sess.Annotated)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	since, err := queryInt(r, "since", 0)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	events := sess.Events.Events(since)
	next := since
	if len(events) > 0 {
		next = events[len(events)-1].Seq
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events, "next": next})
}

func (s *Server) handlePutReport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, 4<<20)
	var rep report.Report
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&rep); err != nil {
		jsonError(w, "invalid report body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := sess.SetReport(&rep); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"brief": sess.Snapshot()})
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	rep := sess.Report()
	if rep == nil {
		jsonError(w, "no report has been submitted", http.StatusNotFound)
		return
	}

	base := report.DefaultBasename(rep.DocumentName)
	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		writeJSON(w, http.StatusOK, rep)
	case "html":
		out, err := report.HTML(rep)
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, out)
	case "csv":
		out, err := report.CSV(rep)
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, base))
		io.WriteString(w, out)
	default:
		jsonError(w, fmt.Sprintf("unsupported format %q: use json, html or csv", format), http.StatusBadRequest)
	}
}
