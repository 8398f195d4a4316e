package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dgallion1/citeshield/internal/config"
	"github.com/dgallion1/citeshield/internal/metrics"
	"github.com/dgallion1/citeshield/internal/parser"
	"github.com/dgallion1/citeshield/internal/pipeline"
)

// Options carries the optional collaborators of a Server.
type Options struct {
	Metrics  *metrics.Metrics
	Latency  *metrics.LatencyStats
	Gatherer prometheus.Gatherer
}

// Server is the HTTP tool server for citeshield.
type Server struct {
	router chi.Router
	svc    *pipeline.Service
	loader parser.Loader
	opts   Options
	log    *slog.Logger
	cfg    config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(svc *pipeline.Service, opts Options, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		svc:    svc,
		loader: parser.Loader{PDFFallback: cfg.PDFFallbackPdftotext},
		opts:   opts,
		log:    log,
		cfg:    cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log, s.opts.Metrics))

	r.Get("/health", s.handleHealth)
	if s.opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/tools", s.handleListTools)
		r.Get("/stats/tools", s.handleToolStats)

		r.Post("/briefs", s.handleCreateBrief)
		r.Route("/briefs/{briefID}", func(r chi.Router) {
			r.Get("/", s.handleGetBrief)
			r.Delete("/", s.handleDeleteBrief)
			r.Get("/annotated", s.handleAnnotated)
			r.Get("/sections", s.handleListSections)
			r.Get("/sections/{index}", s.handleGetSection)
			r.Get("/search", s.handleSearch)
			r.Post("/tools/{tool}", s.handleInvokeTool)
			r.Get("/events", s.handleEvents)
			r.Put("/report", s.handlePutReport)
			r.Get("/report", s.handleGetReport)
		})
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
