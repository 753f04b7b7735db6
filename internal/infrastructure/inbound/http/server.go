package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sophialabs/visreg/internal/domain/progress"
	"github.com/sophialabs/visreg/internal/domain/report"
	"github.com/sophialabs/visreg/internal/domain/run"
	"github.com/sophialabs/visreg/internal/domain/scenario"
	"github.com/sophialabs/visreg/internal/infrastructure/ports"
	"github.com/sophialabs/visreg/internal/infrastructure/services"
	"github.com/sophialabs/visreg/internal/infrastructure/usecases"
)

const maxBodySize = 1 << 20 // 1 MB

// Deps bundles everything the server exposes over HTTP.
type Deps struct {
	Index      *services.ProjectIndex
	RunUC      *usecases.RunTestsUseCase
	ApproveUC  *usecases.ApproveUseCase
	LoadUC     *usecases.LoadProjectsUseCase
	References ports.ReferenceTracker
	Reports    ports.ReportStore
	Renderer   ReportRenderer
	Bus        *progress.Bus
	History    *progress.RingBuffer
	Logger     ports.Logger
}

// ReportRenderer produces the HTML view of a reconciled report.
type ReportRenderer interface {
	Render(projectName string, rep *report.Report) ([]byte, error)
}

// Server is the dashboard HTTP server.
type Server struct {
	router     *chi.Mux
	index      *services.ProjectIndex
	runUC      *usecases.RunTestsUseCase
	approveUC  *usecases.ApproveUseCase
	loadUC     *usecases.LoadProjectsUseCase
	references ports.ReferenceTracker
	reports    ports.ReportStore
	renderer   ReportRenderer
	bus        *progress.Bus
	history    *progress.RingBuffer
	logger     ports.Logger
}

// NewServer creates a new Server with all routes registered.
func NewServer(d Deps) *Server {
	s := &Server{
		index:      d.Index,
		runUC:      d.RunUC,
		approveUC:  d.ApproveUC,
		loadUC:     d.LoadUC,
		references: d.References,
		reports:    d.Reports,
		renderer:   d.Renderer,
		bus:        d.Bus,
		history:    d.History,
		logger:     d.Logger,
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Post("/reload", s.handleReload)
		r.Get("/events/recent", s.handleRecentEvents)

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", s.handleListProjects)
			r.Route("/{projectID}", func(r chi.Router) {
				r.Get("/", s.handleGetProject)
				r.Post("/test", s.handleRunTests)
				r.Post("/approve", s.handleApprove)
				r.Get("/test-results", s.handleTestResults)
				r.Get("/test-results/query", s.handleQueryTestResults)
				r.Get("/report", s.handleHTMLReport)
				r.Get("/references/status", s.handleReferenceStatus)
			})
		})
	})

	r.Get("/ws", s.handleWebSocket)

	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// runRequest is the body of POST /test and /approve.
type runRequest struct {
	Filter     []string `json:"filter"`
	FilterExpr string   `json:"filterExpr"`
}

// decodeFilter parses the optional request body into a run filter. An empty
// body means "run everything".
func decodeFilter(r *http.Request) (*scenario.Filter, error) {
	defer func() { _ = r.Body.Close() }()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, nil
	}

	var req runRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, err
	}
	return scenario.NewFilter(req.Filter, req.FilterExpr)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSONStatus(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListProjects(w http.ResponseWriter, _ *http.Request) {
	projects := s.index.All()
	summaries := make([]map[string]any, 0, len(projects))
	for _, p := range projects {
		summaries = append(summaries, map[string]any{
			"id":        p.ID,
			"name":      p.Name,
			"scenarios": len(p.Scenarios),
			"viewports": len(p.Viewports),
		})
	}
	writeJSONStatus(w, http.StatusOK, summaries)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	project, ok := s.index.Get(chi.URLParam(r, "projectID"))
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "unknown project")
		return
	}
	writeJSONStatus(w, http.StatusOK, project)
}

func (s *Server) handleRunTests(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")

	filter, err := decodeFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_filter", err.Error())
		return
	}

	rep, err := s.runUC.Execute(r.Context(), projectID, filter)
	switch {
	case errors.Is(err, run.ErrRunInProgress):
		writeError(w, http.StatusConflict, "run_in_progress", err.Error())
		return
	case errors.Is(err, scenario.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "unknown project: "+projectID)
		return
	case err != nil:
		s.logger.Error("test run failed", "project", projectID, "error", err)
		writeError(w, http.StatusInternalServerError, "run_failed", err.Error())
		return
	}

	writeJSONStatus(w, http.StatusOK, rep)
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")

	filter, err := decodeFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_filter", err.Error())
		return
	}

	promoted, err := s.approveUC.Execute(projectID, filter)
	switch {
	case errors.Is(err, run.ErrRunInProgress):
		writeError(w, http.StatusConflict, "run_in_progress", err.Error())
		return
	case errors.Is(err, scenario.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "unknown project: "+projectID)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "approve_failed", err.Error())
		return
	}

	writeJSONStatus(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"promoted": promoted,
	})
}

func (s *Server) handleTestResults(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")

	rep, err := s.reports.Load(r.Context(), projectID)
	if errors.Is(err, report.ErrNoReport) {
		writeError(w, http.StatusNotFound, "no_report", "no test results for project: "+projectID)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	writeJSONStatus(w, http.StatusOK, rep)
}

func (s *Server) handleQueryTestResults(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, http.StatusBadRequest, "missing_path", "query parameter 'path' is required")
		return
	}

	rep, err := s.reports.Load(r.Context(), projectID)
	if errors.Is(err, report.ErrNoReport) {
		writeError(w, http.StatusNotFound, "no_report", "no test results for project: "+projectID)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}

	result, err := services.QueryReport(rep, path)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_query", err.Error())
		return
	}
	writeJSONStatus(w, http.StatusOK, map[string]any{
		"path":   path,
		"result": result,
	})
}

func (s *Server) handleHTMLReport(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")

	project, ok := s.index.Get(projectID)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "unknown project: "+projectID)
		return
	}
	rep, err := s.reports.Load(r.Context(), projectID)
	if errors.Is(err, report.ErrNoReport) {
		writeError(w, http.StatusNotFound, "no_report", "no test results for project: "+projectID)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}

	html, err := s.renderer.Render(project.Name, rep)
	if err != nil {
		s.logger.Error("report render failed", "project", projectID, "error", err)
		writeError(w, http.StatusInternalServerError, "render_failed", err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(html)
}

func (s *Server) handleReferenceStatus(w http.ResponseWriter, r *http.Request) {
	project, ok := s.index.Get(chi.URLParam(r, "projectID"))
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "unknown project")
		return
	}
	writeJSONStatus(w, http.StatusOK, s.references.ProjectStatus(project))
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.loadUC.Execute(r.Context()); err != nil {
		s.logger.Error("reload failed", "error", err)
		writeError(w, http.StatusInternalServerError, "reload_failed", "project reload failed, check server logs")
		return
	}
	writeJSONStatus(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "projects reloaded",
	})
}

func (s *Server) handleRecentEvents(w http.ResponseWriter, r *http.Request) {
	n := 10
	if lastParam := r.URL.Query().Get("last"); lastParam != "" {
		if parsed, err := strconv.Atoi(lastParam); err == nil && parsed > 0 {
			n = parsed
		}
	}
	events := s.history.Last(n)
	if events == nil {
		events = []progress.Event{}
	}
	writeJSONStatus(w, http.StatusOK, events)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSONStatus(w, status, map[string]string{
		"error":   code,
		"message": message,
	})
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
