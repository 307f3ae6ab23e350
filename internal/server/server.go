// Package server delivers the export pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ha1tch/designdoc/internal/logging"
	"github.com/ha1tch/designdoc/pkg/design"
	"github.com/ha1tch/designdoc/pkg/designfile"
	"github.com/ha1tch/designdoc/pkg/diagram"
	"github.com/ha1tch/designdoc/pkg/docx"
	"github.com/ha1tch/designdoc/pkg/pipeline"
)

// MaxBodyBytes bounds request bodies.
const MaxBodyBytes = 4 << 20

// Response headers describing an export and where it stands in the
// workspace.
const (
	HeaderDiagramStatus = "X-Diagram-Status"
	HeaderDiagramError  = "X-Diagram-Error"
	HeaderSuperseded    = "X-Superseded"
	HeaderTicket        = "X-Ticket"
)

// Server holds what the handlers need. Pipeline must be set; a nil
// Gatherer disables /metrics. A non-nil Workspace records what /api/yaml
// and /api/export produce and serves the latest of it under /api/last.
type Server struct {
	Pipeline  *pipeline.Pipeline
	Workspace *pipeline.Workspace
	Gatherer  prometheus.Gatherer
	Logger    *slog.Logger
}

// NewHandler returns the HTTP routes for s.
func NewHandler(s *Server) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)
	if s.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/yaml", s.yaml)
		r.Post("/dot", s.dot)
		r.Post("/diagram", s.diagram)
		r.Post("/export", s.export)
		if s.Workspace != nil {
			r.Get("/last", s.last)
			r.Get("/last/docx", s.lastDocument)
		}
	})
	return r
}

func (s *Server) log() *slog.Logger {
	if s.Logger == nil {
		return logging.NewNop()
	}
	return s.Logger
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log().Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

type errorBody struct {
	Error string `json:"error"`
	Line  int    `json:"line,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log().Error("encode response", "error", err)
	}
}

// fail maps a pipeline error to a status code and writes it.
func (s *Server) fail(w http.ResponseWriter, err error) {
	body := errorBody{Error: err.Error()}
	status := http.StatusInternalServerError

	var (
		perr *designfile.ParseError
		rerr *diagram.RenderError
		xerr *diagram.RasterError
		berr *http.MaxBytesError
	)
	switch {
	case errors.As(err, &berr):
		status = http.StatusRequestEntityTooLarge
	case errors.As(err, &perr):
		status = http.StatusBadRequest
		body.Line = perr.Line
	case errors.As(err, &rerr) && rerr.Unavailable:
		status = http.StatusServiceUnavailable
	case errors.As(err, &rerr), errors.As(err, &xerr):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	}
	if status >= http.StatusInternalServerError {
		s.log().Error("request failed", "status", status, "error", err)
	}
	s.writeJSON(w, status, body)
}

func readText(r *http.Request, w http.ResponseWriter) (string, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(data), nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// yaml turns a JSON form into canonical text.
func (s *Server) yaml(w http.ResponseWriter, r *http.Request) {
	var form map[string]any
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(&form); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: fmt.Sprintf("invalid form: %v", err)})
		return
	}
	doc, err := design.FromForm(form)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	text, err := s.generate(w, doc)
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	io.WriteString(w, text)
}

func (s *Server) parse(w http.ResponseWriter, r *http.Request) (design.Document, bool) {
	text, err := readText(r, w)
	if err == nil {
		var doc design.Document
		if doc, err = designfile.Deserialize(text); err == nil {
			return doc.Trimmed(), true
		}
	}
	s.fail(w, err)
	return design.Document{}, false
}

func (s *Server) dot(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.parse(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz")
	io.WriteString(w, string(diagram.BuildGraph(doc.Transitions)))
}

func (s *Server) diagram(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.parse(w, r)
	if !ok {
		return
	}
	if !doc.HasTransitions() {
		s.writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "the state table is empty"})
		return
	}
	bm, err := s.Pipeline.Diagram(r.Context(), diagram.BuildGraph(doc.Transitions))
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(bm.PNG)
}

func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	text, err := readText(r, w)
	if err != nil {
		s.fail(w, err)
		return
	}
	res, err := s.runExport(w, r, text)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeDocument(w, res)
}

// generate serializes doc, through the workspace when there is one. A
// superseded run still answers its own request.
func (s *Server) generate(w http.ResponseWriter, doc design.Document) (string, error) {
	if s.Workspace == nil {
		return s.Pipeline.Generate(doc)
	}
	text, err := s.Workspace.Generate(s.Pipeline, doc)
	if errors.Is(err, pipeline.ErrSuperseded) {
		w.Header().Set(HeaderSuperseded, "true")
		err = nil
	}
	return text, err
}

func (s *Server) runExport(w http.ResponseWriter, r *http.Request, text string) (*pipeline.Result, error) {
	if s.Workspace == nil {
		return s.Pipeline.Export(r.Context(), text)
	}
	res, err := s.Workspace.Export(r.Context(), s.Pipeline, text)
	if errors.Is(err, pipeline.ErrSuperseded) {
		w.Header().Set(HeaderSuperseded, "true")
		err = nil
	}
	return res, err
}

// last returns the canonical text most recently published.
func (s *Server) last(w http.ResponseWriter, r *http.Request) {
	snap := s.Workspace.Snapshot()
	if snap.Ticket == 0 {
		s.writeJSON(w, http.StatusNotFound, errorBody{Error: "nothing has been published yet"})
		return
	}
	w.Header().Set(HeaderTicket, strconv.FormatUint(snap.Ticket, 10))
	w.Header().Set("Content-Type", "application/yaml")
	io.WriteString(w, snap.Canonical)
}

// lastDocument returns the document of the most recently published export.
func (s *Server) lastDocument(w http.ResponseWriter, r *http.Request) {
	snap := s.Workspace.Snapshot()
	if snap.Last == nil {
		s.writeJSON(w, http.StatusNotFound, errorBody{Error: "no export has been published yet"})
		return
	}
	w.Header().Set(HeaderTicket, strconv.FormatUint(snap.Ticket, 10))
	s.writeDocument(w, snap.Last)
}

func (s *Server) writeDocument(w http.ResponseWriter, res *pipeline.Result) {
	h := w.Header()
	h.Set("Content-Type", docx.MediaType)
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Output.Name))
	h.Set(HeaderDiagramStatus, res.Diagram.String())
	if res.Diagram == pipeline.DiagramOmitted && res.DiagramErr != nil {
		h.Set(HeaderDiagramError, headerValue(res.DiagramErr.Error()))
	}
	w.Write(res.Output.Data)
}

// headerValue folds a message onto one printable line.
func headerValue(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}

// Run serves h on addr until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, addr string, h http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
