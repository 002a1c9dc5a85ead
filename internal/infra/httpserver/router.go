package httpserver

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"

	"github.com/bryanwahyu/auditor-console/internal/application/upload"
	"github.com/bryanwahyu/auditor-console/internal/domain/analysis"
	"github.com/bryanwahyu/auditor-console/internal/domain/submissions"
	"github.com/bryanwahyu/auditor-console/internal/logging"
	"github.com/bryanwahyu/auditor-console/internal/metrics"
	"github.com/bryanwahyu/auditor-console/internal/middleware"
	"github.com/bryanwahyu/auditor-console/internal/render"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pageTmpl = template.Must(template.ParseFS(templatesFS, "templates/index.html"))

var (
	errUploadTooLarge = errors.New("upload too large")
	errBadForm        = errors.New("malformed upload form")
)

// Options wires the web console.
type Options struct {
	Controller     *upload.Controller
	Renderer       render.Renderer
	Journal        submissions.Repository // optional
	Health         map[string]middleware.HealthChecker
	Logger         *slog.Logger
	MaxUploadBytes int64
	AllowedOrigins []string
	RateCapacity   int
	RateRefill     int
}

type Router struct {
	ctrl      *upload.Controller
	renderer  render.Renderer
	journal   submissions.Repository
	logger    *slog.Logger
	maxUpload int64
	upgrader  websocket.Upgrader
}

func NewRouter(opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxUpload := opts.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 10 << 20
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := &Router{
		ctrl:      opts.Controller,
		renderer:  opts.Renderer,
		journal:   opts.Journal,
		logger:    logger,
		maxUpload: maxUpload,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(origins),
		},
	}

	mux := chi.NewRouter()
	mux.Use(chimw.RequestID)
	mux.Use(chimw.RealIP)
	mux.Use(middleware.LoggingMiddleware(logger))
	mux.Use(chimw.Recoverer)
	mux.Use(middleware.MetricsMiddleware)

	mux.Get("/", r.wrap(r.handleIndex))
	mux.With(middleware.RateLimitMiddleware(max(opts.RateCapacity, 1), max(opts.RateRefill, 1))).
		Post("/upload", r.wrap(r.handleUpload))
	mux.Get("/ws", r.handleStream)

	mux.Route("/api", func(rt chi.Router) {
		rt.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
			MaxAge:         300,
		}))
		rt.Get("/state", r.wrap(r.handleState))
		rt.Get("/submissions", r.wrap(r.handleSubmissions))
		rt.Get("/submissions/{id}", r.wrap(r.handleSubmission))
	})

	mux.Get("/health", middleware.HealthHandler(opts.Health))
	mux.Get("/ready", middleware.ReadinessHandler)
	mux.Get("/live", middleware.LivenessHandler)
	mux.Handle("/metrics", metrics.Handler())

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			switch {
			case errors.Is(err, analysis.ErrEmptyFile):
				http.Error(w, "file is empty", http.StatusBadRequest)
			case errors.Is(err, analysis.ErrSubmissionInFlight):
				http.Error(w, "an analysis is already in progress", http.StatusConflict)
			case errors.Is(err, errBadForm):
				http.Error(w, "malformed upload", http.StatusBadRequest)
			case errors.Is(err, errUploadTooLarge):
				http.Error(w, fmt.Sprintf("file exceeds %d bytes", r.maxUpload), http.StatusRequestEntityTooLarge)
			case errors.Is(err, submissions.ErrNotFound):
				http.Error(w, "not found", http.StatusNotFound)
			default:
				logging.FromContext(req.Context()).Error("request failed", "path", req.URL.Path, "error", err)
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
		}
	}
}

type page struct {
	View   render.View
	Accept string
}

// GET /
func (r *Router) handleIndex(w http.ResponseWriter, req *http.Request) error {
	v := r.renderer.View(r.ctrl.State())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	return pageTmpl.Execute(w, page{View: v, Accept: ".csv"})
}

// POST /upload (multipart, field "file")
// No file means the picker was dismissed: redirect back without touching
// the state. Accepted submissions run in the background.
func (r *Router) handleUpload(w http.ResponseWriter, req *http.Request) error {
	req.Body = http.MaxBytesReader(w, req.Body, r.maxUpload+(1<<20))

	f, err := formPicker{req: req, max: r.maxUpload}.Pick(req.Context())
	if errors.Is(err, analysis.ErrSelectionCancelled) {
		http.Redirect(w, req, "/", http.StatusSeeOther)
		return nil
	}
	if err != nil {
		return err
	}
	if !middleware.IsCSVName(f.Name) {
		logging.FromContext(req.Context()).Debug("upload without .csv extension", "file", f.Name)
	}

	if _, err := r.ctrl.Start(req.Context(), f); err != nil {
		return err
	}

	if wantsJSON(req) {
		return writeJSON(w, http.StatusAccepted, r.ctrl.State())
	}
	http.Redirect(w, req, "/", http.StatusSeeOther)
	return nil
}

// GET /api/state
func (r *Router) handleState(w http.ResponseWriter, req *http.Request) error {
	return writeJSON(w, http.StatusOK, r.ctrl.State())
}

// GET /api/submissions?limit=20
func (r *Router) handleSubmissions(w http.ResponseWriter, req *http.Request) error {
	if r.journal == nil {
		return writeJSON(w, http.StatusOK, []*submissions.Submission{})
	}
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	list, err := r.journal.Latest(req.Context(), middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}
	if list == nil {
		list = []*submissions.Submission{}
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /api/submissions/{id}
func (r *Router) handleSubmission(w http.ResponseWriter, req *http.Request) error {
	if r.journal == nil {
		return submissions.ErrNotFound
	}
	s, err := r.journal.Get(req.Context(), chi.URLParam(req, "id"))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, s)
}

// formPicker reads the selection out of a multipart upload.
type formPicker struct {
	req *http.Request
	max int64
}

func (p formPicker) Pick(_ context.Context) (analysis.File, error) {
	err := p.req.ParseMultipartForm(32 << 20)
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return analysis.File{}, errUploadTooLarge
	case errors.Is(err, http.ErrNotMultipart):
		return analysis.File{}, analysis.ErrSelectionCancelled
	case err != nil:
		return analysis.File{}, fmt.Errorf("%w: %v", errBadForm, err)
	}

	file, header, err := p.req.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return analysis.File{}, analysis.ErrSelectionCancelled
	}
	if err != nil {
		return analysis.File{}, fmt.Errorf("read form file: %w", err)
	}
	defer file.Close()

	if header.Size > p.max {
		return analysis.File{}, errUploadTooLarge
	}
	data, err := io.ReadAll(io.LimitReader(file, p.max+1))
	if err != nil {
		return analysis.File{}, fmt.Errorf("read form file: %w", err)
	}
	if int64(len(data)) > p.max {
		return analysis.File{}, errUploadTooLarge
	}
	return analysis.File{Name: middleware.UploadName(header.Filename), Data: data}, nil
}

func wantsJSON(req *http.Request) bool {
	return strings.Contains(req.Header.Get("Accept"), "application/json")
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}
