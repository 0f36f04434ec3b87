package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	appanalysis "github.com/bryanwahyu/livestock-vision/internal/application/analysis"
	"github.com/bryanwahyu/livestock-vision/internal/domain/analysis"
	"github.com/bryanwahyu/livestock-vision/internal/domain/breeds"
	"github.com/bryanwahyu/livestock-vision/internal/domain/symptoms"
	"github.com/bryanwahyu/livestock-vision/internal/middleware"
)

// multipart headers and boundaries on top of the image itself
const multipartOverhead = 1 << 20

type Options struct {
	Analysis *appanalysis.Service
	Catalog  *breeds.Catalog
	Metrics  *middleware.Metrics
	Log      logrus.FieldLogger

	APIKeys        map[string]string // empty disables auth
	AllowedOrigins []string
	MaxUploadBytes int64
	HealthCheckers map[string]middleware.HealthChecker
}

type Router struct {
	analysisSvc *appanalysis.Service
	catalog     *breeds.Catalog
	metrics     *middleware.Metrics
	log         logrus.FieldLogger
	maxBytes    int64
}

func NewRouter(opts Options) http.Handler {
	r := &Router{
		analysisSvc: opts.Analysis,
		catalog:     opts.Catalog,
		metrics:     opts.Metrics,
		log:         opts.Log,
		maxBytes:    opts.MaxUploadBytes,
	}
	if r.catalog == nil {
		r.catalog = breeds.Default()
	}
	if r.metrics == nil {
		r.metrics = middleware.NewMetrics()
	}
	if r.log == nil {
		r.log = logrus.StandardLogger()
	}
	if r.maxBytes <= 0 {
		r.maxBytes = 10 << 20
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	mux := chi.NewRouter()
	mux.Use(chimw.RequestID)
	mux.Use(chimw.RealIP)
	mux.Use(middleware.Logging(r.log))
	mux.Use(r.metrics.Middleware)
	mux.Use(chimw.Recoverer)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	if len(opts.APIKeys) > 0 {
		mux.Use(middleware.APIKeyAuth(opts.APIKeys))
	}

	mux.Get("/health", middleware.HealthHandler(opts.HealthCheckers))
	mux.Get("/health/live", middleware.LivenessHandler)
	mux.Get("/health/ready", middleware.ReadinessHandler)
	mux.Get("/metrics", r.metrics.Handler)

	mux.Post("/analyze-image", r.wrap(r.handleAnalyzeImage))
	mux.Post("/check-symptoms", r.wrap(r.handleCheckSymptoms))
	mux.Get("/breeds", r.wrap(r.handleBreeds))
	if r.analysisSvc != nil && r.analysisSvc.HistoryEnabled() {
		mux.Get("/analyses", r.wrap(r.handleAnalyses))
	}

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// clientErrors maps client input errors to status and message.
var clientErrors = []struct {
	err    error
	status int
	msg    string
}{
	{analysis.ErrNoImage, http.StatusBadRequest, "No image file provided"},
	{analysis.ErrEmptyFilename, http.StatusBadRequest, "No selected file"},
	{analysis.ErrEmptyImage, http.StatusBadRequest, "Empty image file"},
	{analysis.ErrBadRequest, http.StatusBadRequest, "Invalid request body"},
	{analysis.ErrImageTooLarge, http.StatusRequestEntityTooLarge, "Image file too large"},
	{analysis.ErrHistoryDisabled, http.StatusNotFound, "Analysis history is disabled"},
}

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		for _, ce := range clientErrors {
			if errors.Is(err, ce.err) {
				writeJSON(w, ce.status, map[string]string{"error": ce.msg})
				return
			}
		}
		r.log.WithError(err).WithFields(logrus.Fields{
			"path":       req.URL.Path,
			"request_id": chimw.GetReqID(req.Context()),
			"client":     middleware.GetClientFromContext(req.Context()),
		}).Error("unexpected handler error")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

type analyzeResponse struct {
	AnalysisID      string   `json:"analysis_id"`
	Breed           string   `json:"breed"`
	Confidence      float64  `json:"confidence"`
	HealthScore     int      `json:"health_score"`
	HealthIssues    []string `json:"health_issues"`
	Recommendations []string `json:"recommendations"`
	BreedInfo       any      `json:"breed_info"`
	BreedMatched    bool     `json:"breed_matched"`
}

// POST /analyze-image
// multipart/form-data with a file field named "image".
func (r *Router) handleAnalyzeImage(w http.ResponseWriter, req *http.Request) error {
	req.Body = http.MaxBytesReader(w, req.Body, r.maxBytes+multipartOverhead)
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return analysis.ErrImageTooLarge
		}
		return fmt.Errorf("%w: %v", analysis.ErrNoImage, err)
	}
	defer req.MultipartForm.RemoveAll()

	file, header, err := req.FormFile("image")
	if err != nil {
		// a part named "image" without a filename is parsed as a plain value
		if _, ok := req.MultipartForm.Value["image"]; ok {
			return analysis.ErrEmptyFilename
		}
		return analysis.ErrNoImage
	}
	defer file.Close()

	if header.Filename == "" {
		return analysis.ErrEmptyFilename
	}
	name := middleware.SanitizeFilename(header.Filename)
	if name == "" {
		name = "upload"
	}

	report, err := r.analysisSvc.Analyze(req.Context(), appanalysis.Upload{Filename: name, Body: file})
	if err != nil {
		return err
	}
	r.metrics.ObserveAnalysis(string(report.Outcome), report.BreedMatched)

	var info any = map[string]string{}
	if report.BreedMatched {
		info = report.BreedInfo
	}
	return writeJSON(w, http.StatusOK, analyzeResponse{
		AnalysisID:      report.ID,
		Breed:           report.Result.Breed,
		Confidence:      report.Result.Confidence,
		HealthScore:     report.Result.HealthScore,
		HealthIssues:    report.Result.HealthIssues,
		Recommendations: report.Result.Recommendations,
		BreedInfo:       info,
		BreedMatched:    report.BreedMatched,
	})
}

// POST /check-symptoms
// Body: {"symptoms": ["lethargy", ...]}; an empty body counts as no symptoms.
func (r *Router) handleCheckSymptoms(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Symptoms []string `json:"symptoms"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", analysis.ErrBadRequest, err)
	}
	return writeJSON(w, http.StatusOK, map[string]any{
		"recommendations": symptoms.Advise(body.Symptoms),
	})
}

// GET /breeds
func (r *Router) handleBreeds(w http.ResponseWriter, req *http.Request) error {
	return writeJSON(w, http.StatusOK, r.catalog.All())
}

// GET /analyses?page=&page_size=
func (r *Router) handleAnalyses(w http.ResponseWriter, req *http.Request) error {
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	size, _ := strconv.Atoi(req.URL.Query().Get("page_size"))
	page = middleware.ValidatePage(page)
	size = middleware.ValidateLimit(size)

	list, err := r.analysisSvc.History(req.Context(), page, size)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{
		"page":      page,
		"page_size": size,
		"items":     list,
	})
}
