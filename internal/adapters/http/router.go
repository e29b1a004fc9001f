package httpadapter

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/resume-form-filler/internal/config"
	"github.com/kirillkom/resume-form-filler/internal/core/domain"
	"github.com/kirillkom/resume-form-filler/internal/core/fields"
	"github.com/kirillkom/resume-form-filler/internal/core/ports"
)

const (
	maxJSONBodyBytes   = 1 << 20
	multipartOverhead  = 1 << 20
	backpressureWait   = 250 * time.Millisecond
	defaultFormFieldID = "file"
)

// TemplateCatalog exposes the grouped field templates shown to form builders.
type TemplateCatalog interface {
	Templates() map[string][]fields.TemplateEntry
	CommonFields() []string
}

// MetricsProvider instruments requests and serves the scrape endpoint.
type MetricsProvider interface {
	Middleware(next http.Handler) http.Handler
	Handler() http.Handler
}

// Dependencies are the inbound ports the router dispatches to. Metrics and
// Logger are optional.
type Dependencies struct {
	Ingest    ports.DocumentIngestor
	Extractor ports.FieldExtractor
	Bulk      ports.BulkExtractor
	Query     ports.ResumeQuerier
	Templates TemplateCatalog
	Sessions  ports.SessionService
	Health    ports.HealthChecker
	Metrics   MetricsProvider
	Logger    *slog.Logger
}

type Router struct {
	cfg    config.Config
	deps   Dependencies
	logger *slog.Logger
}

func NewRouter(cfg config.Config, deps Dependencies) *Router {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{cfg: cfg, deps: deps, logger: logger}
}

func (rt *Router) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("POST /v1/documents", rt.uploadDocument)
	api.HandleFunc("POST /v1/extract", rt.extractField)
	api.HandleFunc("POST /v1/extract/bulk", rt.extractBulk)
	api.HandleFunc("POST /v1/query", rt.queryResume)
	api.HandleFunc("GET /v1/examples/queries", rt.exampleQueries)
	api.HandleFunc("GET /v1/form/templates", rt.formTemplates)
	api.HandleFunc("GET /v1/sessions", rt.listSessions)
	api.HandleFunc("GET /v1/sessions/{session_id}/stats", rt.sessionStats)
	api.HandleFunc("DELETE /v1/sessions/{session_id}", rt.deleteSession)

	var guarded http.Handler = api
	guarded = backpressureMiddleware(guarded, rt.cfg.APIMaxInFlight, backpressureWait)
	guarded = rateLimitMiddleware(guarded, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	if rt.deps.Metrics != nil {
		mux.Handle("GET /metrics", rt.deps.Metrics.Handler())
	}
	mux.Handle("/v1/", guarded)

	var handler http.Handler = mux
	if rt.deps.Metrics != nil {
		handler = rt.deps.Metrics.Middleware(handler)
	}
	handler = accessLogMiddleware(rt.logger, handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, r *http.Request) {
	if rt.deps.Health == nil {
		writeJSON(w, http.StatusOK, domain.HealthReport{Status: domain.HealthHealthy, Services: map[string]string{}})
		return
	}
	report := rt.deps.Health.Check(r.Context())
	status := http.StatusOK
	if report.Status == domain.HealthUnhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if rt.cfg.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, rt.cfg.MaxUploadBytes+multipartOverhead)
	}

	file, fileHeader, err := r.FormFile(defaultFormFieldID)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "uploaded file exceeds size limit")
			return
		}
		writeError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	result, err := rt.deps.Ingest.Upload(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		rt.writeDomainError(w, r, "upload_document", err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

type extractRequest struct {
	FieldLabel string `json:"field_label"`
	SessionID  string `json:"session_id"`
}

func (rt *Router) extractField(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.FieldLabel) == "" || strings.TrimSpace(req.SessionID) == "" {
		writeError(w, http.StatusBadRequest, "field_label and session_id are required")
		return
	}

	result, err := rt.deps.Extractor.ExtractField(r.Context(), req.SessionID, req.FieldLabel)
	if err != nil {
		rt.writeDomainError(w, r, "extract_field", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type bulkExtractRequest struct {
	Fields    []string `json:"fields"`
	SessionID string   `json:"session_id"`
}

func (rt *Router) extractBulk(w http.ResponseWriter, r *http.Request) {
	var req bulkExtractRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	result, err := rt.deps.Bulk.ExtractBulk(r.Context(), req.SessionID, req.Fields)
	if err != nil {
		rt.writeDomainError(w, r, "extract_bulk", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type queryRequest struct {
	Query     string            `json:"query"`
	SessionID string            `json:"session_id"`
	QueryType *domain.QueryType `json:"query_type"`
}

func (rt *Router) queryResume(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Query) == "" || strings.TrimSpace(req.SessionID) == "" {
		writeError(w, http.StatusBadRequest, "query and session_id are required")
		return
	}
	queryType := domain.QuerySingleFact
	if req.QueryType != nil {
		queryType = *req.QueryType
	}

	result, err := rt.deps.Query.Query(r.Context(), req.SessionID, req.Query, queryType)
	if err != nil {
		rt.writeDomainError(w, r, "query_resume", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) exampleQueries(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, domain.ExampleQueries())
}

type templatesResponse struct {
	Templates    map[string][]fields.TemplateEntry `json:"templates"`
	CommonFields []string                          `json:"common_fields"`
}

func (rt *Router) formTemplates(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, templatesResponse{
		Templates:    rt.deps.Templates.Templates(),
		CommonFields: rt.deps.Templates.CommonFields(),
	})
}

type sessionsResponse struct {
	Sessions []domain.SessionStats `json:"sessions"`
	Count    int                   `json:"count"`
}

func (rt *Router) listSessions(w http.ResponseWriter, r *http.Request) {
	sessions := rt.deps.Sessions.List(r.Context())
	if sessions == nil {
		sessions = []domain.SessionStats{}
	}
	writeJSON(w, http.StatusOK, sessionsResponse{Sessions: sessions, Count: len(sessions)})
}

func (rt *Router) sessionStats(w http.ResponseWriter, r *http.Request) {
	stats, err := rt.deps.Sessions.Stats(r.Context(), r.PathValue("session_id"))
	if err != nil {
		rt.writeDomainError(w, r, "session_stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (rt *Router) deleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session_id")
	if err := rt.deps.Sessions.Delete(r.Context(), sessionID); err != nil {
		rt.writeDomainError(w, r, "delete_session", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session_id": sessionID, "deleted": true})
}

func (rt *Router) writeDomainError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		rt.logger.Error("http_handler_failed",
			"request_id", requestIDFromContext(r.Context()),
			"op", op,
			"status", status,
			"error", err,
		)
	}
	writeError(w, status, err.Error())
}

// decodeJSON writes a 400 and returns false when the body is not a single JSON object.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	decoder := json.NewDecoder(body)
	if err := decoder.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "request body must contain a single json object")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
