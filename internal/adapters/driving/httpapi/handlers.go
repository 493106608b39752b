package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mnemolet/mnemolet/internal/core/domain"
	"github.com/mnemolet/mnemolet/internal/core/ports/driving"
	"github.com/mnemolet/mnemolet/internal/logger"
)

// maxUploadMemory is the multipart size kept in memory before spilling to disk.
const maxUploadMemory = 32 << 20

// Ports holds the services the API calls.
type Ports struct {
	Ingest     driving.IngestService
	Retrieval  driving.RetrievalService
	Answer     driving.AnswerService
	Collection driving.CollectionService
	Health     driving.HealthService

	// VectorHealth guards ingestion. Nil skips the check.
	VectorHealth driving.HealthService
}

// Config holds the handler settings taken from the loaded configuration.
type Config struct {
	// UploadDir receives uploaded files. A forced ingest re-reads all of it.
	UploadDir string

	// TopK and MinScore apply when a request omits them.
	TopK     int
	MinScore float64

	// Pipeline overlaps embedding with storage during ingestion.
	Pipeline bool
}

// Handler serves the JSON API.
type Handler struct {
	ports Ports
	cfg   Config
}

// NewHandler creates a handler.
func NewHandler(ports Ports, cfg Config) *Handler {
	return &Handler{ports: ports, cfg: cfg}
}

// IngestResponse is returned by POST /api/ingest.
type IngestResponse struct {
	Status    string               `json:"status"`
	Uploaded  []string             `json:"uploaded"`
	Force     bool                 `json:"force"`
	Message   string               `json:"message"`
	Ingestion *domain.IngestResult `json:"ingestion"`
}

// Ingest saves multipart "files" to the upload directory and ingests them.
// With force=true the collection is recreated, so the whole upload directory
// is ingested again rather than only this request's files.
func (h *Handler) Ingest(c *gin.Context) {
	force, _ := strconv.ParseBool(c.DefaultQuery("force", "false")) //nolint:errcheck // invalid means false

	if err := c.Request.ParseMultipartForm(maxUploadMemory); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_multipart_form", err)
		return
	}
	headers := c.Request.MultipartForm.File["files"]
	if len(headers) == 0 {
		respondError(c, http.StatusBadRequest, "no_files", fmt.Errorf("%w: no files uploaded", domain.ErrInvalidInput))
		return
	}

	if err := os.MkdirAll(h.cfg.UploadDir, 0o755); err != nil {
		respondError(c, http.StatusInternalServerError, "upload_dir", err)
		return
	}

	saved := make([]string, 0, len(headers))
	for _, fh := range headers {
		name := filepath.Base(fh.Filename)
		if name == "." || name == string(filepath.Separator) {
			respondError(c, http.StatusBadRequest, "invalid_filename", fmt.Errorf("%w: bad file name %q", domain.ErrInvalidInput, fh.Filename))
			return
		}
		dest := filepath.Join(h.cfg.UploadDir, name)
		if err := c.SaveUploadedFile(fh, dest); err != nil {
			respondError(c, http.StatusInternalServerError, "save_failed", err)
			return
		}
		saved = append(saved, dest)
	}
	logger.Info("Saved %d uploads to %s", len(saved), h.cfg.UploadDir)

	if h.ports.VectorHealth != nil {
		if err := h.ports.VectorHealth.RequireHealthy(c.Request.Context()); err != nil {
			respondError(c, http.StatusServiceUnavailable, "service_unavailable", err)
			return
		}
	}

	opts := domain.IngestOptions{Force: force, Pipeline: h.cfg.Pipeline}
	var (
		result *domain.IngestResult
		err    error
	)
	if force {
		result, err = h.ports.Ingest.Ingest(c.Request.Context(), h.cfg.UploadDir, opts)
	} else {
		result, err = h.ports.Ingest.IngestFiles(c.Request.Context(), saved, opts)
	}
	if err != nil {
		status, code := statusFor(err)
		respondError(c, status, code, err)
		return
	}

	respondOK(c, IngestResponse{
		Status:    "ok",
		Uploaded:  saved,
		Force:     force,
		Message:   "Ingestion complete",
		Ingestion: result,
	})
}

// SearchResponse is returned by GET /api/search.
type SearchResponse struct {
	Results []domain.RetrievalResult `json:"results"`
}

// Search handles GET /api/search?query=...&top_k=...&min_score=...
func (h *Handler) Search(c *gin.Context) {
	query, topK, minScore, ok := h.queryParams(c)
	if !ok {
		return
	}

	results, err := h.ports.Retrieval.Retrieve(c.Request.Context(), query, topK, minScore)
	if err != nil {
		status, code := statusFor(err)
		respondError(c, status, code, fmt.Errorf("search failed: %w", err))
		return
	}
	if results == nil {
		results = []domain.RetrievalResult{}
	}
	respondOK(c, SearchResponse{Results: results})
}

// streamLine is one NDJSON line of GET /api/answer.
type streamLine struct {
	Type domain.EventKind `json:"type"`
	Data any              `json:"data"`
}

// Answer handles GET /api/answer and streams newline-delimited JSON objects
// {"type": "chunk"|"sources"|"error", "data": ...}.
func (h *Handler) Answer(c *gin.Context) {
	query, topK, minScore, ok := h.queryParams(c)
	if !ok {
		return
	}

	events := h.ports.Answer.Answer(c.Request.Context(), domain.AnswerRequest{
		Query:    query,
		TopK:     topK,
		MinScore: &minScore,
		Mode:     domain.AnswerModeSingle,
	})

	c.Header("Content-Type", "application/x-ndjson")
	c.Header("Cache-Control", "no-cache")
	c.Status(http.StatusOK)

	enc := json.NewEncoder(c.Writer)
	for ev := range events {
		if err := enc.Encode(lineFor(ev)); err != nil {
			// Client went away; the generator stops once the request context ends.
			logger.Warn("Answer stream write failed: %v", err)
			for range events {
			}
			return
		}
		c.Writer.Flush()
	}
}

func lineFor(ev domain.AnswerEvent) streamLine {
	switch ev.Kind {
	case domain.EventSources:
		return streamLine{Type: ev.Kind, Data: ev.Sources}
	case domain.EventError:
		return streamLine{Type: ev.Kind, Data: ev.Err.Error()}
	default:
		return streamLine{Type: ev.Kind, Data: ev.Text}
	}
}

// StatsResponse is returned by GET /api/stats.
type StatsResponse struct {
	Status string                  `json:"status"`
	Data   *domain.CollectionStats `json:"data"`
}

// Stats handles GET /api/stats?collection_name=...
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.ports.Collection.Stats(c.Request.Context(), c.Query("collection_name"))
	if err != nil {
		status, code := statusFor(err)
		respondError(c, status, code, fmt.Errorf("failed to fetch stats: %w", err))
		return
	}
	respondOK(c, StatsResponse{Status: "success", Data: stats})
}

// CollectionsResponse is returned by GET /api/list-collections.
type CollectionsResponse struct {
	Status string   `json:"status"`
	Data   []string `json:"data"`
}

// ListCollections handles GET /api/list-collections.
func (h *Handler) ListCollections(c *gin.Context) {
	names, err := h.ports.Collection.List(c.Request.Context())
	if err != nil {
		status, code := statusFor(err)
		respondError(c, status, code, fmt.Errorf("failed to list collections: %w", err))
		return
	}
	if names == nil {
		names = []string{}
	}
	respondOK(c, CollectionsResponse{Status: "success", Data: names})
}

// Health handles GET /api/health. Unhealthy dependencies yield 503 with the report.
func (h *Handler) Health(c *gin.Context) {
	report := h.ports.Health.Check(c.Request.Context())
	if !report.Healthy() {
		c.JSON(http.StatusServiceUnavailable, report)
		return
	}
	respondOK(c, report)
}

// queryParams reads query, top_k and min_score. Writes a 400 and returns
// false when they are invalid.
func (h *Handler) queryParams(c *gin.Context) (string, int, float64, bool) {
	query := c.Query("query")
	if query == "" {
		respondError(c, http.StatusBadRequest, "missing_query", fmt.Errorf("%w: query is required", domain.ErrInvalidInput))
		return "", 0, 0, false
	}

	topK := h.cfg.TopK
	if raw := c.Query("top_k"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			respondError(c, http.StatusBadRequest, "invalid_top_k", fmt.Errorf("%w: top_k must be a positive integer", domain.ErrInvalidInput))
			return "", 0, 0, false
		}
		topK = v
	}

	minScore := h.cfg.MinScore
	if raw := c.Query("min_score"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid_min_score", fmt.Errorf("%w: min_score must be a number", domain.ErrInvalidInput))
			return "", 0, 0, false
		}
		minScore = v
	}
	return query, topK, minScore, true
}
