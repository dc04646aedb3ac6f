// Package service wires the analysis pipeline, history store and batch
// queue behind an HTTP API.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/textlens/analyze"
	"github.com/hazyhaar/textlens/history"
	"github.com/hazyhaar/textlens/idgen"
	"github.com/hazyhaar/textlens/queue"
)

// Service is the textlens HTTP service.
type Service struct {
	cfg    *Config
	db     *sql.DB
	logger *slog.Logger
	pipe   *analyze.Pipeline
	queue  *queue.Q
	hist   *history.Store
	ids    idgen.Generator
}

// New creates the service and initializes its database tables.
func New(cfg *Config, db *sql.DB, logger *slog.Logger) (*Service, error) {
	pipeCfg := cfg.Pipeline
	pipeCfg.Logger = logger
	pipe, err := analyze.New(pipeCfg)
	if err != nil {
		return nil, fmt.Errorf("build pipeline: %w", err)
	}

	hist := history.NewStore(db)
	if err := hist.Init(); err != nil {
		return nil, fmt.Errorf("init history schema: %w", err)
	}

	q := queue.New(db, queue.Options{Logger: logger})
	if err := q.Init(context.Background()); err != nil {
		return nil, fmt.Errorf("init queue schema: %w", err)
	}

	return &Service{
		cfg:    cfg,
		db:     db,
		logger: logger,
		pipe:   pipe,
		queue:  q,
		hist:   hist,
		ids:    idgen.Default,
	}, nil
}

// Pipeline exposes the underlying analysis engine.
func (s *Service) Pipeline() *analyze.Pipeline { return s.pipe }

// RegisterHTTP registers the service endpoints on a chi router.
func (s *Service) RegisterHTTP(r chi.Router) {
	r.Post("/api/v1/analyze", s.handleAnalyze)
	r.Get("/api/v1/analyses", s.handleListAnalyses)
	r.Get("/api/v1/analyses/{id}", s.handleGetAnalysis)
	r.Post("/api/v1/batch", s.handleBatchSubmit)
	r.Get("/api/v1/batch/{batch_id}", s.handleBatchStatus)
	r.Get("/health", s.handleHealth)
}

// RegisterMCP registers the pipeline tools on an MCP server.
func (s *Service) RegisterMCP(srv *mcp.Server) {
	s.pipe.RegisterMCP(srv)
}

// StartWorkers spawns the configured number of batch workers. They stop
// when ctx is cancelled.
func (s *Service) StartWorkers(ctx context.Context) {
	for i := 0; i < s.cfg.Workers; i++ {
		w := queue.NewWorker(s.queue, s.pipe, s.hist, queue.WorkerOptions{
			Budget: s.cfg.RequestBudget(),
			Logger: s.logger,
		})
		go w.Run(ctx)
	}
	if s.cfg.Workers > 0 {
		s.logger.Info("batch workers started", "count", s.cfg.Workers)
	}
}

type analyzeRequest struct {
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
	// Options selects stages; absent means all stages.
	Options *analyze.Stages `json:"options,omitempty"`
}

type analyzeResponse struct {
	AnalysisID string         `json:"analysis_id"`
	TextLength int            `json:"text_length"`
	Analysis   analyze.Record `json:"analysis"`
}

func (s *Service) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	length := utf8.RuneCountInString(req.Text)
	if length > s.cfg.MaxTextLength {
		http.Error(w, fmt.Sprintf("Text too long: %d runes (max %d)", length, s.cfg.MaxTextLength),
			http.StatusRequestEntityTooLarge)
		return
	}

	stages := analyze.AllStages()
	if req.Options != nil {
		stages = *req.Options
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestBudget())
	defer cancel()

	rec := s.pipe.Analyze(ctx, req.Text, req.Metadata, stages)

	id := "ana_" + s.ids()
	if err := s.hist.Insert(r.Context(), id, length, rec); err != nil {
		s.logger.Error("failed to store analysis", "id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusOK, analyzeResponse{
		AnalysisID: id,
		TextLength: length,
		Analysis:   rec,
	})
}

func (s *Service) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	entry, err := s.hist.Get(r.Context(), id)
	if errors.Is(err, history.ErrNotFound) {
		http.Error(w, "Analysis not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("failed to load analysis", "id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, entry)
}

func (s *Service) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	entries, err := s.hist.Recent(r.Context(), 50)
	if err != nil {
		s.logger.Error("failed to list analyses", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"analyses": entries})
}

type batchRequest struct {
	Documents []queue.Document `json:"documents"`
}

func (s *Service) handleBatchSubmit(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if len(req.Documents) == 0 {
		http.Error(w, "documents is required", http.StatusBadRequest)
		return
	}
	if len(req.Documents) > s.cfg.MaxBatchSize {
		http.Error(w, fmt.Sprintf("Batch too large: %d documents (max %d)",
			len(req.Documents), s.cfg.MaxBatchSize), http.StatusRequestEntityTooLarge)
		return
	}
	for i, doc := range req.Documents {
		if utf8.RuneCountInString(doc.Text) > s.cfg.MaxTextLength {
			http.Error(w, fmt.Sprintf("Document %d too long (max %d runes)", i, s.cfg.MaxTextLength),
				http.StatusRequestEntityTooLarge)
			return
		}
	}

	batchID, err := s.queue.SubmitBatch(r.Context(), req.Documents)
	if err != nil {
		s.logger.Error("failed to submit batch", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusAccepted, map[string]any{
		"batch_id": batchID,
		"total":    len(req.Documents),
	})
}

func (s *Service) handleBatchStatus(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batch_id")

	st, err := s.queue.Status(r.Context(), batchID)
	if errors.Is(err, queue.ErrBatchNotFound) {
		http.Error(w, "Batch not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("failed to load batch status", "batch_id", batchID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, st)
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.PingContext(r.Context()); err != nil {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "degraded",
			"error":  err.Error(),
		})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Service) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}
