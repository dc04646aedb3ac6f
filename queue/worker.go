package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/hazyhaar/textlens/analyze"
	"github.com/hazyhaar/textlens/history"
)

// Worker claims queued documents, runs the analysis pipeline and records
// the outcomes. Run multiple workers against the same database for
// horizontal scaling; the visibility timeout keeps them from colliding.
type Worker struct {
	q      *Q
	pipe   *analyze.Pipeline
	hist   *history.Store
	stages analyze.Stages
	budget time.Duration
	logger *slog.Logger
}

// WorkerOptions configures a Worker.
type WorkerOptions struct {
	// Stages selects the pipeline stages batch jobs run. Default: all.
	Stages *analyze.Stages
	// Budget is the wall-clock limit per document. Default: 30s.
	Budget time.Duration
	// Logger overrides the queue logger.
	Logger *slog.Logger
}

// NewWorker creates a worker bound to a queue, pipeline and history store.
func NewWorker(q *Q, pipe *analyze.Pipeline, hist *history.Store, opts WorkerOptions) *Worker {
	stages := analyze.AllStages()
	if opts.Stages != nil {
		stages = *opts.Stages
	}
	if opts.Budget <= 0 {
		opts.Budget = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = q.opts.Logger
	}
	return &Worker{
		q:      q,
		pipe:   pipe,
		hist:   hist,
		stages: stages,
		budget: opts.Budget,
		logger: opts.Logger,
	}
}

// Run polls for visible jobs and processes them until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("queue: worker started",
		"visibility", w.q.opts.Visibility,
		"poll", w.q.opts.PollInterval,
		"budget", w.budget)

	ticker := time.NewTicker(w.q.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("queue: worker stopped")
			return
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

func (w *Worker) poll(ctx context.Context) {
	for {
		job, err := w.q.Claim(ctx)
		if err != nil {
			if ctx.Err() == nil {
				w.logger.Warn("queue: claim failed", "error", err)
			}
			return
		}
		if job == nil {
			return // nothing visible
		}

		if w.q.opts.MaxAttempts > 0 && job.Attempts > w.q.opts.MaxAttempts {
			w.logger.Warn("queue: job exceeded max attempts, marking failed",
				"id", job.ID, "attempts", job.Attempts)
			_ = w.q.MarkFailed(ctx, job.ID, "max attempts exceeded")
			_ = w.q.Ack(ctx, job.ID)
			continue
		}

		if err := w.process(ctx, job); err != nil {
			w.logger.Warn("queue: job failed, nacking", "id", job.ID, "error", err)
			_ = w.q.Nack(ctx, job.ID)
		} else {
			_ = w.q.Ack(ctx, job.ID)
		}
	}
}

func (w *Worker) process(ctx context.Context, job *Job) error {
	jobCtx, cancel := context.WithTimeout(ctx, w.budget)
	defer cancel()

	rec := w.pipe.Analyze(jobCtx, job.Doc.Text, job.Doc.Metadata, w.stages)

	analysisID := "ana_" + w.q.opts.IDs()
	length := utf8.RuneCountInString(job.Doc.Text)
	if err := w.hist.Insert(ctx, analysisID, length, rec); err != nil {
		return fmt.Errorf("store result: %w", err)
	}
	if err := w.q.MarkDone(ctx, job.ID, analysisID); err != nil {
		return fmt.Errorf("mark done: %w", err)
	}

	w.logger.Debug("queue: job done",
		"id", job.ID,
		"batch", job.BatchID,
		"analysis", analysisID,
		"document_type", rec.Classification.DocumentType)
	return nil
}
