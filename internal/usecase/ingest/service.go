// Package ingest implements the batched row-to-embedding pipeline: iterate a
// tabular source once, embed row bodies, and store posts. Row failures are
// absorbed into the report; only dimension mismatches and source errors abort
// a run.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/voclabs/vocd/internal/domain"
	"github.com/voclabs/vocd/internal/metrics"
)

// Config holds the pipeline tuning knobs.
type Config struct {
	// BatchSize rows are embedded concurrently, then stored in row order.
	BatchSize int
	// BatchDelay is the minimum interval between batch starts. This is the
	// admission-control checkpoint against the provider's rate limits.
	BatchDelay time.Duration
	// MaxRetries bounds embed attempts per row for transient provider errors.
	MaxRetries int
	// RetryBaseDelay is the first backoff step; it doubles per attempt.
	RetryBaseDelay time.Duration
	// TitleColumn and BodyColumn override column auto-detection.
	TitleColumn string
	BodyColumn  string
}

// Report is the aggregate outcome of one pipeline run. RowsStored < RowsRead
// signals partial success.
type Report struct {
	RowsRead     int
	RowsEmbedded int
	RowsStored   int
	RowsSkipped  int
}

// Service runs the ingestion pipeline.
type Service struct {
	embed   Embedder
	store   Store
	cfg     Config
	limiter *rate.Limiter
	logger  *zap.Logger
}

// New creates an ingestion pipeline. Zero config fields fall back to
// batch size 50, 3 retries, and a 1s backoff base.
func New(embed Embedder, store Store, cfg Config, logger *zap.Logger) *Service {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = time.Second
	}

	var limiter *rate.Limiter
	if cfg.BatchDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.BatchDelay), 1)
	}

	return &Service{embed: embed, store: store, cfg: cfg, limiter: limiter, logger: logger}
}

// Run drains the source and returns the aggregate report. The returned error
// is non-nil only for fatal conditions (unreadable source, dimension
// mismatch, cancelled context); the report is valid either way.
func (s *Service) Run(ctx context.Context, src Source) (Report, error) {
	defer src.Close()

	var report Report
	var mapping columnMapping
	batch := make([]domain.SourceRow, 0, s.cfg.BatchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		err := s.processBatch(ctx, batch, mapping, &report)
		batch = batch[:0]
		return err
	}

	for {
		row, err := src.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return report, fmt.Errorf("read source: %w", err)
		}

		if report.RowsRead == 0 {
			mapping = detectColumns(row, s.cfg.TitleColumn, s.cfg.BodyColumn)
			s.logger.Info("Detected source columns",
				zap.String("title_column", mapping.titleColumn),
				zap.String("body_column", mapping.bodyColumn))
		}
		report.RowsRead++

		batch = append(batch, row)
		if len(batch) >= s.cfg.BatchSize {
			if err := flush(); err != nil {
				return report, err
			}
		}
	}

	if err := flush(); err != nil {
		return report, err
	}

	s.logger.Info("Ingestion completed",
		zap.Int("rows_read", report.RowsRead),
		zap.Int("rows_embedded", report.RowsEmbedded),
		zap.Int("rows_stored", report.RowsStored),
		zap.Int("rows_skipped", report.RowsSkipped))

	return report, nil
}

// rowResult carries one row's outcome from the embed stage to the store stage.
type rowResult struct {
	post    *domain.Post
	skipped string // skip reason, "" when the row survived
	err     error
}

// processBatch embeds the batch concurrently, then stores survivors in row
// order so post ids stay monotonic with source order.
func (s *Service) processBatch(
	ctx context.Context, batch []domain.SourceRow, mapping columnMapping, report *Report,
) error {
	start := time.Now()
	defer func() {
		metrics.IngestBatchDuration.Observe(time.Since(start).Seconds())
	}()

	results := make([]rowResult, len(batch))

	var wg sync.WaitGroup
	for i, row := range batch {
		title, body := mapping.extract(row)
		if strings.TrimSpace(body) == "" {
			results[i] = rowResult{skipped: "validation", err: domain.ErrValidation}
			continue
		}
		if title == "" {
			title = "Untitled"
		}

		wg.Add(1)
		go func(i int, title, body string) {
			defer wg.Done()
			emb, err := s.embedWithRetry(ctx, body)
			if err != nil {
				results[i] = rowResult{skipped: "embed_failed", err: err}
				return
			}
			results[i] = rowResult{post: &domain.Post{
				Title:     title,
				Body:      body,
				Embedding: emb.Embedding,
			}}
		}(i, title, body)
	}
	wg.Wait()

	for i, res := range results {
		if res.skipped != "" {
			s.skipRow(report, res.skipped, i, res.err)
			continue
		}
		report.RowsEmbedded++

		id, err := s.store.Insert(ctx, res.post)
		if err != nil {
			if errors.Is(err, domain.ErrDimMismatch) {
				// Wrong dimension means every following row would fail the
				// same way. Abort the run.
				return fmt.Errorf("store post: %w", err)
			}
			s.skipRow(report, "store_failed", i, err)
			continue
		}

		report.RowsStored++
		metrics.IngestRowsTotal.WithLabelValues("stored").Inc()
		s.logger.Debug("Stored post", zap.Int64("id", id))
	}

	return nil
}

func (s *Service) skipRow(report *Report, reason string, batchIdx int, err error) {
	report.RowsSkipped++
	metrics.IngestRowsTotal.WithLabelValues("skipped").Inc()
	metrics.IngestSkipsTotal.WithLabelValues(reason).Inc()
	s.logger.Warn("Skipped row",
		zap.String("reason", reason),
		zap.Int("row_in_batch", batchIdx),
		zap.Error(err))
}

// embedWithRetry retries transient provider failures with exponential backoff.
// Validation, dimension, and timeout errors fail the row immediately.
func (s *Service) embedWithRetry(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	var lastErr error
	for attempt := 0; attempt < s.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := s.cfg.RetryBaseDelay << (attempt - 1)
			select {
			case <-ctx.Done():
				return domain.EmbeddingResult{}, ctx.Err()
			case <-time.After(wait):
			}
		}

		result, err := s.embed.Embed(ctx, text)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !domain.IsTransient(err) {
			return domain.EmbeddingResult{}, err
		}
	}
	return domain.EmbeddingResult{}, fmt.Errorf("embed after %d attempts: %w", s.cfg.MaxRetries, lastErr)
}
