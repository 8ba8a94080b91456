// Command vocd-ingest loads tabular sources (CSV or Parquet) into the vector
// store: detect columns, embed row bodies in batches, persist posts.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/voclabs/vocd/internal/config"
	dbRedis "github.com/voclabs/vocd/internal/db/redis"
	logpkg "github.com/voclabs/vocd/internal/logger"
	"github.com/voclabs/vocd/internal/metrics"
	postsrepo "github.com/voclabs/vocd/internal/repository/posts"
	"github.com/voclabs/vocd/internal/rows"
	openaiProv "github.com/voclabs/vocd/internal/transport/openai"
	ingestuc "github.com/voclabs/vocd/internal/usecase/ingest"
	"github.com/voclabs/vocd/internal/version"
)

func main() {
	var (
		format      = flag.String("format", "", "Source format: csv or parquet (default: by file extension)")
		rebuild     = flag.Bool("rebuild", false, "Drop the index and all stored posts before ingesting")
		titleColumn = flag.String("title-column", "", "Source column to use as the post title")
		bodyColumn  = flag.String("body-column", "", "Source column to use as the post body")
	)
	flag.Parse()

	files := flag.Args()
	if len(files) == 0 && !*rebuild {
		fmt.Fprintln(os.Stderr, "usage: vocd-ingest [flags] <file>...")
		flag.PrintDefaults()
		os.Exit(2)
	}

	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to create logger:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting vocd ingest",
		zap.String("version", version.Version),
		zap.String("env", env),
		zap.Strings("files", files),
		zap.Bool("rebuild", *rebuild),
		zap.Int("embedding_dim", cfg.Embedding.Dimensions),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}

	metrics.RegisterProviderMetrics()
	metrics.RegisterIngestMetrics()

	embedder := openaiProv.NewEmbedder(&openaiProv.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   "openai",
		Timeout:    time.Duration(cfg.Embedding.TimeoutSec) * time.Second,
		Logger:     logger,
	})

	repo := postsrepo.New(store, cfg.Embedding.Dimensions).
		WithKeyPrefix(cfg.Storage.KeyPrefix).
		WithHNSW(postsrepo.HNSWConfig{
			M:           cfg.Index.HNSWM,
			EFConstruct: cfg.Index.HNSWEFConstruct,
		})

	if *rebuild {
		logger.Warn("Rebuilding schema, all stored posts will be destroyed")
		if err := repo.Rebuild(ctx); err != nil {
			logger.Fatal("Rebuild failed", zap.Error(err))
		}
	} else if err := repo.EnsureSchema(ctx); err != nil {
		logger.Fatal("Failed to ensure index schema", zap.Error(err))
	}

	titleCol := cfg.Ingest.TitleColumn
	if *titleColumn != "" {
		titleCol = *titleColumn
	}
	bodyCol := cfg.Ingest.BodyColumn
	if *bodyColumn != "" {
		bodyCol = *bodyColumn
	}

	pipeline := ingestuc.New(embedder, repo, ingestuc.Config{
		BatchSize:   cfg.Ingest.BatchSize,
		BatchDelay:  time.Duration(cfg.Ingest.InterBatchDelayMs) * time.Millisecond,
		MaxRetries:  cfg.Ingest.MaxRetriesPerRow,
		TitleColumn: titleCol,
		BodyColumn:  bodyCol,
	}, logger)

	var total ingestuc.Report
	for _, file := range files {
		src, err := openSource(file, *format)
		if err != nil {
			logger.Fatal("Failed to open source", zap.String("file", file), zap.Error(err))
		}

		report, err := pipeline.Run(ctx, src)
		total.RowsRead += report.RowsRead
		total.RowsEmbedded += report.RowsEmbedded
		total.RowsStored += report.RowsStored
		total.RowsSkipped += report.RowsSkipped
		if err != nil {
			logger.Error("Ingestion failed",
				zap.String("file", file),
				zap.Int("rows_stored", report.RowsStored),
				zap.Error(err),
			)
			os.Exit(1)
		}

		logger.Info("File ingested",
			zap.String("file", file),
			zap.Int("rows_read", report.RowsRead),
			zap.Int("rows_stored", report.RowsStored),
			zap.Int("rows_skipped", report.RowsSkipped),
		)
	}

	logger.Info("Ingestion complete",
		zap.Int("files", len(files)),
		zap.Int("rows_read", total.RowsRead),
		zap.Int("rows_embedded", total.RowsEmbedded),
		zap.Int("rows_stored", total.RowsStored),
		zap.Int("rows_skipped", total.RowsSkipped),
	)
}

// openSource picks a row source by explicit format or file extension.
func openSource(file, format string) (ingestuc.Source, error) {
	if format == "" {
		switch strings.ToLower(filepath.Ext(file)) {
		case ".parquet":
			format = "parquet"
		default:
			format = "csv"
		}
	}

	switch format {
	case "csv":
		return rows.NewCSVSource(file)
	case "parquet":
		return rows.NewParquetSource(file)
	default:
		return nil, fmt.Errorf("unknown source format %q", format)
	}
}
