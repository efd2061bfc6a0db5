package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"trackbot-be/internal/bootstrap"
	"trackbot-be/internal/config"
	"trackbot-be/internal/pkg/logger"
	"trackbot-be/internal/repository/unitofwork"
	"trackbot-be/internal/service"
	"trackbot-be/pkg/database"

	"github.com/fatih/color"
	gormlogger "gorm.io/gorm/logger"
)

// ingest loads knowledge files into knowledge_chunks. Each file is one
// source, named by its base name unless -source is given.
func main() {
	source := flag.String("source", "", "source name (single file only)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: ingest [-source name] file...\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	files := flag.Args()
	if len(files) == 0 {
		flag.Usage()
		os.Exit(2)
	}
	if *source != "" && len(files) > 1 {
		color.Red("-source can only be used with a single file")
		os.Exit(2)
	}

	cfg := config.Load()
	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, database.WithLogLevel(gormlogger.Warn))
	if err != nil {
		color.Red("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	embedder, err := bootstrap.NewEmbeddingProvider(cfg)
	if err != nil {
		color.Red("Failed to build embedding provider: %v", err)
		os.Exit(1)
	}

	log := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	defer log.Sync()

	indexer := service.NewKnowledgeIndexer(unitofwork.NewRepositoryFactory(db), embedder, cfg.Ai.ChunkSize, cfg.Ai.ChunkOverlap, log)

	ctx := context.Background()
	failed := 0
	for _, path := range files {
		name := *source
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}

		content, err := os.ReadFile(path)
		if err != nil {
			color.Red("✗ %s: %v", path, err)
			failed++
			continue
		}

		n, err := indexer.Index(ctx, name, string(content))
		if err != nil {
			color.Red("✗ %s: %v", path, err)
			failed++
			continue
		}
		color.Green("✓ %s -> %q (%d chunks)", path, name, n)
	}

	if failed > 0 {
		color.Yellow("%d of %d files failed", failed, len(files))
		os.Exit(1)
	}
}
