package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"trackbot-be/internal/bootstrap"
	"trackbot-be/internal/config"
	"trackbot-be/internal/pkg/logger"
	"trackbot-be/internal/repository/implementation"
	"trackbot-be/pkg/database"
	"trackbot-be/pkg/rag/prompt"
	"trackbot-be/pkg/rag/retrieval"

	"github.com/fatih/color"
	gormlogger "gorm.io/gorm/logger"
)

// trace_prompt prints the chunks retrieved for a dump and the exact analysis
// prompt that would be sent to the model. It never calls the model.
func main() {
	file := flag.String("file", "", "read the dump from this file instead of stdin")
	k := flag.Int("k", 0, "chunks to retrieve (defaults to RETRIEVAL_TOP_K)")
	flag.Parse()

	var in io.Reader = os.Stdin
	if *file != "" {
		f, err := os.Open(*file)
		if err != nil {
			color.Red("Failed to open %s: %v", *file, err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}
	raw, err := io.ReadAll(in)
	if err != nil {
		color.Red("Failed to read input: %v", err)
		os.Exit(1)
	}
	query := strings.TrimSpace(string(raw))
	if query == "" {
		color.Red("Nothing to trace: input is empty")
		os.Exit(2)
	}

	cfg := config.Load()
	if *k <= 0 {
		*k = cfg.Ai.RetrievalTopK
	}

	templates, err := prompt.Load(cfg.Ai.PromptsDir)
	if err != nil {
		color.Red("Failed to load prompt templates: %v", err)
		os.Exit(1)
	}

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

	retriever := retrieval.NewVectorRetriever(embedder, implementation.NewKnowledgeChunkRepository(db), logger.NewNopLogger())
	chunks, err := retriever.Search(context.Background(), query, *k)
	if err != nil {
		color.Yellow("Retrieval failed, prompt is built without context: %v", err)
	}

	color.Cyan("--- RETRIEVED %d CHUNKS ---", len(chunks))
	for i, c := range chunks {
		fmt.Printf("[%d] %s (similarity %.3f, %d chars)\n", i+1, c.Source, c.Similarity, len(c.Content))
	}

	for _, name := range []string{prompt.Input, prompt.Clarification} {
		color.Cyan("--- TEMPLATE %s: %s ---", name, templates.Source(name))
	}

	p := prompt.NewAnalysisBuilder(templates.AnalysisInstruction()).
		WithContext(retrieval.Contents(chunks)).
		WithQuery(query).
		Build()

	color.Cyan("--- PROMPT (%d chars) ---", len(p))
	fmt.Println(p)
}
