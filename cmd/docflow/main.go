// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/docflow"
	"github.com/poiesic/docflow/ai"
	"github.com/poiesic/docflow/core"
	"github.com/poiesic/docflow/pipeline"
)

func main() {
	app := &cli.App{
		Name:  "docflow",
		Usage: "Document ingestion pipeline: chunk, embed, tag, and catalog markdown documents",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Process one or more documents through the pipeline",
				ArgsUsage: "SOURCE_KEY...",
				Action:    ingestCommand,
				Flags: append(stackFlags(),
					&cli.StringFlag{
						Name:  "project",
						Usage: "Project name recorded on the documents",
					},
					&cli.StringFlag{
						Name:  "company",
						Usage: "Company name recorded on the documents",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Chunks per embed/tag batch",
						Value: pipeline.DefaultBatchSize,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts per step",
						Value: pipeline.DefaultMaxRetryAttempts,
					},
					&cli.DurationFlag{
						Name:  "retry-backoff",
						Usage: "Base delay for exponential backoff",
						Value: pipeline.DefaultRetryBackoff,
					},
				),
			},
			{
				Name:      "reprocess",
				Usage:     "Destructively restart a document from scratch",
				ArgsUsage: "SOURCE_KEY",
				Action:    reprocessCommand,
				Flags: append(stackFlags(),
					&cli.StringFlag{
						Name:  "project",
						Usage: "Project name recorded on the document",
					},
					&cli.StringFlag{
						Name:  "company",
						Usage: "Company name recorded on the document",
					},
				),
			},
			{
				Name:      "status",
				Usage:     "Show pipeline status for a document",
				ArgsUsage: "SOURCE_KEY",
				Action:    statusCommand,
				Flags:     stackFlags(),
			},
			{
				Name:      "search",
				Usage:     "Search indexed chunks by semantic similarity",
				ArgsUsage: "QUERY",
				Action:    searchCommand,
				Flags: append(stackFlags(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results",
						Value: 10,
					},
					&cli.Float64Flag{
						Name:  "min-similarity",
						Usage: "Minimum similarity score for a match",
						Value: 0.3,
					},
				),
			},
			{
				Name:   "list",
				Usage:  "List catalog documents",
				Action: listCommand,
				Flags:  stackFlags(),
			},
			{
				Name:      "delete",
				Usage:     "Remove a document's local state, and optionally its catalog rows",
				ArgsUsage: "SOURCE_KEY",
				Action:    deleteCommand,
				Flags: append(stackFlags(),
					&cli.BoolFlag{
						Name:  "prune-catalog",
						Usage: "Also delete the document from the catalog",
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// stackFlags are the flags shared by every command that opens the stack.
func stackFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "data",
			Aliases: []string{"d"},
			Usage:   "Directory holding local pipeline state",
			Value:   "./docflow-data",
		},
		&cli.StringFlag{
			Name:  "docs",
			Usage: "Root directory documents are read from",
			Value: ".",
		},
		&cli.StringFlag{
			Name:  "host",
			Usage: "OpenAI-compatible service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "embeddinggemma",
		},
		&cli.StringFlag{
			Name:  "tagger-model",
			Usage: "Chat model used for tag generation",
			Value: "qwen2.5:3b",
		},
	}
}

func openStack(c *cli.Context) (*docflow.Docflow, error) {
	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithTaggerModel(c.String("tagger-model")),
	)

	pipelineConfig := pipeline.DefaultConfig()
	if c.IsSet("batch-size") {
		pipelineConfig.BatchSize = c.Int("batch-size")
	}
	if c.IsSet("max-retries") {
		pipelineConfig.MaxRetryAttempts = c.Int("max-retries")
	}
	if c.IsSet("retry-backoff") {
		pipelineConfig.RetryBackoff = c.Duration("retry-backoff")
	}

	return docflow.New(c.String("data"), c.String("docs"),
		docflow.WithAIConfig(aiConfig),
		docflow.WithPipelineConfig(pipelineConfig),
	)
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one source key is required")
	}

	df, err := openStack(c)
	if err != nil {
		return fmt.Errorf("failed to open stack: %w", err)
	}
	defer df.Close()

	ctx := context.Background()
	manager := df.Manager()
	opts := &pipeline.StartOptions{
		Project: c.String("project"),
		Company: c.String("company"),
	}

	keys := c.Args().Slice()
	for _, key := range keys {
		if err := manager.Start(ctx, key, opts); err != nil {
			return fmt.Errorf("failed to start %s: %w", key, err)
		}
	}

	failed := 0
	for _, key := range keys {
		status, err := waitForDocument(ctx, manager, key)
		if err != nil {
			return err
		}
		printStatus(status)
		if status.Status == core.DocStatusFailed {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(keys))
	}
	return nil
}

func reprocessCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one source key is required")
	}
	key := c.Args().First()

	df, err := openStack(c)
	if err != nil {
		return fmt.Errorf("failed to open stack: %w", err)
	}
	defer df.Close()

	ctx := context.Background()
	manager := df.Manager()

	opts := &pipeline.StartOptions{
		Project: c.String("project"),
		Company: c.String("company"),
	}
	if err := manager.Reprocess(ctx, key, opts); err != nil {
		return fmt.Errorf("failed to reprocess %s: %w", key, err)
	}

	status, err := waitForDocument(ctx, manager, key)
	if err != nil {
		return err
	}
	printStatus(status)

	if status.Status == core.DocStatusFailed {
		return fmt.Errorf("document failed")
	}
	return nil
}

func statusCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one source key is required")
	}

	df, err := openStack(c)
	if err != nil {
		return fmt.Errorf("failed to open stack: %w", err)
	}
	defer df.Close()

	status, err := df.Manager().Status(context.Background(), c.Args().First())
	if err != nil {
		return err
	}
	printStatus(status)
	return nil
}

func searchCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one query string is required")
	}

	df, err := openStack(c)
	if err != nil {
		return fmt.Errorf("failed to open stack: %w", err)
	}
	defer df.Close()

	ctx := context.Background()
	vector, err := df.Provider().Embedder().EmbedText(ctx, c.Args().First())
	if err != nil {
		return fmt.Errorf("failed to embed query: %w", err)
	}

	matches, err := df.VectorIndex().Search(ctx, vector,
		float32(c.Float64("min-similarity")), c.Int("limit"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(matches) == 0 {
		fmt.Println("No matches.")
		return nil
	}
	for _, match := range matches {
		fmt.Printf("%.4f  %s (chunk %d)\n", match.Score, match.Entry.SourceKey, match.Entry.Index)
	}
	return nil
}

func listCommand(c *cli.Context) error {
	df, err := openStack(c)
	if err != nil {
		return fmt.Errorf("failed to open stack: %w", err)
	}
	defer df.Close()

	docs, err := df.Catalog().ListDocuments(context.Background())
	if err != nil {
		return err
	}

	for _, doc := range docs {
		fmt.Printf("%s  project=%s company=%s tags=%s\n",
			doc.SourceKey, doc.Project, doc.Company, strings.Join(doc.Tags, ","))
	}
	fmt.Printf("%d documents\n", len(docs))
	return nil
}

func deleteCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one source key is required")
	}
	key := c.Args().First()

	df, err := openStack(c)
	if err != nil {
		return fmt.Errorf("failed to open stack: %w", err)
	}
	defer df.Close()

	ctx := context.Background()
	if err := df.Manager().Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}

	if c.Bool("prune-catalog") {
		if err := df.Catalog().DeleteDocument(ctx, key); err != nil {
			return fmt.Errorf("failed to prune catalog entry for %s: %w", key, err)
		}
	}

	fmt.Printf("Deleted %s\n", key)
	return nil
}

// waitForDocument polls until the document reaches a terminal status or a
// retry is no longer pending.
func waitForDocument(ctx context.Context, manager *pipeline.Manager, sourceKey string) (*pipeline.DocumentStatus, error) {
	for {
		status, err := manager.Status(ctx, sourceKey)
		if err != nil {
			return nil, err
		}
		if status.Status != core.DocStatusProcessing {
			return status, nil
		}
		if manager.Idle() {
			// The run finished between the two reads; re-fetch the final
			// state rather than returning the stale snapshot.
			return manager.Status(ctx, sourceKey)
		}
		time.Sleep(100 * time.Millisecond)
	}
}

func printStatus(status *pipeline.DocumentStatus) {
	fmt.Printf("%s: %s (step=%s, %.0f%%, chunks %d/%d)\n",
		status.SourceKey, status.Status, status.CurrentStep,
		status.Progress, status.ProcessedChunks, status.TotalChunks)
	if status.DocumentID != "" {
		fmt.Printf("  catalog id: %s\n", status.DocumentID)
	}
	if !status.CompletedAt.IsZero() {
		fmt.Printf("  completed in %s\n", status.CompletedAt.Sub(status.StartedAt).Round(time.Millisecond))
	}
	for _, procErr := range status.Errors {
		kind := "fatal"
		if procErr.Retryable {
			kind = "retryable"
		}
		fmt.Printf("  error [%s/%s]: %s\n", procErr.Step, kind, procErr.Message)
	}
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
