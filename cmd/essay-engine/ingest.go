// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/essay-engine/internal/embed"
	"github.com/pdiddy/essay-engine/internal/index"
	"github.com/pdiddy/essay-engine/internal/ingest"
	"github.com/pdiddy/essay-engine/pkg/types"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Chunk and embed source documents into the vector index",
	Long: `Ingest reads .txt, .md, and .pdf files from the resources directory,
splits them into overlapping chunks, embeds each chunk, and stores the
result in the vector index. PDF chunks keep their page number for
citation provenance.

The index collection is named after the embedding model, so retrieval
must run with the same model ingest used.`,
	RunE: runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	resourcesDir, _ := cmd.Flags().GetString("resources-dir")
	chunkSize, _ := cmd.Flags().GetInt("chunk-size")
	overlapPct, _ := cmd.Flags().GetFloat64("overlap")
	maxConcurrent, _ := cmd.Flags().GetInt("max-concurrent")

	embedder, err := embed.New(embeddingConfig(cmd))
	if err != nil {
		return err
	}

	idx, err := index.New(indexConfig(cmd), embedder.Model())
	if err != nil {
		return err
	}
	defer idx.Close()

	ing := ingest.NewIngestor(embedder, idx, types.IngestConfig{
		ResourcesDir:  resourcesDir,
		ChunkSize:     chunkSize,
		OverlapPct:    overlapPct,
		MaxConcurrent: maxConcurrent,
	}, os.Stdout)

	summary, err := ing.IngestAll(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("ingested %d, skipped %d, failed %d\n", summary.Ingested, summary.Skipped, summary.Failed)
	if summary.HasFailures() {
		return fmt.Errorf("%d file(s) failed ingestion", summary.Failed)
	}
	return nil
}

func init() {
	ingestCmd.Flags().String("resources-dir", "resources", "directory of source documents")
	ingestCmd.Flags().Int("chunk-size", 256, "maximum chunk length in characters")
	ingestCmd.Flags().Float64("overlap", 0.1, "fraction of a chunk repeated in the next chunk")
	ingestCmd.Flags().Int("max-concurrent", 3, "parallel embedding calls")
	addEmbeddingFlags(ingestCmd)
	addIndexFlags(ingestCmd)

	rootCmd.AddCommand(ingestCmd)
}
