// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/essay-engine/internal/embed"
	"github.com/pdiddy/essay-engine/internal/index"
	"github.com/pdiddy/essay-engine/internal/llm"
	"github.com/pdiddy/essay-engine/internal/retrieval"
	"github.com/pdiddy/essay-engine/pkg/types"
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve [question]",
	Short: "Run the retrieval pipeline for a single question",
	Long: `Retrieve expands the question into search queries, fetches nearest
neighbours from the vector index, validates each candidate against the
original question, and prints the surviving chunks ranked by relevance.

Intended for inspecting what evidence the essay pipeline would use for
a given sub-question.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRetrieve,
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")
	topK, _ := cmd.Flags().GetInt("top-k")
	asJSON, _ := cmd.Flags().GetBool("json")

	embedder, err := embed.New(embeddingConfig(cmd))
	if err != nil {
		return err
	}

	idx, err := index.New(indexConfig(cmd), embedder.Model())
	if err != nil {
		return err
	}
	defer idx.Close()

	// Expansion and validation are classification-style calls and run
	// at temperature 0.
	classifier, err := llm.New(types.AIConfig{
		Backend: viper.GetString("essay.backend"),
		Model:   viper.GetString("essay.model"),
		APIKey:  secretDefault("anthropic-api-key", viper.GetString("essay.api_key")),
	})
	if err != nil {
		return err
	}

	r := retrieval.NewRetriever(
		retrieval.NewExpander(classifier),
		retrieval.NewValidator(classifier),
		embedder,
		idx,
		types.RetrievalConfig{TopK: topK},
		os.Stderr,
	)

	chunks, err := r.Retrieve(context.Background(), question, topK)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(chunks)
	}

	if len(chunks) == 0 {
		fmt.Println("no relevant chunks found")
		return nil
	}
	for i, sc := range chunks {
		fmt.Printf("%2d. [%.3f] %s (page %d)\n", i+1, sc.RelevanceScore, sc.Chunk.Source.Title, sc.Chunk.Source.Page)
		fmt.Printf("    %s\n", sc.Chunk.Content)
	}
	return nil
}

func init() {
	retrieveCmd.Flags().Int("top-k", 5, "nearest neighbours fetched per expanded query")
	retrieveCmd.Flags().Bool("json", false, "output results as JSON")
	addEmbeddingFlags(retrieveCmd)
	addIndexFlags(retrieveCmd)

	rootCmd.AddCommand(retrieveCmd)
}
