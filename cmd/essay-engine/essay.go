// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/essay-engine/internal/embed"
	"github.com/pdiddy/essay-engine/internal/essay"
	"github.com/pdiddy/essay-engine/internal/index"
	"github.com/pdiddy/essay-engine/internal/llm"
	"github.com/pdiddy/essay-engine/internal/question"
	"github.com/pdiddy/essay-engine/internal/retrieval"
	"github.com/pdiddy/essay-engine/pkg/types"
)

var essayCmd = &cobra.Command{
	Use:   "essay [topic]",
	Short: "Generate a complete essay for a topic",
	Long: `Essay runs the full pipeline: the topic is decomposed into
sub-questions, each sub-question retrieves validated evidence from the
vector index and becomes one body paragraph, and an introduction and
summary frame the result.

The assembled essay goes to stdout. Failed sections appear as marked
placeholders rather than being dropped. Use --output to also write a
YAML artifact with per-section status.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEssay,
}

func runEssay(cmd *cobra.Command, args []string) error {
	topic := strings.Join(args, " ")
	topK, _ := cmd.Flags().GetInt("top-k")
	maxConcurrent, _ := cmd.Flags().GetInt("max-concurrent")
	outputPath, _ := cmd.Flags().GetString("output")

	embedder, err := embed.New(embeddingConfig(cmd))
	if err != nil {
		return err
	}

	idx, err := index.New(indexConfig(cmd), embedder.Model())
	if err != nil {
		return err
	}
	defer idx.Close()

	genCfg := aiConfig(cmd)

	// Prose generation keeps the configured temperature; expansion and
	// validation are classification calls and run at temperature 0.
	writer, err := llm.New(genCfg)
	if err != nil {
		return err
	}
	classifierCfg := genCfg
	classifierCfg.Temperature = 0
	classifier, err := llm.New(classifierCfg)
	if err != nil {
		return err
	}

	retriever := retrieval.NewRetriever(
		retrieval.NewExpander(classifier),
		retrieval.NewValidator(classifier),
		embedder,
		idx,
		types.RetrievalConfig{TopK: topK},
		os.Stderr,
	)

	generator := essay.NewGenerator(
		question.NewBuilder(writer),
		retriever,
		essay.NewParagraphWriter(writer),
		essay.NewIntroWriter(writer),
		essay.NewSummaryWriter(writer),
		types.EssayConfig{AIConfig: genCfg, MaxConcurrent: maxConcurrent},
		os.Stderr,
	)

	result, err := generator.Generate(context.Background(), topic)
	if err != nil {
		return err
	}

	fmt.Println(result.Text)

	if outputPath != "" {
		if err := writeArtifact(outputPath, result); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "wrote artifact to %s\n", outputPath)
	}
	return nil
}

// writeArtifact stores the essay with its per-section records as YAML
// so failed sections can be audited after the run.
func writeArtifact(path string, e types.Essay) error {
	data, err := yaml.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshaling essay artifact: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing essay artifact: %w", err)
	}
	return nil
}

func init() {
	essayCmd.Flags().String("backend", "", "generation backend: claude or ollama (default claude)")
	essayCmd.Flags().String("model", "", "generation model identifier")
	essayCmd.Flags().Float64("temperature", 0.7, "sampling temperature for prose generation")
	essayCmd.Flags().Int("top-k", 5, "nearest neighbours fetched per expanded query")
	essayCmd.Flags().Int("max-concurrent", 2, "sub-question pipelines run in parallel")
	essayCmd.Flags().String("output", "", "path for the YAML essay artifact")
	addEmbeddingFlags(essayCmd)
	addIndexFlags(essayCmd)

	rootCmd.AddCommand(essayCmd)
}
