// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package essay

import (
	"fmt"
	"strings"

	"github.com/pdiddy/essay-engine/pkg/types"
)

const chunkSeparator = "--------------------------------------------------"

// FormatChunks renders retrieved evidence as the resources block of the
// paragraph prompt: provenance, content, and page per chunk, separated
// by a dash rule so the model can tell chunks apart.
func FormatChunks(chunks []types.ScoredChunk) string {
	if len(chunks) == 0 {
		return "No resources available."
	}

	var b strings.Builder
	for i, sc := range chunks {
		if i > 0 {
			b.WriteString(chunkSeparator)
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Source: %s\n", sc.Chunk.Source.Title)
		fmt.Fprintf(&b, "Content: %s\n", sc.Chunk.Content)
		fmt.Fprintf(&b, "Page: %d\n", sc.Chunk.Source.Page)
	}
	return b.String()
}
