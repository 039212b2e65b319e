// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import "strings"

// Chunk splits text into overlapping pieces of at most chunkSize
// characters, overlapping by overlapPct of the chunk size. Boundaries
// prefer whitespace so words are not cut mid-token. Overlap keeps
// context that a hard boundary would sever from landing in neither
// chunk's embedding.
func Chunk(text string, chunkSize int, overlapPct float64) []string {
	if chunkSize <= 0 {
		chunkSize = 256
	}
	if overlapPct < 0 || overlapPct >= 1 {
		overlapPct = 0.1
	}
	overlap := int(float64(chunkSize) * overlapPct)

	runes := []rune(text)
	var chunks []string

	start := 0
	for start < len(runes) {
		end := start + chunkSize
		if end >= len(runes) {
			end = len(runes)
		} else {
			// Back up to the last whitespace inside the window, if
			// there is one past the midpoint.
			if i := lastSpace(runes[start:end]); i > chunkSize/2 {
				end = start + i
			}
		}

		piece := strings.TrimSpace(string(runes[start:end]))
		if piece != "" {
			chunks = append(chunks, piece)
		}

		if end == len(runes) {
			break
		}
		next := end - overlap
		if next <= start {
			next = end
		}
		// Overlap starts may land mid-word; advance to the next word
		// boundary so no chunk begins with a fragment.
		for next < end && next > 0 && !isSpace(runes[next-1]) {
			next++
		}
		start = next
	}
	return chunks
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return false
}

func lastSpace(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if isSpace(runes[i]) {
			return i
		}
	}
	return -1
}
