package rag

import "strings"

// Chunking defaults: targets chunks small enough to embed well while the
// overlap keeps passages that straddle a boundary retrievable from either
// side.
const (
	DefaultChunkSize    = 750
	DefaultChunkOverlap = 100
)

var separators = []string{"\n\n", "\n", " ", ""}

// SplitText splits text into chunks of at most size bytes with roughly
// overlap bytes shared between consecutive chunks. Splitting prefers
// paragraph breaks, then lines, then words, only cutting mid-word when a
// single word exceeds the chunk size.
func SplitText(text string, size, overlap int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = DefaultChunkOverlap
	}

	pieces := splitRecursive(text, size, separators)
	return mergePieces(pieces, size, overlap)
}

// splitRecursive cuts text on the coarsest separator that yields pieces
// no larger than size, descending to finer separators for oversized
// pieces.
func splitRecursive(text string, size int, seps []string) []string {
	if len(text) <= size {
		if strings.TrimSpace(text) == "" {
			return nil
		}
		return []string{text}
	}
	if len(seps) == 0 {
		return hardSplit(text, size)
	}

	sep := seps[0]
	if sep == "" {
		return hardSplit(text, size)
	}

	var out []string
	for _, part := range strings.Split(text, sep) {
		if strings.TrimSpace(part) == "" {
			continue
		}
		if len(part) <= size {
			out = append(out, part)
		} else {
			out = append(out, splitRecursive(part, size, seps[1:])...)
		}
	}
	return out
}

func hardSplit(text string, size int) []string {
	var out []string
	for len(text) > size {
		out = append(out, text[:size])
		text = text[size:]
	}
	if text != "" {
		out = append(out, text)
	}
	return out
}

// mergePieces packs small pieces back together up to size, carrying the
// trailing overlap bytes of each emitted chunk into the next.
func mergePieces(pieces []string, size, overlap int) []string {
	var chunks []string
	var cur strings.Builder
	seed := "" // overlap carried from the previous chunk

	flush := func() {
		chunk := strings.TrimSpace(cur.String())
		cur.Reset()
		seed = ""
		if chunk == "" {
			return
		}
		chunks = append(chunks, chunk)
		if overlap > 0 && len(chunk) > overlap {
			tail := chunk[len(chunk)-overlap:]
			// Start the overlap at a word boundary when possible.
			if i := strings.IndexByte(tail, ' '); i >= 0 && i+1 < len(tail) {
				tail = tail[i+1:]
			}
			seed = tail
		}
	}

	for _, piece := range pieces {
		if cur.Len() > 0 && cur.Len()+len(piece)+1 > size {
			flush()
			// Seed the next chunk with the overlap only when the piece
			// still fits alongside it.
			if seed != "" && len(seed)+len(piece)+1 <= size {
				cur.WriteString(seed)
			}
			seed = ""
		}
		if cur.Len() > 0 {
			cur.WriteString(" ")
		}
		cur.WriteString(piece)
	}
	flush()

	return chunks
}
