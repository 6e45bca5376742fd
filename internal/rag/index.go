package rag

import (
	"fmt"
	"math"

	"github.com/fogfish/hnsw"
	"github.com/fogfish/hnsw/vector"
	kvector "github.com/kshard/vector"
)

// Chunk is one retrievable span of a corpus document.
type Chunk struct {
	ID       uint32 `json:"-"`
	Content  string `json:"content"`
	Source   string `json:"source"`
	Position int    `json:"position"`
}

// Scored pairs a chunk with its cosine similarity to a query.
type Scored struct {
	Chunk
	Score float64 `json:"score"`
}

// Index is an in-memory cosine nearest-neighbor index over chunks. It is
// built once at startup and immutable afterwards; concurrent reads need
// no locking.
type Index struct {
	index  *hnsw.HNSW[vector.VF32]
	chunks map[uint32]Chunk
	vecs   map[uint32][]float32
	next   uint32
}

func NewIndex() *Index {
	return &Index{
		index:  hnsw.New[vector.VF32](vector.SurfaceVF32(kvector.Cosine())),
		chunks: make(map[uint32]Chunk),
		vecs:   make(map[uint32][]float32),
	}
}

// Add inserts a chunk with its embedding, assigning the chunk id.
func (ix *Index) Add(c Chunk, vec []float32) error {
	if len(vec) == 0 {
		return fmt.Errorf("empty embedding for chunk from %s", c.Source)
	}
	if ix.index.Size() > 0 {
		dim := len(ix.index.Head().Vec)
		if len(vec) != dim {
			return fmt.Errorf("embedding dimension mismatch: expected %d, got %d", dim, len(vec))
		}
	}

	ix.next++
	c.ID = ix.next
	ix.index.Insert(vector.VF32{Key: c.ID, Vec: vec})
	ix.chunks[c.ID] = c
	ix.vecs[c.ID] = vec
	return nil
}

// Len returns the number of indexed chunks.
func (ix *Index) Len() int { return len(ix.chunks) }

// Search returns up to k chunks ordered most similar first.
func (ix *Index) Search(vec []float32, k int) []Scored {
	if ix.Len() == 0 || k <= 0 {
		return nil
	}

	ef := k * 2
	if ef < 100 {
		ef = 100
	}
	results := ix.index.Search(vector.VF32{Vec: vec}, k, ef)

	scored := make([]Scored, 0, len(results))
	for _, r := range results {
		c, ok := ix.chunks[r.Key]
		if !ok {
			continue
		}
		scored = append(scored, Scored{
			Chunk: c,
			Score: cosineSimilarity(vec, ix.vecs[r.Key]),
		})
	}
	return scored
}

// cosineSimilarity computes dot(a,b) / (||a|| * ||b||), returning 0 for
// mismatched or degenerate inputs.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}
	result := dot / denom
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return 0
	}
	return result
}
