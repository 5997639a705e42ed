package classify

import (
	"context"
	"fmt"
	"math"
)

// Embedding is a vector embedding of text.
type Embedding struct {
	Vector []float32
}

// Dimensions returns the dimensionality of the embedding.
func (e Embedding) Dimensions() int { return len(e.Vector) }

// Provider generates embeddings from text.
type Provider interface {
	// Embed generates an embedding for the given text.
	Embed(ctx context.Context, text string) (Embedding, error)

	// ModelName returns the name of the embedding model.
	ModelName() string

	// Dimensions returns the expected vector dimensions.
	Dimensions() int
}

// CosineSimilarity computes the cosine similarity of two embeddings.
func CosineSimilarity(a, b Embedding) (float64, error) {
	if len(a.Vector) != len(b.Vector) {
		return 0, fmt.Errorf("dimension mismatch: %d vs %d", len(a.Vector), len(b.Vector))
	}
	var dot, na, nb float64
	for i := range a.Vector {
		dot += float64(a.Vector[i]) * float64(b.Vector[i])
		na += float64(a.Vector[i]) * float64(a.Vector[i])
		nb += float64(b.Vector[i]) * float64(b.Vector[i])
	}
	if na == 0 || nb == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), nil
}
