// Package embedding provides vector embedding generation for text.
package embedding

import "context"

// Provider generates embeddings from text. Document and query embeddings
// are requested separately because embedding models distinguish the two
// input types.
type Provider interface {
	// EmbedDocuments generates one embedding per input text, in order.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a search query.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// ModelName returns the name of the embedding model.
	ModelName() string

	// Dimensions returns the expected vector dimensions.
	Dimensions() int
}
