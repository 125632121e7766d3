// Package retrieve turns raw nearest-neighbor matches into a ranked,
// de-duplicated, diverse result list via Maximal Marginal Relevance.
package retrieve

import (
	"context"

	"github.com/mhalloran/voicearch/internal/apierr"
	"github.com/mhalloran/voicearch/internal/pinecone"
)

const (
	// DefaultLambda trades relevance against diversity in MMR scoring.
	DefaultLambda = 0.6

	// DefaultPoolMultiplier sizes the candidate pool relative to the
	// requested result count, giving the reranker material to work with.
	DefaultPoolMultiplier = 4
)

// Result is one search result, in final MMR selection order.
type Result struct {
	ID       string                 `json:"id"`
	Score    float32                `json:"score"` // original similarity from the store
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	values   []float32              // stored vector, when returned
}

// Text returns the segment text from metadata.
func (r Result) Text() string { return r.metaString("text") }

// File returns the source file identifier from metadata.
func (r Result) File() string { return r.metaString("file") }

// Speaker returns the speaker label from metadata.
func (r Result) Speaker() string { return r.metaString("speaker") }

// Session returns the ingest session identifier from metadata.
func (r Result) Session() string { return r.metaString("session") }

// Start returns the segment start time in seconds.
func (r Result) Start() float64 { return r.metaFloat("start") }

// End returns the segment end time in seconds.
func (r Result) End() float64 { return r.metaFloat("end") }

func (r Result) metaString(key string) string {
	if r.Metadata == nil {
		return ""
	}
	if s, ok := r.Metadata[key].(string); ok {
		return s
	}
	return ""
}

func (r Result) metaFloat(key string) float64 {
	if r.Metadata == nil {
		return 0
	}
	if f, ok := r.Metadata[key].(float64); ok {
		return f
	}
	return 0
}

// Querier is the slice of the vector store the retriever needs.
type Querier interface {
	Query(ctx context.Context, req pinecone.QueryRequest) ([]pinecone.Match, error)
}

// Retriever queries the vector store and reranks the candidates.
type Retriever struct {
	store          Querier
	dimensions     int
	lambda         float64
	poolMultiplier int
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithLambda sets the MMR relevance/diversity tradeoff (0..1, where 1 is
// pure relevance).
func WithLambda(lambda float64) Option {
	return func(r *Retriever) {
		r.lambda = lambda
	}
}

// WithPoolMultiplier sets the candidate pool size as a multiple of topK.
func WithPoolMultiplier(m int) Option {
	return func(r *Retriever) {
		r.poolMultiplier = m
	}
}

// NewRetriever creates a Retriever for queries of the given
// dimensionality.
func NewRetriever(store Querier, dimensions int, opts ...Option) *Retriever {
	r := &Retriever{
		store:          store,
		dimensions:     dimensions,
		lambda:         DefaultLambda,
		poolMultiplier: DefaultPoolMultiplier,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Search runs a nearest-neighbor query and applies threshold filtering,
// per-file de-duplication and MMR reranking. The returned list holds at
// most topK results in MMR selection order. An empty pool after
// filtering yields an empty list, not an error.
func (r *Retriever) Search(ctx context.Context, queryVec []float32, topK int, threshold float32, namespace string, filter map[string]interface{}) ([]Result, error) {
	if len(queryVec) != r.dimensions {
		return nil, apierr.Validation("query", "vector has %d dimensions, want %d", len(queryVec), r.dimensions)
	}
	if topK <= 0 {
		return nil, apierr.Validation("topK", "must be positive, got %d", topK)
	}

	poolSize := topK * r.poolMultiplier
	if poolSize < topK {
		poolSize = topK
	}

	matches, err := r.store.Query(ctx, pinecone.QueryRequest{
		Vector:          queryVec,
		TopK:            poolSize,
		Namespace:       namespace,
		Filter:          filter,
		IncludeMetadata: true,
		IncludeValues:   true,
	})
	if err != nil {
		return nil, err
	}

	pool := make([]Result, 0, len(matches))
	for _, m := range matches {
		if m.Score < threshold {
			continue
		}
		pool = append(pool, Result{
			ID:       m.ID,
			Score:    m.Score,
			Metadata: m.Metadata,
			values:   m.Values,
		})
	}

	pool = dedupe(pool)
	return rerank(pool, topK, r.lambda), nil
}

// dedupe drops candidates whose normalized text exactly matches a
// higher-ranked candidate's from the same file. Candidates arrive ranked
// by score descending, so keeping the first occurrence keeps the higher
// original score.
func dedupe(pool []Result) []Result {
	seen := make(map[string]bool, len(pool))
	out := pool[:0]
	for _, c := range pool {
		key := c.File() + "\x00" + normalizeText(c.Text())
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}

// rerank applies MMR selection: each step picks the candidate maximizing
// lambda*relevance - (1-lambda)*maxSimilarity(candidate, selected).
// Selection is deterministic: candidates are scanned in pool order and
// only a strictly greater MMR score displaces the current best.
func rerank(pool []Result, topK int, lambda float64) []Result {
	if len(pool) == 0 {
		return []Result{}
	}

	selected := make([]Result, 0, topK)
	remaining := make([]Result, len(pool))
	copy(remaining, pool)

	for len(selected) < topK && len(remaining) > 0 {
		bestIdx := 0
		bestScore := mmrScore(remaining[0], selected, lambda)
		for i := 1; i < len(remaining); i++ {
			if score := mmrScore(remaining[i], selected, lambda); score > bestScore {
				bestIdx = i
				bestScore = score
			}
		}
		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	return selected
}

func mmrScore(candidate Result, selected []Result, lambda float64) float64 {
	var maxSim float64
	for _, s := range selected {
		if sim := float64(pairSimilarity(candidate, s)); sim > maxSim {
			maxSim = sim
		}
	}
	return lambda*float64(candidate.Score) - (1-lambda)*maxSim
}

// pairSimilarity compares two candidates by their stored vectors, falling
// back to text token overlap when the store did not return values.
func pairSimilarity(a, b Result) float32 {
	if len(a.values) > 0 && len(b.values) > 0 {
		return CosineSimilarity(a.values, b.values)
	}
	return textSimilarity(a.Text(), b.Text())
}
