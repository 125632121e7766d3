// Package index pairs transcript segments with their embedding vectors
// and writes them to the vector store under content-derived identifiers.
package index

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/mhalloran/voicearch/internal/apierr"
	"github.com/mhalloran/voicearch/internal/pinecone"
	"github.com/mhalloran/voicearch/internal/transcript"
)

const (
	// DefaultBatchSize bounds upsert payloads to stay under the store's
	// request size limits.
	DefaultBatchSize = 100

	// digestPrefixLen is how much of the file digest goes into vector
	// identifiers. 16 hex chars (64 bits) is plenty for one archive.
	digestPrefixLen = 16
)

// Upserter is the slice of the vector store the indexer needs.
type Upserter interface {
	Upsert(ctx context.Context, namespace string, vectors []pinecone.Vector) error
}

// Indexer submits segment vectors to the store in bounded batches.
type Indexer struct {
	store      Upserter
	dimensions int
	batchSize  int
}

// Report describes a completed upsert.
type Report struct {
	UpsertedIDs []string `json:"upserted_ids"`
	Batches     int      `json:"batches"`
}

// NewIndexer creates an Indexer writing vectors of the given
// dimensionality. batchSize <= 0 selects DefaultBatchSize.
func NewIndexer(store Upserter, dimensions, batchSize int) *Indexer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Indexer{store: store, dimensions: dimensions, batchSize: batchSize}
}

// FileDigest returns the hex SHA-256 of the audio bytes. Vector identity
// is derived from it, so re-ingesting identical audio overwrites the
// previous records instead of accumulating duplicates.
func FileDigest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// VectorID returns the store identifier for segment i of the file with
// the given digest.
func VectorID(fileDigest string, i int) string {
	prefix := fileDigest
	if len(prefix) > digestPrefixLen {
		prefix = prefix[:digestPrefixLen]
	}
	return fmt.Sprintf("%s:%d", prefix, i)
}

// Upsert builds one record per segment and writes them in batches.
// A failing batch is surfaced as a PartialBatchFailure naming both the
// identifiers already written and the ones in the failed batch; it is
// never reported as success.
func (ix *Indexer) Upsert(ctx context.Context, segments []transcript.Segment, vectors [][]float32, fileDigest, namespace string) (*Report, error) {
	if len(vectors) != len(segments) {
		return nil, apierr.Validation("vectors", "got %d vectors for %d segments", len(vectors), len(segments))
	}
	if fileDigest == "" {
		return nil, apierr.Validation("fileDigest", "file digest is empty")
	}
	for i, v := range vectors {
		if len(v) != ix.dimensions {
			return nil, apierr.Validation("vectors", "vector %d has %d dimensions, want %d", i, len(v), ix.dimensions)
		}
	}

	records := make([]pinecone.Vector, len(segments))
	for i, seg := range segments {
		records[i] = pinecone.Vector{
			ID:     VectorID(fileDigest, i),
			Values: vectors[i],
			Metadata: map[string]interface{}{
				"text":    seg.Text,
				"speaker": seg.SpeakerLabel(),
				"start":   seg.Start,
				"end":     seg.End,
				"file":    seg.File,
				"session": seg.Session,
			},
		}
	}

	report := &Report{}
	for start := 0; start < len(records); start += ix.batchSize {
		end := start + ix.batchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]

		if err := ix.store.Upsert(ctx, namespace, batch); err != nil {
			failed := make([]string, len(batch))
			for i, r := range batch {
				failed[i] = r.ID
			}
			return report, &apierr.PartialBatchFailure{
				Upserted: report.UpsertedIDs,
				Failed:   failed,
				Err:      err,
			}
		}

		for _, r := range batch {
			report.UpsertedIDs = append(report.UpsertedIDs, r.ID)
		}
		report.Batches++
	}

	return report, nil
}
