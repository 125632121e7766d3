// Package ingest runs the batch pipeline: transcribe each audio file,
// segment and redact the transcript, embed the segments, and upsert the
// vectors. Files are processed by a bounded worker pool; one failing
// file never aborts the batch.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/mhalloran/voicearch/internal/apierr"
	"github.com/mhalloran/voicearch/internal/deepgram"
	"github.com/mhalloran/voicearch/internal/embedding"
	"github.com/mhalloran/voicearch/internal/index"
	"github.com/mhalloran/voicearch/internal/redact"
	"github.com/mhalloran/voicearch/internal/storage"
	"github.com/mhalloran/voicearch/internal/transcript"
)

// DefaultWorkers is the default transcription concurrency.
const DefaultWorkers = 5

// retryMaxElapsed caps how long one embed or upsert call is retried on
// transient failures before the file is reported as failed.
const retryMaxElapsed = 2 * time.Minute

// Transcriber is the slice of the speech-to-text service the pipeline
// needs.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) ([]transcript.Word, error)
}

// Pipeline wires the pipeline stages together. Transcriber, Embedder and
// Indexer are required; Filter defaults to passthrough, Ledger is
// optional.
type Pipeline struct {
	Transcriber Transcriber
	Embedder    embedding.Provider
	Indexer     *index.Indexer
	Filter      redact.TextFilter
	Ledger      *storage.DB

	Workers     int
	MaxGap      float64
	MaxDuration float64
}

// FileResult is the outcome for one input file.
type FileResult struct {
	File         string   `json:"file"`
	Digest       string   `json:"digest,omitempty"`
	SegmentCount int      `json:"segment_count"`
	UpsertedIDs  []string `json:"upserted_ids,omitempty"`
	Error        string   `json:"error,omitempty"`

	Err error `json:"-"`
}

// Report is the outcome of one batch run.
type Report struct {
	Session string                `json:"session"`
	Files   map[string]FileResult `json:"files"`
}

// Failed returns the number of files that did not index.
func (r *Report) Failed() int {
	var n int
	for _, fr := range r.Files {
		if fr.Err != nil {
			n++
		}
	}
	return n
}

// Run processes the given audio files into the namespace. session names
// the run; an empty session gets a fresh UUID. Cancellation is
// cooperative between files: workers finish the file in flight, then
// stop, and unstarted files are reported with the context error.
func (p *Pipeline) Run(ctx context.Context, paths []string, namespace, session string) *Report {
	if session == "" {
		session = uuid.NewString()
	}
	workers := p.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if workers > len(paths) {
		workers = len(paths)
	}
	filter := p.Filter
	if filter == nil {
		filter = redact.Passthrough{}
	}

	if p.Ledger != nil {
		if err := p.Ledger.RecordSession(session, namespace); err != nil {
			// Ledger trouble shouldn't block indexing; the report notes it per file.
			fmt.Fprintf(os.Stderr, "ledger: %v\n", err)
		}
	}

	report := &Report{Session: session, Files: make(map[string]FileResult, len(paths))}

	jobs := make(chan string)
	results := make(chan FileResult)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				select {
				case <-ctx.Done():
					results <- FileResult{File: path, Err: ctx.Err(), Error: ctx.Err().Error()}
					continue
				default:
				}
				results <- p.processFile(ctx, path, namespace, session, filter)
			}
		}()
	}

	go func() {
		for _, path := range paths {
			jobs <- path
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	for fr := range results {
		report.Files[fr.File] = fr
	}
	return report
}

func (p *Pipeline) processFile(ctx context.Context, path, namespace, session string, filter redact.TextFilter) FileResult {
	result := FileResult{File: path}

	fail := func(err error) FileResult {
		result.Err = err
		result.Error = err.Error()
		return result
	}

	audio, err := os.ReadFile(path)
	if err != nil {
		return fail(fmt.Errorf("reading audio: %w", err))
	}
	if len(audio) == 0 {
		return fail(apierr.Validation("audio", "file %s is empty", path))
	}
	result.Digest = index.FileDigest(audio)

	words, err := p.Transcriber.Transcribe(ctx, audio, deepgram.GuessMIMEType(path))
	if err != nil {
		return fail(fmt.Errorf("transcribing: %w", err))
	}

	name := filepath.Base(path)
	segments, err := transcript.SegmentWords(words, transcript.Options{
		MaxGap:      p.MaxGap,
		MaxDuration: p.MaxDuration,
		File:        name,
		Session:     session,
	})
	if err != nil {
		return fail(fmt.Errorf("segmenting: %w", err))
	}
	if len(segments) == 0 {
		return result
	}

	// Redact before anything leaves the process; sensitive spans must
	// never reach the embedding service or the store.
	texts := make([]string, len(segments))
	for i := range segments {
		segments[i].Text = filter.Filter(segments[i].Text)
		texts[i] = segments[i].Text
	}
	result.SegmentCount = len(segments)

	var vectors [][]float32
	err = retryTransient(ctx, func() error {
		var embedErr error
		vectors, embedErr = p.Embedder.EmbedDocuments(ctx, texts)
		return embedErr
	})
	if err != nil {
		return fail(fmt.Errorf("embedding: %w", err))
	}

	var upsertReport *index.Report
	err = retryTransient(ctx, func() error {
		var upsertErr error
		upsertReport, upsertErr = p.Indexer.Upsert(ctx, segments, vectors, result.Digest, namespace)
		return upsertErr
	})
	if upsertReport != nil {
		result.UpsertedIDs = upsertReport.UpsertedIDs
	}
	if err != nil {
		return fail(fmt.Errorf("upserting: %w", err))
	}

	if p.Ledger != nil {
		rec := storage.FileRecord{
			Digest:       result.Digest,
			SessionID:    session,
			Name:         name,
			SegmentCount: len(segments),
			VectorCount:  len(result.UpsertedIDs),
		}
		if err := p.Ledger.RecordFile(rec); err != nil {
			return fail(fmt.Errorf("recording ingest: %w", err))
		}
	}

	return result
}

// retryTransient retries op with capped exponential backoff, but only
// for transient service errors; validation and permanent failures are
// returned immediately.
func retryTransient(ctx context.Context, op func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = retryMaxElapsed

	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if apierr.IsTransient(err) {
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(bo, ctx))
}
