package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/mhalloran/voicearch/internal/config"
	"github.com/mhalloran/voicearch/internal/deepgram"
	"github.com/mhalloran/voicearch/internal/index"
	"github.com/mhalloran/voicearch/internal/ingest"
	"github.com/mhalloran/voicearch/internal/redact"
	"github.com/mhalloran/voicearch/internal/storage"
)

var (
	ingestNamespace string
	ingestSession   string
	ingestWorkers   int
	ingestNoRedact  bool
	ingestNoLedger  bool
)

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringVarP(&ingestNamespace, "namespace", "n", "", "Vector store namespace (default from VA_NAMESPACE)")
	ingestCmd.Flags().StringVar(&ingestSession, "session", "", "Session ID to stamp on segments (default: fresh UUID)")
	ingestCmd.Flags().IntVarP(&ingestWorkers, "workers", "w", 0, "Transcription concurrency (default from VA_WORKERS)")
	ingestCmd.Flags().BoolVar(&ingestNoRedact, "no-redact", false, "Skip PII redaction even if VA_REDACT_PII is on")
	ingestCmd.Flags().BoolVar(&ingestNoLedger, "no-ledger", false, "Skip recording the ingest in the local ledger")
}

var ingestCmd = &cobra.Command{
	Use:   "ingest <audio>...",
	Short: "Transcribe, segment and index audio files",
	Long: `Ingest runs the full pipeline over each audio file: transcription with
diarization and timestamps, segmentation into speaker-aware chunks,
optional PII redaction, embedding, and vector store upsert.

Files are processed concurrently; a failure in one file does not stop
the others. Interrupting with Ctrl-C finishes files already in flight
and skips the rest.

Vector identifiers derive from a content hash of the audio, so
re-ingesting the same file overwrites its previous vectors.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	settings := loadSettings()
	requireKey(settings.DeepgramAPIKey, "DEEPGRAM_API_KEY")

	em := embedder(settings)
	store := vectorStore(settings)

	var filter redact.TextFilter = redact.Passthrough{}
	if settings.RedactPII && !ingestNoRedact {
		filter = redact.New()
	}

	var ledger *storage.DB
	if !ingestNoLedger {
		global, err := config.LoadGlobalConfig()
		if err != nil {
			exitWithError(ExitConfigError, "%v", err)
		}
		path := config.DefaultLedgerPath(global)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			exitWithError(ExitError, "creating ledger directory: %v", err)
		}
		ledger, err = storage.OpenDB(path)
		if err != nil {
			exitWithError(ExitError, "opening ledger: %v", err)
		}
		defer ledger.Close()
	}

	workers := settings.Workers
	if ingestWorkers > 0 {
		workers = ingestWorkers
	}
	namespace := settings.Namespace
	if ingestNamespace != "" {
		namespace = ingestNamespace
	}

	pipeline := &ingest.Pipeline{
		Transcriber: deepgram.NewClient(settings.DeepgramAPIKey),
		Embedder:    em,
		Indexer:     index.NewIndexer(store, em.Dimensions(), settings.BatchSize),
		Filter:      filter,
		Ledger:      ledger,
		Workers:     workers,
		MaxGap:      settings.MaxGap,
		MaxDuration: settings.MaxDuration,
	}

	// Ctrl-C stops between files; in-flight files are finished.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	report := pipeline.Run(ctx, args, namespace, ingestSession)

	if humanOutput {
		printIngestHuman(report, namespace)
	} else {
		outputJSON(report)
	}

	if report.Failed() > 0 {
		os.Exit(ExitError)
	}
	return nil
}

func printIngestHuman(report *ingest.Report, namespace string) {
	fmt.Printf("Session: %s (namespace %q)\n\n", report.Session, namespace)

	paths := make([]string, 0, len(report.Files))
	for path := range report.Files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		fr := report.Files[path]
		if fr.Err != nil {
			fmt.Printf("  %s: FAILED: %s\n", path, fr.Error)
			continue
		}
		fmt.Printf("  %s: %d segments, %d vectors upserted\n", path, fr.SegmentCount, len(fr.UpsertedIDs))
	}

	if failed := report.Failed(); failed > 0 {
		fmt.Printf("\n%d of %d files failed\n", failed, len(report.Files))
	}
}
