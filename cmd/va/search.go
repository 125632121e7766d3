package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mhalloran/voicearch/internal/apierr"
	"github.com/mhalloran/voicearch/internal/evaluate"
	"github.com/mhalloran/voicearch/internal/retrieve"
)

var (
	searchTopK      int
	searchThreshold float64
	searchLambda    float64
	searchNamespace string
	searchSession   string
	searchRelevant  string
)

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 0, "Maximum number of results (default from VA_TOP_K)")
	searchCmd.Flags().Float64VarP(&searchThreshold, "threshold", "t", -2, "Minimum similarity threshold (default from VA_THRESHOLD)")
	searchCmd.Flags().Float64Var(&searchLambda, "lambda", -1, "MMR relevance/diversity tradeoff in [0,1] (default from VA_MMR_LAMBDA)")
	searchCmd.Flags().StringVarP(&searchNamespace, "namespace", "n", "", "Vector store namespace (default from VA_NAMESPACE)")
	searchCmd.Flags().StringVar(&searchSession, "session", "", "Limit results to one ingest session")
	searchCmd.Flags().StringVar(&searchRelevant, "relevant", "", "Comma- or newline-separated vector IDs known relevant; adds an evaluation report")
}

// ResultView is one search result in command output.
type ResultView struct {
	ID      string  `json:"id"`
	Score   float32 `json:"score"`
	Text    string  `json:"text"`
	Speaker string  `json:"speaker"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	File    string  `json:"file"`
	Session string  `json:"session"`
}

// SearchResponse is the response for the search command.
type SearchResponse struct {
	Query      string           `json:"query"`
	Results    []ResultView     `json:"results"`
	Total      int              `json:"total"`
	Threshold  float64          `json:"threshold"`
	Lambda     float64          `json:"lambda"`
	Model      string           `json:"model"`
	Evaluation *evaluate.Report `json:"evaluation,omitempty"`
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the archive by meaning",
	Long: `Search embeds the query and retrieves the most similar transcript
segments, then de-duplicates repeated text from the same file and
reranks with Maximal Marginal Relevance so the top results are both
relevant and diverse.

Pass --relevant with known-relevant vector IDs to also get nDCG, recall
and reciprocal-rank scores for the returned ranking.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(args[0])
	if query == "" {
		exitWithError(ExitDataError, "search query cannot be empty")
	}

	settings := loadSettings()
	em := embedder(settings)
	store := vectorStore(settings)

	topK := settings.TopK
	if searchTopK > 0 {
		topK = searchTopK
	}
	threshold := settings.Threshold
	if searchThreshold >= -1 {
		threshold = searchThreshold
	}
	lambda := settings.MMRLambda
	if searchLambda >= 0 {
		if searchLambda > 1 {
			exitWithError(ExitDataError, "lambda must be in [0, 1], got %g", searchLambda)
		}
		lambda = searchLambda
	}
	namespace := settings.Namespace
	if searchNamespace != "" {
		namespace = searchNamespace
	}

	var filter map[string]interface{}
	if searchSession != "" {
		filter = map[string]interface{}{"session": map[string]interface{}{"$eq": searchSession}}
	}

	ctx := context.Background()

	queryVec, err := em.EmbedQuery(ctx, query)
	if err != nil {
		exitWithError(exitCodeFor(err), "embedding query: %v", err)
	}

	retriever := retrieve.NewRetriever(store, em.Dimensions(),
		retrieve.WithLambda(lambda),
		retrieve.WithPoolMultiplier(settings.PoolMultiplier),
	)
	results, err := retriever.Search(ctx, queryVec, topK, float32(threshold), namespace, filter)
	if err != nil {
		exitWithError(exitCodeFor(err), "searching: %v", err)
	}

	resp := SearchResponse{
		Query:     query,
		Results:   toViews(results),
		Total:     len(results),
		Threshold: threshold,
		Lambda:    lambda,
		Model:     em.ModelName(),
	}

	if relevant := parseRelevantIDs(searchRelevant); len(relevant) > 0 {
		ids := make([]string, len(results))
		for i, r := range results {
			ids[i] = r.ID
		}
		report := evaluate.Evaluate(ids, relevant, topK)
		resp.Evaluation = &report
	}

	if humanOutput {
		printSearchHuman(resp)
	} else {
		outputJSON(resp)
	}
	return nil
}

func toViews(results []retrieve.Result) []ResultView {
	views := make([]ResultView, len(results))
	for i, r := range results {
		views[i] = ResultView{
			ID:      r.ID,
			Score:   r.Score,
			Text:    r.Text(),
			Speaker: r.Speaker(),
			Start:   r.Start(),
			End:     r.End(),
			File:    r.File(),
			Session: r.Session(),
		}
	}
	return views
}

// parseRelevantIDs accepts comma- or newline-separated identifiers.
func parseRelevantIDs(raw string) map[string]bool {
	raw = strings.ReplaceAll(raw, ",", "\n")
	var ids []string
	for _, line := range strings.Split(raw, "\n") {
		if id := strings.TrimSpace(line); id != "" {
			ids = append(ids, id)
		}
	}
	return evaluate.RelevantSet(ids)
}

func printSearchHuman(resp SearchResponse) {
	fmt.Printf("Search: %q\n", resp.Query)
	fmt.Printf("Found %d segments (threshold: %.2f, lambda: %.2f)\n\n", resp.Total, resp.Threshold, resp.Lambda)

	for i, r := range resp.Results {
		fmt.Printf("%d. [%.3f] %s [%.2f-%.2f]s speaker %s\n", i+1, r.Score, r.File, r.Start, r.End, r.Speaker)
		fmt.Printf("   %s\n", truncateString(r.Text, 100))
		fmt.Printf("   id: %s\n\n", r.ID)
	}

	if resp.Evaluation != nil {
		e := resp.Evaluation
		fmt.Printf("Evaluation (k=%d): nDCG %.3f, recall %.3f, MRR %.3f\n", e.K, e.NDCG, e.Recall, e.MRR)
	}
}

// exitCodeFor maps error kinds to exit codes.
func exitCodeFor(err error) int {
	if apierr.IsValidation(err) {
		return ExitDataError
	}
	return ExitError
}
