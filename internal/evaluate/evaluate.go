// Package evaluate computes ranking-quality metrics for a returned
// result list against a user-supplied set of relevant identifiers.
//
// Relevance is binary: an identifier is relevant or it is not. All
// functions are pure.
package evaluate

import "math"

// Report holds the scalar metrics for one query.
type Report struct {
	NDCG   float64 `json:"ndcg"`
	Recall float64 `json:"recall"`
	MRR    float64 `json:"mrr"`
	K      int     `json:"k"`
}

// Evaluate computes nDCG@k, Recall@k and MRR for the ranked identifier
// list against the relevant set. k is clamped to the list length; k <= 0
// means "use the whole list". An empty relevant set yields zeros for all
// metrics rather than NaN.
func Evaluate(rankedIDs []string, relevant map[string]bool, k int) Report {
	if k <= 0 || k > len(rankedIDs) {
		k = len(rankedIDs)
	}
	return Report{
		NDCG:   NDCGAtK(rankedIDs, relevant, k),
		Recall: RecallAtK(rankedIDs, relevant, k),
		MRR:    MRR(rankedIDs, relevant),
		K:      k,
	}
}

// DCG is the discounted cumulative gain over per-rank gains:
// sum of gain_i / log2(i+1) with i 1-indexed.
func DCG(gains []float64) float64 {
	var sum float64
	for i, g := range gains {
		sum += g / math.Log2(float64(i)+2)
	}
	return sum
}

// NDCGAtK is DCG@k normalized by the ideal ordering (all relevant items
// first). Returns 0 when the relevant set is empty or k <= 0.
func NDCGAtK(rankedIDs []string, relevant map[string]bool, k int) float64 {
	if k <= 0 {
		return 0
	}
	if k > len(rankedIDs) {
		k = len(rankedIDs)
	}

	gains := make([]float64, k)
	for i, id := range rankedIDs[:k] {
		if relevant[id] {
			gains[i] = 1
		}
	}

	ideal := make([]float64, k)
	n := len(relevant)
	if n > k {
		n = k
	}
	for i := 0; i < n; i++ {
		ideal[i] = 1
	}

	idcg := DCG(ideal)
	if idcg == 0 {
		return 0
	}
	return DCG(gains) / idcg
}

// RecallAtK is the fraction of all relevant identifiers captured in the
// top k. Returns 0 when the relevant set is empty or k <= 0.
func RecallAtK(rankedIDs []string, relevant map[string]bool, k int) float64 {
	if len(relevant) == 0 || k <= 0 {
		return 0
	}
	if k > len(rankedIDs) {
		k = len(rankedIDs)
	}

	var hits int
	for _, id := range rankedIDs[:k] {
		if relevant[id] {
			hits++
		}
	}
	return float64(hits) / float64(len(relevant))
}

// MRR is the reciprocal rank of the first relevant identifier
// (1-indexed), or 0 when no relevant identifier is present.
func MRR(rankedIDs []string, relevant map[string]bool) float64 {
	for i, id := range rankedIDs {
		if relevant[id] {
			return 1 / float64(i+1)
		}
	}
	return 0
}

// RelevantSet builds the set form used by the metrics from a list of
// identifiers, skipping empties.
func RelevantSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id != "" {
			set[id] = true
		}
	}
	return set
}
