package evaluate

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-4
}

func TestDCG(t *testing.T) {
	tests := []struct {
		name  string
		gains []float64
		want  float64
	}{
		{"empty", nil, 0},
		{"single hit", []float64{1}, 1},
		{"hit at rank two", []float64{0, 1}, 1 / math.Log2(3)},
		{"two hits", []float64{1, 1}, 1 + 1/math.Log2(3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DCG(tt.gains); !almostEqual(got, tt.want) {
				t.Errorf("DCG(%v) = %v, want %v", tt.gains, got, tt.want)
			}
		})
	}
}

func TestNDCGAtK(t *testing.T) {
	tests := []struct {
		name     string
		ranked   []string
		relevant []string
		k        int
		want     float64
	}{
		{
			name:     "perfect ranking",
			ranked:   []string{"a", "b", "c"},
			relevant: []string{"a", "b"},
			k:        3,
			want:     1,
		},
		{
			name:     "relevant ranked last",
			ranked:   []string{"x", "y", "a"},
			relevant: []string{"a"},
			k:        3,
			want:     1 / math.Log2(4),
		},
		{
			name:     "no relevant retrieved",
			ranked:   []string{"x", "y"},
			relevant: []string{"a"},
			k:        2,
			want:     0,
		},
		{
			name:     "empty relevant set",
			ranked:   []string{"a", "b"},
			relevant: nil,
			k:        2,
			want:     0,
		},
		{
			name:     "mixed ranks",
			ranked:   []string{"f1:3", "f2:10", "f1:5", "f3:2"},
			relevant: []string{"f1:5", "f2:10"},
			k:        4,
			want:     0.69342,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NDCGAtK(tt.ranked, RelevantSet(tt.relevant), tt.k)
			if !almostEqual(got, tt.want) {
				t.Errorf("NDCGAtK() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRecallAtK(t *testing.T) {
	tests := []struct {
		name     string
		ranked   []string
		relevant []string
		k        int
		want     float64
	}{
		{"all captured", []string{"a", "b", "c"}, []string{"a", "b"}, 3, 1},
		{"half captured", []string{"a", "x", "y"}, []string{"a", "b"}, 3, 0.5},
		{"cut off by k", []string{"x", "a", "b"}, []string{"a", "b"}, 1, 0},
		{"empty relevant", []string{"a"}, nil, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RecallAtK(tt.ranked, RelevantSet(tt.relevant), tt.k)
			if !almostEqual(got, tt.want) {
				t.Errorf("RecallAtK() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMRR(t *testing.T) {
	tests := []struct {
		name     string
		ranked   []string
		relevant []string
		want     float64
	}{
		{"first", []string{"a", "b"}, []string{"a"}, 1},
		{"second", []string{"x", "a"}, []string{"a"}, 0.5},
		{"third", []string{"x", "y", "a"}, []string{"a"}, 1.0 / 3},
		{"absent", []string{"x", "y"}, []string{"a"}, 0},
		{"empty relevant", []string{"x"}, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MRR(tt.ranked, RelevantSet(tt.relevant)); !almostEqual(got, tt.want) {
				t.Errorf("MRR() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluate(t *testing.T) {
	ranked := []string{"f1:3", "f2:10", "f1:5", "f3:2"}
	relevant := RelevantSet([]string{"f1:5", "f2:10"})

	rep := Evaluate(ranked, relevant, 4)

	if rep.K != 4 {
		t.Errorf("K = %d, want 4", rep.K)
	}
	if !almostEqual(rep.NDCG, 0.69342) {
		t.Errorf("NDCG = %v, want 0.69342", rep.NDCG)
	}
	if !almostEqual(rep.Recall, 1) {
		t.Errorf("Recall = %v, want 1", rep.Recall)
	}
	if !almostEqual(rep.MRR, 0.5) {
		t.Errorf("MRR = %v, want 0.5", rep.MRR)
	}
}

func TestEvaluate_KClamping(t *testing.T) {
	ranked := []string{"a", "b"}
	relevant := RelevantSet([]string{"a"})

	if rep := Evaluate(ranked, relevant, 10); rep.K != 2 {
		t.Errorf("K = %d, want clamp to list length 2", rep.K)
	}
	if rep := Evaluate(ranked, relevant, 0); rep.K != 2 {
		t.Errorf("K = %d, want whole list when k <= 0", rep.K)
	}
}

func TestEvaluate_EmptyRelevantYieldsZeros(t *testing.T) {
	rep := Evaluate([]string{"a", "b"}, nil, 2)
	if rep.NDCG != 0 || rep.Recall != 0 || rep.MRR != 0 {
		t.Errorf("Evaluate() = %+v, want all zero metrics", rep)
	}
}

func TestRelevantSet(t *testing.T) {
	set := RelevantSet([]string{"a", "", "b", "a"})
	if len(set) != 2 || !set["a"] || !set["b"] {
		t.Errorf("RelevantSet() = %v, want {a, b}", set)
	}
}
