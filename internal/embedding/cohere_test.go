package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mhalloran/voicearch/internal/apierr"
)

func embedServer(t *testing.T, dims int, captured *cohereEmbedRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(captured); err != nil {
			t.Error(err)
		}
		var resp cohereEmbedResponse
		resp.Embeddings.Float = make([][]float32, len(captured.Texts))
		for i := range resp.Embeddings.Float {
			resp.Embeddings.Float[i] = make([]float32, dims)
			resp.Embeddings.Float[i][0] = float32(i)
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestNewCohereProvider_Defaults(t *testing.T) {
	p := NewCohereProvider("key")

	if p.ModelName() != DefaultModel {
		t.Errorf("ModelName() = %q, want %q", p.ModelName(), DefaultModel)
	}
	if p.Dimensions() != DefaultDimensions {
		t.Errorf("Dimensions() = %d, want %d", p.Dimensions(), DefaultDimensions)
	}
}

func TestNewCohereProvider_Options(t *testing.T) {
	p := NewCohereProvider("key", WithModel("embed-english-v3.0"), WithDimensions(256))

	if p.ModelName() != "embed-english-v3.0" {
		t.Errorf("ModelName() = %q", p.ModelName())
	}
	if p.Dimensions() != 256 {
		t.Errorf("Dimensions() = %d, want 256", p.Dimensions())
	}
}

func TestEmbedDocuments(t *testing.T) {
	var captured cohereEmbedRequest
	srv := embedServer(t, 8, &captured)
	defer srv.Close()

	p := NewCohereProvider("key", WithBaseURL(srv.URL), WithDimensions(8))
	vecs, err := p.EmbedDocuments(context.Background(), []string{"one", "two", "three"})
	if err != nil {
		t.Fatalf("EmbedDocuments() error = %v", err)
	}

	if captured.InputType != "search_document" {
		t.Errorf("input_type = %q, want search_document", captured.InputType)
	}
	if captured.Model != DefaultModel || captured.OutputDimension != 8 {
		t.Errorf("request = %+v", captured)
	}
	if len(captured.EmbeddingTypes) != 1 || captured.EmbeddingTypes[0] != "float" {
		t.Errorf("embedding_types = %v, want [float]", captured.EmbeddingTypes)
	}

	if len(vecs) != 3 {
		t.Fatalf("EmbedDocuments() = %d vectors, want 3", len(vecs))
	}
	for i, v := range vecs {
		if len(v) != 8 {
			t.Errorf("vector %d has %d dimensions, want 8", i, len(v))
		}
	}
}

func TestEmbedQuery(t *testing.T) {
	var captured cohereEmbedRequest
	srv := embedServer(t, 4, &captured)
	defer srv.Close()

	p := NewCohereProvider("key", WithBaseURL(srv.URL), WithDimensions(4))
	vec, err := p.EmbedQuery(context.Background(), "refund policy")
	if err != nil {
		t.Fatalf("EmbedQuery() error = %v", err)
	}

	if captured.InputType != "search_query" {
		t.Errorf("input_type = %q, want search_query", captured.InputType)
	}
	if len(captured.Texts) != 1 || captured.Texts[0] != "refund policy" {
		t.Errorf("texts = %v", captured.Texts)
	}
	if len(vec) != 4 {
		t.Errorf("EmbedQuery() = %d dimensions, want 4", len(vec))
	}
}

func TestEmbed_InputValidation(t *testing.T) {
	p := NewCohereProvider("key")

	if _, err := p.EmbedDocuments(context.Background(), nil); !apierr.IsValidation(err) {
		t.Errorf("EmbedDocuments(nil) error = %v, want validation error", err)
	}
	if _, err := p.EmbedQuery(context.Background(), ""); !apierr.IsValidation(err) {
		t.Errorf("EmbedQuery(\"\") error = %v, want validation error", err)
	}
}

func TestEmbed_CountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var resp cohereEmbedResponse
		resp.Embeddings.Float = [][]float32{{1, 2}}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	p := NewCohereProvider("key", WithBaseURL(srv.URL), WithDimensions(2))
	if _, err := p.EmbedDocuments(context.Background(), []string{"a", "b"}); err == nil {
		t.Error("EmbedDocuments() error = nil, want count mismatch")
	}
}

func TestEmbed_DimensionMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var resp cohereEmbedResponse
		resp.Embeddings.Float = [][]float32{{1, 2, 3}}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	p := NewCohereProvider("key", WithBaseURL(srv.URL), WithDimensions(2))
	if _, err := p.EmbedDocuments(context.Background(), []string{"a"}); err == nil {
		t.Error("EmbedDocuments() error = nil, want dimension mismatch")
	}
}

func TestEmbed_StatusMapping(t *testing.T) {
	tests := []struct {
		status        int
		wantTransient bool
	}{
		{http.StatusUnauthorized, false},
		{http.StatusTooManyRequests, true},
		{http.StatusInternalServerError, true},
	}

	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", tt.status)
		}))

		p := NewCohereProvider("key", WithBaseURL(srv.URL))
		_, err := p.EmbedDocuments(context.Background(), []string{"a"})
		srv.Close()

		if err == nil {
			t.Fatalf("status %d: EmbedDocuments() error = nil", tt.status)
		}
		if got := apierr.IsTransient(err); got != tt.wantTransient {
			t.Errorf("status %d: IsTransient() = %v, want %v", tt.status, got, tt.wantTransient)
		}
	}
}

var _ Provider = (*CohereProvider)(nil)
