package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/mhalloran/voicearch/internal/apierr"
)

const (
	// DefaultCohereURL is the Cohere API base URL.
	DefaultCohereURL = "https://api.cohere.com"

	// DefaultModel is the default embedding model.
	DefaultModel = "embed-v4.0"

	// DefaultDimensions is the output dimensionality requested from the
	// model. The vector store index must be created with the same value.
	DefaultDimensions = 1024

	// DefaultTimeout is the timeout for embedding requests.
	DefaultTimeout = 60 * time.Second

	// embedRateLimit is requests per second; Cohere trial keys allow far
	// less, production keys far more. Kept conservative.
	embedRateLimit = 10.0

	apiPathEmbed = "/v2/embed"

	// inputTypeDocument and inputTypeQuery tell the model which side of
	// the retrieval pair it is embedding.
	inputTypeDocument = "search_document"
	inputTypeQuery    = "search_query"
)

// CohereProvider generates embeddings using the Cohere v2 API.
type CohereProvider struct {
	baseURL    string
	apiKey     string
	model      string
	dimensions int
	client     *http.Client
	limiter    *rate.Limiter
}

// CohereOption configures a CohereProvider.
type CohereOption func(*CohereProvider)

// WithBaseURL sets the API base URL (for testing).
func WithBaseURL(url string) CohereOption {
	return func(p *CohereProvider) {
		p.baseURL = url
	}
}

// WithModel sets the embedding model.
func WithModel(model string) CohereOption {
	return func(p *CohereProvider) {
		p.model = model
	}
}

// WithDimensions sets the requested output dimensions.
func WithDimensions(dims int) CohereOption {
	return func(p *CohereProvider) {
		p.dimensions = dims
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) CohereOption {
	return func(p *CohereProvider) {
		p.client = hc
	}
}

// NewCohereProvider creates a Cohere embedding provider.
func NewCohereProvider(apiKey string, opts ...CohereOption) *CohereProvider {
	p := &CohereProvider{
		baseURL:    DefaultCohereURL,
		apiKey:     apiKey,
		model:      DefaultModel,
		dimensions: DefaultDimensions,
		client:     &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(embedRateLimit), 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// EmbedDocuments generates one embedding per input text, in input order.
func (p *CohereProvider) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, apierr.Validation("texts", "nothing to embed")
	}
	return p.embed(ctx, texts, inputTypeDocument)
}

// EmbedQuery generates an embedding for a search query.
func (p *CohereProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, apierr.Validation("query", "query text is empty")
	}
	vecs, err := p.embed(ctx, []string{text}, inputTypeQuery)
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (p *CohereProvider) embed(ctx context.Context, texts []string, inputType string) ([][]float32, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqBody := cohereEmbedRequest{
		Model:           p.model,
		Texts:           texts,
		InputType:       inputType,
		OutputDimension: p.dimensions,
		EmbeddingTypes:  []string{"float"},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+apiPathEmbed, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, apierr.Network("cohere", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apierr.FromStatus("cohere", resp.StatusCode, formatErrorBody(resp.Body))
	}

	var result cohereEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	vecs := result.Embeddings.Float
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("cohere returned %d embeddings for %d texts", len(vecs), len(texts))
	}
	for i, v := range vecs {
		if len(v) != p.dimensions {
			return nil, fmt.Errorf("unexpected embedding dimensions at %d: got %d, want %d", i, len(v), p.dimensions)
		}
	}

	return vecs, nil
}

// ModelName returns the name of the embedding model.
func (p *CohereProvider) ModelName() string {
	return p.model
}

// Dimensions returns the expected vector dimensions.
func (p *CohereProvider) Dimensions() int {
	return p.dimensions
}

// formatErrorBody reads and formats the response body for error messages.
func formatErrorBody(body io.Reader) string {
	respBody, err := io.ReadAll(body)
	if err != nil {
		return fmt.Sprintf("(failed to read response body: %v)", err)
	}
	return string(respBody)
}

// cohereEmbedRequest is the request body for the Cohere v2 embed API.
type cohereEmbedRequest struct {
	Model           string   `json:"model"`
	Texts           []string `json:"texts"`
	InputType       string   `json:"input_type"`
	OutputDimension int      `json:"output_dimension,omitempty"`
	EmbeddingTypes  []string `json:"embedding_types"`
}

// cohereEmbedResponse is the response from the Cohere v2 embed API.
type cohereEmbedResponse struct {
	Embeddings struct {
		Float [][]float32 `json:"float"`
	} `json:"embeddings"`
}
