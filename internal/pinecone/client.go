// Package pinecone is a client for a Pinecone serverless index, covering
// the two operations the pipeline needs: batched upsert and nearest
// neighbor query.
package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/mhalloran/voicearch/internal/apierr"
)

const (
	// DefaultTimeout is the HTTP request timeout.
	DefaultTimeout = 60 * time.Second

	// queryRateLimit is requests per second against the index host.
	queryRateLimit = 20.0

	apiPathUpsert = "/vectors/upsert"
	apiPathQuery  = "/query"
)

// Vector is one stored record: identifier, embedding values, and the
// metadata returned with query matches.
type Vector struct {
	ID       string                 `json:"id"`
	Values   []float32              `json:"values"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Match is one candidate returned from a query, ranked by score
// (cosine similarity; higher is more similar).
type Match struct {
	ID       string                 `json:"id"`
	Score    float32                `json:"score"`
	Values   []float32              `json:"values,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// QueryRequest describes a nearest-neighbor lookup.
type QueryRequest struct {
	Vector          []float32              `json:"vector"`
	TopK            int                    `json:"topK"`
	Namespace       string                 `json:"namespace,omitempty"`
	Filter          map[string]interface{} `json:"filter,omitempty"`
	IncludeMetadata bool                   `json:"includeMetadata"`
	IncludeValues   bool                   `json:"includeValues"`
}

// Client is a rate-limited HTTP client for one Pinecone index host.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	apiKey     string
	host       string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a client for the index at the given host
// (e.g. "https://myindex-abc123.svc.us-east-1-aws.pinecone.io").
func NewClient(apiKey, host string, opts ...ClientOption) (*Client, error) {
	host = strings.TrimRight(host, "/")
	if host == "" {
		return nil, apierr.Validation("host", "index host is empty")
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}

	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(queryRateLimit), 1),
		apiKey:     apiKey,
		host:       host,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Upsert writes vectors into the namespace. Upserting an existing ID
// overwrites the stored record; collision handling beyond that is the
// index's concern, not ours.
func (c *Client) Upsert(ctx context.Context, namespace string, vectors []Vector) error {
	if len(vectors) == 0 {
		return nil
	}

	body := struct {
		Vectors   []Vector `json:"vectors"`
		Namespace string   `json:"namespace,omitempty"`
	}{Vectors: vectors, Namespace: namespace}

	var resp upsertResponse
	if err := c.post(ctx, apiPathUpsert, body, &resp); err != nil {
		return err
	}
	if resp.UpsertedCount != len(vectors) {
		return apierr.FromStatus("pinecone", http.StatusOK,
			fmt.Sprintf("upserted %d of %d vectors", resp.UpsertedCount, len(vectors)))
	}
	return nil
}

// Query returns the topK nearest neighbors, ranked by score descending.
func (c *Client) Query(ctx context.Context, req QueryRequest) ([]Match, error) {
	if len(req.Vector) == 0 {
		return nil, apierr.Validation("vector", "query vector is empty")
	}
	if req.TopK <= 0 {
		return nil, apierr.Validation("topK", "must be positive, got %d", req.TopK)
	}

	var resp queryResponse
	if err := c.post(ctx, apiPathQuery, req, &resp); err != nil {
		return nil, err
	}
	return resp.Matches, nil
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Api-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apierr.Network("pinecone", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return apierr.FromStatus("pinecone", resp.StatusCode, string(msg))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

type upsertResponse struct {
	UpsertedCount int `json:"upsertedCount"`
}

type queryResponse struct {
	Matches   []Match `json:"matches"`
	Namespace string  `json:"namespace"`
}
