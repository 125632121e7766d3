// Package deepgram is a client for the Deepgram prerecorded transcription
// API, returning word-level output with timestamps and diarization labels.
package deepgram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/mhalloran/voicearch/internal/apierr"
	"github.com/mhalloran/voicearch/internal/transcript"
)

const (
	// BaseURL is the Deepgram API base URL.
	BaseURL = "https://api.deepgram.com"

	// DefaultModel is the transcription model.
	DefaultModel = "nova-3"

	// DefaultTimeout covers transcription of long recordings; Deepgram
	// holds the connection open until the file is processed.
	DefaultTimeout = 10 * time.Minute

	// transcribeRateLimit is requests per second against the listen
	// endpoint, matching Deepgram's documented concurrency guidance.
	transcribeRateLimit = 5.0

	apiPathListen = "/v1/listen"
)

// Client is a rate-limited HTTP client for the Deepgram API.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	apiKey     string
	baseURL    string
	model      string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithModel sets the transcription model.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		c.model = model
	}
}

// NewClient creates a Deepgram client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(transcribeRateLimit), 1),
		apiKey:     apiKey,
		baseURL:    BaseURL,
		model:      DefaultModel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Transcribe submits audio bytes for transcription and returns the
// recognized words with timestamps and speaker labels. The request asks
// for diarization, punctuation and smart formatting; punctuated word
// forms are preferred when present.
func (c *Client) Transcribe(ctx context.Context, audio []byte, mimeType string) ([]transcript.Word, error) {
	if len(audio) == 0 {
		return nil, apierr.Validation("audio", "empty audio payload")
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("model", c.model)
	q.Set("diarize", "true")
	q.Set("punctuate", "true")
	q.Set("smart_format", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+apiPathListen+"?"+q.Encode(), bytes.NewReader(audio))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.apiKey)
	req.Header.Set("Content-Type", mimeType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apierr.Network("deepgram", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, apierr.FromStatus("deepgram", resp.StatusCode, string(body))
	}

	var result listenResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return result.words(), nil
}

// listenResponse mirrors the slice of the Deepgram response we consume:
// results.channels[0].alternatives[0].
type listenResponse struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string       `json:"transcript"`
				Words      []listenWord `json:"words"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

type listenWord struct {
	Word           string  `json:"word"`
	PunctuatedWord string  `json:"punctuated_word"`
	Start          float64 `json:"start"`
	End            float64 `json:"end"`
	Confidence     float64 `json:"confidence"`
	Speaker        *int    `json:"speaker"`
}

// words flattens the first channel/alternative into transcript words.
// A response with a transcript but no word timings yields a single
// untimestamped word so callers still get the text.
func (r listenResponse) words() []transcript.Word {
	if len(r.Results.Channels) == 0 || len(r.Results.Channels[0].Alternatives) == 0 {
		return nil
	}
	alt := r.Results.Channels[0].Alternatives[0]

	if len(alt.Words) == 0 {
		if alt.Transcript == "" {
			return nil
		}
		return []transcript.Word{{Text: alt.Transcript}}
	}

	words := make([]transcript.Word, len(alt.Words))
	for i, w := range alt.Words {
		text := w.PunctuatedWord
		if text == "" {
			text = w.Word
		}
		words[i] = transcript.Word{
			Text:       text,
			Start:      w.Start,
			End:        w.End,
			Speaker:    w.Speaker,
			Confidence: w.Confidence,
		}
	}
	return words
}
