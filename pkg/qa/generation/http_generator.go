package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"oneask-be/pkg/qa"
)

// HTTPGenerator calls the RAG backend's generation endpoint.
type HTTPGenerator struct {
	BaseURL string
	Client  *http.Client
}

var _ Generator = &HTTPGenerator{}

func NewHTTPGenerator(baseURL string) *HTTPGenerator {
	return &HTTPGenerator{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client: &http.Client{
			// Transport-level ceiling for calls without an explicit deadline.
			Timeout: 120 * time.Second,
		},
	}
}

type generateRequest struct {
	Question string `json:"question"`
	Context  string `json:"context"`
}

type generateResponse struct {
	Answer string `json:"answer"`
}

func (g *HTTPGenerator) Generate(ctx context.Context, question, contextText string, opts ...Option) (string, error) {
	if g.BaseURL == "" {
		return "", &qa.GenerationError{Err: qa.ErrBackendUnset}
	}

	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}
	if options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, options.Timeout)
		defer cancel()
	}

	payload, err := json.Marshal(generateRequest{Question: question, Context: contextText})
	if err != nil {
		return "", &qa.GenerationError{Err: fmt.Errorf("marshal request: %w", err)}
	}

	url := g.BaseURL + "/query/generate"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(payload))
	if err != nil {
		return "", &qa.GenerationError{Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.Client.Do(req)
	if err != nil {
		if options.Timeout > 0 && (errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded) {
			return "", &qa.GenerationTimeoutError{Err: err}
		}
		return "", &qa.GenerationError{Err: fmt.Errorf("generate request failed: %w", err)}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &qa.GenerationError{Err: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &qa.GenerationError{Err: fmt.Errorf("generate backend status %d, body: %s", resp.StatusCode, string(bodyBytes))}
	}

	var decoded generateResponse
	if err := json.Unmarshal(bodyBytes, &decoded); err != nil {
		return "", &qa.GenerationError{Err: fmt.Errorf("unmarshal response: %w", err)}
	}

	// An empty answer body is never treated as success.
	if strings.TrimSpace(decoded.Answer) == "" {
		return "", &qa.GenerationError{Err: errors.New("empty answer body")}
	}

	return decoded.Answer, nil
}
