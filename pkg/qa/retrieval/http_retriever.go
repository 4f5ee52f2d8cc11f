package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"oneask-be/pkg/qa"
)

// requestTimeout bounds a retrieval call so a slow search backend cannot
// stall the whole ask pipeline.
const requestTimeout = 15 * time.Second

// HTTPRetriever calls the RAG backend's retrieve endpoint.
type HTTPRetriever struct {
	BaseURL string
	Client  *http.Client
}

var _ Retriever = &HTTPRetriever{}

func NewHTTPRetriever(baseURL string) *HTTPRetriever {
	return &HTTPRetriever{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

type retrieveRequest struct {
	Question string `json:"question"`
	DocID    string `json:"docId,omitempty"`
	TopK     int    `json:"top_k"`
}

type retrieveResponse struct {
	Context string           `json:"context"`
	Matches []retrievedMatch `json:"matches"`
}

type retrievedMatch struct {
	Reference  string                 `json:"reference"`
	ChunkIndex int                    `json:"chunkIndex"`
	Content    string                 `json:"content"`
	Preview    string                 `json:"preview"`
	Source     string                 `json:"source"`
	Page       *int                   `json:"page"`
	Metadata   map[string]interface{} `json:"metadata"`
}

func (r *HTTPRetriever) Retrieve(ctx context.Context, question, docID string, topK int) (*qa.RetrievalResult, error) {
	if r.BaseURL == "" {
		return nil, &qa.RetrievalError{Err: qa.ErrBackendUnset}
	}

	payload, err := json.Marshal(retrieveRequest{Question: question, DocID: docID, TopK: topK})
	if err != nil {
		return nil, &qa.RetrievalError{Err: fmt.Errorf("marshal request: %w", err)}
	}

	url := r.BaseURL + "/query/retrieve"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(payload))
	if err != nil {
		return nil, &qa.RetrievalError{Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.Client.Do(req)
	if err != nil {
		return nil, &qa.RetrievalError{Err: fmt.Errorf("retrieve request failed: %w", err)}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &qa.RetrievalError{Err: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &qa.RetrievalError{Err: fmt.Errorf("retrieve backend status %d, body: %s", resp.StatusCode, string(bodyBytes))}
	}

	var decoded retrieveResponse
	if err := json.Unmarshal(bodyBytes, &decoded); err != nil {
		return nil, &qa.RetrievalError{Err: fmt.Errorf("unmarshal response: %w", err)}
	}

	// A missing match list is normalized to empty, never nil.
	matches := make([]qa.RetrievedChunk, 0, len(decoded.Matches))
	for _, m := range decoded.Matches {
		matches = append(matches, qa.RetrievedChunk{
			Reference:  m.Reference,
			ChunkIndex: m.ChunkIndex,
			Content:    m.Content,
			Preview:    m.Preview,
			Source:     m.Source,
			Page:       m.Page,
			Metadata:   m.Metadata,
		})
	}

	return &qa.RetrievalResult{Context: decoded.Context, Matches: matches}, nil
}
