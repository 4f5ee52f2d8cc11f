package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultWebSearchModel = "gemini-2.0-flash"

// WebSearchClient asks Gemini for an answer grounded in live web search
// results. It is only consulted in HYBRID mode; with no API key configured it
// reports itself disabled so callers fall through to plain generation.
type WebSearchClient struct {
	APIKey string
	Model  string
	Client *http.Client
}

func NewWebSearchClient(apiKey, model string) *WebSearchClient {
	if model == "" {
		model = defaultWebSearchModel
	}
	return &WebSearchClient{
		APIKey: apiKey,
		Model:  model,
		Client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Enabled reports whether web search can be attempted at all.
func (w *WebSearchClient) Enabled() bool {
	return w != nil && w.APIKey != ""
}

type webSearchPart struct {
	Text string `json:"text"`
}

type webSearchContent struct {
	Role  string          `json:"role,omitempty"`
	Parts []webSearchPart `json:"parts"`
}

type webSearchRequest struct {
	Contents         []webSearchContent       `json:"contents"`
	Tools            []map[string]interface{} `json:"tools"`
	GenerationConfig map[string]interface{}   `json:"generationConfig"`
}

type webSearchCandidate struct {
	Content *webSearchContent `json:"content"`
}

type webSearchResponse struct {
	Candidates []webSearchCandidate `json:"candidates"`
}

// Answer returns the search-grounded answer text. An empty string with a nil
// error means web search is disabled.
func (w *WebSearchClient) Answer(ctx context.Context, question string) (string, error) {
	if !w.Enabled() {
		return "", nil
	}

	payload := webSearchRequest{
		Contents: []webSearchContent{
			{Role: "user", Parts: []webSearchPart{{Text: question}}},
		},
		Tools:            []map[string]interface{}{{"google_search": map[string]interface{}{}}},
		GenerationConfig: map[string]interface{}{"temperature": 0.2},
	}
	payloadJson, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf(
		"https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent",
		w.Model,
	)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(payloadJson))
	if err != nil {
		return "", err
	}
	req.Header.Set("x-goog-api-key", w.APIKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := w.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return "", err
	}
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("web search status %d, body: %s", res.StatusCode, string(resBody))
	}

	var decoded webSearchResponse
	if err := json.Unmarshal(resBody, &decoded); err != nil {
		return "", err
	}

	for _, candidate := range decoded.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if strings.TrimSpace(part.Text) != "" {
				return part.Text, nil
			}
		}
	}
	return "", nil
}
