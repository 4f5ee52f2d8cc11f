package indexing

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"
)

// indexTimeout covers the whole upload-and-embed round trip on the backend.
const indexTimeout = 120 * time.Second

// HTTPIndexer sends stored files to the RAG backend for chunking and
// embedding.
type HTTPIndexer struct {
	BaseURL string
	Client  *http.Client
}

var _ Indexer = &HTTPIndexer{}

func NewHTTPIndexer(baseURL string) *HTTPIndexer {
	return &HTTPIndexer{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client: &http.Client{
			Timeout: indexTimeout,
		},
	}
}

func (i *HTTPIndexer) IndexFile(ctx context.Context, docID, filePath, originalName string) error {
	if i.BaseURL == "" {
		return ErrSkipped
	}

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("open stored file: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", originalName)
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("copy file into form: %w", err)
	}
	if err := writer.WriteField("docId", docID); err != nil {
		return fmt.Errorf("write docId field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalize form: %w", err)
	}

	url := i.BaseURL + "/upload"
	req, err := http.NewRequestWithContext(ctx, "POST", url, &body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := i.Client.Do(req)
	if err != nil {
		return fmt.Errorf("index request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		responseBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("index backend status %d, body: %s", resp.StatusCode, string(responseBody))
	}
	return nil
}

func (i *HTTPIndexer) Remove(ctx context.Context, docID string) error {
	if i.BaseURL == "" {
		return ErrSkipped
	}

	url := i.BaseURL + "/documents/" + docID
	req, err := http.NewRequestWithContext(ctx, "DELETE", url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := i.Client.Do(req)
	if err != nil {
		return fmt.Errorf("remove request failed: %w", err)
	}
	defer resp.Body.Close()

	// A document the backend never saw is fine.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		responseBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("index backend status %d, body: %s", resp.StatusCode, string(responseBody))
	}
	return nil
}
