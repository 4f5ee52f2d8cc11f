package indexing

import (
	"context"
	"errors"
)

// ErrSkipped means the document cannot be indexed by this indexer (no
// backend configured, or no extractable text). Callers record SKIPPED
// instead of FAILED.
var ErrSkipped = errors.New("document indexing skipped")

// Indexer pushes a stored document into the search index and removes it
// again.
type Indexer interface {
	IndexFile(ctx context.Context, docID, filePath, originalName string) error
	Remove(ctx context.Context, docID string) error
}
