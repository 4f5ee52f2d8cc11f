package dto

// IndexingStatusEvent is broadcast over the websocket hub and the event bus
// whenever a document's indexing lifecycle changes.
type IndexingStatusEvent struct {
	DocumentId string `json:"document_id"`
	FileName   string `json:"file_name"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
}
