package service

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"

	"oneask-be/internal/dto"
	"oneask-be/internal/entity"
	"oneask-be/internal/pkg/logger"
	"oneask-be/internal/repository/specification"
	"oneask-be/internal/repository/unitofwork"
	"oneask-be/internal/websocket"
	"oneask-be/pkg/events"
	"oneask-be/pkg/nats"
	"oneask-be/pkg/qa/indexing"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

const maxIndexingErrorLen = 1000

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService reacts to document lifecycle events: it drives the
// indexing state machine, drops stale cached answers, pushes status updates
// to websocket clients, and mirrors events onto NATS.
type consumerService struct {
	pubSub        *gochannel.GoChannel
	uowFactory    unitofwork.RepositoryFactory
	indexer       indexing.Indexer
	askService    IAskService
	hub           *websocket.Hub
	natsPublisher *nats.Publisher
	logger        logger.ILogger
	storageRoot   string
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	uowFactory unitofwork.RepositoryFactory,
	indexer indexing.Indexer,
	askService IAskService,
	hub *websocket.Hub,
	natsPublisher *nats.Publisher,
	log logger.ILogger,
	storageRoot string,
) IConsumerService {
	return &consumerService{
		pubSub:        pubSub,
		uowFactory:    uowFactory,
		indexer:       indexer,
		askService:    askService,
		hub:           hub,
		natsPublisher: natsPublisher,
		logger:        log,
		storageRoot:   storageRoot,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, DocumentEventsTopic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var event DocumentEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		cs.logger.Error("CONSUMER", "failed to unmarshal document event", map[string]interface{}{
			"error": err.Error(),
		})
		// Ack malformed messages so they cannot retry forever.
		msg.Ack()
		return
	}

	switch event.Type {
	case EventDocumentUploaded, EventDocumentReindex:
		cs.handleIndexRequest(ctx, event)
	case EventDocumentDeleted:
		cs.handleDeleted(ctx, event)
	default:
		cs.logger.Warn("CONSUMER", "unknown document event type", map[string]interface{}{
			"type": event.Type,
		})
	}

	msg.Ack()
}

func (cs *consumerService) handleIndexRequest(ctx context.Context, event DocumentEvent) {
	documentId, err := uuid.Parse(event.DocumentId)
	if err != nil {
		cs.logger.Error("CONSUMER", "document event carries invalid id", map[string]interface{}{
			"document_id": event.DocumentId,
		})
		return
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	doc, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: documentId})
	if err != nil {
		cs.logger.Error("CONSUMER", "failed to load document for indexing", map[string]interface{}{
			"document_id": event.DocumentId,
			"error":       err.Error(),
		})
		return
	}
	if doc == nil {
		// Deleted before the consumer got to it.
		return
	}

	cs.transition(ctx, event, entity.IndexingProcessing, "")

	storedPath := filepath.Join(cs.storageRoot, doc.StoredName)
	indexErr := cs.indexer.IndexFile(ctx, event.DocumentId, storedPath, event.FileName)

	switch {
	case indexErr == nil:
		cs.transition(ctx, event, entity.IndexingSucceeded, "")
	case errors.Is(indexErr, indexing.ErrSkipped):
		cs.transition(ctx, event, entity.IndexingSkipped, "")
	default:
		cs.transition(ctx, event, entity.IndexingFailed, truncateError(indexErr))
	}

	// Old answers may now disagree with the index.
	cs.askService.InvalidateDocument(event.DocumentId)
}

func (cs *consumerService) handleDeleted(ctx context.Context, event DocumentEvent) {
	if err := cs.indexer.Remove(ctx, event.DocumentId); err != nil && !errors.Is(err, indexing.ErrSkipped) {
		cs.logger.Warn("CONSUMER", "failed to remove document from index", map[string]interface{}{
			"document_id": event.DocumentId,
			"error":       err.Error(),
		})
	}

	cs.askService.InvalidateDocument(event.DocumentId)
	cs.broadcast(event, "DELETED", "")
	cs.mirror(ctx, EventDocumentDeleted, event, "DELETED", "")
}

// transition persists an indexing state change and announces it.
func (cs *consumerService) transition(ctx context.Context, event DocumentEvent, status entity.IndexingStatus, indexingError string) {
	documentId, err := uuid.Parse(event.DocumentId)
	if err != nil {
		return
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	if err := uow.DocumentRepository().UpdateIndexingStatus(ctx, documentId, status, indexingError); err != nil {
		cs.logger.Error("CONSUMER", "failed to persist indexing status", map[string]interface{}{
			"document_id": event.DocumentId,
			"status":      string(status),
			"error":       err.Error(),
		})
	}

	cs.broadcast(event, string(status), indexingError)
	cs.mirror(ctx, "document.indexing", event, string(status), indexingError)

	cs.logger.Info("CONSUMER", "indexing status changed", map[string]interface{}{
		"document_id": event.DocumentId,
		"status":      string(status),
	})
}

func (cs *consumerService) broadcast(event DocumentEvent, status, indexingError string) {
	if cs.hub == nil {
		return
	}
	cs.hub.Broadcast("indexing_status", dto.IndexingStatusEvent{
		DocumentId: event.DocumentId,
		FileName:   event.FileName,
		Status:     status,
		Error:      indexingError,
	})
}

// mirror forwards the event to NATS for external consumers. The bus is
// optional; failures are warnings.
func (cs *consumerService) mirror(ctx context.Context, eventType string, event DocumentEvent, status, indexingError string) {
	if cs.natsPublisher == nil {
		return
	}
	payload := map[string]interface{}{
		"document_id": event.DocumentId,
		"file_name":   event.FileName,
		"status":      status,
	}
	if indexingError != "" {
		payload["error"] = indexingError
	}
	if err := cs.natsPublisher.Publish(ctx, events.New(eventType, payload)); err != nil {
		cs.logger.Warn("CONSUMER", "failed to mirror event to NATS", map[string]interface{}{
			"type":  eventType,
			"error": err.Error(),
		})
	}
}

func truncateError(err error) string {
	text := err.Error()
	if len(text) > maxIndexingErrorLen {
		return text[:maxIndexingErrorLen]
	}
	return text
}
