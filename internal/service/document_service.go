package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"oneask-be/internal/dto"
	"oneask-be/internal/entity"
	"oneask-be/internal/pkg/logger"
	"oneask-be/internal/repository/memory"
	"oneask-be/internal/repository/specification"
	"oneask-be/internal/repository/unitofwork"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// DocumentEventsTopic is the in-process bus topic for document lifecycle
// messages.
const DocumentEventsTopic = "DOCUMENT_EVENTS"

const (
	EventDocumentUploaded = "document.uploaded"
	EventDocumentReindex  = "document.reindex"
	EventDocumentDeleted  = "document.deleted"
)

const (
	maxFileNameRunes = 200
	previewRunes     = 500
)

// DocumentEvent is the payload carried on DocumentEventsTopic.
type DocumentEvent struct {
	Type       string `json:"type"`
	DocumentId string `json:"document_id"`
	FileName   string `json:"file_name"`
}

type IDocumentService interface {
	Upload(ctx context.Context, file *multipart.FileHeader, uploadedBy, description string) (*dto.DocumentResponse, error)
	List(ctx context.Context, request *dto.ListDocumentsRequest) (*dto.ListDocumentsResponse, error)
	Download(ctx context.Context, id uuid.UUID) (*entity.Document, string, error)
	Reindex(ctx context.Context, id uuid.UUID) (*dto.ReindexResponse, error)
	Delete(ctx context.Context, id uuid.UUID) (map[string]interface{}, error)
}

type documentService struct {
	uowFactory   unitofwork.RepositoryFactory
	publisher    message.Publisher
	previewStore *memory.PreviewStore
	logger       logger.ILogger
	storageRoot  string
}

func NewDocumentService(
	uowFactory unitofwork.RepositoryFactory,
	publisher message.Publisher,
	previewStore *memory.PreviewStore,
	log logger.ILogger,
	storageRoot string,
) IDocumentService {
	return &documentService{
		uowFactory:   uowFactory,
		publisher:    publisher,
		previewStore: previewStore,
		logger:       log,
		storageRoot:  storageRoot,
	}
}

func (s *documentService) Upload(ctx context.Context, file *multipart.FileHeader, uploadedBy, description string) (*dto.DocumentResponse, error) {
	if file == nil || file.Size == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "file is required")
	}
	if err := os.MkdirAll(s.storageRoot, 0o755); err != nil {
		return nil, fmt.Errorf("prepare storage root: %w", err)
	}

	safeName := sanitizeFileName(file.Filename)
	uow := s.uowFactory.NewUnitOfWork(ctx)
	docRepo := uow.DocumentRepository()

	// Same-name re-upload replaces the previous document entirely.
	if existing, err := docRepo.FindOne(ctx, specification.Filter("original_name", safeName)); err != nil {
		return nil, err
	} else if existing != nil {
		if _, err := s.Delete(ctx, existing.Id); err != nil {
			return nil, fmt.Errorf("replace existing document: %w", err)
		}
	}

	doc := &entity.Document{
		Id:             uuid.New(),
		OriginalName:   safeName,
		ContentType:    file.Header.Get("Content-Type"),
		SizeBytes:      file.Size,
		UploadedBy:     uploadedBy,
		Description:    description,
		IndexingStatus: entity.IndexingPending,
	}
	doc.StoredName = doc.Id.String() + "_" + safeName

	if err := s.saveToDisk(file, doc.StoredName); err != nil {
		return nil, err
	}

	doc.Preview = s.extractPreview(doc)

	if err := docRepo.Create(ctx, doc); err != nil {
		// Keep storage and DB consistent.
		_ = os.Remove(filepath.Join(s.storageRoot, doc.StoredName))
		return nil, err
	}

	s.publishEvent(EventDocumentUploaded, doc.Id.String(), doc.OriginalName)
	s.logger.Info("DOCUMENT", "document uploaded", map[string]interface{}{
		"document_id": doc.Id.String(),
		"file_name":   doc.OriginalName,
		"size_bytes":  doc.SizeBytes,
	})

	return documentToResponse(doc), nil
}

func (s *documentService) List(ctx context.Context, request *dto.ListDocumentsRequest) (*dto.ListDocumentsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	docRepo := uow.DocumentRepository()

	filters := s.listFilters(request)

	total, err := docRepo.Count(ctx, filters...)
	if err != nil {
		return nil, err
	}

	limit := request.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	specs := append(filters,
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: request.Offset},
	)

	docs, err := docRepo.FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.DocumentResponse, len(docs))
	for i, doc := range docs {
		responses[i] = documentToResponse(doc)
	}
	return &dto.ListDocumentsResponse{Documents: responses, Total: total}, nil
}

func (s *documentService) listFilters(request *dto.ListDocumentsRequest) []specification.Specification {
	var filters []specification.Specification
	if request.Search != "" {
		filters = append(filters, specification.NameSearch{Term: request.Search})
	}
	if request.UploadedBy != "" {
		filters = append(filters, specification.Filter("uploaded_by", request.UploadedBy))
	}
	from := parseDate(request.From)
	to := parseDate(request.To)
	if from != nil || to != nil {
		filters = append(filters, specification.CreatedBetween{From: from, To: to})
	}
	return filters
}

func (s *documentService) Download(ctx context.Context, id uuid.UUID) (*entity.Document, string, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	doc, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, "", err
	}
	if doc == nil {
		return nil, "", fiber.NewError(fiber.StatusNotFound, "document not found")
	}

	path := filepath.Join(s.storageRoot, doc.StoredName)
	if _, err := os.Stat(path); err != nil {
		return nil, "", fiber.NewError(fiber.StatusNotFound, "stored file is missing")
	}
	return doc, path, nil
}

func (s *documentService) Reindex(ctx context.Context, id uuid.UUID) (*dto.ReindexResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	docRepo := uow.DocumentRepository()

	doc, err := docRepo.FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "document not found")
	}

	if err := docRepo.UpdateIndexingStatus(ctx, doc.Id, entity.IndexingPending, ""); err != nil {
		return nil, err
	}

	s.publishEvent(EventDocumentReindex, doc.Id.String(), doc.OriginalName)
	s.logger.Info("DOCUMENT", "reindex requested", map[string]interface{}{
		"document_id": doc.Id.String(),
	})

	return &dto.ReindexResponse{
		Id:             doc.Id,
		IndexingStatus: string(entity.IndexingPending),
	}, nil
}

func (s *documentService) Delete(ctx context.Context, id uuid.UUID) (map[string]interface{}, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	docRepo := uow.DocumentRepository()

	doc, err := docRepo.FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "document not found")
	}

	detail := map[string]interface{}{
		"document_id": doc.Id.String(),
		"file_name":   doc.OriginalName,
	}

	path := filepath.Join(s.storageRoot, doc.StoredName)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		detail["storage_error"] = err.Error()
		s.logger.Warn("DOCUMENT", "failed to remove stored file", map[string]interface{}{
			"document_id": doc.Id.String(),
			"error":       err.Error(),
		})
	} else {
		detail["storage_removed"] = true
	}

	if err := uow.DocumentChunkRepository().DeleteByDocumentId(ctx, doc.Id); err != nil {
		return nil, err
	}
	if err := docRepo.Delete(ctx, doc.Id); err != nil {
		return nil, err
	}

	s.previewStore.Delete(doc.Id.String())
	s.publishEvent(EventDocumentDeleted, doc.Id.String(), doc.OriginalName)
	s.logger.Info("DOCUMENT", "document deleted", map[string]interface{}{
		"document_id": doc.Id.String(),
	})

	detail["deleted"] = true
	return detail, nil
}

func (s *documentService) saveToDisk(file *multipart.FileHeader, storedName string) error {
	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(s.storageRoot, storedName))
	if err != nil {
		return fmt.Errorf("create stored file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("write stored file: %w", err)
	}
	return nil
}

// extractPreview reads the head of plain-text uploads. Binary formats get
// an empty preview.
func (s *documentService) extractPreview(doc *entity.Document) string {
	text, err := extractPlainText(filepath.Join(s.storageRoot, doc.StoredName), doc.OriginalName)
	if err != nil {
		return ""
	}
	runes := []rune(strings.TrimSpace(text))
	if len(runes) > previewRunes {
		runes = runes[:previewRunes]
	}
	preview := string(runes)
	s.previewStore.Save(doc.Id.String(), preview)
	return preview
}

func (s *documentService) publishEvent(eventType, documentId, fileName string) {
	payload, err := json.Marshal(DocumentEvent{
		Type:       eventType,
		DocumentId: documentId,
		FileName:   fileName,
	})
	if err != nil {
		s.logger.Error("DOCUMENT", "failed to marshal event", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := s.publisher.Publish(DocumentEventsTopic, msg); err != nil {
		s.logger.Error("DOCUMENT", "failed to publish event", map[string]interface{}{
			"type":  eventType,
			"error": err.Error(),
		})
	}
}

// sanitizeFileName collapses control characters and path separators and caps
// the length, keeping the extension.
func sanitizeFileName(name string) string {
	base := filepath.Base(name)
	var b strings.Builder
	for _, r := range base {
		switch {
		case unicode.IsControl(r), r == '/', r == '\\':
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	cleaned := strings.TrimSpace(b.String())
	if cleaned == "" || cleaned == "." || cleaned == ".." {
		cleaned = "upload"
	}

	runes := []rune(cleaned)
	if len(runes) <= maxFileNameRunes {
		return cleaned
	}
	ext := filepath.Ext(cleaned)
	keep := maxFileNameRunes - len([]rune(ext))
	if keep < 1 {
		return string(runes[:maxFileNameRunes])
	}
	stem := []rune(strings.TrimSuffix(cleaned, ext))
	if keep > len(stem) {
		keep = len(stem)
	}
	return string(stem[:keep]) + ext
}

func parseDate(value string) *time.Time {
	if value == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	return nil
}

func documentToResponse(doc *entity.Document) *dto.DocumentResponse {
	return &dto.DocumentResponse{
		Id:             doc.Id,
		OriginalName:   doc.OriginalName,
		ContentType:    doc.ContentType,
		SizeBytes:      doc.SizeBytes,
		UploadedBy:     doc.UploadedBy,
		Description:    doc.Description,
		Preview:        doc.Preview,
		IndexingStatus: string(doc.IndexingStatus),
		IndexingError:  doc.IndexingError,
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
	}
}
