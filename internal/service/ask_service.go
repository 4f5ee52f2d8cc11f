package service

import (
	"context"
	"strings"
	"time"

	"oneask-be/internal/dto"
	"oneask-be/internal/pkg/logger"
	"oneask-be/internal/repository/memory"
	"oneask-be/pkg/qa"
	"oneask-be/pkg/qa/generation"
	"oneask-be/pkg/qa/intent"
	"oneask-be/pkg/qa/retrieval"

	"github.com/gofiber/fiber/v2"
)

const (
	smallTalkTimeout = 10 * time.Second
	generalTimeout   = 30 * time.Second
	ragTimeout       = 60 * time.Second
)

const (
	titleSmallTalk     = "Quick chat"
	titleGeneral       = "General answer"
	titleWebSearch     = "Answer with web search"
	titleDocuments     = "Answer from your documents"
	titleNoDocuments   = "No matching documents"
	titleTimeout       = "Answer delayed"
	titleError         = "Answer unavailable"
	titleGuidance      = "Guidance"
	titleHybridOutside = "Answer outside your documents"
)

const noDocumentsCopy = "I could not find relevant content in the uploaded documents. " +
	"Try rephrasing the question or upload the document it refers to."

// IAskService answers questions against the document corpus.
type IAskService interface {
	Ask(ctx context.Context, request *dto.AskRequest) (*dto.AskResponse, error)
	InvalidateCache(request *dto.InvalidateCacheRequest) *dto.InvalidateCacheResponse
	InvalidateDocument(docID string)
}

type askService struct {
	retriever      retrieval.Retriever
	generator      generation.Generator
	webSearch      *generation.WebSearchClient
	classifier     *intent.Classifier
	answerCache    *memory.AnswerCache
	logger         logger.ILogger
	topK           int
	scoreThreshold float64
}

func NewAskService(
	retriever retrieval.Retriever,
	generator generation.Generator,
	webSearch *generation.WebSearchClient,
	classifier *intent.Classifier,
	answerCache *memory.AnswerCache,
	log logger.ILogger,
	topK int,
	scoreThreshold float64,
) IAskService {
	if topK <= 0 {
		topK = 4
	}
	if scoreThreshold <= 0 {
		scoreThreshold = qa.ScoreThreshold
	}
	return &askService{
		retriever:      retriever,
		generator:      generator,
		webSearch:      webSearch,
		classifier:     classifier,
		answerCache:    answerCache,
		logger:         log,
		topK:           topK,
		scoreThreshold: scoreThreshold,
	}
}

func (s *askService) Ask(ctx context.Context, request *dto.AskRequest) (*dto.AskResponse, error) {
	question := strings.TrimSpace(request.Question)
	if question == "" {
		return nil, fiber.NewError(fiber.StatusBadRequest, "question is required")
	}
	mode := qa.ParseMode(request.Mode)
	scope := strings.TrimSpace(request.DocumentId)

	if cached, ok := s.answerCache.Get(scope, mode, question); ok {
		s.logger.Info("QA", "answer served from cache", map[string]interface{}{
			"scope": memory.NormalizeScope(scope),
			"mode":  string(mode),
		})
		return dto.AnswerToResponse(cached, "", mode), nil
	}

	classified := s.classifier.Classify(ctx, question, scope)
	resolved := s.resolveIntent(classified, mode, scope)
	s.logger.Info("QA", "question classified", map[string]interface{}{
		"intent":       string(classified.Intent),
		"resolved":     string(resolved),
		"fromFallback": classified.FromFallback,
		"mode":         string(mode),
	})

	switch resolved {
	case qa.IntentSmallTalk:
		answer := s.smallTalkAnswer(ctx, question)
		s.answerCache.Put(scope, mode, question, answer)
		return dto.AnswerToResponse(answer, resolved, mode), nil

	case qa.IntentGeneralKnowledge:
		answer := s.generalKnowledgeAnswer(ctx, question, titleGeneral)
		s.answerCache.Put(scope, mode, question, answer)
		return dto.AnswerToResponse(answer, resolved, mode), nil
	}

	// Document knowledge path. A broken retriever counts as no evidence,
	// never as a failed request.
	result, err := s.retriever.Retrieve(ctx, question, scope, s.topK)
	if err != nil {
		s.logger.Warn("QA", "retrieval failed, continuing without evidence", map[string]interface{}{
			"error": err.Error(),
			"scope": memory.NormalizeScope(scope),
		})
		result = &qa.RetrievalResult{Matches: []qa.RetrievedChunk{}}
	}

	if s.hasUsableEvidence(result, mode) {
		answer, genErr := s.ragAnswer(ctx, question, result)
		if genErr != nil {
			response := dto.AnswerToResponse(s.failureAnswer(ctx, question, scope, mode, genErr), resolved, mode)
			response.Degraded = true
			return response, nil
		}
		s.answerCache.Put(scope, mode, question, answer)
		return dto.AnswerToResponse(answer, resolved, mode), nil
	}

	// No usable evidence. Fallback answers are never cached.
	if mode == qa.ModeHybrid {
		answer := s.hybridFallback(ctx, question)
		return dto.AnswerToResponse(answer, resolved, mode), nil
	}

	return dto.AnswerToResponse(&qa.Answer{
		Title:  titleNoDocuments,
		Answer: noDocumentsCopy,
	}, resolved, mode), nil
}

// resolveIntent applies the mode policy on top of the raw classification.
// STRICT answers from documents only, so every non-document intent is forced
// back onto the document path. An UNKNOWN question goes to the documents only
// when a document scope pins it there; otherwise it is answered from general
// knowledge when the mode allows it.
func (s *askService) resolveIntent(classified intent.Result, mode qa.Mode, scope string) qa.Intent {
	resolved := classified.Intent

	if mode == qa.ModeStrict && resolved != qa.IntentDocKnowledge {
		return qa.IntentDocKnowledge
	}

	if resolved == qa.IntentUnknown {
		if scope != "" {
			resolved = qa.IntentDocKnowledge
		} else {
			resolved = qa.IntentGeneralKnowledge
		}
	}

	// GENERAL mode never touches the index.
	if mode == qa.ModeGeneral && resolved == qa.IntentDocKnowledge {
		resolved = qa.IntentGeneralKnowledge
	}
	return resolved
}

// hasUsableEvidence gates the document path on retrieval quality. STRICT
// mode answers from whatever matched since there is no other source. Chunks
// without any derivable score get the benefit of the doubt.
func (s *askService) hasUsableEvidence(result *qa.RetrievalResult, mode qa.Mode) bool {
	if result == nil || len(result.Matches) == 0 {
		return false
	}
	if mode == qa.ModeStrict {
		return true
	}
	max, known := qa.MaxScore(result.Matches)
	if !known {
		return true
	}
	return max >= s.scoreThreshold
}

func (s *askService) smallTalkAnswer(ctx context.Context, question string) *qa.Answer {
	prompt := "You are a friendly assistant for a company document portal. " +
		"Reply briefly and warmly in the language of the question. " +
		"Do not invent facts about documents."

	text, err := s.generator.Generate(ctx, question, prompt, generation.WithTimeout(smallTalkTimeout))
	if err != nil {
		s.logger.Warn("QA", "small talk generation failed, using guidance", map[string]interface{}{
			"error": err.Error(),
		})
		return &qa.Answer{Title: titleGuidance, Answer: qa.AdaptiveGuidance(question)}
	}
	return &qa.Answer{Title: titleSmallTalk, Answer: text}
}

// generalKnowledgeAnswer answers without document context. It prefers the
// web-search client when configured, then the plain generation backend, and
// degrades to deterministic guidance. It never errors.
func (s *askService) generalKnowledgeAnswer(ctx context.Context, question, title string) *qa.Answer {
	if s.webSearch != nil && s.webSearch.Enabled() {
		if text, err := s.webSearch.Answer(ctx, question); err == nil && strings.TrimSpace(text) != "" {
			return &qa.Answer{Title: titleWebSearch, Answer: text}
		} else if err != nil {
			s.logger.Warn("QA", "web search failed, falling back to generation", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	prompt := "Answer the question from general knowledge, in the language of the question. " +
		"If you are not sure, say so instead of guessing."
	text, err := s.generator.Generate(ctx, question, prompt, generation.WithTimeout(generalTimeout))
	if err != nil {
		s.logger.Warn("QA", "general knowledge generation failed, using guidance", map[string]interface{}{
			"error": err.Error(),
		})
		return &qa.Answer{Title: titleGuidance, Answer: qa.AdaptiveGuidance(question)}
	}
	return &qa.Answer{Title: title, Answer: text}
}

func (s *askService) ragAnswer(ctx context.Context, question string, result *qa.RetrievalResult) (*qa.Answer, error) {
	text, err := s.generator.Generate(ctx, question, result.Context, generation.WithTimeout(ragTimeout))
	if err != nil {
		s.logger.Error("QA", "document answer generation failed", map[string]interface{}{
			"error":   err.Error(),
			"timeout": qa.IsTimeout(err),
		})
		return nil, err
	}
	return &qa.Answer{
		Title:   titleDocuments,
		Answer:  text,
		Sources: qa.SourcesFromChunks(result.Matches),
	}, nil
}

func (s *askService) hybridFallback(ctx context.Context, question string) *qa.Answer {
	answer := s.generalKnowledgeAnswer(ctx, question, titleHybridOutside)
	return answer
}

// failureAnswer composes a best-effort answer after document generation
// fails. The body follows the same fallback path used when no evidence
// matches: general knowledge for an unscoped question outside STRICT,
// deterministic guidance otherwise. Timeouts get their own title so users
// know a retry is worthwhile.
func (s *askService) failureAnswer(ctx context.Context, question, scope string, mode qa.Mode, err error) *qa.Answer {
	title := titleError
	if qa.IsTimeout(err) {
		title = titleTimeout
	}
	if mode != qa.ModeStrict && scope == "" {
		answer := s.generalKnowledgeAnswer(ctx, question, title)
		answer.Title = title
		return answer
	}
	return &qa.Answer{Title: title, Answer: qa.AdaptiveGuidance(question)}
}

func (s *askService) InvalidateCache(request *dto.InvalidateCacheRequest) *dto.InvalidateCacheResponse {
	var removed int
	if request != nil && strings.TrimSpace(request.DocumentId) != "" {
		removed = s.answerCache.InvalidateScope(request.DocumentId)
	} else {
		removed = s.answerCache.InvalidateAll()
	}
	s.logger.Info("QA", "answer cache invalidated", map[string]interface{}{
		"removed": removed,
	})
	return &dto.InvalidateCacheResponse{Removed: removed}
}

// InvalidateDocument drops cached answers that could include the document:
// its own scope plus everything answered against the whole corpus.
func (s *askService) InvalidateDocument(docID string) {
	removed := s.answerCache.InvalidateScope(docID)
	removed += s.answerCache.InvalidateScope("")
	s.logger.Info("QA", "cache invalidated for document change", map[string]interface{}{
		"document_id": docID,
		"removed":     removed,
	})
}
