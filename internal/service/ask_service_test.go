package service

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"oneask-be/internal/dto"
	"oneask-be/internal/pkg/logger"
	"oneask-be/internal/repository/memory"
	"oneask-be/pkg/qa"
	"oneask-be/pkg/qa/generation"
	"oneask-be/pkg/qa/intent"

	"github.com/gofiber/fiber/v2"
)

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }
func (nopLogger) GetLogs(string, int, int) ([]logger.LogEntry, error) {
	return nil, nil
}
func (nopLogger) GetLogById(string) (*logger.LogEntry, error) { return nil, nil }

type fakeGenerator struct {
	fn func(question, contextText string) (string, error)
}

func (f *fakeGenerator) Generate(_ context.Context, question, contextText string, _ ...generation.Option) (string, error) {
	return f.fn(question, contextText)
}

type fakeRetriever struct {
	result *qa.RetrievalResult
	err    error
	calls  int
}

func (f *fakeRetriever) Retrieve(_ context.Context, _, _ string, _ int) (*qa.RetrievalResult, error) {
	f.calls++
	return f.result, f.err
}

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func intentClassifier(t *testing.T, intentName string) *intent.Classifier {
	t.Helper()
	gen := &fakeGenerator{fn: func(_, _ string) (string, error) {
		return `{"intent":"` + intentName + `"}`, nil
	}}
	return intent.NewClassifier(gen, nil, discardLogger())
}

func newService(t *testing.T, retr *fakeRetriever, gen *fakeGenerator, intentName string) (IAskService, *memory.AnswerCache) {
	t.Helper()
	cache := memory.NewAnswerCache(time.Minute, 10)
	svc := NewAskService(retr, gen, nil, intentClassifier(t, intentName), cache, nopLogger{}, 4, 0.55)
	return svc, cache
}

func scoredResult(score float64, content string) *qa.RetrievalResult {
	return &qa.RetrievalResult{
		Context: content,
		Matches: []qa.RetrievedChunk{
			{
				Reference: "[chunk 1]",
				Content:   content,
				Source:    "handbook.pdf",
				Metadata:  map[string]interface{}{"score": score},
			},
		},
	}
}

func TestAskEmptyQuestionRejected(t *testing.T) {
	svc, _ := newService(t, &fakeRetriever{}, &fakeGenerator{fn: func(string, string) (string, error) { return "x", nil }}, "DOC_KNOWLEDGE")

	_, err := svc.Ask(context.Background(), &dto.AskRequest{Question: "   "})
	var fiberErr *fiber.Error
	if !errors.As(err, &fiberErr) || fiberErr.Code != fiber.StatusBadRequest {
		t.Fatalf("err = %v, want 400", err)
	}
}

func TestAskDocumentAnswerWithSources(t *testing.T) {
	retr := &fakeRetriever{result: scoredResult(0.9, "Annual leave is 15 days.")}
	gen := &fakeGenerator{fn: func(_, contextText string) (string, error) {
		if contextText != "Annual leave is 15 days." {
			t.Errorf("generation did not receive retrieval context, got %q", contextText)
		}
		return "You get 15 days.", nil
	}}
	svc, _ := newService(t, retr, gen, "DOC_KNOWLEDGE")

	res, err := svc.Ask(context.Background(), &dto.AskRequest{Question: "leave days?", Mode: "STRICT"})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if res.Answer != "You get 15 days." {
		t.Errorf("answer = %q", res.Answer)
	}
	if len(res.Sources) != 1 || res.Sources[0].Source != "handbook.pdf" {
		t.Errorf("sources = %+v", res.Sources)
	}
	if res.FromCache {
		t.Error("fresh answer must not be flagged from cache")
	}

	// Second ask is served from the cache without another retrieval.
	res2, err := svc.Ask(context.Background(), &dto.AskRequest{Question: " leave days? ", Mode: "STRICT"})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if !res2.FromCache {
		t.Error("second ask should hit the cache")
	}
	if retr.calls != 1 {
		t.Errorf("retriever calls = %d, want 1", retr.calls)
	}
}

func TestAskStrictNoEvidence(t *testing.T) {
	retr := &fakeRetriever{result: &qa.RetrievalResult{Matches: []qa.RetrievedChunk{}}}
	gen := &fakeGenerator{fn: func(string, string) (string, error) {
		t.Error("no generation call expected without evidence in STRICT mode")
		return "", nil
	}}
	svc, cache := newService(t, retr, gen, "DOC_KNOWLEDGE")

	res, err := svc.Ask(context.Background(), &dto.AskRequest{Question: "leave days?", Mode: "STRICT"})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if res.Answer != noDocumentsCopy {
		t.Errorf("answer = %q, want no-documents copy", res.Answer)
	}
	if cache.Len() != 0 {
		t.Error("fallback answers must not be cached")
	}
}

func TestAskScoreGate(t *testing.T) {
	// Best score below the threshold: HYBRID falls back to general knowledge.
	retr := &fakeRetriever{result: scoredResult(0.2, "irrelevant text")}
	gen := &fakeGenerator{fn: func(_, contextText string) (string, error) {
		if contextText == "irrelevant text" {
			t.Error("low-scored context must not be used for generation")
		}
		return "General fallback answer.", nil
	}}
	svc, cache := newService(t, retr, gen, "DOC_KNOWLEDGE")

	res, err := svc.Ask(context.Background(), &dto.AskRequest{Question: "weird question", Mode: "HYBRID"})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if res.Answer != "General fallback answer." {
		t.Errorf("answer = %q", res.Answer)
	}
	if len(res.Sources) != 0 {
		t.Errorf("fallback must not cite sources, got %+v", res.Sources)
	}
	if cache.Len() != 0 {
		t.Error("hybrid fallback answers must not be cached")
	}
}

func TestAskStrictUsesLowScoredEvidence(t *testing.T) {
	// STRICT has no other source, so any match is answered from documents.
	retr := &fakeRetriever{result: scoredResult(0.2, "weak but only evidence")}
	gen := &fakeGenerator{fn: func(_, contextText string) (string, error) {
		if contextText != "weak but only evidence" {
			t.Errorf("generation context = %q", contextText)
		}
		return "Best effort from documents.", nil
	}}
	svc, _ := newService(t, retr, gen, "DOC_KNOWLEDGE")

	res, err := svc.Ask(context.Background(), &dto.AskRequest{Question: "weird question", Mode: "STRICT"})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if res.Answer != "Best effort from documents." {
		t.Errorf("answer = %q", res.Answer)
	}
	if len(res.Sources) != 1 {
		t.Errorf("sources = %+v", res.Sources)
	}
}

func TestAskScoreGateBoundary(t *testing.T) {
	tests := []struct {
		score   float64
		wantRAG bool
	}{
		{0.55, true},
		{0.549999, false},
	}

	for _, tt := range tests {
		retr := &fakeRetriever{result: scoredResult(tt.score, "doc context")}
		gen := &fakeGenerator{fn: func(_, contextText string) (string, error) {
			if contextText == "doc context" {
				return "rag answer", nil
			}
			return "fallback answer", nil
		}}
		svc, _ := newService(t, retr, gen, "DOC_KNOWLEDGE")

		res, err := svc.Ask(context.Background(), &dto.AskRequest{Question: "q", Mode: "HYBRID"})
		if err != nil {
			t.Fatalf("Ask() error = %v", err)
		}
		gotRAG := res.Answer == "rag answer"
		if gotRAG != tt.wantRAG {
			t.Errorf("score %v: used RAG = %v, want %v", tt.score, gotRAG, tt.wantRAG)
		}
	}
}

func TestAskRetrievalErrorTreatedAsNoEvidence(t *testing.T) {
	retr := &fakeRetriever{err: &qa.RetrievalError{Err: errors.New("backend down")}}
	gen := &fakeGenerator{fn: func(string, string) (string, error) { return "x", nil }}
	svc, _ := newService(t, retr, gen, "DOC_KNOWLEDGE")

	res, err := svc.Ask(context.Background(), &dto.AskRequest{Question: "leave days?", Mode: "STRICT"})
	if err != nil {
		t.Fatalf("Ask() error = %v, retrieval failures must not fail the request", err)
	}
	if res.Answer != noDocumentsCopy {
		t.Errorf("answer = %q, want no-documents copy", res.Answer)
	}
}

func TestAskGenerationFailuresBecomeAnswers(t *testing.T) {
	// The document generation call fails; the response still carries a
	// best-effort answer built like the no-evidence fallback, under a title
	// that says what happened.
	tests := []struct {
		name       string
		mode       string
		scope      string
		genErr     error
		wantTitle  string
		wantAnswer string
	}{
		{
			name:       "strict timeout",
			mode:       "STRICT",
			genErr:     &qa.GenerationTimeoutError{Err: context.DeadlineExceeded},
			wantTitle:  titleTimeout,
			wantAnswer: qa.AdaptiveGuidance("q"),
		},
		{
			name:       "strict plain failure",
			mode:       "STRICT",
			genErr:     &qa.GenerationError{Err: errors.New("boom")},
			wantTitle:  titleError,
			wantAnswer: qa.AdaptiveGuidance("q"),
		},
		{
			name:       "hybrid unscoped timeout answers from general knowledge",
			mode:       "HYBRID",
			genErr:     &qa.GenerationTimeoutError{Err: context.DeadlineExceeded},
			wantTitle:  titleTimeout,
			wantAnswer: "general best effort",
		},
		{
			name:       "hybrid scoped failure falls back to guidance",
			mode:       "HYBRID",
			scope:      "6a1d3b1e-4c27-4a08-9e53-2b6b2f6f1a10",
			genErr:     &qa.GenerationError{Err: errors.New("boom")},
			wantTitle:  titleError,
			wantAnswer: qa.AdaptiveGuidance("q"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			retr := &fakeRetriever{result: scoredResult(0.9, "doc context")}
			gen := &fakeGenerator{fn: func(_, contextText string) (string, error) {
				if contextText == "doc context" {
					return "", tt.genErr
				}
				return "general best effort", nil
			}}
			svc, cache := newService(t, retr, gen, "DOC_KNOWLEDGE")

			res, err := svc.Ask(context.Background(), &dto.AskRequest{
				Question:   "q",
				Mode:       tt.mode,
				DocumentId: tt.scope,
			})
			if err != nil {
				t.Fatalf("Ask() error = %v, failures must surface as answers", err)
			}
			if res.Title != tt.wantTitle || res.Answer != tt.wantAnswer {
				t.Errorf("got %q/%q, want %q/%q", res.Title, res.Answer, tt.wantTitle, tt.wantAnswer)
			}
			if len(res.Sources) != 0 {
				t.Errorf("failure answers must not cite sources, got %+v", res.Sources)
			}
			if !res.Degraded {
				t.Error("failure answers must be flagged degraded")
			}
			if cache.Len() != 0 {
				t.Error("failure answers must not be cached")
			}
		})
	}
}

func TestAskSmallTalk(t *testing.T) {
	gen := &fakeGenerator{fn: func(string, string) (string, error) { return "Hello! Nice day.", nil }}
	retr := &fakeRetriever{}
	svc, cache := newService(t, retr, gen, "SMALL_TALK")

	res, err := svc.Ask(context.Background(), &dto.AskRequest{Question: "hi there", Mode: "GENERAL"})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if res.Answer != "Hello! Nice day." {
		t.Errorf("answer = %q", res.Answer)
	}
	if retr.calls != 0 {
		t.Error("small talk must not hit retrieval")
	}
	if cache.Len() != 1 {
		t.Error("small talk answers are cacheable")
	}
}

func TestAskSmallTalkStrictGoesToDocuments(t *testing.T) {
	retr := &fakeRetriever{result: &qa.RetrievalResult{Matches: []qa.RetrievedChunk{}}}
	gen := &fakeGenerator{fn: func(string, string) (string, error) { return "chat", nil }}
	svc, _ := newService(t, retr, gen, "SMALL_TALK")

	res, err := svc.Ask(context.Background(), &dto.AskRequest{Question: "hi there", Mode: "STRICT"})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if retr.calls != 1 {
		t.Error("STRICT must force the document path even for small talk")
	}
	if res.Answer != noDocumentsCopy {
		t.Errorf("answer = %q", res.Answer)
	}
}

func TestAskSmallTalkDegradesToGuidance(t *testing.T) {
	gen := &fakeGenerator{fn: func(string, string) (string, error) {
		return "", &qa.GenerationError{Err: errors.New("down")}
	}}
	svc, _ := newService(t, &fakeRetriever{}, gen, "SMALL_TALK")

	res, err := svc.Ask(context.Background(), &dto.AskRequest{Question: "hello", Mode: "GENERAL"})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if res.Title != titleGuidance {
		t.Errorf("title = %q, want guidance fallback", res.Title)
	}
}

func TestAskUnknownIntentWithoutScopeAnswersGenerally(t *testing.T) {
	// Only an explicit document scope sends an UNKNOWN question to the
	// index; the classifier asking for document context does not.
	classifierGen := &fakeGenerator{fn: func(_, _ string) (string, error) {
		return `{"intent":"UNKNOWN","needsDocumentContext":true}`, nil
	}}
	retr := &fakeRetriever{result: scoredResult(0.9, "doc context")}
	gen := &fakeGenerator{fn: func(string, string) (string, error) {
		return "From general knowledge.", nil
	}}
	cache := memory.NewAnswerCache(time.Minute, 10)
	svc := NewAskService(retr, gen, nil, intent.NewClassifier(classifierGen, nil, discardLogger()),
		cache, nopLogger{}, 4, 0.55)

	res, err := svc.Ask(context.Background(), &dto.AskRequest{Question: "how do mortgages work?", Mode: "HYBRID"})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if retr.calls != 0 {
		t.Errorf("retriever calls = %d, want 0 for UNKNOWN without a scope", retr.calls)
	}
	if res.Title != titleGeneral || res.Answer != "From general knowledge." {
		t.Errorf("got %q/%q, want a general-knowledge answer", res.Title, res.Answer)
	}
}

func TestAskGeneralModeSkipsRetrieval(t *testing.T) {
	retr := &fakeRetriever{result: scoredResult(0.99, "doc context")}
	gen := &fakeGenerator{fn: func(string, string) (string, error) { return "From general knowledge.", nil }}
	svc, _ := newService(t, retr, gen, "DOC_KNOWLEDGE")

	res, err := svc.Ask(context.Background(), &dto.AskRequest{Question: "what is tcp?", Mode: "GENERAL"})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if retr.calls != 0 {
		t.Error("GENERAL mode must never touch the index")
	}
	if res.Answer != "From general knowledge." {
		t.Errorf("answer = %q", res.Answer)
	}
}

func TestInvalidateDocumentDropsCorpusAnswers(t *testing.T) {
	retr := &fakeRetriever{result: scoredResult(0.9, "ctx")}
	gen := &fakeGenerator{fn: func(string, string) (string, error) { return "a", nil }}
	svc, cache := newService(t, retr, gen, "DOC_KNOWLEDGE")

	// One scoped answer, one corpus-wide answer.
	if _, err := svc.Ask(context.Background(), &dto.AskRequest{Question: "q1", Mode: "STRICT", DocumentId: "6f1e0a9c-7a39-4de0-8cb5-6f1e0a9c7a39"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Ask(context.Background(), &dto.AskRequest{Question: "q2", Mode: "STRICT"}); err != nil {
		t.Fatal(err)
	}
	if cache.Len() != 2 {
		t.Fatalf("cache len = %d, want 2", cache.Len())
	}

	svc.InvalidateDocument("6f1e0a9c-7a39-4de0-8cb5-6f1e0a9c7a39")
	if cache.Len() != 0 {
		t.Errorf("document change must drop its scope and ALL answers, len = %d", cache.Len())
	}
}

func TestInvalidateCacheEndpointSemantics(t *testing.T) {
	retr := &fakeRetriever{result: scoredResult(0.9, "ctx")}
	gen := &fakeGenerator{fn: func(string, string) (string, error) { return "a", nil }}
	svc, cache := newService(t, retr, gen, "DOC_KNOWLEDGE")

	if _, err := svc.Ask(context.Background(), &dto.AskRequest{Question: "q1", Mode: "STRICT"}); err != nil {
		t.Fatal(err)
	}

	res := svc.InvalidateCache(&dto.InvalidateCacheRequest{})
	if res.Removed != 1 || cache.Len() != 0 {
		t.Errorf("removed = %d, len = %d", res.Removed, cache.Len())
	}
}
