package intent

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"oneask-be/pkg/qa"
	"oneask-be/pkg/qa/generation"
)

type stubGenerator struct {
	reply string
	err   error
}

func (s *stubGenerator) Generate(_ context.Context, _, _ string, _ ...generation.Option) (string, error) {
	return s.reply, s.err
}

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestClassifyParsesVerdict(t *testing.T) {
	tests := []struct {
		name     string
		reply    string
		docID    string
		wantInt  qa.Intent
		wantDoc  bool
		fallback bool
	}{
		{
			name:    "clean json",
			reply:   `{"intent":"DOC_KNOWLEDGE","needsDocumentContext":true}`,
			wantInt: qa.IntentDocKnowledge,
			wantDoc: true,
		},
		{
			name:    "json wrapped in prose",
			reply:   "Sure! Here is the verdict: {\"intent\":\"small_talk\"} hope it helps",
			wantInt: qa.IntentSmallTalk,
		},
		{
			name:    "missing needsDocumentContext defaults to scope",
			reply:   `{"intent":"GENERAL_KNOWLEDGE"}`,
			docID:   "doc-1",
			wantInt: qa.IntentGeneralKnowledge,
			wantDoc: true,
		},
		{
			name:     "unknown enum falls back",
			reply:    `{"intent":"BANTER"}`,
			docID:    "doc-1",
			wantInt:  qa.IntentDocKnowledge,
			wantDoc:  true,
			fallback: true,
		},
		{
			name:     "no json at all falls back",
			reply:    "I think this is about the weather",
			wantInt:  qa.IntentGeneralKnowledge,
			fallback: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClassifier(&stubGenerator{reply: tt.reply}, nil, testLogger())
			got := c.Classify(context.Background(), "what is the leave policy?", tt.docID)
			if got.Intent != tt.wantInt {
				t.Errorf("intent = %s, want %s", got.Intent, tt.wantInt)
			}
			if got.NeedsDocumentContext != tt.wantDoc {
				t.Errorf("needsDocumentContext = %v, want %v", got.NeedsDocumentContext, tt.wantDoc)
			}
			if got.FromFallback != tt.fallback {
				t.Errorf("fromFallback = %v, want %v", got.FromFallback, tt.fallback)
			}
		})
	}
}

func TestClassifyHeuristicOnError(t *testing.T) {
	c := NewClassifier(&stubGenerator{err: errors.New("backend down")}, nil, testLogger())

	got := c.Classify(context.Background(), "안녕하세요! 오늘 날씨 어때요?", "")
	if got.Intent != qa.IntentSmallTalk {
		t.Fatalf("intent = %s, want %s", got.Intent, qa.IntentSmallTalk)
	}
	if !got.FromFallback {
		t.Fatal("expected fallback result")
	}

	got = c.Classify(context.Background(), "how do I reset my password?", "doc-9")
	if got.Intent != qa.IntentDocKnowledge {
		t.Fatalf("intent = %s, want %s", got.Intent, qa.IntentDocKnowledge)
	}
	if !got.NeedsDocumentContext {
		t.Fatal("expected needsDocumentContext with a scoped question")
	}
}

func TestClassifyBlankQuestion(t *testing.T) {
	c := NewClassifier(&stubGenerator{reply: `{"intent":"SMALL_TALK"}`}, nil, testLogger())
	got := c.Classify(context.Background(), "   ", "doc-3")
	if got.Intent != qa.IntentUnknown {
		t.Fatalf("intent = %s, want %s", got.Intent, qa.IntentUnknown)
	}
	if !got.NeedsDocumentContext || !got.FromFallback {
		t.Fatalf("got %+v, want scoped fallback unknown", got)
	}
}
