package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"oneask-be/pkg/qa"
	"oneask-be/pkg/qa/generation"
)

// DefaultClassificationTimeout keeps the classification call snappy; going
// over it just means falling back to the keyword heuristic.
const DefaultClassificationTimeout = 3 * time.Second

// DefaultSmallTalkKeywords are the out-of-the-box small-talk markers for the
// product's operating languages. Deployments tune the list via config.
var DefaultSmallTalkKeywords = []string{
	"날씨", "안녕", "hello", "hi", "고마워", "thank",
	"기분", "오늘 어때", "weather", "how are you",
}

// Result carries the classified intent plus how it was derived.
type Result struct {
	Intent               qa.Intent
	NeedsDocumentContext bool
	FromFallback         bool
}

// Classifier determines what a question is asking for by prompting the
// generation backend for a JSON verdict, with a keyword heuristic as the
// fallback. Classify never returns an error: every internal failure recovers
// into the heuristic path.
type Classifier struct {
	generator generation.Generator
	keywords  []string
	timeout   time.Duration
	logger    *log.Logger
}

func NewClassifier(generator generation.Generator, keywords []string, logger *log.Logger) *Classifier {
	if len(keywords) == 0 {
		keywords = DefaultSmallTalkKeywords
	}
	return &Classifier{
		generator: generator,
		keywords:  keywords,
		timeout:   DefaultClassificationTimeout,
		logger:    logger,
	}
}

// Classify resolves the intent of question, scoped to docID when non-empty.
func (c *Classifier) Classify(ctx context.Context, question, docID string) Result {
	if strings.TrimSpace(question) == "" {
		return Result{
			Intent:               qa.IntentUnknown,
			NeedsDocumentContext: docID != "",
			FromFallback:         true,
		}
	}

	raw, err := c.generator.Generate(ctx, question, c.buildSystemPrompt(docID),
		generation.WithTimeout(c.timeout))
	if err != nil {
		c.logger.Printf("[INTENT] classification call failed, using heuristic: %v", err)
		return c.heuristic(question, docID)
	}

	if parsed, ok := c.parseIntent(raw, docID); ok {
		return parsed
	}
	return c.heuristic(question, docID)
}

type classifierVerdict struct {
	Intent               string `json:"intent"`
	NeedsDocumentContext *bool  `json:"needsDocumentContext"`
}

// parseIntent extracts the first balanced {...} substring of the raw model
// output and decodes it strictly into the known intent set.
func (c *Classifier) parseIntent(raw, docID string) (Result, bool) {
	trimmed := strings.TrimSpace(raw)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start < 0 || end <= start {
		return Result{}, false
	}

	var verdict classifierVerdict
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &verdict); err != nil {
		c.logger.Printf("[INTENT] verdict parse failed: %v", err)
		return Result{}, false
	}

	parsed, ok := qa.ParseIntent(verdict.Intent)
	if !ok {
		return Result{}, false
	}

	needsDoc := docID != ""
	if verdict.NeedsDocumentContext != nil {
		needsDoc = *verdict.NeedsDocumentContext
	}
	return Result{Intent: parsed, NeedsDocumentContext: needsDoc}, true
}

func (c *Classifier) heuristic(question, docID string) Result {
	hasDoc := docID != ""
	if !hasDoc && c.isLikelySmallTalk(question) {
		return Result{Intent: qa.IntentSmallTalk, FromFallback: true}
	}
	resolved := qa.IntentGeneralKnowledge
	if hasDoc {
		resolved = qa.IntentDocKnowledge
	}
	return Result{Intent: resolved, NeedsDocumentContext: hasDoc, FromFallback: true}
}

func (c *Classifier) isLikelySmallTalk(question string) bool {
	normalized := strings.ToLower(question)
	for _, keyword := range c.keywords {
		if strings.Contains(normalized, keyword) {
			return true
		}
	}
	return false
}

func (c *Classifier) buildSystemPrompt(docID string) string {
	target := "(no specific document)"
	if docID != "" {
		target = fmt.Sprintf("(document ID: %s)", docID)
	}
	return "You are a question-routing classifier. Do not answer the question; " +
		"return only the intent as JSON. Keys: intent (required), needsDocumentContext (boolean). " +
		"Allowed intent values: SMALL_TALK, DOC_KNOWLEDGE, GENERAL_KNOWLEDGE, UNKNOWN. " +
		"SMALL_TALK means greetings, chit-chat, weather, or feelings. DOC_KNOWLEDGE means the " +
		"question is about uploaded documents or their contents. GENERAL_KNOWLEDGE means outside " +
		"common knowledge. UNKNOWN means you cannot tell. " +
		"Target document: " + target + ". " +
		"Keep the question's language and reply with JSON only, no extra text or code blocks."
}
