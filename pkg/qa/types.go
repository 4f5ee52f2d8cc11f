package qa

import "strings"

// Mode controls whether answers may be composed from anything other than
// the uploaded documents.
type Mode string

const (
	ModeStrict  Mode = "STRICT"  // documents only
	ModeGeneral Mode = "GENERAL" // skip documents, answer from general knowledge
	ModeHybrid  Mode = "HYBRID"  // documents first, general knowledge + web search fallback
)

// ParseMode maps a request string onto a Mode, defaulting to STRICT so an
// unknown mode can never widen the answer policy.
func ParseMode(s string) Mode {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(ModeGeneral):
		return ModeGeneral
	case string(ModeHybrid):
		return ModeHybrid
	default:
		return ModeStrict
	}
}

// Intent classifies what a question is actually asking for.
type Intent string

const (
	IntentSmallTalk        Intent = "SMALL_TALK"
	IntentDocKnowledge     Intent = "DOC_KNOWLEDGE"
	IntentGeneralKnowledge Intent = "GENERAL_KNOWLEDGE"
	IntentUnknown          Intent = "UNKNOWN"
)

// ParseIntent matches a raw model token case-insensitively against the known
// intents. ok is false for anything unrecognized.
func ParseIntent(s string) (Intent, bool) {
	switch Intent(strings.ToUpper(strings.TrimSpace(s))) {
	case IntentSmallTalk:
		return IntentSmallTalk, true
	case IntentDocKnowledge:
		return IntentDocKnowledge, true
	case IntentGeneralKnowledge:
		return IntentGeneralKnowledge, true
	case IntentUnknown:
		return IntentUnknown, true
	}
	return IntentUnknown, false
}

// RetrievedChunk is one vector-search match. Metadata is free-form and may
// carry a relevance "score" or a "distance", depending on the backend.
type RetrievedChunk struct {
	Reference  string                 `json:"reference"`
	ChunkIndex int                    `json:"chunkIndex"`
	Content    string                 `json:"content"`
	Preview    string                 `json:"preview"`
	Source     string                 `json:"source"`
	Page       *int                   `json:"page,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// RetrievalResult bundles the aggregated prompt context with the ordered
// matches it was built from. Matches may be empty but is never nil.
type RetrievalResult struct {
	Context string
	Matches []RetrievedChunk
}

// Source is a single citation attached to an Answer.
type Source struct {
	Reference string `json:"reference"`
	Source    string `json:"source"`
	Page      *int   `json:"page,omitempty"`
	Preview   string `json:"preview"`
}

// Answer is the unit returned to callers and stored in the answer cache.
type Answer struct {
	Title     string   `json:"title"`
	Answer    string   `json:"answer"`
	Sources   []Source `json:"sources"`
	FromCache bool     `json:"from_cache"`
}

// Clone deep-copies the answer so cached state can never be mutated through
// a returned value.
func (a *Answer) Clone() *Answer {
	if a == nil {
		return nil
	}
	cp := *a
	if a.Sources != nil {
		cp.Sources = make([]Source, len(a.Sources))
		for i, s := range a.Sources {
			cp.Sources[i] = s
			if s.Page != nil {
				page := *s.Page
				cp.Sources[i].Page = &page
			}
		}
	}
	return &cp
}

// SourcesFromChunks converts retrieval matches into citations, preserving
// order.
func SourcesFromChunks(chunks []RetrievedChunk) []Source {
	if len(chunks) == 0 {
		return nil
	}
	sources := make([]Source, len(chunks))
	for i, c := range chunks {
		sources[i] = Source{
			Reference: c.Reference,
			Source:    c.Source,
			Page:      c.Page,
			Preview:   c.Preview,
		}
	}
	return sources
}
