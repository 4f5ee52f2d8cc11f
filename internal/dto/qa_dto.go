package dto

import "oneask-be/pkg/qa"

type AskRequest struct {
	DocumentId string `json:"documentId,omitempty" validate:"omitempty,uuid"`
	Question   string `json:"question" validate:"required"`
	Mode       string `json:"mode,omitempty" validate:"omitempty,oneof=STRICT GENERAL HYBRID strict general hybrid"`
}

type SourceDTO struct {
	Reference string `json:"reference"`
	Source    string `json:"source"`
	Page      *int   `json:"page,omitempty"`
	Preview   string `json:"preview"`
}

type AskResponse struct {
	Title     string      `json:"title"`
	Answer    string      `json:"answer"`
	Sources   []SourceDTO `json:"sources,omitempty"`
	FromCache bool        `json:"from_cache"`
	Intent    string      `json:"intent,omitempty"`
	Mode      string      `json:"mode"`
	// Degraded marks answers composed after a generation failure. The
	// envelope reports success=false while still carrying the answer.
	Degraded bool `json:"degraded,omitempty"`
}

type InvalidateCacheRequest struct {
	DocumentId string `json:"documentId,omitempty" validate:"omitempty,uuid"`
}

type InvalidateCacheResponse struct {
	Removed int `json:"removed"`
}

// AnswerToResponse adapts a domain answer to the transport shape.
func AnswerToResponse(answer *qa.Answer, intent qa.Intent, mode qa.Mode) *AskResponse {
	if answer == nil {
		return nil
	}
	sources := make([]SourceDTO, len(answer.Sources))
	for i, s := range answer.Sources {
		sources[i] = SourceDTO{
			Reference: s.Reference,
			Source:    s.Source,
			Page:      s.Page,
			Preview:   s.Preview,
		}
	}
	if len(sources) == 0 {
		sources = nil
	}
	return &AskResponse{
		Title:     answer.Title,
		Answer:    answer.Answer,
		Sources:   sources,
		FromCache: answer.FromCache,
		Intent:    string(intent),
		Mode:      string(mode),
	}
}
