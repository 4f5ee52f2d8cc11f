package generation

import (
	"context"
	"time"
)

// Option allows optional parameters on a generation call.
type Option func(*Options)

type Options struct {
	// Timeout bounds the whole call. Zero means "no explicit deadline":
	// the call blocks until the backend answers or the transport gives up.
	Timeout time.Duration
}

func WithTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.Timeout = timeout
	}
}

// Generator defines the contract for any answer-generation backend.
// contextText carries retrieved document context or a system instruction;
// it may be empty for plain general-knowledge prompts.
type Generator interface {
	Generate(ctx context.Context, question, contextText string, opts ...Option) (string, error)
}
