package qa

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrBackendUnset is returned when a client is asked to call an external
// backend whose base URL was never configured.
var ErrBackendUnset = errors.New("qa backend URL is not configured")

// RetrievalError means the search backend was unreachable or returned
// malformed data. The orchestrator treats it as "no evidence", not as fatal.
type RetrievalError struct {
	Err error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval failed: %v", e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// GenerationError means the generation backend failed or produced an
// empty/blank answer body.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// GenerationTimeoutError means a caller-specified generation deadline was
// exceeded. It is kept distinct from GenerationError so the orchestrator can
// pick delay-specific fallback copy.
type GenerationTimeoutError struct {
	Err error
}

func (e *GenerationTimeoutError) Error() string {
	return fmt.Sprintf("generation timed out: %v", e.Err)
}

func (e *GenerationTimeoutError) Unwrap() error { return e.Err }

// IsTimeout reports whether err anywhere in its chain indicates a timeout:
// a GenerationTimeoutError, a context deadline, a net.Error timeout, or a
// message mentioning "timeout".
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	var genTimeout *GenerationTimeoutError
	if errors.As(err, &genTimeout) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	for cursor := err; cursor != nil; cursor = errors.Unwrap(cursor) {
		if strings.Contains(strings.ToLower(cursor.Error()), "timeout") {
			return true
		}
	}
	return false
}
