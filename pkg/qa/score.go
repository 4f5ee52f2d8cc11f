package qa

import "encoding/json"

// ScoreThreshold is the relevance gate for using retrieved context when mode
// alone does not force it.
const ScoreThreshold = 0.55

// ChunkScore extracts a relevance score from a chunk's metadata. Strategies
// are tried in order: an explicit "score" value, then a score derived from a
// "distance" value as 1/(1+distance). ok is false when neither is present.
func ChunkScore(chunk RetrievedChunk) (score float64, ok bool) {
	if chunk.Metadata == nil {
		return 0, false
	}
	if raw, present := chunk.Metadata["score"]; present {
		if v, numeric := asFloat(raw); numeric {
			return v, true
		}
	}
	if raw, present := chunk.Metadata["distance"]; present {
		if v, numeric := asFloat(raw); numeric {
			return 1 / (1 + v), true
		}
	}
	return 0, false
}

// MaxScore returns the maximum known score across chunks. ok is false when
// no chunk carries a derivable score.
func MaxScore(chunks []RetrievedChunk) (max float64, ok bool) {
	for _, chunk := range chunks {
		score, known := ChunkScore(chunk)
		if !known {
			continue
		}
		if !ok || score > max {
			max = score
			ok = true
		}
	}
	return max, ok
}

// asFloat coerces the numeric shapes a decoded JSON metadata map can hold.
func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
