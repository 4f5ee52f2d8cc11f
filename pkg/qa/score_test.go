package qa

import (
	"encoding/json"
	"math"
	"testing"
)

func TestChunkScore(t *testing.T) {
	tests := []struct {
		name     string
		metadata map[string]interface{}
		want     float64
		ok       bool
	}{
		{name: "nil metadata", metadata: nil, ok: false},
		{name: "explicit score", metadata: map[string]interface{}{"score": 0.82}, want: 0.82, ok: true},
		{name: "score wins over distance", metadata: map[string]interface{}{"score": 0.9, "distance": 10.0}, want: 0.9, ok: true},
		{name: "distance derived", metadata: map[string]interface{}{"distance": 1.0}, want: 0.5, ok: true},
		{name: "zero distance", metadata: map[string]interface{}{"distance": 0.0}, want: 1.0, ok: true},
		{name: "json number score", metadata: map[string]interface{}{"score": json.Number("0.75")}, want: 0.75, ok: true},
		{name: "integer score", metadata: map[string]interface{}{"score": 1}, want: 1.0, ok: true},
		{name: "non numeric score", metadata: map[string]interface{}{"score": "high"}, ok: false},
		{name: "unrelated keys", metadata: map[string]interface{}{"source": "handbook.pdf"}, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ChunkScore(RetrievedChunk{Metadata: tt.metadata})
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("score = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestMaxScore(t *testing.T) {
	chunks := []RetrievedChunk{
		{Metadata: map[string]interface{}{"score": 0.3}},
		{Metadata: map[string]interface{}{"distance": 0.25}}, // 0.8
		{Metadata: map[string]interface{}{"note": "no score"}},
		{Metadata: map[string]interface{}{"score": 0.6}},
	}

	got, ok := MaxScore(chunks)
	if !ok {
		t.Fatal("expected a score")
	}
	if math.Abs(got-0.8) > 1e-9 {
		t.Errorf("max = %f, want 0.8", got)
	}
}

func TestMaxScoreNoEvidence(t *testing.T) {
	chunks := []RetrievedChunk{
		{Metadata: nil},
		{Metadata: map[string]interface{}{"source": "a.pdf"}},
	}
	if _, ok := MaxScore(chunks); ok {
		t.Fatal("expected no derivable score")
	}
	if _, ok := MaxScore(nil); ok {
		t.Fatal("expected no score for empty input")
	}
}
