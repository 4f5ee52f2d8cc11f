package retrieval

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"oneask-be/pkg/qa"
)

func TestHTTPRetrieverRetrieve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/query/retrieve" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req["question"] != "leave policy?" || req["docId"] != "doc-1" || req["top_k"] != float64(4) {
			t.Errorf("unexpected request body: %v", req)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"context": "Annual leave is 15 days.",
			"matches": []map[string]interface{}{
				{
					"reference":  "[chunk 1]",
					"chunkIndex": 0,
					"content":    "Annual leave is 15 days.",
					"source":     "handbook.pdf",
					"metadata":   map[string]interface{}{"score": 0.91},
				},
			},
		})
	}))
	defer srv.Close()

	r := NewHTTPRetriever(srv.URL)
	got, err := r.Retrieve(context.Background(), "leave policy?", "doc-1", 4)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if got.Context != "Annual leave is 15 days." {
		t.Errorf("context = %q", got.Context)
	}
	if len(got.Matches) != 1 || got.Matches[0].Source != "handbook.pdf" {
		t.Errorf("matches = %+v", got.Matches)
	}
	if score, ok := qa.ChunkScore(got.Matches[0]); !ok || score != 0.91 {
		t.Errorf("score = %f, ok = %v", score, ok)
	}
}

func TestHTTPRetrieverNormalizesNilMatches(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"context": ""})
	}))
	defer srv.Close()

	got, err := NewHTTPRetriever(srv.URL).Retrieve(context.Background(), "q", "", 4)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if got.Matches == nil || len(got.Matches) != 0 {
		t.Errorf("matches = %#v, want empty non-nil slice", got.Matches)
	}
}

func TestHTTPRetrieverErrors(t *testing.T) {
	t.Run("unset backend", func(t *testing.T) {
		_, err := NewHTTPRetriever("").Retrieve(context.Background(), "q", "", 4)
		var re *qa.RetrievalError
		if !errors.As(err, &re) {
			t.Fatalf("error = %T, want *qa.RetrievalError", err)
		}
		if !errors.Is(err, qa.ErrBackendUnset) {
			t.Errorf("error should wrap ErrBackendUnset, got %v", err)
		}
	})

	t.Run("server error status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer srv.Close()

		_, err := NewHTTPRetriever(srv.URL).Retrieve(context.Background(), "q", "", 4)
		var re *qa.RetrievalError
		if !errors.As(err, &re) {
			t.Fatalf("error = %T, want *qa.RetrievalError", err)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}))
		defer srv.Close()

		_, err := NewHTTPRetriever(srv.URL).Retrieve(context.Background(), "q", "", 4)
		var re *qa.RetrievalError
		if !errors.As(err, &re) {
			t.Fatalf("error = %T, want *qa.RetrievalError", err)
		}
	})
}
