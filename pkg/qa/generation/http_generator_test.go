package generation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"oneask-be/pkg/qa"
)

func TestHTTPGeneratorGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/query/generate" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req["question"] != "how many leave days?" || req["context"] != "Annual leave is 15 days." {
			t.Errorf("unexpected request body: %v", req)
		}
		json.NewEncoder(w).Encode(map[string]string{"answer": "You get 15 days of annual leave."})
	}))
	defer srv.Close()

	got, err := NewHTTPGenerator(srv.URL).Generate(context.Background(), "how many leave days?", "Annual leave is 15 days.")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "You get 15 days of annual leave." {
		t.Errorf("answer = %q", got)
	}
}

func TestHTTPGeneratorEmptyAnswerIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"answer": "   "})
	}))
	defer srv.Close()

	_, err := NewHTTPGenerator(srv.URL).Generate(context.Background(), "q", "")
	var ge *qa.GenerationError
	if !errors.As(err, &ge) {
		t.Fatalf("error = %T, want *qa.GenerationError", err)
	}
}

func TestHTTPGeneratorTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		json.NewEncoder(w).Encode(map[string]string{"answer": "too late"})
	}))
	defer srv.Close()

	_, err := NewHTTPGenerator(srv.URL).Generate(context.Background(), "q", "",
		WithTimeout(20*time.Millisecond))
	var te *qa.GenerationTimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("error = %T (%v), want *qa.GenerationTimeoutError", err, err)
	}
	if !qa.IsTimeout(err) {
		t.Error("IsTimeout should recognize a generation timeout")
	}
}

func TestHTTPGeneratorUnsetBackend(t *testing.T) {
	_, err := NewHTTPGenerator("").Generate(context.Background(), "q", "")
	if !errors.Is(err, qa.ErrBackendUnset) {
		t.Fatalf("error = %v, want ErrBackendUnset", err)
	}
	if qa.IsTimeout(err) {
		t.Error("backend-unset must not look like a timeout")
	}
}
