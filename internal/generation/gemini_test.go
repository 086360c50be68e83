package generation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newTestGemini(t *testing.T, handler http.HandlerFunc, maxRetries uint64) *Gemini {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewGemini(GeminiConfig{
		APIKey:     "test-key",
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
		MaxRetries: maxRetries,
		RetryBase:  time.Millisecond,
	})
}

func writeCandidate(w http.ResponseWriter, parts ...string) {
	var ps []geminiPart
	for _, p := range parts {
		ps = append(ps, geminiPart{Text: p})
	}
	_ = json.NewEncoder(w).Encode(geminiResponse{
		Candidates: []geminiCandidate{{Content: geminiContent{Parts: ps}}},
	})
}

func TestGemini_Generate(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Error("Missing API key in x-goog-api-key header")
		}
		if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, "/gemini-2.0-flash:generateContent") {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req geminiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Contents) != 1 || req.Contents[0].Parts[0].Text != "review me" {
			t.Errorf("unexpected payload: %+v", req)
		}
		writeCandidate(w, "part one, ", "part two")
	}, 0)

	text, err := g.Generate(context.Background(), "review me")
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if text != "part one, part two" {
		t.Errorf("text = %q", text)
	}
}

func TestGemini_RetriesRateLimit(t *testing.T) {
	var calls int32
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		writeCandidate(w, "ok")
	}, 3)

	text, err := g.Generate(context.Background(), "p")
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if text != "ok" || atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("text=%q calls=%d", text, calls)
	}
}

func TestGemini_AuthErrorNotRetried(t *testing.T) {
	var calls int32
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"bad key"}`))
	}, 3)

	_, err := g.Generate(context.Background(), "p")
	if !IsAuthError(err) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("auth errors must not be retried, calls=%d", calls)
	}
}

func TestGemini_ServerErrorExhaustsRetries(t *testing.T) {
	var calls int32
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}, 2)

	_, err := g.Generate(context.Background(), "p")
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 StatusError, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestGemini_NoCandidates(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}, 0)

	text, err := g.Generate(context.Background(), "p")
	if err != nil || text != "" {
		t.Fatalf("expected empty text without error, got %q, %v", text, err)
	}
}

func TestGemini_MissingKey(t *testing.T) {
	g := NewGemini(GeminiConfig{})
	if g.Model() != DefaultGeminiModel {
		t.Fatalf("model = %q", g.Model())
	}
	if _, err := g.Generate(context.Background(), "p"); err == nil {
		t.Fatal("expected error without API key")
	}
}

func TestGemini_ContextCancelled(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := g.Generate(ctx, "p"); err == nil {
		t.Fatal("expected error when the context is cancelled")
	}
}
