package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func geminiServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		var req geminiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Contents) != 1 || len(req.Contents[0].Parts) != 2 {
			t.Errorf("unexpected request shape: %+v", req)
		}
		if req.GenerationConfig.MaxOutputTokens != 10 {
			t.Errorf("maxOutputTokens = %d, want 10", req.GenerationConfig.MaxOutputTokens)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
}

func TestGeminiClassifier_Classify(t *testing.T) {
	srv := geminiServer(t, http.StatusOK,
		`{"candidates":[{"content":{"parts":[{"text":"happy"}]}}]}`)
	defer srv.Close()

	c := NewGeminiClassifier("test-key", "gemini-2.0-flash", srv.URL, 5*time.Second)
	text, err := c.Classify(context.Background(), "c29tZSBhdWRpbw==")
	if err != nil {
		t.Fatalf("Classify error: %v", err)
	}
	if text != "happy" {
		t.Errorf("text = %q, want happy", text)
	}
}

func TestGeminiClassifier_APIError(t *testing.T) {
	srv := geminiServer(t, http.StatusBadRequest,
		`{"error":{"message":"API key not valid"}}`)
	defer srv.Close()

	c := NewGeminiClassifier("bad-key", "gemini-2.0-flash", srv.URL, 5*time.Second)
	if _, err := c.Classify(context.Background(), "c29tZSBhdWRpbw=="); err == nil {
		t.Error("expected error for API error response")
	}
}

func TestGeminiClassifier_EmptyCandidates(t *testing.T) {
	srv := geminiServer(t, http.StatusOK, `{"candidates":[]}`)
	defer srv.Close()

	c := NewGeminiClassifier("test-key", "gemini-2.0-flash", srv.URL, 5*time.Second)
	if _, err := c.Classify(context.Background(), "c29tZSBhdWRpbw=="); err == nil {
		t.Error("expected error for empty candidates")
	}
}

func TestGeminiClassifier_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := NewGeminiClassifier("test-key", "gemini-2.0-flash", srv.URL, 5*time.Second)
	if _, err := c.Classify(context.Background(), "c29tZSBhdWRpbw=="); err == nil {
		t.Error("expected error for unparsable response")
	}
}

func TestGeminiClassifier_Unreachable(t *testing.T) {
	c := NewGeminiClassifier("test-key", "gemini-2.0-flash", "http://127.0.0.1:1", time.Second)
	if _, err := c.Classify(context.Background(), "c29tZSBhdWRpbw=="); err == nil {
		t.Error("expected error for unreachable endpoint")
	}
}
