package ai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
)

func TestGeminiDo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/gemini-2.0-flash:generateContent" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "k" {
			t.Errorf("missing api key header")
		}
		var req gRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.GenerationConfig.ResponseMimeType != "application/json" {
			t.Errorf("expected json mime type, got %q", req.GenerationConfig.ResponseMimeType)
		}
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"ok\":true}"}]}}],"usageMetadata":{"promptTokenCount":3,"candidatesTokenCount":4}}`))
	}))
	defer srv.Close()

	c := NewGeminiClientWith("k", srv.URL, srv.Client())
	resp, err := c.Do(context.Background(), Request{Model: "gemini-2.0-flash", Prompt: "hi", JSONOutput: true})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Text != `{"ok":true}` || resp.TokensIn != 3 || resp.TokensOut != 4 {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestGeminiMissingKey(t *testing.T) {
	_, err := NewGeminiClientWith("", "http://unused", nil).Do(context.Background(), Request{})
	if !IsUnavailable(err) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestOpenAIStatusErrors(t *testing.T) {
	status := http.StatusTooManyRequests
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte("boom"))
	}))
	defer srv.Close()
	c := NewOpenAIClientWith("k", srv.URL, srv.Client())

	_, err := c.Do(context.Background(), Request{Model: "m", Prompt: "p"})
	if !IsRateLimited(err) {
		t.Fatalf("expected rate limited, got %v", err)
	}

	status = http.StatusBadGateway
	_, err = c.Do(context.Background(), Request{Model: "m", Prompt: "p"})
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != 502 || httpErr.Provider != "openai" {
		t.Fatalf("expected HTTPError 502, got %v", err)
	}
	if !IsTransient(err) {
		t.Fatal("expected 502 to be transient")
	}
}

func TestOpenAIDo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			t.Errorf("missing bearer token")
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"hello"}}],"usage":{"prompt_tokens":1,"completion_tokens":2}}`))
	}))
	defer srv.Close()
	resp, err := NewOpenAIClientWith("k", srv.URL, srv.Client()).Do(context.Background(), Request{Model: "m", Prompt: "p", SystemPrompt: "s"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Text != "hello" {
		t.Fatalf("expected hello, got %q", resp.Text)
	}
}

func TestAnthropicDo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("anthropic-version") == "" {
			t.Errorf("missing anthropic-version")
		}
		_, _ = w.Write([]byte(`{"content":[{"text":"hey"}],"usage":{"input_tokens":5,"output_tokens":6}}`))
	}))
	defer srv.Close()
	resp, err := NewAnthropicClientWith("k", srv.URL, srv.Client()).Do(context.Background(), Request{Model: "m", Prompt: "p"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Text != "hey" || resp.TokensOut != 6 {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestClassify(t *testing.T) {
	cases := map[string]error{
		"success":      nil,
		"unavailable":  ErrUnavailable,
		"rate_limited": ErrRateLimited,
		"transient":    &HTTPError{StatusCode: 503},
		"fatal":        &HTTPError{StatusCode: 400},
		"unknown":      errors.New("something odd"),
	}
	for want, err := range cases {
		if got := Classify(err); got != want {
			t.Fatalf("Classify(%v): expected %s, got %s", err, want, got)
		}
	}
	if !IsTransient(context.DeadlineExceeded) {
		t.Fatal("expected deadline to be transient")
	}
	if !IsFatal(&ValidationError{Message: "x"}) {
		t.Fatal("expected validation error to be fatal")
	}
}
