package provider

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/psych-platform/chatbot-backend/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(&config.ProviderConfig{
		BaseURL:      srv.URL,
		APIKey:       "sk-test",
		Model:        "gpt-3.5-turbo",
		SystemPrompt: "You are a helpful assistant for psychology students.",
		Timeout:      5 * time.Second,
	})
}

func TestComplete_Success(t *testing.T) {
	var got completionRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("Authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "Cognition is thinking."}},
			},
		})
	})

	reply, err := client.Complete(context.Background(), "What is cognition?")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if reply != "Cognition is thinking." {
		t.Errorf("reply = %q", reply)
	}

	if got.Model != "gpt-3.5-turbo" {
		t.Errorf("model = %q", got.Model)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Content != "What is cognition?" {
		t.Errorf("messages = %+v, want system framing then user message", got.Messages)
	}
}

func TestComplete_ProviderErrorRetainsDetail(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "Rate limit reached for requests"},
		})
	})

	_, err := client.Complete(context.Background(), "hello")
	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want *provider.Error", err)
	}
	if perr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("StatusCode = %d, want 429", perr.StatusCode)
	}
	if perr.Message != "Rate limit reached for requests" {
		t.Errorf("Message = %q, provider detail must be retained", perr.Message)
	}
}

func TestComplete_MalformedErrorBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("not json"))
	})

	_, err := client.Complete(context.Background(), "hello")
	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want *provider.Error", err)
	}
	if perr.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d", perr.StatusCode)
	}
}

func TestComplete_NoChoices(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	})

	_, err := client.Complete(context.Background(), "hello")
	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want *provider.Error", err)
	}
}

func TestComplete_ContextCancellation(t *testing.T) {
	started := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server's background read can observe the
		// client disconnect and cancel the request context; otherwise this
		// handler never returns and srv.Close deadlocks in test cleanup.
		io.Copy(io.Discard, r.Body)
		close(started)
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := client.Complete(ctx, "hello")
	if err == nil {
		t.Fatal("expected error after cancellation")
	}
	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want *provider.Error", err)
	}
}

func TestComplete_OmitsEmptySystemPrompt(t *testing.T) {
	var got completionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": "ok"}},
			},
		})
	}))
	defer srv.Close()

	client := NewClient(&config.ProviderConfig{
		BaseURL: srv.URL,
		APIKey:  "sk-test",
		Model:   "gpt-3.5-turbo",
		Timeout: 5 * time.Second,
	})

	if _, err := client.Complete(context.Background(), "hi"); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != "user" {
		t.Errorf("messages = %+v, want only the user message", got.Messages)
	}
}
