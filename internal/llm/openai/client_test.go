package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"study-backend/internal/llm"
)

type capture struct {
	mu     sync.Mutex
	bodies []map[string]any
}

func (c *capture) add(b map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bodies = append(c.bodies, b)
}

func (c *capture) all() []map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]map[string]any(nil), c.bodies...)
}

func newServer(t *testing.T, cap *capture, handler func(w http.ResponseWriter, call int)) *httptest.Server {
	t.Helper()
	calls := 0
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		cap.add(payload)
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		handler(w, n)
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestTransport(t *testing.T, baseURL, model string) *Transport {
	t.Helper()
	tr, err := NewTransport(Config{APIKey: "test-key", BaseURL: baseURL + "/v1", Model: model})
	if err != nil {
		t.Fatalf("NewTransport: %v", err)
	}
	return tr
}

func TestSendTextRequest(t *testing.T) {
	cap := &capture{}
	server := newServer(t, cap, func(w http.ResponseWriter, _ int) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  Photosynthesis summary  "}}],"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`))
	})
	tr := newTestTransport(t, server.URL, "gpt-4o-mini")

	got, err := tr.Send(context.Background(), llm.Request{
		System:      "You are an expert study assistant.",
		User:        "Summarise this",
		MaxTokens:   1500,
		Temperature: 0.3,
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got != "Photosynthesis summary" {
		t.Fatalf("unexpected content %q", got)
	}

	bodies := cap.all()
	if len(bodies) != 1 {
		t.Fatalf("expected 1 request, got %d", len(bodies))
	}
	body := bodies[0]
	if body["model"] != "gpt-4o-mini" {
		t.Fatalf("unexpected model %v", body["model"])
	}
	if body["max_tokens"] != float64(1500) {
		t.Fatalf("unexpected max_tokens %v", body["max_tokens"])
	}
	if temp, ok := body["temperature"].(float64); !ok || temp < 0.29 || temp > 0.31 {
		t.Fatalf("unexpected temperature %v", body["temperature"])
	}
	msgs, _ := body["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("expected system and user messages, got %d", len(msgs))
	}
}

func TestSendVisionRequestUsesImagePart(t *testing.T) {
	cap := &capture{}
	server := newServer(t, cap, func(w http.ResponseWriter, _ int) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"diagram of a cell"}}]}`))
	})
	tr := newTestTransport(t, server.URL, "gpt-4o-mini")

	_, err := tr.Send(context.Background(), llm.Request{
		System:      "Extract text",
		User:        "Please analyze this image",
		ImageURL:    "data:image/png;base64,AAAA",
		ImageDetail: llm.ImageDetailHigh,
		MaxTokens:   3000,
		Temperature: 0.1,
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	msgs := cap.all()[0]["messages"].([]any)
	user := msgs[1].(map[string]any)
	parts, ok := user["content"].([]any)
	if !ok || len(parts) != 2 {
		t.Fatalf("expected multi-part content, got %#v", user["content"])
	}
	image := parts[1].(map[string]any)
	if image["type"] != "image_url" {
		t.Fatalf("unexpected part type %v", image["type"])
	}
	url := image["image_url"].(map[string]any)
	if url["url"] != "data:image/png;base64,AAAA" || url["detail"] != "high" {
		t.Fatalf("unexpected image part %#v", url)
	}
}

func TestSendMapsRateLimit(t *testing.T) {
	cap := &capture{}
	server := newServer(t, cap, func(w http.ResponseWriter, _ int) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"Rate limit reached for gpt-4o-mini","type":"requests"}}`))
	})
	tr := newTestTransport(t, server.URL, "gpt-4o-mini")

	_, err := tr.Send(context.Background(), llm.Request{User: "hi"})
	var pe *llm.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProviderError, got %T %v", err, err)
	}
	if pe.StatusCode != http.StatusTooManyRequests || !pe.RateLimited() {
		t.Fatalf("expected rate-limited 429, got %+v", pe)
	}
}

func TestSendMapsServerError(t *testing.T) {
	cap := &capture{}
	server := newServer(t, cap, func(w http.ResponseWriter, _ int) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`upstream exploded`))
	})
	tr := newTestTransport(t, server.URL, "gpt-4o-mini")

	_, err := tr.Send(context.Background(), llm.Request{User: "hi"})
	var pe *llm.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProviderError, got %T %v", err, err)
	}
	if pe.StatusCode != http.StatusInternalServerError || pe.RateLimited() {
		t.Fatalf("unexpected provider error %+v", pe)
	}
}

func TestSendEmptyContentIsProviderError(t *testing.T) {
	cap := &capture{}
	server := newServer(t, cap, func(w http.ResponseWriter, _ int) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"   "}}]}`))
	})
	tr := newTestTransport(t, server.URL, "gpt-4o-mini")

	if _, err := tr.Send(context.Background(), llm.Request{User: "hi"}); !errors.Is(err, llm.ErrProvider) {
		t.Fatalf("expected ErrProvider, got %v", err)
	}
}

func TestSendRetriesWithoutTemperatureOnce(t *testing.T) {
	cap := &capture{}
	server := newServer(t, cap, func(w http.ResponseWriter, call int) {
		if call == 1 {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"message":"Unsupported value: 'temperature' does not support 0.3 with this model.","type":"invalid_request_error"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	})
	tr := newTestTransport(t, server.URL, "gpt-4o-mini")

	if _, err := tr.Send(context.Background(), llm.Request{User: "hi", Temperature: 0.3}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	bodies := cap.all()
	if len(bodies) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(bodies))
	}
	if _, ok := bodies[0]["temperature"]; !ok {
		t.Fatalf("expected first request to include temperature")
	}
	if _, ok := bodies[1]["temperature"]; ok {
		t.Fatalf("expected retry to omit temperature")
	}
}

func TestOmitsTemperature(t *testing.T) {
	tests := []struct {
		name  string
		model string
		want  bool
	}{
		{name: "gpt5", model: "gpt-5", want: true},
		{name: "gpt5 variant", model: "gpt-5-mini", want: true},
		{name: "o1 uppercase", model: " O1-mini ", want: true},
		{name: "gpt4o mini", model: "gpt-4o-mini", want: false},
		{name: "empty", model: "", want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := omitsTemperature(tt.model); got != tt.want {
				t.Fatalf("omitsTemperature(%q) = %v, want %v", tt.model, got, tt.want)
			}
		})
	}
}

func TestNewTransportValidatesConfig(t *testing.T) {
	if _, err := NewTransport(Config{APIKey: "k"}); err == nil {
		t.Fatalf("expected missing model error")
	}
	if _, err := NewTransport(Config{Model: "gpt-4o-mini"}); err == nil {
		t.Fatalf("expected missing api key error")
	}
}
