package httpbackend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bakchodai/banter-core/core/messaging"
	"github.com/bakchodai/banter-core/core/moods"
	"github.com/bakchodai/banter-core/core/personas"
	"github.com/bakchodai/banter-core/core/responses"
)

func testTurnContext() *responses.Context {
	return &responses.Context{
		Group: personas.Group{ID: "g-1", Name: "weekend crew", IsActive: true},
		CurrentPersona: personas.Persona{
			ID: "p-0", Name: "Mira", SpeakingStyle: "dry", IsActive: true,
		},
		RecentMessages: []messaging.Message{
			{ID: "m-1", GroupID: "g-1", PersonaID: "p-1", Content: "hello", Kind: messaging.KindText},
		},
		ActivePersonas: []personas.Persona{
			{ID: "p-0", Name: "Mira"},
			{ID: "p-1", Name: "Tomas"},
		},
		StartTime:    time.Now().Add(-3 * time.Minute),
		CurrentTopic: "hiking",
		Mood:         moods.Casual,
		AdditionalContext: map[string]any{
			"turnNumber": 2,
		},
	}
}

func TestGenerateSendsWirePayload(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/ai/generate-response" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("unexpected content type %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decoding request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"content": "Sounds like a plan",
			"message_type": "TEXT",
			"confidence": 0.87,
			"model_used": "gpt-test",
			"response_time_ms": 120,
			"generated_at": "2026-01-02T10:00:00",
			"is_interruption": false,
			"reasoning": "keeps it short"
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	response, err := client.Generate(context.Background(), testTurnContext())
	if err != nil {
		t.Fatalf("expected generate to succeed, got %v", err)
	}

	if response.Content != "Sounds like a plan" {
		t.Fatalf("unexpected content %q", response.Content)
	}
	if response.Kind != messaging.KindText {
		t.Fatalf("unexpected kind %s", response.Kind)
	}
	if response.Confidence != 0.87 {
		t.Fatalf("unexpected confidence %v", response.Confidence)
	}
	if response.ModelUsed != "gpt-test" {
		t.Fatalf("unexpected model %q", response.ModelUsed)
	}
	if response.ResponseTimeMs != 120 {
		t.Fatalf("unexpected latency %d", response.ResponseTimeMs)
	}
	if response.GeneratedAt.IsZero() {
		t.Fatalf("expected a parsed generation timestamp")
	}
	if response.Reasoning != "keeps it short" {
		t.Fatalf("unexpected reasoning %q", response.Reasoning)
	}

	for _, key := range []string{
		"group", "current_character", "recent_messages", "active_characters",
		"additional_context", "conversation_start_time", "current_topic", "mood",
	} {
		if _, ok := captured[key]; !ok {
			t.Fatalf("request payload missing %q: %v", key, captured)
		}
	}
	if captured["mood"] != "CASUAL" {
		t.Fatalf("unexpected mood %v", captured["mood"])
	}
	character, _ := captured["current_character"].(map[string]any)
	if character["name"] != "Mira" {
		t.Fatalf("unexpected current character %v", character)
	}
	active, _ := captured["active_characters"].([]any)
	if len(active) != 2 {
		t.Fatalf("expected 2 active characters, got %v", captured["active_characters"])
	}
	recent, _ := captured["recent_messages"].([]any)
	if len(recent) != 1 {
		t.Fatalf("expected 1 recent message, got %v", captured["recent_messages"])
	}
}

func TestGenerateNon200IsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend on fire", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.Generate(context.Background(), testTurnContext()); err == nil {
		t.Fatalf("expected an error for a non-200 status")
	}
}

func TestGenerateMalformedBodyIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json at all"))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.Generate(context.Background(), testTurnContext()); err == nil {
		t.Fatalf("expected an error for an undecodable body")
	}
}

func TestHealthyBodyForms(t *testing.T) {
	cases := []struct {
		name string
		body string
		want bool
	}{
		{"plain ok", "ok", true},
		{"upper ok", "OK", true},
		{"padded ok", "  Ok\n", true},
		{"structured healthy", `{"status":"healthy"}`, true},
		{"structured healthy spaced", `{ "status": "healthy" }`, true},
		{"structured degraded", `{"status":"degraded"}`, false},
		{"empty", "", false},
		{"garbage", "something else", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/health" {
					t.Errorf("unexpected path %q", r.URL.Path)
				}
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			client := NewClient(server.URL)
			healthy, err := client.Healthy(context.Background())
			if err != nil {
				t.Fatalf("expected health check to succeed, got %v", err)
			}
			if healthy != tc.want {
				t.Fatalf("healthy = %t for body %q, want %t", healthy, tc.body, tc.want)
			}
		})
	}
}

func TestHealthyNon200IsUnhealthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	healthy, err := client.Healthy(context.Background())
	if err != nil {
		t.Fatalf("expected health check to succeed, got %v", err)
	}
	if healthy {
		t.Fatalf("non-200 must be unhealthy")
	}
}

func TestClientOptions(t *testing.T) {
	client := NewClient("http://example.test/", WithName("custom"), WithPriority(7))
	if client.Name() != "custom" {
		t.Fatalf("unexpected name %q", client.Name())
	}
	if client.Priority() != 7 {
		t.Fatalf("unexpected priority %d", client.Priority())
	}
	if client.baseURL != "http://example.test" {
		t.Fatalf("expected trailing slash trimmed, got %q", client.baseURL)
	}
}
