package responses

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/bakchodai/banter-core/core/messaging"
)

func TestFallbackIsAlwaysValid(t *testing.T) {
	generator := NewFallbackGenerator(rand.NewSource(1))

	phrases := FallbackPhrases()
	for i := 0; i < 50; i++ {
		response := generator.Generate()

		if !response.Valid() {
			t.Fatalf("fallback response is not valid: %+v", response)
		}
		if !slices.Contains(phrases, response.Content) {
			t.Fatalf("fallback content %q not in phrase list", response.Content)
		}
		if response.ModelUsed != FallbackModel {
			t.Fatalf("expected model %q, got %q", FallbackModel, response.ModelUsed)
		}
		if response.Confidence != 0.1 {
			t.Fatalf("expected confidence 0.1, got %v", response.Confidence)
		}
		if response.ResponseTimeMs != 0 {
			t.Fatalf("expected zero latency, got %d", response.ResponseTimeMs)
		}
		if response.Kind != messaging.KindText {
			t.Fatalf("expected text kind, got %s", response.Kind)
		}
	}
}

func TestResponseValidity(t *testing.T) {
	if (Response{Content: "   "}).Valid() {
		t.Fatalf("whitespace-only content must not be valid")
	}
	if !(Response{Content: "hi"}).Valid() {
		t.Fatalf("non-empty content must be valid")
	}
}

func TestTruncatedContent(t *testing.T) {
	r := Response{Content: "abcdefgh"}
	if got := r.TruncatedContent(4); got != "abcd..." {
		t.Fatalf("expected truncated content, got %q", got)
	}
	if got := r.TruncatedContent(20); got != "abcdefgh" {
		t.Fatalf("expected untouched content, got %q", got)
	}
}
