package responses

import (
	"math/rand"
	"sync"
	"time"

	"github.com/bakchodai/banter-core/core/messaging"
)

// fallbackPhrases are the canned lines used when no backend is usable.
// Every phrase must stay non-empty so a fallback is always valid.
var fallbackPhrases = []string{
	"Hmm, let me think about that...",
	"That's an interesting point! Let me process this...",
	"I'm having a bit of trouble connecting to my thoughts right now, but I'm still here!",
	"Give me a moment to gather my thoughts...",
	"I'm processing this conversation, but my AI brain seems to be taking a coffee break!",
	"Let me think about this more carefully...",
	"I'm here, just need a moment to think through this properly.",
}

const FallbackModel = "fallback"

// FallbackGenerator produces canned responses when no backend can serve a
// turn. The zero value is not usable, construct it with NewFallbackGenerator.
type FallbackGenerator struct {
	mu   sync.Mutex
	rand *rand.Rand
}

// NewFallbackGenerator creates a generator drawing phrases from src, or
// from a time-seeded source when src is nil.
func NewFallbackGenerator(src rand.Source) *FallbackGenerator {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &FallbackGenerator{rand: rand.New(src)}
}

// Generate returns a uniformly chosen filler phrase with fixed fallback
// metadata. The result is always valid.
func (g *FallbackGenerator) Generate() Response {
	g.mu.Lock()
	phrase := fallbackPhrases[g.rand.Intn(len(fallbackPhrases))]
	g.mu.Unlock()

	return Response{
		Content:        phrase,
		Kind:           messaging.KindText,
		Confidence:     0.1,
		ModelUsed:      FallbackModel,
		ResponseTimeMs: 0,
		GeneratedAt:    time.Now(),
	}
}

// FallbackPhrases returns a copy of the phrase list.
func FallbackPhrases() []string {
	phrases := make([]string, len(fallbackPhrases))
	copy(phrases, fallbackPhrases)
	return phrases
}
