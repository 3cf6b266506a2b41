// Package moods holds the coarse conversation mood label and the
// classifier that derives it from generated message content.
package moods

import "strings"

// Mood is a coarse label for the tone of an ongoing group conversation.
// It only influences pacing and is forwarded to generation backends as a
// hint, so the zero-ish default (Casual) is always safe.
type Mood string

const (
	Casual   Mood = "CASUAL"
	Excited  Mood = "EXCITED"
	Debate   Mood = "DEBATE"
	Planning Mood = "PLANNING"
	Gossip   Mood = "GOSSIP"
	Calm     Mood = "CALM"
)

// Classifier derives a mood from the content of the latest message.
//
// The engine consults it once per turn; implementations must be safe for
// concurrent use from multiple group loops.
type Classifier interface {
	Classify(content string) Mood
}

// KeywordClassifier classifies by case-insensitive substring checks in a
// fixed priority order, first match wins. The phrase lists and their order
// are observable behavior relied on by pacing, do not reorder them.
type KeywordClassifier struct{}

var keywordRules = []struct {
	mood     Mood
	keywords []string
}{
	{Excited, []string{"!", "excited", "amazing"}},
	{Debate, []string{"?", "debate", "argue"}},
	{Planning, []string{"plan", "trip", "organize"}},
	{Gossip, []string{"gossip", "rumor", "heard"}},
}

func (KeywordClassifier) Classify(content string) Mood {
	content = strings.ToLower(content)
	for _, rule := range keywordRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(content, keyword) {
				return rule.mood
			}
		}
	}
	return Casual
}
