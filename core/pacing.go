package dialogue

import (
	"time"

	"github.com/bakchodai/banter-core/core/moods"
)

const (
	baseDelayFloorMs = 2000
	baseDelaySpanMs  = 6000
)

// nextDelay computes how long to wait before the group's next turn: a
// uniform base between 2 and 8 seconds, scaled by the conversation mood.
func (e *Engine) nextDelay(mood moods.Mood) time.Duration {
	e.randMu.Lock()
	base := int64(baseDelayFloorMs) + e.rand.Int63n(baseDelaySpanMs)
	e.randMu.Unlock()

	switch mood {
	case moods.Excited:
		base /= 2
	case moods.Debate:
		base /= 3
	case moods.Calm:
		base *= 2
	}

	return time.Duration(base) * time.Millisecond
}
