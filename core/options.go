package dialogue

import (
	"math/rand"

	"github.com/bakchodai/banter-core/core/connectors"
	"github.com/bakchodai/banter-core/core/moods"
)

type EngineOption func(*Engine)

// WithConnectors registers the generation backends the engine may use,
// replacing any previously configured chain. Connectors are tried in
// ascending priority order.
func WithConnectors(conns ...connectors.Connector) EngineOption {
	return func(e *Engine) { e.chain = connectors.NewChain(conns) }
}

// WithChain installs a pre-built connector chain, for callers that need
// to tune its timeouts.
func WithChain(chain *connectors.Chain) EngineOption {
	return func(e *Engine) {
		if chain != nil {
			e.chain = chain
		}
	}
}

// WithBroadcaster wires the downstream notification sink. Broadcasts are
// fire-and-forget, a failing broadcaster never affects the turn loop.
func WithBroadcaster(b Broadcaster) EngineOption {
	return func(e *Engine) { e.broadcaster = b }
}

// WithClassifier replaces the mood classifier.
func WithClassifier(c moods.Classifier) EngineOption {
	return func(e *Engine) {
		if c != nil {
			e.classifier = c
		}
	}
}

// WithScheduler replaces the task scheduler the turn loops run on.
func WithScheduler(s TaskScheduler) EngineOption {
	return func(e *Engine) {
		if s != nil {
			e.scheduler = s
		}
	}
}

// WithRandSource seeds the pacing randomness, for deterministic tests.
func WithRandSource(src rand.Source) EngineOption {
	return func(e *Engine) { e.rand = rand.New(src) }
}
