// Package connectors holds the generation-backend adapter contract and
// the priority chain that always yields a usable response.
package connectors

import (
	"context"

	"github.com/bakchodai/banter-core/core/responses"
)

// Connector adapts one generation backend. Implementations are tried in
// ascending Priority order; adding a backend means implementing this
// interface and registering it with the chain, the chain logic itself
// never changes.
type Connector interface {
	// Name identifies the connector in logs and spans.
	Name() string
	// Priority orders connectors, lower values are tried first.
	Priority() int
	// Healthy reports whether the backend can currently serve requests.
	Healthy(ctx context.Context) (bool, error)
	// Generate produces a response for the given turn context.
	Generate(ctx context.Context, turnCtx *responses.Context) (*responses.Response, error)
}
