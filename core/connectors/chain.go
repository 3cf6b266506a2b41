package connectors

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"github.com/bakchodai/banter-core/core/responses"
	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultHealthTimeout   = 5 * time.Second
	defaultGenerateTimeout = 30 * time.Second
)

// Chain tries registered connectors in priority order and converts every
// failure mode into a fallback response, so a turn always yields a
// displayable message and worst-case latency stays bounded by one health
// window per connector plus one generate window.
type Chain struct {
	connectors      []Connector
	fallback        *responses.FallbackGenerator
	healthTimeout   time.Duration
	generateTimeout time.Duration
}

type ChainOption func(*Chain)

// WithHealthTimeout overrides the per-connector health-check bound.
func WithHealthTimeout(d time.Duration) ChainOption {
	return func(c *Chain) { c.healthTimeout = d }
}

// WithGenerateTimeout overrides the generate bound.
func WithGenerateTimeout(d time.Duration) ChainOption {
	return func(c *Chain) { c.generateTimeout = d }
}

// WithFallbackSource seeds the fallback generator, for deterministic tests.
func WithFallbackSource(src rand.Source) ChainOption {
	return func(c *Chain) { c.fallback = responses.NewFallbackGenerator(src) }
}

// NewChain builds a chain over the given connectors, sorted ascending by
// priority. An empty chain is allowed and degrades to always-fallback.
func NewChain(conns []Connector, opts ...ChainOption) *Chain {
	sorted := make([]Connector, len(conns))
	copy(sorted, conns)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() < sorted[j].Priority()
	})

	chain := &Chain{
		connectors:      sorted,
		fallback:        responses.NewFallbackGenerator(nil),
		healthTimeout:   defaultHealthTimeout,
		generateTimeout: defaultGenerateTimeout,
	}
	for _, opt := range opts {
		opt(chain)
	}
	return chain
}

// Connectors returns the chain's connectors in evaluation order.
func (c *Chain) Connectors() []Connector {
	conns := make([]Connector, len(c.connectors))
	copy(conns, c.connectors)
	return conns
}

// Generate obtains a response for the turn. It never fails: any health or
// generation problem resolves to a fallback.
//
// A generate failure on a healthy connector does NOT cascade to the next
// connector, only a failed health check does. This asymmetry is inherited
// observable behavior, pending product clarification.
func (c *Chain) Generate(ctx context.Context, turnCtx *responses.Context) responses.Response {
	ctx, span := tracer.Start(ctx, "connector chain generate")
	defer span.End()
	span.SetAttributes(attribute.Int("chain.connectors", len(c.connectors)))

	for _, connector := range c.connectors {
		healthy := c.checkHealth(ctx, connector)
		if !healthy {
			logger.WarnContext(ctx, "connector is not healthy", "connector", connector.Name())
			continue
		}

		logger.InfoContext(ctx, "using healthy connector", "connector", connector.Name())
		span.SetAttributes(attribute.String("chain.selected_connector", connector.Name()))

		generateCtx, cancel := context.WithTimeout(ctx, c.generateTimeout)
		response, err := connector.Generate(generateCtx, turnCtx)
		cancel()
		if err != nil {
			span.RecordError(err)
			logger.ErrorContext(ctx, "connector failed to generate response",
				"connector", connector.Name(), "error", err)
			return c.fallbackResponse(ctx)
		}
		if response == nil || !response.Valid() {
			logger.WarnContext(ctx, "connector returned invalid response", "connector", connector.Name())
			return c.fallbackResponse(ctx)
		}
		return *response
	}

	logger.WarnContext(ctx, "no healthy connectors available, using fallback response")
	return c.fallbackResponse(ctx)
}

// checkHealth runs the connector's health check under the health bound.
// Timeouts and errors both count as unhealthy.
func (c *Chain) checkHealth(ctx context.Context, connector Connector) bool {
	healthCtx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	type result struct {
		healthy bool
		err     error
	}
	done := make(chan result, 1)
	go func() {
		healthy, err := connector.Healthy(healthCtx)
		done <- result{healthy: healthy, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			logger.WarnContext(ctx, "connector health check failed",
				"connector", connector.Name(), "error", res.err)
			return false
		}
		return res.healthy
	case <-healthCtx.Done():
		// A check that never returns must not hold up the turn.
		logger.WarnContext(ctx, "connector health check timed out", "connector", connector.Name())
		return false
	}
}

func (c *Chain) fallbackResponse(ctx context.Context) responses.Response {
	response := c.fallback.Generate()
	logger.InfoContext(ctx, "created fallback response", "content", response.Content)
	return response
}
