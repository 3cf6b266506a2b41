// Package httpbackend implements the generation-backend connector over
// the backing service's HTTP protocol.
package httpbackend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bakchodai/banter-core/core/messaging"
	"github.com/bakchodai/banter-core/core/responses"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
)

const (
	generatePath = "/api/v1/ai/generate-response"
	healthPath   = "/health"
)

// Client is a connectors.Connector speaking the backend's HTTP protocol.
type Client struct {
	baseURL  string
	name     string
	priority int
	client   *http.Client
}

type ClientOption func(*Client)

// WithName overrides the connector name reported in logs and spans.
func WithName(name string) ClientOption {
	return func(c *Client) { c.name = name }
}

// WithPriority sets the chain priority, lower values are tried first.
func WithPriority(priority int) ClientOption {
	return func(c *Client) { c.priority = priority }
}

// WithHTTPClient replaces the underlying HTTP client. The otel transport
// is not applied to a replaced client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) { c.client = client }
}

// NewClient creates a connector for the backend at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		name:     "HttpAIConnector",
		priority: 1,
		client: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(operationName string, request *http.Request) string {
				return operationName + " " + request.URL.Path
			}),
		)},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() string  { return c.name }
func (c *Client) Priority() int { return c.priority }

// Generate posts the turn context to the backend and decodes its response.
// Non-200 statuses and undecodable bodies are errors, the chain converts
// them into a fallback.
func (c *Client) Generate(ctx context.Context, turnCtx *responses.Context) (*responses.Response, error) {
	ctx, span := tracer.Start(ctx, "generate backend response")
	defer span.End()
	span.SetAttributes(
		attribute.String("request.connector", c.name),
		attribute.String("request.group_id", turnCtx.Group.ID),
		attribute.String("request.character", turnCtx.CurrentPersona.Name),
	)

	body, err := toRequestBody(turnCtx)
	if err != nil {
		err = fmt.Errorf("error converting turn context: %w", err)
		span.RecordError(err)
		return nil, err
	}

	requestBodyBytes, err := json.Marshal(body)
	if err != nil {
		err = fmt.Errorf("error marshalling JSON: %w", err)
		span.RecordError(err)
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+generatePath, bytes.NewBuffer(requestBodyBytes))
	if err != nil {
		err = fmt.Errorf("error creating HTTP request: %w", err)
		span.RecordError(err)
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	span.SetAttributes(attribute.String("request.url", req.URL.String()))
	resp, err := c.client.Do(req)
	if err != nil {
		err = fmt.Errorf("error sending request: %w", err)
		span.RecordError(err)
		return nil, err
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		if errorBody, readErr := io.ReadAll(resp.Body); readErr == nil {
			span.SetAttributes(attribute.String("response.error", string(errorBody)))
		}
		err := fmt.Errorf("non-OK HTTP status: %s", resp.Status)
		span.RecordError(err)
		return nil, err
	}

	var decoded responseBody
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		err = fmt.Errorf("error unmarshalling JSON: %w", err)
		span.RecordError(err)
		return nil, err
	}

	kind := messaging.MessageKind(decoded.MessageType)
	if kind == "" {
		kind = messaging.KindText
	}

	logger.InfoContext(ctx, "parsed backend response",
		"connector", c.name, "model", decoded.ModelUsed, "message_type", string(kind))

	return &responses.Response{
		Content:        decoded.Content,
		Kind:           kind,
		Confidence:     decoded.Confidence,
		ModelUsed:      decoded.ModelUsed,
		ResponseTimeMs: decoded.ResponseTimeMs,
		GeneratedAt:    parseGeneratedAt(decoded.GeneratedAt),
		IsInterruption: decoded.IsInterruption,
		Reasoning:      decoded.Reasoning,
	}, nil
}

// Healthy probes the backend's health endpoint. The backend counts as
// healthy when the body is "ok" (case-insensitive) or a JSON object whose
// status field is "healthy".
func (c *Client) Healthy(ctx context.Context) (bool, error) {
	ctx, span := tracer.Start(ctx, "backend health check")
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthPath, nil)
	if err != nil {
		err = fmt.Errorf("error creating health request: %w", err)
		span.RecordError(err)
		return false, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		err = fmt.Errorf("error sending health request: %w", err)
		span.RecordError(err)
		return false, err
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		return false, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		err = fmt.Errorf("error reading health body: %w", err)
		span.RecordError(err)
		return false, err
	}

	return healthyBody(body), nil
}

func healthyBody(body []byte) bool {
	trimmed := strings.TrimSpace(string(body))
	if strings.EqualFold(trimmed, "ok") {
		return true
	}

	var status struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &status); err != nil {
		return false
	}
	return strings.EqualFold(status.Status, "healthy")
}
