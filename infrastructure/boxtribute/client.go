package boxtribute

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// CachePolicy controls whether a QR resolution may be served from the local
// response cache.
type CachePolicy int

const (
	// NetworkOnly always queries the backend.
	NetworkOnly CachePolicy = iota
	// CacheFirst serves a previously resolved code from cache when present;
	// used during rapid multi-scan sessions.
	CacheFirst
)

// Client is a typed query/mutation wrapper around the backend GraphQL API.
type Client struct {
	httpClient *http.Client
	endpoint   string
	token      string
	qrCache    *qrResultCache
}

// NewClient creates a client for the given GraphQL endpoint. The bearer token
// may be empty for anonymous test backends.
func NewClient(endpoint, token string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		endpoint:   endpoint,
		token:      token,
		qrCache:    newQRResultCache(),
	}
}

type graphqlRequest struct {
	OperationName string         `json:"operationName,omitempty"`
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
}

type graphqlError struct {
	Message    string `json:"message"`
	Extensions struct {
		Code string `json:"code"`
	} `json:"extensions"`
}

type graphqlEnvelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors"`
}

// do posts one GraphQL document and unmarshals the data payload into out.
// Transport failures return *TransportError; server-reported errors return
// *APIError with the first error's extension code.
func (c *Client) do(ctx context.Context, operationName, query string, vars map[string]any, out any) error {
	body, err := json.Marshal(graphqlRequest{OperationName: operationName, Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &TransportError{Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return &TransportError{Err: err}
	}

	var envelope graphqlEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return &TransportError{Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(envelope.Errors) > 0 {
		first := envelope.Errors[0]
		code := first.Extensions.Code
		if code == "" {
			code = CodeInternal
		}
		return &APIError{Code: code, Message: first.Message}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}
