package omnivore

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultTimeout = 30 * time.Second

// Client interfaces with an Omnivore instance's GraphQL API.
// One client, and therefore one underlying HTTP connection pool, is
// shared for the whole import run.
type Client struct {
	apiURL     string
	apiKey     string
	httpClient *http.Client
}

// ClientOptions configures a Client.
type ClientOptions struct {
	APIURL  string
	APIKey  string
	Timeout time.Duration

	// InsecureTLS disables certificate validation, for self-hosted
	// instances with self-signed certificates.
	InsecureTLS bool
}

// NewClient creates a new Omnivore API client.
func NewClient(opts ClientOptions) *Client {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.InsecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &Client{
		apiURL: opts.APIURL,
		apiKey: opts.APIKey,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

type gqlRequest struct {
	Query     string `json:"query"`
	Variables any    `json:"variables,omitempty"`
}

type gqlError struct {
	Message string `json:"message"`
}

type gqlEnvelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []gqlError      `json:"errors"`
}

// do executes one GraphQL request and decodes the data payload into out.
func (c *Client) do(ctx context.Context, operation, query string, variables, out any) error {
	body, err := json.Marshal(gqlRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", operation, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Message:    string(bytes.TrimSpace(raw)),
		}
	}

	var envelope gqlEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", operation, err)
	}

	if len(envelope.Errors) > 0 {
		apiErr := &APIError{Operation: operation}
		for _, e := range envelope.Errors {
			apiErr.ErrorCodes = append(apiErr.ErrorCodes, e.Message)
		}
		return apiErr
	}
	if envelope.Data == nil {
		return &APIError{Operation: operation, Message: "no response data"}
	}

	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("failed to decode %s payload: %w", operation, err)
		}
	}
	return nil
}
