package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hobnob-dev/hobnob/pkg/graph"
)

// Sentinel errors mapped from store status codes.
var (
	// ErrNotFound is returned for 404 responses.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned for 409 responses (duplicate username,
	// self-link, already friends, not friends, delete with friends).
	ErrConflict = errors.New("conflict")
)

// StatusError carries the store's plain-text error body alongside the code.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("store returned %d: %s", e.Code, e.Message)
}

// Unwrap maps well-known codes onto sentinel errors for errors.Is checks.
func (e *StatusError) Unwrap() error {
	switch e.Code {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	}
	return nil
}

// Client talks to the person store's REST API.
type Client struct {
	endpoint string
	http     *http.Client
	backoff  BackoffStrategy
}

// NewClient creates a store client.
// endpoint defaults to "http://127.0.0.1:8080" if empty.
func NewClient(endpoint string) *Client {
	if endpoint == "" {
		endpoint = "http://127.0.0.1:8080"
	}
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
		backoff: DefaultBackoff(),
	}
}

// ListPersons fetches all persons.
func (c *Client) ListPersons(ctx context.Context) ([]Person, error) {
	var persons []Person
	if err := c.getRetry(ctx, "/api/users", &persons); err != nil {
		return nil, err
	}
	return persons, nil
}

// GetPerson fetches a single person by id.
func (c *Client) GetPerson(ctx context.Context, id string) (Person, error) {
	var person Person
	if err := c.getRetry(ctx, "/api/users/"+url.PathEscape(id), &person); err != nil {
		return Person{}, err
	}
	return person, nil
}

// FetchGraph fetches the canonical graph snapshot. Edges may contain both
// directions of the same friendship; the transformer normalizes that.
func (c *Client) FetchGraph(ctx context.Context) (graph.CanonicalGraph, error) {
	var canonical graph.CanonicalGraph
	if err := c.getRetry(ctx, "/api/users/graph", &canonical); err != nil {
		return graph.CanonicalGraph{}, err
	}
	return canonical, nil
}

// CreatePerson creates a person. Not idempotent: never retried.
func (c *Client) CreatePerson(ctx context.Context, fields PersonFields) (Person, error) {
	var person Person
	if err := c.do(ctx, http.MethodPost, "/api/users", fields, &person); err != nil {
		return Person{}, err
	}
	return person, nil
}

// UpdatePerson replaces a person's fields. Not idempotent: never retried.
func (c *Client) UpdatePerson(ctx context.Context, id string, fields PersonFields) (Person, error) {
	var person Person
	if err := c.do(ctx, http.MethodPut, "/api/users/"+url.PathEscape(id), fields, &person); err != nil {
		return Person{}, err
	}
	return person, nil
}

// DeletePerson removes a person. The store rejects deletion while
// friendships remain.
func (c *Client) DeletePerson(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/users/"+url.PathEscape(id), nil, nil)
}

// LinkPersons creates a symmetric friendship. Not idempotent: never retried.
func (c *Client) LinkPersons(ctx context.Context, id, friendID string) error {
	path := fmt.Sprintf("/api/users/%s/link?friendId=%s", url.PathEscape(id), url.QueryEscape(friendID))
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

// UnlinkPersons removes a symmetric friendship.
func (c *Client) UnlinkPersons(ctx context.Context, id, friendID string) error {
	path := fmt.Sprintf("/api/users/%s/unlink?friendId=%s", url.PathEscape(id), url.QueryEscape(friendID))
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// getRetry performs a GET with backoff on transport errors and 5xx. Reads
// are safe to retry; mutations go through do and never are.
func (c *Client) getRetry(ctx context.Context, path string, out any) error {
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(c.backoff.Next(attempt - 1)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		lastErr = c.do(ctx, http.MethodGet, path, nil, out)
		if lastErr == nil {
			return nil
		}
		var se *StatusError
		if errors.As(lastErr, &se) && se.Code < 500 {
			return lastErr
		}
	}
	return lastErr
}

// do executes a single request and decodes the response into out, if non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("store unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{
			Code:    resp.StatusCode,
			Message: strings.TrimSpace(string(msg)),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
