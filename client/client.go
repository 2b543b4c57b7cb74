// Package client is the HTTP client for the calendar API. Reads go through
// a tag-keyed cache that mutations invalidate, so a fetch that follows any
// successful create, update or delete reflects the latest server state.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"

	"github.com/darasadev/darasa/core/calendar"
)

type (
	Options struct {
		BaseURL string
		Token   string
		// MockFallback serves static data when the API is unreachable.
		// Development only.
		MockFallback bool
		HTTPClient   *http.Client
	}

	Client struct {
		baseURL      string
		token        string
		mockFallback bool
		client       *http.Client
		cache        *tagCache
	}

	// APIError is a non-2xx response; the server's error payload is
	// surfaced verbatim.
	APIError struct {
		StatusCode int
		Message    string
	}

	eventsResponse struct {
		Events []calendar.Occurrence `json:"events"`
	}

	errorResponse struct {
		Error string `json:"error"`
	}
)

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("request failed (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("request failed (%d)", e.StatusCode)
}

func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:      opts.BaseURL,
		token:        opts.Token,
		mockFallback: opts.MockFallback,
		client:       httpClient,
		cache:        newTagCache(),
	}
}

// Events fetches the occurrences within [from, to]. Results are cached per
// window until the next mutation.
func (c *Client) Events(ctx context.Context, from, to time.Time) ([]calendar.Occurrence, error) {
	key := cacheTag + ":" + from.UTC().Format(time.RFC3339) + ":" + to.UTC().Format(time.RFC3339)
	if cached, ok := c.cache.get(key); ok {
		return cached.([]calendar.Occurrence), nil
	}

	params := make(url.Values)
	params.Set("startDate", from.UTC().Format(time.RFC3339))
	params.Set("endDate", to.UTC().Format(time.RFC3339))

	var res eventsResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/calendar?"+params.Encode(), nil, &res); err != nil {
		if c.mockFallback && !isAPIError(err) {
			return mockOccurrences(from, to), nil
		}
		return nil, err
	}

	c.cache.set(key, res.Events)
	return res.Events, nil
}

// CreateEvent creates an event and invalidates cached reads.
func (c *Client) CreateEvent(ctx context.Context, ne calendar.NewEvent) (calendar.Event, error) {
	var evt calendar.Event
	if err := c.do(ctx, http.MethodPost, "/api/v1/calendar", ne, &evt); err != nil {
		return calendar.Event{}, err
	}
	c.cache.invalidate(cacheTag)
	return evt, nil
}

// UpdateEvent patches an event, optionally scoped to a single occurrence,
// and invalidates cached reads. A single-scope patch without an instance
// date is rejected before any request is sent.
func (c *Client) UpdateEvent(ctx context.Context, id string, ue calendar.UpdateEvent) (calendar.Event, error) {
	scope, err := calendar.ParseScope(string(ue.Scope))
	if err != nil {
		return calendar.Event{}, err
	}
	ue.Scope = scope
	if ue.Scope == calendar.ScopeSingle && ue.InstanceDate.IsZero() {
		return calendar.Event{}, calendar.ErrInstanceDateRequired
	}

	var evt calendar.Event
	if err := c.do(ctx, http.MethodPatch, "/api/v1/calendar/"+id, ue, &evt); err != nil {
		return calendar.Event{}, err
	}
	c.cache.invalidate(cacheTag)
	return evt, nil
}

// DeleteEvent deletes an event or a single occurrence of it and invalidates
// cached reads. A single-scope delete without an instance date is rejected
// before any request is sent.
func (c *Client) DeleteEvent(ctx context.Context, id string, scope calendar.Scope, instanceDate time.Time) error {
	scope, err := calendar.ParseScope(string(scope))
	if err != nil {
		return err
	}
	if scope == calendar.ScopeSingle && instanceDate.IsZero() {
		return calendar.ErrInstanceDateRequired
	}

	params := make(url.Values)
	params.Set("deleteType", string(scope))
	if !instanceDate.IsZero() {
		params.Set("instanceDate", instanceDate.UTC().Format(time.RFC3339))
	}

	if err := c.do(ctx, http.MethodDelete, "/api/v1/calendar/"+id+"?"+params.Encode(), nil, nil); err != nil {
		return err
	}
	c.cache.invalidate(cacheTag)
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return errors.Wrap(err, "encoding request")
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "sending request")
	}
	defer res.Body.Close()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		apiErr := &APIError{StatusCode: res.StatusCode}
		var er errorResponse
		if err := json.NewDecoder(res.Body).Decode(&er); err == nil {
			apiErr.Message = er.Error
		}
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			return errors.Wrap(err, "decoding response")
		}
	}
	return nil
}

func isAPIError(err error) bool {
	_, ok := errors.Cause(err).(*APIError)
	return ok
}
