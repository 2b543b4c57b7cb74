package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darasadev/darasa/core/calendar"
)

func newTestServer(t *testing.T, events *[]calendar.Occurrence, hits *int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			atomic.AddInt64(hits, 1)
			_ = json.NewEncoder(w).Encode(eventsResponse{Events: *events})
		case r.Method == http.MethodPost:
			var ne calendar.NewEvent
			_ = json.NewDecoder(r.Body).Decode(&ne)
			evt := calendar.Event{ID: "evt-1", Title: ne.Title, StartTime: ne.StartTime, EndTime: ne.EndTime}
			*events = append(*events, calendar.Occurrence{
				EventID:   evt.ID,
				Title:     evt.Title,
				StartTime: evt.StartTime,
				EndTime:   evt.EndTime,
			})
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(evt)
		case r.Method == http.MethodPatch:
			_ = json.NewEncoder(w).Encode(calendar.Event{ID: "evt-1", Title: "patched"})
		case r.Method == http.MethodDelete:
			if r.URL.Query().Get("deleteType") == "single" && r.URL.Query().Get("instanceDate") == "" {
				w.WriteHeader(http.StatusBadRequest)
				_ = json.NewEncoder(w).Encode(errorResponse{Error: "instanceDate required"})
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"success": "Event has been deleted."})
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
}

func window() (time.Time, time.Time) {
	from := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0)
}

func TestClient_EventsCaching(t *testing.T) {
	var hits int64
	events := []calendar.Occurrence{{EventID: "e1", Title: "Lecture"}}
	srv := newTestServer(t, &events, &hits)
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL})
	ctx := context.Background()
	from, to := window()

	got, err := c.Events(ctx, from, to)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.EqualValues(t, 1, atomic.LoadInt64(&hits))

	// second read within the same window is served from cache
	got, err = c.Events(ctx, from, to)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.EqualValues(t, 1, atomic.LoadInt64(&hits))
}

func TestClient_MutationInvalidatesCache(t *testing.T) {
	var hits int64
	events := []calendar.Occurrence{{EventID: "e1", Title: "Lecture"}}
	srv := newTestServer(t, &events, &hits)
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL})
	ctx := context.Background()
	from, to := window()

	got, err := c.Events(ctx, from, to)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = c.CreateEvent(ctx, calendar.NewEvent{
		Title:     "New event",
		StartTime: from.Add(24 * time.Hour),
		EndTime:   from.Add(25 * time.Hour),
	})
	require.NoError(t, err)

	// the next read must hit the server and see the new event
	got, err = c.Events(ctx, from, to)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.EqualValues(t, 2, atomic.LoadInt64(&hits))
}

func TestClient_SingleScopeRequiresInstanceDate(t *testing.T) {
	var hits int64
	events := []calendar.Occurrence{}
	srv := newTestServer(t, &events, &hits)
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL})
	ctx := context.Background()

	// rejected before any request is sent
	err := c.DeleteEvent(ctx, "evt-1", calendar.ScopeSingle, time.Time{})
	assert.Equal(t, calendar.ErrInstanceDateRequired, err)

	_, err = c.UpdateEvent(ctx, "evt-1", calendar.UpdateEvent{Scope: calendar.ScopeSingle})
	assert.Equal(t, calendar.ErrInstanceDateRequired, err)

	// with an instance date, the delete goes through
	err = c.DeleteEvent(ctx, "evt-1", calendar.ScopeSingle, time.Date(2021, 3, 8, 0, 0, 0, 0, time.UTC))
	assert.NoError(t, err)
}

func TestClient_InvalidScope(t *testing.T) {
	c := New(Options{BaseURL: "http://localhost:1"})

	err := c.DeleteEvent(context.Background(), "evt-1", calendar.Scope("lol"), time.Time{})
	assert.Equal(t, calendar.ErrInvalidScope, err)
}

func TestClient_MockFallback(t *testing.T) {
	ctx := context.Background()
	from, to := window()

	// unreachable API + fallback enabled -> static data
	c := New(Options{BaseURL: "http://localhost:1", MockFallback: true})
	got, err := c.Events(ctx, from, to)
	require.NoError(t, err)
	assert.NotEmpty(t, got)

	// unreachable API + fallback disabled -> error
	c = New(Options{BaseURL: "http://localhost:1"})
	_, err = c.Events(ctx, from, to)
	assert.Error(t, err)
}

func TestClient_APIErrorSurfacedVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(errorResponse{Error: "end_time must be after start_time"})
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL})
	_, err := c.CreateEvent(context.Background(), calendar.NewEvent{Title: "bad"})
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, apiErr.Error(), "end_time must be after start_time")
}

func TestClient_MockFallbackNotUsedForAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(errorResponse{Error: "boom"})
	}))
	defer srv.Close()

	// a responding server that errors must not be masked by mock data
	c := New(Options{BaseURL: srv.URL, MockFallback: true})
	_, err := c.Events(context.Background(), time.Now(), time.Now().Add(time.Hour))
	assert.Error(t, err)
}
