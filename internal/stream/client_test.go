package stream

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartMissingTokenFailsWithoutNetwork(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))
	defer srv.Close()

	rec := &recorder{}
	cancel := Start(Request{Endpoint: srv.URL, Token: "  "}, nil, rec.record)

	states := rec.snapshot()
	require.Len(t, states, 1)
	assert.Equal(t, StateError, states[0].state)
	assert.Equal(t, "missing authentication token", states[0].detail)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), requests.Load())
	assert.Len(t, rec.snapshot(), 1)

	cancel()
	cancel()
}

func TestStreamDeliversSnapshotsInOrder(t *testing.T) {
	payloads := []string{
		`{"lines":["a"],"counters":{"total":1}}`,
		`{"lines":["a","b"],"counters":{"total":2}}`,
		`{"lines":["a","b","c"],"counters":{"total":3}}`,
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		assert.Equal(t, "Bearer sekrit", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "text/event-stream")
		fl := w.(http.Flusher)
		for _, p := range payloads {
			fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", p)
			fl.Flush()
		}
		<-r.Context().Done()
	}))
	defer srv.Close()

	got := make(chan string, len(payloads))
	rec := &recorder{}
	cancel := Start(Request{Endpoint: srv.URL, Token: "sekrit"}, func(p json.RawMessage) {
		got <- string(p)
	}, rec.record)
	defer cancel()

	for _, want := range payloads {
		select {
		case g := <-got:
			assert.Equal(t, want, g)
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for snapshot")
		}
	}

	states := rec.snapshot()
	require.NotEmpty(t, states)
	assert.Equal(t, StateConnecting, states[0].state)
	assert.Contains(t, statesOf(states), StateConnected)
}

func TestMalformedSnapshotFramesDropped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fl := w.(http.Flusher)
		fmt.Fprint(w, "event: snapshot\ndata: {not json at all\n\n")
		fl.Flush()
		fmt.Fprint(w, "event: snapshot\ndata: {\"ok\":true}\n\n")
		fl.Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	got := make(chan string, 2)
	cancel := Start(Request{Endpoint: srv.URL, Token: "tok"}, func(p json.RawMessage) {
		got <- string(p)
	}, nil)
	defer cancel()

	select {
	case g := <-got:
		assert.Equal(t, `{"ok":true}`, g)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the well-formed snapshot")
	}

	select {
	case g := <-got:
		t.Fatalf("unexpected extra snapshot: %s", g)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRetriesExhaustedAfterRepeatedFailures(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	terminal := make(chan string, 1)
	rec := &recorder{}
	cancel := Start(Request{
		Endpoint: srv.URL,
		Token:    "tok",
		Policy: ReconnectPolicy{
			MaxAttempts: 5,
			BaseDelay:   time.Millisecond,
			MaxDelay:    8 * time.Millisecond,
			Multiplier:  2,
		},
	}, nil, func(s State, detail string) {
		rec.record(s, detail)
		if s == StateError {
			terminal <- detail
		}
	})
	defer cancel()

	select {
	case detail := <-terminal:
		assert.Equal(t, "stream unavailable after multiple retries", detail)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the terminal error")
	}

	assert.Equal(t, int32(6), requests.Load())

	var countdowns int
	for _, s := range rec.snapshot() {
		if s.state == StateConnecting && strings.Contains(s.detail, "reconnecting in") {
			countdowns++
		}
	}
	assert.Equal(t, 5, countdowns)
}

func TestBackoffDelaySequence(t *testing.T) {
	b := DefaultReconnectPolicy().backOff()

	var delays []time.Duration
	for i := 0; i < 5; i++ {
		delays = append(delays, b.NextBackOff())
	}

	assert.Equal(t, []time.Duration{
		time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		15 * time.Second,
	}, delays)
}

func TestCancelDuringBackoffStopsReconnect(t *testing.T) {
	var requests atomic.Int32
	firstRequest := make(chan struct{}, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			firstRequest <- struct{}{}
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	rec := &recorder{}
	cancel := Start(Request{
		Endpoint: srv.URL,
		Token:    "tok",
		Policy: ReconnectPolicy{
			MaxAttempts: 5,
			BaseDelay:   250 * time.Millisecond,
			MaxDelay:    time.Second,
			Multiplier:  2,
		},
	}, nil, rec.record)

	select {
	case <-firstRequest:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the first connection attempt")
	}
	cancel()
	recorded := len(rec.snapshot())

	time.Sleep(600 * time.Millisecond)
	assert.Equal(t, int32(1), requests.Load())
	assert.Len(t, rec.snapshot(), recorded)
}

func TestCancelDuringConnectedStopsDelivery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fl := w.(http.Flusher)
		ticker := time.NewTicker(5 * time.Millisecond)
		defer ticker.Stop()
		for i := 0; ; i++ {
			select {
			case <-r.Context().Done():
				return
			case <-ticker.C:
				fmt.Fprintf(w, "event: snapshot\ndata: {\"seq\":%d}\n\n", i)
				fl.Flush()
			}
		}
	}))
	defer srv.Close()

	var delivered atomic.Int32
	cancel := Start(Request{Endpoint: srv.URL, Token: "tok"}, func(json.RawMessage) {
		delivered.Add(1)
	}, nil)

	require.Eventually(t, func() bool { return delivered.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	frozen := delivered.Load()

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, frozen, delivered.Load())
}

func TestCancelFromInsideCallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fl := w.(http.Flusher)
		ticker := time.NewTicker(5 * time.Millisecond)
		defer ticker.Stop()
		for i := 0; ; i++ {
			select {
			case <-r.Context().Done():
				return
			case <-ticker.C:
				fmt.Fprintf(w, "event: snapshot\ndata: {\"seq\":%d}\n\n", i)
				fl.Flush()
			}
		}
	}))
	defer srv.Close()

	var delivered atomic.Int32
	ready := make(chan struct{})
	done := make(chan struct{})
	var cancel CancelFunc
	cancel = Start(Request{Endpoint: srv.URL, Token: "tok"}, func(json.RawMessage) {
		<-ready
		if delivered.Add(1) == 1 {
			cancel()
			close(done)
		}
	}, nil)
	close(ready)
	defer cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("cancel from inside the snapshot callback blocked")
	}

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(1), delivered.Load(), "no snapshot may be delivered after cancel returns")
}

func TestReconnectAfterStreamEnd(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := requests.Add(1)
		w.Header().Set("Content-Type", "text/event-stream")
		fl := w.(http.Flusher)
		fmt.Fprintf(w, "event: snapshot\ndata: {\"conn\":%d}\n\n", n)
		fl.Flush()
		if n == 1 {
			return
		}
		<-r.Context().Done()
	}))
	defer srv.Close()

	got := make(chan string, 4)
	rec := &recorder{}
	cancel := Start(Request{
		Endpoint: srv.URL,
		Token:    "tok",
		Policy: ReconnectPolicy{
			MaxAttempts: 5,
			BaseDelay:   5 * time.Millisecond,
			MaxDelay:    20 * time.Millisecond,
			Multiplier:  2,
		},
	}, func(p json.RawMessage) {
		got <- string(p)
	}, rec.record)
	defer cancel()

	for _, want := range []string{`{"conn":1}`, `{"conn":2}`} {
		select {
		case g := <-got:
			assert.Equal(t, want, g)
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for snapshot")
		}
	}

	var connected int
	for _, s := range rec.snapshot() {
		if s.state == StateConnected && s.detail == "" {
			connected++
		}
	}
	assert.GreaterOrEqual(t, connected, 2)
}

func TestServerErrorEventIsInformational(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fl := w.(http.Flusher)
		fmt.Fprint(w, "event: error\ndata: {\"message\":\"tail process restarted\"}\n\n")
		fl.Flush()
		fmt.Fprint(w, "event: snapshot\ndata: {\"after\":true}\n\n")
		fl.Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	got := make(chan string, 1)
	errDetail := make(chan string, 1)
	cancel := Start(Request{Endpoint: srv.URL, Token: "tok"}, func(p json.RawMessage) {
		got <- string(p)
	}, func(s State, detail string) {
		if s == StateError {
			errDetail <- detail
		}
	})
	defer cancel()

	select {
	case d := <-errDetail:
		assert.Equal(t, "tail process restarted", d)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the server-reported error")
	}

	// The connection survives the error event.
	select {
	case g := <-got:
		assert.Equal(t, `{"after":true}`, g)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the snapshot after the error event")
	}
}

func TestFiltersQuery(t *testing.T) {
	tests := []struct {
		name     string
		filters  Filters
		expected url.Values
	}{
		{
			name:     "Empty",
			filters:  Filters{},
			expected: url.Values{},
		},
		{
			name: "All Fields",
			filters: Filters{
				Search:   "deny",
				Level:    "warning",
				Kind:     "access",
				IP:       "10.0.0.8",
				User:     "ops@example.com",
				Limit:    200,
				Interval: 1500 * time.Millisecond,
			},
			expected: url.Values{
				"search":   {"deny"},
				"level":    {"warning"},
				"type":     {"access"},
				"ip":       {"10.0.0.8"},
				"user":     {"ops@example.com"},
				"limit":    {"200"},
				"interval": {"1500"},
			},
		},
		{
			name:     "Zero Values Omitted",
			filters:  Filters{Search: "x"},
			expected: url.Values{"search": {"x"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.filters.Query())
		})
	}
}

func TestFilterMapperControlsQueryString(t *testing.T) {
	query := make(chan url.Values, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query <- r.URL.Query()
		w.Header().Set("Content-Type", "text/event-stream")
		<-r.Context().Done()
	}))
	defer srv.Close()

	cancel := Start(Request{
		Endpoint: srv.URL,
		Token:    "tok",
		Filters:  Filters{Search: "denied", Limit: 50},
		Mapper: func(f Filters) url.Values {
			return url.Values{"q": {f.Search}, "rows": {strconv.Itoa(f.Limit)}}
		},
	}, nil, nil)
	defer cancel()

	select {
	case q := <-query:
		assert.Equal(t, "denied", q.Get("q"))
		assert.Equal(t, "50", q.Get("rows"))
		assert.Empty(t, q.Get("search"))
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the request")
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "connecting", StateConnecting.String())
	assert.Equal(t, "connected", StateConnected.String())
	assert.Equal(t, "error", StateError.String())
}

type stateRecord struct {
	state  State
	detail string
}

type recorder struct {
	mu     sync.Mutex
	states []stateRecord
}

func (r *recorder) record(s State, detail string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, stateRecord{s, detail})
}

func (r *recorder) snapshot() []stateRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]stateRecord(nil), r.states...)
}

func statesOf(records []stateRecord) []State {
	out := make([]State, 0, len(records))
	for _, r := range records {
		out = append(out, r.state)
	}
	return out
}
