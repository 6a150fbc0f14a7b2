// Package stream implements the resilient live log stream client used by the
// panel's tail consumers. It opens a long-lived Server-Sent-Events connection,
// decodes "snapshot" frames incrementally as bytes arrive, and reconnects with
// capped exponential backoff when the transport fails, bounded by a maximum
// retry count. The audit trail and the xray live-log endpoints share this one
// implementation, parameterized by endpoint and filter set.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff"
)

type State int

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// ReconnectPolicy bounds the retry behaviour after a transport failure.
// The delay before retry n (1-indexed) is min(BaseDelay*Multiplier^(n-1),
// MaxDelay). Once MaxAttempts retries have failed the client stops with a
// terminal error instead of masking a permanently broken backend.
type ReconnectPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
}

func DefaultReconnectPolicy() ReconnectPolicy {
	return ReconnectPolicy{
		MaxAttempts: 5,
		BaseDelay:   time.Second,
		MaxDelay:    15 * time.Second,
		Multiplier:  2,
	}
}

func (p ReconnectPolicy) backOff() *backoff.ExponentialBackOff {
	if p.BaseDelay <= 0 {
		p.BaseDelay = time.Second
	}
	if p.MaxDelay < p.BaseDelay {
		p.MaxDelay = p.BaseDelay
	}
	if p.Multiplier < 1 {
		p.Multiplier = 2
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseDelay
	b.MaxInterval = p.MaxDelay
	b.Multiplier = p.Multiplier
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// Filters is the query filter set carried on one connection. A filter change
// means tearing the connection down and starting a new client.
type Filters struct {
	Search   string
	Level    string
	Kind     string // audit category or xray log type (access|error)
	IP       string
	User     string
	Limit    int
	Interval time.Duration // snapshot pacing hint
}

// Query maps the filter set onto the wire query parameters both stream
// endpoints accept.
func (f Filters) Query() url.Values {
	q := url.Values{}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Level != "" {
		q.Set("level", f.Level)
	}
	if f.Kind != "" {
		q.Set("type", f.Kind)
	}
	if f.IP != "" {
		q.Set("ip", f.IP)
	}
	if f.User != "" {
		q.Set("user", f.User)
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Interval > 0 {
		q.Set("interval", strconv.FormatInt(f.Interval.Milliseconds(), 10))
	}
	return q
}

// Request describes one stream subscription. Token is the bearer credential
// and is required; it is passed explicitly rather than read from any ambient
// state. Immutable for the lifetime of the connection.
type Request struct {
	Endpoint string
	Token    string
	Filters  Filters

	// Policy defaults to DefaultReconnectPolicy when zero.
	Policy ReconnectPolicy

	// Mapper overrides the filter-to-query-string mapping; nil uses
	// Filters.Query.
	Mapper func(Filters) url.Values

	// Client defaults to a transport tuned for long-lived streams; it must
	// not carry an overall timeout.
	Client *http.Client
}

type SnapshotFunc func(payload json.RawMessage)

type StateFunc func(state State, detail string)

// CancelFunc aborts the stream: in-flight I/O is interrupted, any pending
// reconnect timer is cleared and no further callbacks start. Idempotent, and
// safe to call from within onSnapshot or onStateChange; a callback already in
// progress runs to completion.
type CancelFunc func()

// defaultClient deliberately has no overall timeout; the response body stays
// open for the lifetime of the stream.
var defaultClient = &http.Client{
	Transport: &http.Transport{
		DialContext:           (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
	},
}

// Start opens the stream described by req. onSnapshot receives the payload of
// every well-formed "snapshot" event, in wire order. onStateChange receives
// every connection state transition together with a human-readable detail
// (retry countdowns, terminal failure causes, server-reported errors).
//
// A missing credential fails immediately with StateError and no network I/O.
func Start(req Request, onSnapshot SnapshotFunc, onStateChange StateFunc) CancelFunc {
	r := newRunner(req, onSnapshot, onStateChange)

	if strings.TrimSpace(req.Token) == "" {
		r.emitState(StateError, "missing authentication token")
		return func() {}
	}

	go r.run()
	return r.cancelFn
}

type runner struct {
	endpoint   string
	token      string
	policy     ReconnectPolicy
	httpc      *http.Client
	onSnapshot SnapshotFunc
	onState    StateFunc

	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once

	// stopped gates callback delivery. All callbacks fire from the single
	// run goroutine, so once the flag is set no further callback starts;
	// a lock here would deadlock a consumer that cancels from inside its
	// own callback.
	stopped atomic.Bool
}

func newRunner(req Request, onSnapshot SnapshotFunc, onState StateFunc) *runner {
	policy := req.Policy
	if policy.MaxAttempts == 0 && policy.BaseDelay == 0 {
		policy = DefaultReconnectPolicy()
	}
	httpc := req.Client
	if httpc == nil {
		httpc = defaultClient
	}
	mapper := req.Mapper
	if mapper == nil {
		mapper = Filters.Query
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &runner{
		endpoint:   buildURL(req.Endpoint, mapper(req.Filters)),
		token:      req.Token,
		policy:     policy,
		httpc:      httpc,
		onSnapshot: onSnapshot,
		onState:    onState,
		ctx:        ctx,
		cancel:     cancel,
	}
}

func buildURL(endpoint string, q url.Values) string {
	if len(q) == 0 {
		return endpoint
	}
	sep := "?"
	if strings.Contains(endpoint, "?") {
		sep = "&"
	}
	return endpoint + sep + q.Encode()
}

func (r *runner) cancelFn() {
	r.once.Do(func() {
		r.stopped.Store(true)
		r.cancel()
	})
}

// run is the connection loop: dial, drain, and on failure wait out the
// backoff window before the next attempt. The retry budget renews after
// every successful connection; it bounds one outage, not the client's
// lifetime.
func (r *runner) run() {
	bo := r.policy.backOff()
	retries := 0

	for {
		if r.ctx.Err() != nil {
			return
		}
		if retries == 0 {
			r.emitState(StateConnecting, "")
		} else {
			r.emitState(StateConnecting, fmt.Sprintf("attempt %d of %d", retries, r.policy.MaxAttempts))
		}

		connected, cause := r.connect()
		if r.ctx.Err() != nil {
			return
		}
		if connected {
			retries = 0
			bo.Reset()
		}

		retries++
		if retries > r.policy.MaxAttempts {
			r.emitState(StateError, "stream unavailable after multiple retries")
			return
		}

		delay := bo.NextBackOff()
		r.emitState(StateConnecting, fmt.Sprintf("%s; reconnecting in %s (attempt %d of %d)",
			cause, delay, retries, r.policy.MaxAttempts))

		timer := time.NewTimer(delay)
		select {
		case <-r.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// connect performs one attempt. It reports whether the Connected state was
// reached (2xx with a readable body) and, on failure, a short cause for the
// retry detail.
func (r *runner) connect() (connected bool, cause string) {
	httpReq, err := http.NewRequestWithContext(r.ctx, http.MethodGet, r.endpoint, nil)
	if err != nil {
		return false, fmt.Sprintf("invalid request: %v", err)
	}
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Cache-Control", "no-cache")
	httpReq.Header.Set("Authorization", "Bearer "+r.token)

	resp, err := r.httpc.Do(httpReq)
	if err != nil {
		return false, fmt.Sprintf("connection failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, fmt.Sprintf("unexpected status %s", resp.Status)
	}
	if resp.Body == http.NoBody {
		return false, "empty response body"
	}

	r.emitState(StateConnected, "")

	dec := &decoder{}
	buf := make([]byte, 4096)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			for _, f := range dec.feed(buf[:n]) {
				r.dispatch(f)
			}
		}
		if err != nil {
			if r.ctx.Err() != nil {
				return true, ""
			}
			if errors.Is(err, io.EOF) {
				return true, "stream ended"
			}
			return true, fmt.Sprintf("read failed: %v", err)
		}
	}
}

func (r *runner) dispatch(f frame) {
	switch f.name {
	case "snapshot":
		// Malformed payloads are dropped without surfacing anything: a bad
		// frame must never take the stream down.
		if !json.Valid([]byte(f.data)) {
			return
		}
		r.emitSnapshot(json.RawMessage(f.data))
	case "error":
		var p struct {
			Message string `json:"message"`
		}
		msg := f.data
		if err := json.Unmarshal([]byte(f.data), &p); err == nil && p.Message != "" {
			msg = p.Message
		}
		// Server-reported and informational: surfaced as an Error state
		// change but the read loop keeps going. Terminal Error is reserved
		// for a missing credential and for an exhausted retry budget.
		r.emitState(StateError, msg)
	}
}

func (r *runner) emitSnapshot(payload json.RawMessage) {
	if r.stopped.Load() || r.onSnapshot == nil {
		return
	}
	r.onSnapshot(payload)
}

func (r *runner) emitState(s State, detail string) {
	if r.stopped.Load() || r.onState == nil {
		return
	}
	r.onState(s, detail)
}
