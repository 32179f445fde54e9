// Package metrics provides lightweight, lock-free counters for the
// connection lifecycle and bounded I/O of a network adapter.
//
// All methods are safe for concurrent use.  A nil *Collector is a
// valid no-op receiver, so callers never need to nil-check.
package metrics

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Collector tracks runtime metrics for one or more Connections.
// A nil Collector is safe to use; all methods become no-ops.
type Collector struct {
	connectsTotal      atomic.Int64
	connectFailures    atomic.Int64
	resolutionFailures atomic.Int64
	candidateAttempts  atomic.Int64
	connectionsActive  atomic.Int64
	bytesIn            atomic.Int64
	bytesOut           atomic.Int64
	shortReads         atomic.Int64
	shortWrites        atomic.Int64
	errorsTotal        atomic.Int64

	mu           sync.RWMutex
	startTime    time.Time
	lastConnect  time.Time
	lastRemote   string
	lastError    time.Time
	lastErrorMsg string
}

// New creates a metrics collector with the start time set to now.
func New() *Collector {
	return &Collector{startTime: time.Now()}
}

// ── Connection establishment ─────────────────────────────────────────

// CandidateAttempted records one dial attempt against a candidate.
func (c *Collector) CandidateAttempted() {
	if c == nil {
		return
	}
	c.candidateAttempts.Add(1)
}

// Connected records a successful establishment to remote.
func (c *Collector) Connected(remote string) {
	if c == nil {
		return
	}
	c.connectsTotal.Add(1)
	c.connectionsActive.Add(1)
	c.mu.Lock()
	c.lastConnect = time.Now()
	c.lastRemote = remote
	c.mu.Unlock()
}

// ConnectFailed records an establishment that exhausted its candidates.
func (c *Collector) ConnectFailed() {
	if c == nil {
		return
	}
	c.connectFailures.Add(1)
}

// ResolutionFailed records a resolution that produced no candidates.
func (c *Collector) ResolutionFailed() {
	if c == nil {
		return
	}
	c.resolutionFailures.Add(1)
}

// Disconnected decrements the active connection gauge.
func (c *Collector) Disconnected() {
	if c == nil {
		return
	}
	c.connectionsActive.Add(-1)
}

// ActiveConnections returns the number of currently open connections.
func (c *Collector) ActiveConnections() int64 {
	if c == nil {
		return 0
	}
	return c.connectionsActive.Load()
}

// CandidateAttempts returns the total number of dial attempts.
func (c *Collector) CandidateAttempts() int64 {
	if c == nil {
		return 0
	}
	return c.candidateAttempts.Load()
}

// ── I/O metrics ──────────────────────────────────────────────────────

// Read records a bounded read that transferred n of want bytes.
func (c *Collector) Read(n, want int) {
	if c == nil {
		return
	}
	c.bytesIn.Add(int64(n))
	if n < want {
		c.shortReads.Add(1)
	}
}

// Wrote records a bounded write that transferred n of want bytes.
func (c *Collector) Wrote(n, want int) {
	if c == nil {
		return
	}
	c.bytesOut.Add(int64(n))
	if n < want {
		c.shortWrites.Add(1)
	}
}

// TotalBytesIn returns total bytes received.
func (c *Collector) TotalBytesIn() int64 {
	if c == nil {
		return 0
	}
	return c.bytesIn.Load()
}

// TotalBytesOut returns total bytes sent.
func (c *Collector) TotalBytesOut() int64 {
	if c == nil {
		return 0
	}
	return c.bytesOut.Load()
}

// ShortReads returns how many reads ended on timeout before completion.
func (c *Collector) ShortReads() int64 {
	if c == nil {
		return 0
	}
	return c.shortReads.Load()
}

// ShortWrites returns how many writes ended on timeout before completion.
func (c *Collector) ShortWrites() int64 {
	if c == nil {
		return 0
	}
	return c.shortWrites.Load()
}

// ── Error metrics ────────────────────────────────────────────────────

// RecordError increments the error counter and stores the message.
func (c *Collector) RecordError(msg string) {
	if c == nil {
		return
	}
	c.errorsTotal.Add(1)
	c.mu.Lock()
	c.lastError = time.Now()
	c.lastErrorMsg = msg
	c.mu.Unlock()
}

// ErrorCount returns the total number of errors recorded.
func (c *Collector) ErrorCount() int64 {
	if c == nil {
		return 0
	}
	return c.errorsTotal.Load()
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Uptime             string `json:"uptime"`
	ConnectsTotal      int64  `json:"connects_total"`
	ConnectFailures    int64  `json:"connect_failures"`
	ResolutionFailures int64  `json:"resolution_failures"`
	CandidateAttempts  int64  `json:"candidate_attempts"`
	ConnectionsActive  int64  `json:"connections_active"`
	BytesIn            int64  `json:"bytes_in"`
	BytesOut           int64  `json:"bytes_out"`
	ShortReads         int64  `json:"short_reads"`
	ShortWrites        int64  `json:"short_writes"`
	ErrorsTotal        int64  `json:"errors_total"`
	LastConnect        string `json:"last_connect,omitempty"`
	LastRemote         string `json:"last_remote,omitempty"`
	LastError          string `json:"last_error,omitempty"`
	LastErrorMessage   string `json:"last_error_message,omitempty"`
}

// Snapshot returns a copy of all current metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Uptime:             time.Since(c.startTime).Truncate(time.Second).String(),
		ConnectsTotal:      c.connectsTotal.Load(),
		ConnectFailures:    c.connectFailures.Load(),
		ResolutionFailures: c.resolutionFailures.Load(),
		CandidateAttempts:  c.candidateAttempts.Load(),
		ConnectionsActive:  c.connectionsActive.Load(),
		BytesIn:            c.bytesIn.Load(),
		BytesOut:           c.bytesOut.Load(),
		ShortReads:         c.shortReads.Load(),
		ShortWrites:        c.shortWrites.Load(),
		ErrorsTotal:        c.errorsTotal.Load(),
		LastRemote:         c.lastRemote,
	}
	if !c.lastConnect.IsZero() {
		s.LastConnect = c.lastConnect.Format(time.RFC3339)
	}
	if !c.lastError.IsZero() {
		s.LastError = c.lastError.Format(time.RFC3339)
		s.LastErrorMessage = c.lastErrorMsg
	}
	return s
}

// JSON returns the snapshot as an indented JSON string.
func (c *Collector) JSON() string {
	s := c.Snapshot()
	data, _ := json.MarshalIndent(s, "", "  ")
	return string(data)
}
