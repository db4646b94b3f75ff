package main

import (
	"context"
	"errors"
	"net"
	"time"
)

// Outcome is the classification of a single connection attempt.
type Outcome int

const (
	OutcomeConnected Outcome = iota
	OutcomeTimedOut
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeConnected:
		return "connected"
	case OutcomeTimedOut:
		return "timeout"
	default:
		return "failed"
	}
}

// Result describes one probe attempt. Elapsed covers the whole attempt,
// whatever the outcome.
type Result struct {
	Outcome Outcome
	Elapsed time.Duration
	Err     error
}

// Millis returns the elapsed time in whole milliseconds, never negative.
func (r Result) Millis() int64 {
	if r.Elapsed < 0 {
		return 0
	}
	return r.Elapsed.Milliseconds()
}

var errZeroTimeout = errors.New("connect timeout must be greater than zero")

// probeFunc performs one timed connection attempt against addr.
type probeFunc func(ctx context.Context, addr *net.TCPAddr, timeout time.Duration) Result

// tcpProbe opens and immediately closes a TCP connection to addr. A zero
// timeout is rejected without dialing and reported as a failure.
func tcpProbe(ctx context.Context, addr *net.TCPAddr, timeout time.Duration) Result {
	start := time.Now()
	if timeout <= 0 {
		return Result{Outcome: OutcomeFailed, Elapsed: time.Since(start), Err: errZeroTimeout}
	}
	d := net.Dialer{Deadline: start.Add(timeout)}
	conn, err := d.DialContext(ctx, "tcp", addr.String())
	latency := time.Since(start)

	if err != nil {
		return Result{Outcome: classify(err), Elapsed: latency, Err: err}
	}
	conn.Close()
	return Result{Outcome: OutcomeConnected, Elapsed: latency}
}

func classify(err error) Outcome {
	if isTimeout(err) {
		return OutcomeTimedOut
	}
	return OutcomeFailed
}

// isTimeout checks whether the error is a context deadline exceeded or timeout.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return false
}
