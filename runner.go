package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"
)

var ErrInvalidCount = errors.New("count must be a positive integer")

// Plan describes how many attempts to make and how to pace them.
type Plan struct {
	Count    uint32
	Forever  bool
	Interval time.Duration
	Timeout  time.Duration
}

func (p Plan) validate() error {
	if p.Forever {
		return nil
	}
	if p.Count < 1 {
		return ErrInvalidCount
	}
	return nil
}

// last reports whether attempt i (zero based) is the final one of the plan.
func (p Plan) last(i uint32) bool {
	return !p.Forever && i+1 >= p.Count
}

type sleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runner probes a single resolved target according to a Plan, writing one
// line per attempt to out.
type runner struct {
	target  *net.TCPAddr
	plan    Plan
	out     io.Writer
	metrics *probeMetrics

	probe probeFunc
	sleep sleepFunc
}

func newRunner(target *net.TCPAddr, plan Plan, out io.Writer, metrics *probeMetrics) *runner {
	return &runner{
		target:  target,
		plan:    plan,
		out:     out,
		metrics: metrics,
		probe:   tcpProbe,
		sleep:   sleepContext,
	}
}

// run blocks until the plan is exhausted. Unbounded plans only return when
// ctx is done.
func (r *runner) run(ctx context.Context) error {
	if err := r.plan.validate(); err != nil {
		return err
	}

	target := r.target.String()
	for i := uint32(0); ; i++ {
		res := r.probe(ctx, r.target, r.plan.Timeout)
		if _, err := io.WriteString(r.out, formatResult(target, res)); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
		r.metrics.observeAttempt(target, res)
		if res.Err != nil {
			slog.Debug("tcp probe failed",
				"target", target,
				"outcome", res.Outcome.String(),
				"error", res.Err,
			)
		}

		if r.plan.last(i) {
			return nil
		}
		if err := r.sleep(ctx, r.plan.Interval); err != nil {
			return err
		}
	}
}

func formatResult(target string, r Result) string {
	switch r.Outcome {
	case OutcomeConnected:
		return fmt.Sprintf("connected to %s %dms\n", target, r.Millis())
	case OutcomeTimedOut:
		return fmt.Sprintf("connected to %s timeout %dms\n", target, r.Millis())
	default:
		return fmt.Sprintf("connected to %s failed %dms\n", target, r.Millis())
	}
}
