package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const defaultPort = "80"

var errFamilyConflict = errors.New("ipv4 and ipv6 cannot be specified at same time")

// options is the parsed command line, before it is turned into a Plan.
type options struct {
	count       int
	forever     bool
	interval    float64
	timeout     float64
	ipv4        bool
	ipv6        bool
	metricsAddr string
	pushGateway string
	verbose     bool
}

func bindFlags(fs *pflag.FlagSet, cfg Config, o *options) {
	fs.IntVarP(&o.count, "count", "c", cfg.Count, "number of connection attempts")
	fs.BoolVarP(&o.forever, "forever", "t", false, "probe until interrupted")
	fs.Float64VarP(&o.interval, "interval", "i", cfg.Interval, "seconds to wait between attempts")
	fs.Float64VarP(&o.timeout, "timeout", "w", cfg.Timeout, "seconds to wait for each connection")
	fs.BoolVarP(&o.ipv4, "ipv4", "4", false, "use IPv4 addresses only")
	fs.BoolVarP(&o.ipv6, "ipv6", "6", false, "use IPv6 addresses only")
	fs.StringVar(&o.metricsAddr, "metrics-addr", cfg.MetricsAddr, "serve prometheus metrics on this address while probing")
	fs.StringVar(&o.pushGateway, "pushgateway", cfg.PushGateway, "push metrics to this pushgateway URL when a finite run ends")
	fs.BoolVarP(&o.verbose, "verbose", "v", false, "enable debug logging")
}

func familyFromFlags(ipv4, ipv6 bool) (Family, error) {
	switch {
	case ipv4 && ipv6:
		return FamilyAny, errFamilyConflict
	case ipv4:
		return FamilyIPv4, nil
	case ipv6:
		return FamilyIPv6, nil
	default:
		return FamilyAny, nil
	}
}

func secondsToDuration(name string, s float64) (time.Duration, error) {
	if math.IsNaN(s) || s < 0 {
		return 0, fmt.Errorf("%s must not be negative", name)
	}
	if s*float64(time.Second) >= math.MaxInt64 {
		return 0, fmt.Errorf("%s is too large", name)
	}
	return time.Duration(s * float64(time.Second)), nil
}

// plan validates the pacing options. It runs before any name resolution.
func (o options) plan() (Plan, error) {
	p := Plan{Forever: o.forever}
	if !o.forever {
		if o.count < 1 || int64(o.count) > math.MaxUint32 {
			return Plan{}, ErrInvalidCount
		}
		p.Count = uint32(o.count)
	}

	var err error
	if p.Interval, err = secondsToDuration("interval", o.interval); err != nil {
		return Plan{}, err
	}
	if p.Timeout, err = secondsToDuration("timeout", o.timeout); err != nil {
		return Plan{}, err
	}
	return p, nil
}

// app carries the collaborators the command needs. Tests swap lookup and
// probe to stay off the network.
type app struct {
	cfg    Config
	stdout io.Writer
	lookup lookupFunc
	probe  probeFunc
	sleep  sleepFunc
}

func newApp(cfg Config, stdout io.Writer) *app {
	return &app{
		cfg:    cfg,
		stdout: stdout,
		lookup: systemLookup,
		probe:  tcpProbe,
		sleep:  sleepContext,
	}
}

func (a *app) command() *cobra.Command {
	var o options

	cmd := &cobra.Command{
		Use:   "tcping [flags] <hostname> [port]",
		Short: "tcping measures TCP connect latency to a host:port",
		Long: "tcping repeatedly opens a TCP connection to the target and reports the connect time.\n" +
			"The hostname may embed the port (host:port, [ipv6]:port) or be a bracketed IPv6 literal.",
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			port := defaultPort
			if len(args) == 2 {
				port = args[1]
			}
			if o.verbose {
				slogLevel.Set(slog.LevelDebug)
			}
			return a.run(cmd.Context(), o, args[0], port)
		},
	}

	bindFlags(cmd.Flags(), a.cfg, &o)
	cmd.MarkFlagsMutuallyExclusive("count", "forever")
	cmd.MarkFlagsMutuallyExclusive("ipv4", "ipv6")
	return cmd
}

func (a *app) run(ctx context.Context, o options, host, port string) error {
	plan, err := o.plan()
	if err != nil {
		return err
	}
	family, err := familyFromFlags(o.ipv4, o.ipv6)
	if err != nil {
		return err
	}

	metrics := newProbeMetrics()
	if o.metricsAddr != "" {
		if _, err := metrics.serve(o.metricsAddr); err != nil {
			return err
		}
	}

	start := time.Now()
	target, err := resolveTarget(ctx, a.lookup, host, port, family)
	if err != nil {
		return err
	}
	resolved := time.Since(start)
	metrics.observeResolve(target.String(), resolved)
	slog.Debug("resolved target",
		"host", host,
		"family", family.String(),
		"address", target.String(),
		"duration", resolved.String(),
	)

	r := newRunner(target, plan, a.stdout, metrics)
	r.probe = a.probe
	r.sleep = a.sleep
	if err := r.run(ctx); err != nil {
		return err
	}

	if o.pushGateway != "" {
		if err := metrics.push(o.pushGateway, target.String()); err != nil {
			slog.Warn("metrics push failed", "error", err)
		}
	}
	return nil
}
