package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"strings"
)

var (
	ErrInvalidPort       = errors.New("invalid port")
	ErrNoMatchingAddress = errors.New("cannot resolve hostname")
)

// Family restricts which resolved addresses are acceptable.
type Family int

const (
	FamilyAny Family = iota
	FamilyIPv4
	FamilyIPv6
)

func (f Family) String() string {
	switch f {
	case FamilyIPv4:
		return "ipv4"
	case FamilyIPv6:
		return "ipv6"
	default:
		return "any"
	}
}

// accepts reports whether addr belongs to a family allowed by f. An
// IPv4-mapped IPv6 address counts as IPv6.
func (f Family) accepts(addr netip.Addr) bool {
	isV4 := addr.Is4()
	switch f {
	case FamilyIPv4:
		return isV4
	case FamilyIPv6:
		return !isV4
	default:
		return true
	}
}

// hostForm is the shape of a user supplied host string.
type hostForm int

const (
	formPlain       hostForm = iota // example.com, 10.0.0.1, ::1
	formHostPort                    // example.com:8080, 10.0.0.1:8080
	formBracketPort                 // [::1]:8080
	formBracket                     // [::1]
)

// classifyHost picks the form of raw. Checks run in priority order and the
// first match wins.
func classifyHost(raw string) hostForm {
	switch {
	case strings.Count(raw, ":") == 1:
		return formHostPort
	case strings.Contains(raw, "]:"):
		return formBracketPort
	case len(raw) >= 2 && raw[0] == '[' && raw[len(raw)-1] == ']':
		return formBracket
	default:
		return formPlain
	}
}

// splitTarget extracts the host and port from the raw host string. defaultPort
// is used only when the host string carries no port of its own.
func splitTarget(rawHost, defaultPort string) (host, port string) {
	switch classifyHost(rawHost) {
	case formHostPort:
		i := strings.IndexByte(rawHost, ':')
		return rawHost[:i], rawHost[i+1:]
	case formBracketPort:
		// "]:" plus at least one more colon puts the last colon at index 2 or later.
		i := strings.LastIndexByte(rawHost, ':')
		return rawHost[1 : i-1], rawHost[i+1:]
	case formBracket:
		return rawHost[1 : len(rawHost)-1], defaultPort
	default:
		return rawHost, defaultPort
	}
}

func parsePort(s string) (int, error) {
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("%w %q", ErrInvalidPort, s)
	}
	return int(n), nil
}

// lookupFunc returns candidate addresses for host in the resolver's order.
type lookupFunc func(ctx context.Context, host string) ([]net.IPAddr, error)

func systemLookup(ctx context.Context, host string) ([]net.IPAddr, error) {
	return net.DefaultResolver.LookupIPAddr(ctx, host)
}

// resolveTarget turns the user's host and port into a single TCP address whose
// family satisfies family. Candidates are tried in lookup order.
func resolveTarget(ctx context.Context, lookup lookupFunc, rawHost, rawPort string, family Family) (*net.TCPAddr, error) {
	host, portStr := splitTarget(rawHost, rawPort)

	port, err := parsePort(portStr)
	if err != nil {
		return nil, err
	}

	candidates, err := lookup(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoMatchingAddress, err)
	}

	// The resolver stores IPv4 in 16-byte form, so only a literal the user
	// typed as ::ffff:a.b.c.d keeps its mapped form.
	mapped := false
	if lit, err := netip.ParseAddr(host); err == nil {
		mapped = lit.Is4In6()
	}

	for _, c := range candidates {
		addr, ok := netip.AddrFromSlice(c.IP)
		if !ok {
			continue
		}
		if !mapped {
			addr = addr.Unmap()
		}
		if !family.accepts(addr) {
			continue
		}
		return &net.TCPAddr{IP: c.IP, Port: port, Zone: c.Zone}, nil
	}
	return nil, ErrNoMatchingAddress
}
