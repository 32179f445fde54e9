package network

import (
	"context"
	"fmt"
	"net"
	"net/netip"
)

// Family is the address family of a candidate.
type Family int

const (
	FamilyUnspec Family = iota // both families, resolver order
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
		return "unspec"
	}
}

// ParseFamily accepts "", "any", "4", "ipv4", "6", or "ipv6".
func ParseFamily(s string) (Family, error) {
	switch s {
	case "", "any", "unspec":
		return FamilyUnspec, nil
	case "4", "ipv4":
		return FamilyIPv4, nil
	case "6", "ipv6":
		return FamilyIPv6, nil
	}
	return FamilyUnspec, fmt.Errorf("unknown address family %q", s)
}

// ipNetwork is the network name for net.Resolver lookups.
func (f Family) ipNetwork() string {
	switch f {
	case FamilyIPv4:
		return "ip4"
	case FamilyIPv6:
		return "ip6"
	default:
		return "ip"
	}
}

// Candidate is one resolved endpoint to attempt a connection to.  It is
// produced and consumed within a single Connect call.
type Candidate struct {
	Family Family
	Addr   netip.AddrPort
}

// NewCandidate builds a candidate from an address and port, unmapping
// IPv4-in-IPv6 addresses.
func NewCandidate(addr netip.Addr, port uint16) Candidate {
	addr = addr.Unmap()
	fam := FamilyIPv6
	if addr.Is4() {
		fam = FamilyIPv4
	}
	return Candidate{Family: fam, Addr: netip.AddrPortFrom(addr, port)}
}

// Network returns the stream network name to dial ("tcp4" or "tcp6").
func (c Candidate) Network() string {
	if c.Family == FamilyIPv6 {
		return "tcp6"
	}
	return "tcp4"
}

func (c Candidate) String() string { return c.Addr.String() }

// Resolver turns a host and port into an ordered list of candidates.
// The order is the resolver's; Connect tries them exactly as given.
type Resolver interface {
	Resolve(ctx context.Context, host, port string) ([]Candidate, error)
}

// ResolverFunc adapts a function to [Resolver].
type ResolverFunc func(ctx context.Context, host, port string) ([]Candidate, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(ctx context.Context, host, port string) ([]Candidate, error) {
	return f(ctx, host, port)
}

// NetResolver resolves through the platform resolver.  The port may be
// decimal or a service name.
type NetResolver struct {
	// Resolver is the underlying resolver; nil means net.DefaultResolver.
	Resolver *net.Resolver
	// Family restricts candidates to one address family.
	Family Family
	// NoDNS accepts only numeric hosts.
	NoDNS bool
}

func (r *NetResolver) resolver() *net.Resolver {
	if r.Resolver != nil {
		return r.Resolver
	}
	return net.DefaultResolver
}

// Resolve implements [Resolver].  A literal IP address is returned
// without consulting DNS.
func (r *NetResolver) Resolve(ctx context.Context, host, port string) ([]Candidate, error) {
	p, err := r.resolver().LookupPort(ctx, "tcp", port)
	if err != nil {
		return nil, err
	}

	var addrs []netip.Addr
	if ip, perr := netip.ParseAddr(host); perr == nil {
		addrs = []netip.Addr{ip}
	} else if r.NoDNS {
		return nil, fmt.Errorf("cannot parse %q as an IP address (DNS disabled)", host)
	} else {
		addrs, err = r.resolver().LookupNetIP(ctx, r.Family.ipNetwork(), host)
		if err != nil {
			return nil, err
		}
	}

	out := make([]Candidate, 0, len(addrs))
	for _, a := range addrs {
		c := NewCandidate(a, uint16(p))
		if r.Family != FamilyUnspec && c.Family != r.Family {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}
