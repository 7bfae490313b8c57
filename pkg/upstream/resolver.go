package upstream

import (
	"context"
	"net"
)

// Resolver is a thin wrapper over the platform DNS resolver. It exists so
// the pool depends on an interface rather than net.DefaultResolver
// directly, and so every connection attempt sees the same ordered address
// list instead of re-resolving independently.
type Resolver struct {
	lookup func(ctx context.Context, network, host string) ([]string, error)
}

// NewResolver returns a Resolver backed by net.DefaultResolver.
func NewResolver() *Resolver {
	return &Resolver{lookup: net.DefaultResolver.LookupHost}
}

// Resolve returns the ordered list of IP addresses (as returned by the
// platform resolver, dual-stack) for host. A literal IP address is
// returned unchanged without a lookup.
func (r *Resolver) Resolve(ctx context.Context, host string) ([]string, error) {
	if ip := net.ParseIP(host); ip != nil {
		return []string{host}, nil
	}
	addrs, err := r.lookup(ctx, "ip", host)
	if err != nil {
		return nil, err
	}
	if len(addrs) == 0 {
		return nil, &net.DNSError{Err: "no addresses found", Name: host}
	}
	return addrs, nil
}
