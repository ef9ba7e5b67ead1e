// Package webhook implements the outbound notification plugin: endpoint
// registry, SSRF-hardened URL validation, and signed HTTP delivery.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
)

// Resolver looks up hostnames for rebinding checks. *net.Resolver satisfies
// it; a nil resolver disables the DNS step with a reduced guarantee.
type Resolver interface {
	LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error)
}

var localhostAliases = map[string]struct{}{
	"localhost":             {},
	"localhost.localdomain": {},
	"ip6-localhost":         {},
	"ip6-loopback":          {},
}

// suspiciousSuffixes are internal-only DNS zones that must never receive
// webhook traffic, regardless of what they resolve to.
var suspiciousSuffixes = []string{
	".local",
	".localdomain",
	".internal",
	".consul",
	".svc",
	".svc.cluster.local",
	".cluster.local",
}

var metadataHostnames = map[string]struct{}{
	"metadata":                   {},
	"metadata.google.internal":   {},
	"instance-data":              {},
	"instance-data.ec2.internal": {},
}

// metadataAddrs are cloud metadata endpoints blocked outright, on top of the
// generic private-range checks.
var metadataAddrs = map[string]struct{}{
	"169.254.169.254": {},
	"169.254.170.2":   {},
	"100.100.100.200": {},
	"fd00:ec2::254":   {},
}

// Validator rejects webhook URLs that could reach private infrastructure.
type Validator struct {
	allowInsecure bool
	resolver      Resolver
	logger        zerolog.Logger
}

func NewValidator(allowInsecure bool, resolver Resolver, logger zerolog.Logger) *Validator {
	return &Validator{
		allowInsecure: allowInsecure,
		resolver:      resolver,
		logger:        logger.With().Str("component", "webhook_validator").Logger(),
	}
}

// Validate applies the SSRF checks in order; the first failure wins. It must
// run before every send, not only at configuration time, because a hostname
// can change what it resolves to between the two.
func (v *Validator) Validate(ctx context.Context, rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	switch parsed.Scheme {
	case "https":
	case "http":
		if !v.allowInsecure {
			return fmt.Errorf("insecure scheme %q not allowed, use https", parsed.Scheme)
		}
	default:
		return fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}

	if parsed.User != nil {
		return fmt.Errorf("url must not contain credentials")
	}

	host := strings.ToLower(strings.TrimSuffix(parsed.Hostname(), "."))
	if host == "" {
		return fmt.Errorf("url has no host")
	}

	if _, ok := localhostAliases[host]; ok {
		return fmt.Errorf("host %q is a localhost alias", host)
	}
	if _, ok := metadataHostnames[host]; ok {
		return fmt.Errorf("host %q is a cloud metadata endpoint", host)
	}
	for _, suffix := range suspiciousSuffixes {
		if strings.HasSuffix(host, suffix) {
			return fmt.Errorf("host %q matches internal domain pattern %q", host, suffix)
		}
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		return v.checkAddr(addr)
	}

	return v.checkDNS(ctx, host)
}

// checkDNS resolves the hostname and rejects it if any answer is private.
// A hostname with one public and one private record is a rebinding setup.
func (v *Validator) checkDNS(ctx context.Context, host string) error {
	if v.resolver == nil {
		v.logger.Debug().Str("host", host).Msg("dns resolution unavailable, rebinding check skipped")
		return nil
	}

	addrs, err := v.resolver.LookupNetIP(ctx, "ip", host)
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
			return fmt.Errorf("host %q does not resolve", host)
		}
		// Fail closed: an unverifiable host is treated like a private one.
		return fmt.Errorf("resolve host %q: %w", host, err)
	}

	for _, addr := range addrs {
		if err := v.checkAddr(addr); err != nil {
			return err
		}
	}
	return nil
}

func (v *Validator) checkAddr(addr netip.Addr) error {
	addr = addr.Unmap()

	if _, ok := metadataAddrs[addr.String()]; ok {
		return fmt.Errorf("address %s is a cloud metadata endpoint", addr)
	}
	if addr.IsLoopback() || addr.IsUnspecified() {
		return fmt.Errorf("address %s is loopback", addr)
	}
	if addr.IsLinkLocalUnicast() || addr.IsLinkLocalMulticast() {
		return fmt.Errorf("address %s is link-local", addr)
	}
	if addr.IsPrivate() {
		return fmt.Errorf("address %s is in a private range", addr)
	}
	return nil
}
