package extract

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"strings"
)

var (
	errInvalidURLScheme = errors.New("unsupported url scheme")
	errMissingURLHost   = errors.New("url host is required")
	errBlockedURLHost   = errors.New("blocked url host")
	errBlockedURLPort   = errors.New("blocked url port")
)

var blockedHostSuffixes = []string{".localhost", ".local", ".internal", ".lan", ".home.arpa"}

// Ranges not covered by the netip predicates.
var blockedPrefixes = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("100.64.0.0/10"),
	netip.MustParsePrefix("192.0.0.0/24"),
	netip.MustParsePrefix("198.18.0.0/15"),
	netip.MustParsePrefix("64:ff9b::/96"),
}

var webPorts = map[string]struct{}{"": {}, "80": {}, "443": {}}

// urlPolicy decides which reference URLs the reader may contact. Scheme and
// host are always checked; address and port rules apply when blockPrivate is set.
type urlPolicy struct {
	blockPrivate bool
	lookup       func(ctx context.Context, host string) ([]netip.Addr, error)
}

func newURLPolicy(blockPrivate bool) urlPolicy {
	return urlPolicy{
		blockPrivate: blockPrivate,
		lookup: func(ctx context.Context, host string) ([]netip.Addr, error) {
			return net.DefaultResolver.LookupNetIP(ctx, "ip", host)
		},
	}
}

func (p urlPolicy) check(rawURL string) (*url.URL, error) {
	target, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, err
	}
	if target.Host == "" || target.Hostname() == "" {
		return nil, errMissingURLHost
	}
	switch strings.ToLower(target.Scheme) {
	case "http", "https":
	default:
		return nil, errInvalidURLScheme
	}
	if !p.blockPrivate {
		return target, nil
	}
	if err := checkHostName(target.Hostname()); err != nil {
		return nil, err
	}
	if _, ok := webPorts[target.Port()]; !ok {
		return nil, fmt.Errorf("%w: %s", errBlockedURLPort, target.Port())
	}
	return target, nil
}

// dialContext resolves the host itself and refuses when any address is internal.
func (p urlPolicy) dialContext(base *net.Dialer) func(context.Context, string, string) (net.Conn, error) {
	if base == nil {
		base = &net.Dialer{}
	}
	return func(ctx context.Context, network, address string) (net.Conn, error) {
		host, _, err := net.SplitHostPort(address)
		if err != nil {
			host = address
		}
		if err := p.checkResolved(ctx, host); err != nil {
			return nil, err
		}
		return base.DialContext(ctx, network, address)
	}
}

func (p urlPolicy) checkResolved(ctx context.Context, host string) error {
	host = strings.TrimSpace(host)
	if host == "" {
		return errMissingURLHost
	}
	if err := checkHostName(host); err != nil {
		return err
	}

	addrs, err := p.lookup(ctx, host)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", host, err)
	}
	if len(addrs) == 0 {
		return fmt.Errorf("resolve %s: no addresses", host)
	}
	for _, addr := range addrs {
		if internalAddr(addr) {
			return fmt.Errorf("%w: %s resolves to %s", errBlockedURLHost, host, addr)
		}
	}
	return nil
}

func checkHostName(host string) error {
	host = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(host), "."))
	if host == "localhost" {
		return errBlockedURLHost
	}
	for _, suffix := range blockedHostSuffixes {
		if strings.HasSuffix(host, suffix) {
			return errBlockedURLHost
		}
	}
	if addr, err := netip.ParseAddr(host); err == nil && internalAddr(addr) {
		return errBlockedURLHost
	}
	return nil
}

func internalAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	if !addr.IsValid() || !addr.IsGlobalUnicast() || addr.IsPrivate() {
		return true
	}
	for _, prefix := range blockedPrefixes {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}
