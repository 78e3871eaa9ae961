package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	"golang.org/x/net/proxy"
)

// DefaultProxyCheckTimeout bounds CheckProxy when ctx has no earlier deadline.
const DefaultProxyCheckTimeout = 5 * time.Second

// CheckProxy verifies that the SOCKS5 proxy at address is usable for targetURL.
//
// It first opens a plain TCP connection to the proxy, then opens a tunnel to
// the host of targetURL through it. A proxy that is down, that speaks another
// protocol, or that cannot reach the site is reported before any page is
// requested, so a misconfigured proxy does not turn every fetch into a
// transport error.
func CheckProxy(ctx context.Context, address, targetURL string) error {
	if !isValidProxyAddress(address) {
		return ErrInvalidProxyAddress
	}

	target, err := dialTarget(targetURL)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultProxyCheckTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		if isTimeout(ctx, err) {
			return ErrProxyTimeout
		}
		return fmt.Errorf("%w: %w", ErrProxyUnreachable, err)
	}
	_ = conn.Close()

	dialer, err := proxy.SOCKS5("tcp", address, nil, proxy.Direct)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrProxyHandshake, err)
	}
	cd, ok := dialer.(proxy.ContextDialer)
	if !ok {
		return fmt.Errorf("%w: dialer does not support contexts", ErrProxyHandshake)
	}

	tunnel, err := cd.DialContext(ctx, "tcp", target)
	if err != nil {
		if isTimeout(ctx, err) {
			return ErrProxyTimeout
		}
		return fmt.Errorf("%w: %w", ErrProxyHandshake, err)
	}
	return tunnel.Close()
}

// dialTarget returns "host:port" for rawURL, using the scheme's default port.
func dialTarget(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "", fmt.Errorf("invalid proxy check target %q", rawURL)
	}
	port := u.Port()
	if port == "" {
		port = "80"
		if u.Scheme == "https" {
			port = "443"
		}
	}
	return net.JoinHostPort(u.Hostname(), port), nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
