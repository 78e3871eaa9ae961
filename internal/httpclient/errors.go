package httpclient

import "errors"

// Proxy errors. CheckProxy wraps the last two with the underlying cause.
var (
	// ErrInvalidProxyAddress is returned when the proxy address is not in
	// "host:port" format with a port between 1 and 65535.
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")

	// ErrProxyUnreachable is returned when no TCP connection to the proxy
	// can be made. The proxy is usually not running or the address is wrong.
	ErrProxyUnreachable = errors.New("cannot connect to SOCKS5 proxy")

	// ErrProxyTimeout is returned when the proxy check does not finish in time.
	ErrProxyTimeout = errors.New("timeout checking SOCKS5 proxy")

	// ErrProxyHandshake is returned when the proxy accepts the connection but
	// the SOCKS5 exchange fails: it speaks another protocol, requires
	// authentication, or refuses to connect to the target.
	ErrProxyHandshake = errors.New("SOCKS5 proxy check failed")
)
