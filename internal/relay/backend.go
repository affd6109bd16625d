package relay

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// DefaultConnectTimeout bounds the backend dial plus handshake when the
// target does not set its own.
const DefaultConnectTimeout = 30 * time.Second

// BackendTarget describes where outbound connections go. Immutable and
// shared read-only across all connections.
type BackendTarget struct {
	// Addr is the host:port to dial.
	Addr string
	// ServerName is asserted for SNI and certificate validation.
	ServerName string
	// ConnectTimeout bounds dial plus outbound handshake together.
	ConnectTimeout time.Duration
	// RootCAs pins the trust anchors for backend validation. Nil means
	// the system pool.
	RootCAs *x509.CertPool
	// InsecureSkipVerify disables backend certificate verification.
	InsecureSkipVerify bool
	// Plaintext dials the backend without TLS.
	Plaintext bool
}

// ParseBackendAddr splits an optional scheme prefix off a backend address.
// "tcp:host:port" selects a plaintext backend, "tls:host:port" (or a bare
// host:port) a TLS one.
func ParseBackendAddr(addr string) (string, bool, error) {
	switch {
	case strings.HasPrefix(addr, "tcp:"):
		addr = strings.TrimPrefix(addr, "tcp:")
	case strings.HasPrefix(addr, "tls:"):
		return strings.TrimPrefix(addr, "tls:"), false, nil
	default:
		return addr, false, nil
	}
	if addr == "" {
		return "", false, errors.New("empty backend address")
	}
	return addr, true, nil
}

func (t *BackendTarget) connectTimeout() time.Duration {
	if t.ConnectTimeout > 0 {
		return t.ConnectTimeout
	}
	return DefaultConnectTimeout
}

// dialRaw opens the outbound transport, honoring the ctx deadline.
func (t *BackendTarget) dialRaw(ctx context.Context) (net.Conn, error) {
	d := &net.Dialer{}
	raw, err := d.DialContext(ctx, "tcp", t.Addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", t.Addr, err)
	}
	return raw, nil
}

// secure runs the TLS client handshake over raw, validating the backend
// certificate against ServerName. For plaintext targets raw is returned as
// is. On failure raw is closed.
func (t *BackendTarget) secure(ctx context.Context, raw net.Conn) (net.Conn, error) {
	if t.Plaintext {
		return raw, nil
	}
	tc := tls.Client(raw, &tls.Config{
		ServerName:         t.ServerName,
		RootCAs:            t.RootCAs,
		InsecureSkipVerify: t.InsecureSkipVerify,
		MinVersion:         tls.VersionTLS12,
	})
	if err := tc.HandshakeContext(ctx); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("handshake with %s as %q: %w", t.Addr, t.ServerName, err)
	}
	return tc, nil
}
