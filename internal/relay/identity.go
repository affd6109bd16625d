package relay

import (
	"crypto/tls"
	"fmt"
)

// ServerIdentity is the certificate chain and private key presented to
// inbound clients. Loaded once at startup and shared read-only by every
// connection; never mutated afterwards.
type ServerIdentity struct {
	cert tls.Certificate
}

// LoadServerIdentity reads the PEM certificate chain and private key files.
func LoadServerIdentity(certFile, keyFile string) (*ServerIdentity, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("load key pair: %w", err)
	}
	return &ServerIdentity{cert: cert}, nil
}

// NewServerIdentity wraps an already-parsed certificate.
func NewServerIdentity(cert tls.Certificate) *ServerIdentity {
	return &ServerIdentity{cert: cert}
}

func (id *ServerIdentity) serverConfig() *tls.Config {
	return &tls.Config{
		Certificates: []tls.Certificate{id.cert},
		MinVersion:   tls.VersionTLS12,
	}
}
