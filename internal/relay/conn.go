package relay

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"time"

	"github.com/matst80/retls/internal/obs"
)

// connState tracks where a connection is in its lifecycle. Transitions only
// move forward; every failure jumps straight to stateClosed.
type connState uint8

const (
	stateAccepted connState = iota
	stateInboundHandshaking
	stateDialing
	stateOutboundHandshaking
	stateRelaying
	stateClosed
)

func (s connState) String() string {
	switch s {
	case stateAccepted:
		return "accepted"
	case stateInboundHandshaking:
		return "inbound_handshaking"
	case stateDialing:
		return "dialing"
	case stateOutboundHandshaking:
		return "outbound_handshaking"
	case stateRelaying:
		return "relaying"
	case stateClosed:
		return "closed"
	}
	return "unknown"
}

// conn owns both sides of one relayed session. Nothing outside the handler
// goroutine (and the two pump goroutines it starts) ever touches them.
type conn struct {
	server  *Server
	raw     net.Conn
	inbound *tls.Conn
	backend net.Conn
	remote  string
	state   connState
}

func (c *conn) transition(next connState) {
	obs.Debug("conn.state", obs.Fields{"remote": c.remote, "from": c.state.String(), "to": next.String()})
	c.state = next
}

// handle drives one accepted connection through inbound handshake, backend
// connect and relay. The inbound handshake must complete before the backend
// is ever dialed, so no client byte reaches the backend unauthenticated.
func (s *Server) handle(ctx context.Context, raw net.Conn) {
	c := &conn{server: s, raw: raw, remote: raw.RemoteAddr().String(), state: stateAccepted}
	obs.ConnectionsTotal.Inc()
	obs.Debug("conn.accepted", obs.Fields{"remote": c.remote})

	c.transition(stateInboundHandshaking)
	c.inbound = tls.Server(raw, s.identity.serverConfig())
	// No explicit deadline here; only what the transport enforces.
	if err := c.inbound.HandshakeContext(ctx); err != nil {
		obs.Warn("conn.inbound_handshake", obs.Fields{"remote": c.remote, "err": err.Error()})
		obs.ErrorsTotal.WithLabelValues("inbound_handshake").Inc()
		s.stats.Failure("inbound_handshake")
		c.close()
		return
	}

	// Dial and outbound handshake share one deadline.
	c.transition(stateDialing)
	start := time.Now()
	dialCtx, cancel := context.WithTimeout(ctx, s.target.connectTimeout())
	defer cancel()
	raw2, err := s.target.dialRaw(dialCtx)
	if err != nil {
		c.fail("dial", err)
		return
	}
	c.transition(stateOutboundHandshaking)
	backend, err := s.target.secure(dialCtx, raw2)
	if err != nil {
		c.fail("outbound_handshake", err)
		return
	}
	c.backend = backend
	obs.ConnectDurationSeconds.Observe(time.Since(start).Seconds())

	c.transition(stateRelaying)
	s.stats.ConnOpened()
	obs.ActiveConnections.Inc()
	obs.Info("conn.relaying", obs.Fields{"remote": c.remote, "backend": s.target.Addr})
	relayStart := time.Now()
	fromClient, fromBackend := pump(c.inbound, c.backend)
	obs.RelayDurationSeconds.Observe(time.Since(relayStart).Seconds())
	obs.ActiveConnections.Dec()
	s.stats.ConnClosed(fromClient, fromBackend)
	obs.Info("conn.done", obs.Fields{"remote": c.remote, "from_client": fromClient, "from_backend": fromBackend})
	c.close()
}

// fail records a backend connect failure and tears down whatever sides were
// opened. Nothing is retried; the client reconnects for a fresh attempt.
func (c *conn) fail(stage string, err error) {
	if isTimeout(err) {
		stage = "connect_timeout"
		obs.ConnectTimeoutTotal.Inc()
	}
	obs.Error("conn.backend_connect", obs.Fields{"remote": c.remote, "backend": c.server.target.Addr, "stage": stage, "err": err.Error()})
	obs.ErrorsTotal.WithLabelValues(stage).Inc()
	c.server.stats.Failure(stage)
	c.close()
}

// close releases whatever sides were opened. Best effort; failures during
// close are not escalated.
func (c *conn) close() {
	c.transition(stateClosed)
	if c.backend != nil {
		if err := c.backend.Close(); err != nil {
			obs.Debug("conn.close_backend", obs.Fields{"remote": c.remote, "err": err.Error()})
		}
	}
	if c.inbound != nil {
		if err := c.inbound.Close(); err != nil {
			obs.Debug("conn.close_inbound", obs.Fields{"remote": c.remote, "err": err.Error()})
		}
		return
	}
	_ = c.raw.Close()
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
