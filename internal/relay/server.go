package relay

import (
	"context"
	"net"

	"github.com/matst80/retls/internal/obs"
	"github.com/matst80/retls/internal/ratelimit"
)

// StatsSink receives per-connection accounting. Implementations must be
// safe for concurrent use.
type StatsSink interface {
	ConnOpened()
	ConnClosed(fromClient, fromBackend int64)
	Failure(stage string)
}

type nopSink struct{}

func (nopSink) ConnOpened()           {}
func (nopSink) ConnClosed(_, _ int64) {}
func (nopSink) Failure(_ string)      {}

// Server accepts raw transport connections and relays each one to the
// backend through a fresh pair of TLS sessions.
type Server struct {
	identity *ServerIdentity
	target   *BackendTarget
	stats    StatsSink
	limiter  *ratelimit.ConnLimiter
}

// New builds a Server. sink and limiter may be nil.
func New(identity *ServerIdentity, target *BackendTarget, sink StatsSink, limiter *ratelimit.ConnLimiter) *Server {
	if sink == nil {
		sink = nopSink{}
	}
	return &Server{identity: identity, target: target, stats: sink, limiter: limiter}
}

// Serve accepts connections from ln until ctx is canceled or the listener
// is closed. Individual accept errors never stop the loop; each accepted
// connection runs in its own goroutine so a slow handler never delays the
// next accept.
func (s *Server) Serve(ctx context.Context, ln net.Listener) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		c, err := ln.Accept()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Temporary() {
				obs.Error("accept.temp", obs.Fields{"err": err.Error()})
				obs.ErrorsTotal.WithLabelValues("accept").Inc()
				s.stats.Failure("accept")
				continue
			}
			return
		}
		if s.limiter != nil && !s.limiter.Allow(remoteIP(c)) {
			obs.Warn("accept.ratelimited", obs.Fields{"remote": c.RemoteAddr().String()})
			obs.ErrorsTotal.WithLabelValues("ratelimit").Inc()
			_ = c.Close()
			continue
		}
		go s.handle(ctx, c)
	}
}

func remoteIP(c net.Conn) string {
	host, _, err := net.SplitHostPort(c.RemoteAddr().String())
	if err != nil {
		return c.RemoteAddr().String()
	}
	return host
}
