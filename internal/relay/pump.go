package relay

import (
	"io"
	"net"
	"sync"

	"github.com/matst80/retls/internal/obs"
)

// closeWriter is the optional half-close capability of a stream. Both
// *net.TCPConn and *tls.Conn provide it.
type closeWriter interface {
	CloseWrite() error
}

// pump moves bytes between the two established plaintext streams until both
// directions have finished. Each direction is an independent goroutine; when
// one side reaches EOF its destination's write half is closed so the other
// direction can keep draining (drain-then-close). Destinations without
// CloseWrite are fully closed instead, which collapses both directions.
// Returns the byte counts per direction.
func pump(client, backend net.Conn) (fromClient, fromBackend int64) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		fromClient = pumpOne(backend, client, "client_to_backend")
	}()
	go func() {
		defer wg.Done()
		fromBackend = pumpOne(client, backend, "backend_to_client")
	}()
	wg.Wait()
	return fromClient, fromBackend
}

func pumpOne(dst, src net.Conn, direction string) int64 {
	n, err := io.Copy(dst, src)
	obs.RelayBytesTotal.WithLabelValues(direction).Add(float64(n))
	if err != nil {
		obs.Debug("relay.copy", obs.Fields{"direction": direction, "err": err.Error()})
		obs.ErrorsTotal.WithLabelValues("relay").Inc()
	}
	if cw, ok := dst.(closeWriter); ok {
		_ = cw.CloseWrite()
	} else {
		_ = dst.Close()
	}
	return n
}
