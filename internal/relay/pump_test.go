package relay

import (
	"bytes"
	"io"
	"net"
	"testing"
)

// tcpPair returns two connected TCP endpoints so the pump sees real
// half-close semantics.
func tcpPair(t *testing.T) (net.Conn, net.Conn) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	ch := make(chan net.Conn, 1)
	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		ch <- c
	}()
	a, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	b := <-ch
	t.Cleanup(func() { _ = a.Close(); _ = b.Close() })
	return a, b
}

func TestPumpCountsAndHalfClose(t *testing.T) {
	clientSide, clientPeer := tcpPair(t)
	backendSide, backendPeer := tcpPair(t)

	done := make(chan [2]int64, 1)
	go func() {
		fromClient, fromBackend := pump(clientSide, backendSide)
		done <- [2]int64{fromClient, fromBackend}
	}()

	// Client sends 5 bytes then half-closes. The backend direction must
	// keep flowing until the backend also finishes.
	if _, err := clientPeer.Write([]byte("hello")); err != nil {
		t.Fatalf("client write: %v", err)
	}
	_ = clientPeer.(*net.TCPConn).CloseWrite()

	buf := make([]byte, 5)
	if _, err := io.ReadFull(backendPeer, buf); err != nil {
		t.Fatalf("backend read: %v", err)
	}
	if !bytes.Equal(buf, []byte("hello")) {
		t.Errorf("backend received %q, want hello", buf)
	}

	// Backend can still answer after the client half-closed.
	if _, err := backendPeer.Write([]byte("world!!")); err != nil {
		t.Fatalf("backend write: %v", err)
	}
	got := make([]byte, 7)
	if _, err := io.ReadFull(clientPeer, got); err != nil {
		t.Fatalf("client read after half-close: %v", err)
	}
	if !bytes.Equal(got, []byte("world!!")) {
		t.Errorf("client received %q, want world!!", got)
	}
	_ = backendPeer.(*net.TCPConn).CloseWrite()

	counts := <-done
	if counts[0] != 5 || counts[1] != 7 {
		t.Errorf("pump counted %v bytes, want [5 7]", counts)
	}
}
