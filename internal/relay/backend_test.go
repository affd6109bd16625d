package relay

import (
	"testing"
	"time"
)

func TestParseBackendAddr(t *testing.T) {
	cases := []struct {
		in        string
		addr      string
		plaintext bool
		wantErr   bool
	}{
		{in: "backend.internal:8443", addr: "backend.internal:8443"},
		{in: "tls:backend.internal:8443", addr: "backend.internal:8443"},
		{in: "tcp:10.0.0.5:5432", addr: "10.0.0.5:5432", plaintext: true},
		{in: "tcp:", wantErr: true},
	}
	for _, c := range cases {
		addr, plaintext, err := ParseBackendAddr(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("ParseBackendAddr(%q): expected error", c.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseBackendAddr(%q): %v", c.in, err)
			continue
		}
		if addr != c.addr || plaintext != c.plaintext {
			t.Errorf("ParseBackendAddr(%q) = (%q, %v), want (%q, %v)", c.in, addr, plaintext, c.addr, c.plaintext)
		}
	}
}

func TestConnectTimeoutDefault(t *testing.T) {
	target := &BackendTarget{Addr: "backend.internal:8443"}
	if got := target.connectTimeout(); got != DefaultConnectTimeout {
		t.Errorf("connectTimeout() = %v, want %v", got, DefaultConnectTimeout)
	}
	target.ConnectTimeout = 250 * time.Millisecond
	if got := target.connectTimeout(); got != 250*time.Millisecond {
		t.Errorf("connectTimeout() = %v, want 250ms", got)
	}
}
