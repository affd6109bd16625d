package main

import (
	"flag"
	"os"
	"strconv"
)

// Config holds all runtime configuration. Every option is bindable from an
// environment variable; an explicit flag wins over the environment.
type Config struct {
	Listen            string
	Backend           string
	BackendServerName string
	CertFile          string
	KeyFile           string
	TimeoutMs         int
	BackendCAFile     string
	Insecure          bool
	MetricsAddr       string
	Debug             bool
	// Accept rate limiting (0 = disabled)
	ConnRate          int
	ConnRatePerSource int
	ConnBurst         int
	// Shared stats backend
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

var cfg Config

func envStr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// init registers flags into the global flag set. main() simply parses and uses cfg.
func init() {
	flag.StringVar(&cfg.Listen, "listen", envStr("RETLS_LISTEN", ""), "address to listen on")
	flag.StringVar(&cfg.Backend, "backend", envStr("RETLS_BACKEND", ""), "backend address to connect to; optional tls: or tcp: prefix")
	flag.StringVar(&cfg.BackendServerName, "backend-server-name", envStr("RETLS_BACKEND_SERVER_NAME", ""), "server name asserted for backend SNI and certificate validation")
	flag.StringVar(&cfg.CertFile, "cert", envStr("RETLS_CERT", ""), "server certificate chain file (PEM)")
	flag.StringVar(&cfg.KeyFile, "key", envStr("RETLS_KEY", ""), "server private key file (PEM)")
	flag.IntVar(&cfg.TimeoutMs, "timeout-ms", envInt("RETLS_TIMEOUT_MS", 30000), "backend dial plus handshake deadline in milliseconds")
	flag.StringVar(&cfg.BackendCAFile, "backend-ca", envStr("RETLS_BACKEND_CA", ""), "PEM file pinning backend trust anchors (default: system pool)")
	flag.BoolVar(&cfg.Insecure, "insecure", envBool("RETLS_INSECURE", false), "skip backend certificate verification")
	flag.StringVar(&cfg.MetricsAddr, "metrics", envStr("RETLS_METRICS", ":9100"), "metrics and health listen address; empty disables")
	flag.BoolVar(&cfg.Debug, "debug", envBool("RETLS_DEBUG", false), "enable debug logs")
	flag.IntVar(&cfg.ConnRate, "conn-rate", envInt("RETLS_CONN_RATE", 0), "global accepted connections per second; 0 disables")
	flag.IntVar(&cfg.ConnRatePerSource, "conn-rate-per-source", envInt("RETLS_CONN_RATE_PER_SOURCE", 0), "accepted connections per second per source address; 0 disables")
	flag.IntVar(&cfg.ConnBurst, "conn-burst", envInt("RETLS_CONN_BURST", 10), "burst size for connection rate limits")
	flag.StringVar(&cfg.RedisAddr, "redis", envStr("RETLS_REDIS", ""), "redis address for fleet-wide stats; empty uses in-memory")
	flag.StringVar(&cfg.RedisPassword, "redis-password", envStr("RETLS_REDIS_PASSWORD", ""), "redis password")
	flag.IntVar(&cfg.RedisDB, "redis-db", envInt("RETLS_REDIS_DB", 0), "redis database index")
	flag.Parse()
}
