package main

import (
	"context"
	"crypto/x509"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/matst80/retls/internal/obs"
	"github.com/matst80/retls/internal/ratelimit"
	"github.com/matst80/retls/internal/relay"
	"github.com/matst80/retls/internal/stats"
)

func main() {
	if cfg.Debug {
		obs.EnableDebug(true)
	}
	if err := validateConfig(); err != nil {
		obs.Error("config.invalid", obs.Fields{"err": err.Error()})
		os.Exit(1)
	}
	obs.Info("server.start", obs.Fields{"listen": cfg.Listen, "backend": cfg.Backend, "metrics": cfg.MetricsAddr})

	identity, err := relay.LoadServerIdentity(cfg.CertFile, cfg.KeyFile)
	if err != nil {
		obs.Error("identity.load", obs.Fields{"err": err.Error(), "cert": cfg.CertFile, "key": cfg.KeyFile})
		os.Exit(1)
	}

	target, err := buildTarget()
	if err != nil {
		obs.Error("backend.config", obs.Fields{"err": err.Error(), "backend": cfg.Backend})
		os.Exit(1)
	}

	store, err := stats.NewStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		obs.Error("stats.init", obs.Fields{"err": err.Error()})
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var limiter *ratelimit.ConnLimiter
	if cfg.ConnRate > 0 || cfg.ConnRatePerSource > 0 {
		limiter = ratelimit.NewConnLimiter(cfg.ConnRate, cfg.ConnRatePerSource, cfg.ConnBurst)
		go runLimiterSweep(ctx, limiter)
	}

	ln, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		obs.Error("listen.bind", obs.Fields{"err": err.Error(), "addr": cfg.Listen})
		os.Exit(1)
	}
	defer ln.Close()
	obs.Info("listen.bound", obs.Fields{"addr": ln.Addr().String()})

	if cfg.MetricsAddr != "" {
		go startMetricsServer(cfg.MetricsAddr, store)
	}

	srv := relay.New(identity, target, store, limiter)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() { defer wg.Done(); srv.Serve(ctx, ln) }()

	store.SetReady(true)
	obs.Info("server.ready", obs.Fields{})

	<-ctx.Done()
	obs.Info("server.shutdown.signal", obs.Fields{})
	store.SetClosing(true)
	_ = ln.Close()
	wg.Wait()
	obs.Info("server.shutdown.complete", obs.Fields{})
}

func validateConfig() error {
	switch {
	case cfg.Listen == "":
		return fmt.Errorf("listen address is required")
	case cfg.Backend == "":
		return fmt.Errorf("backend address is required")
	case cfg.CertFile == "":
		return fmt.Errorf("cert file is required")
	case cfg.KeyFile == "":
		return fmt.Errorf("key file is required")
	}
	return nil
}

func buildTarget() (*relay.BackendTarget, error) {
	addr, plaintext, err := relay.ParseBackendAddr(cfg.Backend)
	if err != nil {
		return nil, err
	}
	if !plaintext && cfg.BackendServerName == "" && !cfg.Insecure {
		return nil, fmt.Errorf("backend server name is required for TLS backends")
	}
	var roots *x509.CertPool
	if cfg.BackendCAFile != "" {
		pemData, err := os.ReadFile(cfg.BackendCAFile)
		if err != nil {
			return nil, fmt.Errorf("read backend CA file: %w", err)
		}
		roots = x509.NewCertPool()
		if !roots.AppendCertsFromPEM(pemData) {
			return nil, fmt.Errorf("no certificates found in %s", cfg.BackendCAFile)
		}
	}
	return &relay.BackendTarget{
		Addr:               addr,
		ServerName:         cfg.BackendServerName,
		ConnectTimeout:     time.Duration(cfg.TimeoutMs) * time.Millisecond,
		RootCAs:            roots,
		InsecureSkipVerify: cfg.Insecure,
		Plaintext:          plaintext,
	}, nil
}

func runLimiterSweep(ctx context.Context, limiter *ratelimit.ConnLimiter) {
	t := time.NewTicker(time.Minute)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if removed := limiter.SweepIdle(10 * time.Minute); removed > 0 {
				obs.Debug("ratelimit.sweep", obs.Fields{"removed": removed})
			}
		}
	}
}
