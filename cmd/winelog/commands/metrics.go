package commands

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// serveMetrics exposes the Prometheus registry on addr until ctx ends or the
// returned stop function is called.
// serveMetrics 在 addr 上提供 Prometheus 指标。
func serveMetrics(ctx context.Context, addr string) (net.Addr, func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() { _ = srv.Serve(ln) }()

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		shutdownCtx, release := context.WithTimeout(context.Background(), 2*time.Second)
		defer release()
		_ = srv.Shutdown(shutdownCtx)
	}()

	stop := func() {
		cancel()
		<-done
	}
	return ln.Addr(), stop, nil
}
