package observability

import (
	"context"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/riskibarqy/playerlink/internal/config"
	"github.com/riskibarqy/playerlink/internal/platform/logging"
)

var pprofRoutes = map[string]http.HandlerFunc{
	"/debug/pprof/":        pprof.Index,
	"/debug/pprof/cmdline": pprof.Cmdline,
	"/debug/pprof/profile": pprof.Profile,
	"/debug/pprof/symbol":  pprof.Symbol,
	"/debug/pprof/trace":   pprof.Trace,
}

// StartPprofServer serves the runtime profiling endpoints on their own listener, away from
// /metrics. A long reconcile backfill is the usual reason to turn it on. Returns nil when
// disabled.
func StartPprofServer(cfg config.Config, logger *logging.Logger) (*http.Server, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if !cfg.PprofEnabled {
		logger.Debug("pprof disabled", "reason", "PPROF_ENABLED=false")
		return nil, nil
	}

	mux := http.NewServeMux()
	for path, handler := range pprofRoutes {
		mux.Handle(path, handler)
	}
	srv := &http.Server{Addr: cfg.PprofAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	log := logger.Named("pprof")
	go func() {
		log.Info("pprof server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Error("pprof server failed", "addr", srv.Addr, "error", err)
		}
	}()
	return srv, nil
}

// StopPprofServer is a no-op for a nil server.
func StopPprofServer(srv *http.Server, logger *logging.Logger, timeout time.Duration) error {
	if srv == nil {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "shutdown pprof server")
	}
	logger.Named("pprof").Info("pprof server stopped", "addr", srv.Addr)
	return nil
}
