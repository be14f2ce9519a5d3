package observability

import (
	"context"
	"strings"

	"github.com/uptrace/uptrace-go/uptrace"

	"github.com/riskibarqy/playerlink/internal/config"
	"github.com/riskibarqy/playerlink/internal/platform/logging"
)

// InitUptrace installs the global OpenTelemetry providers and, when log export is on,
// mirrors logger entries to Uptrace. The returned shutdown flushes pending spans.
func InitUptrace(cfg config.Config, logger *logging.Logger) (func(context.Context) error, error) {
	if logger == nil {
		logger = logging.Default()
	}
	logging.SetMirror(nil)

	dsn := strings.TrimSpace(cfg.UptraceDSN)
	if !cfg.UptraceEnabled || dsn == "" {
		logger.Debug("uptrace disabled", "enabled", cfg.UptraceEnabled, "dsn_set", dsn != "")
		return func(context.Context) error { return nil }, nil
	}

	uptrace.ConfigureOpentelemetry(
		uptrace.WithDSN(dsn),
		uptrace.WithServiceName(cfg.ServiceName),
		uptrace.WithServiceVersion(cfg.ServiceVersion),
		uptrace.WithDeploymentEnvironment(cfg.AppEnv),
		uptrace.WithLoggingEnabled(cfg.UptraceLogsEnabled),
	)
	if cfg.UptraceLogsEnabled {
		logging.SetMirror(newUptraceLogMirror(cfg.ServiceVersion))
	}
	logger.Info("uptrace enabled", "service", cfg.ServiceName, "env", cfg.AppEnv, "logs_mirrored", cfg.UptraceLogsEnabled)

	return func(ctx context.Context) error {
		logging.SetMirror(nil)
		return uptrace.Shutdown(ctx)
	}, nil
}
