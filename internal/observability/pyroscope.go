package observability

import (
	"github.com/cockroachdb/errors"
	"github.com/grafana/pyroscope-go"

	"github.com/riskibarqy/playerlink/internal/config"
	"github.com/riskibarqy/playerlink/internal/platform/logging"
)

// Name normalisation and fuzzy matching dominate CPU and allocations during a
// reconcile run; the worker pools show up in the goroutine profile.
var profiledTypes = []pyroscope.ProfileType{
	pyroscope.ProfileCPU,
	pyroscope.ProfileAllocObjects,
	pyroscope.ProfileAllocSpace,
	pyroscope.ProfileInuseSpace,
	pyroscope.ProfileGoroutines,
}

// InitPyroscope starts continuous profiling when enabled and returns the stop function.
func InitPyroscope(cfg config.Config, logger *logging.Logger) (func() error, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if !cfg.PyroscopeEnabled {
		logger.Debug("pyroscope disabled", "reason", "PYROSCOPE_ENABLED=false")
		return func() error { return nil }, nil
	}

	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName:   cfg.PyroscopeAppName,
		ServerAddress:     cfg.PyroscopeServerAddress,
		AuthToken:         cfg.PyroscopeAuthToken,
		BasicAuthUser:     cfg.PyroscopeBasicAuthUser,
		BasicAuthPassword: cfg.PyroscopeBasicAuthPassword,
		UploadRate:        cfg.PyroscopeUploadRate,
		Tags:              profileTags(cfg),
		ProfileTypes:      profiledTypes,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "start pyroscope profiler for %s", cfg.PyroscopeAppName)
	}

	logger.Info("pyroscope enabled", "server_address", cfg.PyroscopeServerAddress, "application", cfg.PyroscopeAppName)
	return profiler.Stop, nil
}

func profileTags(cfg config.Config) map[string]string {
	tags := map[string]string{
		"env":     cfg.AppEnv,
		"service": cfg.ServiceName,
	}
	if cfg.ServiceVersion != "" {
		tags["version"] = cfg.ServiceVersion
	}
	return tags
}
