package observability

import (
	"context"
	"testing"

	"github.com/riskibarqy/playerlink/internal/config"
	"github.com/riskibarqy/playerlink/internal/platform/logging"
)

func TestInitUptrace_Disabled(t *testing.T) {
	cfg := config.Config{
		UptraceEnabled: false,
		ServiceName:    "playerlink",
		ServiceVersion: "dev",
		AppEnv:         config.EnvDev,
	}

	shutdown, err := InitUptrace(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("init uptrace: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown uptrace: %v", err)
	}
}

func TestInitUptrace_EnabledWithoutDSNIsNoop(t *testing.T) {
	cfg := config.Config{UptraceEnabled: true, ServiceName: "playerlink", AppEnv: config.EnvDev}

	shutdown, err := InitUptrace(cfg, nil)
	if err != nil {
		t.Fatalf("init uptrace: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown uptrace: %v", err)
	}
}

func TestInitPyroscope_Disabled(t *testing.T) {
	stop, err := InitPyroscope(config.Config{}, logging.NewNop())
	if err != nil {
		t.Fatalf("init pyroscope: %v", err)
	}
	if err := stop(); err != nil {
		t.Fatalf("stop pyroscope: %v", err)
	}
}

func TestStartPprofServer_Disabled(t *testing.T) {
	srv, err := StartPprofServer(config.Config{}, logging.NewNop())
	if err != nil {
		t.Fatalf("start pprof: %v", err)
	}
	if srv != nil {
		t.Fatalf("expected nil server when pprof is disabled")
	}
	if err := StopPprofServer(srv, nil, 0); err != nil {
		t.Fatalf("stop pprof: %v", err)
	}
}
