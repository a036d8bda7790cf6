// Command rdoctl runs one Radio Controller process (§2): it sets up a
// monitor-mode virtual interface on the configured NIC, spawns the Tuner,
// and serves the Supervisor's control endpoint and the read-only
// diagnostics HTTP surface (§14) until it receives a "!STOP!" token.
//
// Per §5, this process ignores SIGINT/SIGTERM — shutdown is driven
// exclusively by the Supervisor's control endpoint, never by the OS.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"

	"github.com/radio-control/rdoctl/internal/api"
	"github.com/radio-control/rdoctl/internal/audit"
	"github.com/radio-control/rdoctl/internal/auth"
	"github.com/radio-control/rdoctl/internal/config"
	"github.com/radio-control/rdoctl/internal/controller"
	"github.com/radio-control/rdoctl/internal/nic/execnic"
	"github.com/radio-control/rdoctl/internal/nic/netlinknic"
	"github.com/radio-control/rdoctl/internal/rto"
	"github.com/radio-control/rdoctl/internal/supervisor"
	"github.com/radio-control/rdoctl/internal/telemetry"
)

func main() {
	signal.Ignore(syscall.SIGINT, syscall.SIGTERM)

	var (
		configPath = pflag.String("config", "", "path to a radio config YAML file")
		nicFlag    = pflag.String("nic", "", "wireless interface to control (overrides config)")
		roleFlag   = pflag.String("role", "", "Supervisor-facing role label (overrides config)")
		addrFlag   = pflag.String("addr", "", "diagnostics HTTP bind address (overrides config)")
	)
	pflag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
	logger.Info("starting rdoctl")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("config load failed", "err", err)
	}
	if *nicFlag != "" {
		cfg.Radio.NIC = *nicFlag
	}
	if *roleFlag != "" {
		cfg.Radio.Role = *roleFlag
	}
	if *addrFlag != "" {
		cfg.Diagnostics.Addr = *addrFlag
	}
	logger = logger.With("role", cfg.Radio.Role, "nic", cfg.Radio.NIC)

	auditLogger, err := audit.NewLogger(cfg.AuditDir)
	if err != nil {
		logger.Fatal("audit logger init failed", "err", err)
	}
	defer func() { _ = auditLogger.Close() }()

	// The default registry is the one promhttp.Handler() serves at /metrics.
	metrics := telemetry.NewMetrics(prometheus.DefaultRegisterer)
	hub := telemetry.NewHub(cfg.Diagnostics.EventBufferSize, cfg.Diagnostics.HeartbeatInterval, cfg.Diagnostics.HeartbeatJitter)
	defer hub.Stop()
	sink := rto.NewMultiSink(hub, metrics)

	var authMW *auth.Middleware
	if cfg.Auth.Algorithm != "" {
		verifier, err := auth.NewVerifier(auth.VerifierConfig{
			Algorithm:           cfg.Auth.Algorithm,
			PublicKeyPEM:        cfg.Auth.PublicKeyPEM,
			JWKSURL:             cfg.Auth.JWKSURL,
			SecretKey:           cfg.Auth.SecretKey,
			JWKSRefreshInterval: 15 * time.Minute,
			JWKSCacheTimeout:    15 * time.Minute,
		})
		if err != nil {
			logger.Fatal("auth verifier init failed", "err", err)
		}
		authMW = auth.NewMiddleware(verifier)
		logger.Info("diagnostics auth enabled", "algorithm", cfg.Auth.Algorithm)
	} else {
		logger.Warn("diagnostics auth disabled")
	}

	setupCtx, cancelSetup := context.WithTimeout(context.Background(), 30*time.Second)
	logger.Info("waiting for supervisor control connection", "addr", cfg.ControlAddr, "path", cfg.ControlPath)
	endpoint, err := supervisor.ListenAndAccept(setupCtx, cfg.ControlAddr, cfg.ControlPath)
	cancelSetup()
	if err != nil {
		logger.Fatal("supervisor did not connect", "err", err)
	}
	logger.Info("supervisor connected")

	ops := netlinknic.New(execnic.New())

	ctrlCfg := controller.Config{
		Role: cfg.Radio.Role, NIC: cfg.Radio.NIC, DwellSeconds: cfg.Radio.DwellSeconds,
		Scan: cfg.Radio.Scan, Pass: cfg.Radio.Pass, ScanStart: cfg.Radio.ScanStart,
		Paused: cfg.Radio.Paused, Spoofed: cfg.Radio.Spoofed,
		Antennas: cfg.Radio.Antennas, Desc: cfg.Radio.Desc,
	}

	ctl, err := controller.Setup(context.Background(), ctrlCfg, ops, endpoint, sink, cfg.FrameReadTimeout, auditLogger)
	if err != nil {
		logger.Fatal("controller setup failed", "err", err)
	}
	logger.Info("controller ready", "vnic", ctl.VNIC())

	apiServer := api.NewServer(ctl, hub, authMW, cfg.Diagnostics.ReadTimeout, cfg.Diagnostics.WriteTimeout, cfg.Diagnostics.IdleTimeout)
	go func() {
		if err := apiServer.Start(cfg.Diagnostics.Addr); err != nil {
			logger.Error("diagnostics server stopped", "err", err)
		}
	}()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = apiServer.Stop(ctx)
	}()

	// Run blocks until the Supervisor sends "!STOP!" or the Frame Socket
	// fails irrecoverably; the OS signal channel is never consulted (§5).
	ctl.Run(context.Background())

	logger.Info("controller stopped", "vnic", ctl.VNIC())
	fmt.Fprintln(os.Stderr, "rdoctl exiting")
}
