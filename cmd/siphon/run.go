package main

import (
	"context"
	"fmt"
	"maps"
	"net/http"
	"os"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"siphon/pkg/ca"
	"siphon/pkg/capture"
	"siphon/pkg/cli"
	"siphon/pkg/config"
	"siphon/pkg/events"
	"siphon/pkg/injection"
	"siphon/pkg/server"
	"siphon/pkg/telemetry/health"
	"siphon/pkg/telemetry/logging"
	"siphon/pkg/telemetry/metrics"
	"siphon/pkg/telemetry/tracing"
	"siphon/pkg/upstream"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the siphon proxy server",
	Long: `Start the siphon proxy server with the specified configuration.

The server listens on the configured address, terminates TLS with a
per-SNI leaf certificate minted by the local certificate authority, and
forwards traffic upstream, rewriting eligible requests in flight.

Examples:
  # Start with default config
  siphon run

  # Start with custom config
  siphon run --config /etc/siphon/config.yaml

  # Override listen address
  siphon run --listen 0.0.0.0:8443

  # Validate config without starting the server
  siphon run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServer(cmd *cobra.Command, args []string) error {
	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.GetConfig()

	if runFlags.listenAddress != "" {
		cfg.Proxy.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}

	logger, err := logging.New(logging.Config{
		Level:     cfg.Telemetry.Logging.Level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
	})
	if err != nil {
		return cli.NewCommandError("run", fmt.Errorf("initializing logger: %w", err))
	}

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	logStartupBanner(cfg)

	authority, err := ca.LoadOrGenerateRoot(cfg.Proxy.CertDir)
	if err != nil {
		return cli.NewCommandError("run", fmt.Errorf("loading certificate authority: %w", err))
	}
	fmt.Printf("✓ Certificate authority ready (%s)\n", cfg.Proxy.CertDir)

	resolver := upstream.NewResolver()
	pool := upstream.NewPool(resolver)

	matcher := buildMatcher(cfg.Eligibility)

	injectionCfg := injection.NewConfig()
	injectionCfg.Update(snapshotFromInjectionConfig(cfg.Injection))
	engine := injection.NewEngine(injectionCfg, matcher, logger.Slog())

	capturer := capture.NewCapturer(matcher, logger.Slog())
	capturer.Configure(capture.Settings{
		Enabled:        cfg.Capture.Enabled,
		Directory:      cfg.Capture.Directory,
		MaxPayloadSize: int(cfg.Capture.MaxPayloadSize),
		RetentionDays:  cfg.Capture.RetentionDays,
	})

	broadcast := events.NewBroadcaster()

	collector := metrics.NewCollector(metrics.Config{
		Namespace:              cfg.Telemetry.Metrics.Namespace,
		Subsystem:              cfg.Telemetry.Metrics.Subsystem,
		RequestDurationBuckets: cfg.Telemetry.Metrics.RequestDurationBuckets,
	}, nil)

	tracer, err := tracing.New(&tracing.Config{
		Enabled:     cfg.Telemetry.Tracing.Enabled,
		ServiceName: cfg.Telemetry.Tracing.ServiceName,
		Sampler:     cfg.Telemetry.Tracing.Sampler,
		SampleRatio: cfg.Telemetry.Tracing.SampleRatio,
		Exporter:    cfg.Telemetry.Tracing.Exporter,
		Endpoint:    cfg.Telemetry.Tracing.Endpoint,
		OTLP: tracing.OTLPConfig{
			Insecure: cfg.Telemetry.Tracing.OTLP.Insecure,
			Timeout:  cfg.Telemetry.Tracing.OTLP.Timeout,
		},
	})
	if err != nil {
		return cli.NewCommandError("run", fmt.Errorf("initializing tracer: %w", err))
	}

	srv := server.NewServer(cfg.Proxy, authority, pool, engine, capturer, broadcast, collector, tracer, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var metricsServer *http.Server
	if cfg.Telemetry.Metrics.Enabled {
		metricsServer = newMetricsServer(cfg, authority, resolver, collector)
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Warn("metrics/health server stopped", "error", err)
			}
		}()
		fmt.Printf("✓ Metrics endpoint: http://%s%s\n", cfg.Telemetry.Metrics.Address, cfg.Telemetry.Metrics.Path)
		fmt.Printf("✓ Health endpoints: http://%s/healthz, /readyz\n", cfg.Telemetry.Metrics.Address)
	}

	reloader, err := config.NewInjectionReloader(cfgFile, cfg.Injection)
	if err != nil {
		logger.Warn("injection hot reload disabled", "error", err)
	} else {
		go reloader.Run(ctx)
		go watchInjectionReload(ctx, reloader, injectionCfg)
		defer reloader.Stop()
	}

	if cfg.Capture.Enabled && cfg.Capture.PruneSchedule != "" {
		scheduler := capture.NewScheduler(capturer, cfg.Capture.PruneSchedule, logger.Slog())
		if err := scheduler.Start(ctx); err != nil {
			logger.Warn("capture retention scheduler failed to start", "error", err)
		}
	}

	fmt.Println()
	fmt.Printf("✓ Proxy listening on %s\n", cfg.Proxy.ListenAddress)
	fmt.Printf("✓ Upstream: %s:%d\n", cfg.Proxy.UpstreamHost, cfg.Proxy.UpstreamPort)
	fmt.Println("\nPress Ctrl+C to stop")

	// Start owns the full lifecycle: it serves connections until ctx is
	// canceled or it catches SIGINT/SIGTERM itself, then shuts down and
	// returns. There is no separate signal wait here.
	runErr := srv.Start(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Proxy.ShutdownTimeout)
	defer shutdownCancel()
	if err := tracer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("tracer shutdown failed", "error", err)
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics/health server shutdown failed", "error", err)
		}
	}

	if runErr != nil {
		return cli.NewCommandError("run", runErr)
	}
	fmt.Println("✓ Server stopped")
	return nil
}

// buildMatcher converts the configured eligibility rules into an
// injection.Matcher, falling back to the hard-coded "Chat or Unified"
// default when no rules are configured.
func buildMatcher(cfg config.EligibilityConfig) *injection.Matcher {
	if len(cfg.Rules) == 0 {
		return injection.DefaultMatcher()
	}
	rules := make([]injection.Rule, 0, len(cfg.Rules))
	for _, r := range cfg.Rules {
		rules = append(rules, injection.Rule{
			Field:    injection.Field(r.Field),
			Operator: injection.Operator(r.Operator),
			Value:    r.Value,
		})
	}
	return injection.NewMatcher(rules...)
}

func snapshotFromInjectionConfig(cfg config.InjectionConfig) injection.Snapshot {
	return injection.Snapshot{
		Enabled:      cfg.Enabled,
		SystemPrompt: cfg.SystemPrompt,
		ContextFiles: cfg.ContextFiles,
		Headers:      cfg.Headers,
		SpoofVersion: cfg.SpoofVersion,
	}
}

// watchInjectionReload polls the hot-reloading InjectionConfig and pushes
// any change into the engine's runtime config. InjectionReloader already
// debounces the underlying fsnotify watch, so a short poll interval here only
// adds the latency of detecting that InjectionReloader.Current() moved.
func watchInjectionReload(ctx context.Context, reloader *config.InjectionReloader, injectionCfg *injection.Config) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	last := reloader.Current()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cur := reloader.Current()
			if cur.SystemPrompt != last.SystemPrompt ||
				cur.Enabled != last.Enabled ||
				cur.SpoofVersion != last.SpoofVersion ||
				!slices.Equal(cur.ContextFiles, last.ContextFiles) ||
				!maps.Equal(cur.Headers, last.Headers) {
				injectionCfg.Update(snapshotFromInjectionConfig(cur))
				last = cur
			}
		}
	}
}

// newMetricsServer builds the plain-HTTP server that exposes Prometheus
// metrics and the liveness/readiness/version endpoints alongside each
// other. It listens on cfg.Telemetry.Metrics.Address, which is distinct
// from cfg.Proxy.ListenAddress since that address serves TLS-terminated
// proxy traffic, not plain HTTP.
func newMetricsServer(cfg *config.Config, authority *ca.Authority, resolver *upstream.Resolver, collector *metrics.Collector) *http.Server {
	checker := health.New(5 * time.Second)

	checker.RegisterCheck("ca", func(ctx context.Context) error {
		if authority == nil || authority.RootCertificate() == nil {
			return fmt.Errorf("certificate authority not loaded")
		}
		return nil
	})

	checker.RegisterCheck("upstream", func(ctx context.Context) error {
		_, err := resolver.Resolve(ctx, cfg.Proxy.UpstreamHost)
		return err
	})

	if cfg.Capture.Enabled {
		checker.RegisterCheck("capture", func(ctx context.Context) error {
			info, err := os.Stat(cfg.Capture.Directory)
			if err != nil {
				return err
			}
			if !info.IsDir() {
				return fmt.Errorf("%s is not a directory", cfg.Capture.Directory)
			}
			return nil
		})
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
	health.HTTPMiddleware(mux, checker, Version, GitCommit, BuildDate)

	return &http.Server{
		Addr:    cfg.Telemetry.Metrics.Address,
		Handler: mux,
	}
}

func logStartupBanner(cfg *config.Config) {
	fmt.Printf("siphon v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)
	fmt.Println("✓ Configuration loaded")

	if cfg.Injection.Enabled {
		fmt.Printf("✓ Injection enabled (%d context file(s))\n", len(cfg.Injection.ContextFiles))
	} else {
		fmt.Println("- Injection disabled")
	}

	if cfg.Capture.Enabled {
		fmt.Printf("✓ Capture enabled -> %s (retention %dd)\n", cfg.Capture.Directory, cfg.Capture.RetentionDays)
	} else {
		fmt.Println("- Capture disabled")
	}
}
