package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/carlmjohnson/flowmatic"
	"github.com/forest-army/faucet-claimer/pkg/api"
	"github.com/forest-army/faucet-claimer/pkg/auth"
	"github.com/forest-army/faucet-claimer/pkg/claimer"
	"github.com/forest-army/faucet-claimer/pkg/collector"
	"github.com/forest-army/faucet-claimer/pkg/config"
	"github.com/forest-army/faucet-claimer/pkg/faucet"
	"github.com/forest-army/faucet-claimer/pkg/logger"
	"github.com/forest-army/faucet-claimer/pkg/prompt"
	"github.com/forest-army/faucet-claimer/pkg/report"
	"github.com/forest-army/faucet-claimer/pkg/scheduler"
	"github.com/forest-army/faucet-claimer/pkg/validation"
	"github.com/forest-army/faucet-claimer/pkg/version"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap/zapcore"

	httpfiber "github.com/forest-army/faucet-claimer/pkg/server/http"
)

const title = "Incentiv Testnet - FOREST ARMY"

var (
	cfgPath     = flag.String("config", "config.yaml", "path to the config file (optional)")
	envPath     = flag.String("env", ".env", "path to the .env file (optional)")
	showVersion = flag.Bool("version", false, "print version information")
	modeFlag    = flag.String("mode", "", "flow to run without prompting: existing or batch")
	countFlag   = flag.Int("count", 0, "number of wallets for the batch flow")
)

func main() {
	flag.Parse()

	if *showVersion {
		versionInfo := version.GetVersion()
		versionJSON, _ := json.Marshal(versionInfo)
		fmt.Println(string(versionJSON))
		return
	}

	os.Exit(run())
}

func run() int {
	rep := report.Stdout()

	if err := config.LoadDotEnv(*envPath); err != nil {
		rep.Stamp("Fatal error: %v", err)
		return 1
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		rep.Stamp("Fatal error: %v", err)
		return 1
	}

	// An invalid level is reported by validation below.
	level := cfg.Global.LogLevel
	if _, err := zapcore.ParseLevel(level); err != nil {
		level = "info"
	}
	if _, err := logger.NewLogger("zap", level); err != nil {
		rep.Stamp("Fatal error: failed to init logger: %v", err)
		return 1
	}
	defer logger.Sync()

	// Validate configuration before any network operations
	if err := validation.NewConfigValidator().ValidateConfig(cfg); err != nil {
		rep.Line("Error: %v", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	runID := uuid.NewString()
	ctx = logger.WithRunID(ctx, runID)
	logger.InfoContext(ctx, "configuration loaded", "config", *cfgPath, "base_url", cfg.API.BaseURL, "version", version.GetVersion().String())

	prompter := prompt.New(os.Stdin, os.Stdout)
	prompter.Banner(title, cfg.Wallet.PrivateKeyEnv)

	preset := prompt.Selection{Count: *countFlag}
	if *modeFlag != "" {
		if preset.Mode, err = prompt.ParseMode(*modeFlag); err != nil {
			rep.Line("Error: %s", errorMessage(err))
			return 1
		}
	}
	selection, err := prompter.Select(preset)
	if err != nil {
		rep.Line("Error: %s", errorMessage(err))
		return 1
	}

	apiClient := api.NewClient(cfg.API.BaseURL, cfg.API.Timeout,
		api.WithHeaders(cfg.API.Headers),
		api.WithProviderType(cfg.API.ProviderType),
		api.WithUserAgent(cfg.API.UserAgent),
		api.WithRateLimit(cfg.API.RequestsPerSecond),
	)

	constLabels := prometheus.Labels{"environment": cfg.Global.Environment}
	var metricsOpts []collector.MetricsOption
	opts := claimer.FromConfig(cfg)

	if cfg.BalanceEnabled() {
		evm, err := collector.NewEVMCollector(ctx, cfg.Chain.RPCURL, cfg.Chain.Unit, cfg.API.Timeout)
		if err != nil {
			logger.Warnf("balance lookups disabled: %v", err)
		} else {
			defer evm.Close()
			opts = append(opts, claimer.WithBalanceReader(evm))
			metricsOpts = append(metricsOpts, collector.WithBalances(
				collector.NewBalanceCollector(evm, cfg.Chain.Unit, constLabels, collector.WithCollectorTimeout(cfg.API.Timeout)),
			))
		}
	}

	metrics := collector.NewClaimMetrics(constLabels, metricsOpts...)
	opts = append(opts, claimer.WithObserver(metrics))

	cooldown := scheduler.NewCooldown(scheduler.MultiReporter(rep, metrics))
	orchestrator := claimer.New(auth.NewClient(apiClient), faucet.NewClient(apiClient), cooldown, rep, opts...)

	var (
		result *claimer.BatchResult
		runErr error
	)
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	tasks := []func(context.Context) error{
		func(ctx context.Context) error {
			defer cancel()
			switch selection.Mode {
			case prompt.ModeBatch:
				result, runErr = orchestrator.RunBatch(ctx, selection.Count)
			default:
				runErr = orchestrator.RunExisting(ctx)
			}
			return nil
		},
	}

	if cfg.Global.MetricsAddr != "" {
		registry := prometheus.NewRegistry()
		if err := metrics.Register(registry); err != nil {
			rep.Stamp("Fatal error: failed to register metrics: %v", err)
			return 1
		}
		server := httpfiber.NewServer(cfg, httpfiber.WithRegistry(registry), httpfiber.WithRunID(runID))
		server.SetMode(selection.Mode.String())
		tasks = append(tasks, server.Run)
	}

	if err := flowmatic.All(runCtx, tasks...); err != nil {
		rep.Stamp("Fatal error: %v", err)
		return 1
	}

	return finish(ctx, rep, result, runErr)
}

// finish prints the closing lines and maps the flow outcome to an exit status.
func finish(ctx context.Context, rep *report.Reporter, result *claimer.BatchResult, runErr error) int {
	switch {
	case runErr == nil:
		claimer.ReportCompletion(rep, result)
		return 0
	case errors.Is(runErr, validation.ErrConfiguration):
		rep.Line("Error: %s", errorMessage(runErr))
		return 1
	case errors.Is(runErr, context.Canceled) && ctx.Err() != nil:
		rep.Stamp("Interrupted, shutting down")
		claimer.ReportCompletion(rep, result)
		return 0
	default:
		logger.ErrorContext(ctx, "run failed", "error", runErr)
		claimer.ReportCompletion(rep, result)
		return 1
	}
}

func errorMessage(err error) string {
	var verr validation.ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	return api.Message(err)
}
