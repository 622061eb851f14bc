// Package main provides the demo entry point for the call backtesting
// kernel: load a JSON fixture of calls and candles, run the optimizer
// per caller, and print a ranked summary table.
//
// This command is not part of the kernel's contract — nothing under
// internal/executor, internal/scorer, internal/validation, or
// internal/optimizer imports it. It exists so the repository has a
// runnable entry point, the way the rest of the retrieval pack does.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/atlas-desktop/callbacktest/internal/config"
	"github.com/atlas-desktop/callbacktest/internal/fixtures"
	"github.com/atlas-desktop/callbacktest/internal/optimizer"
	"github.com/atlas-desktop/callbacktest/internal/pathmetrics"
	"github.com/atlas-desktop/callbacktest/internal/policy"
	"github.com/atlas-desktop/callbacktest/internal/telemetry"
	"github.com/atlas-desktop/callbacktest/pkg/types"
)

func main() {
	fixturePath := flag.String("data", "", "Path to a JSON fixture of calls and candles (required)")
	configPath := flag.String("config", "", "Path to a YAML config file overriding constraint/fee/objective defaults")
	workers := flag.Int("workers", 0, "Worker pool size (0 uses the config default)")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	logger := setupLogger(*logLevel)
	defer logger.Sync()

	if err := run(logger, *fixturePath, *configPath, *workers); err != nil {
		logger.Fatal("backtest failed", zap.Error(err))
	}
}

func run(logger *zap.Logger, fixturePath, configPath string, workers int) error {
	if fixturePath == "" {
		return fmt.Errorf("-data is required")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if workers <= 0 {
		workers = cfg.Workers
	}

	logger.Info("loading fixture", zap.String("path", fixturePath))
	dataset, err := fixtures.Load(fixturePath)
	if err != nil {
		return err
	}
	logger.Info("fixture loaded", zap.Int("calls", len(dataset.Calls)))

	pmOpts := types.DefaultPathMetricsOptions()
	pathMetrics := make(map[string]types.PathMetrics, len(dataset.Calls))
	for _, c := range dataset.Calls {
		pm, err := pathmetrics.Compute(c.ID, dataset.CandlesByCall[c.ID], c.CreatedAtMs, pmOpts)
		if err != nil {
			logger.Warn("path metrics failed, excluding call", zap.String("call_id", c.ID), zap.Error(err))
			continue
		}
		pathMetrics[c.ID] = pm
	}

	optCfg := types.DefaultOptimizerConfig()
	optCfg.Constraints = cfg.AsConstraints()
	optCfg.Fees = cfg.AsFees()
	optCfg.Objective = cfg.AsObjective()
	optCfg.PathMetrics = pathMetrics

	metrics := telemetry.New()

	start := time.Now()
	results, err := optimizer.RunPerCaller(logger, dataset.Calls, dataset, optCfg, workers, metrics)
	if err != nil {
		return fmt.Errorf("run optimizer: %w", err)
	}
	logger.Info("optimizer finished", zap.Duration("elapsed", time.Since(start)), zap.Int("callers", len(results)))

	printSummary(results)
	return nil
}

func printSummary(results map[string]types.OptimizationResult) {
	callers := make([]string, 0, len(results))
	for caller := range results {
		callers = append(callers, caller)
	}
	sort.Strings(callers)

	for _, caller := range callers {
		res := results[caller]
		fmt.Printf("\n=== caller: %s ===\n", caller)
		fmt.Printf("policies evaluated: %d, feasible: %d\n", res.PoliciesEvaluated, res.FeasiblePolicies)
		if res.BestPolicy == nil {
			fmt.Println("no feasible policy found")
			continue
		}
		best := res.BestPolicy
		fmt.Printf("best policy: %s  kind=%s  score=%.4f  feasible=%v\n",
			policy.ID(best.Policy), best.Policy.Kind(), best.TrainScore.Score, best.TrainScore.ConstraintsSatisfied)
		if best.ValidationScore != nil {
			fmt.Printf("  validation score=%.4f  feasible=%v\n", best.ValidationScore.Score, best.ValidationScore.ConstraintsSatisfied)
		}
		if best.Overfitting != nil {
			fmt.Printf("  overfitting severity=%s gap=%.4f\n", best.Overfitting.Severity, best.Overfitting.ScoreGap)
		}
	}
}

func setupLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
