package optimizer

import (
	"sync"

	"go.uber.org/zap"

	"github.com/atlas-desktop/callbacktest/internal/executor"
	"github.com/atlas-desktop/callbacktest/internal/telemetry"
	"github.com/atlas-desktop/callbacktest/internal/workers"
	"github.com/atlas-desktop/callbacktest/pkg/types"
)

// evaluatePolicy runs the Execution Engine for pol against every call in
// calls, fanned out across a bounded worker pool (spec.md §5: the
// optimizer is embarrassingly parallel across policy × call, but the
// aggregation step must be single-threaded or commutative). Each worker
// writes into its own slot of a preallocated slice, so no locking is
// needed on the hot path; results are filtered and reduced on the
// calling goroutine once every worker has reported in.
//
// The pool itself is the teacher's internal/workers.Pool, adapted here
// from its streaming task-queue role to a single bounded batch: each
// (policy, call) pair is submitted with SubmitWait from its own
// goroutine, so pool concurrency (not goroutine count) is what bounds
// how many executions run at once.
func evaluatePolicy(
	logger *zap.Logger,
	pool *workers.Pool,
	calls []types.Call,
	candlesByCall map[string][]types.Candle,
	t0ByCall map[string]int64,
	pol types.RiskPolicy,
	fees types.Fees,
	metrics *telemetry.Metrics,
) []types.PolicyResult {
	raw := make([]types.PolicyResult, len(calls))
	errs := make([]error, len(calls))

	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(idx int, c types.Call) {
			defer wg.Done()
			candles := candlesByCall[c.ID]
			t0 := t0ByCall[c.ID]
			err := pool.SubmitWait(workers.TaskFunc(func() error {
				res, execErr := executor.Execute(c.ID, candles, t0, pol, fees)
				raw[idx] = res
				return execErr
			}))
			errs[idx] = err
		}(i, call)
	}
	wg.Wait()

	results := make([]types.PolicyResult, 0, len(raw))
	for i, r := range raw {
		if errs[i] != nil {
			logger.Warn("policy evaluation failed for call, skipping",
				zap.String("call_id", calls[i].ID),
				zap.Error(errs[i]),
			)
			if metrics != nil {
				metrics.IncCallEvaluated("error")
			}
			continue
		}
		if r.ExitReason == types.ExitNoEntry {
			if metrics != nil {
				metrics.IncCallEvaluated("no_entry")
			}
			continue
		}
		if metrics != nil {
			metrics.IncCallEvaluated("ok")
			metrics.IncExitReason(string(r.ExitReason))
		}
		results = append(results, r)
	}
	return results
}

func newEvalPool(logger *zap.Logger, workerCount int) *workers.Pool {
	cfg := workers.DefaultPoolConfig("policy-optimizer")
	if workerCount > 0 {
		cfg.NumWorkers = workerCount
	}
	pool := workers.NewPool(logger, cfg)
	pool.Start()
	return pool
}
