package main

import (
	"context"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-stats/engine"
	"github.com/wippyai/wasm-stats/errors"
	"github.com/wippyai/wasm-stats/report"
	"github.com/wippyai/wasm-stats/stats"
)

// runBatch reports every path in order. A failing file does not stop the
// rest; all failures come back together as a BatchError.
func runBatch(ctx context.Context, cfg config, paths []string, w io.Writer, log *zap.Logger) error {
	var checker *engine.WazeroEngine
	if cfg.EngineCheck {
		e, err := engine.NewWazeroEngine(ctx)
		if err != nil {
			return errors.Wrap(errors.PhaseEngine, errors.KindInvalidInput, err, "create engine")
		}
		defer e.Close(ctx)
		checker = e
	}

	errs := make([]error, len(paths))
	for i, path := range paths {
		errs[i] = reportFile(ctx, cfg, checker, path, w)
		if errs[i] != nil {
			log.Warn("module failed", zap.String("path", path), zap.Error(errs[i]))
		}
	}

	if batch := errors.NewBatchError(paths, errs); batch != nil {
		return batch
	}
	return nil
}

// result is the analysis of one file, plus the engine report when a
// cross-check ran.
type result struct {
	stats  *stats.Stats
	engine *engine.Report
}

func analyzeFile(ctx context.Context, cfg config, checker *engine.WazeroEngine, path string) (*result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Load(path, err)
	}

	s, err := stats.Analyze(data, stats.WithWorkers(cfg.Workers), stats.WithStrict(cfg.Strict))
	if err != nil {
		return nil, err
	}
	res := &result{stats: s}

	if checker != nil {
		r, err := checker.Check(ctx, data, s)
		if err != nil {
			return nil, err
		}
		res.engine = r
	}
	return res, nil
}

func reportFile(ctx context.Context, cfg config, checker *engine.WazeroEngine, path string, w io.Writer) error {
	res, err := analyzeFile(ctx, cfg, checker, path)
	if err != nil {
		return err
	}

	if cfg.Format == formatText {
		if err := report.Text(w, path, res.stats); err != nil {
			return err
		}
		if res.engine != nil {
			return report.EngineText(w, res.engine)
		}
		return nil
	}

	if err := report.JSON(w, res.stats, cfg.Indent); err != nil {
		return err
	}
	if res.engine != nil {
		return report.EngineJSON(w, res.engine, cfg.Indent)
	}
	return nil
}
