package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"proof-of-portfolio/internal/config"
	"proof-of-portfolio/internal/domain"
	"proof-of-portfolio/internal/engine"
	"proof-of-portfolio/internal/logger"
	"proof-of-portfolio/internal/metrics"
	"proof-of-portfolio/internal/observability"
	"proof-of-portfolio/internal/snapshot"
	"proof-of-portfolio/internal/storage"
	chstore "proof-of-portfolio/internal/storage/clickhouse"
	"proof-of-portfolio/internal/storage/memory"
	pgstore "proof-of-portfolio/internal/storage/postgres"
)

// app holds what every command needs: settings, logger, stores and engine.
type app struct {
	rt      *config.Runtime
	cfg     config.Engine
	log     *logger.Logger
	metrics *observability.Metrics

	evaluations  storage.EvaluationStore
	commitments  storage.CommitmentStore
	dailyReturns storage.DailyReturnStore

	evaluator *engine.Evaluator
	closers   []func()
}

func newApp(ctx context.Context) (*app, error) {
	rt, err := config.LoadRuntime()
	if err != nil {
		return nil, err
	}
	if storeBackend != "" {
		rt.StoreBackend = storeBackend
	}

	a := &app{
		rt:      rt,
		log:     logger.New(logger.Options{Level: rt.LogLevel, Format: rt.LogFormat, Component: "pop"}),
		metrics: observability.DefaultMetrics,
	}

	path := configFile
	if path == "" {
		path = rt.EngineConfigPath
	}
	a.cfg = config.Default()
	if path != "" {
		if a.cfg, err = config.LoadFile(path); err != nil {
			return nil, err
		}
	}

	if err := a.openStores(ctx); err != nil {
		a.Close()
		return nil, err
	}

	a.evaluator, err = engine.New(engine.Options{
		Config:           a.cfg,
		EvaluationStore:  a.evaluations,
		CommitmentStore:  a.commitments,
		DailyReturnStore: a.dailyReturns,
		Logger:           a.log,
		Metrics:          a.metrics,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	a.log.WithFields(map[string]interface{}{
		"store":       rt.StoreBackend,
		"fingerprint": a.cfg.Fingerprint(),
	}).Debug("engine ready")
	return a, nil
}

func (a *app) openStores(ctx context.Context) error {
	switch a.rt.StoreBackend {
	case "memory":
		a.evaluations = memory.NewEvaluationStore()
		a.commitments = memory.NewCommitmentStore()
		a.dailyReturns = memory.NewDailyReturnStore()
		return nil
	case "postgres":
	default:
		return fmt.Errorf("unknown store backend %q (want memory|postgres)", a.rt.StoreBackend)
	}

	pool, err := pgstore.NewPool(ctx, a.rt.PostgresDSN)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	a.closers = append(a.closers, pool.Close)
	a.evaluations = pgstore.NewEvaluationStore(pool)
	a.commitments = pgstore.NewCommitmentStore(pool)

	// daily return series are optional analytics
	if a.rt.ClickHouseDSN != "" {
		conn, err := chstore.NewConn(ctx, a.rt.ClickHouseDSN)
		if err != nil {
			return fmt.Errorf("connect to clickhouse: %w", err)
		}
		a.closers = append(a.closers, func() { conn.Close() })
		a.dailyReturns = chstore.NewDailyReturnStore(conn)
	}
	return nil
}

// Close releases store connections.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func scoreOptions() metrics.ScoreOptions {
	return metrics.ScoreOptions{BypassConfidence: bypassConfidence, Weighted: weighted}
}

func loadSnapshot() (*snapshot.Snapshot, error) {
	return snapshot.Load(snapshotPath)
}

// selectedPortfolio loads the portfolio named by --hotkey.
func selectedPortfolio() (domain.Portfolio, error) {
	snap, err := loadSnapshot()
	if err != nil {
		return domain.Portfolio{}, err
	}
	return snap.Portfolio(hotkey)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeJSONFile(path string, v interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeJSON(f, v); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
