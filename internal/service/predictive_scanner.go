package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"fleetops-service/internal/fleet"
	"fleetops-service/internal/metrics"
)

// PredictiveScanner periodically raises maintenance tickets for vehicles
// whose health score has dropped below the configured thresholds. It acts as
// the SYSTEM principal and bypasses the gateway.
type PredictiveScanner struct {
	store      Store
	engine     *fleet.Engine
	thresholds fleet.Thresholds
	interval   time.Duration
	metrics    *metrics.Metrics
	log        zerolog.Logger
}

func NewPredictiveScanner(store Store, engine *fleet.Engine, thresholds fleet.Thresholds, interval time.Duration, m *metrics.Metrics, log zerolog.Logger) *PredictiveScanner {
	return &PredictiveScanner{
		store:      store,
		engine:     engine,
		thresholds: thresholds,
		interval:   interval,
		metrics:    m,
		log:        log.With().Str("component", "predictive").Logger(),
	}
}

// Run scans once immediately and then on every tick until ctx is done. A
// zero interval disables the scanner.
func (p *PredictiveScanner) Run(ctx context.Context) {
	if p.interval <= 0 {
		p.log.Info().Msg("predictive scanner disabled")
		return
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if _, err := p.ScanOnce(ctx); err != nil && ctx.Err() == nil {
			p.log.Error().Err(err).Msg("predictive scan failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// ScanOnce raises tickets against the current snapshot and returns how many
// were committed. Losing a race with another writer is not an error; the
// next scan sees the new state.
func (p *PredictiveScanner) ScanOnce(ctx context.Context) (int, error) {
	snap, err := p.store.Snapshot(ctx)
	if err != nil {
		p.metrics.ObservePredictiveScan(0, err)
		return 0, err
	}

	res, err := p.engine.RaisePredictive(snap, p.thresholds)
	if err != nil {
		p.metrics.ObservePredictiveScan(0, err)
		return 0, err
	}
	if res.Empty() {
		p.metrics.ObservePredictiveScan(0, nil)
		return 0, nil
	}

	committed, err := p.store.Commit(ctx, res)
	if err != nil {
		err = normalizeError(err)
		if fleet.KindOf(err) == fleet.KindConflict {
			p.log.Debug().Err(err).Msg("predictive scan lost a concurrent write")
			p.metrics.ObservePredictiveScan(0, nil)
			return 0, nil
		}
		p.metrics.ObservePredictiveScan(0, err)
		return 0, err
	}

	p.metrics.ObservePredictiveScan(len(committed.Tickets), nil)
	p.log.Info().
		Int("tickets", len(committed.Tickets)).
		Int("vehicles", len(snap.Vehicles)).
		Msg("predictive tickets raised")
	return len(committed.Tickets), nil
}
