// Package recalc recomputes every domain risk's aggregates in bulk.
package recalc

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"riskboard/internal/domain"
)

// Lister enumerates the domain risks to process.
type Lister interface {
	DomainRiskIDs(ctx context.Context) ([]string, error)
}

// Recalculator recomputes one domain risk in its own unit of work.
type Recalculator interface {
	RecalculateAggregations(ctx context.Context, domainRiskID string) (domain.DomainRisk, error)
}

type Result struct {
	Processed int
	Failed    int
}

// Run fans the ids out over at most concurrency workers. A failing id is
// logged and counted; only listing errors and cancellation abort the run.
func Run(ctx context.Context, lister Lister, recalc Recalculator, concurrency int, log *zap.Logger) (Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if concurrency < 1 {
		concurrency = 1
	}
	ids, err := lister.DomainRiskIDs(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list domain risks: %w", err)
	}

	var processed, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, id := range ids {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if _, err := recalc.RecalculateAggregations(gctx, id); err != nil {
				failed.Add(1)
				log.Warn("recalculation failed", zap.String("domain_risk_id", id), zap.Error(err))
				return nil
			}
			processed.Add(1)
			return nil
		})
	}
	err = g.Wait()
	res := Result{Processed: int(processed.Load()), Failed: int(failed.Load())}
	if err != nil {
		return res, err
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}
	log.Info("recalculation finished",
		zap.Int("domain_risks", len(ids)),
		zap.Int("processed", res.Processed),
		zap.Int("failed", res.Failed),
	)
	return res, nil
}
