package recalc

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"riskboard/internal/adapters/memory"
	"riskboard/internal/arb"
	"riskboard/internal/domain"
	"riskboard/internal/services/risks"
)

type staticLister struct {
	ids []string
	err error
}

func (l staticLister) DomainRiskIDs(context.Context) ([]string, error) { return l.ids, l.err }

type fakeRecalc struct {
	mu       sync.Mutex
	seen     []string
	fail     map[string]bool
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeRecalc) RecalculateAggregations(_ context.Context, id string) (domain.DomainRisk, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	f.mu.Lock()
	f.seen = append(f.seen, id)
	f.mu.Unlock()
	if f.fail[id] {
		return domain.DomainRisk{}, domain.ErrNotFound
	}
	return domain.DomainRisk{ID: id}, nil
}

func TestRun_CountsFailuresWithoutAborting(t *testing.T) {
	f := &fakeRecalc{fail: map[string]bool{"b": true}}
	res, err := Run(context.Background(), staticLister{ids: []string{"a", "b", "c", "d"}}, f, 2, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, Result{Processed: 3, Failed: 1}, res)
	assert.ElementsMatch(t, []string{"a", "b", "c", "d"}, f.seen)
	assert.LessOrEqual(t, f.peak.Load(), int32(2))
}

func TestRun_ListError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Run(context.Background(), staticLister{err: boom}, &fakeRecalc{}, 1, nil)
	assert.ErrorIs(t, err, boom)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := Run(ctx, staticLister{ids: []string{"a"}}, &fakeRecalc{}, 1, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, res.Processed)
}

func TestRun_AgainstService(t *testing.T) {
	table, err := arb.Default()
	require.NoError(t, err)
	svc := risks.New(memory.New(), table, nil, zap.NewNop(), risks.Options{StrictTransitions: true})
	ctx := context.Background()
	for _, d := range []string{"security_rating", "integrity_rating", "availability_rating"} {
		_, err := svc.CreateManualRisk(ctx, domain.ManualRiskRequest{
			AppID: "APP-1", FieldKey: d, Title: "t", RaisedBy: "sme", Priority: domain.PriorityHigh, Domain: d,
		})
		require.NoError(t, err)
	}

	res, err := Run(ctx, svc, svc, 4, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, Result{Processed: 3}, res)
}
