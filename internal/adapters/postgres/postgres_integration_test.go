//go:build integration

package postgres

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"riskboard/internal/arb"
	"riskboard/internal/domain"
	"riskboard/internal/services/risks"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("Skipping integration test: TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	db, err := Connect(ctx, url, PoolOptions{MaxConns: 20})
	if err != nil {
		t.Skipf("Skipping integration test: cannot connect to database: %v", err)
	}
	require.NoError(t, Migrate(ctx, db, "up"))
	t.Cleanup(db.Close)
	return db
}

func newService(t *testing.T, db *DB) *risks.Service {
	table, err := arb.Default()
	require.NoError(t, err)
	return risks.New(db, table, nil, zap.NewNop(), risks.Options{StrictTransitions: true})
}

func TestPostgres_GetOrCreateIsIdempotent(t *testing.T) {
	db := testDB(t)
	svc := newService(t, db)
	ctx := context.Background()
	app := "APP-" + uuid.NewString()

	a, err := svc.GetOrCreateDomainRisk(ctx, app, "security_rating")
	require.NoError(t, err)
	b, err := svc.GetOrCreateDomainRisk(ctx, app, "security_rating")
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)
	assert.Equal(t, "security", b.ARB)
	assert.Equal(t, domain.DomainPendingARBReview, b.Status)
}

func TestPostgres_LifecycleAndQueries(t *testing.T) {
	db := testDB(t)
	svc := newService(t, db)
	ctx := context.Background()
	app := "APP-" + uuid.NewString()
	high := domain.PriorityHigh
	missing := "missing"

	res, err := svc.CreateEvidenceRisk(ctx, domain.EvidenceRiskRequest{
		AppID: app, FieldKey: "mfa", EvidenceStatus: &missing, Priority: &high,
		Domain: "security_rating", Title: "MFA evidence missing",
	})
	require.NoError(t, err)
	require.True(t, res.Created)
	assert.Equal(t, 75, res.RiskItem.PriorityScore)
	assert.Equal(t, 77, res.DomainRisk.PriorityScore)

	dup, err := svc.CreateEvidenceRisk(ctx, domain.EvidenceRiskRequest{
		AppID: app, FieldKey: "mfa", EvidenceStatus: &missing, Priority: &high,
		Domain: "security_rating", Title: "MFA evidence missing",
	})
	require.NoError(t, err)
	assert.False(t, dup.Created)

	_, dr, err := svc.UpdateRiskItemStatus(ctx, domain.ItemStatusUpdate{RiskItemID: res.RiskItem.ID, Status: domain.ItemSelfAttested})
	require.NoError(t, err)
	assert.Equal(t, domain.DomainResolved, dr.Status)
	assert.NotNil(t, dr.ClosedAt)

	stored, err := db.GetDomainRisk(ctx, dr.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.OpenItems)
	assert.Equal(t, 1, stored.TotalItems)
	assert.WithinDuration(t, *dr.ClosedAt, *stored.ClosedAt, time.Millisecond)

	items, err := db.ListRiskItemsForApp(ctx, app)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, domain.ItemSelfAttested, items[0].Status)

	_, err = db.GetRiskItem(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPostgres_ConcurrentAddsSerialise(t *testing.T) {
	db := testDB(t)
	svc := newService(t, db)
	ctx := context.Background()
	app := "APP-" + uuid.NewString()
	const writers = 16

	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.CreateManualRisk(ctx, domain.ManualRiskRequest{
				AppID: app, FieldKey: fmt.Sprintf("f-%d", i), Title: "t", RaisedBy: "sme",
				Priority: domain.PriorityMedium, Domain: "integrity_rating",
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	dr, found, err := db.FindDomainRisk(ctx, app, "integrity_rating")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, writers, dr.TotalItems)
	assert.Equal(t, writers, dr.OpenItems)
}
