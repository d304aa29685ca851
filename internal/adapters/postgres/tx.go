package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"riskboard/internal/domain"
	"riskboard/internal/ports"
)

// WithinTx runs fn in a single READ COMMITTED transaction. Serialisation per
// domain risk comes from the row locks taken by GetOrCreateDomainRisk and
// LockDomainRisk, which are held until commit or rollback.
func (db *DB) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.RiskTx) error) (err error) {
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()
	return fn(ctx, &riskTx{q: tx})
}

type riskTx struct {
	q querier
}

// GetOrCreateDomainRisk relies on ON CONFLICT DO UPDATE, which row-locks the
// existing record; xmax = 0 only for a freshly inserted tuple.
func (t *riskTx) GetOrCreateDomainRisk(ctx context.Context, seed domain.DomainRisk) (domain.DomainRisk, bool, error) {
	var inserted bool
	dr, err := scanDomainRisk(t.q.QueryRow(ctx, `
		INSERT INTO domain_risks (id, app_id, domain, arb, status, overall_priority, overall_severity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		ON CONFLICT (app_id, domain) DO UPDATE SET domain = EXCLUDED.domain
		RETURNING `+domainRiskColumns+`, (xmax = 0) AS inserted
	`, seed.ID, seed.AppID, seed.Domain, seed.ARB, seed.Status, seed.OverallPriority, seed.OverallSeverity, seed.CreatedAt),
		&inserted)
	if err != nil {
		return domain.DomainRisk{}, false, err
	}
	return dr, inserted, nil
}

func (t *riskTx) LockDomainRisk(ctx context.Context, id string) (domain.DomainRisk, error) {
	return scanDomainRisk(t.q.QueryRow(ctx, `SELECT `+domainRiskColumns+` FROM domain_risks WHERE id = $1 FOR UPDATE`, id))
}

func (t *riskTx) UpdateDomainRisk(ctx context.Context, dr domain.DomainRisk) error {
	tag, err := t.q.Exec(ctx, `
		UPDATE domain_risks SET
			status = $2,
			total_items = $3,
			open_items = $4,
			high_priority_items = $5,
			priority_score = $6,
			overall_priority = $7,
			overall_severity = $8,
			last_item_added_at = $9,
			assigned_arb = $10,
			assigned_at = $11,
			closed_at = $12,
			updated_at = $13
		WHERE id = $1
	`, dr.ID, dr.Status, dr.TotalItems, dr.OpenItems, dr.HighPriorityItems,
		dr.PriorityScore, dr.OverallPriority, dr.OverallSeverity,
		dr.LastItemAddedAt, dr.AssignedARB, dr.AssignedAt, dr.ClosedAt, dr.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (t *riskTx) LockItemKey(ctx context.Context, appID, fieldKey string, evidenceID *string) error {
	key := appID + "\x00" + fieldKey + "\x00"
	if evidenceID != nil {
		key += *evidenceID
	}
	_, err := t.q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key)
	return err
}

func (t *riskTx) ActiveItemExists(ctx context.Context, appID, fieldKey string, evidenceID *string) (bool, error) {
	var exists bool
	err := t.q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM risk_items
			WHERE app_id = $1
			  AND field_key = $2
			  AND triggering_evidence_id IS NOT DISTINCT FROM $3
			  AND status = ANY($4::text[])
		)
	`, appID, fieldKey, evidenceID, activeItemStatuses()).Scan(&exists)
	return exists, err
}

func (t *riskTx) InsertRiskItem(ctx context.Context, it domain.RiskItem) error {
	refs := it.ControlRefs
	if refs == nil {
		refs = []string{}
	}
	_, err := t.q.Exec(ctx, `
		INSERT INTO risk_items (`+riskItemColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
		        $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
	`, it.ID, it.DomainRiskID, it.AppID, it.FieldKey, it.ProfileFieldID, it.TriggeringEvidenceID,
		it.Title, it.Description, it.Hypothesis, it.Condition, it.Consequence, refs,
		it.Priority, it.EvidenceStatus, it.PriorityScore, it.Status, it.CreationType, it.RaisedBy,
		it.Resolution, it.ResolutionComment, it.OpenedAt, it.ResolvedAt, it.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert risk item %s: %w", it.ID, err)
	}
	return nil
}

func (t *riskTx) GetRiskItem(ctx context.Context, id string) (domain.RiskItem, error) {
	return getRiskItem(ctx, t.q, id, true)
}

func (t *riskTx) UpdateRiskItem(ctx context.Context, it domain.RiskItem) error {
	tag, err := t.q.Exec(ctx, `
		UPDATE risk_items SET
			status = $2,
			resolution = $3,
			resolution_comment = $4,
			resolved_at = $5,
			priority = $6,
			priority_score = $7,
			updated_at = $8
		WHERE id = $1
	`, it.ID, it.Status, it.Resolution, it.ResolutionComment, it.ResolvedAt, it.Priority, it.PriorityScore, it.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (t *riskTx) ListRiskItemsForDomainRisk(ctx context.Context, domainRiskID string) ([]domain.RiskItem, error) {
	return listRiskItemsForDomainRisk(ctx, t.q, domainRiskID)
}

func activeItemStatuses() []string {
	out := make([]string, 0, len(domain.AllRiskItemStatuses))
	for _, st := range domain.AllRiskItemStatuses {
		if st.IsActive() {
			out = append(out, string(st))
		}
	}
	return out
}
