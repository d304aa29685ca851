package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"riskboard/internal/domain"
	"riskboard/internal/ports"
)

var (
	_ ports.RiskRepository = (*DB)(nil)
	_ ports.HealthChecker  = (*DB)(nil)
)

const domainRiskColumns = `
	id, app_id, domain, arb, status,
	total_items, open_items, high_priority_items,
	priority_score, overall_priority, overall_severity,
	last_item_added_at, assigned_arb, assigned_at, closed_at, created_at, updated_at`

const riskItemColumns = `
	id, domain_risk_id, app_id, field_key, profile_field_id, triggering_evidence_id,
	title, description, hypothesis, condition, consequence, control_refs,
	priority, evidence_status, priority_score, status, creation_type, raised_by,
	resolution, resolution_comment, opened_at, resolved_at, updated_at`

func scanDomainRisk(row pgx.Row, extra ...any) (domain.DomainRisk, error) {
	var dr domain.DomainRisk
	dest := []any{
		&dr.ID, &dr.AppID, &dr.Domain, &dr.ARB, &dr.Status,
		&dr.TotalItems, &dr.OpenItems, &dr.HighPriorityItems,
		&dr.PriorityScore, &dr.OverallPriority, &dr.OverallSeverity,
		&dr.LastItemAddedAt, &dr.AssignedARB, &dr.AssignedAt, &dr.ClosedAt, &dr.CreatedAt, &dr.UpdatedAt,
	}
	err := row.Scan(append(dest, extra...)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return dr, domain.ErrNotFound
	}
	return dr, err
}

func scanRiskItem(row pgx.Row) (domain.RiskItem, error) {
	var it domain.RiskItem
	err := row.Scan(
		&it.ID, &it.DomainRiskID, &it.AppID, &it.FieldKey, &it.ProfileFieldID, &it.TriggeringEvidenceID,
		&it.Title, &it.Description, &it.Hypothesis, &it.Condition, &it.Consequence, &it.ControlRefs,
		&it.Priority, &it.EvidenceStatus, &it.PriorityScore, &it.Status, &it.CreationType, &it.RaisedBy,
		&it.Resolution, &it.ResolutionComment, &it.OpenedAt, &it.ResolvedAt, &it.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return it, domain.ErrNotFound
	}
	return it, err
}

func collectDomainRisks(rows pgx.Rows, err error) ([]domain.DomainRisk, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []domain.DomainRisk{}
	for rows.Next() {
		dr, err := scanDomainRisk(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, dr)
	}
	return out, rows.Err()
}

func collectRiskItems(rows pgx.Rows, err error) ([]domain.RiskItem, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []domain.RiskItem{}
	for rows.Next() {
		it, err := scanRiskItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (db *DB) GetDomainRisk(ctx context.Context, id string) (domain.DomainRisk, error) {
	return scanDomainRisk(db.Pool.QueryRow(ctx, `SELECT `+domainRiskColumns+` FROM domain_risks WHERE id = $1`, id))
}

func (db *DB) FindDomainRisk(ctx context.Context, appID, domainName string) (domain.DomainRisk, bool, error) {
	dr, err := scanDomainRisk(db.Pool.QueryRow(ctx,
		`SELECT `+domainRiskColumns+` FROM domain_risks WHERE app_id = $1 AND domain = $2`, appID, domainName))
	if errors.Is(err, domain.ErrNotFound) {
		return dr, false, nil
	}
	if err != nil {
		return dr, false, err
	}
	return dr, true, nil
}

func (db *DB) GetRiskItem(ctx context.Context, id string) (domain.RiskItem, error) {
	return getRiskItem(ctx, db.Pool, id, false)
}

func (db *DB) ListDomainRisksForARB(ctx context.Context, arb string, statuses []domain.DomainRiskStatus) ([]domain.DomainRisk, error) {
	filter := make([]string, 0, len(statuses))
	for _, st := range statuses {
		filter = append(filter, string(st))
	}
	return collectDomainRisks(db.Pool.Query(ctx, `
		SELECT `+domainRiskColumns+`
		FROM domain_risks
		WHERE COALESCE(assigned_arb, arb) = $1
		  AND (cardinality($2::text[]) = 0 OR status = ANY($2::text[]))
		ORDER BY priority_score DESC, open_items DESC, created_at, id
	`, arb, filter))
}

func (db *DB) ListRiskItemsForApp(ctx context.Context, appID string) ([]domain.RiskItem, error) {
	return collectRiskItems(db.Pool.Query(ctx, `
		SELECT `+riskItemColumns+` FROM risk_items
		WHERE app_id = $1
		ORDER BY priority_score DESC, opened_at, id
	`, appID))
}

func (db *DB) ListRiskItemsForDomainRisk(ctx context.Context, domainRiskID string) ([]domain.RiskItem, error) {
	return listRiskItemsForDomainRisk(ctx, db.Pool, domainRiskID)
}

func (db *DB) ListDomainRiskIDs(ctx context.Context) ([]string, error) {
	rows, err := db.Pool.Query(ctx, `SELECT id FROM domain_risks ORDER BY id`)
	if err != nil {
		return nil, err
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list domain risk ids: %w", err)
	}
	return ids, nil
}

func getRiskItem(ctx context.Context, q querier, id string, lock bool) (domain.RiskItem, error) {
	query := `SELECT ` + riskItemColumns + ` FROM risk_items WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}
	return scanRiskItem(q.QueryRow(ctx, query, id))
}

func listRiskItemsForDomainRisk(ctx context.Context, q querier, domainRiskID string) ([]domain.RiskItem, error) {
	return collectRiskItems(q.Query(ctx, `
		SELECT `+riskItemColumns+` FROM risk_items
		WHERE domain_risk_id = $1
		ORDER BY priority_score DESC, opened_at, id
	`, domainRiskID))
}
