// Package memory is an in-process RiskRepository used by tests and when no
// database is configured. One mutex serialises every unit of work.
package memory

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"

	"riskboard/internal/domain"
	"riskboard/internal/ports"
)

type pairKey struct{ appID, domain string }

type Store struct {
	mu          sync.Mutex
	domainRisks map[string]domain.DomainRisk
	byPair      map[pairKey]string
	items       map[string]domain.RiskItem
}

var (
	_ ports.RiskRepository = (*Store)(nil)
	_ ports.HealthChecker  = (*Store)(nil)
)

func New() *Store {
	return &Store{
		domainRisks: map[string]domain.DomainRisk{},
		byPair:      map[pairKey]string{},
		items:       map[string]domain.RiskItem{},
	}
}

// Ping always succeeds; the store lives in process.
func (s *Store) Ping(context.Context) error { return nil }

// WithinTx works on copies and swaps them in only when fn succeeds.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.RiskTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &memTx{
		domainRisks: maps.Clone(s.domainRisks),
		byPair:      maps.Clone(s.byPair),
		items:       maps.Clone(s.items),
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	s.domainRisks, s.byPair, s.items = tx.domainRisks, tx.byPair, tx.items
	return nil
}

func (s *Store) GetDomainRisk(_ context.Context, id string) (domain.DomainRisk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dr, ok := s.domainRisks[id]
	if !ok {
		return domain.DomainRisk{}, domain.ErrNotFound
	}
	return dr, nil
}

func (s *Store) FindDomainRisk(_ context.Context, appID, domainName string) (domain.DomainRisk, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byPair[pairKey{appID, domainName}]
	if !ok {
		return domain.DomainRisk{}, false, nil
	}
	return s.domainRisks[id], true, nil
}

func (s *Store) GetRiskItem(_ context.Context, id string) (domain.RiskItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	if !ok {
		return domain.RiskItem{}, domain.ErrNotFound
	}
	return cloneItem(it), nil
}

func (s *Store) ListDomainRisksForARB(_ context.Context, arb string, statuses []domain.DomainRiskStatus) ([]domain.DomainRisk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.DomainRisk{}
	for _, dr := range s.domainRisks {
		board := dr.ARB
		if dr.AssignedARB != nil {
			board = *dr.AssignedARB
		}
		if board != arb {
			continue
		}
		if len(statuses) > 0 && !slices.Contains(statuses, dr.Status) {
			continue
		}
		out = append(out, dr)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.PriorityScore != b.PriorityScore {
			return a.PriorityScore > b.PriorityScore
		}
		if a.OpenItems != b.OpenItems {
			return a.OpenItems > b.OpenItems
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return out, nil
}

func (s *Store) ListRiskItemsForApp(_ context.Context, appID string) ([]domain.RiskItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filterItems(s.items, func(it domain.RiskItem) bool { return it.AppID == appID }), nil
}

func (s *Store) ListRiskItemsForDomainRisk(_ context.Context, domainRiskID string) ([]domain.RiskItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filterItems(s.items, func(it domain.RiskItem) bool { return it.DomainRiskID == domainRiskID }), nil
}

func (s *Store) ListDomainRiskIDs(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := slices.Collect(maps.Keys(s.domainRisks))
	sort.Strings(ids)
	return ids, nil
}

// filterItems returns matching items ordered by priority score, highest first.
func filterItems(items map[string]domain.RiskItem, keep func(domain.RiskItem) bool) []domain.RiskItem {
	out := []domain.RiskItem{}
	for _, it := range items {
		if keep(it) {
			out = append(out, cloneItem(it))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.PriorityScore != b.PriorityScore {
			return a.PriorityScore > b.PriorityScore
		}
		if !a.OpenedAt.Equal(b.OpenedAt) {
			return a.OpenedAt.Before(b.OpenedAt)
		}
		return a.ID < b.ID
	})
	return out
}

type memTx struct {
	domainRisks map[string]domain.DomainRisk
	byPair      map[pairKey]string
	items       map[string]domain.RiskItem
}

func (t *memTx) GetOrCreateDomainRisk(_ context.Context, seed domain.DomainRisk) (domain.DomainRisk, bool, error) {
	key := pairKey{seed.AppID, seed.Domain}
	if id, ok := t.byPair[key]; ok {
		return t.domainRisks[id], false, nil
	}
	t.domainRisks[seed.ID] = seed
	t.byPair[key] = seed.ID
	return seed, true, nil
}

func (t *memTx) LockDomainRisk(_ context.Context, id string) (domain.DomainRisk, error) {
	dr, ok := t.domainRisks[id]
	if !ok {
		return domain.DomainRisk{}, domain.ErrNotFound
	}
	return dr, nil
}

func (t *memTx) UpdateDomainRisk(_ context.Context, dr domain.DomainRisk) error {
	if _, ok := t.domainRisks[dr.ID]; !ok {
		return domain.ErrNotFound
	}
	t.domainRisks[dr.ID] = dr
	return nil
}

// LockItemKey is a no-op: the store mutex already serialises units of work.
func (t *memTx) LockItemKey(context.Context, string, string, *string) error { return nil }

func (t *memTx) ActiveItemExists(_ context.Context, appID, fieldKey string, evidenceID *string) (bool, error) {
	for _, it := range t.items {
		if it.AppID == appID && it.FieldKey == fieldKey && sameEvidence(it.TriggeringEvidenceID, evidenceID) && it.IsActive() {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) InsertRiskItem(_ context.Context, item domain.RiskItem) error {
	if _, ok := t.domainRisks[item.DomainRiskID]; !ok {
		return domain.ErrNotFound
	}
	t.items[item.ID] = cloneItem(item)
	return nil
}

func (t *memTx) GetRiskItem(_ context.Context, id string) (domain.RiskItem, error) {
	it, ok := t.items[id]
	if !ok {
		return domain.RiskItem{}, domain.ErrNotFound
	}
	return cloneItem(it), nil
}

func (t *memTx) UpdateRiskItem(_ context.Context, item domain.RiskItem) error {
	if _, ok := t.items[item.ID]; !ok {
		return domain.ErrNotFound
	}
	t.items[item.ID] = cloneItem(item)
	return nil
}

func (t *memTx) ListRiskItemsForDomainRisk(_ context.Context, domainRiskID string) ([]domain.RiskItem, error) {
	return filterItems(t.items, func(it domain.RiskItem) bool { return it.DomainRiskID == domainRiskID }), nil
}

// cloneItem detaches the item's slice so stored state never aliases caller memory.
func cloneItem(it domain.RiskItem) domain.RiskItem {
	it.ControlRefs = slices.Clone(it.ControlRefs)
	return it
}

func sameEvidence(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
