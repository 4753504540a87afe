// Package memory provides an in-memory store for testing and dev.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/sentinelops/armory-ledger/ledger"
)

// Store mirrors the sqlite store's surface without persistence.
type Store struct {
	mu          sync.RWMutex
	txs         map[ledger.Category][]ledger.RawTransaction
	idempotency map[string]bool
	holders     []ledger.Holder
	items       map[string]ledger.Item
	units       map[string]*ledger.SerializedUnit
	nextHolder  int
}

func New() *Store {
	return &Store{
		txs:         make(map[ledger.Category][]ledger.RawTransaction),
		idempotency: make(map[string]bool),
		items:       make(map[string]ledger.Item),
		units:       make(map[string]*ledger.SerializedUnit),
	}
}

// =============================================================================
// TRANSACTIONS (append-only)
// =============================================================================

func (s *Store) AppendTransaction(_ context.Context, category ledger.Category, r ledger.RawTransaction, idempotencyKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idempotencyKey != "" {
		if s.idempotency[idempotencyKey] {
			return ledger.ErrDuplicateIdempotencyKey
		}
		s.idempotency[idempotencyKey] = true
	}
	s.txs[category] = append(s.txs[category], r)
	return nil
}

func (s *Store) AppendTransactions(_ context.Context, category ledger.Category, rows []ledger.RawTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs[category] = append(s.txs[category], rows...)
	return nil
}

func (s *Store) ListTransactions(_ context.Context, category ledger.Category, limit int) ([]ledger.RawTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.txs[category]
	if limit > 0 && len(rows) > limit {
		rows = rows[len(rows)-limit:] // keep the newest appends
	}
	out := make([]ledger.RawTransaction, len(rows))
	copy(out, rows)
	return out, nil
}

// =============================================================================
// REFERENCE DATA
// =============================================================================

func (s *Store) SaveHolder(_ context.Context, h ledger.Holder) (ledger.Holder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextHolder++
	h.ID = fmt.Sprintf("%d", s.nextHolder)
	s.holders = append(s.holders, h)
	return h, nil
}

func (s *Store) ListHolders(context.Context) ([]ledger.Holder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.Holder, len(s.holders))
	copy(out, s.holders)
	return out, nil
}

func (s *Store) SaveItem(_ context.Context, it ledger.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[it.Code] = it
	return nil
}

func (s *Store) ListItems(context.Context) ([]ledger.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.Item, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, it)
	}
	return out, nil
}

func (s *Store) SaveUnit(_ context.Context, u ledger.SerializedUnit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.units[u.UnitID] = &u
	return nil
}

func (s *Store) UpdateUnitStatus(_ context.Context, unitID string, status ledger.UnitStatus, holderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.units[unitID]
	if u == nil {
		return fmt.Errorf("unit %s: %w", unitID, ledger.ErrNotFound)
	}
	u.Status = status
	u.HolderID = holderID
	return nil
}

func (s *Store) ListUnits(context.Context) ([]ledger.SerializedUnit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.SerializedUnit, 0, len(s.units))
	for _, u := range s.units {
		out = append(out, *u)
	}
	return out, nil
}
