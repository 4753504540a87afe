/*
Package service coordinates reconciliation invocations.

PURPOSE:
  The engine in the ledger package is a pure function; this package owns
  the messy parts around it:
    - fan-out/fan-in of the independent upstream fetches
    - all-or-nothing failure handling (no partial aggregates, ever)
    - staleness guarding so a slow stale fetch cannot overwrite a
      fresher result
    - a cached snapshot serving reads between refreshes

INVOCATION MODEL:
  Every Refresh re-runs the whole fetch-then-reconcile pipeline from
  scratch. Concurrent refreshes are not coordinated beyond the staleness
  guard: the last-started invocation wins, earlier in-flight results are
  discarded on arrival. Reads (View) never block a refresh; they take a
  read lock on the applied snapshot only.

FAILURE MODEL:
  If ANY fetch of an invocation fails, the invocation is abandoned, the
  applied snapshot is reset to empty, and a single wrapped
  ledger.ErrFetchFailed is returned. Retries are the caller's concern.
*/
package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/sentinelops/armory-ledger/ledger"
)

// DefaultPageSize bounds each transaction fetch.
const DefaultPageSize = 1000

// Source supplies the reconciliation inputs. Implementations must be safe
// for concurrent use; the Reconciler issues its fetches in parallel.
type Source interface {
	ListTransactions(ctx context.Context, category ledger.Category, limit int) ([]ledger.RawTransaction, error)
	ListHolders(ctx context.Context) ([]ledger.Holder, error)
	ListItems(ctx context.Context) ([]ledger.Item, error)
	ListUnits(ctx context.Context) ([]ledger.SerializedUnit, error)
}

// Reconciler runs invocations against a Source and holds the applied
// snapshot.
type Reconciler struct {
	source   Source
	log      *logrus.Logger
	pageSize int

	mu      sync.RWMutex
	seq     uint64 // next invocation token
	applied uint64 // token of the snapshot currently applied
	snap    ledger.Snapshot
}

func NewReconciler(source Source, log *logrus.Logger, pageSize int) *Reconciler {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Reconciler{source: source, log: log, pageSize: pageSize}
}

// Refresh performs one full invocation: concurrent fetches, then a single
// synchronous reconciliation pass. Returns ledger.ErrFetchFailed (wrapped)
// when any fetch fails, and ledger.ErrStaleInvocation when a newer
// invocation applied first.
func (r *Reconciler) Refresh(ctx context.Context) error {
	token := r.nextToken()

	var (
		wg      sync.WaitGroup
		txs     []ledger.RawTransaction
		general []ledger.RawTransaction
		holders []ledger.Holder
		items   []ledger.Item
		units   []ledger.SerializedUnit
	)
	errs := make([]error, 5)

	wg.Add(5)
	go func() {
		defer wg.Done()
		txs, errs[0] = r.source.ListTransactions(ctx, ledger.CategoryArmory, r.pageSize)
	}()
	go func() {
		defer wg.Done()
		general, errs[1] = r.source.ListTransactions(ctx, ledger.CategoryGeneral, r.pageSize)
	}()
	go func() {
		defer wg.Done()
		holders, errs[2] = r.source.ListHolders(ctx)
	}()
	go func() {
		defer wg.Done()
		items, errs[3] = r.source.ListItems(ctx)
	}()
	go func() {
		defer wg.Done()
		units, errs[4] = r.source.ListUnits(ctx)
	}()
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			// No partial output: reset to empty so the caller never
			// renders a mixed-age snapshot.
			r.apply(token, ledger.Snapshot{})
			if r.log != nil {
				r.log.WithFields(logrus.Fields{"invocation": token}).
					WithError(err).Error("reconciliation fetch failed")
			}
			return fmt.Errorf("%w: %v", ledger.ErrFetchFailed, err)
		}
	}

	snap := ledger.Build(ledger.Input{
		Transactions:        txs,
		GeneralTransactions: general,
		Holders:             holders,
		Items:               items,
		Units:               units,
	})

	if !r.apply(token, snap) {
		return ledger.ErrStaleInvocation
	}
	if r.log != nil {
		r.log.WithFields(logrus.Fields{
			"invocation": token,
			"holders":    len(holders),
			"armory_txs": len(txs),
		}).Info("reconciliation applied")
	}
	return nil
}

// View projects the applied snapshot through the given window and query.
// Cheap; safe to call concurrently with Refresh.
func (r *Reconciler) View(w ledger.Window, query string) []ledger.HolderView {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snap.View(w, query)
}

func (r *Reconciler) nextToken() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return r.seq
}

// apply installs a snapshot unless a newer invocation already applied.
func (r *Reconciler) apply(token uint64, snap ledger.Snapshot) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if token < r.applied {
		return false
	}
	r.applied = token
	r.snap = snap
	return true
}
