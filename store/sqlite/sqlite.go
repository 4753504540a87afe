/*
Package sqlite provides the SQLite-backed persistence layer.

PURPOSE:
  Stores the append-only transaction ledger and the reference directories
  (holders, items, serialized units). In production the same patterns
  apply to PostgreSQL - only minor SQL dialect differences.

APPEND-ONLY ENFORCEMENT:
  The transactions table is the source of truth and is never updated or
  deleted. Mistaken issues are corrected by appending RETURN rows; the
  reconciliation engine derives every view from the full log.

IDEMPOTENCY:
  Transaction writes may carry an idempotency key. A duplicate key is
  rejected with ledger.ErrDuplicateIdempotencyKey, which makes network
  retries and double-clicks safe.

DIRTY DATA:
  quantity is stored as TEXT and surfaced to the engine as-is. The
  Normalizer owns coercion and rejection; the store does not police row
  content beyond the schema.

WAL MODE:
  Opened with WAL for better concurrency: readers don't block, single
  writer at a time, better crash recovery.

SEE ALSO:
  - service/reconciler.go: consumes this store as its Source
  - store/memory: in-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sentinelops/armory-ledger/ledger"
)

// Store implements the persistence interfaces over SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (and migrates) a SQLite database. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Transactions (append-only ledger)
	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		category TEXT NOT NULL,
		item_code TEXT,
		holder_id TEXT,
		serial_unit_id TEXT,
		action TEXT NOT NULL,
		quantity TEXT,
		notes TEXT,
		created_at TEXT NOT NULL,
		idempotency_key TEXT UNIQUE
	);
	CREATE INDEX IF NOT EXISTS idx_transactions_category_created
		ON transactions(category, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_transactions_unit
		ON transactions(serial_unit_id) WHERE serial_unit_id IS NOT NULL;

	-- Holder directory
	CREATE TABLE IF NOT EXISTS holders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		employee_code TEXT UNIQUE,
		payroll_serial TEXT,
		display_name TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Item catalog
	CREATE TABLE IF NOT EXISTS items (
		code TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		unit_name TEXT
	);

	-- Serialized units
	CREATE TABLE IF NOT EXISTS units (
		unit_id TEXT PRIMARY KEY,
		item_code TEXT NOT NULL,
		name TEXT,
		serial_number TEXT,
		status TEXT NOT NULL,
		holder_id TEXT,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_units_status ON units(status);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TRANSACTIONS (append-only)
// =============================================================================

// AppendTransaction writes one ledger row. No update path exists.
func (s *Store) AppendTransaction(ctx context.Context, category ledger.Category, r ledger.RawTransaction, idempotencyKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idempotencyKey != "" {
		exists, err := s.existsLocked(ctx, idempotencyKey)
		if err != nil {
			return err
		}
		if exists {
			return ledger.ErrDuplicateIdempotencyKey
		}
	}
	return insertTx(ctx, s.db, category, r, idempotencyKey)
}

// AppendTransactions writes a batch atomically: either every row lands or
// none do.
func (s *Store) AppendTransactions(ctx context.Context, category ledger.Category, rows []ledger.RawTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, r := range rows {
		if err := insertTx(ctx, tx, category, r, ""); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertTx(ctx context.Context, db execer, category ledger.Category, r ledger.RawTransaction, idempotencyKey string) error {
	id := r.ID
	if id == "" {
		id = newTxID()
	}
	createdAt := r.CreatedAt
	if createdAt == "" {
		createdAt = time.Now().UTC().Format(time.RFC3339)
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO transactions (id, category, item_code, holder_id, serial_unit_id, action, quantity, notes, created_at, idempotency_key)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, string(category),
		nullable(r.ItemCode), nullable(r.HolderID), nullable(r.SerialUnitID),
		r.Action, quantityText(r.Quantity), nullable(r.Notes),
		createdAt, nullable(idempotencyKey),
	)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed: transactions.idempotency_key") {
		return ledger.ErrDuplicateIdempotencyKey
	}
	return err
}

// ListTransactions returns up to limit rows for a category, newest first.
// The engine does not rely on this ordering; the bound just keeps reads
// at a predictable size.
func (s *Store) ListTransactions(ctx context.Context, category ledger.Category, limit int) ([]ledger.RawTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, item_code, holder_id, serial_unit_id, action, quantity, notes, created_at
		FROM transactions
		WHERE category = ?
		ORDER BY created_at DESC
		LIMIT ?`,
		string(category), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.RawTransaction
	for rows.Next() {
		var (
			r                                 ledger.RawTransaction
			itemCode, holderID, unitID, notes sql.NullString
			quantity                          sql.NullString
		)
		if err := rows.Scan(&r.ID, &itemCode, &holderID, &unitID, &r.Action, &quantity, &notes, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.ItemCode = itemCode.String
		r.HolderID = holderID.String
		r.SerialUnitID = unitID.String
		r.Notes = notes.String
		if quantity.Valid {
			r.Quantity = quantity.String
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) existsLocked(ctx context.Context, idempotencyKey string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM transactions WHERE idempotency_key = ?`, idempotencyKey,
	).Scan(&n)
	return n > 0, err
}

// =============================================================================
// HOLDERS
// =============================================================================

// SaveHolder inserts a holder and returns it with the assigned row id.
func (s *Store) SaveHolder(ctx context.Context, h ledger.Holder) (ledger.Holder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO holders (employee_code, payroll_serial, display_name, created_at)
		VALUES (?, ?, ?, ?)`,
		nullable(h.EmployeeCode), nullable(h.PayrollSerial), h.DisplayName,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return ledger.Holder{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return ledger.Holder{}, err
	}
	h.ID = fmt.Sprintf("%d", id)
	return h, nil
}

func (s *Store) ListHolders(ctx context.Context) ([]ledger.Holder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_code, payroll_serial, display_name
		FROM holders ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.Holder
	for rows.Next() {
		var (
			h                   ledger.Holder
			empCode, payrollSer sql.NullString
		)
		if err := rows.Scan(&h.ID, &empCode, &payrollSer, &h.DisplayName); err != nil {
			return nil, err
		}
		h.EmployeeCode = empCode.String
		h.PayrollSerial = payrollSer.String
		out = append(out, h)
	}
	return out, rows.Err()
}

// =============================================================================
// ITEMS
// =============================================================================

func (s *Store) SaveItem(ctx context.Context, it ledger.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO items (code, name, unit_name) VALUES (?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET name = excluded.name, unit_name = excluded.unit_name`,
		it.Code, it.Name, nullable(it.UnitName),
	)
	return err
}

func (s *Store) ListItems(ctx context.Context) ([]ledger.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT code, name, unit_name FROM items ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.Item
	for rows.Next() {
		var (
			it       ledger.Item
			unitName sql.NullString
		)
		if err := rows.Scan(&it.Code, &it.Name, &unitName); err != nil {
			return nil, err
		}
		it.UnitName = unitName.String
		out = append(out, it)
	}
	return out, rows.Err()
}

// =============================================================================
// SERIALIZED UNITS
// =============================================================================

func (s *Store) SaveUnit(ctx context.Context, u ledger.SerializedUnit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := u.CreatedAt
	if createdAt == "" {
		createdAt = time.Now().UTC().Format(time.RFC3339)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO units (unit_id, item_code, name, serial_number, status, holder_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.UnitID, u.ItemCode, nullable(u.Name), nullable(u.SerialNumber),
		string(u.Status), nullable(u.HolderID), createdAt,
	)
	return err
}

// UpdateUnitStatus moves a unit between in_stock/issued/maintenance and
// records its current holder. This is reference data, not the ledger, so
// updating in place is allowed.
func (s *Store) UpdateUnitStatus(ctx context.Context, unitID string, status ledger.UnitStatus, holderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE units SET status = ?, holder_id = ? WHERE unit_id = ?`,
		string(status), nullable(holderID), unitID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("unit %s: %w", unitID, ledger.ErrNotFound)
	}
	return nil
}

func (s *Store) ListUnits(ctx context.Context) ([]ledger.SerializedUnit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT unit_id, item_code, name, serial_number, status, holder_id, created_at
		FROM units ORDER BY unit_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.SerializedUnit
	for rows.Next() {
		var (
			u                      ledger.SerializedUnit
			name, serial, holderID sql.NullString
			status                 string
		)
		if err := rows.Scan(&u.UnitID, &u.ItemCode, &name, &serial, &status, &holderID, &u.CreatedAt); err != nil {
			return nil, err
		}
		u.Name = name.String
		u.SerialNumber = serial.String
		u.Status = ledger.UnitStatus(status)
		u.HolderID = holderID.String
		out = append(out, u)
	}
	return out, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// quantityText stores the quantity exactly as it arrived; the Normalizer
// owns coercion.
func quantityText(v any) any {
	switch q := v.(type) {
	case nil:
		return nil
	case string:
		if q == "" {
			return nil
		}
		return q
	default:
		return fmt.Sprintf("%v", q)
	}
}

var txSeq struct {
	mu sync.Mutex
	n  int64
}

func newTxID() string {
	txSeq.mu.Lock()
	defer txSeq.mu.Unlock()
	txSeq.n++
	return fmt.Sprintf("tx-%d-%d", time.Now().UnixNano(), txSeq.n)
}
