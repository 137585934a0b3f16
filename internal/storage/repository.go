package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"ledger/internal/core"
	"ledger/internal/ledger"

	_ "modernc.org/sqlite"
)

// createdAtLayout is fixed-width so stored values sort lexicographically.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z"

var _ ledger.Store = (*SQLiteRepository)(nil)

// SQLiteRepository is the durable ledger store. Every mutation and its
// revision bump share one SQL transaction; Scan reads inside one read
// transaction, so it always sees a whole ledger state.
type SQLiteRepository struct {
	db    *sql.DB
	now   func() time.Time
	newID func() string
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// SQLite allows a single writer; one connection keeps transactions strictly serial.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{
		db:    db,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Create implements ledger.Store
func (r *SQLiteRepository) Create(ctx context.Context, in core.TransactionInput) (core.Transaction, error) {
	if err := in.Validate(); err != nil {
		return core.Transaction{}, err
	}

	t := core.Transaction{
		ID:          r.newID(),
		Date:        in.Date,
		Category:    in.Category,
		Description: strings.TrimSpace(in.Description),
		Amount:      in.Amount,
		CreatedAt:   r.now(),
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("begin create: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO transactions (id, date, type, category, description, amount_cents, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Date.String(), string(t.Type()), t.Category.Name(), t.Description,
		t.Amount.Cents, t.CreatedAt.Format(createdAtLayout))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	if err := bumpRevision(ctx, tx); err != nil {
		return core.Transaction{}, err
	}
	if err := tx.Commit(); err != nil {
		return core.Transaction{}, fmt.Errorf("commit create: %w", err)
	}

	slog.DebugContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"type", t.Type(),
		"category", t.Category.Name(),
		"amount_cents", t.Amount.Cents)

	return t, nil
}

// Delete implements ledger.Store
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n == 0 {
		return &core.NotFoundError{ID: id}
	}
	if err := bumpRevision(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}

	slog.DebugContext(ctx, "Transaction deleted from SQLite", "id", id)
	return nil
}

// Scan implements ledger.Store
func (r *SQLiteRepository) Scan(ctx context.Context) (core.Snapshot, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("begin scan: %w", err)
	}
	defer tx.Rollback()

	var snap core.Snapshot
	if err := tx.QueryRowContext(ctx, `SELECT revision FROM ledger_revision WHERE id = 1`).Scan(&snap.Revision); err != nil {
		return core.Snapshot{}, fmt.Errorf("read revision: %w", err)
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT id, date, type, category, description, amount_cents, created_at
		 FROM transactions ORDER BY date DESC, created_at DESC, id ASC`)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	snap.Transactions = []core.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return core.Snapshot{}, err
		}
		snap.Transactions = append(snap.Transactions, t)
	}
	if err := rows.Err(); err != nil {
		return core.Snapshot{}, fmt.Errorf("iterate transactions: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return core.Snapshot{}, fmt.Errorf("commit scan: %w", err)
	}

	ledger.SortForDisplay(snap.Transactions)
	return snap, nil
}

func bumpRevision(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, `UPDATE ledger_revision SET revision = revision + 1 WHERE id = 1`); err != nil {
		return fmt.Errorf("bump revision: %w", err)
	}
	return nil
}

func scanTransaction(rows *sql.Rows) (core.Transaction, error) {
	var (
		id, date, typ, category, desc, createdAt string
		cents                                    int64
	)
	if err := rows.Scan(&id, &date, &typ, &category, &desc, &cents, &createdAt); err != nil {
		return core.Transaction{}, fmt.Errorf("scan transaction row: %w", err)
	}

	d, err := core.ParseDate(date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("stored transaction %s has bad date %q: %w", id, date, err)
	}
	t, err := core.ParseType(typ)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("stored transaction %s has bad type %q: %w", id, typ, err)
	}
	cat, err := core.ParseCategory(t, category)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("stored transaction %s has bad category %q: %w", id, category, err)
	}
	created, err := time.Parse(createdAtLayout, createdAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("stored transaction %s has bad created_at %q: %w", id, createdAt, err)
	}

	return core.Transaction{
		ID:          id,
		Date:        d,
		Category:    cat,
		Description: desc,
		Amount:      core.Money{Cents: cents},
		CreatedAt:   created,
	}, nil
}
