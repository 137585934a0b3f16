package memory

import (
	"context"
	"sync"

	"ledger/internal/core"
	ports "ledger/internal/sheets"
)

var (
	_ ports.TransactionMirror = (*Mirror)(nil)
	_ ports.TransactionLister = (*Mirror)(nil)
)

// Mirror is an in-process TransactionMirror. The worker falls back to it when
// no spreadsheet is configured.
type Mirror struct {
	mu   sync.Mutex
	rows []core.Transaction
}

func New() *Mirror {
	return &Mirror{}
}

// AppendTransaction adds t unless a row with the same id exists.
func (m *Mirror) AppendTransaction(_ context.Context, t core.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.indexLocked(t.ID) >= 0 {
		return nil
	}
	m.rows = append(m.rows, t)
	return nil
}

// RemoveTransaction drops the row with id; a missing row is not an error.
func (m *Mirror) RemoveTransaction(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.indexLocked(id); i >= 0 {
		m.rows = append(m.rows[:i], m.rows[i+1:]...)
	}
	return nil
}

func (m *Mirror) ListTransactionIDs(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, len(m.rows))
	for i, r := range m.rows {
		ids[i] = r.ID
	}
	return ids, nil
}

// Rows returns a copy of the mirrored rows in insertion order.
func (m *Mirror) Rows() []core.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]core.Transaction(nil), m.rows...)
}

func (m *Mirror) indexLocked(id string) int {
	for i, r := range m.rows {
		if r.ID == id {
			return i
		}
	}
	return -1
}
