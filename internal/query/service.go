// Package query provides read-only access to the durable audit log in
// Postgres. The live ledger answers balance and position queries from
// memory; this package serves the history that memory does not keep.
package query

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AuditEntry is one transfer from audit.entries as served to API clients.
type AuditEntry struct {
	EntryID   string    `json:"entry_id"`
	BatchID   string    `json:"batch_id"`
	MarketID  uint64    `json:"market_id"`
	Debit     string    `json:"debit_account"`
	Credit    string    `json:"credit_account"`
	Amount    uint64    `json:"amount"`
	EntryType string    `json:"entry_type"`
	CreatedAt time.Time `json:"created_at"`
}

// Service serves audit history queries.
type Service struct {
	db *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

const entryColumns = `entry_id, batch_id, market_id, debit_account, credit_account, amount, entry_type, created_at`

// EntriesByMarket returns a market's transfer history, newest first.
func (s *Service) EntriesByMarket(ctx context.Context, marketID uint64, limit int) ([]AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM audit.entries
		 WHERE market_id = $1 ORDER BY created_at DESC, entry_id LIMIT $2`,
		int64(marketID), clampLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("query market entries: %w", err)
	}
	return scanEntries(rows)
}

// EntriesByUser returns a user's cash-account transfer history, newest first.
// Matches either side of the transfer.
func (s *Service) EntriesByUser(ctx context.Context, user uuid.UUID, limit int) ([]AuditEntry, error) {
	account := "user:" + user.String() + ":cash"
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM audit.entries
		 WHERE debit_account = $1 OR credit_account = $1
		 ORDER BY created_at DESC, entry_id LIMIT $2`,
		account, clampLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("query user entries: %w", err)
	}
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]AuditEntry, error) {
	defer rows.Close()

	var out []AuditEntry
	for rows.Next() {
		var e AuditEntry
		var marketID, amount int64
		if err := rows.Scan(&e.EntryID, &e.BatchID, &marketID, &e.Debit,
			&e.Credit, &amount, &e.EntryType, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.MarketID = uint64(marketID)
		e.Amount = uint64(amount)
		out = append(out, e)
	}
	return out, rows.Err()
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return 100
	}
	return limit
}
