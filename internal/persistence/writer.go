// Package persistence writes the audit log to Postgres behind the trading
// path. The in-memory ledger is authoritative at runtime; Postgres holds the
// durable record of every transfer and reward claim.
package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/DZ-Ramzy/ICP-ramzy/internal/ledger"
	"github.com/DZ-Ramzy/ICP-ramzy/internal/market"
)

// EntryRow is a row in audit.entries.
type EntryRow struct {
	EntryID   string
	BatchID   string
	MarketID  int64 // zero for transfers not tied to a market
	Debit     string
	Credit    string
	Amount    int64
	EntryType string
	CreatedAt time.Time
}

// ClaimRow is a row in audit.reward_claims.
type ClaimRow struct {
	MarketID      int64
	UserID        string
	WinningTokens int64
	RewardAmount  int64
	ClaimedAt     time.Time
}

// EntryRows converts a validated ledger batch to its storage rows.
func EntryRows(batch *ledger.Batch) []EntryRow {
	rows := make([]EntryRow, 0, len(batch.Entries))
	for _, e := range batch.Entries {
		rows = append(rows, EntryRow{
			EntryID:   e.EntryID.String(),
			BatchID:   e.BatchID.String(),
			MarketID:  int64(e.MarketID),
			Debit:     e.Debit,
			Credit:    e.Credit,
			Amount:    int64(e.Amount),
			EntryType: e.Type.String(),
			CreatedAt: e.CreatedAt,
		})
	}
	return rows
}

// ClaimRowFrom converts a reward claim to its storage row.
func ClaimRowFrom(c market.RewardClaim) ClaimRow {
	return ClaimRow{
		MarketID:      int64(c.MarketID),
		UserID:        c.User.String(),
		WinningTokens: int64(c.WinningTokens),
		RewardAmount:  int64(c.RewardAmount),
		ClaimedAt:     c.ClaimedAt,
	}
}

// AuditWriter batch-writes audit rows using multi-row INSERT. ON CONFLICT DO
// NOTHING makes retried flushes idempotent: a batch that half-landed before a
// crash writes only its missing rows the second time.
type AuditWriter struct {
	db *sql.DB
}

func NewAuditWriter(db *sql.DB) *AuditWriter {
	return &AuditWriter{db: db}
}

// WriteEntryBatch writes audit entries within the given transaction.
func (w *AuditWriter) WriteEntryBatch(ctx context.Context, tx *sql.Tx, entries []EntryRow) error {
	if len(entries) == 0 {
		return nil
	}

	query := `INSERT INTO audit.entries
		(entry_id, batch_id, market_id, debit_account, credit_account, amount, entry_type, created_at)
		VALUES `

	values := make([]string, 0, len(entries))
	args := make([]interface{}, 0, len(entries)*8)

	for i, e := range entries {
		base := i * 8
		values = append(values, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8,
		))
		args = append(args,
			e.EntryID, e.BatchID, e.MarketID, e.Debit,
			e.Credit, e.Amount, e.EntryType, e.CreatedAt,
		)
	}

	query += strings.Join(values, ", ")
	query += " ON CONFLICT (entry_id) DO NOTHING"

	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// WriteClaimBatch writes reward claims within the given transaction. A user
// claims a market at most once, so (market_id, user_id) is the conflict key.
func (w *AuditWriter) WriteClaimBatch(ctx context.Context, tx *sql.Tx, claims []ClaimRow) error {
	if len(claims) == 0 {
		return nil
	}

	query := `INSERT INTO audit.reward_claims
		(market_id, user_id, winning_tokens, reward_amount, claimed_at)
		VALUES `

	values := make([]string, 0, len(claims))
	args := make([]interface{}, 0, len(claims)*5)

	for i, c := range claims {
		base := i * 5
		values = append(values, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5,
		))
		args = append(args,
			c.MarketID, c.UserID, c.WinningTokens, c.RewardAmount, c.ClaimedAt,
		)
	}

	query += strings.Join(values, ", ")
	query += " ON CONFLICT (market_id, user_id) DO NOTHING"

	_, err := tx.ExecContext(ctx, query, args...)
	return err
}
