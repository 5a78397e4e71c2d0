package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/DZ-Ramzy/ICP-ramzy/internal/observability"
)

// WriteSet is the durable output of one ledger operation. The daemon bridges
// engine records into write sets so this package stays independent of the
// engine.
type WriteSet struct {
	Entries []EntryRow
	Claims  []ClaimRow
}

// Worker drains the persist channel and batch-writes to Postgres. The persist
// channel uses BLOCKING sends, so if this worker falls behind, operations
// stall rather than losing audit data.
type Worker struct {
	writer       *AuditWriter
	db           *sql.DB
	inputChan    <-chan WriteSet
	batchSize    int
	flushTimeout time.Duration
	metrics      *observability.Metrics
}

func NewWorker(
	db *sql.DB,
	inputChan <-chan WriteSet,
	batchSize int,
	flushTimeout time.Duration,
	metrics *observability.Metrics,
) *Worker {
	return &Worker{
		writer:       NewAuditWriter(db),
		db:           db,
		inputChan:    inputChan,
		batchSize:    batchSize,
		flushTimeout: flushTimeout,
		metrics:      metrics,
	}
}

// Run starts the worker loop. It batches incoming write sets and flushes
// either when the batch is full or the flush timeout expires. Blocks until
// ctx is cancelled or the input channel closes.
func (w *Worker) Run(ctx context.Context) error {
	entryBatch := make([]EntryRow, 0, w.batchSize)
	claimBatch := make([]ClaimRow, 0, w.batchSize)

	timer := time.NewTimer(w.flushTimeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			// Graceful shutdown: flush remaining
			if len(entryBatch) > 0 || len(claimBatch) > 0 {
				if err := w.flush(context.Background(), entryBatch, claimBatch); err != nil {
					log.Printf("ERROR: final flush failed: %v", err)
				}
			}
			return ctx.Err()

		case set, ok := <-w.inputChan:
			if !ok {
				// Channel closed, flush and exit
				if len(entryBatch) > 0 || len(claimBatch) > 0 {
					if err := w.flush(context.Background(), entryBatch, claimBatch); err != nil {
						log.Printf("ERROR: final flush failed: %v", err)
					}
				}
				return nil
			}

			entryBatch = append(entryBatch, set.Entries...)
			claimBatch = append(claimBatch, set.Claims...)

			if len(entryBatch) >= w.batchSize {
				if err := w.flushWithRetry(ctx, entryBatch, claimBatch); err != nil {
					log.Printf("ERROR: batch flush failed after retries: %v", err)
				}
				entryBatch = entryBatch[:0]
				claimBatch = claimBatch[:0]
				timer.Reset(w.flushTimeout)
			}

		case <-timer.C:
			if len(entryBatch) > 0 || len(claimBatch) > 0 {
				if err := w.flushWithRetry(ctx, entryBatch, claimBatch); err != nil {
					log.Printf("ERROR: timeout flush failed after retries: %v", err)
				}
				entryBatch = entryBatch[:0]
				claimBatch = claimBatch[:0]
			}
			timer.Reset(w.flushTimeout)
		}
	}
}

// flushWithRetry attempts to flush with exponential backoff. The worker never
// drops audit data: it retries until the write succeeds or the context is
// cancelled, and on shutdown makes one final attempt with a fresh context.
func (w *Worker) flushWithRetry(ctx context.Context, entries []EntryRow, claims []ClaimRow) error {
	backoff := 100 * time.Millisecond
	const maxBackoff = 30 * time.Second

	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			log.Printf("WARN: persistence retry attempt %d (backoff=%v, entries=%d)",
				attempt, backoff, len(entries))
			select {
			case <-ctx.Done():
				finalErr := w.flush(context.Background(), entries, claims)
				if finalErr != nil {
					return fmt.Errorf("final flush on shutdown failed: %w", finalErr)
				}
				return nil
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}

		err := w.flush(ctx, entries, claims)
		if err == nil {
			if attempt > 0 {
				log.Printf("INFO: persistence flush succeeded after %d retries", attempt)
			}
			return nil
		}

		if w.metrics != nil {
			w.metrics.PersistRetry.Inc()
		}
	}
}

// flush writes entries and claims in a single transaction.
func (w *Worker) flush(ctx context.Context, entries []EntryRow, claims []ClaimRow) error {
	start := time.Now()

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		if w.metrics != nil {
			w.metrics.PersistErrors.WithLabelValues("tx_begin").Inc()
		}
		return err
	}
	defer tx.Rollback()

	if err := w.writer.WriteEntryBatch(ctx, tx, entries); err != nil {
		if w.metrics != nil {
			w.metrics.PersistErrors.WithLabelValues("write_entries").Inc()
		}
		return err
	}

	if err := w.writer.WriteClaimBatch(ctx, tx, claims); err != nil {
		if w.metrics != nil {
			w.metrics.PersistErrors.WithLabelValues("write_claims").Inc()
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		if w.metrics != nil {
			w.metrics.PersistErrors.WithLabelValues("tx_commit").Inc()
		}
		return err
	}

	if w.metrics != nil {
		w.metrics.PersistBatchDur.Observe(time.Since(start).Seconds())
		w.metrics.PersistBatchSize.Observe(float64(len(entries)))
		w.metrics.PersistEntriesWritten.Add(float64(len(entries)))
		w.metrics.PersistClaimsWritten.Add(float64(len(claims)))
	}

	return nil
}
