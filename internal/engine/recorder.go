package engine

import (
	"github.com/DZ-Ramzy/ICP-ramzy/internal/feed"
	"github.com/DZ-Ramzy/ICP-ramzy/internal/ledger"
	"github.com/DZ-Ramzy/ICP-ramzy/internal/market"
)

// Record is the output of one successful ledger operation: the audit batch
// for the persistence worker, the reward claim if the operation paid one,
// and the event for the outbound feed. Batch is nil for operations that
// move no money.
type Record struct {
	Batch *ledger.Batch
	Claim *market.RewardClaim
	Event feed.Event
}

// Recorder receives one Record per successful operation, in commit order for
// any single market. The daemon bridges records onto the persistence and
// feed channels; persistence enqueue blocks so audit data is never lost,
// feed enqueue drops when full because the feed is best-effort.
type Recorder interface {
	Record(Record)
}

// NopRecorder discards records. Used by tools that replay state without
// persistence or a feed.
type NopRecorder struct{}

func (NopRecorder) Record(Record) {}
