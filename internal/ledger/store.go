// Package ledger holds the in-memory state of the exchange: markets, user
// cash balances, positions, settlements, and reward claims, plus the audit
// entry types recorded for every transfer. The store is pure storage; all
// business rules live in the engine package.
package ledger

import (
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/DZ-Ramzy/ICP-ramzy/internal/market"
)

type positionKey struct {
	user     uuid.UUID
	marketID uint64
}

// Store is the mutable ledger state. A store-level RWMutex guards the maps;
// per-market mutexes (see MarketLock) serialize whole operations on one
// market and are always acquired before the store lock.
type Store struct {
	mu           sync.RWMutex
	markets      map[uint64]*market.Market
	marketLocks  map[uint64]*sync.Mutex
	positions    map[positionKey]market.UserPosition
	balances     map[uuid.UUID]uint64
	settlements  map[uint64]market.Settlement
	claims       []market.RewardClaim
	nextMarketID uint64
}

func NewStore() *Store {
	return &Store{
		markets:      make(map[uint64]*market.Market),
		marketLocks:  make(map[uint64]*sync.Mutex),
		positions:    make(map[positionKey]market.UserPosition),
		balances:     make(map[uuid.UUID]uint64),
		settlements:  make(map[uint64]market.Settlement),
		nextMarketID: 1,
	}
}

// === Markets ===

// InsertMarket assigns the next sequential id, stores a copy of the market,
// and returns the id.
func (s *Store) InsertMarket(m *market.Market) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextMarketID
	s.nextMarketID++

	stored := m.Clone()
	stored.ID = id
	s.markets[id] = stored
	s.marketLocks[id] = &sync.Mutex{}
	return id
}

// Market returns a copy of the market, safe to read without any lock held.
func (s *Store) Market(id uint64) (*market.Market, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.markets[id]
	if !ok {
		return nil, false
	}
	return m.Clone(), true
}

// UpdateMarket replaces the stored market. The caller must hold the market's
// lock; updating a market that was never inserted is a bookkeeping bug.
func (s *Store) UpdateMarket(m *market.Market) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.markets[m.ID]; !ok {
		panic("ledger: update of unknown market")
	}
	s.markets[m.ID] = m.Clone()
}

// Markets returns copies of all markets ordered by id.
func (s *Store) Markets() []*market.Market {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*market.Market, 0, len(s.markets))
	for _, m := range s.markets {
		out = append(out, m.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// MarketLock returns the mutex serializing operations on one market.
func (s *Store) MarketLock(id uint64) (*sync.Mutex, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mu, ok := s.marketLocks[id]
	return mu, ok
}

// === Balances ===

// Balance returns the user's cash balance; unknown users hold zero.
func (s *Store) Balance(user uuid.UUID) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balances[user]
}

// Credit adds amount to the user's balance and returns the new balance.
// Fails closed on overflow rather than wrapping.
func (s *Store) Credit(user uuid.UUID, amount uint64) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.balances[user]
	if current > math.MaxUint64-amount {
		return current, market.ErrInvalidAmount
	}
	s.balances[user] = current + amount
	return current + amount, nil
}

// Debit checks and subtracts amount from the user's balance in one step.
func (s *Store) Debit(user uuid.UUID, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.balances[user]
	if current < amount {
		return market.ErrInsufficientDeposit
	}
	s.balances[user] = current - amount
	return nil
}

// === Positions ===

// Position returns the user's position in a market, if one exists.
func (s *Store) Position(user uuid.UUID, marketID uint64) (market.UserPosition, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.positions[positionKey{user, marketID}]
	return p, ok
}

// UpsertPosition stores the position, creating it on first write.
func (s *Store) UpsertPosition(p market.UserPosition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions[positionKey{p.User, p.MarketID}] = p
}

// PositionsByMarket returns all positions in one market.
func (s *Store) PositionsByMarket(marketID uint64) []market.UserPosition {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []market.UserPosition
	for key, p := range s.positions {
		if key.marketID == marketID {
			out = append(out, p)
		}
	}
	return out
}

// PositionsByUser returns all of one user's positions ordered by market id.
func (s *Store) PositionsByUser(user uuid.UUID) []market.UserPosition {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []market.UserPosition
	for key, p := range s.positions {
		if key.user == user {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MarketID < out[j].MarketID })
	return out
}

// === Settlements ===

// PutSettlement stores the payout snapshot for a resolved market.
func (s *Store) PutSettlement(settlement market.Settlement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settlements[settlement.MarketID] = settlement
}

// Settlement returns the payout snapshot for a market, if it has resolved.
func (s *Store) Settlement(marketID uint64) (market.Settlement, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.settlements[marketID]
	return st, ok
}

// DrawDownSettlement subtracts a paid reward from the settlement's remaining
// distributable amount. The caller must hold the market's lock.
func (s *Store) DrawDownSettlement(marketID uint64, amount uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.settlements[marketID]
	if !ok {
		panic("ledger: draw down on unsettled market")
	}
	if st.Remaining < amount {
		panic("ledger: settlement overdrawn")
	}
	st.Remaining -= amount
	s.settlements[marketID] = st
}

// === Claims ===

// AppendClaim records a successful reward claim. Claims are append-only.
func (s *Store) AppendClaim(c market.RewardClaim) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claims = append(s.claims, c)
}

// ClaimsByUser returns all claims made by one user, oldest first.
func (s *Store) ClaimsByUser(user uuid.UUID) []market.RewardClaim {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []market.RewardClaim
	for _, c := range s.claims {
		if c.User == user {
			out = append(out, c)
		}
	}
	return out
}
