// Package session holds the per-viewing-session dashboard state: the watched
// address and credential, the last known transaction set, the last error and
// the live-mode flag. The poll engine is its only writer; the presentation
// layer reads copies through Snapshot.
package session

import (
	"slices"
	"sync"
	"time"

	"github.com/Mohsinsiddi/txdash/internal/chain"
)

// State is safe for concurrent use. Writes that carry a generation are
// dropped when the state has been reset since that generation was issued,
// so a slow fetch can never overwrite a newer watch.
type State struct {
	mu sync.RWMutex

	generation uint64
	address    string
	credential string

	transactions []chain.Transaction
	lastErr      error
	live         bool
	fetched      bool
	updatedAt    time.Time
}

// Snapshot is a read-only copy of the state for rendering.
type Snapshot struct {
	Address        string
	Transactions   []chain.Transaction
	LastError      error
	LiveMode       bool
	FetchCompleted bool
	UpdatedAt      time.Time
}

// New returns an empty state.
func New() *State {
	return &State{}
}

// Begin starts a new watch: every field except the live-mode flag is cleared
// and the credential/address pair is recorded. It returns the generation that
// subsequent writes for this watch must present.
func (s *State) Begin(credential, address string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
	s.credential = credential
	s.address = address
	return s.generation
}

// Reset tears the watch down. The live-mode flag is kept.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
}

func (s *State) clearLocked() {
	s.generation++
	s.address = ""
	s.credential = ""
	s.transactions = nil
	s.lastErr = nil
	s.fetched = false
	s.updatedAt = time.Time{}
}

// Watch returns the active credential/address pair and its generation. ok is
// false when no watch is active.
func (s *State) Watch() (credential, address string, gen uint64, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.address == "" || s.credential == "" {
		return "", "", s.generation, false
	}
	return s.credential, s.address, s.generation, true
}

// Generation returns the current generation.
func (s *State) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Replace swaps the held transactions wholesale, clears the last error and
// marks the session as having completed a fetch. It reports false, changing
// nothing, when gen is stale.
func (s *State) Replace(gen uint64, txs []chain.Transaction) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return false
	}
	s.transactions = slices.Clone(txs)
	if s.transactions == nil {
		s.transactions = []chain.Transaction{}
	}
	s.lastErr = nil
	s.fetched = true
	s.updatedAt = time.Now()
	return true
}

// Fail records err for the watch and drops any held transactions.
func (s *State) Fail(gen uint64, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return false
	}
	s.transactions = nil
	s.lastErr = err
	s.updatedAt = time.Now()
	return true
}

// Held returns a copy of the held transactions for gen, or nil and false if
// gen is stale.
func (s *State) Held(gen uint64) ([]chain.Transaction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if gen != s.generation {
		return nil, false
	}
	return slices.Clone(s.transactions), true
}

// Transactions returns a copy of the held transactions.
func (s *State) Transactions() []chain.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.transactions)
}

// LastError returns the error recorded by the last failed initial fetch.
func (s *State) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// FetchCompleted reports whether a fetch has succeeded for the current watch.
func (s *State) FetchCompleted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fetched
}

// SetLive sets the live-mode flag and reports whether it changed.
func (s *State) SetLive(on bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := s.live != on
	s.live = on
	return changed
}

// Live reports whether live mode is enabled.
func (s *State) Live() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.live
}

// Snapshot returns a copy of everything the presentation layer reads.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Address:        s.address,
		Transactions:   slices.Clone(s.transactions),
		LastError:      s.lastErr,
		LiveMode:       s.live,
		FetchCompleted: s.fetched,
		UpdatedAt:      s.updatedAt,
	}
}
