// Package memory provides an in-memory implementation of the ledger storage
// contracts. It backs local development (STORAGE_BACKEND=memory) and the
// engine's concurrency tests: atomic units take per-account locks exactly
// like the PostgreSQL backend's row locks, stage their writes, and commit or
// discard them as a whole.
package memory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/demo-credit-wallet/internal/domain/account"
	"github.com/demo-credit-wallet/internal/domain/ledger"
	"github.com/demo-credit-wallet/internal/domain/outbox"
	"github.com/demo-credit-wallet/internal/engine"
)

// Store is a thread-safe in-memory account store, ledger log and outbox
type Store struct {
	mapMu    sync.Mutex // protects accounts, emails and locks maps
	accounts map[int64]*account.Account
	emails   map[string]int64
	locks    map[int64]*sync.Mutex // one lock per account row

	logMu   sync.RWMutex // protects entries and messages
	entries []*ledger.Entry
	outbox  []*outbox.Message

	nextAccountID atomic.Int64
	nextEntryID   atomic.Int64
	nextOutboxID  atomic.Int64
}

var (
	_ engine.UnitOfWork  = (*Store)(nil)
	_ account.Repository = (*Store)(nil)
	_ ledger.Repository  = (*Store)(nil)
	_ outbox.Repository  = (*Store)(nil)
)

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{
		accounts: make(map[int64]*account.Account),
		emails:   make(map[string]int64),
		locks:    make(map[int64]*sync.Mutex),
	}
}

// Create stores a new account and assigns its id
func (s *Store) Create(_ context.Context, acc *account.Account) error {
	s.mapMu.Lock()
	defer s.mapMu.Unlock()

	if _, exists := s.emails[acc.Email]; exists {
		return account.ErrDuplicateEmail{Email: acc.Email}
	}

	acc.ID = s.nextAccountID.Add(1)
	stored := *acc
	s.accounts[acc.ID] = &stored
	s.emails[acc.Email] = acc.ID
	s.locks[acc.ID] = &sync.Mutex{}
	return nil
}

// GetByID retrieves a snapshot of an account. The read blocks while an atomic
// unit holds the account's lock, so it never observes an uncommitted balance.
func (s *Store) GetByID(_ context.Context, id int64) (*account.Account, error) {
	ptr, lock, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	lock.Lock()
	snapshot := *ptr
	lock.Unlock()
	return &snapshot, nil
}

// GetByEmail retrieves an account by email, or nil, nil when absent
func (s *Store) GetByEmail(ctx context.Context, email string) (*account.Account, error) {
	s.mapMu.Lock()
	id, exists := s.emails[email]
	s.mapMu.Unlock()
	if !exists {
		return nil, nil
	}
	return s.GetByID(ctx, id)
}

// ListForAccount returns committed entries for an account, newest first
func (s *Store) ListForAccount(_ context.Context, accountID int64, limit, offset int) ([]*ledger.Entry, error) {
	s.logMu.RLock()
	defer s.logMu.RUnlock()

	var matched []*ledger.Entry
	// Entries are committed in chronological order; walk backwards for newest first
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].AccountID == accountID {
			matched = append(matched, s.entries[i])
		}
	}

	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if limit < len(matched) {
		matched = matched[:limit]
	}

	result := make([]*ledger.Entry, len(matched))
	for i, e := range matched {
		copied := *e
		result[i] = &copied
	}
	return result, nil
}

// CountForAccount counts committed entries for an account
func (s *Store) CountForAccount(_ context.Context, accountID int64) (int64, error) {
	s.logMu.RLock()
	defer s.logMu.RUnlock()

	var count int64
	for _, e := range s.entries {
		if e.AccountID == accountID {
			count++
		}
	}
	return count, nil
}

// SumForAccount returns the signed sum of committed entries for an account
func (s *Store) SumForAccount(_ context.Context, accountID int64) (int64, error) {
	s.logMu.RLock()
	defer s.logMu.RUnlock()
	return s.sumLocked(accountID), nil
}

func (s *Store) sumLocked(accountID int64) int64 {
	var sum int64
	for _, e := range s.entries {
		if e.AccountID == accountID {
			sum += e.Signed()
		}
	}
	return sum
}

// GetPending returns pending outbox messages in FIFO order
func (s *Store) GetPending(_ context.Context, limit int) ([]*outbox.Message, error) {
	s.logMu.RLock()
	defer s.logMu.RUnlock()

	var pending []*outbox.Message
	for _, m := range s.outbox {
		if m.Status == outbox.StatusPending {
			copied := *m
			pending = append(pending, &copied)
			if len(pending) == limit {
				break
			}
		}
	}
	return pending, nil
}

// UpdateStatus updates an outbox message's status
func (s *Store) UpdateStatus(_ context.Context, id int64, status outbox.Status) error {
	s.logMu.Lock()
	defer s.logMu.Unlock()

	for _, m := range s.outbox {
		if m.ID == id {
			m.Status = status
			now := time.Now().UTC()
			m.LastAttemptAt = &now
			return nil
		}
	}
	return outbox.ErrMessageNotFound{ID: id}
}

// IncrementAttempts increments an outbox message's attempt counter
func (s *Store) IncrementAttempts(_ context.Context, id int64) error {
	s.logMu.Lock()
	defer s.logMu.Unlock()

	for _, m := range s.outbox {
		if m.ID == id {
			m.Attempts++
			now := time.Now().UTC()
			m.LastAttemptAt = &now
			return nil
		}
	}
	return outbox.ErrMessageNotFound{ID: id}
}

// Execute runs fn as one atomic unit. Account locks are acquired lazily by
// GetForUpdate and held until the unit completes; writes are staged and only
// applied when fn returns nil.
func (s *Store) Execute(ctx context.Context, fn func(ctx context.Context, st engine.Stores) error) error {
	u := &unit{
		store:    s,
		held:     make(map[int64]*sync.Mutex),
		balances: make(map[int64]int64),
	}
	defer u.release()

	if err := fn(ctx, engine.Stores{Accounts: u, Ledger: u, Outbox: u}); err != nil {
		return err // staged writes are discarded
	}

	u.commit()
	return nil
}

func (s *Store) lookup(id int64) (*account.Account, *sync.Mutex, error) {
	s.mapMu.Lock()
	defer s.mapMu.Unlock()

	ptr, exists := s.accounts[id]
	if !exists {
		return nil, nil, account.ErrAccountNotFound{AccountID: id}
	}
	return ptr, s.locks[id], nil
}

// unit is the transaction-scoped view handed to the engine's callback
type unit struct {
	store    *Store
	held     map[int64]*sync.Mutex
	balances map[int64]int64 // staged balance per account id
	entries  []*ledger.Entry
	messages []*outbox.Message
}

// GetForUpdate locks the account row for the remainder of the unit and
// returns its current state (with any balance staged earlier in this unit).
func (u *unit) GetForUpdate(_ context.Context, id int64) (*account.Account, error) {
	ptr, lock, err := u.store.lookup(id)
	if err != nil {
		return nil, err
	}

	if _, alreadyHeld := u.held[id]; !alreadyHeld {
		// Blocks until a conflicting unit completes, like a row lock
		lock.Lock()
		u.held[id] = lock
	}

	snapshot := *ptr
	if staged, ok := u.balances[id]; ok {
		snapshot.Balance = staged
	}
	return &snapshot, nil
}

// UpdateBalance stages the new balance for a row locked earlier in the unit
func (u *unit) UpdateBalance(_ context.Context, id int64, newBalance int64) error {
	if _, locked := u.held[id]; !locked {
		return fmt.Errorf("account %d not locked in this unit", id)
	}
	u.balances[id] = newBalance
	return nil
}

// Append stages a ledger entry and returns its assigned id. Ids come from a
// monotonic counter; units that roll back leave gaps, like database sequences.
func (u *unit) Append(_ context.Context, entry *ledger.Entry) (int64, error) {
	id := u.store.nextEntryID.Add(1)
	staged := *entry
	staged.ID = id
	u.entries = append(u.entries, &staged)
	return id, nil
}

// SumForAccount returns the signed entry sum visible to this unit: committed
// entries plus those staged within the unit.
func (u *unit) SumForAccount(_ context.Context, accountID int64) (int64, error) {
	u.store.logMu.RLock()
	sum := u.store.sumLocked(accountID)
	u.store.logMu.RUnlock()

	for _, e := range u.entries {
		if e.AccountID == accountID {
			sum += e.Signed()
		}
	}
	return sum, nil
}

// Create stages an outbox message
func (u *unit) Create(_ context.Context, message *outbox.Message) error {
	staged := *message
	staged.ID = u.store.nextOutboxID.Add(1)
	message.ID = staged.ID
	u.messages = append(u.messages, &staged)
	return nil
}

func (u *unit) commit() {
	now := time.Now().UTC()

	u.store.mapMu.Lock()
	for id, balance := range u.balances {
		// The account's lock is held by this unit, so the write is exclusive
		acc := u.store.accounts[id]
		acc.Balance = balance
		acc.UpdatedAt = now
	}
	u.store.mapMu.Unlock()

	u.store.logMu.Lock()
	u.store.entries = append(u.store.entries, u.entries...)
	u.store.outbox = append(u.store.outbox, u.messages...)
	u.store.logMu.Unlock()
}

func (u *unit) release() {
	for _, lock := range u.held {
		lock.Unlock()
	}
	u.held = nil
}
