package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"eco-kart/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// store is an in-memory stand-in for the ledger tables. Writes are staged on
// a fakeTx and only become visible on Commit.
type store struct {
	mu          sync.Mutex
	balances    map[uuid.UUID]int64
	entries     []model.LedgerEntry
	redemptions map[uuid.UUID]model.Redemption

	beginErr  error
	commitErr error
	// readDelay widens the window between reading and writing a balance.
	readDelay time.Duration
}

func newStore() *store {
	return &store{
		balances:    make(map[uuid.UUID]int64),
		redemptions: make(map[uuid.UUID]model.Redemption),
	}
}

type fakeTx struct {
	pgx.Tx
	s           *store
	balances    map[uuid.UUID]int64
	entries     []model.LedgerEntry
	redemptions map[uuid.UUID]model.Redemption
	done        bool
	committed   bool
	rolledBack  bool
}

func (tx *fakeTx) Commit(ctx context.Context) error {
	if tx.done {
		return pgx.ErrTxClosed
	}
	tx.done = true
	if err := ctx.Err(); err != nil {
		return err
	}
	if tx.s.commitErr != nil {
		return tx.s.commitErr
	}
	tx.s.mu.Lock()
	defer tx.s.mu.Unlock()
	for id, b := range tx.balances {
		tx.s.balances[id] = b
	}
	tx.s.entries = append(tx.s.entries, tx.entries...)
	for id, r := range tx.redemptions {
		tx.s.redemptions[id] = r
	}
	tx.committed = true
	return nil
}

func (tx *fakeTx) Rollback(ctx context.Context) error {
	if tx.done {
		return pgx.ErrTxClosed
	}
	tx.done = true
	tx.rolledBack = true
	return nil
}

type fakeLedgerRepo struct {
	s *store
}

func (r *fakeLedgerRepo) BeginTx(ctx context.Context) (pgx.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.s.beginErr != nil {
		return nil, r.s.beginErr
	}
	return &fakeTx{
		s:           r.s,
		balances:    make(map[uuid.UUID]int64),
		redemptions: make(map[uuid.UUID]model.Redemption),
	}, nil
}

func (r *fakeLedgerRepo) LockAccount(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (int64, error) {
	ftx := tx.(*fakeTx)
	if b, ok := ftx.balances[userID]; ok {
		return b, nil
	}
	r.s.mu.Lock()
	b := r.s.balances[userID]
	r.s.mu.Unlock()
	if r.s.readDelay > 0 {
		time.Sleep(r.s.readDelay)
	}
	return b, nil
}

func (r *fakeLedgerRepo) AppendEntry(ctx context.Context, tx pgx.Tx, entry *model.LedgerEntry) error {
	ftx := tx.(*fakeTx)
	ftx.entries = append(ftx.entries, *entry)
	return nil
}

func (r *fakeLedgerRepo) SetBalance(ctx context.Context, tx pgx.Tx, userID uuid.UUID, balance int64) error {
	tx.(*fakeTx).balances[userID] = balance
	return nil
}

func (r *fakeLedgerRepo) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.balances[userID], nil
}

func (r *fakeLedgerRepo) Entries(ctx context.Context, userID uuid.UUID, limit int) ([]model.LedgerEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.LedgerEntry
	for i := len(r.s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if r.s.entries[i].UserID == userID {
			out = append(out, r.s.entries[i])
		}
	}
	return out, nil
}

// sum returns the committed sum of deltas for a user.
func (s *store) sum(userID uuid.UUID) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total int64
	for _, e := range s.entries {
		if e.UserID == userID {
			total += e.Delta
		}
	}
	return total
}

type fakeRedemptionRepo struct {
	s *store
}

func (r *fakeRedemptionRepo) get(tx *fakeTx, id uuid.UUID) (model.Redemption, bool) {
	if red, ok := tx.redemptions[id]; ok {
		return red, true
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	red, ok := r.s.redemptions[id]
	return red, ok
}

func (r *fakeRedemptionRepo) Create(ctx context.Context, tx pgx.Tx, redemption *model.Redemption) error {
	tx.(*fakeTx).redemptions[redemption.ID] = *redemption
	return nil
}

func (r *fakeRedemptionRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Redemption, error) {
	red, ok := r.get(tx.(*fakeTx), id)
	if !ok {
		return nil, nil
	}
	return &red, nil
}

func (r *fakeRedemptionRepo) Update(ctx context.Context, tx pgx.Tx, redemption *model.Redemption) error {
	tx.(*fakeTx).redemptions[redemption.ID] = *redemption
	return nil
}

func (r *fakeRedemptionRepo) ListByOrder(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) ([]model.Redemption, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Redemption
	for _, red := range r.s.redemptions {
		if red.OrderID != nil && *red.OrderID == orderID {
			out = append(out, red)
		}
	}
	return out, nil
}

func (r *fakeRedemptionRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Redemption, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Redemption
	for _, red := range r.s.redemptions {
		if red.UserID == userID {
			out = append(out, red)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RedeemedAt.After(out[j].RedeemedAt) })
	return out, nil
}
