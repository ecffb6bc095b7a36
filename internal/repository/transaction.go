package repository

import (
	"context"
	"sync"

	"gorm.io/gorm"
)

type TxManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// TransactionManager serializes every mutation behind one process-wide
// mutex. Dispatch is rate limited by the provider, so correctness wins
// over write throughput here.
type TransactionManager struct {
	db *gorm.DB
	mu sync.Mutex
}

func NewTransactionManager(db *gorm.DB) TxManager {
	return &TransactionManager{db: db}
}

func (tm *TransactionManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	return tm.db.Transaction(func(tx *gorm.DB) error {
		ctx = context.WithValue(ctx, "tx", tx)
		return fn(ctx)
	})
}

func GetTx(ctx context.Context, db *gorm.DB) *gorm.DB {
	tx, ok := ctx.Value("tx").(*gorm.DB)
	if !ok {
		return db
	}
	return tx
}
