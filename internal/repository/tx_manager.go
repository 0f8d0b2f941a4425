package repository

import (
	"context"

	"gorm.io/gorm"
)

type contextKey string

const (
	txKey    contextKey = "gorm_tx"
	hooksKey contextKey = "gorm_tx_hooks"
)

// TransactionManager manages database transactions via context injection.
// Every lifecycle-mutating operation runs inside exactly one transaction
// spanning the read of current state, the conditional write, and the history
// row insert.
type TransactionManager interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
	RunInSavepoint(ctx context.Context, fn func(txCtx context.Context) error) error
}

type transactionManager struct {
	db *gorm.DB
}

func NewTransactionManager(db *gorm.DB) TransactionManager {
	return &transactionManager{db: db}
}

type commitHooks struct {
	fns []func()
}

// RunInTx starts a transaction and injects it into the context. When the
// context already carries a transaction the callback joins it instead of
// opening a nested one — this is how the loan workflow invokes the lifecycle
// engine atomically. Hooks registered with AfterCommit fire once the
// outermost transaction commits.
func (t *transactionManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if _, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return fn(ctx)
	}
	hooks := &commitHooks{}
	ctx = context.WithValue(ctx, hooksKey, hooks)
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txCtx := context.WithValue(ctx, txKey, tx)
		return fn(txCtx)
	})
	if err != nil {
		return err
	}
	for _, hook := range hooks.fns {
		hook()
	}
	return nil
}

// RunInSavepoint runs fn in a nested transaction. Inside an existing
// transaction gorm issues a SAVEPOINT, so a failing statement rolls back only
// fn's writes and the enclosing transaction stays usable — postgres would
// otherwise abort the whole transaction after any error.
func (t *transactionManager) RunInSavepoint(ctx context.Context, fn func(txCtx context.Context) error) error {
	return GetDB(ctx, t.db).Transaction(func(tx *gorm.DB) error {
		txCtx := context.WithValue(ctx, txKey, tx)
		return fn(txCtx)
	})
}

// AfterCommit defers fn until the outermost transaction in ctx commits; the
// hook is dropped when that transaction rolls back. Outside a transaction fn
// runs immediately.
func AfterCommit(ctx context.Context, fn func()) {
	if hooks, ok := ctx.Value(hooksKey).(*commitHooks); ok {
		hooks.fns = append(hooks.fns, fn)
		return
	}
	fn()
}

// GetDB extracts the transaction DB from context if present, otherwise
// returns the root DB.
func GetDB(ctx context.Context, rootDB *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return rootDB.WithContext(ctx)
}
