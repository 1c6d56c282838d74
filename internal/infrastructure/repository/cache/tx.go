package cache

import "context"

type txRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type txKey struct{}

// TxManager marks the transaction context so the decorators read through.
// A load inside a transaction may see uncommitted rows, and a cached value
// may predate a write made earlier in the same transaction.
type TxManager struct {
	next txRunner
}

func NewTxManager(next txRunner) *TxManager {
	return &TxManager{next: next}
}

func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.next.WithinTx(ctx, func(ctx context.Context) error {
		return fn(context.WithValue(ctx, txKey{}, true))
	})
}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}
