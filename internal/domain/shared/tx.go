package shared

import "context"

// Transactor runs fn inside a single storage transaction. Repositories called
// with the context passed to fn take part in that transaction.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// NoopTransactor runs fn directly. Useful for in-memory stores and tests.
type NoopTransactor struct{}

// InTx calls fn with ctx unchanged.
func (NoopTransactor) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
