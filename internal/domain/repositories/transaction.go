package repositories

import "context"

// TxFn runs inside a transaction; the transaction is carried in ctx
type TxFn func(ctx context.Context) error

// TransactionManager runs functions within database transactions. Services
// depend on this interface so business logic stays free of pgx specifics.
type TransactionManager interface {
	// ExecTx begins a transaction, runs fn with it in the context, and
	// commits; any error from fn rolls everything back
	ExecTx(ctx context.Context, fn TxFn) error
}
