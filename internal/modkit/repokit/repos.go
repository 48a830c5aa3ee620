// Package repokit provides common types and helpers for repository implementations
package repokit

import (
	"context"

	"marketfeed/internal/platform/store"
)

// Queryer is the minimal read and write surface for SQL repos
type Queryer = store.RowQuerier

// TxRunner can execute a function inside a transaction
type TxRunner = store.TxRunner

type (
	// Rows are the result set of a query
	Rows = store.Rows
	// Row is a single row result from a query
	Row = store.Row
	// CommandTag is the result of a command that modifies data
	CommandTag = store.CommandTag
)

// WithTx runs fn inside a transaction and binds the repo to the tx queryer
func WithTx[T any](ctx context.Context, tx TxRunner, b Binder[T], fn func(r T) error) error {
	return tx.Tx(ctx, func(q Queryer) error { return fn(b.Bind(q)) })
}
