// Package kbexec gives the out-of-scope "database driver" collaborator
// (spec.md §1, §6.3) a concrete Go shape: the opaque compiled-query
// pair the compiler hands off, the session interface an execution
// driver implements, and a bounded pool modeled on the teacher's
// connection-pool-over-catalog pattern. Nothing in this package
// implements an actual wire protocol to a graph database; it exists so
// the compiler has a real collaborator to exercise.
package kbexec

import "context"

// CompiledQuery is the opaque pair the compiler produces: a
// parameterized statement and its parameter map (spec.md §6.2).
// Parameter names have the form "param<N>", optionally prefixed.
type CompiledQuery struct {
	Statement string
	Params    map[string]interface{}
}

// RowIterator iterates the rows an executed query returns. Modeled on
// the narrow cursor surface the teacher's driver package exposes over
// database/sql/driver.Rows.
type RowIterator interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
	Close() error
}

// Session executes one compiled query against the backing store.
type Session interface {
	Execute(ctx context.Context, q CompiledQuery) (RowIterator, error)
}
