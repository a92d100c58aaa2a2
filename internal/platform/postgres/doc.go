// Package postgres provides PostgreSQL implementations of the store
// interfaces defined in internal/store. All implementations accept a
// store.DBTX so they work identically over a connection pool or inside a
// transaction, and they map driver errors to the store's sentinel errors
// so callers never depend on PostgreSQL specifics.
package postgres
