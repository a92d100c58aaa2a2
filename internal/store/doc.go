// Package store defines the persistence interfaces for the review engine
// and shared helpers for working with database transactions. Concrete
// implementations live in internal/platform/postgres; services depend only
// on the interfaces here so the storage backend can be swapped without
// touching scheduling or quota logic.
package store
