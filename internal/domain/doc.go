// Package domain contains the core entities of the review scheduling
// engine: card learning states, review ratings, word metadata, and the
// per-day quota usage records. Domain types validate themselves but
// perform no I/O; all persistence goes through the store interfaces.
package domain
