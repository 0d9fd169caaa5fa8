// Package store persists the coin catalog in SQLite and implements the
// persistence side of the curation engine.
//
// The Store manages the connection, embedded migrations, busy retries, and
// the transactional updates lifecycle commands rely on: face swaps, reference
// promotion, transfers, soft deletes, and attribute marks. It also answers
// the ruler association queries the resolver needs (leaf-name ambiguity,
// claim and release by predicate, manual toggles).
//
// A partial unique index on coin_type_samples enforces at most one live
// reference sample per coin type; multi-row role changes therefore run inside
// a single transaction that demotes before it promotes.
package store
