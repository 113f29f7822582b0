// Package reputation implements the grade engine for the APIDock knowledge
// base: the point ledger, the score-to-tier calculator, and upgrade
// detection.
//
// # Model
//
// Every point-earning action (submitting an API listing, having one
// approved, editing a wiki page, commenting, bulk CSV imports) is recorded
// as an immutable ActivityEvent. The sum of a user's event points is the
// authoritative definition of their activity score; the per-user running
// total kept by the store is a cache of that sum and is reconcilable from
// the event log at any time (see Reconciler).
//
// A user's grade tier (bronze < silver < gold < admin) is always a pure
// function of their activity score and admin flag, never stored as a source
// of truth. Tier thresholds and action point values are configuration,
// validated at startup.
//
// # Concurrency
//
// Calculator and CheckUpgrade are pure and safe for unlimited concurrent
// use. The Ledger serializes score mutation per user through the store:
// the SQL store uses a transactional compare-and-swap on the running total,
// the memory store a mutex, so two concurrent awards to the same user never
// lose an increment. A failed append leaves the score unchanged and is
// surfaced to the caller; the ledger never retries persistence itself.
package reputation
