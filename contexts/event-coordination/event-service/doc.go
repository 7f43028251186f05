// Package eventservice implements event planning inside the
// event-coordination context.
//
// The module owns events with their candidate slots and activities, the vote
// ledger (one slot vote and one activity vote per member per event), tallies
// derived from the ledger on every read, and the owner lifecycle
// open -> finalized -> packed up with reopen. Lifecycle changes are announced
// through an outbox relayed by the worker.
package eventservice
