// Package gateway implements the GatewayManager contract from
// SPEC_FULL.md §4.7: a live set of gateway URIs fed by an initial
// blocking discovery sync, kept fresh by a periodic bounded-concurrency
// reconciliation loop, with sticky random selection for new buckets and
// a dead-mark escape hatch for connections that fail after selection.
//
// Grounded on the teacher's internal/market registry (registryImpl,
// reconciliationLoop) for the sync/reconcile split and
// internal/poller's semaphore-bounded fan-out for the reconciliation
// worker pool.
package gateway
