// Package store persists GatewayManager's live-set seed across restarts.
//
// This is membership-cache persistence only: no Message ever touches the
// store, so it does not conflict with the "no persistence of queued
// messages across restarts" non-goal (see SPEC_FULL.md §1, §4.7).
package store
