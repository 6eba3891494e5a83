// Package center implements the ClientMessageCenter from
// SPEC_FULL.md §4.2-§4.6: the public send/receive surface that
// multiplexes outbound Messages across a ConnectionPool via a sticky
// hash-bucket routing table, and surfaces inbound Messages to
// registered category handlers or a single-reader queue.
//
// Grounded on the teacher's internal/router package for the buffer
// (GrowableBuffer) and the single-reader dispatch loop shape, and on
// internal/market/impl.go for the Start/Stop lifecycle idiom.
package center
