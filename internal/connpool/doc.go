// Package connpool implements the ConnectionManager contract from
// SPEC_FULL.md §4.1: a pool of transport.Connection keyed by endpoint,
// at-most-one-in-flight dial per endpoint, a failure cooldown, and
// round-robin selection across a per-endpoint connection set.
package connpool
