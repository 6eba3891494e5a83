// Package metrics declares the hook surface that statistics-collection
// infrastructure implements. The message center and its collaborators
// call these hooks at well-defined points; wiring them to an actual
// collector (Prometheus, StatsD, or otherwise) is left to the host.
//
// Hooked events:
//   - Connection open/close transitions
//   - Message send/reject outcomes
//   - Dial attempts and their latency
//   - Live gateway count changes
package metrics
