// Package transport implements the Connection and ConnectionFactory
// contracts declared in SPEC_FULL.md §6: one bidirectional framed
// WebSocket transport per gateway, and the dialer that produces one.
//
// Framing/serialization is out of scope for this subsystem (SPEC_FULL.md
// §1); Codec is the seam where a real wire protocol would plug in. The
// default Codec here is a plain JSON envelope with no length prefix of
// its own — gorilla/websocket already frames each message at the
// transport level — adequate for the demo host and for tests.
package transport
