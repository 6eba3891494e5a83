// Package model defines the shared data types that flow between the
// gateway manager, connection pool, and message center.
//
// Conventions:
//   - Endpoint identifies one gateway's network address plus a generation
//     used to tell two dial attempts at the same address apart.
//   - ActorId identifies an addressable actor; its hash is stable across
//     processes and is never cryptographic.
//   - Message is opaque payload plus routing metadata; wire framing is not
//     this package's concern.
package model
