// Package config loads and validates the client host's YAML
// configuration: instance identity, the discovery API endpoint and its
// signing credentials, and the tunables for gateway reconciliation, the
// connection pool, the transport dialer, and the message center.
//
// Grounded on the teacher's internal/config loader
// (Load -> LoadWithDefaults -> LoadAndValidate), generalized from the
// exchange-gatherer's API/Database/Connections/Writers/Poller/Metrics
// sections to this subsystem's own sections.
package config
