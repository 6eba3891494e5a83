// Package discovery provides the REST client GatewayManager uses to learn
// the cluster's current set of live gateway endpoints.
//
// Endpoint:
//   - GET /gateways -> the current live set
//
// Requests are optionally signed with auth.Credentials using the same
// RSA-PSS scheme the teacher repo uses for its exchange API.
package discovery
