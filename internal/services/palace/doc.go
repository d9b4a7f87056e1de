// Package palace is the client-side session and synchronization layer for
// the remote marker service.
//
// Subpackages, leaves first:
//
//   - marker: the domain marker value and its wire mapping
//   - clientcreds: optional transport security for the channel
//   - storage: the durable account identifier store
//   - channel: the single reusable gRPC connection to the endpoint
//   - session: account provisioning and token lifecycle
//   - client: the four sync operations built on an authenticated session
//   - app: env-configured wiring of all of the above
//
// palacetest runs an in-process fake of both remote services for tests.
package palace
