// Package metrics provides operational metrics for the sync client.
//
// # Metric Categories
//
//   - Sessions: login outcomes, accounts provisioned and invalidated
//   - Operations: sync operation outcomes by operation and result
//
// # Integration
//
// A Recorder registers its collectors on a caller-supplied Registerer so a
// host can expose them alongside its own. A nil *Recorder is valid and
// records nothing.
package metrics
