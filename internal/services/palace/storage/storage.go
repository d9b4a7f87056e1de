// Package storage defines the durable account identifier store the session
// layer reads and writes through.
package storage

import "context"

// CredentialStore maps an endpoint to the account identifier the server
// issued for it.
//
// SetAccountID and RemoveAccountID may stage changes; they become durable
// only when Save returns nil. Reads observe staged changes.
type CredentialStore interface {
	AccountID(ctx context.Context, endpoint string) (string, bool, error)
	SetAccountID(ctx context.Context, endpoint, accountID string) error
	RemoveAccountID(ctx context.Context, endpoint string) error
	Save(ctx context.Context) error
}
