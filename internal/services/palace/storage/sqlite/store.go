package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/louisbranch/palacesync/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/palacesync/internal/services/palace/storage"
	"github.com/louisbranch/palacesync/internal/services/palace/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

var _ storage.CredentialStore = (*Store)(nil)

// Store implements storage.CredentialStore over SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time

	mu sync.Mutex
	// pending holds staged writes; a nil value stages a removal.
	pending map[string]*string
}

// Open opens a credential store and applies bundled migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(FULL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.Apply(context.Background(), sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{
		sqlDB:   sqlDB,
		now:     time.Now,
		pending: make(map[string]*string),
	}, nil
}

// Close releases the database. Unsaved changes are discarded.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// AccountID returns the identifier for endpoint, staged changes first.
func (s *Store) AccountID(ctx context.Context, endpoint string) (string, bool, error) {
	s.mu.Lock()
	staged, ok := s.pending[endpoint]
	s.mu.Unlock()
	if ok {
		if staged == nil {
			return "", false, nil
		}
		return *staged, true, nil
	}

	var accountID string
	err := s.sqlDB.QueryRowContext(ctx,
		"SELECT account_id FROM accounts WHERE endpoint = ?", endpoint,
	).Scan(&accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get account id: %w", err)
	}
	return accountID, true, nil
}

// SetAccountID stages an identifier for endpoint.
func (s *Store) SetAccountID(_ context.Context, endpoint, accountID string) error {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return fmt.Errorf("account id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[endpoint] = &accountID
	return nil
}

// RemoveAccountID stages removal of endpoint's identifier.
func (s *Store) RemoveAccountID(_ context.Context, endpoint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[endpoint] = nil
	return nil
}

// Save writes all staged changes in one transaction. Staged changes are kept
// if the write fails.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return nil
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	updatedAt := s.now().UTC().UnixMilli()
	for endpoint, accountID := range s.pending {
		if accountID == nil {
			_, err = tx.ExecContext(ctx, "DELETE FROM accounts WHERE endpoint = ?", endpoint)
		} else {
			_, err = tx.ExecContext(ctx, `
INSERT INTO accounts (endpoint, account_id, updated_at) VALUES (?, ?, ?)
ON CONFLICT(endpoint) DO UPDATE SET account_id = excluded.account_id, updated_at = excluded.updated_at`,
				endpoint, *accountID, updatedAt)
		}
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("save account for %s: %w", endpoint, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	clear(s.pending)
	return nil
}
