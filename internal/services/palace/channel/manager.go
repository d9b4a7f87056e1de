// Package channel owns the single lazily created connection to the palace
// endpoint.
package channel

import (
	"context"
	"fmt"
	"sync"
	"time"

	apperrors "github.com/louisbranch/palacesync/internal/platform/errors"
	platformgrpc "github.com/louisbranch/palacesync/internal/platform/grpc"
	"github.com/louisbranch/palacesync/internal/platform/timeouts"
	"github.com/louisbranch/palacesync/internal/services/palace/clientcreds"
	"github.com/louisbranch/palacesync/internal/services/shared/grpcauthctx"
	"github.com/louisbranch/palacesync/internal/services/shared/grpcdial"
	"google.golang.org/grpc"
)

const serviceLabel = "palace"

// Config configures a Manager.
type Config struct {
	// Endpoint is the fixed server endpoint.
	Endpoint string
	// Identity is sent as the user agent on every call.
	Identity grpcauthctx.ClientIdentity
	// Credentials selects transport security. Nil means plaintext.
	Credentials clientcreds.Provider
	// ConnectTimeout bounds reaching the ready state. Defaults to
	// timeouts.Connect.
	ConnectTimeout time.Duration
	// Dialer overrides client construction in tests.
	Dialer platformgrpc.Dialer
	// DialOptions are appended after the defaults.
	DialOptions []grpc.DialOption
	// Logf receives diagnostic messages. Nil disables logging.
	Logf func(string, ...any)
}

// Manager holds at most one live connection. It is safe for concurrent use;
// calls to Ensure are serialized.
type Manager struct {
	cfg    Config
	target Target

	mu   sync.Mutex
	conn *grpc.ClientConn
}

// New validates cfg and returns a Manager without dialing.
func New(cfg Config) (*Manager, error) {
	target, err := ParseTarget(cfg.Endpoint)
	if err != nil {
		return nil, err
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = timeouts.Connect
	}
	if cfg.Credentials == nil {
		cfg.Credentials = clientcreds.None{}
	}
	return &Manager{cfg: cfg, target: target}, nil
}

// Target returns the normalized dial target.
func (m *Manager) Target() Target {
	return m.target
}

// Ensure returns a ready connection, reusing the cached one while it is
// READY or IDLE. Any other state disposes it and dials again. A failed dial
// leaves nothing cached.
func (m *Manager) Ensure(ctx context.Context) (*grpc.ClientConn, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if platformgrpc.Reusable(m.conn) {
		return m.conn, nil
	}
	m.closeLocked()

	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeConnectionFailed, "connect to "+m.target.Address, err)
	}

	opts, err := m.dialOptions()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeConnectionFailed, "load transport credentials", err)
	}
	conn, err := grpcdial.DialReady(ctx, m.cfg.Dialer, m.target.Address, m.cfg.ConnectTimeout, serviceLabel, m.cfg.Logf, opts...)
	if err != nil {
		m.logf("palace channel unavailable: %v", err)
		return nil, apperrors.Wrap(apperrors.CodeConnectionFailed, "connect to "+m.target.Address, err)
	}
	m.conn = conn
	return conn, nil
}

// Close releases the cached connection. It is a no-op when none is held and
// safe to call repeatedly.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeLocked()
}

func (m *Manager) closeLocked() error {
	if m.conn == nil {
		return nil
	}
	conn := m.conn
	m.conn = nil
	if err := conn.Close(); err != nil {
		return fmt.Errorf("close palace channel: %w", err)
	}
	return nil
}

func (m *Manager) dialOptions() ([]grpc.DialOption, error) {
	creds, ok, err := m.cfg.Credentials.TransportCredentials()
	if err != nil {
		return nil, err
	}
	if !ok {
		creds = nil
	}
	opts := platformgrpc.DefaultClientDialOptions(creds, m.cfg.ConnectTimeout)
	opts = append(opts, m.cfg.Identity.DialOption())
	return append(opts, m.cfg.DialOptions...), nil
}

func (m *Manager) logf(format string, args ...any) {
	if m.cfg.Logf != nil {
		m.cfg.Logf(format, args...)
	}
}
