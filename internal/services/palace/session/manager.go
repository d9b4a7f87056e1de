// Package session provisions the anonymous account, logs in, and caches the
// resulting token for the palace channel.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	accountv1 "github.com/louisbranch/palacesync/api/account/v1"
	apperrors "github.com/louisbranch/palacesync/internal/platform/errors"
	"github.com/louisbranch/palacesync/internal/platform/telemetry/metrics"
	"github.com/louisbranch/palacesync/internal/platform/timeouts"
	"github.com/louisbranch/palacesync/internal/services/palace/storage"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// maxLoginAttempts bounds re-provisioning after the server rejects the
// stored account: one fresh account, then give up.
const maxLoginAttempts = 2

// Channels supplies the ready connection. channel.Manager implements it.
type Channels interface {
	Ensure(ctx context.Context) (*grpc.ClientConn, error)
	Close() error
}

// Config configures a Manager.
type Config struct {
	// Endpoint keys the stored account identifier.
	Endpoint string
	Mode     ModeSource
	Store    storage.CredentialStore
	Channels Channels
	// Metrics is optional.
	Metrics *metrics.Recorder
	// AccountTimeout caps account creation and login. Defaults to
	// timeouts.Account.
	AccountTimeout time.Duration
	// Now defaults to time.Now.
	Now  func() time.Time
	Logf func(string, ...any)
}

// Manager owns one cached session and the channel it rides on. Calls are
// serialized internally.
type Manager struct {
	cfg Config

	mu      sync.Mutex
	session *Session
}

// New validates cfg and returns an idle Manager.
func New(cfg Config) (*Manager, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, fmt.Errorf("session endpoint is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("credential store is required")
	}
	if cfg.Channels == nil {
		return nil, fmt.Errorf("channel manager is required")
	}
	if cfg.Mode == nil {
		cfg.Mode = StaticMode(ModeOnline)
	}
	if cfg.AccountTimeout <= 0 {
		cfg.AccountTimeout = timeouts.Account
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Manager{cfg: cfg}, nil
}

// Ensure returns an authenticated channel.
//
// Offline mode fails with CONFIGURATION_DISABLED before any network
// activity. A cached session that is still valid skips account resolution
// and login; only the channel liveness check runs. When the server rejects
// the stored account, the identifier is removed and the whole sequence runs
// once more with a freshly provisioned account.
func (m *Manager) Ensure(ctx context.Context) (Ready, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if mode := m.cfg.Mode.Mode(); mode != ModeOnline {
		return Ready{}, apperrors.WithMetadata(apperrors.CodeConfigurationDisabled,
			"palace sync is disabled", map[string]string{"mode": string(mode)})
	}

	conn, err := m.cfg.Channels.Ensure(ctx)
	if err != nil {
		if apperrors.CodeOf(err) == apperrors.CodeUnknown {
			err = apperrors.Wrap(apperrors.CodeConnectionFailed, "connect", err)
		}
		return Ready{}, err
	}

	if m.session != nil && m.session.Valid(m.cfg.Now()) {
		return Ready{Conn: conn, Token: m.session.Token}, nil
	}

	accounts := accountv1.NewAccountServiceClient(conn)
	var lastErr error
	for attempt := 1; attempt <= maxLoginAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Ready{}, apperrors.Wrap(apperrors.CodeCanceled, "authenticate", err)
		}

		accountID, err := m.resolveAccount(ctx, accounts)
		if err != nil {
			return Ready{}, err
		}

		session, invalidAccount, err := m.login(ctx, accounts, accountID)
		if err == nil {
			m.session = &session
			return Ready{Conn: conn, Token: session.Token}, nil
		}
		if !invalidAccount {
			return Ready{}, err
		}

		lastErr = err
		m.logf("server rejected account %s (attempt %d/%d)", redact(accountID), attempt, maxLoginAttempts)
		if err := m.forgetAccount(ctx); err != nil {
			return Ready{}, err
		}
	}
	return Ready{}, apperrors.Wrap(apperrors.CodeAuthFailed, "account rejected after re-provisioning", lastErr)
}

// Session returns a copy of the cached session.
func (m *Manager) Session() (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return Session{}, false
	}
	return *m.session, true
}

// Invalidate drops the cached session so the next Ensure logs in again.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
}

// Close drops the session and disposes the channel. It is idempotent.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
	return m.cfg.Channels.Close()
}

func (m *Manager) resolveAccount(ctx context.Context, accounts accountv1.AccountServiceClient) (string, error) {
	accountID, ok, err := m.cfg.Store.AccountID(ctx, m.cfg.Endpoint)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeNoAccount, "read stored account", err)
	}
	if accountID = strings.TrimSpace(accountID); ok && accountID != "" {
		return accountID, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, m.cfg.AccountTimeout)
	defer cancel()
	reply, err := accounts.CreateAccount(callCtx, &accountv1.CreateAccountRequest{})
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeNoAccount, "create account", err)
	}
	if !reply.GetSuccess() {
		return "", apperrors.New(apperrors.CodeNoAccount, "create account was rejected")
	}
	accountID = strings.TrimSpace(reply.GetAccountID())
	if _, err := uuid.Parse(accountID); err != nil {
		return "", apperrors.Wrap(apperrors.CodeNoAccount, "create account returned an unusable identifier", err)
	}

	if err := m.cfg.Store.SetAccountID(ctx, m.cfg.Endpoint, accountID); err != nil {
		return "", apperrors.Wrap(apperrors.CodeNoAccount, "store account", err)
	}
	if err := m.cfg.Store.Save(ctx); err != nil {
		return "", apperrors.Wrap(apperrors.CodeNoAccount, "save account", err)
	}
	m.cfg.Metrics.AccountCreated()
	m.logf("provisioned account %s", redact(accountID))
	return accountID, nil
}

// login reports whether a failure means the server no longer knows
// accountID.
func (m *Manager) login(ctx context.Context, accounts accountv1.AccountServiceClient, accountID string) (Session, bool, error) {
	callCtx, cancel := context.WithTimeout(ctx, m.cfg.AccountTimeout)
	defer cancel()

	reply, err := accounts.Login(callCtx, &accountv1.LoginRequest{AccountID: accountID})
	if err != nil {
		m.recordLogin(err)
		if malformedReply(err) {
			return Session{}, false, apperrors.Wrap(apperrors.CodeRemoteCallFailed, "login", err)
		}
		return Session{}, invalidAccountStatus(err), apperrors.Wrap(apperrors.CodeAuthFailed, "login", err)
	}
	if !reply.GetSuccess() {
		m.cfg.Metrics.Login(metrics.ResultFailure)
		loginErr := reply.GetError()
		return Session{}, loginErr == accountv1.LoginErrorInvalidAccountID,
			apperrors.WithMetadata(apperrors.CodeAuthFailed, "login was rejected", map[string]string{"error": loginErr.String()})
	}
	token := strings.TrimSpace(reply.GetAuthToken())
	if token == "" {
		m.cfg.Metrics.Login(metrics.ResultFailure)
		return Session{}, false, apperrors.New(apperrors.CodeAuthFailed, "login returned no token")
	}

	m.cfg.Metrics.Login(metrics.ResultSuccess)
	return Session{Token: token, ExpiresAt: m.expiry(reply)}, false, nil
}

func (m *Manager) recordLogin(err error) {
	if apperrors.IsCanceled(err) {
		m.cfg.Metrics.Login(metrics.ResultCanceled)
		return
	}
	m.cfg.Metrics.Login(metrics.ResultFailure)
}

// expiry prefers the reply's timestamp and falls back to the token's exp
// claim. A zero time leaves the session expired, so the next call logs in.
func (m *Manager) expiry(reply *accountv1.LoginReply) time.Time {
	if ts := reply.GetExpiresAt(); ts != nil && ts.IsValid() {
		return ts.AsTime().Local()
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(reply.GetAuthToken(), &claims); err == nil && claims.ExpiresAt != nil {
		return claims.ExpiresAt.Local()
	}
	m.logf("login reply carried no expiry; session will not be reused")
	return time.Time{}
}

func (m *Manager) forgetAccount(ctx context.Context) error {
	if err := m.cfg.Store.RemoveAccountID(ctx, m.cfg.Endpoint); err != nil {
		return apperrors.Wrap(apperrors.CodeAuthFailed, "remove rejected account", err)
	}
	if err := m.cfg.Store.Save(ctx); err != nil {
		return apperrors.Wrap(apperrors.CodeAuthFailed, "save after removing rejected account", err)
	}
	m.cfg.Metrics.AccountInvalidated()
	return nil
}

func (m *Manager) logf(format string, args ...any) {
	if m.cfg.Logf != nil {
		m.cfg.Logf(format, args...)
	}
}

// invalidAccountStatus matches a status error carrying an ErrorInfo whose
// reason is INVALID_ACCOUNT_ID.
func invalidAccountStatus(err error) bool {
	st, ok := status.FromError(err)
	if !ok {
		return false
	}
	for _, detail := range st.Details() {
		if info, ok := detail.(*errdetails.ErrorInfo); ok && info.GetReason() == accountv1.ReasonInvalidAccountID {
			return true
		}
	}
	return false
}

// malformedReply reports whether the login call failed on a reply the
// client could not decode, or on a server fault unrelated to credentials.
func malformedReply(err error) bool {
	if invalidAccountStatus(err) {
		return false
	}
	switch status.Code(err) {
	case codes.Internal, codes.Unknown, codes.DataLoss:
		return true
	default:
		return false
	}
}

func redact(accountID string) string {
	if len(accountID) <= 8 {
		return "***"
	}
	return accountID[:8] + "..."
}
