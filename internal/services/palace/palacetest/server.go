// Package palacetest runs an in-process identity and zone-data server for
// tests of the session and sync layers.
package palacetest

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	accountv1 "github.com/louisbranch/palacesync/api/account/v1"
	palacev1 "github.com/louisbranch/palacesync/api/palace/v1"
	apperrors "github.com/louisbranch/palacesync/internal/platform/errors"
	"github.com/louisbranch/palacesync/internal/services/shared/grpcauthctx"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"
)

var signingKey = []byte("palacetest-signing-key")

// Behavior switches failure modes on the fake server. The zero value serves
// every request successfully.
type Behavior struct {
	// CreateAccountFails answers CreateAccount with success=false.
	CreateAccountFails bool
	// CreateAccountEmptyID answers CreateAccount with success and no id.
	CreateAccountEmptyID bool
	// RejectAllAccounts answers every login with INVALID_ACCOUNT_ID.
	RejectAllAccounts bool
	// InvalidAccountViaStatus reports unknown accounts as a status error
	// carrying an ErrorInfo detail instead of a reply.
	InvalidAccountViaStatus bool
	// LoginFails answers login with success=false and error UNKNOWN.
	LoginFails bool
	// LoginStatus, when set, fails login with this domain code's status.
	LoginStatus apperrors.Code
	// MalformedLogin answers login with an expires_at clients cannot decode.
	MalformedLogin bool
	// OmitExpiry leaves expires_at empty so clients read the token's exp.
	OmitExpiry bool
	// TokenTTL overrides the issued token lifetime.
	TokenTTL time.Duration
	// RemoteFails answers download, upload, and statistics with success=false.
	RemoteFails bool
	// RemoteStatus, when set, fails download, upload, and statistics with it.
	RemoteStatus codes.Code
	// CallDelay stalls every handler, honoring the caller's context.
	CallDelay time.Duration
}

// Call records one request seen by the server.
type Call struct {
	Method        string
	UserAgent     string
	Authorization string
}

// Server is an in-process fake of both remote services.
type Server struct {
	Addr string

	grpcServer *grpc.Server
	listener   net.Listener
	stopOnce   sync.Once

	mu         sync.Mutex
	behavior   Behavior
	accounts   map[string]bool
	floors     map[uint32][]*palacev1.PalaceObject
	statistics []*palacev1.FloorStatistics
	calls      []Call
	now        func() time.Time
}

// Start serves the fake on 127.0.0.1 until the test ends.
func Start(t testing.TB) *Server {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	s := &Server{
		Addr:     listener.Addr().String(),
		listener: listener,
		accounts: make(map[string]bool),
		floors:   make(map[uint32][]*palacev1.PalaceObject),
		now:      time.Now,
	}
	s.grpcServer = grpc.NewServer(grpc.UnaryInterceptor(s.record))
	accountv1.RegisterAccountServiceServer(s.grpcServer, accountService{s: s})
	palacev1.RegisterPalaceServiceServer(s.grpcServer, palaceService{s: s})

	go func() {
		_ = s.grpcServer.Serve(listener)
	}()
	t.Cleanup(s.Stop)
	return s
}

// Stop shuts the server down immediately. It is safe to call twice.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		s.grpcServer.Stop()
		_ = s.listener.Close()
	})
}

// SetBehavior replaces the failure switches.
func (s *Server) SetBehavior(b Behavior) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.behavior = b
}

// SetStatistics replaces the statistics returned by FetchStatistics.
func (s *Server) SetStatistics(stats []*palacev1.FloorStatistics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statistics = stats
}

// AddAccount registers an account id as known to the server.
func (s *Server) AddAccount(accountID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[accountID] = true
}

// ForgetAccounts drops every known account, as a server data reset would.
func (s *Server) ForgetAccounts() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.accounts)
}

// HasAccount reports whether the server knows accountID.
func (s *Server) HasAccount(accountID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accounts[accountID]
}

// Floors returns the objects stored for a territory.
func (s *Server) Floors(territory uint32) []*palacev1.PalaceObject {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*palacev1.PalaceObject(nil), s.floors[territory]...)
}

// Calls returns every recorded request in arrival order.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallCount counts recorded requests for a full method name.
func (s *Server) CallCount(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, call := range s.calls {
		if call.Method == method {
			count++
		}
	}
	return count
}

// ResetCalls forgets recorded requests.
func (s *Server) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

// IssueToken signs a token for accountID that expires at expiresAt.
func IssueToken(accountID string, expiresAt time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   accountID,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
}

func (s *Server) record(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	call := Call{Method: info.FullMethod}
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(grpcauthctx.UserAgentHeader); len(values) > 0 {
			call.UserAgent = values[0]
		}
		if values := md.Get(grpcauthctx.AuthorizationHeader); len(values) > 0 {
			call.Authorization = values[0]
		}
	}

	s.mu.Lock()
	s.calls = append(s.calls, call)
	delay := s.behavior.CallDelay
	malformed := s.behavior.MalformedLogin && info.FullMethod == accountv1.AccountService_Login_FullMethod
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, status.FromContextError(ctx.Err()).Err()
		}
	}
	if malformed {
		return map[string]any{"success": true, "auth_token": "malformed", "expires_at": "tomorrow"}, nil
	}
	return handler(ctx, req)
}

func (s *Server) snapshot() Behavior {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.behavior
}

// authenticate validates the bearer token and returns its account id.
func (s *Server) authenticate(ctx context.Context) (string, error) {
	token, ok := grpcauthctx.BearerToken(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "missing bearer token")
	}
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return signingKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", status.Errorf(codes.Unauthenticated, "invalid bearer token: %v", err)
	}
	if !s.HasAccount(claims.Subject) {
		return "", status.Error(codes.Unauthenticated, "unknown account")
	}
	return claims.Subject, nil
}

type accountService struct {
	accountv1.UnimplementedAccountServiceServer
	s *Server
}

func (a accountService) CreateAccount(context.Context, *accountv1.CreateAccountRequest) (*accountv1.CreateAccountReply, error) {
	b := a.s.snapshot()
	if b.CreateAccountFails {
		return &accountv1.CreateAccountReply{Success: false}, nil
	}
	if b.CreateAccountEmptyID {
		return &accountv1.CreateAccountReply{Success: true}, nil
	}
	accountID := uuid.NewString()
	a.s.AddAccount(accountID)
	return &accountv1.CreateAccountReply{Success: true, AccountID: accountID}, nil
}

func (a accountService) Login(_ context.Context, in *accountv1.LoginRequest) (*accountv1.LoginReply, error) {
	b := a.s.snapshot()
	if b.LoginStatus != "" {
		return nil, status.Error(b.LoginStatus.GRPCCode(), "login unavailable")
	}
	if b.LoginFails {
		return &accountv1.LoginReply{Success: false, Error: accountv1.LoginErrorUnknown}, nil
	}
	if b.RejectAllAccounts || !a.s.HasAccount(in.AccountID) {
		if b.InvalidAccountViaStatus {
			st, err := status.New(codes.NotFound, "unknown account").WithDetails(&errdetails.ErrorInfo{
				Reason: accountv1.ReasonInvalidAccountID,
				Domain: "palace",
			})
			if err != nil {
				return nil, status.Error(codes.Internal, err.Error())
			}
			return nil, st.Err()
		}
		return &accountv1.LoginReply{Success: false, Error: accountv1.LoginErrorInvalidAccountID}, nil
	}

	ttl := b.TokenTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	expiresAt := a.s.now().Add(ttl)
	token, err := IssueToken(in.AccountID, expiresAt)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	reply := &accountv1.LoginReply{Success: true, AuthToken: token}
	if !b.OmitExpiry {
		reply.ExpiresAt = timestamppb.New(expiresAt)
	}
	return reply, nil
}

func (a accountService) Verify(ctx context.Context, _ *accountv1.VerifyRequest) (*accountv1.VerifyReply, error) {
	if _, err := a.s.authenticate(ctx); err != nil {
		return nil, err
	}
	return &accountv1.VerifyReply{}, nil
}

type palaceService struct {
	palacev1.UnimplementedPalaceServiceServer
	s *Server
}

func (p palaceService) remoteFailure(ctx context.Context) (bool, error) {
	if _, err := p.s.authenticate(ctx); err != nil {
		return false, err
	}
	b := p.s.snapshot()
	if b.RemoteStatus != codes.OK {
		return false, status.Error(b.RemoteStatus, "remote failure")
	}
	return b.RemoteFails, nil
}

func (p palaceService) DownloadFloors(ctx context.Context, in *palacev1.DownloadFloorsRequest) (*palacev1.DownloadFloorsReply, error) {
	failed, err := p.remoteFailure(ctx)
	if err != nil {
		return nil, err
	}
	if failed {
		return &palacev1.DownloadFloorsReply{Success: false}, nil
	}
	return &palacev1.DownloadFloorsReply{Success: true, Objects: p.s.Floors(in.TerritoryType)}, nil
}

func (p palaceService) UploadFloors(ctx context.Context, in *palacev1.UploadFloorsRequest) (*palacev1.UploadFloorsReply, error) {
	failed, err := p.remoteFailure(ctx)
	if err != nil {
		return nil, err
	}
	if failed {
		return &palacev1.UploadFloorsReply{Success: false}, nil
	}
	p.s.mu.Lock()
	p.s.floors[in.TerritoryType] = append(p.s.floors[in.TerritoryType], in.Objects...)
	p.s.mu.Unlock()
	return &palacev1.UploadFloorsReply{Success: true}, nil
}

func (p palaceService) FetchStatistics(ctx context.Context, _ *palacev1.StatisticsRequest) (*palacev1.StatisticsReply, error) {
	failed, err := p.remoteFailure(ctx)
	if err != nil {
		return nil, err
	}
	if failed {
		return &palacev1.StatisticsReply{Success: false}, nil
	}
	p.s.mu.Lock()
	stats := append([]*palacev1.FloorStatistics(nil), p.s.statistics...)
	p.s.mu.Unlock()
	return &palacev1.StatisticsReply{Success: true, FloorStatistics: stats}, nil
}
