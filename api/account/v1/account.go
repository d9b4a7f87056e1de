package accountv1

import (
	"context"
	"encoding/json"
	"fmt"

	palacev1 "github.com/louisbranch/palacesync/api/palace/v1"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// CreateAccountError enumerates provisioning failures.
type CreateAccountError int32

const (
	CreateAccountErrorUnknown CreateAccountError = 0
)

// LoginError enumerates login failures.
type LoginError int32

const (
	LoginErrorUnknown          LoginError = 0
	LoginErrorInvalidAccountID LoginError = 1
)

// String returns the schema name of the login error.
func (e LoginError) String() string {
	if e == LoginErrorInvalidAccountID {
		return "INVALID_ACCOUNT_ID"
	}
	return "UNKNOWN"
}

// ReasonInvalidAccountID is the google.rpc.ErrorInfo reason servers attach
// when login is rejected through a status error instead of a reply.
const ReasonInvalidAccountID = "INVALID_ACCOUNT_ID"

type CreateAccountRequest struct{}

type CreateAccountReply struct {
	Success   bool               `json:"success"`
	Error     CreateAccountError `json:"error,omitempty"`
	AccountID string             `json:"account_id,omitempty"`
}

// GetSuccess reports the server-side success flag, false for a nil reply.
func (r *CreateAccountReply) GetSuccess() bool {
	return r != nil && r.Success
}

// GetAccountID returns the issued identifier, empty for a nil reply.
func (r *CreateAccountReply) GetAccountID() string {
	if r == nil {
		return ""
	}
	return r.AccountID
}

type LoginRequest struct {
	AccountID string `json:"account_id"`
}

type LoginReply struct {
	Success   bool                   `json:"success"`
	Error     LoginError             `json:"error,omitempty"`
	AuthToken string                 `json:"auth_token,omitempty"`
	ExpiresAt *timestamppb.Timestamp `json:"expires_at,omitempty"`
}

// loginReplyWire is LoginReply with expires_at left in its raw JSON form.
type loginReplyWire struct {
	Success   bool            `json:"success"`
	Error     LoginError      `json:"error,omitempty"`
	AuthToken string          `json:"auth_token,omitempty"`
	ExpiresAt json.RawMessage `json:"expires_at,omitempty"`
}

// MarshalJSON writes expires_at as an RFC 3339 string, the protobuf JSON
// mapping of google.protobuf.Timestamp.
func (r LoginReply) MarshalJSON() ([]byte, error) {
	wire := loginReplyWire{Success: r.Success, Error: r.Error, AuthToken: r.AuthToken}
	if r.ExpiresAt != nil {
		data, err := protojson.Marshal(r.ExpiresAt)
		if err != nil {
			return nil, fmt.Errorf("marshal expires_at: %w", err)
		}
		wire.ExpiresAt = data
	}
	return json.Marshal(wire)
}

// UnmarshalJSON reads expires_at in the protobuf JSON mapping. A null or
// absent value leaves ExpiresAt nil.
func (r *LoginReply) UnmarshalJSON(data []byte) error {
	var wire loginReplyWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*r = LoginReply{Success: wire.Success, Error: wire.Error, AuthToken: wire.AuthToken}
	if len(wire.ExpiresAt) == 0 || string(wire.ExpiresAt) == "null" {
		return nil
	}
	ts := &timestamppb.Timestamp{}
	if err := protojson.Unmarshal(wire.ExpiresAt, ts); err != nil {
		return fmt.Errorf("unmarshal expires_at: %w", err)
	}
	r.ExpiresAt = ts
	return nil
}

// GetSuccess reports the server-side success flag, false for a nil reply.
func (r *LoginReply) GetSuccess() bool {
	return r != nil && r.Success
}

// GetError returns the login error, LoginErrorUnknown for a nil reply.
func (r *LoginReply) GetError() LoginError {
	if r == nil {
		return LoginErrorUnknown
	}
	return r.Error
}

// GetAuthToken returns the issued token, empty for a nil reply.
func (r *LoginReply) GetAuthToken() string {
	if r == nil {
		return ""
	}
	return r.AuthToken
}

// GetExpiresAt returns the token expiry, nil when absent.
func (r *LoginReply) GetExpiresAt() *timestamppb.Timestamp {
	if r == nil {
		return nil
	}
	return r.ExpiresAt
}

type VerifyRequest struct{}

type VerifyReply struct{}

const (
	AccountServiceName                     = "account.AccountService"
	AccountService_CreateAccount_FullMethod = "/account.AccountService/CreateAccount"
	AccountService_Login_FullMethod         = "/account.AccountService/Login"
	AccountService_Verify_FullMethod        = "/account.AccountService/Verify"
)

// AccountServiceClient is the client API for the identity service.
type AccountServiceClient interface {
	CreateAccount(ctx context.Context, in *CreateAccountRequest, opts ...grpc.CallOption) (*CreateAccountReply, error)
	Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginReply, error)
	Verify(ctx context.Context, in *VerifyRequest, opts ...grpc.CallOption) (*VerifyReply, error)
}

type accountServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewAccountServiceClient binds an identity client to a connection.
func NewAccountServiceClient(cc grpc.ClientConnInterface) AccountServiceClient {
	return &accountServiceClient{cc: cc}
}

func (c *accountServiceClient) CreateAccount(ctx context.Context, in *CreateAccountRequest, opts ...grpc.CallOption) (*CreateAccountReply, error) {
	out := new(CreateAccountReply)
	if err := c.cc.Invoke(ctx, AccountService_CreateAccount_FullMethod, in, out, palacev1.CallOptions(opts...)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *accountServiceClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginReply, error) {
	out := new(LoginReply)
	if err := c.cc.Invoke(ctx, AccountService_Login_FullMethod, in, out, palacev1.CallOptions(opts...)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *accountServiceClient) Verify(ctx context.Context, in *VerifyRequest, opts ...grpc.CallOption) (*VerifyReply, error) {
	out := new(VerifyReply)
	if err := c.cc.Invoke(ctx, AccountService_Verify_FullMethod, in, out, palacev1.CallOptions(opts...)...); err != nil {
		return nil, err
	}
	return out, nil
}

// AccountServiceServer is the server API for the identity service.
type AccountServiceServer interface {
	CreateAccount(context.Context, *CreateAccountRequest) (*CreateAccountReply, error)
	Login(context.Context, *LoginRequest) (*LoginReply, error)
	Verify(context.Context, *VerifyRequest) (*VerifyReply, error)
}

// UnimplementedAccountServiceServer answers every method with codes.Unimplemented.
type UnimplementedAccountServiceServer struct{}

func (UnimplementedAccountServiceServer) CreateAccount(context.Context, *CreateAccountRequest) (*CreateAccountReply, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateAccount not implemented")
}

func (UnimplementedAccountServiceServer) Login(context.Context, *LoginRequest) (*LoginReply, error) {
	return nil, status.Error(codes.Unimplemented, "method Login not implemented")
}

func (UnimplementedAccountServiceServer) Verify(context.Context, *VerifyRequest) (*VerifyReply, error) {
	return nil, status.Error(codes.Unimplemented, "method Verify not implemented")
}

// RegisterAccountServiceServer registers srv on a gRPC server.
func RegisterAccountServiceServer(s grpc.ServiceRegistrar, srv AccountServiceServer) {
	s.RegisterService(&AccountService_ServiceDesc, srv)
}

func accountCreateAccountHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CreateAccountRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AccountServiceServer).CreateAccount(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: AccountService_CreateAccount_FullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AccountServiceServer).CreateAccount(ctx, req.(*CreateAccountRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func accountLoginHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(LoginRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AccountServiceServer).Login(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: AccountService_Login_FullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AccountServiceServer).Login(ctx, req.(*LoginRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func accountVerifyHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(VerifyRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AccountServiceServer).Verify(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: AccountService_Verify_FullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AccountServiceServer).Verify(ctx, req.(*VerifyRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// AccountService_ServiceDesc describes the identity service for registration.
var AccountService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: AccountServiceName,
	HandlerType: (*AccountServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateAccount", Handler: accountCreateAccountHandler},
		{MethodName: "Login", Handler: accountLoginHandler},
		{MethodName: "Verify", Handler: accountVerifyHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "account.proto",
}
