package grpc

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/backoff"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
)

// Dialer describes how a client connection is created for a target.
type Dialer interface {
	NewClient(target string, opts ...gogrpc.DialOption) (*gogrpc.ClientConn, error)
}

// DialerFunc adapts a constructor function to the Dialer interface.
type DialerFunc func(target string, opts ...gogrpc.DialOption) (*gogrpc.ClientConn, error)

// NewClient implements Dialer for DialerFunc.
func (fn DialerFunc) NewClient(target string, opts ...gogrpc.DialOption) (*gogrpc.ClientConn, error) {
	return fn(target, opts...)
}

// DialStage describes where a dial attempt failed.
type DialStage string

const (
	// DialStageConnect indicates the client could not be constructed.
	DialStageConnect DialStage = "connect"
	// DialStageReady indicates the channel never reached the ready state.
	DialStageReady DialStage = "ready"
)

// DialError wraps dial and readiness failures with a stage indicator.
type DialError struct {
	Stage DialStage
	Err   error
}

// Error implements the error interface.
func (e *DialError) Error() string {
	if e == nil {
		return "gRPC dial error"
	}
	return fmt.Sprintf("gRPC %s error: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *DialError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// DefaultClientDialOptions returns standard dial options for remote clients.
// A nil creds falls back to plaintext. Includes the OTel gRPC stats handler so
// every outbound call propagates trace context when a TracerProvider is
// registered.
func DefaultClientDialOptions(creds credentials.TransportCredentials, connectTimeout time.Duration) []gogrpc.DialOption {
	if creds == nil {
		creds = insecure.NewCredentials()
	}
	opts := []gogrpc.DialOption{
		gogrpc.WithTransportCredentials(creds),
		gogrpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	}
	if connectTimeout > 0 {
		opts = append(opts, gogrpc.WithConnectParams(gogrpc.ConnectParams{
			Backoff:           backoff.DefaultConfig,
			MinConnectTimeout: connectTimeout,
		}))
	}
	return opts
}

// DialReady creates a client for target and waits until it is ready.
// It closes the connection if readiness is not reached before dialTimeout or
// ctx ends.
func DialReady(ctx context.Context, dialer Dialer, target string, dialTimeout time.Duration, logf func(string, ...any), opts ...gogrpc.DialOption) (*gogrpc.ClientConn, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if dialer == nil {
		dialer = DialerFunc(gogrpc.NewClient)
	}

	conn, err := dialer.NewClient(target, opts...)
	if err != nil {
		return nil, &DialError{Stage: DialStageConnect, Err: err}
	}

	readyCtx := ctx
	if dialTimeout > 0 {
		var cancel context.CancelFunc
		readyCtx, cancel = context.WithTimeout(ctx, dialTimeout)
		defer cancel()
	}
	if err := WaitForReady(readyCtx, conn, logf); err != nil {
		_ = conn.Close()
		return nil, &DialError{Stage: DialStageReady, Err: err}
	}
	return conn, nil
}
