package grpc

import (
	"context"
	"fmt"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
)

// WaitForReady kicks conn out of idle and blocks until it reports READY or
// the context ends.
func WaitForReady(ctx context.Context, conn *gogrpc.ClientConn, logf func(string, ...any)) error {
	if conn == nil {
		return fmt.Errorf("gRPC connection is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	conn.Connect()
	for {
		state := conn.GetState()
		switch state {
		case connectivity.Ready:
			if logf != nil {
				logf("gRPC channel to %s is READY", conn.Target())
			}
			return nil
		case connectivity.Shutdown:
			return fmt.Errorf("wait for gRPC ready: connection is shut down")
		case connectivity.Idle:
			conn.Connect()
		case connectivity.TransientFailure:
			if logf != nil {
				logf("waiting for gRPC channel to %s: %s", conn.Target(), state)
			}
		}

		if !conn.WaitForStateChange(ctx, state) {
			return fmt.Errorf("wait for gRPC ready (last state %s): %w", state, ctx.Err())
		}
	}
}

// Reusable reports whether a cached connection may serve another call
// without being recreated. Only READY and IDLE qualify.
func Reusable(conn *gogrpc.ClientConn) bool {
	if conn == nil {
		return false
	}
	switch conn.GetState() {
	case connectivity.Ready, connectivity.Idle:
		return true
	default:
		return false
	}
}
