// Package grpcdial turns platform dial failures into stable, endpoint
// labelled messages for the palace channel.
package grpcdial

import (
	"context"
	"errors"
	"fmt"
	"time"

	platformgrpc "github.com/louisbranch/palacesync/internal/platform/grpc"
	gogrpc "google.golang.org/grpc"
)

// DialReady dials a service endpoint and normalizes connect/ready errors
// into stable, service-labeled messages.
func DialReady(
	ctx context.Context,
	dialer platformgrpc.Dialer,
	target string,
	timeout time.Duration,
	serviceLabel string,
	logf func(string, ...any),
	opts ...gogrpc.DialOption,
) (*gogrpc.ClientConn, error) {
	conn, err := platformgrpc.DialReady(ctx, dialer, target, timeout, logf, opts...)
	if err != nil {
		return nil, NormalizeDialError(serviceLabel, target, err)
	}
	return conn, nil
}

// NormalizeDialError maps platform DialError stages into stable error
// messages. The original error stays in the chain.
func NormalizeDialError(serviceLabel, target string, err error) error {
	var dialErr *platformgrpc.DialError
	if errors.As(err, &dialErr) {
		if dialErr.Stage == platformgrpc.DialStageReady {
			return fmt.Errorf("%s gRPC channel to %s never became ready: %w", serviceLabel, target, err)
		}
		return fmt.Errorf("dial %s gRPC %s: %w", serviceLabel, target, err)
	}
	return fmt.Errorf("dial %s gRPC %s: %w", serviceLabel, target, err)
}
