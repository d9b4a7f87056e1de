package grpcdial

import (
	"context"
	"errors"
	"strings"
	"testing"

	platformgrpc "github.com/louisbranch/palacesync/internal/platform/grpc"
)

func TestNormalizeDialErrorReadyStage(t *testing.T) {
	cause := &platformgrpc.DialError{Stage: platformgrpc.DialStageReady, Err: context.DeadlineExceeded}
	err := NormalizeDialError("palace", "pal.example:443", cause)
	if !strings.Contains(err.Error(), "palace gRPC channel to pal.example:443 never became ready") {
		t.Fatalf("unexpected error: %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected cause in chain, got %v", err)
	}
}

func TestNormalizeDialErrorConnectStage(t *testing.T) {
	cause := &platformgrpc.DialError{Stage: platformgrpc.DialStageConnect, Err: errors.New("bad target")}
	err := NormalizeDialError("palace", "::bad", cause)
	if !strings.HasPrefix(err.Error(), "dial palace gRPC ::bad:") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNormalizeDialErrorPlain(t *testing.T) {
	err := NormalizeDialError("palace", "host:1", errors.New("boom"))
	if err.Error() != "dial palace gRPC host:1: boom" {
		t.Fatalf("unexpected error: %v", err)
	}
}
