package session

import (
	"context"
	"time"

	"github.com/louisbranch/palacesync/internal/services/shared/grpcauthctx"
	"google.golang.org/grpc"
)

// Session is the cached login result. It is never persisted.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// Valid reports whether the token is non-empty and expires strictly after
// now. A session expiring exactly at now is expired.
func (s Session) Valid(now time.Time) bool {
	return s.Token != "" && s.ExpiresAt.After(now)
}

// Ready is an authenticated channel.
type Ready struct {
	Conn  *grpc.ClientConn
	Token string
}

// Context attaches the bearer token to ctx for an authenticated call.
func (r Ready) Context(ctx context.Context) context.Context {
	return grpcauthctx.WithBearerToken(ctx, r.Token)
}
