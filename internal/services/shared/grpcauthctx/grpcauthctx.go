// Package grpcauthctx attaches the client's identification and bearer
// credentials to outgoing gRPC calls.
package grpcauthctx

import (
	"context"
	"strings"

	"golang.org/x/mod/semver"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// AuthorizationHeader is the gRPC metadata key carrying the bearer token.
const AuthorizationHeader = "authorization"

// UserAgentHeader is the gRPC metadata key servers read the client
// identification from.
const UserAgentHeader = "user-agent"

const bearerPrefix = "Bearer "

// WithBearerToken returns a context whose outgoing metadata carries
// "authorization: Bearer <token>" when token is non-empty.
func WithBearerToken(ctx context.Context, token string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, AuthorizationHeader, bearerPrefix+token)
}

// BearerToken extracts the token from incoming metadata. It is the server
// side of WithBearerToken and is used by test doubles.
func BearerToken(ctx context.Context) (string, bool) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", false
	}
	for _, value := range md.Get(AuthorizationHeader) {
		if strings.HasPrefix(value, bearerPrefix) {
			token := strings.TrimSpace(strings.TrimPrefix(value, bearerPrefix))
			if token != "" {
				return token, true
			}
		}
	}
	return "", false
}

// ClientIdentity names the product and version presented to the server.
type ClientIdentity struct {
	Product string
	Version string
}

// UserAgent renders "<product>/<major.minor>". Versions that are not valid
// semver keep their first two dot-separated components.
func (c ClientIdentity) UserAgent() string {
	product := strings.TrimSpace(c.Product)
	if product == "" {
		product = "palacesync"
	}
	return product + "/" + majorMinor(c.Version)
}

// DialOption installs the identification on every call made through a
// channel, authenticated or not.
func (c ClientIdentity) DialOption() grpc.DialOption {
	return grpc.WithUserAgent(c.UserAgent())
}

func majorMinor(version string) string {
	version = strings.TrimSpace(version)
	if version == "" {
		return "0.0"
	}
	canonical := version
	if !strings.HasPrefix(canonical, "v") {
		canonical = "v" + canonical
	}
	if semver.IsValid(canonical) {
		mm := strings.TrimPrefix(semver.MajorMinor(canonical), "v")
		if !strings.Contains(mm, ".") {
			mm += ".0"
		}
		return mm
	}
	parts := strings.SplitN(strings.TrimPrefix(version, "v"), ".", 3)
	if len(parts) == 1 {
		return parts[0] + ".0"
	}
	return parts[0] + "." + parts[1]
}
