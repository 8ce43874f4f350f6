package passagegrpc

import (
	"context"
	"net/http"
	"strings"

	"google.golang.org/grpc/metadata"

	"github.com/go-passage/passage"
)

// TokenExtractor reads the raw token from incoming gRPC metadata.
type TokenExtractor func(ctx context.Context) (string, error)

// MetadataTokenExtractor reads "authorization: <scheme> <token>" metadata.
// It fails the way passage.HeaderTokenExtractor does.
func MetadataTokenExtractor(ctx context.Context) (string, error) {
	md, _ := metadata.FromIncomingContext(ctx)

	values := md.Get("authorization")
	if len(values) == 0 || strings.TrimSpace(values[0]) == "" {
		return "", passage.ErrHeaderMissing
	}

	authParts := strings.Fields(values[0])
	if len(authParts) != 2 {
		return "", passage.ErrHeaderMalformed
	}

	return authParts[1], nil
}

// CookieMetadataTokenExtractor reads the psg_auth_token cookie from "cookie"
// metadata, as sent by grpc-gateway and browsers through grpc-web proxies.
func CookieMetadataTokenExtractor(ctx context.Context) (string, error) {
	md, _ := metadata.FromIncomingContext(ctx)

	r := &http.Request{Header: http.Header{"Cookie": md.Get("cookie")}}
	return passage.CookieTokenExtractor(passage.CookieName)(r)
}

// ExtractorFor returns the metadata extractor of a strategy.
func ExtractorFor(strategy passage.AuthStrategy) TokenExtractor {
	if strategy == passage.StrategyHeader {
		return MetadataTokenExtractor
	}
	return CookieMetadataTokenExtractor
}
