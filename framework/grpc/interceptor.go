// Package passagegrpc provides gRPC server interceptors that authenticate
// calls with the passage middleware.
package passagegrpc

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/go-passage/passage"
	"github.com/go-passage/passage/core"
)

// Interceptor authenticates gRPC calls.
type Interceptor struct {
	mw               *passage.Middleware
	tokenExtractor   TokenExtractor
	exclusionChecker func(method string) bool
}

// New creates an Interceptor using mw for verification, metrics and tracing.
// Tokens are read from metadata according to mw's strategy.
func New(mw *passage.Middleware, opts ...Option) (*Interceptor, error) {
	if mw == nil {
		return nil, errors.New("middleware cannot be nil")
	}

	i := &Interceptor{
		mw:             mw,
		tokenExtractor: ExtractorFor(mw.Strategy()),
	}
	for _, opt := range opts {
		if err := opt(i); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}
	return i, nil
}

// authenticate returns ctx with the UserID and claims bound, or an
// Unauthenticated status.
func (i *Interceptor) authenticate(ctx context.Context, method string) (context.Context, error) {
	if i.exclusionChecker != nil && i.exclusionChecker(method) {
		return ctx, nil
	}

	userID, claims, err := i.mw.AuthenticateToken(ctx, func() (string, error) {
		return i.tokenExtractor(ctx)
	})
	if err != nil {
		var authErr *core.AuthError
		if errors.As(err, &authErr) {
			return nil, status.Error(codes.Unauthenticated, authErr.Message())
		}
		return nil, status.Error(codes.Internal, "authentication failed")
	}

	return core.SetClaims(core.SetUserID(ctx, userID), claims), nil
}

// UnaryServerInterceptor returns a gRPC unary server interceptor.
func (i *Interceptor) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		authCtx, err := i.authenticate(ctx, info.FullMethod)
		if err != nil {
			return nil, err
		}
		return handler(authCtx, req)
	}
}

// StreamServerInterceptor returns a gRPC stream server interceptor.
func (i *Interceptor) StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		authCtx, err := i.authenticate(ss.Context(), info.FullMethod)
		if err != nil {
			return err
		}
		return handler(srv, &wrappedServerStream{ServerStream: ss, ctx: authCtx})
	}
}

// wrappedServerStream wraps a grpc.ServerStream to override the context.
type wrappedServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

// Context returns the wrapped context.
func (w *wrappedServerStream) Context() context.Context {
	return w.ctx
}
