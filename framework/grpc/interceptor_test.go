package passagegrpc

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/go-passage/passage"
	"github.com/go-passage/passage/core"
)

type claims struct{ sub string }

func (c *claims) GetSubject() string { return c.sub }

type fakeValidator struct{}

func (fakeValidator) ValidateToken(_ context.Context, token string) (any, error) {
	if token == "validToken123" {
		return &claims{sub: "user123"}, nil
	}
	return nil, errors.New("invalid token")
}

func newInterceptor(t *testing.T, strategy passage.AuthStrategy, opts ...Option) *Interceptor {
	t.Helper()
	mw, err := passage.New(passage.WithValidator(fakeValidator{}), passage.WithAuthStrategy(strategy))
	require.NoError(t, err)
	i, err := New(mw, opts...)
	require.NoError(t, err)
	return i
}

func TestUnaryInterceptor(t *testing.T) {
	tests := []struct {
		name         string
		strategy     passage.AuthStrategy
		md           metadata.MD
		options      []Option
		method       string
		expectCode   codes.Code
		expectMsg    string
		expectUserID core.UserID
	}{
		{
			name:         "valid authorization metadata",
			strategy:     passage.StrategyHeader,
			md:           metadata.Pairs("authorization", "Bearer validToken123"),
			expectUserID: "user123",
		},
		{
			name:       "invalid token",
			strategy:   passage.StrategyHeader,
			md:         metadata.Pairs("authorization", "Bearer invalidToken456"),
			expectCode: codes.Unauthenticated,
			expectMsg:  "Auth token is invalid.",
		},
		{
			name:       "missing authorization metadata",
			strategy:   passage.StrategyHeader,
			expectCode: codes.Unauthenticated,
			expectMsg:  "Header authorization not found.",
		},
		{
			name:       "malformed authorization metadata",
			strategy:   passage.StrategyHeader,
			md:         metadata.Pairs("authorization", "validToken123"),
			expectCode: codes.Unauthenticated,
			expectMsg:  "Authorization header is malformed.",
		},
		{
			name:         "valid cookie metadata",
			strategy:     passage.StrategyCookie,
			md:           metadata.Pairs("cookie", "theme=dark; psg_auth_token=validToken123"),
			expectUserID: "user123",
		},
		{
			name:       "missing cookie metadata",
			strategy:   passage.StrategyCookie,
			md:         metadata.Pairs("authorization", "Bearer validToken123"),
			expectCode: codes.Unauthenticated,
			expectMsg:  `Could not find authentication cookie "psg_auth_token".`,
		},
		{
			name:     "excluded method",
			strategy: passage.StrategyHeader,
			method:   "/grpc.health.v1.Health/Check",
			options:  []Option{WithExcludedMethods("/grpc.health.v1.Health/Check")},
		},
		{
			name:     "custom token extractor",
			strategy: passage.StrategyHeader,
			options: []Option{WithTokenExtractor(func(context.Context) (string, error) {
				return "validToken123", nil
			})},
			expectUserID: "user123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			interceptor := newInterceptor(t, tt.strategy, tt.options...)

			ctx := context.Background()
			if tt.md != nil {
				ctx = metadata.NewIncomingContext(ctx, tt.md)
			}
			method := "/test.service/TestMethod"
			if tt.method != "" {
				method = tt.method
			}

			var handlerCtx context.Context
			handler := func(ctx context.Context, req any) (any, error) {
				handlerCtx = ctx
				return "ok", nil
			}

			resp, err := interceptor.UnaryServerInterceptor()(ctx, nil, &grpc.UnaryServerInfo{FullMethod: method}, handler)

			if tt.expectCode != codes.OK {
				require.Error(t, err)
				assert.Nil(t, resp)
				assert.Nil(t, handlerCtx)
				st, ok := status.FromError(err)
				require.True(t, ok)
				assert.Equal(t, tt.expectCode, st.Code())
				assert.Equal(t, tt.expectMsg, st.Message())
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "ok", resp)
			if tt.expectUserID != "" {
				assert.Equal(t, tt.expectUserID, core.MustUserID(handlerCtx))
				got, err := core.GetClaims[*claims](handlerCtx)
				require.NoError(t, err)
				assert.Equal(t, "user123", got.sub)
			} else {
				assert.False(t, core.HasUserID(handlerCtx))
			}
		})
	}
}

type fakeServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *fakeServerStream) Context() context.Context { return s.ctx }

func TestStreamInterceptor(t *testing.T) {
	interceptor := newInterceptor(t, passage.StrategyHeader)
	info := &grpc.StreamServerInfo{FullMethod: "/test.service/Stream"}

	t.Run("valid token", func(t *testing.T) {
		ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer validToken123"))
		var got core.UserID
		err := interceptor.StreamServerInterceptor()(nil, &fakeServerStream{ctx: ctx}, info, func(_ any, ss grpc.ServerStream) error {
			got = core.MustUserID(ss.Context())
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, core.UserID("user123"), got)
	})

	t.Run("missing token", func(t *testing.T) {
		called := false
		err := interceptor.StreamServerInterceptor()(nil, &fakeServerStream{ctx: context.Background()}, info, func(any, grpc.ServerStream) error {
			called = true
			return nil
		})
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
		assert.False(t, called)
	})
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	mw, err := passage.New(passage.WithValidator(fakeValidator{}))
	require.NoError(t, err)

	_, err = New(mw, WithTokenExtractor(nil))
	assert.Error(t, err)
	_, err = New(mw, WithExcludedMethods())
	assert.Error(t, err)
	_, err = New(mw, WithExclusionChecker(nil))
	assert.Error(t, err)

	i, err := New(mw, WithExclusionChecker(func(m string) bool { return m == "/x" }))
	require.NoError(t, err)
	assert.True(t, i.exclusionChecker("/x"))
}
