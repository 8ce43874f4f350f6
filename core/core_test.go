package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockValidator is a mock implementation of Validator for testing.
type mockValidator struct {
	validateFunc func(ctx context.Context, token string) (any, error)
	calls        int
}

func (m *mockValidator) ValidateToken(ctx context.Context, token string) (any, error) {
	m.calls++
	if m.validateFunc != nil {
		return m.validateFunc(ctx, token)
	}
	return nil, errors.New("not implemented")
}

type subjectClaims struct {
	sub string
}

func (c subjectClaims) GetSubject() string { return c.sub }

// mockLogger is a mock implementation of Logger for testing.
type mockLogger struct {
	debugCalls []logCall
	infoCalls  []logCall
	warnCalls  []logCall
	errorCalls []logCall
}

type logCall struct {
	msg  string
	args []any
}

func (m *mockLogger) Debug(msg string, args ...any) {
	m.debugCalls = append(m.debugCalls, logCall{msg, args})
}

func (m *mockLogger) Info(msg string, args ...any) {
	m.infoCalls = append(m.infoCalls, logCall{msg, args})
}

func (m *mockLogger) Warn(msg string, args ...any) {
	m.warnCalls = append(m.warnCalls, logCall{msg, args})
}

func (m *mockLogger) Error(msg string, args ...any) {
	m.errorCalls = append(m.errorCalls, logCall{msg, args})
}

func tokenSource(token string, err error) TokenSource {
	return func() (string, error) { return token, err }
}

var (
	errTestHeaderMissing = &CredentialError{Reason: ReasonCredentialMissing, Message: "Header authorization not found."}
	errTestMalformed     = &CredentialError{Reason: ReasonCredentialMalformed, Message: "Authorization header is malformed."}
)

func TestNew(t *testing.T) {
	validator := &mockValidator{}

	t.Run("successful creation with required options", func(t *testing.T) {
		core, err := New(WithValidator(validator))
		require.NoError(t, err)
		assert.NotNil(t, core)
		assert.Nil(t, core.logger)
	})

	t.Run("successful creation with all options", func(t *testing.T) {
		core, err := New(WithValidator(validator), WithLogger(&mockLogger{}))
		require.NoError(t, err)
		assert.NotNil(t, core.logger)
	})

	t.Run("error when validator is missing", func(t *testing.T) {
		core, err := New()
		assert.Nil(t, core)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "validator is required")
	})

	t.Run("error when validator is nil", func(t *testing.T) {
		core, err := New(WithValidator(nil))
		assert.Nil(t, core)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "validator cannot be nil")
	})

	t.Run("error when logger is nil", func(t *testing.T) {
		core, err := New(WithValidator(validator), WithLogger(nil))
		assert.Nil(t, core)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "logger cannot be nil")
	})
}

func TestCore_Authenticate(t *testing.T) {
	verificationErr := errors.New("token is expired")

	testCases := []struct {
		name           string
		source         TokenSource
		validateFunc   func(ctx context.Context, token string) (any, error)
		wantUserID     UserID
		wantReason     Reason
		wantMessage    string
		wantValidation bool
	}{
		{
			name:   "valid token yields the subject",
			source: tokenSource("good", nil),
			validateFunc: func(_ context.Context, token string) (any, error) {
				return subjectClaims{sub: "user_123"}, nil
			},
			wantUserID:     "user_123",
			wantValidation: true,
		},
		{
			name:        "missing header is credential missing",
			source:      tokenSource("", errTestHeaderMissing),
			wantReason:  ReasonCredentialMissing,
			wantMessage: "Header authorization not found.",
		},
		{
			name:        "malformed header is credential malformed",
			source:      tokenSource("", errTestMalformed),
			wantReason:  ReasonCredentialMalformed,
			wantMessage: "Authorization header is malformed.",
		},
		{
			name:        "an unknown extraction error is credential malformed",
			source:      tokenSource("", errors.New("boom")),
			wantReason:  ReasonCredentialMalformed,
			wantMessage: MessageCredentialMalformed,
		},
		{
			name:        "an empty token is credential missing",
			source:      tokenSource("", nil),
			wantReason:  ReasonCredentialMissing,
			wantMessage: MessageCredentialMissing,
		},
		{
			name:   "verification failure is invalid token",
			source: tokenSource("bad", nil),
			validateFunc: func(context.Context, string) (any, error) {
				return nil, verificationErr
			},
			wantReason:     ReasonInvalidToken,
			wantMessage:    "Auth token is invalid.",
			wantValidation: true,
		},
		{
			name:   "claims without subject are invalid",
			source: tokenSource("good", nil),
			validateFunc: func(context.Context, string) (any, error) {
				return subjectClaims{}, nil
			},
			wantReason:     ReasonInvalidToken,
			wantMessage:    "Auth token is invalid.",
			wantValidation: true,
		},
		{
			name:   "claims of an unknown type are invalid",
			source: tokenSource("good", nil),
			validateFunc: func(context.Context, string) (any, error) {
				return map[string]any{"sub": "user_123"}, nil
			},
			wantReason:     ReasonInvalidToken,
			wantMessage:    "Auth token is invalid.",
			wantValidation: true,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			validator := &mockValidator{validateFunc: testCase.validateFunc}
			core, err := New(WithValidator(validator))
			require.NoError(t, err)

			userID, err := core.Authenticate(context.Background(), testCase.source)

			if testCase.wantValidation {
				assert.Equal(t, 1, validator.calls)
			} else {
				assert.Equal(t, 0, validator.calls)
			}

			if testCase.wantReason == "" {
				require.NoError(t, err)
				assert.Equal(t, testCase.wantUserID, userID)
				return
			}

			require.Error(t, err)
			assert.Empty(t, userID)
			assert.ErrorIs(t, err, ErrUnauthenticated)
			assert.Equal(t, testCase.wantReason, ReasonOf(err))

			var authErr *AuthError
			require.ErrorAs(t, err, &authErr)
			assert.Equal(t, testCase.wantMessage, authErr.Message())
		})
	}
}

func TestCore_Authenticate_keepsVerificationDetails(t *testing.T) {
	verificationErr := errors.New("token is expired")
	core, err := New(WithValidator(&mockValidator{
		validateFunc: func(context.Context, string) (any, error) { return nil, verificationErr },
	}))
	require.NoError(t, err)

	_, err = core.Authenticate(context.Background(), tokenSource("bad", nil))
	assert.ErrorIs(t, err, verificationErr)
	assert.Contains(t, err.Error(), "invalid_token")

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.NotContains(t, authErr.Message(), "expired")
}

func TestCore_AuthenticateWithClaims(t *testing.T) {
	claims := subjectClaims{sub: "user_123"}
	core, err := New(WithValidator(&mockValidator{
		validateFunc: func(_ context.Context, token string) (any, error) {
			assert.Equal(t, "raw-token", token)
			return claims, nil
		},
	}))
	require.NoError(t, err)

	userID, got, err := core.AuthenticateWithClaims(context.Background(), tokenSource("raw-token", nil))
	require.NoError(t, err)
	assert.Equal(t, UserID("user_123"), userID)
	assert.Equal(t, claims, got)
}

func TestCore_Authenticate_passesContext(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "value")

	core, err := New(WithValidator(&mockValidator{
		validateFunc: func(ctx context.Context, _ string) (any, error) {
			assert.Equal(t, "value", ctx.Value(key{}))
			return subjectClaims{sub: "user_123"}, nil
		},
	}))
	require.NoError(t, err)

	_, err = core.Authenticate(ctx, tokenSource("token", nil))
	require.NoError(t, err)
}

func TestCore_Authenticate_logging(t *testing.T) {
	t.Run("success logs at debug", func(t *testing.T) {
		logger := &mockLogger{}
		core, err := New(
			WithValidator(&mockValidator{validateFunc: func(context.Context, string) (any, error) {
				return subjectClaims{sub: "user_123"}, nil
			}}),
			WithLogger(logger),
		)
		require.NoError(t, err)

		_, err = core.Authenticate(context.Background(), tokenSource("token", nil))
		require.NoError(t, err)
		require.Len(t, logger.debugCalls, 1)
		assert.Equal(t, "Token validated successfully", logger.debugCalls[0].msg)
		assert.Empty(t, logger.errorCalls)
	})

	t.Run("extraction failure logs at warn", func(t *testing.T) {
		logger := &mockLogger{}
		core, err := New(WithValidator(&mockValidator{}), WithLogger(logger))
		require.NoError(t, err)

		_, err = core.Authenticate(context.Background(), tokenSource("", errTestHeaderMissing))
		require.Error(t, err)
		require.Len(t, logger.warnCalls, 1)
		assert.Equal(t, "No usable credential in request", logger.warnCalls[0].msg)
	})

	t.Run("verification failure logs at error", func(t *testing.T) {
		logger := &mockLogger{}
		core, err := New(
			WithValidator(&mockValidator{validateFunc: func(context.Context, string) (any, error) {
				return nil, errors.New("bad signature")
			}}),
			WithLogger(logger),
		)
		require.NoError(t, err)

		_, err = core.Authenticate(context.Background(), tokenSource("token", nil))
		require.Error(t, err)
		require.Len(t, logger.errorCalls, 1)
		assert.Equal(t, "Token validation failed", logger.errorCalls[0].msg)
	})
}

func TestAuthError(t *testing.T) {
	t.Run("error string without cause", func(t *testing.T) {
		err := &AuthError{Reason: ReasonCredentialMissing}
		assert.Equal(t, "authentication failed (credential_missing)", err.Error())
		assert.Nil(t, err.Unwrap())
	})

	t.Run("unknown reasons get the generic message", func(t *testing.T) {
		err := &AuthError{Reason: Reason("other")}
		assert.Equal(t, MessageInvalidToken, err.Message())
	})

	t.Run("ReasonOf plain errors is empty", func(t *testing.T) {
		assert.Equal(t, Reason(""), ReasonOf(errors.New("plain")))
	})
}
