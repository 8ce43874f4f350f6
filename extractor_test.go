package passage

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-passage/passage/core"
)

func Test_ParseAuthStrategy(t *testing.T) {
	testCases := []struct {
		input     string
		want      AuthStrategy
		wantError bool
	}{
		{input: "", want: StrategyCookie},
		{input: "COOKIE", want: StrategyCookie},
		{input: "cookie", want: StrategyCookie},
		{input: "HEADER", want: StrategyHeader},
		{input: " Header ", want: StrategyHeader},
		{input: "query", wantError: true},
	}

	for _, testCase := range testCases {
		t.Run(testCase.input, func(t *testing.T) {
			got, err := ParseAuthStrategy(testCase.input)
			if testCase.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testCase.want, got)
		})
	}

	assert.Equal(t, "HEADER", StrategyHeader.String())
	assert.Equal(t, "COOKIE", StrategyCookie.String())
	assert.Equal(t, "AuthStrategy(7)", AuthStrategy(7).String())
}

func Test_Extract(t *testing.T) {
	testCases := []struct {
		name      string
		strategy  AuthStrategy
		request   func() *http.Request
		wantToken string
		wantError error
	}{
		{
			name:     "header with bearer scheme",
			strategy: StrategyHeader,
			request: func() *http.Request {
				r := httptest.NewRequest(http.MethodGet, "/", nil)
				r.Header.Set("Authorization", "Bearer i-am-a-token")
				return r
			},
			wantToken: "i-am-a-token",
		},
		{
			name:     "header with another scheme",
			strategy: StrategyHeader,
			request: func() *http.Request {
				r := httptest.NewRequest(http.MethodGet, "/", nil)
				r.Header.Set("Authorization", "Token i-am-a-token")
				return r
			},
			wantToken: "i-am-a-token",
		},
		{
			name:     "missing header",
			strategy: StrategyHeader,
			request: func() *http.Request {
				return httptest.NewRequest(http.MethodGet, "/", nil)
			},
			wantError: ErrHeaderMissing,
		},
		{
			name:     "blank header",
			strategy: StrategyHeader,
			request: func() *http.Request {
				r := httptest.NewRequest(http.MethodGet, "/", nil)
				r.Header.Set("Authorization", "   ")
				return r
			},
			wantError: ErrHeaderMissing,
		},
		{
			name:     "scheme without token",
			strategy: StrategyHeader,
			request: func() *http.Request {
				r := httptest.NewRequest(http.MethodGet, "/", nil)
				r.Header.Set("Authorization", "Bearer")
				return r
			},
			wantError: ErrHeaderMalformed,
		},
		{
			name:     "too many parts",
			strategy: StrategyHeader,
			request: func() *http.Request {
				r := httptest.NewRequest(http.MethodGet, "/", nil)
				r.Header.Set("Authorization", "Bearer a b")
				return r
			},
			wantError: ErrHeaderMalformed,
		},
		{
			name:     "header strategy ignores the cookie",
			strategy: StrategyHeader,
			request: func() *http.Request {
				r := httptest.NewRequest(http.MethodGet, "/", nil)
				r.AddCookie(&http.Cookie{Name: CookieName, Value: "cookie-token"})
				return r
			},
			wantError: ErrHeaderMissing,
		},
		{
			name:     "cookie",
			strategy: StrategyCookie,
			request: func() *http.Request {
				r := httptest.NewRequest(http.MethodGet, "/", nil)
				r.AddCookie(&http.Cookie{Name: CookieName, Value: "cookie-token"})
				return r
			},
			wantToken: "cookie-token",
		},
		{
			name:     "missing cookie",
			strategy: StrategyCookie,
			request: func() *http.Request {
				return httptest.NewRequest(http.MethodGet, "/", nil)
			},
			wantError: ErrCookieMissing,
		},
		{
			name:     "empty cookie",
			strategy: StrategyCookie,
			request: func() *http.Request {
				r := httptest.NewRequest(http.MethodGet, "/", nil)
				r.Header.Set("Cookie", CookieName+"=")
				return r
			},
			wantError: ErrCookieMissing,
		},
		{
			name:     "cookie strategy ignores the header",
			strategy: StrategyCookie,
			request: func() *http.Request {
				r := httptest.NewRequest(http.MethodGet, "/", nil)
				r.Header.Set("Authorization", "Bearer header-token")
				return r
			},
			wantError: ErrCookieMissing,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			token, err := Extract(testCase.request(), testCase.strategy)
			if testCase.wantError != nil {
				assert.ErrorIs(t, err, testCase.wantError)
				assert.Empty(t, token)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testCase.wantToken, token)
		})
	}
}

func Test_CookieTokenExtractor_customName(t *testing.T) {
	extract := CookieTokenExtractor("session")

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := extract(r)

	var credErr *core.CredentialError
	require.ErrorAs(t, err, &credErr)
	assert.Equal(t, core.ReasonCredentialMissing, credErr.Reason)
	assert.Equal(t, `Could not find authentication cookie "session".`, credErr.Message)

	r.AddCookie(&http.Cookie{Name: "session", Value: "abc"})
	token, err := extract(r)
	require.NoError(t, err)
	assert.Equal(t, "abc", token)
}

func Test_ExtractionErrorMessages(t *testing.T) {
	assert.Equal(t, "Header authorization not found.", ErrHeaderMissing.Error())
	assert.Equal(t, "Authorization header is malformed.", ErrHeaderMalformed.Error())
	assert.Equal(t, `Could not find authentication cookie "psg_auth_token".`, ErrCookieMissing.Error())
}
