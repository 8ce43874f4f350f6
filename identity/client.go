package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-passage/passage/transport"
)

// DefaultBaseURL is the root of the Passage management API.
const DefaultBaseURL = "https://api.passage.id/v1/apps/"

// Logger defines the logging interface used by the Client.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Client calls the Passage management API for a single application.
// It is safe for concurrent use.
type Client struct {
	appID   string
	apiKey  string
	baseURL string
	doer    transport.Doer
	logger  Logger
}

// New returns a Client for appID. apiKey may be empty if only RefreshToken
// is used.
func New(appID, apiKey string, opts ...Option) (*Client, error) {
	if appID == "" {
		return nil, errors.New("app ID is required")
	}

	c := &Client{
		appID:   appID,
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}
	if c.doer == nil {
		c.doer = transport.NewHTTPDoer(nil)
	}

	return c, nil
}

// AppID returns the application the Client is bound to.
func (c *Client) AppID() string {
	return c.appID
}

// GetApp returns the application.
func (c *Client) GetApp(ctx context.Context) (*App, error) {
	var out struct {
		App *App `json:"app"`
	}
	err := c.call(ctx, call{
		op:     ErrCouldNotFetchApp,
		method: http.MethodGet,
		want:   []int{http.StatusOK},
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.App, nil
}

// CreateMagicLink creates a login link for email that lands on redirectURL.
func (c *Client) CreateMagicLink(ctx context.Context, email, redirectURL string) (*MagicLink, error) {
	var out struct {
		MagicLink *MagicLink `json:"magic_link"`
	}
	err := c.call(ctx, call{
		op:     ErrFailedToCreateMagicLink,
		method: http.MethodPost,
		path:   "/magic-links",
		body: map[string]string{
			"email":        email,
			"redirect_url": redirectURL,
		},
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.MagicLink, nil
}

// ListDevices returns the WebAuthn devices of a user.
func (c *Client) ListDevices(ctx context.Context, userID string) ([]Device, error) {
	var out struct {
		Devices []Device `json:"devices"`
	}
	err := c.call(ctx, call{
		op:     ErrFailedToListDevices,
		method: http.MethodGet,
		path:   userPath(userID, "devices"),
		ids:    []string{userID},
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.Devices, nil
}

// RevokeDevice removes a device from a user.
func (c *Client) RevokeDevice(ctx context.Context, userID, deviceID string) error {
	return c.call(ctx, call{
		op:     ErrFailedToRevokeDevice,
		method: http.MethodDelete,
		path:   userPath(userID, "devices", deviceID),
		ids:    []string{userID, deviceID},
		want:   []int{http.StatusOK},
	}, nil)
}

// SignOut revokes every refresh token of a user.
func (c *Client) SignOut(ctx context.Context, userID string) error {
	return c.call(ctx, call{
		op:     ErrFailedToRevokeRefreshTokens,
		method: http.MethodDelete,
		path:   userPath(userID, "tokens"),
		ids:    []string{userID},
		want:   []int{http.StatusOK},
	}, nil)
}

// GetUser returns a user.
func (c *Client) GetUser(ctx context.Context, userID string) (*User, error) {
	return c.userCall(ctx, call{
		op:     ErrFailedToRetrieveUser,
		method: http.MethodGet,
		path:   userPath(userID),
		ids:    []string{userID},
		want:   []int{http.StatusOK},
	})
}

// CreateUser creates a user identified by email or phone.
func (c *Client) CreateUser(ctx context.Context, req CreateUserRequest) (*User, error) {
	if req.Email == "" && req.Phone == "" {
		return nil, &Error{Op: ErrFailedToCreateUser, Err: ErrMissingEmailOrPhone}
	}
	return c.userCall(ctx, call{
		op:     ErrFailedToCreateUser,
		method: http.MethodPost,
		path:   "/users",
		body:   req,
		want:   []int{http.StatusOK, http.StatusCreated},
	})
}

// UpdateUser changes the email, phone or metadata of a user.
func (c *Client) UpdateUser(ctx context.Context, userID string, req UpdateUserRequest) (*User, error) {
	return c.userCall(ctx, call{
		op:     ErrFailedToUpdateUser,
		method: http.MethodPatch,
		path:   userPath(userID),
		ids:    []string{userID},
		body:   req,
		want:   []int{http.StatusOK},
	})
}

// DeactivateUser prevents a user from logging in.
func (c *Client) DeactivateUser(ctx context.Context, userID string) (*User, error) {
	return c.userCall(ctx, call{
		op:     ErrFailedToDeactivateUser,
		method: http.MethodPatch,
		path:   userPath(userID, "deactivate"),
		ids:    []string{userID},
		want:   []int{http.StatusOK},
	})
}

// ActivateUser re-enables a deactivated user.
func (c *Client) ActivateUser(ctx context.Context, userID string) (*User, error) {
	return c.userCall(ctx, call{
		op:     ErrFailedToActivateUser,
		method: http.MethodPatch,
		path:   userPath(userID, "activate"),
		ids:    []string{userID},
		want:   []int{http.StatusOK},
	})
}

// DeleteUser removes a user.
func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	return c.call(ctx, call{
		op:     ErrFailedToDeleteUser,
		method: http.MethodDelete,
		path:   userPath(userID),
		ids:    []string{userID},
		want:   []int{http.StatusOK},
	}, nil)
}

// RefreshToken exchanges a refresh token for a new auth token. The request
// is not authenticated with the API key.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*AuthResult, error) {
	var out struct {
		AuthResult *AuthResult `json:"auth_result"`
	}
	err := c.call(ctx, call{
		op:        ErrFailedToRefreshToken,
		method:    http.MethodPost,
		path:      "/tokens",
		body:      map[string]string{"refresh_token": refreshToken},
		want:      []int{http.StatusCreated},
		anonymous: true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.AuthResult, nil
}

func (c *Client) userCall(ctx context.Context, rc call) (*User, error) {
	var out struct {
		User *User `json:"user"`
	}
	if err := c.call(ctx, rc, &out); err != nil {
		return nil, err
	}
	if out.User == nil {
		return nil, &Error{Op: rc.op, Message: "response has no user"}
	}
	return out.User, nil
}

// call describes a single API request.
type call struct {
	op     error
	method string
	path   string
	// ids are path parameters that must not be empty.
	ids  []string
	body any
	// want lists the accepted status codes; empty accepts any 2xx.
	want      []int
	anonymous bool
}

func (c *Client) call(ctx context.Context, rc call, out any) error {
	for _, id := range rc.ids {
		if id == "" {
			return &Error{Op: rc.op, Message: "missing path parameter"}
		}
	}
	if !rc.anonymous && c.apiKey == "" {
		return &Error{Op: rc.op, Err: ErrMissingAPIKey}
	}

	req := &transport.Request{
		Method: rc.method,
		URL:    c.baseURL + url.PathEscape(c.appID) + rc.path,
		Header: http.Header{},
	}
	req.Header.Set("Accept", "application/json")
	if !rc.anonymous {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if rc.body != nil {
		data, err := json.Marshal(rc.body)
		if err != nil {
			return &Error{Op: rc.op, Err: err}
		}
		req.Body = data
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.doer.Do(ctx, req)
	if err != nil {
		c.log().Warn("passage api request failed", "method", rc.method, "path", rc.path, "error", err)
		return &Error{Op: rc.op, Err: err}
	}
	c.log().Debug("passage api request", "method", rc.method, "path", rc.path, "status", resp.StatusCode)

	if !accepted(resp.StatusCode, rc.want) {
		return &Error{
			Op:         rc.op,
			StatusCode: resp.StatusCode,
			Message:    apiMessage(resp.Body),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return &Error{Op: rc.op, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

func (c *Client) log() Logger {
	if c.logger == nil {
		return nopLogger{}
	}
	return c.logger
}

func accepted(status int, want []int) bool {
	if len(want) == 0 {
		return status >= 200 && status < 300
	}
	for _, code := range want {
		if status == code {
			return true
		}
	}
	return false
}

// apiMessage extracts the "error" field of a Passage error body.
func apiMessage(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Error
}

func userPath(userID string, segments ...string) string {
	p := "/users/" + url.PathEscape(userID)
	for _, s := range segments {
		p += "/" + url.PathEscape(s)
	}
	return p
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
