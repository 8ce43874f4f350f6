package oidc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"

	"github.com/go-passage/passage/transport"
)

// WellKnownPath is appended to the issuer URL to build the discovery URL.
const WellKnownPath = ".well-known/openid-configuration"

// ErrMissingJWKSURI is returned when the discovery document has no jwks_uri.
var ErrMissingJWKSURI = errors.New("discovery document has no jwks_uri")

// WellKnownEndpoints holds the discovery document members we use.
type WellKnownEndpoints struct {
	Issuer  string `json:"issuer"`
	JWKSURI string `json:"jwks_uri"`
}

// GetWellKnownEndpoints fetches the discovery document of issuerURL.
func GetWellKnownEndpoints(ctx context.Context, doer transport.Doer, issuerURL string) (*WellKnownEndpoints, error) {
	u, err := url.Parse(issuerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid issuer URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid issuer URL %q: must be absolute", issuerURL)
	}
	u.Path = path.Join("/", u.Path, WellKnownPath)

	resp, err := transport.Fetch(ctx, doer, u.String(), http.Header{"Accept": []string{"application/json"}})
	if err != nil {
		return nil, fmt.Errorf("could not get well known endpoints from url %s: %w", u.String(), err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("could not get well known endpoints from url %s: status %d", u.String(), resp.StatusCode)
	}

	var endpoints WellKnownEndpoints
	if err := json.Unmarshal(resp.Body, &endpoints); err != nil {
		return nil, fmt.Errorf("could not decode json body when getting well known endpoints: %w", err)
	}
	return &endpoints, nil
}

// DiscoverJWKSURI returns the jwks_uri published for issuerURL.
func DiscoverJWKSURI(ctx context.Context, doer transport.Doer, issuerURL string) (string, error) {
	endpoints, err := GetWellKnownEndpoints(ctx, doer, issuerURL)
	if err != nil {
		return "", err
	}
	if endpoints.JWKSURI == "" {
		return "", ErrMissingJWKSURI
	}
	return endpoints.JWKSURI, nil
}
