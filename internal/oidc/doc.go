/*
Package oidc resolves the JWKS URL of an issuer through OpenID Connect
discovery.

Providers publish a discovery document at

	<issuer>/.well-known/openid-configuration

whose jwks_uri member points at the signing keys. Passage applications have a
fixed JWKS location, so discovery is only used when the service is configured
with a discovery URL, e.g. behind a proxy that rewrites issuer paths.

	uri, err := oidc.DiscoverJWKSURI(ctx, doer, "https://auth.example.com/v1/apps/app123")
*/
package oidc
