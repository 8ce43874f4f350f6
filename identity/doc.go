/*
Package identity is a thin client for the Passage management API.

It maps the REST surface of https://api.passage.id/v1/apps/<app id> to typed
Go calls: application lookup, magic links, users and their devices, session
revocation and refresh-token exchange. Every call except RefreshToken is
authenticated with the application's API key as a bearer token.

	client, err := identity.New(appID, apiKey)
	if err != nil {
	    log.Fatal(err)
	}
	user, err := client.GetUser(ctx, userID)

Failures are returned as *Error values. Each operation has its own sentinel,
so callers can match them with errors.Is:

	if errors.Is(err, identity.ErrFailedToRetrieveUser) {
	    // ...
	}
*/
package identity
