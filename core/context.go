package core

import "context"

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey int

const (
	claimsKey contextKey = iota
	userIDKey
)

// SetUserID binds the authenticated user to a request context.
func SetUserID(ctx context.Context, id UserID) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserIDFrom returns the UserID bound by SetUserID.
func UserIDFrom(ctx context.Context) (UserID, error) {
	id, ok := ctx.Value(userIDKey).(UserID)
	if !ok || id == "" {
		return "", ErrUserIDNotFound
	}
	return id, nil
}

// MustUserID is like UserIDFrom but panics when no user is bound. Use it
// only in handlers that are always behind the middleware.
func MustUserID(ctx context.Context) UserID {
	id, err := UserIDFrom(ctx)
	if err != nil {
		panic(err)
	}
	return id
}

// HasUserID reports whether a user is bound to ctx.
func HasUserID(ctx context.Context) bool {
	_, err := UserIDFrom(ctx)
	return err == nil
}

// GetClaims retrieves claims from the context with type safety using generics.
//
// Example usage:
//
//	claims, err := core.GetClaims[*validator.VerifiedClaims](ctx)
//	if err != nil {
//	    return err
//	}
func GetClaims[T any](ctx context.Context) (T, error) {
	var zero T

	val := ctx.Value(claimsKey)
	if val == nil {
		return zero, ErrClaimsNotFound
	}

	claims, ok := val.(T)
	if !ok {
		return zero, ErrClaimsNotFound
	}

	return claims, nil
}

// SetClaims stores claims in the context.
func SetClaims(ctx context.Context, claims any) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// HasClaims checks if claims exist in the context without retrieving them.
func HasClaims(ctx context.Context) bool {
	return ctx.Value(claimsKey) != nil
}
