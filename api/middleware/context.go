package middleware

import (
	"context"
	"strings"

	pkgauth "github.com/angelmondragon/storefront-backend/pkg/auth"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type contextKey string

const (
	ctxUserID contextKey = "user_id"
	ctxEmail  contextKey = "user_email"
	ctxName   contextKey = "user_name"
)

func UserIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxUserID)
}

// IdentityFromContext returns the verified customer identity, if any.
func IdentityFromContext(ctx context.Context) pkgauth.Identity {
	return pkgauth.Identity{
		CustomerID: stringFromContext(ctx, ctxUserID),
		Email:      stringFromContext(ctx, ctxEmail),
		Name:       stringFromContext(ctx, ctxName),
	}
}

// WithUserID injects the user identifier into the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}

// WithIdentity injects the full customer identity, mostly for handler tests.
func WithIdentity(ctx context.Context, identity pkgauth.Identity) context.Context {
	ctx = WithUserID(ctx, identity.CustomerID)
	ctx = context.WithValue(ctx, ctxEmail, identity.Email)
	return context.WithValue(ctx, ctxName, identity.Name)
}

func stringFromContext(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// RequireUserID returns the authenticated customer id or an unauthorized error.
func RequireUserID(ctx context.Context) (string, error) {
	userID := strings.TrimSpace(UserIDFromContext(ctx))
	if userID == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "customer context missing")
	}
	return userID, nil
}
