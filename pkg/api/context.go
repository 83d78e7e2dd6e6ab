package api

import (
	"context"

	"github.com/YeyeJames/jiale15/pkg/logger"
	"github.com/YeyeJames/jiale15/pkg/types"
)

type claimsKey struct{}

// WithClaims stores the authenticated user's claims on the context
func WithClaims(ctx context.Context, claims *types.UserClaims) context.Context {
	ctx = context.WithValue(ctx, claimsKey{}, claims)
	return context.WithValue(ctx, logger.UserIDKey, claims.UserID)
}

// ClaimsFrom returns the claims stored by WithClaims, if any
func ClaimsFrom(ctx context.Context) (*types.UserClaims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*types.UserClaims)
	return claims, ok && claims != nil
}

// ActorID returns the authenticated user id for audit records, or "system"
func ActorID(ctx context.Context) string {
	if claims, ok := ClaimsFrom(ctx); ok {
		return claims.UserID
	}
	return "system"
}
