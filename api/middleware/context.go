package middleware

import (
	"context"

	"github.com/finleap/scf-onboarding-backend/pkg/enums"
	"github.com/finleap/scf-onboarding-backend/pkg/types"
	"github.com/google/uuid"
)

type contextKey string

const (
	ctxUserID contextKey = "user_id"
	ctxEmail  contextKey = "email"
	ctxRole   contextKey = "actor_role"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func EmailFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxEmail).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

// IdentityFromContext resolves the authenticated caller seeded by Auth.
// An anonymous request yields a zero Identity (UserID == uuid.Nil).
func IdentityFromContext(ctx context.Context) types.Identity {
	identity := types.Identity{
		Email: EmailFromContext(ctx),
		Role:  enums.UserRole(RoleFromContext(ctx)),
	}
	if raw := UserIDFromContext(ctx); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			identity.UserID = id
		}
	}
	return identity
}

// WithIdentity injects the caller's identity into the context.
func WithIdentity(ctx context.Context, identity types.Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUserID, identity.UserID.String())
	ctx = context.WithValue(ctx, ctxEmail, identity.Email)
	return context.WithValue(ctx, ctxRole, string(identity.Role))
}
