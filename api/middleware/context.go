package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/tradeflow-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tradeflow-backend/pkg/errors"
)

type contextKey string

const (
	ctxUserID   contextKey = "user_id"
	ctxUserType contextKey = "user_type"
)

// UserIDFromContext returns the authenticated user, if any.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	if ctx == nil {
		return uuid.Nil, false
	}
	v, ok := ctx.Value(ctxUserID).(uuid.UUID)
	if !ok || v == uuid.Nil {
		return uuid.Nil, false
	}
	return v, true
}

func UserTypeFromContext(ctx context.Context) (enums.UserType, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(ctxUserType).(enums.UserType)
	return v, ok && v.IsValid()
}

// WithIdentity injects the caller identity into the context.
func WithIdentity(ctx context.Context, userID uuid.UUID, userType enums.UserType) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUserID, userID)
	return context.WithValue(ctx, ctxUserType, userType)
}

// CallerID returns the authenticated user or an unauthorized error.
func CallerID(ctx context.Context) (uuid.UUID, error) {
	id, ok := UserIDFromContext(ctx)
	if !ok {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return id, nil
}
