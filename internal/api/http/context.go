package http

import (
	"context"

	"github.com/barneeyyu/library-server/internal/domain"
)

type callerKey struct{}

// Caller is the authenticated borrower behind a request.
type Caller struct {
	BorrowerID int32
	Role       domain.Role
}

func withCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFromContext returns the caller set by the auth middleware.
func CallerFromContext(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(Caller)
	return c, ok
}
