package handlers

import (
	"context"
)

// LoginLimiter throttles login attempts per client. A nil limiter disables
// throttling.
type LoginLimiter interface {
	Allow(ctx context.Context, identifier string) (bool, error)
	Reset(ctx context.Context, identifier string) error
}
