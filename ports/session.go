package ports

import (
	"context"

	"regdash/domain/core"
	"regdash/domain/dashboard"
)

// SessionStore keeps dashboard view state between requests
type SessionStore interface {
	Create(ctx context.Context, state *dashboard.State) error
	Get(ctx context.Context, id core.SessionID) (*dashboard.State, error)

	// Update applies fn to the stored state atomically. fn may return an error
	// to abort without saving.
	Update(ctx context.Context, id core.SessionID, fn func(*dashboard.State) error) (*dashboard.State, error)
	Delete(ctx context.Context, id core.SessionID) error
}
