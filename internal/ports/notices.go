package ports

import (
	"context"

	"github.com/dackJaniel/bogof-engine/internal/domain"
)

// NoticeSink receives user-facing messages for a cart. Fire-and-forget: the
// engine logs delivery failures and moves on.
type NoticeSink interface {
	Notify(ctx context.Context, cartID string, notice domain.Notice) error
}
