package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dackJaniel/bogof-engine/internal/contracts"
	"github.com/dackJaniel/bogof-engine/internal/domain"
)

// HandleCartEvent dispatches one cart-mutation event from the host. Policy
// rejections inside the coupon guard are expected outcomes, not handler
// failures: they are logged and swallowed so the consumer does not retry
// them. The reconciliation itself is idempotent, so redelivered events are
// harmless.
func (s *Service) HandleCartEvent(ctx context.Context, event contracts.EventEnvelope) error {
	if !s.cfg.EnableEventConsumption {
		return nil
	}
	if strings.TrimSpace(event.EventID) == "" {
		return fmt.Errorf("event id missing: %w", domain.ErrInvalidInput)
	}

	switch event.EventType {
	case domain.EventCartUpdated:
		var payload contracts.CartUpdatedPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return fmt.Errorf("decode cart.updated payload: %w", err)
		}
		if strings.TrimSpace(payload.CartID) == "" {
			return fmt.Errorf("cart.updated without cart_id: %w", domain.ErrInvalidInput)
		}
		_, err := s.NewReconciliation(payload.CartID).Run(ctx)
		return err

	case domain.EventCartCouponApplied:
		var payload contracts.CartCouponAppliedPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return fmt.Errorf("decode cart.coupon_applied payload: %w", err)
		}
		if strings.TrimSpace(payload.CartID) == "" {
			return fmt.Errorf("cart.coupon_applied without cart_id: %w", domain.ErrInvalidInput)
		}
		_, err := s.HandleCouponApplied(ctx, payload.CartID, payload.CouponCode)
		if errors.Is(err, domain.ErrCouponExclusive) || errors.Is(err, domain.ErrCouponNotEligible) {
			slog.Default().InfoContext(ctx, "coupon event rejected by guard",
				"module", "application",
				"operation", "handle_cart_event",
				"outcome", "rejected",
				"event_id", event.EventID,
				"cart_id", payload.CartID,
			)
			return nil
		}
		return err

	default:
		return fmt.Errorf("event type %q: %w", event.EventType, domain.ErrUnsupportedEventType)
	}
}

// Campaigns lists the registry contents, optionally filtered to campaigns
// valid today.
func (s *Service) Campaigns(activeOnly bool) []domain.Campaign {
	if activeOnly {
		return s.registry.Active(domain.Today(s.nowFn()))
	}
	return s.registry.All()
}
