package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dackJaniel/bogof-engine/internal/application"
	"github.com/dackJaniel/bogof-engine/internal/domain"
	"github.com/dackJaniel/bogof-engine/internal/ports"
)

// NoticeDrainer reads and clears the pending notices for a cart. Both the
// in-memory recorder and the Redis sink satisfy it.
type NoticeDrainer interface {
	Drain(ctx context.Context, cartID string) ([]domain.Notice, error)
}

type Handler struct {
	service *application.Service
	carts   ports.CartStore
	notices NoticeDrainer
}

func NewHandler(service *application.Service, carts ports.CartStore, notices NoticeDrainer) *Handler {
	return &Handler{service: service, carts: carts, notices: notices}
}

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { writeSuccess(w, http.StatusOK, "ok", nil) })
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) { writeSuccess(w, http.StatusOK, "ready", nil) })

	r.Route("/v1", func(r chi.Router) {
		r.Get("/campaigns", handler.listCampaigns)
		r.Route("/carts/{cart_id}", func(r chi.Router) {
			r.Post("/recalculate", handler.recalculateCart)
			r.Post("/coupons", handler.applyCoupon)
			r.Put("/items/{item_key}/quantity", handler.updateLineQuantity)
			r.Delete("/grants", handler.removeGrants)
			r.Get("/notices", handler.listNotices)
		})
	})
	return r
}
