package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dackJaniel/bogof-engine/internal/contracts"
	"github.com/dackJaniel/bogof-engine/internal/domain"
)

func (h *Handler) listCampaigns(w http.ResponseWriter, r *http.Request) {
	activeOnly := strings.EqualFold(r.URL.Query().Get("active"), "true")
	campaigns := h.service.Campaigns(activeOnly)
	writeSuccess(w, http.StatusOK, "", map[string]interface{}{
		"items": campaigns,
		"total": len(campaigns),
	})
}

func (h *Handler) recalculateCart(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "cart_id")
	if cartID == "" {
		writeError(w, http.StatusBadRequest, "invalid_input", "cart_id is required", requestIDFromContext(r.Context()))
		return
	}
	result, err := h.service.NewReconciliation(cartID).Run(r.Context())
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "", result)
}

func (h *Handler) applyCoupon(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "cart_id")
	var req contracts.ApplyCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error(), requestIDFromContext(r.Context()))
		return
	}
	code := domain.NormalizeCouponCode(req.Code)
	if code == "" {
		writeError(w, http.StatusBadRequest, "invalid_input", "coupon code is required", requestIDFromContext(r.Context()))
		return
	}

	if err := h.carts.ApplyCoupon(r.Context(), cartID, code); err != nil {
		status, errCode := mapDomainError(err)
		writeError(w, status, errCode, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	outcome, err := h.service.HandleCouponApplied(r.Context(), cartID, code)
	if err != nil {
		status, errCode := mapDomainError(err)
		writeError(w, status, errCode, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusCreated, "", outcome)
}

func (h *Handler) updateLineQuantity(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "cart_id")
	lineKey := chi.URLParam(r, "item_key")
	var req contracts.UpdateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error(), requestIDFromContext(r.Context()))
		return
	}
	if err := h.service.ChangeLineQuantity(r.Context(), cartID, lineKey, req.Quantity); err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "quantity updated", nil)
}

func (h *Handler) removeGrants(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "cart_id")
	removed, err := h.service.RemoveAllGrants(r.Context(), cartID)
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "", map[string]interface{}{"removed": removed})
}

func (h *Handler) listNotices(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "cart_id")
	notices, err := h.notices.Drain(r.Context(), cartID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	if notices == nil {
		notices = []domain.Notice{}
	}
	writeSuccess(w, http.StatusOK, "", map[string]interface{}{
		"items": notices,
		"total": len(notices),
	})
}
