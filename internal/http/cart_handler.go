package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/fjod/go_booking/internal/domain"
	"github.com/fjod/go_booking/internal/service"
)

type CartHandler struct {
	responder
	cart *service.CartService
}

func NewCartHandler(cart *service.CartService, logger *zap.Logger) *CartHandler {
	return &CartHandler{responder: newResponder(logger), cart: cart}
}

type AddItemRequestDTO struct {
	Item     domain.MenuItem `json:"item"`
	Quantity int             `json:"quantity"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.cart.Cart()
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequestDTO
	if !h.decodeJSON(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.Item.ID) == "" {
		h.respondError(w, http.StatusBadRequest, "invalid_item_id", "item.id is required")
		return
	}
	if req.Item.UnitPrice < 0 || req.Item.UnitPrice > domain.MaxUnitPrice {
		h.respondError(w, http.StatusBadRequest, "invalid_unit_price", "item.unit_price must be between 0 and 1000000000")
		return
	}
	// zero means "not given" and defaults to one
	if req.Quantity < 0 || req.Quantity > domain.MaxItemQuantity {
		h.respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	cart, err := h.cart.AddItem(req.Item, req.Quantity)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, cart)
}

func (h *CartHandler) DecreaseQuantity(w http.ResponseWriter, r *http.Request) {
	cart, err := h.cart.DecreaseQuantity(chi.URLParam(r, "item_id"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	cart, err := h.cart.RemoveItem(chi.URLParam(r, "item_id"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.cart.Clear()
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, cart)
}
