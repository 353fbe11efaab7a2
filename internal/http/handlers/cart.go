package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/pribylovaa/car-marketplace/internal/cart"
	apierrors "github.com/pribylovaa/car-marketplace/internal/errors"
	"github.com/pribylovaa/car-marketplace/internal/http/middleware"
	"github.com/pribylovaa/car-marketplace/internal/models"
)

// CartResponse — содержимое корзины с агрегатами. Total — JSON-число.
type CartResponse struct {
	Items []models.CartItem `json:"items"`
	Count int               `json:"count"`
	Total json.Number       `json:"total"`
}

// ContainsResponse — ответ на «лежит ли объявление в корзине».
type ContainsResponse struct {
	ListingID int64 `json:"listing_id"`
	InCart    bool  `json:"in_cart"`
}

func (h *Handlers) store(r *http.Request) *cart.Store {
	return h.Carts.For(middleware.CartIDFrom(r.Context()))
}

func cartResponse(items []models.CartItem) CartResponse {
	if items == nil {
		items = []models.CartItem{}
	}

	s := cart.Summarize(items)

	return CartResponse{Items: s.Items, Count: s.Count, Total: json.Number(s.Total.String())}
}

func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	s, err := h.store(r).Summary(r.Context())
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, cartResponse(s.Items))
}

func (h *Handlers) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var in models.CartItem
	if err := decodeLenient(w, r, &in); err != nil {
		apierrors.WriteError(w, r, errInvalidArgument)
		return
	}

	items, err := h.store(r).AddItem(r.Context(), in)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, cartResponse(items))
}

func (h *Handlers) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "listing_id")
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	items, err := h.store(r).RemoveItem(r.Context(), id)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, cartResponse(items))
}

func (h *Handlers) CartContains(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "listing_id")
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	ok, err := h.store(r).Contains(r.Context(), id)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ContainsResponse{ListingID: id, InCart: ok})
}

func (h *Handlers) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.store(r).Clear(r.Context()); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// BuyNow — «купить сейчас»: корзина очищается и в ней остаётся одно объявление.
func (h *Handlers) BuyNow(w http.ResponseWriter, r *http.Request) {
	var in models.CartItem
	if err := decodeLenient(w, r, &in); err != nil {
		apierrors.WriteError(w, r, errInvalidArgument)
		return
	}

	items, err := h.store(r).BuyNow(r.Context(), in)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, cartResponse(items))
}
