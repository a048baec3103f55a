package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pedezap/api/internal/cart"
	"github.com/pedezap/api/internal/database"
)

// CartStore defines the database methods needed by cart handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type CartStore interface {
	GetEstablishmentBySlug(ctx context.Context, slug string) (database.Establishment, error)
	GetProduct(ctx context.Context, arg database.GetProductParams) (database.Product, error)
}

// CartHandler handles the storefront cart. Prices and names are always
// resolved server-side from the menu; the client only sends product ids
// and quantities.
type CartHandler struct {
	carts *cart.Store
	store CartStore
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(carts *cart.Store, store CartStore) *CartHandler {
	return &CartHandler{carts: carts, store: store}
}

// RegisterRoutes registers cart endpoints on the given Chi router.
// Expected to be mounted inside a storefront subrouter: /establishments/{slug}/cart
func (h *CartHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Get)
	r.Post("/items", h.AddItem)
	r.Delete("/items/{index}", h.RemoveItem)
	r.Delete("/", h.Clear)
}

// --- Request / Response types ---

type addItemRequest struct {
	ProductID   uuid.UUID         `json:"produto_id"`
	VariationID *uuid.UUID        `json:"variacao_id,omitempty"`
	Quantity    int32             `json:"quantidade"`
	AddOns      []addAddOnRequest `json:"adicionais,omitempty"`
}

type addAddOnRequest struct {
	ProductID uuid.UUID `json:"produto_id"`
	Quantity  int32     `json:"quantidade"`
}

type cartResponse struct {
	Items []cart.Item `json:"itens"`
	Total string      `json:"total"`
}

// --- Handlers ---

// Get returns the cart's current items and total.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	_, key, ok := h.resolve(w, r)
	if !ok {
		return
	}
	h.respondCart(w, key)
}

// AddItem appends a line item. The product and every add-on must belong to
// the establishment's active menu; stale menu references are rejected.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	est, key, ok := h.resolve(w, r)
	if !ok {
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Quantity <= 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "quantidade deve ser maior que zero"})
		return
	}

	product, ok := h.lookupProduct(w, r, est.ID, req.ProductID)
	if !ok {
		return
	}

	item := cart.Item{
		ProductID:   product.ID,
		VariationID: req.VariationID,
		Name:        product.Name,
		UnitPrice:   database.NumericToDecimal(product.Price),
		Quantity:    req.Quantity,
	}

	for _, a := range req.AddOns {
		if a.Quantity <= 0 {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "quantidade deve ser maior que zero"})
			return
		}
		addOn, ok := h.lookupProduct(w, r, est.ID, a.ProductID)
		if !ok {
			return
		}
		item.AddOns = append(item.AddOns, cart.AddOn{
			ID:        addOn.ID,
			Name:      addOn.Name,
			UnitPrice: database.NumericToDecimal(addOn.Price),
			Quantity:  a.Quantity,
		})
	}

	h.carts.Add(cart.Key(key), item)
	h.respondCart(w, key)
}

// RemoveItem drops the line item at the given position.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	_, key, ok := h.resolve(w, r)
	if !ok {
		return
	}

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "índice inválido"})
		return
	}

	h.carts.Remove(cart.Key(key), index)
	h.respondCart(w, key)
}

// Clear empties the cart.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	_, key, ok := h.resolve(w, r)
	if !ok {
		return
	}

	h.carts.Clear(cart.Key(key))
	h.respondCart(w, key)
}

// --- Helpers ---

func (h *CartHandler) resolve(w http.ResponseWriter, r *http.Request) (database.Establishment, cart.Key, bool) {
	slug := chi.URLParam(r, "slug")

	est, err := h.store.GetEstablishmentBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "estabelecimento não encontrado"})
			return database.Establishment{}, cart.Key{}, false
		}
		log.Printf("ERROR: get establishment: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return database.Establishment{}, cart.Key{}, false
	}

	sessionID, err := uuid.Parse(r.Header.Get(sessionHeader))
	if err != nil {
		sessionID = uuid.New()
	}
	w.Header().Set(sessionHeader, sessionID.String())

	return est, cart.Key{EstablishmentSlug: est.Slug, SessionID: sessionID}, true
}

func (h *CartHandler) lookupProduct(w http.ResponseWriter, r *http.Request, establishmentID, productID uuid.UUID) (database.Product, bool) {
	product, err := h.store.GetProduct(r.Context(), database.GetProductParams{
		ID:              productID,
		EstablishmentID: establishmentID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "produto não encontrado"})
			return database.Product{}, false
		}
		log.Printf("ERROR: get product: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return database.Product{}, false
	}
	return product, true
}

func (h *CartHandler) respondCart(w http.ResponseWriter, key cart.Key) {
	items := h.carts.Items(key)
	writeJSON(w, http.StatusOK, cartResponse{
		Items: items,
		Total: cart.Total(items).StringFixed(2),
	})
}
