package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pedezap/api/internal/database"
	"github.com/pedezap/api/internal/enum"
	"github.com/pedezap/api/internal/ws"
)

// OrderStore defines the database methods needed by order handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type OrderStore interface {
	GetEstablishmentBySlug(ctx context.Context, slug string) (database.Establishment, error)
	GetOrder(ctx context.Context, arg database.GetOrderParams) (database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	ListOrdersByEstablishment(ctx context.Context, arg database.ListOrdersByEstablishmentParams) ([]database.Order, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
}

// allowedTransitions encodes the live order lifecycle. Delivered and
// cancelled are terminal.
var allowedTransitions = map[string][]string{
	enum.OrderStatusPendente:  {enum.OrderStatusEmPreparo, enum.OrderStatusCancelado},
	enum.OrderStatusEmPreparo: {enum.OrderStatusPronto, enum.OrderStatusCancelado},
	enum.OrderStatusPronto:    {enum.OrderStatusEntregue, enum.OrderStatusCancelado},
}

// OrderHandler handles order tracking and the admin order board. Status
// changes are pushed to connected tracking pages through the websocket hub.
type OrderHandler struct {
	store OrderStore
	hub   *ws.Hub
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(store OrderStore, hub *ws.Hub) *OrderHandler {
	return &OrderHandler{store: store, hub: hub}
}

// RegisterPublicRoutes registers the customer-facing tracking endpoint.
// Expected to be mounted inside a storefront subrouter: /establishments/{slug}
func (h *OrderHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/orders/{id}", h.Track)
}

// RegisterAdminRoutes registers the admin order board endpoints.
// Expected to be mounted at /admin/establishments/{eid}
func (h *OrderHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/orders", h.List)
	r.Get("/orders/{id}", h.Get)
	r.Patch("/orders/{id}/status", h.UpdateStatus)
}

// --- Request / Response types ---

type orderResponse struct {
	ID            uuid.UUID `json:"id"`
	OrderNumber   string    `json:"numero"`
	CustomerName  string    `json:"cliente"`
	CustomerPhone string    `json:"telefone"`
	DeliveryType  string    `json:"tipo_entrega"`
	Address       *string   `json:"endereco,omitempty"`
	DeliveryFee   string    `json:"taxa_entrega"`
	PaymentMethod string    `json:"metodo_pagamento"`
	ChangeFor     *string   `json:"troco_para,omitempty"`
	Notes         *string   `json:"observacoes,omitempty"`
	Subtotal      string    `json:"subtotal"`
	TotalAmount   string    `json:"total"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"criado_em"`
	UpdatedAt     time.Time `json:"atualizado_em"`
}

type orderItemResponse struct {
	Name      string          `json:"nome"`
	UnitPrice string          `json:"preco_unitario"`
	Quantity  int32           `json:"quantidade"`
	AddOns    json.RawMessage `json:"adicionais,omitempty"`
	Subtotal  string          `json:"subtotal"`
}

type orderDetailResponse struct {
	orderResponse
	Items []orderItemResponse `json:"itens"`
}

type orderListResponse struct {
	Orders []orderResponse `json:"pedidos"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func toOrderResponse(o database.Order) orderResponse {
	resp := orderResponse{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		CustomerName:  o.CustomerName,
		CustomerPhone: o.CustomerPhone,
		DeliveryType:  o.DeliveryType,
		DeliveryFee:   numericToString(o.DeliveryFee),
		PaymentMethod: o.PaymentMethod,
		Subtotal:      numericToString(o.Subtotal),
		TotalAmount:   numericToString(o.TotalAmount),
		Status:        o.Status,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
	if o.Address.Valid {
		resp.Address = &o.Address.String
	}
	if o.ChangeFor.Valid {
		v := numericToString(o.ChangeFor)
		resp.ChangeFor = &v
	}
	if o.Notes.Valid {
		resp.Notes = &o.Notes.String
	}
	return resp
}

func toOrderItemResponse(it database.OrderItem) orderItemResponse {
	return orderItemResponse{
		Name:      it.Name,
		UnitPrice: numericToString(it.UnitPrice),
		Quantity:  it.Quantity,
		AddOns:    it.AddOns,
		Subtotal:  numericToString(it.Subtotal),
	}
}

// --- Handlers ---

// Track handles GET /establishments/{slug}/orders/{id}, the public tracking
// page. The order id is the capability: whoever holds the link sees the order.
func (h *OrderHandler) Track(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	est, err := h.store.GetEstablishmentBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "estabelecimento não encontrado"})
			return
		}
		log.Printf("ERROR: get establishment: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	h.respondOrderDetail(w, r, orderID, est.ID)
}

// List handles GET /admin/establishments/{eid}/orders with an optional
// status filter for the board's columns.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	establishmentID, err := uuid.Parse(chi.URLParam(r, "eid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid establishment ID"})
		return
	}

	status := r.URL.Query().Get("status")
	if status != "" && !isValidOrderStatus(status) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	orders, err := h.store.ListOrdersByEstablishment(r.Context(), database.ListOrdersByEstablishmentParams{
		EstablishmentID: establishmentID,
		Status:          status,
		Limit:           int32(limit),
		Offset:          int32(offset),
	})
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, toOrderResponse(o))
	}
	writeJSON(w, http.StatusOK, orderListResponse{Orders: resp, Limit: limit, Offset: offset})
}

// Get handles GET /admin/establishments/{eid}/orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	establishmentID, err := uuid.Parse(chi.URLParam(r, "eid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid establishment ID"})
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	h.respondOrderDetail(w, r, orderID, establishmentID)
}

// UpdateStatus handles PATCH /admin/establishments/{eid}/orders/{id}/status.
// The transition is validated against the lifecycle table before the write;
// the write itself carries the previous status so a concurrent update loses
// cleanly instead of clobbering.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	establishmentID, err := uuid.Parse(chi.URLParam(r, "eid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid establishment ID"})
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required"})
		return
	}
	if !isValidOrderStatus(req.Status) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}

	current, err := h.store.GetOrder(r.Context(), database.GetOrderParams{
		ID:              orderID,
		EstablishmentID: establishmentID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "pedido não encontrado"})
			return
		}
		log.Printf("ERROR: get order for status update: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if err := validateStatusTransition(current.Status, req.Status); err != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}

	updated, err := h.store.UpdateOrderStatus(r.Context(), database.UpdateOrderStatusParams{
		ID:              orderID,
		EstablishmentID: establishmentID,
		Status:          req.Status,
		PrevStatus:      current.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// The status changed between our read and write.
			writeJSON(w, http.StatusConflict, map[string]string{"error": "status do pedido mudou, tente novamente"})
			return
		}
		log.Printf("ERROR: update order status: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.hub.BroadcastOrderStatus(establishmentID, updated.ID, updated.Status)

	writeJSON(w, http.StatusOK, toOrderResponse(updated))
}

// --- Helpers ---

func (h *OrderHandler) respondOrderDetail(w http.ResponseWriter, r *http.Request, orderID, establishmentID uuid.UUID) {
	order, err := h.store.GetOrder(r.Context(), database.GetOrderParams{
		ID:              orderID,
		EstablishmentID: establishmentID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "pedido não encontrado"})
			return
		}
		log.Printf("ERROR: get order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	dbItems, err := h.store.ListOrderItemsByOrder(r.Context(), order.ID)
	if err != nil {
		log.Printf("ERROR: list order items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	items := make([]orderItemResponse, 0, len(dbItems))
	for _, it := range dbItems {
		items = append(items, toOrderItemResponse(it))
	}

	writeJSON(w, http.StatusOK, orderDetailResponse{
		orderResponse: toOrderResponse(order),
		Items:         items,
	})
}

func isValidOrderStatus(s string) bool {
	switch s {
	case enum.OrderStatusPendente, enum.OrderStatusEmPreparo, enum.OrderStatusPronto,
		enum.OrderStatusEntregue, enum.OrderStatusCancelado:
		return true
	}
	return false
}

func validateStatusTransition(current, next string) error {
	allowed, ok := allowedTransitions[current]
	if !ok {
		return fmt.Errorf("não é possível alterar um pedido %s", current)
	}
	for _, s := range allowed {
		if s == next {
			return nil
		}
	}
	return fmt.Errorf("não é possível mudar de %s para %s", current, next)
}
