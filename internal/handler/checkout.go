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
	"github.com/pedezap/api/internal/checkout"
	"github.com/pedezap/api/internal/database"
	"github.com/pedezap/api/internal/enum"
	"github.com/shopspring/decimal"
)

// sessionHeader carries the visitor's session id, the server analogue of
// the storefront's per-establishment local storage scope.
const sessionHeader = "X-Session-ID"

// EstablishmentStore defines the database methods needed to resolve
// storefront slugs. Satisfied by *database.Queries.
type EstablishmentStore interface {
	GetEstablishmentBySlug(ctx context.Context, slug string) (database.Establishment, error)
}

// CheckoutHandler drives the four-step checkout wizard over HTTP: one step
// form per PUT, navigation POSTs, and a finalize that submits the order.
type CheckoutHandler struct {
	ctrl  *checkout.Controller
	carts *cart.Store
	store EstablishmentStore
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(ctrl *checkout.Controller, carts *cart.Store, store EstablishmentStore) *CheckoutHandler {
	return &CheckoutHandler{ctrl: ctrl, carts: carts, store: store}
}

// RegisterRoutes registers checkout endpoints on the given Chi router.
// Expected to be mounted inside a storefront subrouter: /establishments/{slug}/checkout
func (h *CheckoutHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Get)
	r.Put("/customer", h.SaveCustomer)
	r.Put("/delivery", h.SaveDelivery)
	r.Put("/payment", h.SavePayment)
	r.Post("/back", h.Back)
	r.Post("/step/{n}", h.GoToStep)
	r.Post("/finalize", h.Finalize)
}

// --- Request / Response types ---

type saveDeliveryRequest struct {
	Type    string            `json:"tipo_entrega"`
	Address *checkout.Address `json:"endereco,omitempty"`
}

type savePaymentRequest struct {
	Method    string `json:"metodo"`
	ChangeFor string `json:"troco_para,omitempty"`
}

type finalizeRequest struct {
	Notes string `json:"observacoes"`
}

type sessionResponse struct {
	Session *checkout.Session `json:"sessao"`
	Items   []cart.Item       `json:"itens"`
	Total   string            `json:"total"`
}

type finalizeResponse struct {
	OrderID  uuid.UUID `json:"pedido_id"`
	Redirect string    `json:"redirect"`
}

// --- Handlers ---

// Get handles GET /establishments/{slug}/checkout. It rehydrates the
// persisted session or starts a fresh one; an empty cart sends the visitor
// back to the menu.
func (h *CheckoutHandler) Get(w http.ResponseWriter, r *http.Request) {
	est, key, ok := h.resolve(w, r)
	if !ok {
		return
	}

	cartKey := cart.Key(key)
	session, err := h.ctrl.Initialize(r.Context(), key, h.carts.IsEmpty(cartKey))
	if err != nil {
		if errors.Is(err, checkout.ErrEmptyCart) {
			writeJSON(w, http.StatusConflict, map[string]string{
				"error":    "carrinho vazio",
				"redirect": "/" + est.Slug,
			})
			return
		}
		log.Printf("ERROR: initialize checkout: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.respondSession(w, key, session)
}

// SaveCustomer handles PUT /establishments/{slug}/checkout/customer.
// The fragment is validated here, the way the step form validates before
// emitting; an invalid fragment never reaches the controller.
func (h *CheckoutHandler) SaveCustomer(w http.ResponseWriter, r *http.Request) {
	_, key, ok := h.resolve(w, r)
	if !ok {
		return
	}

	var customer checkout.Customer
	if err := json.NewDecoder(r.Body).Decode(&customer); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := customer.Validate(); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}

	session, err := h.ctrl.SaveCustomer(r.Context(), key, customer)
	if err != nil {
		log.Printf("ERROR: save customer: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.respondSession(w, key, session)
}

// SaveDelivery handles PUT /establishments/{slug}/checkout/delivery. The
// delivery fee is never client-supplied: it comes from the establishment
// for delivery orders and is zero for pickup.
func (h *CheckoutHandler) SaveDelivery(w http.ResponseWriter, r *http.Request) {
	est, key, ok := h.resolve(w, r)
	if !ok {
		return
	}

	var req saveDeliveryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	delivery := checkout.Delivery{Type: req.Type, Address: req.Address}
	if req.Type == enum.DeliveryTypeDelivery {
		delivery.Fee = database.NumericToDecimal(est.DeliveryFee)
	} else {
		delivery.Fee = decimal.Zero
	}

	if err := delivery.Validate(); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}

	session, err := h.ctrl.SaveDelivery(r.Context(), key, delivery)
	if err != nil {
		log.Printf("ERROR: save delivery: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.respondSession(w, key, session)
}

// SavePayment handles PUT /establishments/{slug}/checkout/payment. The
// change-for amount is validated against the order total: items plus the
// delivery fee already chosen at step 2.
func (h *CheckoutHandler) SavePayment(w http.ResponseWriter, r *http.Request) {
	_, key, ok := h.resolve(w, r)
	if !ok {
		return
	}

	var req savePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	payment := checkout.Payment{Method: req.Method}
	if req.ChangeFor != "" {
		v, err := decimal.NewFromString(req.ChangeFor)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "troco_para inválido"})
			return
		}
		payment.ChangeFor = &v
	}

	total, err := h.orderTotal(r.Context(), key)
	if err != nil {
		log.Printf("ERROR: compute order total: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if err := payment.Validate(total); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}

	session, err := h.ctrl.SavePayment(r.Context(), key, payment)
	if err != nil {
		log.Printf("ERROR: save payment: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.respondSession(w, key, session)
}

// Back handles POST /establishments/{slug}/checkout/back.
func (h *CheckoutHandler) Back(w http.ResponseWriter, r *http.Request) {
	_, key, ok := h.resolve(w, r)
	if !ok {
		return
	}

	session, err := h.ctrl.PreviousStep(r.Context(), key)
	if err != nil {
		log.Printf("ERROR: previous step: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.respondSession(w, key, session)
}

// GoToStep handles POST /establishments/{slug}/checkout/step/{n}, used by
// the summary's per-section edit links.
func (h *CheckoutHandler) GoToStep(w http.ResponseWriter, r *http.Request) {
	_, key, ok := h.resolve(w, r)
	if !ok {
		return
	}

	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "etapa inválida"})
		return
	}

	session, err := h.ctrl.GoToStep(r.Context(), key, checkout.Step(n))
	if err != nil {
		if errors.Is(err, checkout.ErrInvalidStep) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "etapa inválida"})
			return
		}
		log.Printf("ERROR: go to step: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.respondSession(w, key, session)
}

// Finalize handles POST /establishments/{slug}/checkout/finalize. On
// success the cart is cleared and the response carries the tracking page
// path; on failure the session keeps the error and the visitor retries by
// confirming again.
func (h *CheckoutHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	est, key, ok := h.resolve(w, r)
	if !ok {
		return
	}

	if !est.IsOpen {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "estabelecimento fechado no momento"})
		return
	}

	var req finalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if _, err := h.ctrl.SaveNotes(r.Context(), key, req.Notes); err != nil {
		log.Printf("ERROR: save notes: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	cartKey := cart.Key(key)
	items := h.carts.Items(cartKey)

	orderID, err := h.ctrl.Finalize(r.Context(), key, est.ID, items)
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrEmptyCart):
			writeJSON(w, http.StatusConflict, map[string]string{
				"error":    "carrinho vazio",
				"redirect": "/" + est.Slug,
			})
		case errors.Is(err, checkout.ErrIncompleteCheckout):
			writeJSON(w, http.StatusConflict, map[string]string{"error": "dados do pedido incompletos"})
		case errors.Is(err, checkout.ErrSubmitInFlight):
			writeJSON(w, http.StatusConflict, map[string]string{"error": "pedido já está sendo enviado"})
		default:
			log.Printf("ERROR: finalize order: %v", err)
			writeJSON(w, http.StatusBadGateway, map[string]string{
				"error": "Não foi possível enviar seu pedido. Tente novamente.",
			})
		}
		return
	}

	// The wizard only clears the cart after a confirmed submission.
	h.carts.Clear(cartKey)

	writeJSON(w, http.StatusCreated, finalizeResponse{
		OrderID:  orderID,
		Redirect: "/" + est.Slug + "/pedido/" + orderID.String(),
	})
}

// --- Helpers ---

// resolve parses the slug and session header into a checkout key. A missing
// or invalid session header starts a fresh session whose id is echoed back.
func (h *CheckoutHandler) resolve(w http.ResponseWriter, r *http.Request) (database.Establishment, checkout.Key, bool) {
	slug := chi.URLParam(r, "slug")

	est, err := h.store.GetEstablishmentBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "estabelecimento não encontrado"})
			return database.Establishment{}, checkout.Key{}, false
		}
		log.Printf("ERROR: get establishment: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return database.Establishment{}, checkout.Key{}, false
	}

	sessionID, err := uuid.Parse(r.Header.Get(sessionHeader))
	if err != nil {
		sessionID = uuid.New()
	}
	w.Header().Set(sessionHeader, sessionID.String())

	return est, checkout.Key{EstablishmentSlug: est.Slug, SessionID: sessionID}, true
}

// orderTotal is the cart total plus the delivery fee chosen at step 2.
func (h *CheckoutHandler) orderTotal(ctx context.Context, key checkout.Key) (decimal.Decimal, error) {
	total := cart.Total(h.carts.Items(cart.Key(key)))

	session, err := h.ctrl.Initialize(ctx, key, false)
	if err != nil {
		return decimal.Zero, err
	}
	if session.Data.Delivery != nil {
		total = total.Add(session.Data.Delivery.Fee)
	}
	return total, nil
}

func (h *CheckoutHandler) respondSession(w http.ResponseWriter, key checkout.Key, session *checkout.Session) {
	items := h.carts.Items(cart.Key(key))
	total := cart.Total(items)
	if session.Data.Delivery != nil {
		total = total.Add(session.Data.Delivery.Fee)
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		Session: session,
		Items:   items,
		Total:   total.StringFixed(2),
	})
}
