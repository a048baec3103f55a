package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pedezap/api/internal/database"
	"github.com/pedezap/api/internal/pricing"
	"github.com/shopspring/decimal"
)

// ComboStore defines the database methods needed by combo handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ComboStore interface {
	GetProduct(ctx context.Context, arg database.GetProductParams) (database.Product, error)
	ListCombosByEstablishment(ctx context.Context, establishmentID uuid.UUID) ([]database.Combo, error)
	CreateCombo(ctx context.Context, arg database.CreateComboParams) (database.Combo, error)
	DeleteCombo(ctx context.Context, arg database.DeleteComboParams) (int64, error)
}

// ComboHandler handles the admin combo endpoints. The pricing rule is
// enforced here before the write and re-checked by fn_criar_combo.
type ComboHandler struct {
	store ComboStore
}

// NewComboHandler creates a new ComboHandler.
func NewComboHandler(store ComboStore) *ComboHandler {
	return &ComboHandler{store: store}
}

// RegisterRoutes registers combo endpoints on the given Chi router.
// Expected to be mounted at /admin/establishments/{eid}
func (h *ComboHandler) RegisterRoutes(r chi.Router) {
	r.Get("/combos", h.List)
	r.Post("/combos", h.Create)
	r.Delete("/combos/{cid}", h.Delete)
}

// --- Request types ---

type createComboRequest struct {
	Name          string                   `json:"nome"`
	Description   string                   `json:"descricao"`
	DiscountType  string                   `json:"tipo_desconto"`
	DiscountValue string                   `json:"valor_desconto"`
	Items         []createComboItemRequest `json:"itens"`
}

type createComboItemRequest struct {
	ProductID uuid.UUID `json:"produto_id"`
	Quantity  int32     `json:"quantidade"`
}

// --- Handlers ---

// List handles GET /admin/establishments/{eid}/combos. Unlike the
// storefront, the admin sees inactive combos too.
func (h *ComboHandler) List(w http.ResponseWriter, r *http.Request) {
	establishmentID, err := uuid.Parse(chi.URLParam(r, "eid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid establishment ID"})
		return
	}

	dbCombos, err := h.store.ListCombosByEstablishment(r.Context(), establishmentID)
	if err != nil {
		log.Printf("ERROR: list combos: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	combos := make([]comboResponse, 0, len(dbCombos))
	for _, c := range dbCombos {
		combos = append(combos, toComboResponse(c))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"combos": combos})
}

// Create handles POST /admin/establishments/{eid}/combos. The original
// price is derived from the current menu, the combo price from the discount
// mode, and both are validated before fn_criar_combo is called.
func (h *ComboHandler) Create(w http.ResponseWriter, r *http.Request) {
	establishmentID, err := uuid.Parse(chi.URLParam(r, "eid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid establishment ID"})
		return
	}

	var req createComboRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "nome é obrigatório"})
		return
	}
	if len(req.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "combo precisa de pelo menos um item"})
		return
	}

	discountValue, err := decimal.NewFromString(req.DiscountValue)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "valor_desconto inválido"})
		return
	}

	products := make([]pricing.ComboProduct, 0, len(req.Items))
	items := make([]database.CreateComboItemParams, 0, len(req.Items))
	for _, it := range req.Items {
		if it.Quantity <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "quantidade deve ser maior que zero"})
			return
		}
		product, err := h.store.GetProduct(r.Context(), database.GetProductParams{
			ID:              it.ProductID,
			EstablishmentID: establishmentID,
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "produto não encontrado"})
				return
			}
			log.Printf("ERROR: get product for combo: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		products = append(products, pricing.ComboProduct{
			UnitPrice: database.NumericToDecimal(product.Price),
			Quantity:  it.Quantity,
		})
		items = append(items, database.CreateComboItemParams{
			ProductID: product.ID,
			Quantity:  it.Quantity,
		})
	}

	original := pricing.OriginalPrice(products)

	comboPrice, err := pricing.ComboPrice(original, req.DiscountType, discountValue)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}
	if err := pricing.ValidateComboPrice(comboPrice, original); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}

	description := pgtype.Text{}
	if req.Description != "" {
		description = pgtype.Text{String: req.Description, Valid: true}
	}

	combo, err := h.store.CreateCombo(r.Context(), database.CreateComboParams{
		EstablishmentID: establishmentID,
		Name:            req.Name,
		Description:     description,
		OriginalPrice:   database.DecimalToNumeric(original),
		ComboPrice:      database.DecimalToNumeric(comboPrice),
		DiscountType:    req.DiscountType,
		DiscountValue:   database.DecimalToNumeric(discountValue),
		Items:           items,
	})
	if err != nil {
		log.Printf("ERROR: create combo: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toComboResponse(combo))
}

// Delete handles DELETE /admin/establishments/{eid}/combos/{cid}.
func (h *ComboHandler) Delete(w http.ResponseWriter, r *http.Request) {
	establishmentID, err := uuid.Parse(chi.URLParam(r, "eid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid establishment ID"})
		return
	}

	comboID, err := uuid.Parse(chi.URLParam(r, "cid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid combo ID"})
		return
	}

	deleted, err := h.store.DeleteCombo(r.Context(), database.DeleteComboParams{
		ID:              comboID,
		EstablishmentID: establishmentID,
	})
	if err != nil {
		log.Printf("ERROR: delete combo: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if deleted == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "combo não encontrado"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
