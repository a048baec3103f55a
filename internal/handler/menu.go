package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pedezap/api/internal/database"
)

// MenuStore defines the database methods needed by the public menu.
// Satisfied by *database.Queries; narrow interface for testability.
type MenuStore interface {
	GetEstablishmentBySlug(ctx context.Context, slug string) (database.Establishment, error)
	ListProductsByEstablishment(ctx context.Context, establishmentID uuid.UUID) ([]database.Product, error)
	ListCombosByEstablishment(ctx context.Context, establishmentID uuid.UUID) ([]database.Combo, error)
}

// MenuHandler serves the storefront: establishment info, the product menu,
// and active combos.
type MenuHandler struct {
	store MenuStore
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(store MenuStore) *MenuHandler {
	return &MenuHandler{store: store}
}

// RegisterRoutes registers menu endpoints on the given Chi router.
// Expected to be mounted inside a storefront subrouter: /establishments/{slug}
func (h *MenuHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.GetEstablishment)
	r.Get("/menu", h.GetMenu)
}

// --- Response types ---

type establishmentResponse struct {
	ID          uuid.UUID `json:"id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"nome"`
	DeliveryFee string    `json:"taxa_entrega"`
	IsOpen      bool      `json:"aberto"`
}

type productResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"nome"`
	Description *string   `json:"descricao,omitempty"`
	Category    *string   `json:"categoria,omitempty"`
	Price       string    `json:"preco"`
	ImageURL    *string   `json:"imagem_url,omitempty"`
}

type comboResponse struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"nome"`
	Description   *string   `json:"descricao,omitempty"`
	OriginalPrice string    `json:"preco_original"`
	ComboPrice    string    `json:"preco_combo"`
	DiscountType  string    `json:"tipo_desconto"`
	DiscountValue string    `json:"valor_desconto"`
	IsActive      bool      `json:"ativo"`
	CreatedAt     time.Time `json:"criado_em"`
}

type menuResponse struct {
	Establishment establishmentResponse `json:"estabelecimento"`
	Products      []productResponse     `json:"produtos"`
	Combos        []comboResponse       `json:"combos"`
}

func toEstablishmentResponse(e database.Establishment) establishmentResponse {
	return establishmentResponse{
		ID:          e.ID,
		Slug:        e.Slug,
		Name:        e.Name,
		DeliveryFee: numericToString(e.DeliveryFee),
		IsOpen:      e.IsOpen,
	}
}

func toProductResponse(p database.Product) productResponse {
	resp := productResponse{
		ID:    p.ID,
		Name:  p.Name,
		Price: numericToString(p.Price),
	}
	if p.Description.Valid {
		resp.Description = &p.Description.String
	}
	if p.Category.Valid {
		resp.Category = &p.Category.String
	}
	if p.ImageURL.Valid {
		resp.ImageURL = &p.ImageURL.String
	}
	return resp
}

func toComboResponse(c database.Combo) comboResponse {
	resp := comboResponse{
		ID:            c.ID,
		Name:          c.Name,
		OriginalPrice: numericToString(c.OriginalPrice),
		ComboPrice:    numericToString(c.ComboPrice),
		DiscountType:  c.DiscountType,
		DiscountValue: numericToString(c.DiscountValue),
		IsActive:      c.IsActive,
		CreatedAt:     c.CreatedAt,
	}
	if c.Description.Valid {
		resp.Description = &c.Description.String
	}
	return resp
}

// --- Handlers ---

// GetEstablishment handles GET /establishments/{slug}.
func (h *MenuHandler) GetEstablishment(w http.ResponseWriter, r *http.Request) {
	est, ok := h.resolve(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toEstablishmentResponse(est))
}

// GetMenu handles GET /establishments/{slug}/menu: the full storefront in
// one payload. Inactive combos are filtered here; inactive products never
// leave the query.
func (h *MenuHandler) GetMenu(w http.ResponseWriter, r *http.Request) {
	est, ok := h.resolve(w, r)
	if !ok {
		return
	}

	dbProducts, err := h.store.ListProductsByEstablishment(r.Context(), est.ID)
	if err != nil {
		log.Printf("ERROR: list products: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	dbCombos, err := h.store.ListCombosByEstablishment(r.Context(), est.ID)
	if err != nil {
		log.Printf("ERROR: list combos: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	products := make([]productResponse, 0, len(dbProducts))
	for _, p := range dbProducts {
		products = append(products, toProductResponse(p))
	}

	combos := make([]comboResponse, 0, len(dbCombos))
	for _, c := range dbCombos {
		if !c.IsActive {
			continue
		}
		combos = append(combos, toComboResponse(c))
	}

	writeJSON(w, http.StatusOK, menuResponse{
		Establishment: toEstablishmentResponse(est),
		Products:      products,
		Combos:        combos,
	})
}

// --- Helpers ---

func (h *MenuHandler) resolve(w http.ResponseWriter, r *http.Request) (database.Establishment, bool) {
	slug := chi.URLParam(r, "slug")

	est, err := h.store.GetEstablishmentBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "estabelecimento não encontrado"})
			return database.Establishment{}, false
		}
		log.Printf("ERROR: get establishment: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return database.Establishment{}, false
	}
	return est, true
}
