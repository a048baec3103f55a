package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pedezap/api/internal/database"
	"github.com/pedezap/api/internal/handler"
	"github.com/shopspring/decimal"
)

// --- Mock store ---

type mockComboStore struct {
	products map[uuid.UUID]database.Product
	combos   map[uuid.UUID]database.Combo
}

func newMockComboStore() *mockComboStore {
	return &mockComboStore{
		products: make(map[uuid.UUID]database.Product),
		combos:   make(map[uuid.UUID]database.Combo),
	}
}

func (m *mockComboStore) GetProduct(_ context.Context, arg database.GetProductParams) (database.Product, error) {
	p, ok := m.products[arg.ID]
	if !ok || p.EstablishmentID != arg.EstablishmentID || !p.IsActive {
		return database.Product{}, pgx.ErrNoRows
	}
	return p, nil
}

func (m *mockComboStore) ListCombosByEstablishment(_ context.Context, establishmentID uuid.UUID) ([]database.Combo, error) {
	var result []database.Combo
	for _, c := range m.combos {
		if c.EstablishmentID == establishmentID {
			result = append(result, c)
		}
	}
	return result, nil
}

func (m *mockComboStore) CreateCombo(_ context.Context, arg database.CreateComboParams) (database.Combo, error) {
	c := database.Combo{
		ID:              uuid.New(),
		EstablishmentID: arg.EstablishmentID,
		Name:            arg.Name,
		Description:     arg.Description,
		OriginalPrice:   arg.OriginalPrice,
		ComboPrice:      arg.ComboPrice,
		DiscountType:    arg.DiscountType,
		DiscountValue:   arg.DiscountValue,
		IsActive:        true,
	}
	m.combos[c.ID] = c
	return c, nil
}

func (m *mockComboStore) DeleteCombo(_ context.Context, arg database.DeleteComboParams) (int64, error) {
	c, ok := m.combos[arg.ID]
	if !ok || c.EstablishmentID != arg.EstablishmentID {
		return 0, nil
	}
	delete(m.combos, arg.ID)
	return 1, nil
}

// --- Helpers ---

func setupComboRouter(store *mockComboStore) *chi.Mux {
	h := handler.NewComboHandler(store)
	r := chi.NewRouter()
	r.Route("/admin/establishments/{eid}", h.RegisterRoutes)
	return r
}

// seedProduct creates an active menu product and returns its ID.
func seedProduct(store *mockComboStore, establishmentID uuid.UUID, name string, price int64) uuid.UUID {
	id := uuid.New()
	store.products[id] = database.Product{
		ID:              id,
		EstablishmentID: establishmentID,
		Name:            name,
		Price:           database.DecimalToNumeric(decimal.NewFromInt(price)),
		IsActive:        true,
	}
	return id
}

// ========================
// Combo: Create
// ========================

func TestComboCreate_PercentDiscount(t *testing.T) {
	store := newMockComboStore()
	eid := uuid.New()
	burger := seedProduct(store, eid, "X-Burguer", 60)
	soda := seedProduct(store, eid, "Refrigerante", 40)
	router := setupComboRouter(store)

	rr := doRequest(t, router, "POST", "/admin/establishments/"+eid.String()+"/combos", map[string]interface{}{
		"nome":           "Combo Lanche",
		"tipo_desconto":  "percentual",
		"valor_desconto": "20",
		"itens": []map[string]interface{}{
			{"produto_id": burger.String(), "quantidade": 1},
			{"produto_id": soda.String(), "quantidade": 1},
		},
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["preco_original"] != "100.00" {
		t.Errorf("preco_original: got %v, want 100.00", resp["preco_original"])
	}
	if resp["preco_combo"] != "80.00" {
		t.Errorf("preco_combo: got %v, want 80.00", resp["preco_combo"])
	}
}

func TestComboCreate_FixedPriceDiscount(t *testing.T) {
	store := newMockComboStore()
	eid := uuid.New()
	burger := seedProduct(store, eid, "X-Burguer", 60)
	router := setupComboRouter(store)

	rr := doRequest(t, router, "POST", "/admin/establishments/"+eid.String()+"/combos", map[string]interface{}{
		"nome":           "Promoção",
		"tipo_desconto":  "valor",
		"valor_desconto": "45",
		"itens": []map[string]interface{}{
			{"produto_id": burger.String(), "quantidade": 1},
		},
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["preco_combo"] != "45.00" {
		t.Errorf("preco_combo: got %v, want 45.00", resp["preco_combo"])
	}
}

func TestComboCreate_RejectsAbusivePrice(t *testing.T) {
	store := newMockComboStore()
	eid := uuid.New()
	burger := seedProduct(store, eid, "X-Burguer", 60)
	router := setupComboRouter(store)

	// A fixed price above the sum of the products is the abusive case.
	rr := doRequest(t, router, "POST", "/admin/establishments/"+eid.String()+"/combos", map[string]interface{}{
		"nome":           "Combo Caro",
		"tipo_desconto":  "valor",
		"valor_desconto": "75",
		"itens": []map[string]interface{}{
			{"produto_id": burger.String(), "quantidade": 1},
		},
	})

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusUnprocessableEntity, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["error"] != "preço do combo não pode ser maior que a soma dos produtos (prática abusiva)" {
		t.Errorf("unexpected error message: %v", resp["error"])
	}
	if len(store.combos) != 0 {
		t.Error("abusive combo must not be stored")
	}
}

func TestComboCreate_RejectsInvalidPercentage(t *testing.T) {
	store := newMockComboStore()
	eid := uuid.New()
	burger := seedProduct(store, eid, "X-Burguer", 60)
	router := setupComboRouter(store)

	rr := doRequest(t, router, "POST", "/admin/establishments/"+eid.String()+"/combos", map[string]interface{}{
		"nome":           "Combo Errado",
		"tipo_desconto":  "percentual",
		"valor_desconto": "150",
		"itens": []map[string]interface{}{
			{"produto_id": burger.String(), "quantidade": 1},
		},
	})

	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("status: got %d, want %d; body: %s", rr.Code, http.StatusUnprocessableEntity, rr.Body.String())
	}
}

func TestComboCreate_RejectsUnknownProduct(t *testing.T) {
	store := newMockComboStore()
	eid := uuid.New()
	router := setupComboRouter(store)

	rr := doRequest(t, router, "POST", "/admin/establishments/"+eid.String()+"/combos", map[string]interface{}{
		"nome":           "Combo Fantasma",
		"tipo_desconto":  "valor",
		"valor_desconto": "10",
		"itens": []map[string]interface{}{
			{"produto_id": uuid.New().String(), "quantidade": 1},
		},
	})

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestComboCreate_RejectsProductFromAnotherEstablishment(t *testing.T) {
	store := newMockComboStore()
	eid := uuid.New()
	otherEID := uuid.New()
	foreign := seedProduct(store, otherEID, "Produto Alheio", 30)
	router := setupComboRouter(store)

	rr := doRequest(t, router, "POST", "/admin/establishments/"+eid.String()+"/combos", map[string]interface{}{
		"nome":           "Combo Invasor",
		"tipo_desconto":  "valor",
		"valor_desconto": "10",
		"itens": []map[string]interface{}{
			{"produto_id": foreign.String(), "quantidade": 1},
		},
	})

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestComboCreate_RejectsEmptyItems(t *testing.T) {
	store := newMockComboStore()
	eid := uuid.New()
	router := setupComboRouter(store)

	rr := doRequest(t, router, "POST", "/admin/establishments/"+eid.String()+"/combos", map[string]interface{}{
		"nome":           "Combo Vazio",
		"tipo_desconto":  "valor",
		"valor_desconto": "10",
		"itens":          []map[string]interface{}{},
	})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

// ========================
// Combo: Delete
// ========================

func TestComboDelete_RemovesCombo(t *testing.T) {
	store := newMockComboStore()
	eid := uuid.New()
	combo, _ := store.CreateCombo(context.Background(), database.CreateComboParams{
		EstablishmentID: eid,
		Name:            "Combo Lanche",
		DiscountType:    "percentual",
	})
	router := setupComboRouter(store)

	rr := doRequest(t, router, "DELETE", "/admin/establishments/"+eid.String()+"/combos/"+combo.ID.String(), nil)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusNoContent)
	}
	if len(store.combos) != 0 {
		t.Error("combo should be gone")
	}
}

func TestComboDelete_WrongEstablishment(t *testing.T) {
	store := newMockComboStore()
	eid := uuid.New()
	combo, _ := store.CreateCombo(context.Background(), database.CreateComboParams{
		EstablishmentID: eid,
		Name:            "Combo Lanche",
		DiscountType:    "percentual",
	})
	router := setupComboRouter(store)

	rr := doRequest(t, router, "DELETE", "/admin/establishments/"+uuid.New().String()+"/combos/"+combo.ID.String(), nil)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
	if len(store.combos) != 1 {
		t.Error("combo must survive a cross-establishment delete")
	}
}
