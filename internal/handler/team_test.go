package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pedezap/api/internal/auth"
	"github.com/pedezap/api/internal/database"
	"github.com/pedezap/api/internal/handler"
	"github.com/pedezap/api/internal/middleware"
	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "test-secret"

// --- Mock store ---

type mockTeamStore struct {
	users map[uuid.UUID]database.User
}

func newMockTeamStore() *mockTeamStore {
	return &mockTeamStore{users: make(map[uuid.UUID]database.User)}
}

func (m *mockTeamStore) ListUsersByEstablishment(_ context.Context, establishmentID uuid.UUID) ([]database.User, error) {
	var result []database.User
	for _, u := range m.users {
		if u.EstablishmentID == establishmentID && u.IsActive {
			result = append(result, u)
		}
	}
	return result, nil
}

func (m *mockTeamStore) CreateUser(_ context.Context, arg database.CreateUserParams) (database.User, error) {
	u := database.User{
		ID:              uuid.New(),
		EstablishmentID: arg.EstablishmentID,
		Email:           arg.Email,
		HashedPassword:  arg.HashedPassword,
		FullName:        arg.FullName,
		Role:            arg.Role,
		IsActive:        true,
	}
	m.users[u.ID] = u
	return u, nil
}

func (m *mockTeamStore) UpdateUserRole(_ context.Context, arg database.UpdateUserRoleParams) (database.User, error) {
	u, ok := m.users[arg.ID]
	if !ok || u.EstablishmentID != arg.EstablishmentID {
		return database.User{}, pgx.ErrNoRows
	}
	u.Role = arg.Role
	m.users[arg.ID] = u
	return u, nil
}

func (m *mockTeamStore) DeactivateUser(_ context.Context, arg database.DeactivateUserParams) (uuid.UUID, error) {
	u, ok := m.users[arg.ID]
	if !ok || u.EstablishmentID != arg.EstablishmentID {
		return uuid.Nil, pgx.ErrNoRows
	}
	u.IsActive = false
	m.users[arg.ID] = u
	return u.ID, nil
}

// --- Helpers ---

// setupTeamRouter wires the handler behind the real auth middleware so the
// self-modification guards see claims the way production does.
func setupTeamRouter(store *mockTeamStore) *chi.Mux {
	h := handler.NewTeamHandler(store)
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(testJWTSecret))
		r.Route("/admin/establishments/{eid}", h.RegisterRoutes)
	})
	return r
}

func doAuthRequest(t *testing.T, router http.Handler, method, path string, body interface{}, actorID, establishmentID uuid.UUID, role string) *httptest.ResponseRecorder {
	t.Helper()
	token, err := auth.GenerateToken(testJWTSecret, actorID, establishmentID, role)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	var req *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

// ========================
// Team: Create
// ========================

func TestTeamCreate_HashesPassword(t *testing.T) {
	store := newMockTeamStore()
	eid := uuid.New()
	router := setupTeamRouter(store)

	rr := doAuthRequest(t, router, "POST", "/admin/establishments/"+eid.String()+"/team", map[string]string{
		"email": "joao@example.com",
		"senha": "senha-forte-123",
		"nome":  "João Souza",
		"papel": "STAFF",
	}, uuid.New(), eid, "MANAGER")

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	var created database.User
	for _, u := range store.users {
		created = u
	}
	if created.HashedPassword == "senha-forte-123" {
		t.Fatal("password stored in plaintext")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(created.HashedPassword), []byte("senha-forte-123")); err != nil {
		t.Errorf("stored hash does not match the password: %v", err)
	}

	if bytes.Contains(rr.Body.Bytes(), []byte("senha")) {
		t.Error("response must not echo the password")
	}
}

func TestTeamCreate_RejectsShortPassword(t *testing.T) {
	store := newMockTeamStore()
	eid := uuid.New()
	router := setupTeamRouter(store)

	rr := doAuthRequest(t, router, "POST", "/admin/establishments/"+eid.String()+"/team", map[string]string{
		"email": "joao@example.com",
		"senha": "curta",
		"nome":  "João Souza",
		"papel": "STAFF",
	}, uuid.New(), eid, "MANAGER")

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestTeamCreate_RejectsUnknownRole(t *testing.T) {
	store := newMockTeamStore()
	eid := uuid.New()
	router := setupTeamRouter(store)

	rr := doAuthRequest(t, router, "POST", "/admin/establishments/"+eid.String()+"/team", map[string]string{
		"email": "joao@example.com",
		"senha": "senha-forte-123",
		"nome":  "João Souza",
		"papel": "SUPERADMIN",
	}, uuid.New(), eid, "MANAGER")

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestTeamCreate_RequiresToken(t *testing.T) {
	store := newMockTeamStore()
	eid := uuid.New()
	router := setupTeamRouter(store)

	rr := doRequest(t, router, "POST", "/admin/establishments/"+eid.String()+"/team", map[string]string{
		"email": "joao@example.com",
		"senha": "senha-forte-123",
		"nome":  "João Souza",
		"papel": "STAFF",
	})

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

// ========================
// Team: UpdateRole / Deactivate
// ========================

func TestTeamUpdateRole_Promotes(t *testing.T) {
	store := newMockTeamStore()
	eid := uuid.New()
	target, _ := store.CreateUser(context.Background(), database.CreateUserParams{
		EstablishmentID: eid, Email: "ana@example.com", FullName: "Ana", Role: "STAFF",
	})
	router := setupTeamRouter(store)

	rr := doAuthRequest(t, router, "PATCH",
		"/admin/establishments/"+eid.String()+"/team/"+target.ID.String()+"/role",
		map[string]string{"papel": "MANAGER"}, uuid.New(), eid, "MANAGER")

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if store.users[target.ID].Role != "MANAGER" {
		t.Errorf("role: got %s, want MANAGER", store.users[target.ID].Role)
	}
}

func TestTeamUpdateRole_CannotChangeOwnRole(t *testing.T) {
	store := newMockTeamStore()
	eid := uuid.New()
	self, _ := store.CreateUser(context.Background(), database.CreateUserParams{
		EstablishmentID: eid, Email: "ana@example.com", FullName: "Ana", Role: "MANAGER",
	})
	router := setupTeamRouter(store)

	rr := doAuthRequest(t, router, "PATCH",
		"/admin/establishments/"+eid.String()+"/team/"+self.ID.String()+"/role",
		map[string]string{"papel": "STAFF"}, self.ID, eid, "MANAGER")

	if rr.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusForbidden)
	}
	if store.users[self.ID].Role != "MANAGER" {
		t.Errorf("role must not change, got %s", store.users[self.ID].Role)
	}
}

func TestTeamDeactivate_SoftDeletes(t *testing.T) {
	store := newMockTeamStore()
	eid := uuid.New()
	target, _ := store.CreateUser(context.Background(), database.CreateUserParams{
		EstablishmentID: eid, Email: "ana@example.com", FullName: "Ana", Role: "STAFF",
	})
	router := setupTeamRouter(store)

	rr := doAuthRequest(t, router, "DELETE",
		"/admin/establishments/"+eid.String()+"/team/"+target.ID.String(),
		nil, uuid.New(), eid, "MANAGER")

	if rr.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusNoContent, rr.Body.String())
	}
	u := store.users[target.ID]
	if u.IsActive {
		t.Error("user should be inactive")
	}
	if u.Email == "" {
		t.Error("user row must survive deactivation")
	}
}

func TestTeamDeactivate_CannotDeactivateSelf(t *testing.T) {
	store := newMockTeamStore()
	eid := uuid.New()
	self, _ := store.CreateUser(context.Background(), database.CreateUserParams{
		EstablishmentID: eid, Email: "ana@example.com", FullName: "Ana", Role: "MANAGER",
	})
	router := setupTeamRouter(store)

	rr := doAuthRequest(t, router, "DELETE",
		"/admin/establishments/"+eid.String()+"/team/"+self.ID.String(),
		nil, self.ID, eid, "MANAGER")

	if rr.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusForbidden)
	}
	if !store.users[self.ID].IsActive {
		t.Error("account must stay active")
	}
}
