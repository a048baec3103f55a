package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pedezap/api/internal/database"
	"github.com/pedezap/api/internal/enum"
	"github.com/pedezap/api/internal/middleware"
	"golang.org/x/crypto/bcrypt"
)

// TeamStore defines the database methods needed by team handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type TeamStore interface {
	ListUsersByEstablishment(ctx context.Context, establishmentID uuid.UUID) ([]database.User, error)
	CreateUser(ctx context.Context, arg database.CreateUserParams) (database.User, error)
	UpdateUserRole(ctx context.Context, arg database.UpdateUserRoleParams) (database.User, error)
	DeactivateUser(ctx context.Context, arg database.DeactivateUserParams) (uuid.UUID, error)
}

// TeamHandler handles team member management for an establishment.
type TeamHandler struct {
	store TeamStore
}

// NewTeamHandler creates a new TeamHandler.
func NewTeamHandler(store TeamStore) *TeamHandler {
	return &TeamHandler{store: store}
}

// RegisterRoutes registers team endpoints on the given Chi router.
// Expected to be mounted at /admin/establishments/{eid}
func (h *TeamHandler) RegisterRoutes(r chi.Router) {
	r.Get("/team", h.List)
	r.Post("/team", h.Create)
	r.Patch("/team/{uid}/role", h.UpdateRole)
	r.Delete("/team/{uid}", h.Deactivate)
}

// --- Request / Response types ---

type createUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"senha"`
	FullName string `json:"nome"`
	Role     string `json:"papel"`
}

type updateRoleRequest struct {
	Role string `json:"papel"`
}

type teamMemberResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"nome"`
	Role      string    `json:"papel"`
	IsActive  bool      `json:"ativo"`
	CreatedAt time.Time `json:"criado_em"`
}

func toTeamMemberResponse(u database.User) teamMemberResponse {
	return teamMemberResponse{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// --- Handlers ---

// List handles GET /admin/establishments/{eid}/team.
func (h *TeamHandler) List(w http.ResponseWriter, r *http.Request) {
	establishmentID, err := uuid.Parse(chi.URLParam(r, "eid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid establishment ID"})
		return
	}

	dbUsers, err := h.store.ListUsersByEstablishment(r.Context(), establishmentID)
	if err != nil {
		log.Printf("ERROR: list users: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	users := make([]teamMemberResponse, 0, len(dbUsers))
	for _, u := range dbUsers {
		users = append(users, toTeamMemberResponse(u))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"usuarios": users})
}

// Create handles POST /admin/establishments/{eid}/team. The password is
// bcrypt-hashed before it leaves the handler; the plaintext is never stored
// or logged.
func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	establishmentID, err := uuid.Parse(chi.URLParam(r, "eid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid establishment ID"})
		return
	}

	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Email == "" || req.FullName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email e nome são obrigatórios"})
		return
	}
	if len(req.Password) < 8 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "senha deve ter pelo menos 8 caracteres"})
		return
	}
	if !isValidRole(req.Role) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "papel inválido"})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("ERROR: hash password: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	user, err := h.store.CreateUser(r.Context(), database.CreateUserParams{
		EstablishmentID: establishmentID,
		Email:           req.Email,
		HashedPassword:  string(hashed),
		FullName:        req.FullName,
		Role:            req.Role,
	})
	if err != nil {
		log.Printf("ERROR: create user: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toTeamMemberResponse(user))
}

// UpdateRole handles PATCH /admin/establishments/{eid}/team/{uid}/role. An
// admin cannot change their own role; demoting yourself locks the account
// out of the very screen that could undo it.
func (h *TeamHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	establishmentID, err := uuid.Parse(chi.URLParam(r, "eid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid establishment ID"})
		return
	}

	userID, err := uuid.Parse(chi.URLParam(r, "uid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user ID"})
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}
	if claims.UserID == userID {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "não é possível alterar o próprio papel"})
		return
	}

	var req updateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if !isValidRole(req.Role) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "papel inválido"})
		return
	}

	user, err := h.store.UpdateUserRole(r.Context(), database.UpdateUserRoleParams{
		ID:              userID,
		EstablishmentID: establishmentID,
		Role:            req.Role,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "usuário não encontrado"})
			return
		}
		log.Printf("ERROR: update user role: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toTeamMemberResponse(user))
}

// Deactivate handles DELETE /admin/establishments/{eid}/team/{uid}. Users
// are soft-deleted so past audit entries keep their author.
func (h *TeamHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	establishmentID, err := uuid.Parse(chi.URLParam(r, "eid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid establishment ID"})
		return
	}

	userID, err := uuid.Parse(chi.URLParam(r, "uid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user ID"})
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}
	if claims.UserID == userID {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "não é possível desativar a própria conta"})
		return
	}

	if _, err := h.store.DeactivateUser(r.Context(), database.DeactivateUserParams{
		ID:              userID,
		EstablishmentID: establishmentID,
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "usuário não encontrado"})
			return
		}
		log.Printf("ERROR: deactivate user: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func isValidRole(role string) bool {
	switch role {
	case enum.UserRoleOwner, enum.UserRoleManager, enum.UserRoleStaff:
		return true
	}
	return false
}
