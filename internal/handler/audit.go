package handler

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pedezap/api/internal/audit"
	"github.com/pedezap/api/internal/database"
)

// AuditStore defines the database methods needed by the audit handler.
// Satisfied by *database.Queries; narrow interface for testability.
type AuditStore interface {
	ListAuditLogsByEstablishment(ctx context.Context, establishmentID uuid.UUID) ([]database.AuditLog, error)
}

// AuditHandler serves the admin audit trail, grouped by month with each
// bucket's purge countdown.
type AuditHandler struct {
	store AuditStore
	now   func() time.Time
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(store AuditStore) *AuditHandler {
	return &AuditHandler{store: store, now: time.Now}
}

// RegisterRoutes registers audit endpoints on the given Chi router.
// Expected to be mounted at /admin/establishments/{eid}
func (h *AuditHandler) RegisterRoutes(r chi.Router) {
	r.Get("/audit", h.List)
}

type auditResponse struct {
	RetentionDays int                `json:"retention_days"`
	Groups        []audit.MonthGroup `json:"groups"`
}

// List handles GET /admin/establishments/{eid}/audit. An optional
// retention_days query overrides the default window, for tenants on a
// different plan.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	establishmentID, err := uuid.Parse(chi.URLParam(r, "eid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid establishment ID"})
		return
	}

	retention := audit.DefaultRetentionDays
	if v := r.URL.Query().Get("retention_days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid retention_days"})
			return
		}
		retention = n
	}

	logs, err := h.store.ListAuditLogsByEstablishment(r.Context(), establishmentID)
	if err != nil {
		log.Printf("ERROR: list audit logs: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	entries := make([]audit.Entry, 0, len(logs))
	for _, l := range logs {
		e := audit.Entry{
			ID:        l.ID,
			Action:    l.Action,
			CreatedAt: l.CreatedAt,
		}
		if l.ActorEmail.Valid {
			e.ActorEmail = l.ActorEmail.String
		}
		if l.Entity.Valid {
			e.Entity = l.Entity.String
		}
		entries = append(entries, e)
	}

	groups := audit.GroupByMonth(entries, retention, h.now())
	writeJSON(w, http.StatusOK, auditResponse{
		RetentionDays: retention,
		Groups:        groups,
	})
}
