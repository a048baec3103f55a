package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pedezap/api/internal/cep"
)

// CEPHandler proxies postal-code lookups for the delivery address form.
// Lookup failures are never fatal to checkout: the form falls back to
// manual entry.
type CEPHandler struct {
	client *cep.Client
}

// NewCEPHandler creates a new CEPHandler.
func NewCEPHandler(client *cep.Client) *CEPHandler {
	return &CEPHandler{client: client}
}

// RegisterRoutes registers CEP endpoints on the given Chi router.
func (h *CEPHandler) RegisterRoutes(r chi.Router) {
	r.Get("/cep/{code}", h.Lookup)
}

// Lookup handles GET /cep/{code}.
func (h *CEPHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	result, err := h.client.Lookup(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		switch {
		case errors.Is(err, cep.ErrInvalidCEP):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, cep.ErrNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		default:
			log.Printf("ERROR: cep lookup: %v", err)
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": cep.ErrUnavailable.Error()})
		}
		return
	}
	writeJSON(w, http.StatusOK, result)
}
