package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/pedezap/api/internal/cep"
	"github.com/pedezap/api/internal/handler"
)

func setupCEPRouter(baseURL string) *chi.Mux {
	h := handler.NewCEPHandler(cep.NewClient(baseURL))
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func TestCEPLookup_ReturnsAddress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"cep":"01310-100","logradouro":"Avenida Paulista","bairro":"Bela Vista","localidade":"São Paulo","uf":"SP"}`))
	}))
	defer srv.Close()
	router := setupCEPRouter(srv.URL)

	rr := doRequest(t, router, "GET", "/cep/01310-100", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["cidade"] != "São Paulo" {
		t.Errorf("cidade: got %v, want São Paulo", resp["cidade"])
	}
}

func TestCEPLookup_InvalidCode(t *testing.T) {
	router := setupCEPRouter("http://unused")

	rr := doRequest(t, router, "GET", "/cep/123", nil)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestCEPLookup_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"erro": true}`))
	}))
	defer srv.Close()
	router := setupCEPRouter(srv.URL)

	rr := doRequest(t, router, "GET", "/cep/99999999", nil)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestCEPLookup_ServiceDown(t *testing.T) {
	srv := httptest.NewServer(nil)
	srv.Close()
	router := setupCEPRouter(srv.URL)

	rr := doRequest(t, router, "GET", "/cep/01310100", nil)

	if rr.Code != http.StatusBadGateway {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadGateway)
	}
}
