// Package cep looks up Brazilian postal codes through a ViaCEP-compatible
// service. Lookup failures are never fatal to checkout: the caller falls
// back to manual address entry.
package cep

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Errors returned by lookups.
var (
	ErrInvalidCEP  = errors.New("CEP inválido")
	ErrNotFound    = errors.New("CEP não encontrado")
	ErrUnavailable = errors.New("consulta de CEP indisponível")
)

// Result is the resolved address for a postal code.
type Result struct {
	CEP          string `json:"cep"`
	Street       string `json:"logradouro"`
	Neighborhood string `json:"bairro"`
	City         string `json:"cidade"`
	State        string `json:"uf"`
}

// Client queries the lookup service.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

// viacepResponse mirrors the upstream payload. A missing code comes back as
// HTTP 200 with {"erro": true}.
type viacepResponse struct {
	CEP          string `json:"cep"`
	Street       string `json:"logradouro"`
	Neighborhood string `json:"bairro"`
	City         string `json:"localidade"`
	State        string `json:"uf"`
	Erro         bool   `json:"erro"`
}

// Lookup resolves a postal code. The code may contain punctuation; only the
// digits matter and exactly 8 are required.
func (c *Client) Lookup(ctx context.Context, code string) (*Result, error) {
	digits := onlyDigits(code)
	if len(digits) != 8 {
		return nil, ErrInvalidCEP
	}

	url := fmt.Sprintf("%s/%s/json", c.baseURL, digits)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var body viacepResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if body.Erro {
		return nil, ErrNotFound
	}

	return &Result{
		CEP:          body.CEP,
		Street:       body.Street,
		Neighborhood: body.Neighborhood,
		City:         body.City,
		State:        body.State,
	}, nil
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
