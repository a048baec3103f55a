// Package checkout implements the four-step checkout wizard: customer,
// delivery, payment, then a read-only summary that submits the order. The
// session survives reloads through an injected key-value store, scoped per
// establishment and visitor.
package checkout

import (
	"errors"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/pedezap/api/internal/enum"
	"github.com/pedezap/api/internal/pricing"
	"github.com/shopspring/decimal"
)

// Step is the wizard position. It only moves forward through an explicit
// fragment save; back navigation and direct jumps are unconditional.
type Step int

const (
	StepCustomer Step = 1
	StepDelivery Step = 2
	StepPayment  Step = 3
	StepSummary  Step = 4
)

// Valid reports whether the step is within the wizard's range.
func (s Step) Valid() bool {
	return s >= StepCustomer && s <= StepSummary
}

// Validation errors for the step fragments.
var (
	ErrNameRequired         = errors.New("nome é obrigatório")
	ErrPhoneRequired        = errors.New("telefone é obrigatório")
	ErrPhoneFormat          = errors.New("telefone inválido")
	ErrEmailFormat          = errors.New("email inválido")
	ErrInvalidDeliveryType  = errors.New("tipo de entrega inválido")
	ErrAddressIncomplete    = errors.New("endereço incompleto para entrega")
	ErrInvalidPaymentMethod = errors.New("forma de pagamento inválida")
	ErrChangeForNotAllowed  = errors.New("troco só se aplica a pagamento em dinheiro")
)

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Customer is the step 1 fragment.
type Customer struct {
	Name  string `json:"nome"`
	Phone string `json:"telefone"`
	Email string `json:"email,omitempty"`
}

// Validate checks required fields and formats. Phone accepts Brazilian
// numbers with or without punctuation (10 or 11 digits).
func (c Customer) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrNameRequired
	}
	digits := onlyDigits(c.Phone)
	if digits == "" {
		return ErrPhoneRequired
	}
	if len(digits) < 10 || len(digits) > 11 {
		return ErrPhoneFormat
	}
	if c.Email != "" && !emailRe.MatchString(c.Email) {
		return ErrEmailFormat
	}
	return nil
}

// Address is the structured delivery address.
type Address struct {
	CEP          string `json:"cep"`
	Street       string `json:"logradouro"`
	Number       string `json:"numero"`
	Complement   string `json:"complemento,omitempty"`
	Neighborhood string `json:"bairro"`
	City         string `json:"cidade"`
	State        string `json:"uf"`
}

// Complete reports whether every required address field is filled.
func (a Address) Complete() bool {
	return strings.TrimSpace(a.Street) != "" &&
		strings.TrimSpace(a.Number) != "" &&
		strings.TrimSpace(a.Neighborhood) != "" &&
		strings.TrimSpace(a.City) != "" &&
		strings.TrimSpace(a.State) != ""
}

// Delivery is the step 2 fragment.
type Delivery struct {
	Type    string          `json:"tipo_entrega"`
	Address *Address        `json:"endereco,omitempty"`
	Fee     decimal.Decimal `json:"taxa_entrega"`
}

// Validate checks the delivery type and, for delivery orders, address
// completeness. Pickup (retirada) needs no address.
func (d Delivery) Validate() error {
	switch d.Type {
	case enum.DeliveryTypeRetirada:
		return nil
	case enum.DeliveryTypeDelivery:
		if d.Address == nil || !d.Address.Complete() {
			return ErrAddressIncomplete
		}
		return nil
	}
	return ErrInvalidDeliveryType
}

// Payment is the step 3 fragment. ChangeFor (troco_para) is only meaningful
// for cash and must cover the order total.
type Payment struct {
	Method    string           `json:"metodo"`
	ChangeFor *decimal.Decimal `json:"troco_para,omitempty"`
}

// Validate checks the method and the declared change-for amount against the
// order total (items plus delivery fee).
func (p Payment) Validate(orderTotal decimal.Decimal) error {
	switch p.Method {
	case enum.PaymentMethodDinheiro:
		if p.ChangeFor != nil {
			if _, err := pricing.Change(*p.ChangeFor, orderTotal); err != nil {
				return err
			}
		}
		return nil
	case enum.PaymentMethodPix, enum.PaymentMethodCredito, enum.PaymentMethodDebito:
		if p.ChangeFor != nil {
			return ErrChangeForNotAllowed
		}
		return nil
	}
	return ErrInvalidPaymentMethod
}

// Data aggregates the four fragments entered across the wizard.
type Data struct {
	Customer *Customer `json:"cliente,omitempty"`
	Delivery *Delivery `json:"entrega,omitempty"`
	Payment  *Payment  `json:"pagamento,omitempty"`
	Notes    string    `json:"observacoes,omitempty"`
}

// Session is one checkout in progress.
type Session struct {
	Step    Step   `json:"etapa_atual"`
	Data    Data   `json:"dados"`
	Loading bool   `json:"loading"`
	Error   string `json:"erro,omitempty"`
}

// NewSession returns a session at step 1 with no fragments.
func NewSession() *Session {
	return &Session{Step: StepCustomer}
}

// Key identifies one visitor's checkout within one establishment, mirroring
// how the storefront scopes persisted state per establishment slug.
type Key struct {
	EstablishmentSlug string
	SessionID         uuid.UUID
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
