package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pedezap/api/internal/cart"
	"github.com/shopspring/decimal"
)

// Errors returned by the controller.
var (
	ErrEmptyCart          = errors.New("carrinho vazio")
	ErrInvalidStep        = errors.New("etapa inválida")
	ErrIncompleteCheckout = errors.New("dados do pedido incompletos")
	ErrSubmitInFlight     = errors.New("pedido já está sendo enviado")
)

// submitFailedMessage is the single user-facing message for submission
// failures. The submission boundary exposes no error taxonomy; the user
// recovers by pressing confirm again.
const submitFailedMessage = "Não foi possível enviar seu pedido. Tente novamente."

// OrderSubmission is the full payload handed to the submission boundary,
// which creates the order and its items atomically.
type OrderSubmission struct {
	EstablishmentID uuid.UUID       `json:"estabelecimento_id"`
	Customer        Customer        `json:"cliente"`
	DeliveryType    string          `json:"tipo_entrega"`
	Address         *Address        `json:"endereco,omitempty"`
	DeliveryFee     decimal.Decimal `json:"taxa_entrega"`
	Payment         Payment         `json:"pagamento"`
	Notes           string          `json:"observacoes,omitempty"`
	Items           []cart.Item     `json:"itens"`
}

// Submitter is the order-creation boundary. Satisfied by *database.Queries
// (fn_criar_pedido); replaced by a fake in tests.
type Submitter interface {
	SubmitOrder(ctx context.Context, order OrderSubmission) (uuid.UUID, error)
}

// Controller owns the checkout session: it mediates fragment saves, step
// navigation, and the final submission. Persistence and submission are
// injected so tests can run fully in memory.
type Controller struct {
	store  Store
	submit Submitter
}

// NewController creates a Controller over the given store and submitter.
func NewController(store Store, submit Submitter) *Controller {
	return &Controller{store: store, submit: submit}
}

// Initialize rehydrates the persisted session, or starts a fresh one at
// step 1. An empty cart aborts checkout: the persisted session is discarded
// and ErrEmptyCart tells the caller to send the visitor back to the menu.
func (c *Controller) Initialize(ctx context.Context, key Key, cartEmpty bool) (*Session, error) {
	if cartEmpty {
		if err := c.store.Delete(ctx, key); err != nil {
			return nil, fmt.Errorf("discard session: %w", err)
		}
		return nil, ErrEmptyCart
	}

	s, err := c.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if s == nil {
		s = NewSession()
		if err := c.store.Set(ctx, key, s); err != nil {
			return nil, fmt.Errorf("persist session: %w", err)
		}
		return s, nil
	}

	// An in-flight flag never survives a reload; the request it tracked is gone.
	if s.Loading {
		s.Loading = false
		if err := c.store.Set(ctx, key, s); err != nil {
			return nil, fmt.Errorf("persist session: %w", err)
		}
	}
	return s, nil
}

// SaveCustomer merges the customer fragment and advances to the delivery
// step. Validation happens before the call; the save itself always succeeds.
func (c *Controller) SaveCustomer(ctx context.Context, key Key, customer Customer) (*Session, error) {
	return c.update(ctx, key, func(s *Session) {
		s.Data.Customer = &customer
		s.Step = StepDelivery
	})
}

// SaveDelivery merges the delivery fragment and advances to the payment step.
func (c *Controller) SaveDelivery(ctx context.Context, key Key, delivery Delivery) (*Session, error) {
	return c.update(ctx, key, func(s *Session) {
		s.Data.Delivery = &delivery
		s.Step = StepPayment
	})
}

// SavePayment merges the payment fragment and advances to the summary step.
func (c *Controller) SavePayment(ctx context.Context, key Key, payment Payment) (*Session, error) {
	return c.update(ctx, key, func(s *Session) {
		s.Data.Payment = &payment
		s.Step = StepSummary
	})
}

// SaveNotes attaches the free-text notes without changing the step. Called
// at finalize time; notes are not a wizard step of their own.
func (c *Controller) SaveNotes(ctx context.Context, key Key, notes string) (*Session, error) {
	return c.update(ctx, key, func(s *Session) {
		s.Data.Notes = notes
	})
}

// PreviousStep moves back one step, never below 1. Entered fragments are
// kept so the re-opened step can pre-fill.
func (c *Controller) PreviousStep(ctx context.Context, key Key) (*Session, error) {
	return c.update(ctx, key, func(s *Session) {
		if s.Step > StepCustomer {
			s.Step--
		}
	})
}

// GoToStep jumps directly to any step, used by the summary's edit links.
// Only the range is checked: jumping ahead of completed data is allowed;
// Finalize still rejects incomplete sessions.
func (c *Controller) GoToStep(ctx context.Context, key Key, step Step) (*Session, error) {
	if !step.Valid() {
		return nil, ErrInvalidStep
	}
	return c.update(ctx, key, func(s *Session) {
		s.Step = step
	})
}

// Finalize packages the cart and all fragments into one order-creation call.
// On success the session resets to defaults and the new order id is
// returned; the caller clears the cart. On failure the session keeps step 4
// with a user-facing error so the visitor can confirm again. There is no
// idempotency token: a concurrent finalize on the same session is rejected
// in-process, but the boundary itself offers no duplicate protection.
func (c *Controller) Finalize(ctx context.Context, key Key, establishmentID uuid.UUID, items []cart.Item) (uuid.UUID, error) {
	if len(items) == 0 {
		return uuid.Nil, ErrEmptyCart
	}

	s, err := c.store.Get(ctx, key)
	if err != nil {
		return uuid.Nil, fmt.Errorf("load session: %w", err)
	}
	if s == nil || s.Data.Customer == nil || s.Data.Delivery == nil || s.Data.Payment == nil {
		return uuid.Nil, ErrIncompleteCheckout
	}
	if s.Loading {
		return uuid.Nil, ErrSubmitInFlight
	}

	s.Loading = true
	s.Error = ""
	if err := c.store.Set(ctx, key, s); err != nil {
		return uuid.Nil, fmt.Errorf("persist session: %w", err)
	}

	orderID, submitErr := c.submit.SubmitOrder(ctx, OrderSubmission{
		EstablishmentID: establishmentID,
		Customer:        *s.Data.Customer,
		DeliveryType:    s.Data.Delivery.Type,
		Address:         s.Data.Delivery.Address,
		DeliveryFee:     s.Data.Delivery.Fee,
		Payment:         *s.Data.Payment,
		Notes:           s.Data.Notes,
		Items:           items,
	})
	if submitErr != nil {
		s.Loading = false
		s.Error = submitFailedMessage
		if err := c.store.Set(ctx, key, s); err != nil {
			return uuid.Nil, fmt.Errorf("persist session after failure: %w", err)
		}
		return uuid.Nil, fmt.Errorf("submit order: %w", submitErr)
	}

	if err := c.store.Delete(ctx, key); err != nil {
		return uuid.Nil, fmt.Errorf("reset session: %w", err)
	}
	return orderID, nil
}

// update applies a mutation to the loaded (or fresh) session and persists it.
func (c *Controller) update(ctx context.Context, key Key, fn func(*Session)) (*Session, error) {
	s, err := c.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if s == nil {
		s = NewSession()
	}
	fn(s)
	if err := c.store.Set(ctx, key, s); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	return s, nil
}
