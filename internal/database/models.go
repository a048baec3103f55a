package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Establishment is one tenant: a restaurant owning a storefront and its orders.
type Establishment struct {
	ID          uuid.UUID
	Slug        string
	Name        string
	DeliveryFee pgtype.Numeric
	IsOpen      bool
	CreatedAt   time.Time
}

// Product is a menu item. Price comes from the product's first variation.
type Product struct {
	ID              uuid.UUID
	EstablishmentID uuid.UUID
	Name            string
	Description     pgtype.Text
	Category        pgtype.Text
	Price           pgtype.Numeric
	ImageURL        pgtype.Text
	IsActive        bool
}

// Combo is a bundled offering sold below the sum of its products.
type Combo struct {
	ID              uuid.UUID
	EstablishmentID uuid.UUID
	Name            string
	Description     pgtype.Text
	OriginalPrice   pgtype.Numeric
	ComboPrice      pgtype.Numeric
	DiscountType    string
	DiscountValue   pgtype.Numeric
	IsActive        bool
	CreatedAt       time.Time
}

// Order is a customer order created through fn_criar_pedido.
type Order struct {
	ID              uuid.UUID
	EstablishmentID uuid.UUID
	OrderNumber     string
	CustomerName    string
	CustomerPhone   string
	CustomerEmail   pgtype.Text
	DeliveryType    string
	Address         pgtype.Text
	DeliveryFee     pgtype.Numeric
	PaymentMethod   string
	ChangeFor       pgtype.Numeric
	Notes           pgtype.Text
	Subtotal        pgtype.Numeric
	TotalAmount     pgtype.Numeric
	Status          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OrderItem is one line of an order, denormalized at creation time so menu
// edits never rewrite order history.
type OrderItem struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ProductID   uuid.UUID
	VariationID pgtype.UUID
	Name        string
	UnitPrice   pgtype.Numeric
	Quantity    int32
	AddOns      []byte // JSON list of add-ons, stored as entered
	Subtotal    pgtype.Numeric
}

// User is a team member of an establishment.
type User struct {
	ID              uuid.UUID
	EstablishmentID uuid.UUID
	Email           string
	HashedPassword  string
	FullName        string
	Role            string
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AuditLog is one admin action recorded by the backend.
type AuditLog struct {
	ID              uuid.UUID
	EstablishmentID uuid.UUID
	ActorEmail      pgtype.Text
	Action          string
	Entity          pgtype.Text
	CreatedAt       time.Time
}
