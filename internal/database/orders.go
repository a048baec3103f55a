package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/pedezap/api/internal/checkout"
)

const submitOrder = `SELECT fn_criar_pedido($1::jsonb)`

// SubmitOrder calls fn_criar_pedido, which creates the order and all its
// line items in one transaction and returns the new order id. Failures are
// opaque to the client: there is no structured error contract beyond the
// message.
func (q *Queries) SubmitOrder(ctx context.Context, order checkout.OrderSubmission) (uuid.UUID, error) {
	payload, err := json.Marshal(order)
	if err != nil {
		return uuid.Nil, fmt.Errorf("encode order payload: %w", err)
	}
	var orderID uuid.UUID
	if err := q.db.QueryRow(ctx, submitOrder, payload).Scan(&orderID); err != nil {
		return uuid.Nil, fmt.Errorf("fn_criar_pedido: %w", err)
	}
	return orderID, nil
}

const getOrder = `
SELECT id, establishment_id, order_number, customer_name, customer_phone, customer_email,
       delivery_type, address, delivery_fee, payment_method, change_for, notes,
       subtotal, total_amount, status, created_at, updated_at
FROM orders
WHERE id = $1 AND establishment_id = $2
`

type GetOrderParams struct {
	ID              uuid.UUID
	EstablishmentID uuid.UUID
}

func (q *Queries) GetOrder(ctx context.Context, arg GetOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, getOrder, arg.ID, arg.EstablishmentID)
	var o Order
	err := row.Scan(&o.ID, &o.EstablishmentID, &o.OrderNumber, &o.CustomerName, &o.CustomerPhone,
		&o.CustomerEmail, &o.DeliveryType, &o.Address, &o.DeliveryFee, &o.PaymentMethod,
		&o.ChangeFor, &o.Notes, &o.Subtotal, &o.TotalAmount, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

const listOrderItemsByOrder = `
SELECT id, order_id, product_id, variation_id, name, unit_price, quantity, add_ons, subtotal
FROM order_items
WHERE order_id = $1
ORDER BY id
`

func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, listOrderItemsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.VariationID, &it.Name,
			&it.UnitPrice, &it.Quantity, &it.AddOns, &it.Subtotal); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

const listOrdersByEstablishment = `
SELECT id, establishment_id, order_number, customer_name, customer_phone, customer_email,
       delivery_type, address, delivery_fee, payment_method, change_for, notes,
       subtotal, total_amount, status, created_at, updated_at
FROM orders
WHERE establishment_id = $1
  AND ($2 = '' OR status = $2)
ORDER BY created_at DESC
LIMIT $3 OFFSET $4
`

type ListOrdersByEstablishmentParams struct {
	EstablishmentID uuid.UUID
	Status          string
	Limit           int32
	Offset          int32
}

func (q *Queries) ListOrdersByEstablishment(ctx context.Context, arg ListOrdersByEstablishmentParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrdersByEstablishment, arg.EstablishmentID, arg.Status, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var orders []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.EstablishmentID, &o.OrderNumber, &o.CustomerName, &o.CustomerPhone,
			&o.CustomerEmail, &o.DeliveryType, &o.Address, &o.DeliveryFee, &o.PaymentMethod,
			&o.ChangeFor, &o.Notes, &o.Subtotal, &o.TotalAmount, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

const updateOrderStatus = `
SELECT id, establishment_id, order_number, customer_name, customer_phone, customer_email,
       delivery_type, address, delivery_fee, payment_method, change_for, notes,
       subtotal, total_amount, status, created_at, updated_at
FROM fn_atualizar_status_pedido($1, $2, $3, $4)
`

type UpdateOrderStatusParams struct {
	ID              uuid.UUID
	EstablishmentID uuid.UUID
	Status          string
	// PrevStatus guards against concurrent updates: the procedure only
	// transitions when the order is still in this status.
	PrevStatus string
}

func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	row := q.db.QueryRow(ctx, updateOrderStatus, arg.ID, arg.EstablishmentID, arg.Status, arg.PrevStatus)
	var o Order
	err := row.Scan(&o.ID, &o.EstablishmentID, &o.OrderNumber, &o.CustomerName, &o.CustomerPhone,
		&o.CustomerEmail, &o.DeliveryType, &o.Address, &o.DeliveryFee, &o.PaymentMethod,
		&o.ChangeFor, &o.Notes, &o.Subtotal, &o.TotalAmount, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}
