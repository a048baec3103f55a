package database

import (
	"context"

	"github.com/google/uuid"
)

const getEstablishmentBySlug = `
SELECT id, slug, name, delivery_fee, is_open, created_at
FROM establishments
WHERE slug = $1
`

func (q *Queries) GetEstablishmentBySlug(ctx context.Context, slug string) (Establishment, error) {
	row := q.db.QueryRow(ctx, getEstablishmentBySlug, slug)
	var e Establishment
	err := row.Scan(&e.ID, &e.Slug, &e.Name, &e.DeliveryFee, &e.IsOpen, &e.CreatedAt)
	return e, err
}

const listProductsByEstablishment = `
SELECT id, establishment_id, name, description, category, price, image_url, is_active
FROM menu_products
WHERE establishment_id = $1 AND is_active = true
ORDER BY category, name
`

func (q *Queries) ListProductsByEstablishment(ctx context.Context, establishmentID uuid.UUID) ([]Product, error) {
	rows, err := q.db.Query(ctx, listProductsByEstablishment, establishmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.EstablishmentID, &p.Name, &p.Description, &p.Category, &p.Price, &p.ImageURL, &p.IsActive); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

const getProduct = `
SELECT id, establishment_id, name, description, category, price, image_url, is_active
FROM menu_products
WHERE id = $1 AND establishment_id = $2 AND is_active = true
`

type GetProductParams struct {
	ID              uuid.UUID
	EstablishmentID uuid.UUID
}

func (q *Queries) GetProduct(ctx context.Context, arg GetProductParams) (Product, error) {
	row := q.db.QueryRow(ctx, getProduct, arg.ID, arg.EstablishmentID)
	var p Product
	err := row.Scan(&p.ID, &p.EstablishmentID, &p.Name, &p.Description, &p.Category, &p.Price, &p.ImageURL, &p.IsActive)
	return p, err
}
