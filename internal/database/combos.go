package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const listCombosByEstablishment = `
SELECT id, establishment_id, name, description, original_price, combo_price,
       discount_type, discount_value, is_active, created_at
FROM combos
WHERE establishment_id = $1
ORDER BY created_at DESC
`

func (q *Queries) ListCombosByEstablishment(ctx context.Context, establishmentID uuid.UUID) ([]Combo, error) {
	rows, err := q.db.Query(ctx, listCombosByEstablishment, establishmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Combo
	for rows.Next() {
		var c Combo
		if err := rows.Scan(&c.ID, &c.EstablishmentID, &c.Name, &c.Description, &c.OriginalPrice,
			&c.ComboPrice, &c.DiscountType, &c.DiscountValue, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// CreateComboItemParams is one constituent product in the combo payload.
type CreateComboItemParams struct {
	ProductID uuid.UUID `json:"produto_id"`
	Quantity  int32     `json:"quantidade"`
}

type CreateComboParams struct {
	EstablishmentID uuid.UUID
	Name            string
	Description     pgtype.Text
	OriginalPrice   pgtype.Numeric
	ComboPrice      pgtype.Numeric
	DiscountType    string
	DiscountValue   pgtype.Numeric
	Items           []CreateComboItemParams
}

const createCombo = `
SELECT id, establishment_id, name, description, original_price, combo_price,
       discount_type, discount_value, is_active, created_at
FROM fn_criar_combo($1, $2, $3, $4, $5, $6, $7, $8::jsonb)
`

// CreateCombo calls fn_criar_combo, which inserts the combo and its items
// atomically and re-checks the pricing rule server-side.
func (q *Queries) CreateCombo(ctx context.Context, arg CreateComboParams) (Combo, error) {
	itemsJSON, err := json.Marshal(arg.Items)
	if err != nil {
		return Combo{}, fmt.Errorf("encode combo items: %w", err)
	}
	row := q.db.QueryRow(ctx, createCombo,
		arg.EstablishmentID, arg.Name, arg.Description, arg.OriginalPrice,
		arg.ComboPrice, arg.DiscountType, arg.DiscountValue, itemsJSON)
	var c Combo
	err = row.Scan(&c.ID, &c.EstablishmentID, &c.Name, &c.Description, &c.OriginalPrice,
		&c.ComboPrice, &c.DiscountType, &c.DiscountValue, &c.IsActive, &c.CreatedAt)
	return c, err
}

type DeleteComboParams struct {
	ID              uuid.UUID
	EstablishmentID uuid.UUID
}

const deleteCombo = `SELECT fn_excluir_combo($1, $2)`

// DeleteCombo calls fn_excluir_combo and returns how many combos were
// removed (0 when the combo does not belong to the establishment).
func (q *Queries) DeleteCombo(ctx context.Context, arg DeleteComboParams) (int64, error) {
	var deleted int64
	err := q.db.QueryRow(ctx, deleteCombo, arg.ID, arg.EstablishmentID).Scan(&deleted)
	return deleted, err
}
