package database

import (
	"context"

	"github.com/google/uuid"
)

const getUserByEmail = `
SELECT id, establishment_id, email, hashed_password, full_name, role, is_active, created_at, updated_at
FROM users
WHERE email = $1 AND is_active = true
`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRow(ctx, getUserByEmail, email)
	var u User
	err := row.Scan(&u.ID, &u.EstablishmentID, &u.Email, &u.HashedPassword, &u.FullName,
		&u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

const getUserByID = `
SELECT id, establishment_id, email, hashed_password, full_name, role, is_active, created_at, updated_at
FROM users
WHERE id = $1 AND is_active = true
`

func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	row := q.db.QueryRow(ctx, getUserByID, id)
	var u User
	err := row.Scan(&u.ID, &u.EstablishmentID, &u.Email, &u.HashedPassword, &u.FullName,
		&u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

const listUsersByEstablishment = `
SELECT id, establishment_id, email, hashed_password, full_name, role, is_active, created_at, updated_at
FROM users
WHERE establishment_id = $1 AND is_active = true
ORDER BY full_name
`

func (q *Queries) ListUsersByEstablishment(ctx context.Context, establishmentID uuid.UUID) ([]User, error) {
	rows, err := q.db.Query(ctx, listUsersByEstablishment, establishmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.EstablishmentID, &u.Email, &u.HashedPassword, &u.FullName,
			&u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

type CreateUserParams struct {
	EstablishmentID uuid.UUID
	Email           string
	HashedPassword  string
	FullName        string
	Role            string
}

const createUser = `
SELECT id, establishment_id, email, hashed_password, full_name, role, is_active, created_at, updated_at
FROM fn_criar_usuario($1, $2, $3, $4, $5)
`

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRow(ctx, createUser,
		arg.EstablishmentID, arg.Email, arg.HashedPassword, arg.FullName, arg.Role)
	var u User
	err := row.Scan(&u.ID, &u.EstablishmentID, &u.Email, &u.HashedPassword, &u.FullName,
		&u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

type UpdateUserRoleParams struct {
	ID              uuid.UUID
	EstablishmentID uuid.UUID
	Role            string
}

const updateUserRole = `
SELECT id, establishment_id, email, hashed_password, full_name, role, is_active, created_at, updated_at
FROM fn_atualizar_papel_usuario($1, $2, $3)
`

func (q *Queries) UpdateUserRole(ctx context.Context, arg UpdateUserRoleParams) (User, error) {
	row := q.db.QueryRow(ctx, updateUserRole, arg.ID, arg.EstablishmentID, arg.Role)
	var u User
	err := row.Scan(&u.ID, &u.EstablishmentID, &u.Email, &u.HashedPassword, &u.FullName,
		&u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

type DeactivateUserParams struct {
	ID              uuid.UUID
	EstablishmentID uuid.UUID
}

const deactivateUser = `SELECT fn_desativar_usuario($1, $2)`

// DeactivateUser soft-deletes a team member and returns the affected id.
func (q *Queries) DeactivateUser(ctx context.Context, arg DeactivateUserParams) (uuid.UUID, error) {
	var id uuid.UUID
	err := q.db.QueryRow(ctx, deactivateUser, arg.ID, arg.EstablishmentID).Scan(&id)
	return id, err
}
