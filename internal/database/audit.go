package database

import (
	"context"

	"github.com/google/uuid"
)

const listAuditLogsByEstablishment = `
SELECT id, establishment_id, actor_email, action, entity, created_at
FROM audit_logs
WHERE establishment_id = $1
ORDER BY created_at DESC
`

func (q *Queries) ListAuditLogsByEstablishment(ctx context.Context, establishmentID uuid.UUID) ([]AuditLog, error) {
	rows, err := q.db.Query(ctx, listAuditLogsByEstablishment, establishmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var logs []AuditLog
	for rows.Next() {
		var l AuditLog
		if err := rows.Scan(&l.ID, &l.EstablishmentID, &l.ActorEmail, &l.Action, &l.Entity, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
