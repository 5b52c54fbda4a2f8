package storage

import (
	"context"
	"database/sql"

	pq "github.com/lib/pq"
)

// SessionRepo es el historial de partidas. Best-effort: el bot funciona
// igual si la DB no está; los errores los loguea quien llama.
type SessionRepo struct{ db *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{db: db} }

func (r *SessionRepo) StartSession(ctx context.Context, guildID, initiatorID string) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
INSERT INTO game_sessions (guild_id, initiator_id)
VALUES ($1, $2)
RETURNING id
`, guildID, initiatorID).Scan(&id)
	return id, err
}

func (r *SessionRepo) BindControlMessage(ctx context.Context, id int64, messageID string) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE game_sessions
   SET control_message_id = $2
 WHERE id = $1
`, id, messageID)
	return err
}

func (r *SessionRepo) EndSession(ctx context.Context, id int64, deadIDs []string) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE game_sessions
   SET ended_at = NOW(),
       dead_ids = $2
 WHERE id = $1
`, id, pq.Array(deadIDs))
	return err
}
