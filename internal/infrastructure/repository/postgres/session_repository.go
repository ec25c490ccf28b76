package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/mkravets/product-search-assistant/internal/core/domain"
)

// SessionRepository persists conversations and their append-only turn log.
type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *SessionRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/indexer startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083101)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS conversations (
	conversation_id TEXT PRIMARY KEY,
	current_turn INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS conversation_turns (
	conversation_id TEXT NOT NULL REFERENCES conversations(conversation_id),
	turn_number INTEGER NOT NULL,
	query TEXT NOT NULL,
	refined_query TEXT NOT NULL,
	source TEXT NOT NULL,
	shown_titles JSONB NOT NULL DEFAULT '[]'::jsonb,
	created_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (conversation_id, turn_number)
);

CREATE INDEX IF NOT EXISTS idx_conversation_turns_created_at ON conversation_turns(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *SessionRepository) EnsureConversation(ctx context.Context, conversationID string) (*domain.Conversation, error) {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
INSERT INTO conversations (conversation_id, current_turn, created_at, updated_at)
VALUES ($1, 0, $2, $2)
ON CONFLICT (conversation_id) DO NOTHING
`, conversationID, now)
	if err != nil {
		return nil, fmt.Errorf("ensure conversation insert: %w", err)
	}

	row := r.db.QueryRowContext(ctx, `
SELECT conversation_id, current_turn, created_at, updated_at
FROM conversations
WHERE conversation_id = $1
`, conversationID)

	var conv domain.Conversation
	if err := row.Scan(&conv.ID, &conv.CurrentTurn, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
		return nil, fmt.Errorf("ensure conversation select: %w", err)
	}
	return &conv, nil
}

func (r *SessionRepository) ListTurns(ctx context.Context, conversationID string) ([]domain.Turn, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT conversation_id, turn_number, query, refined_query, source, shown_titles, created_at
FROM conversation_turns
WHERE conversation_id = $1
ORDER BY turn_number ASC
`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Turn, 0)
	for rows.Next() {
		var turn domain.Turn
		var source string
		var titlesRaw []byte
		if err := rows.Scan(
			&turn.ConversationID,
			&turn.TurnNumber,
			&turn.Query,
			&turn.RefinedQuery,
			&source,
			&titlesRaw,
			&turn.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		turn.Source = domain.Source(source)
		if err := json.Unmarshal(titlesRaw, &turn.ShownTitles); err != nil {
			return nil, fmt.Errorf("unmarshal shown titles: %w", err)
		}
		out = append(out, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turns: %w", err)
	}
	return out, nil
}

func (r *SessionRepository) AppendTurn(ctx context.Context, turn domain.Turn) (int, error) {
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}
	titlesJSON, err := json.Marshal(turn.ShownTitles)
	if err != nil {
		return 0, fmt.Errorf("marshal shown titles: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin turn tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	row := tx.QueryRowContext(ctx, `
UPDATE conversations
SET current_turn = current_turn + 1, updated_at = $2
WHERE conversation_id = $1
RETURNING current_turn
`, turn.ConversationID, turn.CreatedAt)

	var turnNumber int
	if err := row.Scan(&turnNumber); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.WrapError(domain.ErrConversationNotFound, "append turn", fmt.Errorf("conversation %s", turn.ConversationID))
		}
		return 0, fmt.Errorf("advance turn counter: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO conversation_turns (conversation_id, turn_number, query, refined_query, source, shown_titles, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`, turn.ConversationID, turnNumber, turn.Query, turn.RefinedQuery, string(turn.Source), titlesJSON, turn.CreatedAt); err != nil {
		return 0, fmt.Errorf("insert turn: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit turn tx: %w", err)
	}
	return turnNumber, nil
}
