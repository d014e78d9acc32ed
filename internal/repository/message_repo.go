package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"chat-sync/internal/domain"
)

var (
	// ErrDuplicateMessage indica colisión sobre message_id (llave de idempotencia).
	ErrDuplicateMessage = errors.New("duplicate message id")
	// ErrMessageNotFound indica que el message_id referido no existe.
	ErrMessageNotFound = errors.New("message not found")
)

type MessageRepository interface {
	Insert(ctx context.Context, message domain.Message) (domain.Message, error)
	FindByMessageID(ctx context.Context, messageID string) (domain.Message, error)
	UpdateStatusByMessageID(ctx context.Context, messageID string, status domain.Status) (domain.Message, error)
	ListByWaID(ctx context.Context, waID string) ([]domain.Message, error)
	ListAll(ctx context.Context) ([]domain.Message, error)
}

type PgMessageRepository struct {
	pool *pgxpool.Pool
}

func NewPgMessageRepository(pool *pgxpool.Pool) *PgMessageRepository {
	return &PgMessageRepository{pool: pool}
}

const messageColumns = `id, wa_id, name, message_id, body, from_me, timestamp, status`

func (r *PgMessageRepository) Insert(ctx context.Context, message domain.Message) (domain.Message, error) {
	const query = `
		INSERT INTO processed_messages (wa_id, name, message_id, body, from_me, timestamp, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + messageColumns

	row := r.pool.QueryRow(ctx, query,
		message.WaID,
		message.Name,
		message.MessageID,
		message.Body,
		message.FromMe,
		message.Timestamp,
		message.Status,
	)

	stored, err := scanMessage(row)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505: unique_violation sobre message_id.
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.Message{}, ErrDuplicateMessage
		}
		return domain.Message{}, err
	}
	return stored, nil
}

func (r *PgMessageRepository) FindByMessageID(ctx context.Context, messageID string) (domain.Message, error) {
	const query = `
		SELECT ` + messageColumns + `
		FROM processed_messages
		WHERE message_id = $1
	`

	msg, err := scanMessage(r.pool.QueryRow(ctx, query, messageID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Message{}, ErrMessageNotFound
		}
		return domain.Message{}, err
	}
	return msg, nil
}

// UpdateStatusByMessageID aplica el nuevo estado en un solo UPDATE atómico.
func (r *PgMessageRepository) UpdateStatusByMessageID(ctx context.Context, messageID string, status domain.Status) (domain.Message, error) {
	const query = `
		UPDATE processed_messages
		SET status = $2
		WHERE message_id = $1
		RETURNING ` + messageColumns

	msg, err := scanMessage(r.pool.QueryRow(ctx, query, messageID, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Message{}, ErrMessageNotFound
		}
		return domain.Message{}, err
	}
	return msg, nil
}

func (r *PgMessageRepository) ListByWaID(ctx context.Context, waID string) ([]domain.Message, error) {
	const query = `
		SELECT ` + messageColumns + `
		FROM processed_messages
		WHERE wa_id = $1
		ORDER BY timestamp ASC, id ASC
	`

	rows, err := r.pool.Query(ctx, query, waID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectMessages(rows)
}

func (r *PgMessageRepository) ListAll(ctx context.Context) ([]domain.Message, error) {
	const query = `
		SELECT ` + messageColumns + `
		FROM processed_messages
		ORDER BY id ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectMessages(rows)
}

func scanMessage(row pgx.Row) (domain.Message, error) {
	var msg domain.Message
	err := row.Scan(
		&msg.ID,
		&msg.WaID,
		&msg.Name,
		&msg.MessageID,
		&msg.Body,
		&msg.FromMe,
		&msg.Timestamp,
		&msg.Status,
	)
	return msg, err
}

func collectMessages(rows pgx.Rows) ([]domain.Message, error) {
	var messages []domain.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return messages, nil
}
