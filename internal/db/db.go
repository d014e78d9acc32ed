package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"chat-sync/internal/config"
)

// NewPool construye y devuelve un pool de conexiones configurado.
func NewPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	// Configuración razonable para ambientes iniciales.
	poolCfg.MaxConns = 10
	poolCfg.MinConns = 1
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 30 * time.Second
	poolCfg.ConnConfig.ConnectTimeout = 5 * time.Second

	return pgxpool.NewWithConfig(ctx, poolCfg)
}

// Ping verifica conectividad con la base de datos.
func Ping(ctx context.Context, pool *pgxpool.Pool) error {
	return pool.Ping(ctx)
}

// Migrate crea el esquema si no existe. El índice único sobre message_id es
// el que garantiza exactamente un ganador ante inserts concurrentes.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS processed_messages (
			id         BIGSERIAL PRIMARY KEY,
			wa_id      TEXT NOT NULL,
			name       TEXT NOT NULL,
			message_id TEXT NOT NULL,
			body       TEXT NOT NULL,
			from_me    BOOLEAN NOT NULL,
			timestamp  TIMESTAMPTZ NOT NULL,
			status     TEXT NOT NULL DEFAULT 'sent'
		);
		CREATE UNIQUE INDEX IF NOT EXISTS ux_processed_messages_message_id
			ON processed_messages (message_id);
		CREATE INDEX IF NOT EXISTS ix_processed_messages_wa_id
			ON processed_messages (wa_id);
	`
	_, err := pool.Exec(ctx, schema)
	return err
}
