package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PostgresStore guarda o snapshot na tabela tracker_snapshots (uma linha por chave)
type PostgresStore struct {
	DB  *sql.DB
	Key string
}

// NewPostgresStore retorna o store para a chave informada
func NewPostgresStore(db *sql.DB, key string) *PostgresStore {
	return &PostgresStore{DB: db, Key: key}
}

func (p *PostgresStore) Load(ctx context.Context) ([]byte, bool, error) {
	const q = `SELECT value FROM tracker_snapshots WHERE key = $1`
	var doc []byte
	err := p.DB.QueryRowContext(ctx, q, p.Key).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select snapshot %s: %w", p.Key, err)
	}
	return doc, true, nil
}

// Save grava o documento inteiro; ON CONFLICT garante uma linha só por chave
func (p *PostgresStore) Save(ctx context.Context, doc []byte) error {
	const q = `
		INSERT INTO tracker_snapshots (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET
		  value      = EXCLUDED.value,
		  updated_at = EXCLUDED.updated_at
	`
	if _, err := p.DB.ExecContext(ctx, q, p.Key, doc); err != nil {
		return fmt.Errorf("upsert snapshot %s: %w", p.Key, err)
	}
	return nil
}

func (p *PostgresStore) Delete(ctx context.Context) error {
	const q = `DELETE FROM tracker_snapshots WHERE key = $1`
	if _, err := p.DB.ExecContext(ctx, q, p.Key); err != nil {
		return fmt.Errorf("delete snapshot %s: %w", p.Key, err)
	}
	return nil
}

func (p *PostgresStore) Ping(ctx context.Context) error { return p.DB.PingContext(ctx) }
