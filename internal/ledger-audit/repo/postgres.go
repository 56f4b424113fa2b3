package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/radieske/bet-tracker/pkg/contracts/events"
)

// Position identifica a mensagem de origem; (partition, offset) torna o insert idempotente
type Position struct {
	Partition int
	Offset    int64
}

// PostgresRepo grava a trilha de auditoria do ledger na tabela ledger_audit
type PostgresRepo struct {
	DB *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{DB: db}
}

// Insert grava o evento; retorna false quando a mensagem já tinha sido gravada (reentrega)
func (r *PostgresRepo) Insert(ctx context.Context, e events.LedgerEvent, pos Position) (bool, error) {
	const q = `
		INSERT INTO ledger_audit
		  (event_type, bet_id, tipster, stake, odds, outcome, previous_outcome, capital, event_ts, kafka_partition, kafka_offset)
		VALUES
		  ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (kafka_partition, kafka_offset) DO NOTHING
	`
	res, err := r.DB.ExecContext(ctx, q,
		e.Type, nullString(e.BetID), nullString(e.Tipster),
		nullFloat(e.Stake, e.BetID != ""), nullFloat(e.Odds, e.BetID != ""),
		nullString(e.Outcome), nullString(e.PreviousOutcome),
		e.Capital, e.Ts, pos.Partition, pos.Offset,
	)
	if err != nil {
		return false, fmt.Errorf("insert ledger audit: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert ledger audit: %w", err)
	}
	return n > 0, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(v float64, valid bool) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: valid}
}
