package repo

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/bet-tracker/pkg/contracts/events"
)

func TestInsertBetEvent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	ev := events.LedgerEvent{
		Type: events.TypeOutcomeChanged, BetID: "b1", Tipster: "Alice",
		Stake: 10, Odds: 2, Outcome: "win", PreviousOutcome: "pending", Capital: 110, Ts: ts,
	}
	mock.ExpectExec("INSERT INTO ledger_audit").
		WithArgs(ev.Type,
			sql.NullString{String: "b1", Valid: true}, sql.NullString{String: "Alice", Valid: true},
			sql.NullFloat64{Float64: 10, Valid: true}, sql.NullFloat64{Float64: 2, Valid: true},
			sql.NullString{String: "win", Valid: true}, sql.NullString{String: "pending", Valid: true},
			110.0, ts, 3, int64(42)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	inserted, err := NewPostgresRepo(db).Insert(context.Background(), ev, Position{Partition: 3, Offset: 42})
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertGlobalEventUsesNulls(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ev := events.LedgerEvent{Type: events.TypeReset, Ts: time.Unix(0, 0).UTC()}
	mock.ExpectExec("INSERT INTO ledger_audit").
		WithArgs(ev.Type, sql.NullString{}, sql.NullString{}, sql.NullFloat64{}, sql.NullFloat64{},
			sql.NullString{}, sql.NullString{}, 0.0, ev.Ts, 0, int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	inserted, err := NewPostgresRepo(db).Insert(context.Background(), ev, Position{Offset: 1})
	require.NoError(t, err)
	assert.False(t, inserted, "reentrega não grava de novo")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO ledger_audit").WillReturnError(errors.New("conn reset"))
	_, err = NewPostgresRepo(db).Insert(context.Background(), events.LedgerEvent{Type: "x"}, Position{})
	assert.ErrorContains(t, err, "insert ledger audit")
}
