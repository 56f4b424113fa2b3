package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/bet-tracker/internal/tracker/ledger"
	"github.com/radieske/bet-tracker/internal/tracker/model"
	"github.com/radieske/bet-tracker/pkg/contracts/events"
)

// BetInput são os valores crus do formulário de aposta
type BetInput struct {
	Tipster    string
	Sport      string
	Team       string
	Stake      float64
	Odds       float64
	OddsFormat model.OddsFormat
	Outcome    string
	Date       time.Time // zero = agora
	Notes      string
}

// toBet normaliza o formulário: odds americanas viram decimais, outcome vazio vira pending
func (t *Tracker) toBet(in BetInput) (model.Bet, error) {
	odds, err := model.ToDecimal(in.Odds, in.OddsFormat)
	if err != nil {
		return model.Bet{}, &ledger.ValidationError{Field: "odds", Message: err.Error()}
	}
	if in.OddsFormat == model.OddsAmerican {
		odds = model.Round2(odds)
	}
	outcome, err := model.ParseOutcome(in.Outcome)
	if err != nil {
		return model.Bet{}, &ledger.ValidationError{Field: "outcome", Message: err.Error()}
	}
	date := in.Date
	if date.IsZero() {
		date = t.now()
	}
	return model.Bet{
		Tipster: strings.TrimSpace(in.Tipster),
		Sport:   strings.TrimSpace(in.Sport),
		Team:    strings.TrimSpace(in.Team),
		Stake:   in.Stake,
		Odds:    odds,
		Outcome: outcome,
		Date:    date,
		Notes:   strings.TrimSpace(in.Notes),
	}, nil
}

func betEvent(b model.Bet) events.LedgerEvent {
	return events.LedgerEvent{
		BetID:   b.ID,
		Tipster: b.Tipster,
		Stake:   b.Stake,
		Odds:    b.Odds,
		Outcome: string(b.Outcome),
	}
}

// PlaceBet valida e grava uma aposta nova
func (t *Tracker) PlaceBet(ctx context.Context, in BetInput) (model.Bet, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	b, err := t.toBet(in)
	if err != nil {
		return model.Bet{}, t.reject(events.TypeBetPlaced, err, zap.String("tipster", in.Tipster))
	}
	b.ID = t.newID()
	if err := ledger.Place(t.state, b); err != nil {
		return model.Bet{}, t.reject(events.TypeBetPlaced, err, zap.String("tipster", b.Tipster))
	}
	t.committed(ctx, events.TypeBetPlaced, betEvent(b))
	t.log.Info("bet placed",
		zap.String("bet_id", b.ID),
		zap.String("tipster", b.Tipster),
		zap.Float64("stake", b.Stake),
		zap.Float64("odds", b.Odds),
	)
	return b, nil
}

// UpdateBet substitui os campos de uma aposta existente mantendo o id
func (t *Tracker) UpdateBet(ctx context.Context, id string, in BetInput) (model.Bet, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	b, err := t.toBet(in)
	if err != nil {
		return model.Bet{}, t.reject(events.TypeBetUpdated, err, zap.String("bet_id", id))
	}
	var (
		prev        model.Outcome
		prevTipster string
	)
	if i := t.state.BetIndex(id); i >= 0 {
		prev = t.state.Bets[i].Outcome
		prevTipster = t.state.Bets[i].Tipster
		if in.Date.IsZero() {
			b.Date = t.state.Bets[i].Date
		}
	}
	if err := ledger.Update(t.state, id, b); err != nil {
		return model.Bet{}, t.reject(events.TypeBetUpdated, err, zap.String("bet_id", id))
	}
	b.ID = id
	ev := betEvent(b)
	ev.PreviousOutcome = string(prev)
	t.committed(ctx, events.TypeBetUpdated, ev, prevTipster)
	t.log.Info("bet updated", zap.String("bet_id", id), zap.String("tipster", b.Tipster))
	return b, nil
}

// SetOutcome troca o outcome; repetir o mesmo outcome não altera nada
func (t *Tracker) SetOutcome(ctx context.Context, id string, raw string) (model.Bet, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	next, err := model.ParseOutcome(raw)
	if err != nil || strings.TrimSpace(raw) == "" {
		err = &ledger.ValidationError{Field: "outcome", Message: fmt.Sprintf("invalid outcome %q", raw)}
		return model.Bet{}, t.reject(events.TypeOutcomeChanged, err, zap.String("bet_id", id))
	}
	prev, err := ledger.SetOutcome(t.state, id, next)
	if err != nil {
		return model.Bet{}, t.reject(events.TypeOutcomeChanged, err, zap.String("bet_id", id))
	}
	b := t.state.Bets[t.state.BetIndex(id)]
	if prev == next {
		return b, nil
	}
	ev := betEvent(b)
	ev.PreviousOutcome = string(prev)
	t.committed(ctx, events.TypeOutcomeChanged, ev)
	t.log.Info("outcome changed",
		zap.String("bet_id", id),
		zap.String("from", string(prev)),
		zap.String("to", string(next)),
	)
	return b, nil
}

// DeleteBet remove a aposta e desfaz seu efeito no capital
func (t *Tracker) DeleteBet(ctx context.Context, id string) (model.Bet, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	removed, err := ledger.Delete(t.state, id)
	if err != nil {
		return model.Bet{}, t.reject(events.TypeBetDeleted, err, zap.String("bet_id", id))
	}
	t.committed(ctx, events.TypeBetDeleted, betEvent(removed))
	t.log.Info("bet deleted", zap.String("bet_id", id), zap.String("tipster", removed.Tipster))
	return removed, nil
}
