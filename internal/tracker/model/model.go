package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// Outcome é o estado de liquidação de uma aposta
type Outcome string

const (
	OutcomePending Outcome = "pending"
	OutcomeWin     Outcome = "win"
	OutcomeLose    Outcome = "lose"
)

// Valid indica se o outcome pertence ao conjunto {pending, win, lose}
func (o Outcome) Valid() bool {
	switch o {
	case OutcomePending, OutcomeWin, OutcomeLose:
		return true
	}
	return false
}

// ParseOutcome normaliza a string recebida; vazio vira pending
func ParseOutcome(s string) (Outcome, error) {
	o := Outcome(strings.ToLower(strings.TrimSpace(s)))
	if o == "" {
		return OutcomePending, nil
	}
	if !o.Valid() {
		return "", fmt.Errorf("invalid outcome %q", s)
	}
	return o, nil
}

// Tipster é uma conta de capital identificada pelo nome (chave do mapa em State)
type Tipster struct {
	InitialCapital float64 `json:"initialCapital"`
	CurrentCapital float64 `json:"currentCapital"` // cache derivado, ver ledger.Recompute
	InitialSet     bool    `json:"initialSet"`
}

// UnmarshalJSON aceita também os nomes snake_case de snapshots antigos
func (t *Tipster) UnmarshalJSON(b []byte) error {
	var raw struct {
		InitialCapital       *float64 `json:"initialCapital"`
		CurrentCapital       *float64 `json:"currentCapital"`
		InitialSet           *bool    `json:"initialSet"`
		LegacyInitialCapital *float64 `json:"initial_capital"`
		LegacyCurrentCapital *float64 `json:"current_capital"`
		LegacyInitialSet     *bool    `json:"initial_set"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*t = Tipster{
		InitialCapital: firstFloat(raw.InitialCapital, raw.LegacyInitialCapital),
		CurrentCapital: firstFloat(raw.CurrentCapital, raw.LegacyCurrentCapital),
	}
	switch {
	case raw.InitialSet != nil:
		t.InitialSet = *raw.InitialSet
	case raw.LegacyInitialSet != nil:
		t.InitialSet = *raw.LegacyInitialSet
	}
	return nil
}

// Bet é o registro de uma aposta; só o outcome muda depois da criação
type Bet struct {
	ID      string    `json:"id"`
	Tipster string    `json:"tipster"`
	Sport   string    `json:"sport"`
	Team    string    `json:"team"`
	Stake   float64   `json:"stake"`
	Odds    float64   `json:"odds"`
	Outcome Outcome   `json:"outcome"`
	Date    time.Time `json:"date"`
	Notes   string    `json:"notes"`
}

// Payout é o valor creditado quando a aposta é ganha (stake * odds)
func (b Bet) Payout() float64 { return b.Stake * b.Odds }

// Profit é o resultado líquido de uma aposta liquidada; pending retorna 0
func (b Bet) Profit() float64 {
	switch b.Outcome {
	case OutcomeWin:
		return b.Payout() - b.Stake
	case OutcomeLose:
		return -b.Stake
	}
	return 0
}

// Settled indica win ou lose
func (b Bet) Settled() bool { return b.Outcome == OutcomeWin || b.Outcome == OutcomeLose }

// UnmarshalJSON aceita "betAmount" (formato antigo) e datas sem fuso
func (b *Bet) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID        string   `json:"id"`
		Tipster   string   `json:"tipster"`
		Sport     string   `json:"sport"`
		Team      string   `json:"team"`
		Stake     *float64 `json:"stake"`
		BetAmount *float64 `json:"betAmount"`
		Odds      float64  `json:"odds"`
		Outcome   string   `json:"outcome"`
		Date      string   `json:"date"`
		Notes     string   `json:"notes"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	outcome, err := ParseOutcome(raw.Outcome)
	if err != nil {
		return err
	}
	var date time.Time
	if raw.Date != "" {
		if date, err = ParseDate(raw.Date); err != nil {
			return err
		}
	}
	*b = Bet{
		ID:      raw.ID,
		Tipster: raw.Tipster,
		Sport:   raw.Sport,
		Team:    raw.Team,
		Stake:   firstFloat(raw.Stake, raw.BetAmount),
		Odds:    raw.Odds,
		Outcome: outcome,
		Date:    date,
		Notes:   raw.Notes,
	}
	return nil
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDate aceita RFC3339, o formato datetime-local (com ou sem segundos) e data pura.
// Datas sem fuso são interpretadas em UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// DayKey é o dia de calendário (UTC) usado na detecção de duplicatas
func DayKey(t time.Time) string { return t.UTC().Format("2006-01-02") }

// Round2 arredonda para 2 casas decimais
func Round2(v float64) float64 { return math.Round(v*100) / 100 }

func firstFloat(vals ...*float64) float64 {
	for _, v := range vals {
		if v != nil {
			return *v
		}
	}
	return 0
}
