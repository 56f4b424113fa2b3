package events

import "time"

// Tipos de evento publicados no tópico "ledger_events"
const (
	TypeTipsterAdded   = "tipster_added"
	TypeCapitalSet     = "capital_set"
	TypeBetPlaced      = "bet_placed"
	TypeBetUpdated     = "bet_updated"
	TypeOutcomeChanged = "outcome_changed"
	TypeBetDeleted     = "bet_deleted"
	TypeImported       = "imported"
	TypeReset          = "reset"
	TypeSynced         = "synced"
)

// LedgerEvent é emitido após cada mutação aplicada com sucesso.
// Capital é o saldo do tipster já recalculado.
type LedgerEvent struct {
	Type            string    `json:"type"`
	BetID           string    `json:"betId,omitempty"`
	Tipster         string    `json:"tipster,omitempty"`
	Stake           float64   `json:"stake,omitempty"`
	Odds            float64   `json:"odds,omitempty"`
	Outcome         string    `json:"outcome,omitempty"`
	PreviousOutcome string    `json:"previousOutcome,omitempty"`
	Capital         float64   `json:"capital"`
	Ts              time.Time `json:"ts"`
}

// Key é a chave de partição (tipster; eventos globais usam o tipo)
func (e LedgerEvent) Key() string {
	if e.Tipster != "" {
		return e.Tipster
	}
	return e.Type
}
