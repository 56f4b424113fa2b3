package topics

const (
	// Ledger
	LedgerEvents    = "ledger_events"
	LedgerEventsDLQ = "ledger_events_dlq"

	// Canal redis de atualizações ao vivo
	LedgerUpdatesChannel = "ledger_updates_broadcast"
)
