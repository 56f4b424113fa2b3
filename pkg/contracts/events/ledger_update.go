package events

import "time"

// Overview resumido enviado aos clientes conectados
type Overview struct {
	TotalBets   int     `json:"totalBets"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	Pending     int     `json:"pending"`
	WinRate     float64 `json:"winRate"`
	NetProfit   float64 `json:"netProfit"`
	ROI         float64 `json:"roi"`
	TotalStaked float64 `json:"totalStaked"`
}

// LedgerUpdate é publicado no canal redis e repassado via websocket.
// Tipsters lista quem a mutação alterou; vazio afeta todos (import, reset, sync).
type LedgerUpdate struct {
	Cause     string             `json:"cause"`
	Tipsters  []string           `json:"tipsters,omitempty"`
	Overview  Overview           `json:"overview"`
	Balances  map[string]float64 `json:"balances"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// Touches indica se o update afeta o tipster
func (u LedgerUpdate) Touches(tipster string) bool {
	if len(u.Tipsters) == 0 {
		return true
	}
	for _, name := range u.Tipsters {
		if name == tipster {
			return true
		}
	}
	return false
}
