package stats

import "github.com/radieske/bet-tracker/internal/tracker/model"

const RecentBetsLimit = 5

// Details é a visão detalhada de um tipster
type Details struct {
	TipsterStats
	Recent []model.Bet `json:"recent"`
}

// TipsterDetails retorna as estatísticas e as últimas apostas (mais recente primeiro, pela ordem de inserção)
func TipsterDetails(s *model.State, name string) (Details, bool) {
	ts, ok := Tipster(s, name, s.Bets)
	if !ok {
		return Details{}, false
	}
	own := s.BetsOf(name)
	start := len(own) - RecentBetsLimit
	if start < 0 {
		start = 0
	}
	recent := make([]model.Bet, 0, len(own)-start)
	for i := len(own) - 1; i >= start; i-- {
		recent = append(recent, own[i])
	}
	return Details{TipsterStats: ts, Recent: recent}, true
}
