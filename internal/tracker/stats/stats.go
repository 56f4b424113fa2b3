// Package stats agrega a coleção de apostas em números de resumo e séries para gráficos.
// Todas as funções são puras e seguras para coleções vazias.
package stats

import (
	"fmt"
	"sort"
	"time"

	"github.com/radieske/bet-tracker/internal/tracker/model"
)

// Counts agrupa contagens por outcome
type Counts struct {
	Total   int     `json:"total"`
	Wins    int     `json:"wins"`
	Losses  int     `json:"losses"`
	Pending int     `json:"pending"`
	WinRate float64 `json:"winRate"`
}

// Overview são os números gerais do painel
type Overview struct {
	Counts
	TotalStaked  float64 `json:"totalStaked"`
	TotalReturns float64 `json:"totalReturns"`
	NetProfit    float64 `json:"netProfit"`
	ROI          float64 `json:"roi"`
	AverageOdds  float64 `json:"averageOdds"`
}

// TipsterStats combina contagens com o capital do tipster
type TipsterStats struct {
	Name string `json:"name"`
	Counts
	InitialCapital float64 `json:"initialCapital"`
	CurrentCapital float64 `json:"currentCapital"`
	ProfitLoss     float64 `json:"profitLoss"`
	ROI            float64 `json:"roi"`
}

// SportStats é o resultado acumulado por esporte
type SportStats struct {
	Sport string `json:"sport"`
	Counts
	Profit float64 `json:"profit"`
}

// ProfitPoint é um ponto da curva de lucro acumulado
type ProfitPoint struct {
	Date   time.Time `json:"date"`
	Label  string    `json:"label"`
	Profit float64   `json:"profit"`
}

// MonthBucket conta vitórias e derrotas de um mês (chave "YYYY-MM")
type MonthBucket struct {
	Key    string `json:"key"`
	Label  string `json:"label"`
	Wins   int    `json:"wins"`
	Losses int    `json:"losses"`
}

// Totals soma o capital dos tipsters inicializados
type Totals struct {
	Initial float64 `json:"initial"`
	Current float64 `json:"current"`
}

// CountBets conta por outcome; win rate considera só apostas liquidadas
func CountBets(bets []model.Bet) Counts {
	c := Counts{Total: len(bets)}
	for _, b := range bets {
		switch b.Outcome {
		case model.OutcomeWin:
			c.Wins++
		case model.OutcomeLose:
			c.Losses++
		default:
			c.Pending++
		}
	}
	c.WinRate = winRate(c.Wins, c.Losses)
	return c
}

func winRate(wins, losses int) float64 {
	if wins+losses == 0 {
		return 0
	}
	return float64(wins) / float64(wins+losses) * 100
}

// Overall calcula os números gerais. Apostas pending não entram em staked/returns.
func Overall(bets []model.Bet) Overview {
	o := Overview{Counts: CountBets(bets)}
	for _, b := range bets {
		switch b.Outcome {
		case model.OutcomeWin:
			o.TotalStaked += b.Stake
			o.TotalReturns += b.Payout()
		case model.OutcomeLose:
			o.TotalStaked += b.Stake
		}
	}
	o.NetProfit = o.TotalReturns - o.TotalStaked
	if o.TotalStaked > 0 {
		o.ROI = o.NetProfit / o.TotalStaked * 100
	}
	o.AverageOdds = AverageOdds(bets)
	return o
}

// AverageOdds é a média aritmética das odds de todas as apostas
func AverageOdds(bets []model.Bet) float64 {
	if len(bets) == 0 {
		return 0
	}
	var sum float64
	for _, b := range bets {
		sum += b.Odds
	}
	return sum / float64(len(bets))
}

// Tipster calcula as estatísticas de um tipster sobre as apostas informadas
func Tipster(s *model.State, name string, bets []model.Bet) (TipsterStats, bool) {
	t, ok := s.Tipsters[name]
	if !ok {
		return TipsterStats{}, false
	}
	var own []model.Bet
	for _, b := range bets {
		if b.Tipster == name {
			own = append(own, b)
		}
	}
	ts := TipsterStats{
		Name:           name,
		Counts:         CountBets(own),
		InitialCapital: t.InitialCapital,
		CurrentCapital: t.CurrentCapital,
		ProfitLoss:     t.CurrentCapital - t.InitialCapital,
	}
	if t.InitialCapital > 0 {
		ts.ROI = ts.ProfitLoss / t.InitialCapital * 100
	}
	return ts, true
}

// Tipsters retorna as estatísticas de cada tipster inicializado, na ordem de exibição
func Tipsters(s *model.State, bets []model.Bet) []TipsterStats {
	out := []TipsterStats{}
	for _, name := range s.SortedTipsterNames() {
		if !s.Tipsters[name].InitialSet {
			continue
		}
		ts, _ := Tipster(s, name, bets)
		out = append(out, ts)
	}
	return out
}

// CapitalTotals soma inicial e atual dos tipsters inicializados
func CapitalTotals(s *model.State) Totals {
	var t Totals
	for _, tp := range s.Tipsters {
		if !tp.InitialSet {
			continue
		}
		t.Initial += tp.InitialCapital
		t.Current += tp.CurrentCapital
	}
	return t
}

// Sports agrega por esporte. Só aparecem esportes com apostas; a ordem segue
// o catálogo e esportes fora dele vêm depois, em ordem alfabética.
func Sports(bets []model.Bet) []SportStats {
	bySport := map[string]*SportStats{}
	for _, b := range bets {
		st, ok := bySport[b.Sport]
		if !ok {
			st = &SportStats{Sport: b.Sport}
			bySport[b.Sport] = st
		}
		st.Total++
		switch b.Outcome {
		case model.OutcomeWin:
			st.Wins++
		case model.OutcomeLose:
			st.Losses++
		default:
			st.Pending++
		}
		st.Profit += b.Profit()
	}

	out := make([]SportStats, 0, len(bySport))
	for _, st := range bySport {
		st.WinRate = winRate(st.Wins, st.Losses)
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool {
		ai, aj := model.SportIndex(out[i].Sport), model.SportIndex(out[j].Sport)
		switch {
		case ai >= 0 && aj >= 0:
			return ai < aj
		case ai >= 0:
			return true
		case aj >= 0:
			return false
		}
		return out[i].Sport < out[j].Sport
	})
	return out
}

// ProfitSeries é o lucro acumulado por data crescente, pulando pending
func ProfitSeries(bets []model.Bet) []ProfitPoint {
	sorted := make([]model.Bet, len(bets))
	copy(sorted, bets)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	out := []ProfitPoint{}
	var running float64
	for _, b := range sorted {
		if !b.Settled() {
			continue
		}
		running += b.Profit()
		out = append(out, ProfitPoint{Date: b.Date, Label: b.Date.Format("1/2/2006"), Profit: running})
	}
	return out
}

// Monthly agrupa por ano-mês (UTC) em ordem cronológica; só meses com apostas
func Monthly(bets []model.Bet) []MonthBucket {
	byKey := map[string]*MonthBucket{}
	for _, b := range bets {
		d := b.Date.UTC()
		key := fmt.Sprintf("%04d-%02d", d.Year(), int(d.Month()))
		mb, ok := byKey[key]
		if !ok {
			mb = &MonthBucket{Key: key, Label: fmt.Sprintf("%04d.%02d", d.Year(), int(d.Month()))}
			byKey[key] = mb
		}
		switch b.Outcome {
		case model.OutcomeWin:
			mb.Wins++
		case model.OutcomeLose:
			mb.Losses++
		}
	}
	out := make([]MonthBucket, 0, len(byKey))
	for _, mb := range byKey {
		out = append(out, *mb)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
