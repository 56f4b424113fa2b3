// Package query filtra, ordena e pagina a coleção de apostas para exibição.
package query

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/radieske/bet-tracker/internal/tracker/model"
)

const DefaultPageSize = 10

// Filter combina até seis critérios; campo vazio não filtra
type Filter struct {
	Tipster  string        `json:"tipster"`
	Sport    string        `json:"sport"`
	Outcome  model.Outcome `json:"outcome"`
	DateFrom time.Time     `json:"dateFrom"`
	DateTo   time.Time     `json:"dateTo"`
	Search   string        `json:"search"`
}

// IsZero indica que nenhum critério está ativo
func (f Filter) IsZero() bool { return f == Filter{} }

// Match aplica todos os critérios ativos (conjunção)
func (f Filter) Match(b model.Bet) bool {
	if f.Tipster != "" && b.Tipster != f.Tipster {
		return false
	}
	if f.Sport != "" && b.Sport != f.Sport {
		return false
	}
	if f.Outcome != "" && b.Outcome != f.Outcome {
		return false
	}
	if !f.DateFrom.IsZero() && b.Date.Before(f.DateFrom) {
		return false
	}
	if !f.DateTo.IsZero() && b.Date.After(f.DateTo) {
		return false
	}
	if term := strings.ToLower(strings.TrimSpace(f.Search)); term != "" {
		text := strings.ToLower(fmt.Sprintf("%s %s %s %s", b.Tipster, b.Team, b.Sport, b.Notes))
		if !strings.Contains(text, term) {
			return false
		}
	}
	return true
}

// Apply retorna as apostas que satisfazem o filtro, preservando a ordem
func (f Filter) Apply(bets []model.Bet) []model.Bet {
	out := make([]model.Bet, 0, len(bets))
	for _, b := range bets {
		if f.Match(b) {
			out = append(out, b)
		}
	}
	return out
}

// SortKey é uma das chaves do ciclo de ordenação
type SortKey string

const (
	SortDate    SortKey = "date"
	SortTipster SortKey = "tipster"
	SortAmount  SortKey = "amount"
	SortOdds    SortKey = "odds"
	SortOutcome SortKey = "outcome"
)

// SortKeys é a ordem fixa do ciclo
var SortKeys = []SortKey{SortDate, SortTipster, SortAmount, SortOdds, SortOutcome}

// SortOrder é asc ou desc
type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// Sort é a chave e direção atuais
type Sort struct {
	Key   SortKey   `json:"key"`
	Order SortOrder `json:"order"`
}

// DefaultSort é data decrescente (mais recentes primeiro)
var DefaultSort = Sort{Key: SortDate, Order: Desc}

// ParseSortKey valida a chave recebida
func ParseSortKey(s string) (SortKey, error) {
	k := SortKey(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range SortKeys {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

// ParseSortOrder valida a direção recebida
func ParseSortOrder(s string) (SortOrder, error) {
	switch o := SortOrder(strings.ToLower(strings.TrimSpace(s))); o {
	case Asc, Desc:
		return o, nil
	}
	return "", fmt.Errorf("unknown sort order %q", s)
}

// Toggle avança o ciclo: chave desc → mesma chave asc → próxima chave desc
func (s Sort) Toggle() Sort {
	if s.Order == Desc {
		return Sort{Key: s.Key, Order: Asc}
	}
	idx := 0
	for i, k := range SortKeys {
		if k == s.Key {
			idx = i
			break
		}
	}
	return Sort{Key: SortKeys[(idx+1)%len(SortKeys)], Order: Desc}
}

func (s Sort) less(a, b model.Bet) bool {
	var cmp int
	switch s.Key {
	case SortTipster:
		cmp = strings.Compare(strings.ToLower(a.Tipster), strings.ToLower(b.Tipster))
	case SortAmount:
		cmp = compareFloat(a.Stake, b.Stake)
	case SortOdds:
		cmp = compareFloat(a.Odds, b.Odds)
	case SortOutcome:
		cmp = strings.Compare(string(a.Outcome), string(b.Outcome))
	default:
		cmp = a.Date.Compare(b.Date)
	}
	if s.Order == Asc {
		return cmp < 0
	}
	return cmp > 0
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Apply devolve uma cópia ordenada (estável: empates mantêm a ordem da coleção)
func (s Sort) Apply(bets []model.Bet) []model.Bet {
	out := make([]model.Bet, len(bets))
	copy(out, bets)
	sort.SliceStable(out, func(i, j int) bool { return s.less(out[i], out[j]) })
	return out
}
