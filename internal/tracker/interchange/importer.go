package interchange

import (
	"fmt"
	"math"
	"strings"

	"github.com/radieske/bet-tracker/internal/tracker/ledger"
	"github.com/radieske/bet-tracker/internal/tracker/model"
)

// Mode é o modo de importação
type Mode string

const (
	ModeMerge   Mode = "merge"
	ModeReplace Mode = "replace"
)

// ParseMode valida o modo; vazio é merge
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "", ModeMerge:
		return ModeMerge, nil
	case ModeReplace:
		return ModeReplace, nil
	}
	return "", fmt.Errorf("unknown import mode %q", s)
}

// Result resume o que foi importado
type Result struct {
	Mode       Mode `json:"mode"`
	Tipsters   int  `json:"tipsters"`
	Bets       int  `json:"bets"`
	Reassigned int  `json:"reassigned"`
}

// Check confere as apostas do documento contra os tipsters que existiriam após a importação:
// stake > 0, odds >= MinOdds e tipster com capital definido. Não altera o store.
func Check(s *model.State, doc *Document, mode Mode) error {
	lookup := func(name string) *model.Tipster {
		if t, ok := doc.Tipsters[name]; ok {
			return t
		}
		if mode == ModeMerge {
			return s.Tipsters[name]
		}
		return nil
	}
	for i, b := range doc.Bets {
		switch {
		case !(b.Stake > 0) || math.IsInf(b.Stake, 0):
			return fmt.Errorf("%w: bets[%d]: stake must be positive", ErrMalformed, i)
		case !(b.Odds >= model.MinOdds) || math.IsInf(b.Odds, 0):
			return fmt.Errorf("%w: bets[%d]: odds below %.2f", ErrMalformed, i, model.MinOdds)
		}
		t := lookup(b.Tipster)
		if t == nil || !t.InitialSet {
			return fmt.Errorf("%w: bets[%d]: tipster %q has no capital set", ErrMalformed, i, b.Tipster)
		}
	}
	return nil
}

// Import aplica o documento ao store e recalcula os capitais.
// merge: tipsters sobrescritos chave a chave, apostas anexadas; ids repetidos ganham id novo.
// replace: as duas coleções são substituídas; o tema é mantido.
// Documento reprovado em Check volta ErrMalformed sem tocar no store.
func Import(s *model.State, doc *Document, mode Mode, newID func() string) (Result, error) {
	if err := Check(s, doc, mode); err != nil {
		return Result{}, err
	}
	res := Result{Mode: mode, Tipsters: len(doc.Tipsters), Bets: len(doc.Bets)}

	incoming := make([]model.Bet, len(doc.Bets))
	copy(incoming, doc.Bets)

	used := map[string]bool{}
	if mode == ModeReplace {
		s.Tipsters = make(map[string]*model.Tipster, len(doc.Tipsters))
		s.Bets = make([]model.Bet, 0, len(incoming))
	} else {
		for _, b := range s.Bets {
			used[b.ID] = true
		}
	}
	for name, t := range doc.Tipsters {
		cp := *t
		s.Tipsters[name] = &cp
	}
	for i := range incoming {
		if incoming[i].ID == "" || used[incoming[i].ID] {
			incoming[i].ID = newID()
			res.Reassigned++
		}
		used[incoming[i].ID] = true
	}
	s.Bets = append(s.Bets, incoming...)
	ledger.Apply(s)
	return res, nil
}
