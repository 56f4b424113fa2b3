// Package ledger deriva e mantém o capital de cada tipster a partir do histórico de apostas.
//
// Recompute é a única fonte de verdade: os deltas incrementais (PlacementDelta,
// OutcomeDelta, DeletionDelta) servem apenas de prévia. Toda operação que muda o
// store termina com Apply, que reescreve o CurrentCapital em cache.
package ledger

import (
	"fmt"
	"math"
	"strings"

	"github.com/radieske/bet-tracker/internal/tracker/model"
)

// tolerância de comparação de stake/odds na detecção de duplicatas
const epsilon = 1e-9

// Recompute calcula o capital atual de cada tipster: inicial - stakes + payouts das vitórias.
// Pura e independente da ordem das apostas; apostas de tipsters desconhecidos são ignoradas.
func Recompute(s *model.State) map[string]float64 {
	out := make(map[string]float64, len(s.Tipsters))
	for name, t := range s.Tipsters {
		out[name] = t.InitialCapital
	}
	for _, b := range s.Bets {
		cur, ok := out[b.Tipster]
		if !ok {
			continue
		}
		cur -= b.Stake
		if b.Outcome == model.OutcomeWin {
			cur += b.Payout()
		}
		out[b.Tipster] = cur
	}
	for name, v := range out {
		out[name] = math.Max(0, model.Round2(v))
	}
	return out
}

// Apply grava o resultado de Recompute no cache de cada tipster
func Apply(s *model.State) {
	for name, v := range Recompute(s) {
		s.Tipsters[name].CurrentCapital = v
	}
}

// PlacementDelta é o efeito no capital no momento em que a aposta é colocada
func PlacementDelta(b model.Bet) float64 {
	d := -b.Stake
	if b.Outcome == model.OutcomeWin {
		d += b.Payout()
	}
	return d
}

// OutcomeDelta é o efeito de trocar o outcome de prev para next.
// Só a parte do payout muda: o stake já foi debitado na colocação.
func OutcomeDelta(prev, next model.Outcome, stake, odds float64) float64 {
	if prev == next {
		return 0
	}
	payout := stake * odds
	var d float64
	if prev == model.OutcomeWin {
		d -= payout
	}
	if next == model.OutcomeWin {
		d += payout
	}
	return d
}

// DeletionDelta desfaz exatamente a contribuição atual da aposta
func DeletionDelta(b model.Bet) float64 { return -PlacementDelta(b) }

// ValidateBet confere os campos do formulário, sem olhar capital
func ValidateBet(s *model.State, b model.Bet) error {
	switch {
	case strings.TrimSpace(b.Tipster) == "":
		return invalid("tipster", "please select a tipster")
	case strings.TrimSpace(b.Sport) == "":
		return invalid("sport", "please select a sport")
	case strings.TrimSpace(b.Team) == "":
		return invalid("team", "please enter the team name")
	case !(b.Stake > 0) || math.IsInf(b.Stake, 0):
		return invalid("stake", "invalid stake amount")
	case !(b.Odds >= model.MinOdds) || math.IsInf(b.Odds, 0):
		return invalid("odds", fmt.Sprintf("odds must be at least %.2f", model.MinOdds))
	case !b.Outcome.Valid():
		return invalid("outcome", "invalid outcome")
	}
	if _, ok := s.Tipsters[b.Tipster]; !ok {
		return fmt.Errorf("%w: %s", ErrTipsterNotFound, b.Tipster)
	}
	return nil
}

// CheckPlacement roda todas as guardas antes de qualquer mutação.
// excludeID ignora uma aposta existente (edição): capital e duplicatas são
// avaliados como se ela não estivesse no store.
func CheckPlacement(s *model.State, b model.Bet, excludeID string) error {
	if err := ValidateBet(s, b); err != nil {
		return err
	}
	t := s.Tipsters[b.Tipster]
	if !t.InitialSet {
		return fmt.Errorf("%w for %s", ErrCapitalNotSet, b.Tipster)
	}

	view := s
	if excludeID != "" {
		view = s.Clone()
		if i := view.BetIndex(excludeID); i >= 0 {
			view.Bets = append(view.Bets[:i], view.Bets[i+1:]...)
		}
	}
	available := Recompute(view)[b.Tipster]
	if b.Stake > available+epsilon {
		return fmt.Errorf("%w (%.2f units)", ErrInsufficientCapital, available)
	}
	if IsDuplicate(view, b) {
		return fmt.Errorf("%w: same tipster/team/date/stake/odds", ErrDuplicateBet)
	}
	return nil
}

// IsDuplicate compara tipster, time (case-insensitive), dia, stake e odds
func IsDuplicate(s *model.State, b model.Bet) bool {
	day := model.DayKey(b.Date)
	for _, e := range s.Bets {
		if e.ID == b.ID && b.ID != "" {
			continue
		}
		if e.Tipster == b.Tipster &&
			strings.EqualFold(e.Team, b.Team) &&
			model.DayKey(e.Date) == day &&
			math.Abs(e.Stake-b.Stake) < epsilon &&
			math.Abs(e.Odds-b.Odds) < epsilon {
			return true
		}
	}
	return false
}

// Place valida e adiciona a aposta; nada muda se alguma guarda falhar
func Place(s *model.State, b model.Bet) error {
	if err := CheckPlacement(s, b, ""); err != nil {
		return err
	}
	s.Bets = append(s.Bets, b)
	Apply(s)
	return nil
}

// Update substitui os campos de uma aposta mantendo o id
func Update(s *model.State, id string, b model.Bet) error {
	i := s.BetIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrBetNotFound, id)
	}
	b.ID = id
	if err := CheckPlacement(s, b, id); err != nil {
		return err
	}
	s.Bets[i] = b
	Apply(s)
	return nil
}

// SetOutcome troca o outcome e retorna o anterior. Mesmo outcome é no-op.
func SetOutcome(s *model.State, id string, next model.Outcome) (model.Outcome, error) {
	if !next.Valid() {
		return "", invalid("outcome", "invalid outcome")
	}
	i := s.BetIndex(id)
	if i < 0 {
		return "", fmt.Errorf("%w: %s", ErrBetNotFound, id)
	}
	prev := s.Bets[i].Outcome
	if prev == next {
		return prev, nil
	}
	s.Bets[i].Outcome = next
	Apply(s)
	return prev, nil
}

// Delete remove a aposta e recalcula os capitais
func Delete(s *model.State, id string) (model.Bet, error) {
	i := s.BetIndex(id)
	if i < 0 {
		return model.Bet{}, fmt.Errorf("%w: %s", ErrBetNotFound, id)
	}
	removed := s.Bets[i]
	s.Bets = append(s.Bets[:i], s.Bets[i+1:]...)
	Apply(s)
	return removed, nil
}

// SetCapital define o capital inicial. Na primeira vez também semeia o capital atual;
// depois, desloca o atual pelo mesmo delta.
func SetCapital(s *model.State, name string, value float64) error {
	if !(value >= 0) || math.IsInf(value, 0) {
		return invalid("capital", "capital must be a non-negative number")
	}
	t, ok := s.Tipsters[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTipsterNotFound, name)
	}
	if !t.InitialSet {
		t.InitialCapital = value
		t.CurrentCapital = value
		t.InitialSet = true
	} else {
		diff := value - t.InitialCapital
		t.InitialCapital = value
		t.CurrentCapital += diff
	}
	Apply(s)
	return nil
}

// AddTipster cria um tipster já inicializado com o capital informado e
// renumera os placeholders. Retorna o nome normalizado.
func AddTipster(s *model.State, name string, capital float64) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", invalid("name", "tipster name is required")
	}
	// placeholders são renumerados por NormalizeDefaultNames
	if model.IsDefaultName(name) {
		return "", invalid("name", "names like \"Tipster N\" are reserved")
	}
	if _, ok := s.Tipsters[name]; ok {
		return "", fmt.Errorf("%w: %s", ErrTipsterExists, name)
	}
	if !(capital >= 0) || math.IsInf(capital, 0) {
		return "", invalid("capital", "capital must be a non-negative number")
	}
	s.Tipsters[name] = &model.Tipster{InitialCapital: capital, CurrentCapital: capital, InitialSet: true}
	s.NormalizeDefaultNames()
	Apply(s)
	return name, nil
}
