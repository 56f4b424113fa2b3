package model

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const (
	DefaultTipsterCount   = 12
	DefaultInitialCapital = 100.0

	ThemeLight = "light"
	ThemeDark  = "dark"
)

var defaultNameRe = regexp.MustCompile(`^Tipster\s+(\d+)$`)

// State é o Entity Store: dono exclusivo das coleções de tipsters e apostas.
// A serialização JSON é o documento persistido no key-value store.
type State struct {
	Tipsters map[string]*Tipster `json:"tipstersData"`
	Bets     []Bet               `json:"bets"`
	Theme    string              `json:"theme"`
}

// NewState cria um store com o pool padrão de placeholders
func NewState() *State {
	s := &State{Tipsters: map[string]*Tipster{}, Bets: []Bet{}, Theme: ThemeLight}
	s.SeedDefaults()
	return s
}

// SeedDefaults garante os placeholders "Tipster 1..12" (capital 0, initialSet=false)
func (s *State) SeedDefaults() {
	if s.Tipsters == nil {
		s.Tipsters = map[string]*Tipster{}
	}
	for i := 1; i <= DefaultTipsterCount; i++ {
		name := DefaultName(i)
		if _, ok := s.Tipsters[name]; !ok {
			s.Tipsters[name] = &Tipster{}
		}
	}
}

// DefaultName retorna o nome do placeholder de número n
func DefaultName(n int) string { return fmt.Sprintf("Tipster %d", n) }

// IsDefaultName indica se o nome segue o padrão dos placeholders
func IsDefaultName(name string) bool { return defaultNameRe.MatchString(name) }

func defaultNumber(name string) int {
	m := defaultNameRe.FindStringSubmatch(name)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

// SortedTipsterNames lista os nomes customizados (ordem alfabética) seguidos dos placeholders por número
func (s *State) SortedTipsterNames() []string {
	var custom, defaults []string
	for name := range s.Tipsters {
		if IsDefaultName(name) {
			defaults = append(defaults, name)
		} else {
			custom = append(custom, name)
		}
	}
	sort.Strings(custom)
	sort.Slice(defaults, func(i, j int) bool { return defaultNumber(defaults[i]) < defaultNumber(defaults[j]) })
	return append(custom, defaults...)
}

// NormalizeDefaultNames renumera os placeholders para começarem depois dos nomes customizados.
// As apostas referenciam tipsters por nome, então as referências são reescritas junto.
func (s *State) NormalizeDefaultNames() {
	names := s.SortedTipsterNames()
	custom := 0
	var defaults []string
	for _, n := range names {
		if IsDefaultName(n) {
			defaults = append(defaults, n)
		} else {
			custom++
		}
	}
	if len(defaults) == 0 {
		return
	}

	renames := make(map[string]string, len(defaults))
	for i, old := range defaults {
		if nn := DefaultName(custom + 1 + i); nn != old {
			renames[old] = nn
		}
	}
	if len(renames) == 0 {
		return
	}

	next := make(map[string]*Tipster, len(s.Tipsters))
	for name, t := range s.Tipsters {
		if nn, ok := renames[name]; ok {
			name = nn
		}
		next[name] = t
	}
	s.Tipsters = next
	for i := range s.Bets {
		if nn, ok := renames[s.Bets[i].Tipster]; ok {
			s.Bets[i].Tipster = nn
		}
	}
}

// BetIndex retorna a posição da aposta pelo id, ou -1
func (s *State) BetIndex(id string) int {
	for i := range s.Bets {
		if s.Bets[i].ID == id {
			return i
		}
	}
	return -1
}

// BetsOf retorna as apostas de um tipster, na ordem da coleção
func (s *State) BetsOf(name string) []Bet {
	var out []Bet
	for _, b := range s.Bets {
		if b.Tipster == name {
			out = append(out, b)
		}
	}
	return out
}

// Clone faz uma cópia profunda (usada para validar candidatos sem mutar o store)
func (s *State) Clone() *State {
	c := &State{
		Tipsters: make(map[string]*Tipster, len(s.Tipsters)),
		Bets:     make([]Bet, len(s.Bets)),
		Theme:    s.Theme,
	}
	for name, t := range s.Tipsters {
		cp := *t
		c.Tipsters[name] = &cp
	}
	copy(c.Bets, s.Bets)
	return c
}

// ValidTheme indica se o tema é suportado
func ValidTheme(theme string) bool {
	switch strings.ToLower(theme) {
	case ThemeLight, ThemeDark:
		return true
	}
	return false
}
