package httpapi

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"

	"github.com/radieske/bet-tracker/internal/tracker/ledger"
	"github.com/radieske/bet-tracker/internal/tracker/model"
	"github.com/radieske/bet-tracker/internal/tracker/query"
	"github.com/radieske/bet-tracker/internal/tracker/service"
	"github.com/radieske/bet-tracker/internal/tracker/stats"
)

var (
	validate = validator.New()
	strict   = bluemonday.StrictPolicy()
)

// clean remove qualquer HTML do texto livre e desfaz o escape da policy
func clean(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// checkStruct roda as tags validate e converte para ValidationError
func checkStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &ledger.ValidationError{
			Field:   strings.ToLower(fe.Field()),
			Message: fmt.Sprintf("failed %q validation", fe.Tag()),
		}
	}
	return &ledger.ValidationError{Field: "body", Message: err.Error()}
}

type AddTipsterRequest struct {
	Name           string   `json:"name" validate:"required,max=64"`
	InitialCapital *float64 `json:"initial_capital" validate:"omitempty,gte=0"`
}

type CapitalRequest struct {
	Capital *float64 `json:"capital" validate:"required,gte=0"`
}

type BetRequest struct {
	Tipster    string  `json:"tipster" validate:"required,max=64"`
	Sport      string  `json:"sport" validate:"required,max=64"`
	Team       string  `json:"team" validate:"required,max=128"`
	Stake      float64 `json:"stake"`
	Odds       float64 `json:"odds"`
	OddsFormat string  `json:"odds_format" validate:"omitempty,oneof=dec amer"`
	Outcome    string  `json:"outcome"`
	Date       string  `json:"date"`
	Notes      string  `json:"notes" validate:"max=1000"`
}

// toInput sanitiza o texto livre; stake/odds/outcome são validados pelo ledger
func (r BetRequest) toInput() (service.BetInput, error) {
	in := service.BetInput{
		Tipster:    strings.TrimSpace(r.Tipster),
		Sport:      strings.TrimSpace(r.Sport),
		Team:       clean(r.Team),
		Stake:      r.Stake,
		Odds:       r.Odds,
		OddsFormat: model.OddsFormat(r.OddsFormat),
		Outcome:    r.Outcome,
		Notes:      clean(r.Notes),
	}
	if r.Date != "" {
		d, err := model.ParseDate(r.Date)
		if err != nil {
			return in, &ledger.ValidationError{Field: "date", Message: err.Error()}
		}
		in.Date = d
	}
	return in, nil
}

type OutcomeRequest struct {
	Outcome string `json:"outcome" validate:"required"`
}

type ThemeRequest struct {
	Theme string `json:"theme" validate:"required,oneof=light dark"`
}

type FilterRequest struct {
	Tipster string `json:"tipster"`
	Sport   string `json:"sport"`
	Outcome string `json:"outcome"`
	From    string `json:"from"`
	To      string `json:"to"`
	Search  string `json:"search" validate:"max=200"`
}

type SearchRequest struct {
	Search string `json:"search" validate:"max=200"`
}

type PageRequest struct {
	Page  *int `json:"page" validate:"omitempty,gte=1"`
	Delta int  `json:"delta" validate:"gte=-1,lte=1"`
}

type PageSizeRequest struct {
	Size int `json:"size" validate:"gte=1,lte=500"`
}

// toFilter converte os campos crus; "to" só com data vai até o fim do dia
func (r FilterRequest) toFilter() (query.Filter, error) {
	f := query.Filter{
		Tipster: strings.TrimSpace(r.Tipster),
		Sport:   strings.TrimSpace(r.Sport),
		Outcome: model.Outcome(strings.ToLower(strings.TrimSpace(r.Outcome))),
		Search:  clean(r.Search),
	}
	if f.Outcome != "" && !f.Outcome.Valid() {
		return f, &ledger.ValidationError{Field: "outcome", Message: fmt.Sprintf("invalid outcome %q", r.Outcome)}
	}
	var err error
	if f.DateFrom, err = parseBound(r.From, false); err != nil {
		return f, &ledger.ValidationError{Field: "from", Message: err.Error()}
	}
	if f.DateTo, err = parseBound(r.To, true); err != nil {
		return f, &ledger.ValidationError{Field: "to", Message: err.Error()}
	}
	return f, nil
}

func parseBound(s string, endOfDay bool) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := model.ParseDate(s)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay && len(s) == len("2006-01-02") {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

type tipstersResponse struct {
	Tipsters []service.TipsterBalance `json:"tipsters"`
	Stats    []stats.TipsterStats     `json:"stats"`
	Totals   stats.Totals             `json:"totals"`
}

// BetResponse devolve a aposta com a odd também em formato americano e a probabilidade implícita
type BetResponse struct {
	model.Bet
	AmericanOdds       int     `json:"americanOdds"`
	ImpliedProbability float64 `json:"impliedProbability"`
}

func newBetResponse(b model.Bet) BetResponse {
	resp := BetResponse{Bet: b}
	// odds gravadas já passaram por MinOdds; erro aqui só deixa os campos zerados
	if am, err := model.DecimalToAmerican(b.Odds); err == nil {
		resp.AmericanOdds = am
	}
	if p, err := model.ImpliedProbability(b.Odds); err == nil {
		resp.ImpliedProbability = p
	}
	return resp
}
