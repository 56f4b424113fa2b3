package ledger

import (
	"errors"
	"fmt"
)

var (
	ErrCapitalNotSet       = errors.New("initial capital not set")
	ErrInsufficientCapital = errors.New("insufficient capital")
	ErrDuplicateBet        = errors.New("duplicate bet")
	ErrTipsterExists       = errors.New("tipster already exists")
	ErrTipsterNotFound     = errors.New("tipster not found")
	ErrBetNotFound         = errors.New("bet not found")
	ErrInvalid             = errors.New("invalid input")
)

// ValidationError descreve um campo inválido do formulário
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return fmt.Sprintf("%s: %s", e.Field, e.Message) }

func (e *ValidationError) Unwrap() error { return ErrInvalid }

func invalid(field, msg string) error { return &ValidationError{Field: field, Message: msg} }

// Reason mapeia o erro para um código estável (labels de métricas e corpo de erro da API)
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCapitalNotSet):
		return "capital_not_set"
	case errors.Is(err, ErrInsufficientCapital):
		return "insufficient_capital"
	case errors.Is(err, ErrDuplicateBet):
		return "duplicate"
	case errors.Is(err, ErrTipsterExists):
		return "tipster_exists"
	case errors.Is(err, ErrTipsterNotFound):
		return "tipster_not_found"
	case errors.Is(err, ErrBetNotFound):
		return "bet_not_found"
	case errors.Is(err, ErrInvalid):
		return "invalid"
	}
	return "internal"
}
