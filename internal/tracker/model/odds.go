package model

import (
	"fmt"
	"math"
)

const MinOdds = 1.01

// OddsFormat é o formato em que a odd foi digitada
type OddsFormat string

const (
	OddsDecimal  OddsFormat = "dec"
	OddsAmerican OddsFormat = "amer"
)

// AmericanToDecimal converte odds americanas em decimais
// +150 → 2.50, -150 → 1.67; valores entre -100 e +100 não existem
func AmericanToDecimal(american float64) (float64, error) {
	if !(math.Abs(american) >= 100) || math.IsInf(american, 0) {
		return 0, fmt.Errorf("invalid american odds %v", american)
	}
	if american > 0 {
		return 1 + american/100, nil
	}
	return 1 + 100/math.Abs(american), nil
}

// DecimalToAmerican converte odds decimais em americanas (arredondado)
func DecimalToAmerican(decimal float64) (int, error) {
	if !(decimal > 1) {
		return 0, fmt.Errorf("invalid decimal odds %v", decimal)
	}
	if decimal >= 2 {
		return int(math.Round((decimal - 1) * 100)), nil
	}
	return -int(math.Round(100 / (decimal - 1))), nil
}

// ImpliedProbability retorna a probabilidade implícita em percentual (2 casas)
func ImpliedProbability(decimal float64) (float64, error) {
	if !(decimal > 1) {
		return 0, fmt.Errorf("invalid decimal odds %v", decimal)
	}
	return Round2(100 / decimal), nil
}

// ToDecimal normaliza a odd informada no formato indicado; formato vazio é decimal
func ToDecimal(value float64, format OddsFormat) (float64, error) {
	switch format {
	case "", OddsDecimal:
		return value, nil
	case OddsAmerican:
		return AmericanToDecimal(value)
	}
	return 0, fmt.Errorf("unknown odds format %q", format)
}
