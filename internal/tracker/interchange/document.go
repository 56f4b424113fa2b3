// Package interchange converte o Entity Store em documentos persistidos e formatos de exportação.
package interchange

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/radieske/bet-tracker/internal/tracker/model"
)

const DocumentVersion = "1.0"

var ErrMalformed = errors.New("malformed document")

// Document é o formato estruturado de exportação/importação (round-trip sem perdas)
type Document struct {
	Version    string                    `json:"version"`
	ExportDate time.Time                 `json:"exportDate"`
	Tipsters   map[string]*model.Tipster `json:"tipstersData"`
	Bets       []model.Bet               `json:"bets"`
}

type rawDocument struct {
	Tipsters json.RawMessage `json:"tipstersData"`
	Bets     json.RawMessage `json:"bets"`
	Theme    string          `json:"theme"`
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && !bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// decodeCollections exige o mapa de tipsters e a sequência de apostas
func decodeCollections(data []byte) (map[string]*model.Tipster, []model.Bet, string, error) {
	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if !present(raw.Tipsters) {
		return nil, nil, "", fmt.Errorf("%w: missing tipstersData", ErrMalformed)
	}
	if !present(raw.Bets) {
		return nil, nil, "", fmt.Errorf("%w: missing bets", ErrMalformed)
	}
	tipsters := map[string]*model.Tipster{}
	if err := json.Unmarshal(raw.Tipsters, &tipsters); err != nil {
		return nil, nil, "", fmt.Errorf("%w: tipstersData: %v", ErrMalformed, err)
	}
	for name, t := range tipsters {
		if name == "" || t == nil {
			return nil, nil, "", fmt.Errorf("%w: invalid tipster entry %q", ErrMalformed, name)
		}
	}
	bets := []model.Bet{}
	if err := json.Unmarshal(raw.Bets, &bets); err != nil {
		return nil, nil, "", fmt.Errorf("%w: bets: %v", ErrMalformed, err)
	}
	return tipsters, bets, raw.Theme, nil
}

// ParseDocument lê um documento de importação ou um snapshot remoto.
// Aceita o formato exportado e também o snapshot puro; version/exportDate são opcionais.
func ParseDocument(data []byte) (*Document, error) {
	tipsters, bets, _, err := decodeCollections(data)
	if err != nil {
		return nil, err
	}
	var meta struct {
		Version    string `json:"version"`
		ExportDate string `json:"exportDate"`
	}
	_ = json.Unmarshal(data, &meta)
	doc := &Document{Version: meta.Version, Tipsters: tipsters, Bets: bets}
	if meta.ExportDate != "" {
		if ts, err := model.ParseDate(meta.ExportDate); err == nil {
			doc.ExportDate = ts
		}
	}
	return doc, nil
}

// ExportJSON gera o documento estruturado com indentação de 2 espaços
func ExportJSON(s *model.State, now time.Time) ([]byte, error) {
	doc := Document{
		Version:    DocumentVersion,
		ExportDate: now.UTC(),
		Tipsters:   s.Tipsters,
		Bets:       s.Bets,
	}
	if doc.Bets == nil {
		doc.Bets = []model.Bet{}
	}
	return json.MarshalIndent(doc, "", "  ")
}

// EncodeSnapshot serializa o store inteiro (tipstersData, bets, theme)
func EncodeSnapshot(s *model.State) ([]byte, error) {
	cp := *s
	if cp.Bets == nil {
		cp.Bets = []model.Bet{}
	}
	return json.Marshal(&cp)
}

// DecodeSnapshot reconstrói o store persistido. O tema ausente vira light.
func DecodeSnapshot(data []byte) (*model.State, error) {
	tipsters, bets, theme, err := decodeCollections(data)
	if err != nil {
		return nil, err
	}
	if !model.ValidTheme(theme) {
		theme = model.ThemeLight
	}
	return &model.State{Tipsters: tipsters, Bets: bets, Theme: theme}, nil
}

// FileName monta o nome do arquivo de exportação (bettracker_export_YYYY-MM-DD.ext)
func FileName(ext string, now time.Time) string {
	return fmt.Sprintf("bettracker_export_%s.%s", now.UTC().Format("2006-01-02"), ext)
}
