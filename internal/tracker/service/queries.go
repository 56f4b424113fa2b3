package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/radieske/bet-tracker/internal/tracker/interchange"
	"github.com/radieske/bet-tracker/internal/tracker/ledger"
	"github.com/radieske/bet-tracker/internal/tracker/model"
	"github.com/radieske/bet-tracker/internal/tracker/query"
	"github.com/radieske/bet-tracker/internal/tracker/stats"
	"github.com/radieske/bet-tracker/pkg/contracts/events"
)

// TipsterBalance é uma linha da tabela de tipsters (inclui placeholders)
type TipsterBalance struct {
	Name string `json:"name"`
	model.Tipster
}

// Balances lista todos os tipsters na ordem de exibição
func (t *Tracker) Balances() []TipsterBalance {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]TipsterBalance, 0, len(t.state.Tipsters))
	for _, name := range t.state.SortedTipsterNames() {
		out = append(out, TipsterBalance{Name: name, Tipster: *t.state.Tipsters[name]})
	}
	return out
}

// TipsterStats retorna as estatísticas dos tipsters inicializados e os totais de capital
func (t *Tracker) TipsterStats(f query.Filter) ([]stats.TipsterStats, stats.Totals) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return stats.Tipsters(t.state, f.Apply(t.state.Bets)), stats.CapitalTotals(t.state)
}

// TipsterDetails retorna o detalhe de um tipster com as últimas apostas
func (t *Tracker) TipsterDetails(name string) (stats.Details, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	d, ok := stats.TipsterDetails(t.state, name)
	if !ok {
		return stats.Details{}, fmt.Errorf("%w: %s", ledger.ErrTipsterNotFound, name)
	}
	return d, nil
}

// Overview calcula os números gerais sobre as apostas filtradas
func (t *Tracker) Overview(f query.Filter) stats.Overview {
	t.mu.Lock()
	defer t.mu.Unlock()
	return stats.Overall(f.Apply(t.state.Bets))
}

// SportStats agrega por esporte
func (t *Tracker) SportStats(f query.Filter) []stats.SportStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return stats.Sports(f.Apply(t.state.Bets))
}

// ProfitSeries retorna a curva de lucro acumulado
func (t *Tracker) ProfitSeries(f query.Filter) []stats.ProfitPoint {
	t.mu.Lock()
	defer t.mu.Unlock()
	return stats.ProfitSeries(f.Apply(t.state.Bets))
}

// Monthly retorna vitórias/derrotas por mês
func (t *Tracker) Monthly(f query.Filter) []stats.MonthBucket {
	t.mu.Lock()
	defer t.mu.Unlock()
	return stats.Monthly(f.Apply(t.state.Bets))
}

// ListBets consulta sem estado: filtro, ordenação e página vêm da requisição
func (t *Tracker) ListBets(f query.Filter, s query.Sort, page, size int) query.Page {
	t.mu.Lock()
	defer t.mu.Unlock()
	return query.Run(t.state.Bets, f, s, page, size)
}

// ViewState é a visão persistente da tabela junto com a página renderizada.
// Filtered indica algum critério ativo.
type ViewState struct {
	View     query.View `json:"view"`
	Filtered bool       `json:"filtered"`
	Page     query.Page `json:"page"`
}

func (t *Tracker) renderView() ViewState {
	p := t.view.Render(t.state.Bets)
	return ViewState{View: *t.view, Filtered: !t.view.Filter.IsZero(), Page: p}
}

// View renderiza a visão atual
func (t *Tracker) View() ViewState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.renderView()
}

// SetViewFilter troca os filtros (volta para a página 1)
func (t *Tracker) SetViewFilter(f query.Filter) ViewState {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.view.SetFilter(f)
	return t.renderView()
}

// ClearViewFilters remove todos os critérios (volta para a página 1)
func (t *Tracker) ClearViewFilters() ViewState {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.view.ClearFilters()
	return t.renderView()
}

// SetViewSearch troca só o termo de busca, mantendo os demais filtros
func (t *Tracker) SetViewSearch(term string) ViewState {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.view.SetSearch(term)
	return t.renderView()
}

// ToggleViewSort avança o ciclo de ordenação
func (t *Tracker) ToggleViewSort() ViewState {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.view.ToggleSort()
	return t.renderView()
}

// SetViewPage navega para uma página absoluta (limitada ao intervalo válido)
func (t *Tracker) SetViewPage(page int) ViewState {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.view.GoTo(t.state.Bets, page)
	return t.renderView()
}

// MoveViewPage navega relativamente (+1/-1)
func (t *Tracker) MoveViewPage(delta int) ViewState {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.view.Move(t.state.Bets, delta)
	return t.renderView()
}

// SetViewPageSize troca o tamanho da página (volta para a página 1)
func (t *Tracker) SetViewPageSize(size int) ViewState {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.view.SetPageSize(size)
	return t.renderView()
}

// Formatos de exportação
const (
	ExportJSON = "json"
	ExportCSV  = "csv"
	ExportTXT  = "txt"
)

// Export é um arquivo pronto para download
type Export struct {
	FileName    string
	ContentType string
	Body        []byte
}

// Export gera o arquivo no formato pedido
func (t *Tracker) Export(format string) (Export, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	switch format {
	case ExportJSON:
		body, err := interchange.ExportJSON(t.state, now)
		if err != nil {
			return Export{}, fmt.Errorf("export json: %w", err)
		}
		return Export{interchange.FileName(ExportJSON, now), "application/json", body}, nil
	case ExportCSV:
		return Export{interchange.FileName(ExportCSV, now), "text/csv", interchange.ExportCSV(t.state.Bets)}, nil
	case ExportTXT:
		return Export{interchange.FileName(ExportTXT, now), "text/plain", interchange.ExportTXT(t.state, now)}, nil
	}
	return Export{}, &ledger.ValidationError{Field: "format", Message: fmt.Sprintf("unknown export format %q", format)}
}

// Import lê um documento estruturado e aplica merge ou replace. Documento inválido não altera nada.
func (t *Tracker) Import(ctx context.Context, data []byte, mode interchange.Mode) (interchange.Result, error) {
	doc, err := interchange.ParseDocument(data)
	if err != nil {
		return interchange.Result{}, t.rejectImport(err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	res, err := interchange.Import(t.state, doc, mode, t.newID)
	if err != nil {
		return interchange.Result{}, t.rejectImport(err)
	}
	t.view.Page = 1
	t.committed(ctx, events.TypeImported, events.LedgerEvent{})
	t.log.Info("data imported",
		zap.String("mode", string(mode)),
		zap.Int("tipsters", res.Tipsters),
		zap.Int("bets", res.Bets),
		zap.Int("reassigned", res.Reassigned),
	)
	return res, nil
}

func (t *Tracker) rejectImport(err error) error {
	t.log.Warn("import rejected", zap.Error(err))
	if t.hooks.OnRejected != nil {
		t.hooks.OnRejected("malformed")
	}
	return err
}
