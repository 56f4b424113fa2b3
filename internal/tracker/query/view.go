package query

import "github.com/radieske/bet-tracker/internal/tracker/model"

// View guarda o estado de navegação da tabela de apostas (filtros, ordenação, página).
// Não é seguro para uso concorrente; o dono serializa o acesso.
type View struct {
	Filter   Filter `json:"filter"`
	Sort     Sort   `json:"sort"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
}

// NewView cria a visão inicial: sem filtros, data desc, página 1
func NewView(pageSize int) *View {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return &View{Sort: DefaultSort, Page: 1, PageSize: pageSize}
}

// SetFilter troca os filtros e volta para a página 1
func (v *View) SetFilter(f Filter) {
	v.Filter = f
	v.Page = 1
}

// ClearFilters remove todos os critérios
func (v *View) ClearFilters() { v.SetFilter(Filter{}) }

// SetSearch troca só o termo de busca
func (v *View) SetSearch(term string) {
	f := v.Filter
	f.Search = term
	v.SetFilter(f)
}

// SetPageSize troca o tamanho da página e volta para a página 1
func (v *View) SetPageSize(size int) {
	if size < 1 {
		size = DefaultPageSize
	}
	v.PageSize = size
	v.Page = 1
}

// ToggleSort avança o ciclo de ordenação
func (v *View) ToggleSort() Sort {
	v.Sort = v.Sort.Toggle()
	return v.Sort
}

// GoTo navega para a página informada, limitada ao intervalo válido
func (v *View) GoTo(bets []model.Bet, page int) {
	total := TotalPages(len(v.Filter.Apply(bets)), v.PageSize)
	v.Page = ClampPage(page, total)
}

// Move navega relativamente (+1 próxima, -1 anterior)
func (v *View) Move(bets []model.Bet, delta int) { v.GoTo(bets, v.Page+delta) }

// Render produz a página visível; a página guardada é ajustada se a coleção encolheu
func (v *View) Render(bets []model.Bet) Page {
	p := Run(bets, v.Filter, v.Sort, v.Page, v.PageSize)
	v.Page = p.Page
	return p
}
