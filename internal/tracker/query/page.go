package query

import "github.com/radieske/bet-tracker/internal/tracker/model"

const (
	MaxPageButtons = 7
	MaxPageSize    = 500
)

// Page é a fatia visível junto com os dados de navegação
type Page struct {
	Items      []model.Bet `json:"items"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
	TotalItems int         `json:"totalItems"`
	Window     []int       `json:"window"`
}

// TotalPages é ceil(n/size); zero itens resulta em zero páginas
func TotalPages(n, size int) int {
	if size < 1 {
		size = DefaultPageSize
	}
	pages := n / size
	if n%size != 0 {
		pages++
	}
	return pages
}

// ClampPage limita a página ao intervalo válido [1, total]; sem páginas fica em 1
func ClampPage(page, total int) int {
	if page > total {
		page = total
	}
	if page < 1 {
		page = 1
	}
	return page
}

// Paginate corta a sequência já filtrada e ordenada
func Paginate(bets []model.Bet, page, size int) Page {
	if size < 1 {
		size = DefaultPageSize
	}
	total := TotalPages(len(bets), size)
	page = ClampPage(page, total)

	start := (page - 1) * size
	end := start + size
	if start > len(bets) {
		start = len(bets)
	}
	if end > len(bets) {
		end = len(bets)
	}
	items := make([]model.Bet, end-start)
	copy(items, bets[start:end])
	return Page{
		Items:      items,
		Page:       page,
		PageSize:   size,
		TotalPages: total,
		TotalItems: len(bets),
		Window:     PageWindow(page, total, MaxPageButtons),
	}
}

// PageWindow retorna até max números de página em torno da atual
func PageWindow(current, total, max int) []int {
	if total < 1 || max < 1 {
		return []int{}
	}
	start := current - max/2
	if start < 1 {
		start = 1
	}
	end := start + max - 1
	if end > total {
		end = total
	}
	start = end - max + 1
	if start < 1 {
		start = 1
	}
	out := make([]int, 0, end-start+1)
	for p := start; p <= end; p++ {
		out = append(out, p)
	}
	return out
}

// Run aplica filtro, ordenação e paginação numa passada só
func Run(bets []model.Bet, f Filter, s Sort, page, size int) Page {
	return Paginate(s.Apply(f.Apply(bets)), page, size)
}
