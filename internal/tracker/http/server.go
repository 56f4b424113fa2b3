package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/radieske/bet-tracker/internal/tracker/interchange"
	"github.com/radieske/bet-tracker/internal/tracker/ledger"
	"github.com/radieske/bet-tracker/internal/tracker/service"
	"github.com/radieske/bet-tracker/internal/tracker/ws"
)

// maxBodyBytes limita o corpo das requisições (import inclui o documento inteiro)
const maxBodyBytes = 16 << 20

// API expõe o Tracker via REST e o hub de updates via /ws
type API struct {
	Tracker *service.Tracker
	Hub     *ws.Hub       // opcional
	Limiter *rate.Limiter // opcional; aplicado só nas mutações
	Origins []string
	Log     *zap.Logger
}

// Router retorna o roteador HTTP com os endpoints REST
func (a *API) Router() http.Handler {
	if a.Log == nil {
		a.Log = zap.NewNop()
	}
	origins := a.Origins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/sports", a.listSports)
		r.Get("/theme", a.getTheme)

		r.Get("/tipsters", a.listTipsters)
		r.Get("/tipsters/{name}", a.tipsterDetails)
		r.Get("/bets", a.listBets)

		r.Get("/stats/overview", a.statsOverview)
		r.Get("/stats/tipsters", a.statsTipsters)
		r.Get("/stats/sports", a.statsSports)
		r.Get("/stats/profit", a.statsProfit)
		r.Get("/stats/monthly", a.statsMonthly)

		r.Get("/export/{format}", a.export)
		r.Get("/view", a.getView)

		// mutações passam pelo rate limit
		r.Group(func(r chi.Router) {
			r.Use(a.limit)
			r.Post("/tipsters", a.addTipster)
			r.Put("/tipsters/{name}/capital", a.setCapital)
			r.Post("/bets", a.placeBet)
			r.Put("/bets/{id}", a.updateBet)
			r.Put("/bets/{id}/outcome", a.setOutcome)
			r.Delete("/bets/{id}", a.deleteBet)
			r.Post("/import", a.importData)
			r.Post("/reset", a.reset)
			r.Put("/theme", a.setTheme)

			r.Put("/view/filters", a.setViewFilters)
			r.Delete("/view/filters", a.clearViewFilters)
			r.Put("/view/search", a.setViewSearch)
			r.Post("/view/sort/toggle", a.toggleViewSort)
			r.Put("/view/page", a.setViewPage)
			r.Put("/view/page-size", a.setViewPageSize)
		})
	})

	if a.Hub != nil {
		r.Get("/ws", a.Hub.HandleWS)
	}
	return r
}

func (a *API) limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.Limiter != nil && !a.Limiter.Allow() {
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded", Reason: "rate_limited"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError traduz os erros do domínio em status HTTP
func (a *API) writeError(w http.ResponseWriter, err error) {
	reason := ledger.Reason(err)
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, interchange.ErrMalformed):
		status, reason = http.StatusBadRequest, "malformed"
	case errors.Is(err, ledger.ErrInvalid):
		status = http.StatusBadRequest
	case errors.Is(err, ledger.ErrTipsterNotFound), errors.Is(err, ledger.ErrBetNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ledger.ErrCapitalNotSet),
		errors.Is(err, ledger.ErrInsufficientCapital),
		errors.Is(err, ledger.ErrDuplicateBet),
		errors.Is(err, ledger.ErrTipsterExists):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		a.Log.Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), Reason: reason})
}

// decode lê o corpo JSON e roda as tags validate
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return &ledger.ValidationError{Field: "body", Message: "bad json"}
	}
	return checkStruct(v)
}
