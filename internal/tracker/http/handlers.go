package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/radieske/bet-tracker/internal/tracker/ledger"
	"github.com/radieske/bet-tracker/internal/tracker/model"
	"github.com/radieske/bet-tracker/internal/tracker/query"
)

func (a *API) listSports(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, model.Sports)
}

func (a *API) listTipsters(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		a.writeError(w, err)
		return
	}
	st, totals := a.Tracker.TipsterStats(f)
	writeJSON(w, http.StatusOK, tipstersResponse{
		Tipsters: a.Tracker.Balances(),
		Stats:    st,
		Totals:   totals,
	})
}

func (a *API) tipsterDetails(w http.ResponseWriter, r *http.Request) {
	d, err := a.Tracker.TipsterDetails(chi.URLParam(r, "name"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (a *API) addTipster(w http.ResponseWriter, r *http.Request) {
	var req AddTipsterRequest
	if err := decode(w, r, &req); err != nil {
		a.writeError(w, err)
		return
	}
	capital := model.DefaultInitialCapital
	if req.InitialCapital != nil {
		capital = *req.InitialCapital
	}
	name, err := a.Tracker.AddTipster(r.Context(), clean(req.Name), capital)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"name": name, "initialCapital": capital})
}

func (a *API) setCapital(w http.ResponseWriter, r *http.Request) {
	var req CapitalRequest
	if err := decode(w, r, &req); err != nil {
		a.writeError(w, err)
		return
	}
	name := chi.URLParam(r, "name")
	tp, err := a.Tracker.SetCapital(r.Context(), name, *req.Capital)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"name": name, "tipster": tp})
}

// listBets é a consulta sem estado: filtros, ordenação e página na query string
func (a *API) listBets(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		a.writeError(w, err)
		return
	}
	q := r.URL.Query()
	s := query.DefaultSort
	if v := q.Get("sort"); v != "" {
		if s.Key, err = query.ParseSortKey(v); err != nil {
			a.writeError(w, &ledger.ValidationError{Field: "sort", Message: err.Error()})
			return
		}
	}
	if v := q.Get("order"); v != "" {
		if s.Order, err = query.ParseSortOrder(v); err != nil {
			a.writeError(w, &ledger.ValidationError{Field: "order", Message: err.Error()})
			return
		}
	}
	page := intParam(q.Get("page"), 1)
	size := intParam(q.Get("size"), 0)
	if size > query.MaxPageSize {
		a.writeError(w, &ledger.ValidationError{Field: "size", Message: fmt.Sprintf("must be at most %d", query.MaxPageSize)})
		return
	}
	writeJSON(w, http.StatusOK, a.Tracker.ListBets(f, s, page, size))
}

func (a *API) placeBet(w http.ResponseWriter, r *http.Request) {
	var req BetRequest
	if err := decode(w, r, &req); err != nil {
		a.writeError(w, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		a.writeError(w, err)
		return
	}
	b, err := a.Tracker.PlaceBet(r.Context(), in)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newBetResponse(b))
}

func (a *API) updateBet(w http.ResponseWriter, r *http.Request) {
	var req BetRequest
	if err := decode(w, r, &req); err != nil {
		a.writeError(w, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		a.writeError(w, err)
		return
	}
	b, err := a.Tracker.UpdateBet(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newBetResponse(b))
}

func (a *API) setOutcome(w http.ResponseWriter, r *http.Request) {
	var req OutcomeRequest
	if err := decode(w, r, &req); err != nil {
		a.writeError(w, err)
		return
	}
	b, err := a.Tracker.SetOutcome(r.Context(), chi.URLParam(r, "id"), req.Outcome)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newBetResponse(b))
}

func (a *API) deleteBet(w http.ResponseWriter, r *http.Request) {
	if _, err := a.Tracker.DeleteBet(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// filterFromQuery lê tipster, sport, outcome, from, to e q
func filterFromQuery(r *http.Request) (query.Filter, error) {
	q := r.URL.Query()
	return FilterRequest{
		Tipster: q.Get("tipster"),
		Sport:   q.Get("sport"),
		Outcome: q.Get("outcome"),
		From:    q.Get("from"),
		To:      q.Get("to"),
		Search:  q.Get("q"),
	}.toFilter()
}

func intParam(s string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return v
}
