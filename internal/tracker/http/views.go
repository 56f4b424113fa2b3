package httpapi

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/radieske/bet-tracker/internal/tracker/interchange"
	"github.com/radieske/bet-tracker/internal/tracker/ledger"
)

func (a *API) getView(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.Tracker.View())
}

func (a *API) setViewFilters(w http.ResponseWriter, r *http.Request) {
	var req FilterRequest
	if err := decode(w, r, &req); err != nil {
		a.writeError(w, err)
		return
	}
	f, err := req.toFilter()
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.Tracker.SetViewFilter(f))
}

func (a *API) clearViewFilters(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.Tracker.ClearViewFilters())
}

func (a *API) setViewSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := decode(w, r, &req); err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.Tracker.SetViewSearch(clean(req.Search)))
}

func (a *API) toggleViewSort(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.Tracker.ToggleViewSort())
}

// setViewPage aceita página absoluta ou delta (+1/-1)
func (a *API) setViewPage(w http.ResponseWriter, r *http.Request) {
	var req PageRequest
	if err := decode(w, r, &req); err != nil {
		a.writeError(w, err)
		return
	}
	if req.Page != nil {
		writeJSON(w, http.StatusOK, a.Tracker.SetViewPage(*req.Page))
		return
	}
	writeJSON(w, http.StatusOK, a.Tracker.MoveViewPage(req.Delta))
}

func (a *API) setViewPageSize(w http.ResponseWriter, r *http.Request) {
	var req PageSizeRequest
	if err := decode(w, r, &req); err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.Tracker.SetViewPageSize(req.Size))
}

func (a *API) statsOverview(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.Tracker.Overview(f))
}

func (a *API) statsTipsters(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		a.writeError(w, err)
		return
	}
	st, totals := a.Tracker.TipsterStats(f)
	writeJSON(w, http.StatusOK, map[string]any{"tipsters": st, "totals": totals})
}

func (a *API) statsSports(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.Tracker.SportStats(f))
}

func (a *API) statsProfit(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.Tracker.ProfitSeries(f))
}

func (a *API) statsMonthly(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.Tracker.Monthly(f))
}

// export devolve o arquivo como anexo
func (a *API) export(w http.ResponseWriter, r *http.Request) {
	e, err := a.Tracker.Export(chi.URLParam(r, "format"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", e.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+e.FileName+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(e.Body)
}

// importData recebe o documento exportado no corpo; ?mode=merge|replace
func (a *API) importData(w http.ResponseWriter, r *http.Request) {
	mode, err := interchange.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		a.writeError(w, &ledger.ValidationError{Field: "mode", Message: err.Error()})
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		a.writeError(w, &ledger.ValidationError{Field: "body", Message: err.Error()})
		return
	}
	res, err := a.Tracker.Import(r.Context(), body, mode)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *API) reset(w http.ResponseWriter, r *http.Request) {
	if err := a.Tracker.Reset(r.Context()); err != nil {
		a.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) getTheme(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, ThemeRequest{Theme: a.Tracker.Theme()})
}

func (a *API) setTheme(w http.ResponseWriter, r *http.Request) {
	var req ThemeRequest
	if err := decode(w, r, &req); err != nil {
		a.writeError(w, err)
		return
	}
	if err := a.Tracker.SetTheme(r.Context(), req.Theme); err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}
