// Package api exposes the report pipeline as a JSON API over chi.
package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"qareport/domain/core"
	"qareport/internal/aggregate"
	"qareport/internal/chart"
	"qareport/internal/errors"
	"qareport/internal/export"
	"qareport/internal/report"
	"qareport/internal/session"
)

// ReportHandler serves report sessions as JSON
type ReportHandler struct {
	store          *session.Store
	reader         session.Ingester
	maxUploadBytes int64
	title          string
	assets         export.Assets
}

// Options configures a ReportHandler
type Options struct {
	MaxUploadBytes int64
	Title          string
	Assets         export.Assets
}

// NewReportHandler creates a handler over the session store
func NewReportHandler(store *session.Store, reader session.Ingester, o Options) *ReportHandler {
	if o.MaxUploadBytes <= 0 {
		o.MaxUploadBytes = 20 << 20
	}
	return &ReportHandler{
		store:          store,
		reader:         reader,
		maxUploadBytes: o.MaxUploadBytes,
		title:          o.Title,
		assets:         o.Assets,
	}
}

// Routes returns the chi router; mount it under /api
func (h *ReportHandler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Route("/reports", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Delete("/", h.handleDelete)
			r.Post("/aggregate", h.handleAggregate)
			r.Post("/click", h.handleClick)
			r.Put("/filter", h.handleSetFilter)
			r.Delete("/filter", h.handleClearFilter)
			r.Get("/rows", h.handleRows)
			r.Get("/export", h.handleExport)
		})
	})
	return r
}

// reportResponse describes a session and everything derived from it
type reportResponse struct {
	ID           string                  `json:"id"`
	Kind         report.Kind             `json:"kind"`
	Source       string                  `json:"source,omitempty"`
	Fingerprint  string                  `json:"fingerprint,omitempty"`
	Schema       []string                `json:"schema"`
	RowCount     int                     `json:"row_count"`
	Spec         aggregate.Spec          `json:"spec"`
	Layout       chart.Layout            `json:"layout"`
	ChartKind    chart.Kind              `json:"chart_kind"`
	Filter       *filterResponse         `json:"filter"`
	Distribution *aggregate.Distribution `json:"distribution,omitempty"`
	CrossTab     *aggregate.CrossTab     `json:"cross_tab,omitempty"`
	Chart        *chart.Dataset          `json:"chart,omitempty"`
	FilteredRows int                     `json:"filtered_rows"`
}

type filterResponse struct {
	Column string `json:"column"`
	Value  string `json:"value"`
}

type clickRequest struct {
	Series        string `json:"series"`
	Category      string `json:"category"`
	SeriesIndex   *int   `json:"series_index"`
	CategoryIndex *int   `json:"category_index"`
}

type filterRequest struct {
	Column string `json:"column"`
	Value  string `json:"value"`
}

type rowsResponse struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
	Total   int        `json:"total"`
}

func (h *ReportHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	kind := report.Kind(r.URL.Query().Get("kind"))
	if _, err := report.Lookup(kind); err != nil {
		writeError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+1<<20)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, errors.ValidationError(fmt.Sprintf("multipart field \"file\" is required: %v", err)))
		return
	}
	defer file.Close()
	if header.Size > h.maxUploadBytes {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "file exceeds the upload limit"})
		return
	}

	t, err := h.reader.Ingest(header.Filename, file)
	if err != nil {
		writeError(w, err)
		return
	}

	id, _ := h.store.Create(kind)
	state, err := h.store.Update(id, func(st session.State) (session.State, error) {
		return st.WithTable(t), nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	log.Printf("[API] created report %s from %s (%d rows)", id, header.Filename, t.Len())
	h.respond(w, http.StatusCreated, id, state)
}

func (h *ReportHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	state, err := h.store.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, id, state)
}

func (h *ReportHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	h.store.Delete(id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *ReportHandler) handleAggregate(w http.ResponseWriter, r *http.Request) {
	var req session.AggregateRequest
	if !decode(w, r, &req) {
		return
	}
	h.apply(w, r, func(st session.State) (session.State, error) {
		return st.Aggregate(req)
	})
}

func (h *ReportHandler) handleClick(w http.ResponseWriter, r *http.Request) {
	var req clickRequest
	if !decode(w, r, &req) {
		return
	}
	h.apply(w, r, func(st session.State) (session.State, error) {
		if req.SeriesIndex != nil || req.CategoryIndex != nil {
			if req.SeriesIndex == nil || req.CategoryIndex == nil {
				return st, errors.InvalidInput("series_index and category_index go together")
			}
			return st.ClickAt(chart.Click{SeriesIndex: *req.SeriesIndex, CategoryIndex: *req.CategoryIndex})
		}
		return st.Click(req.Series, req.Category)
	})
}

func (h *ReportHandler) handleSetFilter(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	if !decode(w, r, &req) {
		return
	}
	h.apply(w, r, func(st session.State) (session.State, error) {
		return st.SetFilter(req.Column, req.Value)
	})
}

func (h *ReportHandler) handleClearFilter(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, func(st session.State) (session.State, error) {
		return st.ClearFilter(), nil
	})
}

func (h *ReportHandler) handleRows(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	state, err := h.store.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := rowsResponse{Headers: []string{}, Rows: [][]string{}}
	if state.HasTable() {
		view, err := state.View()
		if err != nil {
			writeError(w, err)
			return
		}
		resp.Headers = state.Table.Schema
		resp.Rows = state.Table.DisplayRows(view.Rows)
		resp.Total = state.Table.Len()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ReportHandler) handleExport(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	state, err := h.store.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	doc, filename, err := state.Export(h.title, h.assets)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

// apply runs an intent against the session in the URL and answers with the new state
func (h *ReportHandler) apply(w http.ResponseWriter, r *http.Request, fn func(session.State) (session.State, error)) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	state, err := h.store.Update(id, fn)
	if err != nil {
		writeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, id, state)
}

func (h *ReportHandler) respond(w http.ResponseWriter, status int, id core.SessionID, state session.State) {
	resp := reportResponse{
		ID:        id.String(),
		Kind:      state.Kind,
		Schema:    []string{},
		Spec:      state.Spec,
		Layout:    state.Layout,
		ChartKind: state.ChartKind,
	}
	if state.Filter.Active() {
		resp.Filter = &filterResponse{Column: state.Filter.Column, Value: state.Filter.Value}
	}
	if state.HasTable() {
		resp.Source = state.Table.SourceName
		if fp := state.Table.Fingerprint; !fp.IsEmpty() {
			resp.Fingerprint = fp.String()
		}
		resp.Schema = state.Table.Schema
		resp.RowCount = state.Table.Len()

		view, err := state.View()
		if err != nil {
			writeError(w, err)
			return
		}
		resp.Distribution = view.Distribution
		resp.CrossTab = view.CrossTab
		resp.FilteredRows = len(view.Rows)
		if view.HasChart() {
			resp.Chart = &view.Dataset
		}
	}
	writeJSON(w, status, resp)
}

func (h *ReportHandler) sessionID(w http.ResponseWriter, r *http.Request) (core.SessionID, bool) {
	id, err := core.ParseSessionID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, errors.NotFound("report"))
		return "", false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, errors.InvalidInput("invalid JSON body: "+err.Error()))
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, err error) {
	status := errors.HTTPStatus(err)
	if status >= 500 {
		log.Printf("[API] error: %v", err)
	}
	writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"code":  errors.GetCode(err),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[API] failed to encode response: %v", err)
	}
}
