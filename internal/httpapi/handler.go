// Package httpapi serves the attendance workflow as a JSON API.
//
// A leader first confirms a (year, group, date) selection, which is kept in
// a signed cookie session; member listing and submission then operate on
// that selection.
package httpapi

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"

	"github.com/roach88/rollcall/internal/attendance"
	"github.com/roach88/rollcall/internal/engine"
	"github.com/roach88/rollcall/internal/selection"
	"github.com/roach88/rollcall/internal/stats"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Handler holds the dependencies of the API.
type Handler struct {
	Engine   *engine.Engine
	Reports  *stats.Reader
	Sessions sessions.Store
	Log      *slog.Logger
}

// NewHandler constructs a Handler. A nil logger means slog.Default().
func NewHandler(eng *engine.Engine, st *stats.Reader, store sessions.Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{Engine: eng, Reports: st, Sessions: store, Log: logger}
}

// SelectionView is the JSON form of a selection.
type SelectionView struct {
	Year  string `json:"year"`
	Group string `json:"group"`
	Date  string `json:"date"`
}

func viewOf(sel selection.Selection) SelectionView {
	return SelectionView{Year: sel.Year, Group: sel.Group, Date: sel.Date.Format(attendance.DateLayout)}
}

// Years handles GET /years.
func (h *Handler) Years(w http.ResponseWriter, r *http.Request) {
	years, err := h.Engine.Years(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, years)
}

// Groups handles GET /years/{year}/groups.
func (h *Handler) Groups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.Engine.Groups(r.Context(), chi.URLParam(r, "year"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, groups)
}

// Confirm handles POST /selection.
//
// Body: {"year":"2024","group":"3","date":"2024-05-04"}. An omitted date
// means the current or next attendance day.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	var body SelectionView
	if err := decode(w, r, &body); err != nil {
		h.fail(w, r, err)
		return
	}

	date := h.Engine.DefaultDate()
	if body.Date != "" {
		d, err := attendance.ParseDate(body.Date)
		if err != nil {
			h.fail(w, r, fmt.Errorf("%w: %v", selection.ErrInvalid, err))
			return
		}
		date = d
	}

	sel, err := selection.Confirm(body.Year, body.Group, date, h.Engine.AttendanceDay())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.saveSelection(w, r, sel); err != nil {
		h.fail(w, r, fmt.Errorf("save session: %w", err))
		return
	}
	h.ok(w, viewOf(sel))
}

// Selection handles GET /selection.
func (h *Handler) Selection(w http.ResponseWriter, r *http.Request) {
	sel, err := selection.Require(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, viewOf(sel))
}

// Members handles GET /members: the selected group's roster in display order.
func (h *Handler) Members(w http.ResponseWriter, r *http.Request) {
	sel, err := selection.Require(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	members, err := h.Engine.List(r.Context(), sel.Year, sel.Group)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, members)
}

// SubmissionRequest is the body of POST /submissions.
type SubmissionRequest struct {
	Entries []attendance.Entry `json:"entries"`
}

// Submit handles POST /submissions for the confirmed selection.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	sel, err := selection.Require(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var body SubmissionRequest
	if err := decode(w, r, &body); err != nil {
		h.fail(w, r, err)
		return
	}

	receipt, err := h.Engine.Submit(r.Context(), sel.Year, sel.Group, sel.Date, body.Entries)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, receipt)
}

// Stats handles GET /stats?year=&date=.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	year := r.URL.Query().Get("year")
	if year == "" {
		h.fail(w, r, &badRequest{msg: "year is required"})
		return
	}
	report, err := h.Reports.Report(r.Context(), year, r.URL.Query().Get("date"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, report)
}

// StatsDates handles GET /stats/dates?year=.
func (h *Handler) StatsDates(w http.ResponseWriter, r *http.Request) {
	year := r.URL.Query().Get("year")
	if year == "" {
		h.fail(w, r, &badRequest{msg: "year is required"})
		return
	}
	dates, err := h.Reports.Dates(r.Context(), year)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, dates)
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &badRequest{msg: fmt.Sprintf("invalid request body: %v", err)}
	}
	return nil
}
