package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dunghn/amlich/internal/apperr"
	"github.com/dunghn/amlich/internal/models"
)

const (
	minYear = 2020
	maxYear = 2030
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Handler holds API route handlers.
type Handler struct {
	svc *Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// yearMonth parses and validates the {year}/{month} URL params.
func yearMonth(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year < minYear || year > maxYear {
		writeJSON(w, http.StatusBadRequest, errorBody("year must be between 2020 and 2030"))
		return 0, 0, false
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil || month < 1 || month > 12 {
		writeJSON(w, http.StatusBadRequest, errorBody("month must be between 1 and 12"))
		return 0, 0, false
	}
	return year, month, true
}

// GetMonth handles GET /api/calendar/{year}/{month}.
//
//	@Summary		Get the merged calendar for one month
//	@Tags			calendar
//	@Produce		json
//	@Param			year	path		int	true	"Year (2020-2030)"
//	@Param			month	path		int	true	"Month (1-12)"
//	@Success		200		{object}	MonthResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/calendar/{year}/{month} [get]
func (h *Handler) GetMonth(w http.ResponseWriter, r *http.Request) {
	year, month, ok := yearMonth(w, r)
	if !ok {
		return
	}
	rec, err := h.svc.GetMonth(year, month)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("no data for month"))
		} else {
			slog.Error("get month failed", slog.Int("year", year), slog.Int("month", month), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// CurrentMonth handles GET /api/calendar/current.
//
//	@Summary		Get the merged calendar for the current month
//	@Tags			calendar
//	@Produce		json
//	@Success		200	{object}	MonthResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/calendar/current [get]
func (h *Handler) CurrentMonth(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.CurrentMonth()
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("no data for current month"))
		} else {
			slog.Error("current month failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// GetDay handles GET /api/days/{date}.
//
//	@Summary		Get a single merged day by solar date
//	@Tags			calendar
//	@Produce		json
//	@Param			date	path		string	true	"Solar date (YYYY-MM-DD)"
//	@Success		200		{object}	DayResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/days/{date} [get]
func (h *Handler) GetDay(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if !datePattern.MatchString(date) {
		writeJSON(w, http.StatusBadRequest, errorBody("date must be YYYY-MM-DD"))
		return
	}
	day, err := h.svc.GetDay(date)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get day failed", slog.String("date", date), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, day)
}

// Holidays handles GET /api/holidays/{year}/{month}.
//
//	@Summary		List the holidays of one month
//	@Tags			calendar
//	@Produce		json
//	@Param			year	path		int	true	"Year (2020-2030)"
//	@Param			month	path		int	true	"Month (1-12)"
//	@Success		200		{object}	DayListResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/holidays/{year}/{month} [get]
func (h *Handler) Holidays(w http.ResponseWriter, r *http.Request) {
	year, month, ok := yearMonth(w, r)
	if !ok {
		return
	}
	days, err := h.svc.Holidays(year, month)
	if err != nil {
		slog.Error("holidays failed", slog.Int("year", year), slog.Int("month", month), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeDayList(w, year, month, days)
}

// GoodDays handles GET /api/good-days/{year}/{month}.
//
//	@Summary		List the auspicious days of one month
//	@Tags			calendar
//	@Produce		json
//	@Param			year	path		int	true	"Year (2020-2030)"
//	@Param			month	path		int	true	"Month (1-12)"
//	@Success		200		{object}	DayListResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/good-days/{year}/{month} [get]
func (h *Handler) GoodDays(w http.ResponseWriter, r *http.Request) {
	year, month, ok := yearMonth(w, r)
	if !ok {
		return
	}
	days, err := h.svc.GoodDays(year, month)
	if err != nil {
		slog.Error("good days failed", slog.Int("year", year), slog.Int("month", month), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeDayList(w, year, month, days)
}

// BadDays handles GET /api/bad-days/{year}/{month}.
//
//	@Summary		List the inauspicious days of one month
//	@Tags			calendar
//	@Produce		json
//	@Param			year	path		int	true	"Year (2020-2030)"
//	@Param			month	path		int	true	"Month (1-12)"
//	@Success		200		{object}	DayListResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/bad-days/{year}/{month} [get]
func (h *Handler) BadDays(w http.ResponseWriter, r *http.Request) {
	year, month, ok := yearMonth(w, r)
	if !ok {
		return
	}
	days, err := h.svc.BadDays(year, month)
	if err != nil {
		slog.Error("bad days failed", slog.Int("year", year), slog.Int("month", month), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeDayList(w, year, month, days)
}

// Search handles GET /api/search.
//
//	@Summary		Find solar dates by lunar day and month
//	@Tags			calendar
//	@Produce		json
//	@Param			lunar_day	query		int	true	"Lunar day (1-30)"
//	@Param			lunar_month	query		int	true	"Lunar month (1-12)"
//	@Param			year		query		int	false	"Year to search in (defaults to current)"
//	@Success		200			{object}	SearchResponse
//	@Failure		400			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lunarDay, err := strconv.Atoi(q.Get("lunar_day"))
	if err != nil || lunarDay < 1 || lunarDay > 30 {
		writeJSON(w, http.StatusBadRequest, errorBody("lunar_day must be between 1 and 30"))
		return
	}
	lunarMonth, err := strconv.Atoi(q.Get("lunar_month"))
	if err != nil || lunarMonth < 1 || lunarMonth > 12 {
		writeJSON(w, http.StatusBadRequest, errorBody("lunar_month must be between 1 and 12"))
		return
	}
	year := 0
	if raw := q.Get("year"); raw != "" {
		year, err = strconv.Atoi(raw)
		if err != nil || year < minYear || year > maxYear {
			writeJSON(w, http.StatusBadRequest, errorBody("year must be between 2020 and 2030"))
			return
		}
	}

	year, days, err := h.svc.SearchLunar(year, lunarDay, lunarMonth)
	if err != nil {
		slog.Error("lunar search failed",
			slog.Int("lunar_day", lunarDay), slog.Int("lunar_month", lunarMonth),
			slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if days == nil {
		days = []models.DayRecord{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{
		Year:      year,
		LunarDate: fmt.Sprintf("%02d/%02d", lunarDay, lunarMonth),
		Total:     len(days),
		Days:      days,
	})
}

func writeDayList(w http.ResponseWriter, year, month int, days []models.DayRecord) {
	if days == nil {
		days = []models.DayRecord{}
	}
	writeJSON(w, http.StatusOK, DayListResponse{
		Year:  year,
		Month: month,
		Total: len(days),
		Days:  days,
	})
}

// AvailableMonths handles GET /api/available-months.
//
//	@Summary		List the months that have merged data
//	@Tags			calendar
//	@Produce		json
//	@Success		200	{object}	MonthListResponse
//	@Security		BearerAuth
//	@Router			/available-months [get]
func (h *Handler) AvailableMonths(w http.ResponseWriter, r *http.Request) {
	months, err := h.svc.AvailableMonths()
	if err != nil {
		slog.Error("available months failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if months == nil {
		months = []string{}
	}
	writeJSON(w, http.StatusOK, MonthListResponse{Months: months})
}

// Sources handles GET /api/sources.
//
//	@Summary		Show per-source raw ingestion stats
//	@Tags			sources
//	@Produce		json
//	@Success		200	{object}	SourcesResponse
//	@Security		BearerAuth
//	@Router			/sources [get]
func (h *Handler) Sources(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.svc.Sources()
	if err != nil {
		slog.Error("sources failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, SourcesResponse{Sources: summaries})
}
