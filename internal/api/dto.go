package api

import (
	"github.com/dunghn/amlich/internal/models"
	"github.com/dunghn/amlich/internal/storage"
)

// MonthResponse is the full month payload (aliased from the domain layer).
type MonthResponse = models.MonthRecord

// DayResponse is the single day payload (aliased from the domain layer).
type DayResponse = models.DayRecord

// DayListResponse wraps filtered day listings (holidays, good days).
type DayListResponse struct {
	Year  int                `json:"year" example:"2024" validate:"required"`
	Month int                `json:"month" example:"7" validate:"required"`
	Total int                `json:"total" example:"3" validate:"required"`
	Days  []models.DayRecord `json:"days" validate:"required"`
}

// SearchResponse wraps lunar-date search results.
type SearchResponse struct {
	Year      int                `json:"year" example:"2024" validate:"required"`
	LunarDate string             `json:"lunar_date" example:"15/06" validate:"required"`
	Total     int                `json:"total" example:"1" validate:"required"`
	Days      []models.DayRecord `json:"days" validate:"required"`
}

// MonthListResponse wraps the available-months listing.
type MonthListResponse struct {
	Months []string `json:"months" example:"2024-06,2024-07" validate:"required"`
}

// SourcesResponse maps each configured source to its raw file stats.
type SourcesResponse struct {
	Sources map[string]storage.SourceSummary `json:"sources" validate:"required"`
}
