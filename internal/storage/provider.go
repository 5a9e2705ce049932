// Package storage defines the on-disk layout for calendar data: raw
// per-source ingestions, normalized per-source records, and merged
// API-ready month files. No normalization or merge logic lives here.
package storage

import (
	"time"

	"github.com/dunghn/amlich/internal/models"
)

// SourceSummary describes the raw files present for one source.
type SourceSummary struct {
	Files      int       `json:"files"`
	LatestFile string    `json:"latest_file,omitempty"`
	LatestAt   time.Time `json:"latest_at,omitzero"`
}

// Provider is the interface for calendar data layout operations.
type Provider interface {
	// Sources returns the configured source identifiers, sorted.
	Sources() []string
	// SaveRaw appends a new timestamped raw file for a source and returns
	// its name. Existing raw files are never overwritten.
	SaveRaw(source string, records []models.RawDayRecord, dateRange string) (string, error)
	// RawFiles lists the raw file names for a source, oldest first.
	RawFiles(source string) ([]string, error)
	// ReadRaw decodes one raw file of a source.
	ReadRaw(source, name string) ([]models.RawDayRecord, error)
	// SaveNormalized writes the normalized counterpart of a raw file.
	SaveNormalized(source, stem string, days []models.DayRecord) error
	// SaveMonth atomically replaces the merged month file.
	SaveMonth(rec *models.MonthRecord) error
	// ReadMonth loads a merged month, or apperr.ErrNotFound.
	ReadMonth(year, month int) (*models.MonthRecord, error)
	// ListMonths returns the merged months that exist as "YYYY-MM", sorted.
	ListMonths() ([]string, error)
	// MonthFiles returns checksummed metadata for every merged month file.
	MonthFiles() ([]MonthFileInfo, error)
	// SourceSummaries maps each configured source to its raw file stats.
	SourceSummaries() (map[string]SourceSummary, error)
	// MergedDir returns the absolute path of the merged month directory.
	MergedDir() string
}
