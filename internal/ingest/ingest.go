// Package ingest loads persisted raw per-source records, normalizes
// them into canonical day shape, and filters them to a target month.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dunghn/amlich/internal/models"
	"github.com/dunghn/amlich/internal/normalize"
	"github.com/dunghn/amlich/internal/storage"
)

// Normalize converts one raw record into canonical day shape. The
// second return value is false when the record carries no parseable
// solar date; such records must never reach the merge step.
func Normalize(raw models.RawDayRecord) (models.DayRecord, bool) {
	solar := normalize.SolarDate(raw.SolarDate)
	if solar == "" {
		return models.DayRecord{}, false
	}

	source := raw.Source
	if source == "" {
		source = "unknown"
	}

	day := models.DayRecord{
		SolarDate: solar,
		LunarDate: normalize.LunarDate(raw.LunarDate),
		DayOfWeek: normalize.DayOfWeek(solar),
		CanChi: models.CanChi{
			Day:   normalize.CanChi(raw.CanChiDay),
			Month: normalize.CanChi(raw.CanChiMonth),
			Year:  normalize.CanChi(raw.CanChiYear),
		},
		FengShui: models.FengShui{
			GoodHours:        raw.GoodHours,
			BadHours:         raw.BadHours,
			LuckyDirection:   raw.LuckyDirection,
			UnluckyDirection: raw.UnluckyDirection,
		},
		Activities: models.Activities{
			IsGoodDay:      raw.IsGoodDay,
			GoodActivities: raw.GoodActivities,
			BadActivities:  raw.BadActivities,
		},
		Holidays: models.Holidays{
			Solar: normalize.SolarHoliday(raw.Holiday),
			Lunar: raw.LunarHoliday,
		},
		SolarTerm: raw.SolarTerm,
		Notes:     raw.Notes,
		Sources:   []string{source},
		Metadata:  models.Metadata{Source: source, CrawledAt: raw.CrawledAt},
	}

	// Fall back to free-text extraction for what the producer did not
	// deliver as structured fields.
	if day.Activities.IsGoodDay == nil {
		day.Activities.IsGoodDay = normalize.GoodDayVerdict(raw.Holiday)
	}
	if len(day.FengShui.GoodHours) == 0 {
		day.FengShui.GoodHours = normalize.GoodHours(raw.Notes)
	}
	if len(day.Activities.GoodActivities) == 0 && len(day.Activities.BadActivities) == 0 {
		day.Activities.GoodActivities, day.Activities.BadActivities = normalize.ExtractActivities(raw.Notes)
	}
	return day, true
}

// Ingestor reads raw files for sources and yields normalized,
// month-filtered day records.
type Ingestor struct {
	store  storage.Provider
	logger *slog.Logger
}

// New creates an Ingestor over the given storage provider.
func New(store storage.Provider, logger *slog.Logger) *Ingestor {
	return &Ingestor{store: store, logger: logger}
}

// LoadMonth returns every normalized record of one source whose solar
// date falls inside (year, month). All raw files of the source are
// scanned; several overlapping files are expected. Records without a
// parseable date are dropped with a warning.
func (in *Ingestor) LoadMonth(ctx context.Context, source string, year, month int) ([]models.DayRecord, error) {
	names, err := in.store.RawFiles(source)
	if err != nil {
		return nil, err
	}
	prefix := fmt.Sprintf("%04d-%02d-", year, month)

	var out []models.DayRecord
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		records, err := in.store.ReadRaw(source, name)
		if err != nil {
			in.logger.Warn("ingest: unreadable raw file",
				slog.String("source", source),
				slog.String("file", name),
				slog.String("error", err.Error()))
			continue
		}
		for _, raw := range records {
			day, ok := Normalize(raw)
			if !ok {
				in.logger.Warn("ingest: dropping record without parseable date",
					slog.String("source", source),
					slog.String("file", name),
					slog.String("date", raw.SolarDate))
				continue
			}
			if strings.HasPrefix(day.SolarDate, prefix) {
				out = append(out, day)
			}
		}
	}
	return out, nil
}
