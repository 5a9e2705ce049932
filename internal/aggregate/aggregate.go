// Package aggregate orchestrates the pipeline for a whole month:
// ingest every source, merge per day, assemble and persist the
// canonical month record.
package aggregate

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dunghn/amlich/internal/apperr"
	"github.com/dunghn/amlich/internal/ingest"
	"github.com/dunghn/amlich/internal/merge"
	"github.com/dunghn/amlich/internal/models"
	"github.com/dunghn/amlich/internal/storage"
)

// Aggregator builds canonical month records from persisted raw data.
type Aggregator struct {
	store  storage.Provider
	in     *ingest.Ingestor
	logger *slog.Logger
}

// New creates an Aggregator over the given storage provider.
func New(store storage.Provider, logger *slog.Logger) *Aggregator {
	return &Aggregator{store: store, in: ingest.New(store, logger), logger: logger}
}

// BuildMonth ingests every configured source for (year, month),
// merges records per solar date, and persists the assembled month,
// fully replacing any prior version. Sources are ingested concurrently;
// merging only starts once the snapshot is complete. Returns
// apperr.ErrNoData when no source has any record for the month.
func (a *Aggregator) BuildMonth(ctx context.Context, year, month int) (*models.MonthRecord, error) {
	sources := a.store.Sources()
	perSource := make([][]models.DayRecord, len(sources))

	g, gCtx := errgroup.WithContext(ctx)
	for i, source := range sources {
		g.Go(func() error {
			days, err := a.in.LoadMonth(gCtx, source, year, month)
			if err != nil {
				return err
			}
			perSource[i] = days
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("aggregate: ingest %04d-%02d: %w", year, month, err)
	}

	groups := make(map[string][]models.DayRecord)
	for _, days := range perSource {
		for _, d := range days {
			groups[d.SolarDate] = append(groups[d.SolarDate], d)
		}
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("aggregate: %04d-%02d: %w", year, month, apperr.ErrNoData)
	}

	dates := make([]string, 0, len(groups))
	for date := range groups {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	days := make([]models.DayRecord, 0, len(dates))
	for _, date := range dates {
		days = append(days, merge.Day(groups[date], a.logger))
	}

	rec := &models.MonthRecord{
		Year:      year,
		Month:     month,
		TotalDays: daysIn(year, month),
		Days:      days,
	}
	rec.Summarize()

	if err := a.store.SaveMonth(rec); err != nil {
		return nil, fmt.Errorf("aggregate: persist %04d-%02d: %w", year, month, err)
	}
	a.logger.Info("aggregate: month built",
		slog.Int("year", year),
		slog.Int("month", month),
		slog.Int("days_with_data", len(rec.Days)),
		slog.Int("total_days", rec.TotalDays),
		slog.Int("sources", len(rec.Summary.Sources)))
	return rec, nil
}

// NormalizeSource re-normalizes every raw file of one source into the
// normalized directory and returns the record count. Records without a
// parseable date are dropped with a warning.
func (a *Aggregator) NormalizeSource(ctx context.Context, source string) (int, error) {
	names, err := a.store.RawFiles(source)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		records, err := a.store.ReadRaw(source, name)
		if err != nil {
			a.logger.Warn("aggregate: unreadable raw file",
				slog.String("source", source),
				slog.String("file", name),
				slog.String("error", err.Error()))
			continue
		}
		var days []models.DayRecord
		for _, raw := range records {
			day, ok := ingest.Normalize(raw)
			if !ok {
				a.logger.Warn("aggregate: dropping record without parseable date",
					slog.String("source", source),
					slog.String("file", name))
				continue
			}
			days = append(days, day)
		}
		if len(days) == 0 {
			continue
		}
		stem := strings.TrimSuffix(name, ".json")
		if err := a.store.SaveNormalized(source, stem, days); err != nil {
			return total, err
		}
		total += len(days)
	}
	return total, nil
}

// daysIn returns the true calendar day count of (year, month), so gaps
// in source coverage stay detectable downstream.
func daysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
