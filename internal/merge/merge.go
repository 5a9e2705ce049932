// Package merge resolves all per-source records sharing one solar date
// into a single canonical day record.
package merge

import (
	"log/slog"
	"sort"

	"github.com/dunghn/amlich/internal/models"
	"github.com/dunghn/amlich/internal/normalize"
)

// Score counts the populated fields of a record. The candidate with the
// highest score becomes the merge base; ties go to the earliest source
// name in sorted order so the result is reproducible.
func Score(d models.DayRecord) int {
	n := 0
	for _, s := range []string{
		d.SolarDate, d.LunarDate,
		d.CanChi.Day, d.CanChi.Month, d.CanChi.Year,
		d.FengShui.LuckyDirection, d.FengShui.UnluckyDirection,
		d.Holidays.Solar, d.Holidays.Lunar,
		d.SolarTerm, d.Notes, d.Metadata.CrawledAt,
	} {
		if s != "" {
			n++
		}
	}
	for _, l := range [][]string{
		d.FengShui.GoodHours, d.FengShui.BadHours,
		d.Activities.GoodActivities, d.Activities.BadActivities,
	} {
		if len(l) > 0 {
			n++
		}
	}
	if d.Activities.IsGoodDay != nil {
		n++
	}
	return n
}

// Day merges a non-empty set of normalized records sharing one solar
// date into one canonical record. The merge is deterministic: the
// richest candidate is taken as base, remaining candidates fill its
// empty fields in sorted source order, list fields are unioned, and the
// provenance set and crawl timestamp accumulate across contributors.
func Day(candidates []models.DayRecord, logger *slog.Logger) models.DayRecord {
	ordered := make([]models.DayRecord, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Metadata.Source != ordered[j].Metadata.Source {
			return ordered[i].Metadata.Source < ordered[j].Metadata.Source
		}
		return ordered[i].Metadata.CrawledAt < ordered[j].Metadata.CrawledAt
	})

	baseIdx := 0
	for i, c := range ordered {
		if Score(c) > Score(ordered[baseIdx]) {
			baseIdx = i
		}
	}
	base := ordered[baseIdx]
	merged := clone(base)

	for i, c := range ordered {
		if i == baseIdx {
			continue
		}
		fillString(&merged.LunarDate, c.LunarDate)
		fillString(&merged.CanChi.Day, c.CanChi.Day)
		fillString(&merged.CanChi.Month, c.CanChi.Month)
		fillString(&merged.CanChi.Year, c.CanChi.Year)
		fillString(&merged.FengShui.LuckyDirection, c.FengShui.LuckyDirection)
		fillString(&merged.FengShui.UnluckyDirection, c.FengShui.UnluckyDirection)
		fillString(&merged.Holidays.Solar, c.Holidays.Solar)
		fillString(&merged.Holidays.Lunar, c.Holidays.Lunar)
		fillString(&merged.SolarTerm, c.SolarTerm)
		fillString(&merged.Notes, c.Notes)

		merged.FengShui.GoodHours = union(merged.FengShui.GoodHours, c.FengShui.GoodHours)
		merged.FengShui.BadHours = union(merged.FengShui.BadHours, c.FengShui.BadHours)
		merged.Activities.GoodActivities = union(merged.Activities.GoodActivities, c.Activities.GoodActivities)
		merged.Activities.BadActivities = union(merged.Activities.BadActivities, c.Activities.BadActivities)

		merged.Sources = union(merged.Sources, c.Sources)
		// ISO timestamps order lexicographically; keep the most recent.
		if c.Metadata.CrawledAt > merged.Metadata.CrawledAt {
			merged.Metadata.CrawledAt = c.Metadata.CrawledAt
		}
	}

	merged.Activities.IsGoodDay = resolveVerdict(ordered, base, logger)
	merged.DayOfWeek = normalize.DayOfWeek(merged.SolarDate)
	merged.FlattenSources()
	return merged
}

// resolveVerdict applies the is_good_day policy: a unanimous assertion
// wins; when sources disagree the base record's verdict is kept and the
// disagreement is logged for auditing.
func resolveVerdict(ordered []models.DayRecord, base models.DayRecord, logger *slog.Logger) *bool {
	var anyTrue, anyFalse bool
	for _, c := range ordered {
		if c.Activities.IsGoodDay == nil {
			continue
		}
		if *c.Activities.IsGoodDay {
			anyTrue = true
		} else {
			anyFalse = true
		}
	}
	switch {
	case anyTrue && !anyFalse:
		v := true
		return &v
	case anyFalse && !anyTrue:
		v := false
		return &v
	case anyTrue && anyFalse:
		logger.Debug("merge: conflicting day verdicts",
			slog.String("solar_date", base.SolarDate),
			slog.String("base_source", base.Metadata.Source))
		if base.Activities.IsGoodDay == nil {
			return nil
		}
		v := *base.Activities.IsGoodDay
		return &v
	default:
		return nil
	}
}

func fillString(dst *string, v string) {
	if *dst == "" && v != "" {
		*dst = v
	}
}

// union appends the elements of add not already present in dst,
// preserving first-seen order and removing exact-text duplicates.
func union(dst, add []string) []string {
	seen := make(map[string]struct{}, len(dst))
	out := make([]string, 0, len(dst)+len(add))
	for _, s := range dst {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	for _, s := range add {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// clone deep-copies a record so merging never aliases candidate slices.
func clone(d models.DayRecord) models.DayRecord {
	out := d
	out.FengShui.GoodHours = union(nil, d.FengShui.GoodHours)
	out.FengShui.BadHours = union(nil, d.FengShui.BadHours)
	out.Activities.GoodActivities = union(nil, d.Activities.GoodActivities)
	out.Activities.BadActivities = union(nil, d.Activities.BadActivities)
	out.Sources = union(nil, d.Sources)
	if d.Activities.IsGoodDay != nil {
		v := *d.Activities.IsGoodDay
		out.Activities.IsGoodDay = &v
	}
	return out
}
