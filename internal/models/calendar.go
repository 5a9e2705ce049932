// Package models defines the canonical calendar domain types.
package models

import (
	"encoding/json"
	"sort"
	"strings"
)

// DayRecord is the canonical merged representation of one calendar day,
// keyed by solar date (YYYY-MM-DD). It serializes in the nested shape
// consumed by the mobile client.
type DayRecord struct {
	SolarDate  string     `json:"solar_date"`
	LunarDate  string     `json:"lunar_date"`
	DayOfWeek  int        `json:"day_of_week"` // 1 = Sunday … 7 = Saturday
	CanChi     CanChi     `json:"can_chi"`
	FengShui   FengShui   `json:"feng_shui"`
	Activities Activities `json:"activities"`
	Holidays   Holidays   `json:"holidays"`
	SolarTerm  string     `json:"solar_term,omitempty"`
	Notes      string     `json:"notes,omitempty"`
	Metadata   Metadata   `json:"metadata"`

	// Sources is the full provenance set. Clients only see the flattened
	// Metadata.Source string; the set feeds the month summary.
	Sources []string `json:"-"`
}

// CanChi holds the sexagenary labels for day, month and year.
type CanChi struct {
	Day   string `json:"day,omitempty"`
	Month string `json:"month,omitempty"`
	Year  string `json:"year,omitempty"`
}

// FengShui holds hour favorability and direction annotations.
type FengShui struct {
	GoodHours        []string `json:"good_hours"`
	BadHours         []string `json:"bad_hours"`
	LuckyDirection   string   `json:"lucky_direction,omitempty"`
	UnluckyDirection string   `json:"unlucky_direction,omitempty"`
}

// Activities holds the day verdict and recommended/discouraged activities.
// IsGoodDay is tri-state: nil means no source asserted a verdict.
type Activities struct {
	IsGoodDay      *bool    `json:"is_good_day"`
	GoodActivities []string `json:"good_activities"`
	BadActivities  []string `json:"bad_activities"`
}

// MarshalJSON emits empty arrays rather than null for absent hour
// lists; mobile consumers iterate them without a nil check.
func (f FengShui) MarshalJSON() ([]byte, error) {
	type alias FengShui
	a := alias(f)
	if a.GoodHours == nil {
		a.GoodHours = []string{}
	}
	if a.BadHours == nil {
		a.BadHours = []string{}
	}
	return json.Marshal(a)
}

// MarshalJSON emits empty arrays rather than null for absent activity
// lists.
func (a Activities) MarshalJSON() ([]byte, error) {
	type alias Activities
	out := alias(a)
	if out.GoodActivities == nil {
		out.GoodActivities = []string{}
	}
	if out.BadActivities == nil {
		out.BadActivities = []string{}
	}
	return json.Marshal(out)
}

// Holidays holds solar- and lunar-calendar holiday names.
type Holidays struct {
	Solar string `json:"solar,omitempty"`
	Lunar string `json:"lunar,omitempty"`
}

// Metadata carries provenance for a merged record.
type Metadata struct {
	Source    string `json:"source"`
	CrawledAt string `json:"crawled_at,omitempty"`
}

// FlattenSources sorts the provenance set and writes its comma-joined
// form into Metadata.Source.
func (d *DayRecord) FlattenSources() {
	sort.Strings(d.Sources)
	d.Metadata.Source = strings.Join(d.Sources, ",")
}

// HasHoliday reports whether the day carries any holiday annotation.
func (d *DayRecord) HasHoliday() bool {
	return d.Holidays.Solar != "" || d.Holidays.Lunar != ""
}

// MonthRecord is the canonical aggregated month served to the API layer.
// Days are sorted ascending by solar date and unique per date.
type MonthRecord struct {
	Year      int         `json:"year"`
	Month     int         `json:"month"`
	TotalDays int         `json:"total_days"`
	Days      []DayRecord `json:"days"`
	Summary   Summary     `json:"summary"`
}

// Summary aggregates verdict and holiday counts over a month.
type Summary struct {
	GoodDays int      `json:"good_days"`
	BadDays  int      `json:"bad_days"`
	Holidays int      `json:"holidays"`
	Sources  []string `json:"sources"`
}

// Summarize recomputes the month summary from its days.
func (m *MonthRecord) Summarize() {
	s := Summary{Sources: []string{}}
	seen := make(map[string]struct{})
	for _, d := range m.Days {
		if d.Activities.IsGoodDay != nil {
			if *d.Activities.IsGoodDay {
				s.GoodDays++
			} else {
				s.BadDays++
			}
		}
		if d.HasHoliday() {
			s.Holidays++
		}
		for _, src := range d.Sources {
			if _, ok := seen[src]; !ok {
				seen[src] = struct{}{}
				s.Sources = append(s.Sources, src)
			}
		}
	}
	sort.Strings(s.Sources)
	m.Summary = s
}

// RawDayRecord is the agreed producer shape: one unmerged, per-source
// day as written by a scraper, before normalization. Adapters map each
// producer's native keys onto this struct.
type RawDayRecord struct {
	SolarDate        string   `json:"solar_date"`
	LunarDate        string   `json:"lunar_date,omitempty"`
	CanChiDay        string   `json:"can_chi_day,omitempty"`
	CanChiMonth      string   `json:"can_chi_month,omitempty"`
	CanChiYear       string   `json:"can_chi_year,omitempty"`
	GoodHours        []string `json:"good_hours,omitempty"`
	BadHours         []string `json:"bad_hours,omitempty"`
	LuckyDirection   string   `json:"lucky_direction,omitempty"`
	UnluckyDirection string   `json:"unlucky_direction,omitempty"`
	GoodActivities   []string `json:"good_activities,omitempty"`
	BadActivities    []string `json:"bad_activities,omitempty"`
	IsGoodDay        *bool    `json:"is_good_day,omitempty"`
	Holiday          string   `json:"holiday,omitempty"`
	LunarHoliday     string   `json:"lunar_holiday,omitempty"`
	SolarTerm        string   `json:"solar_term,omitempty"`
	Notes            string   `json:"notes,omitempty"`
	Source           string   `json:"source"`
	CrawledAt        string   `json:"crawled_at,omitempty"`
}
