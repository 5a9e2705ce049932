package models

import "encoding/json"

// Producers never agreed on key names: older scraper files carry
// "date" instead of "solar_date", "lunar" instead of "lunar_date", and
// so on. Decoding tolerates every historical alias so old raw files
// stay readable; unrecognized keys are ignored.

// UnmarshalJSON decodes a raw per-day record, accepting alias key
// names. A missing source is treated as "unknown".
func (r *RawDayRecord) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}

	r.SolarDate = firstString(m, "solar_date", "date")
	r.LunarDate = firstString(m, "lunar_date", "lunar")
	r.CanChiDay = firstString(m, "can_chi_day", "can_chi")
	r.CanChiMonth = firstString(m, "can_chi_month")
	r.CanChiYear = firstString(m, "can_chi_year")
	r.GoodHours = stringList(m, "good_hours")
	r.BadHours = stringList(m, "bad_hours")
	r.LuckyDirection = firstString(m, "lucky_direction")
	r.UnluckyDirection = firstString(m, "unlucky_direction")
	r.GoodActivities = stringList(m, "good_activities")
	r.BadActivities = stringList(m, "bad_activities")
	r.Holiday = firstString(m, "holiday", "event")
	r.LunarHoliday = firstString(m, "lunar_holiday")
	r.SolarTerm = firstString(m, "solar_term")
	r.Notes = firstString(m, "notes", "description")
	r.CrawledAt = firstString(m, "crawled_at")

	r.IsGoodDay = nil
	if v, ok := m["is_good_day"].(bool); ok {
		r.IsGoodDay = &v
	}

	r.Source = firstString(m, "source")
	if r.Source == "" {
		r.Source = "unknown"
	}
	return nil
}

// firstString returns the first non-empty string value among keys.
func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// stringList coerces a JSON array value into a string slice, skipping
// non-string elements.
func stringList(m map[string]any, key string) []string {
	raw, ok := m[key].([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
