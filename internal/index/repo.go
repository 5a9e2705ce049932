package index

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dunghn/amlich/internal/apperr"
	"github.com/dunghn/amlich/internal/models"
)

// ReplaceMonth swaps the indexed days of one month for the given set
// within a transaction and records the month file checksum.
func (db *DB) ReplaceMonth(monthKey, checksum string, days []models.DayRecord) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.Exec(`DELETE FROM days WHERE month_key = ?`, monthKey); err != nil {
		return fmt.Errorf("index: clear month: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO days (solar_date, month_key, lunar_date, can_chi_day,
			is_good_day, solar_holiday, lunar_holiday, sources, record)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("index: prepare day insert: %w", err)
	}
	defer stmt.Close()

	for _, d := range days {
		record, err := json.Marshal(d)
		if err != nil {
			return fmt.Errorf("index: marshal day %s: %w", d.SolarDate, err)
		}
		var verdict any
		if d.Activities.IsGoodDay != nil {
			verdict = *d.Activities.IsGoodDay
		}
		// Days loaded from merged files only carry the flattened
		// metadata source; the in-memory set takes precedence.
		sources := strings.Join(d.Sources, ",")
		if sources == "" {
			sources = d.Metadata.Source
		}
		_, err = stmt.Exec(d.SolarDate, monthKey, d.LunarDate, d.CanChi.Day,
			verdict, d.Holidays.Solar, d.Holidays.Lunar,
			sources, string(record))
		if err != nil {
			return fmt.Errorf("index: insert day %s: %w", d.SolarDate, err)
		}
	}

	_, err = tx.Exec(`
		INSERT INTO months (month_key, checksum) VALUES (?, ?)
		ON CONFLICT(month_key) DO UPDATE SET checksum = excluded.checksum
	`, monthKey, checksum)
	if err != nil {
		return fmt.Errorf("index: upsert month: %w", err)
	}

	return tx.Commit()
}

// DeleteMonth removes a month and its days from the index.
func (db *DB) DeleteMonth(monthKey string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, _ = tx.Exec(`DELETE FROM days WHERE month_key = ?`, monthKey)
	_, _ = tx.Exec(`DELETE FROM months WHERE month_key = ?`, monthKey)

	return tx.Commit()
}

// MonthChecksums returns the indexed checksum per month key.
func (db *DB) MonthChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT month_key, checksum FROM months`)
	if err != nil {
		return nil, fmt.Errorf("index: month checksums: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var key, cs string
		if err := rows.Scan(&key, &cs); err != nil {
			return nil, err
		}
		out[key] = cs
	}
	return out, rows.Err()
}

// GetDay returns one merged day record by solar date.
func (db *DB) GetDay(solarDate string) (*models.DayRecord, error) {
	var record string
	err := db.conn.QueryRow(`SELECT record FROM days WHERE solar_date = ?`, solarDate).Scan(&record)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("index: day %s: %w", solarDate, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: get day: %w", err)
	}
	return decodeDay(record)
}

// DaysWithVerdict returns the days of a month asserting the given
// verdict, ordered by date.
func (db *DB) DaysWithVerdict(monthKey string, good bool) ([]models.DayRecord, error) {
	rows, err := db.conn.Query(`
		SELECT record FROM days
		WHERE month_key = ? AND is_good_day = ?
		ORDER BY solar_date
	`, monthKey, good)
	if err != nil {
		return nil, fmt.Errorf("index: days with verdict: %w", err)
	}
	return collectDays(rows)
}

// SearchLunar returns the days of one year whose lunar date matches
// the given DD/MM form, ordered by solar date. Canonical lunar dates
// may carry a year suffix, so DD/MM/YYYY values match as well.
func (db *DB) SearchLunar(year int, lunarDate string) ([]models.DayRecord, error) {
	rows, err := db.conn.Query(`
		SELECT record FROM days
		WHERE month_key LIKE ? AND (lunar_date = ? OR lunar_date LIKE ?)
		ORDER BY solar_date
	`, fmt.Sprintf("%04d-%%", year), lunarDate, lunarDate+"/%")
	if err != nil {
		return nil, fmt.Errorf("index: search lunar: %w", err)
	}
	return collectDays(rows)
}

// Holidays returns the days of a month carrying any holiday, ordered
// by date.
func (db *DB) Holidays(monthKey string) ([]models.DayRecord, error) {
	rows, err := db.conn.Query(`
		SELECT record FROM days
		WHERE month_key = ? AND (solar_holiday != '' OR lunar_holiday != '')
		ORDER BY solar_date
	`, monthKey)
	if err != nil {
		return nil, fmt.Errorf("index: holidays: %w", err)
	}
	return collectDays(rows)
}

func collectDays(rows *sql.Rows) ([]models.DayRecord, error) {
	defer rows.Close()
	var out []models.DayRecord
	for rows.Next() {
		var record string
		if err := rows.Scan(&record); err != nil {
			return nil, err
		}
		d, err := decodeDay(record)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func decodeDay(record string) (*models.DayRecord, error) {
	var d models.DayRecord
	if err := json.Unmarshal([]byte(record), &d); err != nil {
		return nil, fmt.Errorf("index: decode day: %w", err)
	}
	return &d, nil
}
