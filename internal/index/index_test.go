package index

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/dunghn/amlich/internal/apperr"
	"github.com/dunghn/amlich/internal/models"
	"github.com/dunghn/amlich/internal/storage"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func boolPtr(b bool) *bool { return &b }

func day(date string, good *bool, solarHoliday string) models.DayRecord {
	return models.DayRecord{
		SolarDate: date,
		LunarDate: "16/06/2024",
		CanChi:    models.CanChi{Day: "Bính Tuất"},
		Activities: models.Activities{
			IsGoodDay: good,
		},
		Holidays: models.Holidays{Solar: solarHoliday},
		Sources:  []string{"lichvn"},
	}
}

func TestReplaceMonthAndGetDay(t *testing.T) {
	db := testDB(t)

	days := []models.DayRecord{
		day("2024-07-15", boolPtr(true), ""),
		day("2024-07-16", boolPtr(false), "Ngày Quốc tế"),
	}
	if err := db.ReplaceMonth("2024-07", "cs1", days); err != nil {
		t.Fatalf("ReplaceMonth: %v", err)
	}

	got, err := db.GetDay("2024-07-16")
	if err != nil {
		t.Fatalf("GetDay: %v", err)
	}
	if got.SolarDate != "2024-07-16" || got.Holidays.Solar != "Ngày Quốc tế" {
		t.Fatalf("unexpected day: %+v", got)
	}
	if got.Activities.IsGoodDay == nil || *got.Activities.IsGoodDay {
		t.Fatalf("verdict not preserved: %+v", got.Activities.IsGoodDay)
	}

	if _, err := db.GetDay("2024-07-01"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReplaceMonthSwapsDays(t *testing.T) {
	db := testDB(t)

	if err := db.ReplaceMonth("2024-07", "cs1", []models.DayRecord{
		day("2024-07-15", nil, ""),
	}); err != nil {
		t.Fatalf("ReplaceMonth: %v", err)
	}
	if err := db.ReplaceMonth("2024-07", "cs2", []models.DayRecord{
		day("2024-07-16", nil, ""),
	}); err != nil {
		t.Fatalf("ReplaceMonth again: %v", err)
	}

	if _, err := db.GetDay("2024-07-15"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("old day should be gone, got %v", err)
	}
	if _, err := db.GetDay("2024-07-16"); err != nil {
		t.Fatalf("new day missing: %v", err)
	}

	cs, err := db.MonthChecksums()
	if err != nil {
		t.Fatalf("MonthChecksums: %v", err)
	}
	if cs["2024-07"] != "cs2" {
		t.Fatalf("checksum not updated: %q", cs["2024-07"])
	}
}

func TestDaysWithVerdictAndHolidays(t *testing.T) {
	db := testDB(t)

	days := []models.DayRecord{
		day("2024-07-01", boolPtr(true), ""),
		day("2024-07-02", boolPtr(false), ""),
		day("2024-07-03", boolPtr(true), "Lễ"),
		day("2024-07-04", nil, ""),
	}
	if err := db.ReplaceMonth("2024-07", "cs", days); err != nil {
		t.Fatalf("ReplaceMonth: %v", err)
	}

	good, err := db.DaysWithVerdict("2024-07", true)
	if err != nil {
		t.Fatalf("DaysWithVerdict: %v", err)
	}
	if len(good) != 2 || good[0].SolarDate != "2024-07-01" || good[1].SolarDate != "2024-07-03" {
		t.Fatalf("unexpected good days: %+v", good)
	}

	bad, err := db.DaysWithVerdict("2024-07", false)
	if err != nil {
		t.Fatalf("DaysWithVerdict: %v", err)
	}
	if len(bad) != 1 || bad[0].SolarDate != "2024-07-02" {
		t.Fatalf("unexpected bad days: %+v", bad)
	}

	hols, err := db.Holidays("2024-07")
	if err != nil {
		t.Fatalf("Holidays: %v", err)
	}
	if len(hols) != 1 || hols[0].SolarDate != "2024-07-03" {
		t.Fatalf("unexpected holidays: %+v", hols)
	}
}

func TestSearchLunar(t *testing.T) {
	db := testDB(t)

	withLunar := func(date, lunar string) models.DayRecord {
		d := day(date, nil, "")
		d.LunarDate = lunar
		return d
	}
	if err := db.ReplaceMonth("2024-06", "cs1", []models.DayRecord{
		withLunar("2024-06-20", "15/05"),
	}); err != nil {
		t.Fatalf("ReplaceMonth: %v", err)
	}
	if err := db.ReplaceMonth("2024-07", "cs2", []models.DayRecord{
		withLunar("2024-07-19", "14/06"),
		withLunar("2024-07-20", "15/06/2024"),
	}); err != nil {
		t.Fatalf("ReplaceMonth: %v", err)
	}
	if err := db.ReplaceMonth("2025-07", "cs3", []models.DayRecord{
		withLunar("2025-07-09", "15/06"),
	}); err != nil {
		t.Fatalf("ReplaceMonth: %v", err)
	}

	// Matches both the bare DD/MM form and the year-suffixed one, but
	// only within the requested year.
	got, err := db.SearchLunar(2024, "15/06")
	if err != nil {
		t.Fatalf("SearchLunar: %v", err)
	}
	if len(got) != 1 || got[0].SolarDate != "2024-07-20" {
		t.Fatalf("unexpected results: %+v", got)
	}

	got, err = db.SearchLunar(2025, "15/06")
	if err != nil {
		t.Fatalf("SearchLunar: %v", err)
	}
	if len(got) != 1 || got[0].SolarDate != "2025-07-09" {
		t.Fatalf("unexpected results: %+v", got)
	}

	got, err = db.SearchLunar(2024, "01/01")
	if err != nil {
		t.Fatalf("SearchLunar: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no matches, got %+v", got)
	}
}

func TestDeleteMonth(t *testing.T) {
	db := testDB(t)

	if err := db.ReplaceMonth("2024-07", "cs", []models.DayRecord{
		day("2024-07-15", nil, ""),
	}); err != nil {
		t.Fatalf("ReplaceMonth: %v", err)
	}
	if err := db.DeleteMonth("2024-07"); err != nil {
		t.Fatalf("DeleteMonth: %v", err)
	}

	if _, err := db.GetDay("2024-07-15"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("day should be gone, got %v", err)
	}
	cs, err := db.MonthChecksums()
	if err != nil {
		t.Fatalf("MonthChecksums: %v", err)
	}
	if len(cs) != 0 {
		t.Fatalf("month entry should be gone: %v", cs)
	}
}

func monthRecord(year, month int, days ...models.DayRecord) *models.MonthRecord {
	rec := &models.MonthRecord{Year: year, Month: month, TotalDays: 31, Days: days}
	rec.Summarize()
	return rec
}

func TestSyncIndexesAndPrunes(t *testing.T) {
	store, err := storage.NewFS(t.TempDir(), map[string]string{"lichvn": ""})
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	db := testDB(t)
	logger := discardLogger()

	if err := store.SaveMonth(monthRecord(2024, 7, day("2024-07-15", boolPtr(true), ""))); err != nil {
		t.Fatalf("SaveMonth: %v", err)
	}
	if err := store.SaveMonth(monthRecord(2024, 8, day("2024-08-01", nil, ""))); err != nil {
		t.Fatalf("SaveMonth: %v", err)
	}

	if err := Sync(db, store, logger); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if _, err := db.GetDay("2024-07-15"); err != nil {
		t.Fatalf("day not indexed: %v", err)
	}
	if _, err := db.GetDay("2024-08-01"); err != nil {
		t.Fatalf("day not indexed: %v", err)
	}

	// Change one month, remove the other.
	if err := store.SaveMonth(monthRecord(2024, 7, day("2024-07-16", nil, ""))); err != nil {
		t.Fatalf("SaveMonth update: %v", err)
	}
	if err := os.Remove(filepath.Join(store.MergedDir(), "calendar_2024_08.json")); err != nil {
		t.Fatalf("remove month file: %v", err)
	}

	if err := Sync(db, store, logger); err != nil {
		t.Fatalf("Sync again: %v", err)
	}
	if _, err := db.GetDay("2024-07-16"); err != nil {
		t.Fatalf("updated day not indexed: %v", err)
	}
	if _, err := db.GetDay("2024-08-01"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("stale day should be pruned, got %v", err)
	}
}

func TestSyncIsIdempotent(t *testing.T) {
	store, err := storage.NewFS(t.TempDir(), map[string]string{"lichvn": ""})
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	db := testDB(t)
	logger := discardLogger()

	if err := store.SaveMonth(monthRecord(2024, 7, day("2024-07-15", nil, ""))); err != nil {
		t.Fatalf("SaveMonth: %v", err)
	}
	if err := Sync(db, store, logger); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if err := Sync(db, store, logger); err != nil {
		t.Fatalf("second Sync: %v", err)
	}

	got, err := db.GetDay("2024-07-15")
	if err != nil {
		t.Fatalf("GetDay: %v", err)
	}
	if got.SolarDate != "2024-07-15" {
		t.Fatalf("unexpected day: %+v", got)
	}
}
