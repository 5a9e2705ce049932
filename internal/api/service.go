package api

import (
	"fmt"
	"time"

	"github.com/dunghn/amlich/internal/index"
	"github.com/dunghn/amlich/internal/models"
	"github.com/dunghn/amlich/internal/storage"
)

// Service coordinates storage and index lookups for the API layer.
// Month payloads come from the merged files on disk; day-level and
// filtered queries go through the SQLite index.
type Service struct {
	store storage.Provider
	db    index.DayIndex
	now   func() time.Time
}

// NewService creates a new API service.
func NewService(store storage.Provider, db index.DayIndex) *Service {
	return &Service{store: store, db: db, now: time.Now}
}

// GetMonth loads one merged month.
func (s *Service) GetMonth(year, month int) (*models.MonthRecord, error) {
	return s.store.ReadMonth(year, month)
}

// CurrentMonth loads the merged month for today's date.
func (s *Service) CurrentMonth() (*models.MonthRecord, error) {
	t := s.now()
	return s.store.ReadMonth(t.Year(), int(t.Month()))
}

// GetDay returns a single merged day by solar date (YYYY-MM-DD).
func (s *Service) GetDay(date string) (*models.DayRecord, error) {
	return s.db.GetDay(date)
}

// Holidays returns the days of a month carrying a holiday.
func (s *Service) Holidays(year, month int) ([]models.DayRecord, error) {
	return s.db.Holidays(monthKey(year, month))
}

// GoodDays returns the auspicious days of a month.
func (s *Service) GoodDays(year, month int) ([]models.DayRecord, error) {
	return s.db.DaysWithVerdict(monthKey(year, month), true)
}

// BadDays returns the inauspicious days of a month.
func (s *Service) BadDays(year, month int) ([]models.DayRecord, error) {
	return s.db.DaysWithVerdict(monthKey(year, month), false)
}

// SearchLunar finds the solar days of one year matching a lunar
// day/month pair. year 0 means the current year.
func (s *Service) SearchLunar(year, lunarDay, lunarMonth int) (int, []models.DayRecord, error) {
	if year == 0 {
		year = s.now().Year()
	}
	days, err := s.db.SearchLunar(year, fmt.Sprintf("%02d/%02d", lunarDay, lunarMonth))
	return year, days, err
}

// AvailableMonths lists the merged months on disk as "YYYY-MM", sorted.
func (s *Service) AvailableMonths() ([]string, error) {
	return s.store.ListMonths()
}

// Sources returns per-source raw ingestion stats.
func (s *Service) Sources() (map[string]storage.SourceSummary, error) {
	return s.store.SourceSummaries()
}

func monthKey(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}
