package index

import "github.com/dunghn/amlich/internal/models"

// DayIndex defines the interface for merged-day index operations.
// Consumers should depend on this interface rather than the concrete
// *DB type to facilitate testing with mocks.
type DayIndex interface {
	ReplaceMonth(monthKey, checksum string, days []models.DayRecord) error
	DeleteMonth(monthKey string) error
	MonthChecksums() (map[string]string, error)
	GetDay(solarDate string) (*models.DayRecord, error)
	DaysWithVerdict(monthKey string, good bool) ([]models.DayRecord, error)
	Holidays(monthKey string) ([]models.DayRecord, error)
	SearchLunar(year int, lunarDate string) ([]models.DayRecord, error)
	Close() error
}

// Verify *DB satisfies DayIndex at compile time.
var _ DayIndex = (*DB)(nil)
