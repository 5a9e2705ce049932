package index

import (
	"log/slog"

	"github.com/dunghn/amlich/internal/storage"
)

// Sync brings the index up to date with the merged month files:
//   - new/changed month files are re-indexed (checksum comparison)
//   - months removed from disk are deleted from the index
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	infos, err := store.MonthFiles()
	if err != nil {
		return err
	}

	indexed, err := db.MonthChecksums()
	if err != nil {
		return err
	}

	onDisk := make(map[string]struct{}, len(infos))
	for _, info := range infos {
		onDisk[info.Key] = struct{}{}

		if indexed[info.Key] == info.Checksum {
			continue
		}

		rec, err := store.ReadMonth(info.Year, info.Month)
		if err != nil {
			logger.Warn("sync: read month failed", slog.String("month", info.Key), slog.String("error", err.Error()))
			continue
		}
		if err := db.ReplaceMonth(info.Key, info.Checksum, rec.Days); err != nil {
			logger.Warn("sync: index month failed", slog.String("month", info.Key), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed month", slog.String("month", info.Key), slog.Int("days", len(rec.Days)))
		}
	}

	// Remove stale months.
	for key := range indexed {
		if _, ok := onDisk[key]; !ok {
			if err := db.DeleteMonth(key); err != nil {
				logger.Warn("sync: delete month failed", slog.String("month", key), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale month", slog.String("month", key))
			}
		}
	}

	return nil
}
