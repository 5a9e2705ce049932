package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dunghn/amlich/internal/apperr"
	"github.com/dunghn/amlich/internal/models"
)

const (
	rawDir        = "raw"
	normalizedDir = "normalized"
	mergedDir     = "merged"
)

// MonthFileInfo is lightweight metadata about one merged month file,
// used by the index to detect changes.
type MonthFileInfo struct {
	Key      string // "YYYY-MM"
	Year     int
	Month    int
	Checksum string
}

// Verify *FS satisfies Provider at compile time.
var _ Provider = (*FS)(nil)

// FS implements Provider backed by the local file system.
type FS struct {
	root    string            // absolute path to the data directory
	folders map[string]string // source id → folder key
}

// NewFS creates a new FS provider rooted at the given directory,
// creating the layout (raw per-source folders, normalized, merged) if
// needed. The sources map injects the source-id → folder-key registry;
// unknown sources fall back to a sanitized form of their id.
func NewFS(root string, sources map[string]string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	folders := make(map[string]string, len(sources))
	for id, folder := range sources {
		if folder == "" {
			folder = sanitizeKey(id)
		}
		folders[id] = folder
	}
	f := &FS{root: abs, folders: folders}

	dirs := []string{normalizedDir, mergedDir}
	for _, folder := range folders {
		dirs = append(dirs, filepath.Join(rawDir, folder))
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(abs, d), 0o755); err != nil {
			return nil, fmt.Errorf("storage: create layout: %w", err)
		}
	}
	return f, nil
}

// sanitizeKey turns a source identifier into a stable folder name:
// lowercased, non-alphanumerics replaced by underscores.
func sanitizeKey(source string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(source) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

func (f *FS) sourceKey(source string) string {
	if folder, ok := f.folders[source]; ok {
		return folder
	}
	return sanitizeKey(source)
}

// Sources returns the configured source identifiers, sorted.
func (f *FS) Sources() []string {
	out := make([]string, 0, len(f.folders))
	for id := range f.folders {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// MergedDir returns the absolute merged month directory.
func (f *FS) MergedDir() string {
	return filepath.Join(f.root, mergedDir)
}

// SaveRaw writes a new raw ingestion file for a source. File names carry
// the source key, an optional date-range label, and a generation
// timestamp; an existing file is never reused or overwritten.
func (f *FS) SaveRaw(source string, records []models.RawDayRecord, dateRange string) (string, error) {
	key := f.sourceKey(source)
	dir := filepath.Join(f.root, rawDir, key)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("storage: mkdir raw: %w", err)
	}

	stamp := time.Now().Format("20060102_150405")
	stem := key + "_raw_" + stamp
	if dateRange != "" {
		stem = key + "_" + dateRange + "_raw_" + stamp
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("storage: marshal raw: %w", err)
	}

	for i := 0; ; i++ {
		name := stem + ".json"
		if i > 0 {
			name = fmt.Sprintf("%s_%d.json", stem, i)
		}
		file, err := os.OpenFile(filepath.Join(dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if os.IsExist(err) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("storage: create raw file: %w", err)
		}
		if _, err := file.Write(data); err != nil {
			file.Close()
			return "", fmt.Errorf("storage: write raw file: %w", err)
		}
		if err := file.Close(); err != nil {
			return "", fmt.Errorf("storage: close raw file: %w", err)
		}
		return name, nil
	}
}

// RawFiles lists the raw file names of a source, oldest first.
func (f *FS) RawFiles(source string) ([]string, error) {
	dir := filepath.Join(f.root, rawDir, f.sourceKey(source))
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: list raw %s: %w", source, err)
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

// ReadRaw decodes one raw file of a source.
func (f *FS) ReadRaw(source, name string) ([]models.RawDayRecord, error) {
	if filepath.Base(name) != name {
		return nil, fmt.Errorf("storage: raw file name escapes source dir: %s", name)
	}
	path := filepath.Join(f.root, rawDir, f.sourceKey(source), name)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("storage: read raw %s/%s: %w", source, name, err)
	}
	var records []models.RawDayRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("storage: decode raw %s/%s: %w", source, name, err)
	}
	return records, nil
}

// SaveNormalized writes the normalized counterpart of a raw file,
// replacing any previous normalization of the same stem.
func (f *FS) SaveNormalized(source, stem string, days []models.DayRecord) error {
	if filepath.Base(stem) != stem {
		return fmt.Errorf("storage: normalized stem escapes dir: %s", stem)
	}
	data, err := json.MarshalIndent(days, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: marshal normalized: %w", err)
	}
	name := fmt.Sprintf("%s_%s_normalized.json", f.sourceKey(source), strings.TrimSuffix(stem, ".json"))
	return f.writeAtomic(filepath.Join(f.root, normalizedDir, name), data)
}

// monthFileName returns the merged file name for (year, month).
func monthFileName(year, month int) string {
	return fmt.Sprintf("calendar_%04d_%02d.json", year, month)
}

// SaveMonth atomically replaces the merged month file.
func (f *FS) SaveMonth(rec *models.MonthRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: marshal month: %w", err)
	}
	return f.writeAtomic(filepath.Join(f.MergedDir(), monthFileName(rec.Year, rec.Month)), data)
}

// ReadMonth loads a merged month record.
func (f *FS) ReadMonth(year, month int) (*models.MonthRecord, error) {
	data, err := os.ReadFile(filepath.Join(f.MergedDir(), monthFileName(year, month)))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("storage: month %04d-%02d: %w", year, month, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read month %04d-%02d: %w", year, month, err)
	}
	var rec models.MonthRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("storage: decode month %04d-%02d: %w", year, month, err)
	}
	return &rec, nil
}

// MonthFiles returns metadata for every merged month file on disk.
func (f *FS) MonthFiles() ([]MonthFileInfo, error) {
	entries, err := os.ReadDir(f.MergedDir())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: list merged: %w", err)
	}
	var out []MonthFileInfo
	for _, e := range entries {
		var year, month int
		if n, _ := fmt.Sscanf(e.Name(), "calendar_%d_%d.json", &year, &month); n != 2 {
			continue
		}
		data, err := os.ReadFile(filepath.Join(f.MergedDir(), e.Name()))
		if err != nil {
			continue
		}
		sum := sha256.Sum256(data)
		out = append(out, MonthFileInfo{
			Key:      fmt.Sprintf("%04d-%02d", year, month),
			Year:     year,
			Month:    month,
			Checksum: hex.EncodeToString(sum[:]),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// ListMonths returns the merged months that exist, as "YYYY-MM" sorted.
func (f *FS) ListMonths() ([]string, error) {
	infos, err := f.MonthFiles()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(infos))
	for _, info := range infos {
		out = append(out, info.Key)
	}
	return out, nil
}

// SourceSummaries maps each configured source to its raw file stats.
func (f *FS) SourceSummaries() (map[string]SourceSummary, error) {
	out := make(map[string]SourceSummary, len(f.folders))
	for _, source := range f.Sources() {
		names, err := f.RawFiles(source)
		if err != nil {
			return nil, err
		}
		s := SourceSummary{Files: len(names)}
		for _, name := range names {
			info, err := os.Stat(filepath.Join(f.root, rawDir, f.sourceKey(source), name))
			if err != nil {
				continue
			}
			if s.LatestFile == "" || info.ModTime().After(s.LatestAt) {
				s.LatestAt = info.ModTime()
				s.LatestFile = name
			}
		}
		out[source] = s
	}
	return out, nil
}

// writeAtomic writes content via tmp file → fsync → rename so readers
// never observe a half-written file.
func (f *FS) writeAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".amlich-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}
