// Package normalize converts heterogeneous raw calendar fields into
// canonical form. Every function is pure and total: unparseable input
// yields an empty-equivalent or the trimmed original, never an error.
package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// The ten heavenly stems and twelve earthly branches of the sexagenary
// cycle, in canonical Vietnamese spelling.
var (
	stems    = []string{"Giáp", "Ất", "Bính", "Đinh", "Mậu", "Kỷ", "Canh", "Tân", "Nhâm", "Quý"}
	branches = []string{"Tý", "Sửu", "Dần", "Mão", "Thìn", "Tỵ", "Ngọ", "Mùi", "Thân", "Dậu", "Tuất", "Hợi"}
)

// solarFormats is the fixed ordered list of accepted solar date layouts.
// Day-first formats take precedence over the US layout.
var solarFormats = []string{"2006-01-02", "02/01/2006", "02-01-2006", "01/02/2006"}

var numberRe = regexp.MustCompile(`\d+`)

// SolarDate normalizes a raw date string to YYYY-MM-DD. It returns ""
// when no accepted layout parses; callers must treat that as "cannot
// place this record", never as today.
func SolarDate(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	for _, layout := range solarFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return ""
}

// DayOfWeek derives the 1=Sunday … 7=Saturday index from a canonical
// solar date. Falls back to 1 on unparseable input.
func DayOfWeek(solarDate string) int {
	t, err := time.Parse("2006-01-02", solarDate)
	if err != nil {
		return 1
	}
	return int(t.Weekday()) + 1
}

// LunarDate normalizes a lunar date to DD/MM, keeping a year component
// as DD/MM/YYYY when present. Inputs with fewer than two numeric
// components come back trimmed but otherwise unmodified, so nothing is
// lost for manual review.
func LunarDate(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	nums := numberRe.FindAllString(s, 3)
	if len(nums) < 2 {
		return s
	}
	day, _ := strconv.Atoi(nums[0])
	month, _ := strconv.Atoi(nums[1])
	if len(nums) >= 3 {
		return fmt.Sprintf("%02d/%02d/%s", day, month, nums[2])
	}
	return fmt.Sprintf("%02d/%02d", day, month)
}

// CanChi normalizes a sexagenary label to "Stem Branch" capitalization.
// When a legal stem/branch pair is embedded in the input (with or
// without a separating space) the canonical pair is returned; otherwise
// the trimmed, title-cased input passes through unvalidated.
func CanChi(raw string) string {
	s := titleWords(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}
	l := strings.ToLower(s)
	for _, c := range stems {
		for _, ch := range branches {
			lc, lch := strings.ToLower(c), strings.ToLower(ch)
			if strings.Contains(l, lc+" "+lch) || strings.Contains(l, lc+lch) {
				return c + " " + ch
			}
		}
	}
	return s
}

// GoodDayVerdict reads a verdict out of a holiday/label field:
// "hoàng đạo"/"tốt" marks a good day, "hắc đạo"/"xấu" a bad one.
// nil means the field asserts nothing.
func GoodDayVerdict(label string) *bool {
	l := strings.ToLower(label)
	if l == "" {
		return nil
	}
	if strings.Contains(l, "hoàng đạo") || strings.Contains(l, "tốt") {
		v := true
		return &v
	}
	if strings.Contains(l, "hắc đạo") || strings.Contains(l, "xấu") {
		v := false
		return &v
	}
	return nil
}

// SolarHoliday returns the holiday field as a holiday name, filtering
// out pure verdict labels (ngày hoàng đạo / hắc đạo).
func SolarHoliday(holiday string) string {
	h := strings.TrimSpace(holiday)
	if h == "" {
		return ""
	}
	l := strings.ToLower(h)
	if strings.Contains(l, "hoàng đạo") || strings.Contains(l, "hắc đạo") {
		return ""
	}
	return h
}

var hourRe = regexp.MustCompile(`(\p{L}+)\s*\((\d+h-\d+h)\)`)

// GoodHours extracts auspicious hour labels like "Tý (23h-1h)" from a
// notes blob that mentions giờ hoàng đạo.
func GoodHours(notes string) []string {
	if !strings.Contains(strings.ToLower(notes), "giờ hoàng đạo") {
		return nil
	}
	var out []string
	for _, m := range hourRe.FindAllStringSubmatch(notes, -1) {
		out = append(out, fmt.Sprintf("%s (%s)", m[1], m[2]))
	}
	return out
}

var (
	goodKeywords = []string{"tốt", "nên", "thích hợp", "may mắn", "xuất hành", "khai trương"}
	badKeywords  = []string{"không nên", "tránh", "xấu", "hung", "kiêng"}
)

// ExtractActivities pulls recommended and discouraged activities out of
// free-text notes by keyword sentence matching.
func ExtractActivities(notes string) (good, bad []string) {
	if notes == "" {
		return nil, nil
	}
	lower := strings.ToLower(notes)
	sentences := strings.Split(notes, ".")

	pick := func(keyword string) string {
		for _, sentence := range sentences {
			if strings.Contains(strings.ToLower(sentence), keyword) {
				return strings.TrimSpace(sentence)
			}
		}
		return ""
	}

	for _, kw := range goodKeywords {
		if strings.Contains(lower, kw) {
			if s := pick(kw); s != "" {
				good = append(good, s)
			}
		}
	}
	for _, kw := range badKeywords {
		if strings.Contains(lower, kw) {
			if s := pick(kw); s != "" {
				bad = append(bad, s)
			}
		}
	}
	return good, bad
}

// titleWords capitalizes the first rune of each whitespace-separated
// word and lowercases the rest, collapsing runs of whitespace.
func titleWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}
