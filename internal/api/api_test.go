package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dunghn/amlich/internal/index"
	"github.com/dunghn/amlich/internal/models"
	"github.com/dunghn/amlich/internal/storage"
	"github.com/dunghn/amlich/internal/testutil"
)

// testEnv sets up a temp data dir, SQLite index, service, and router.
// authToken="" means disabled mode; non-empty means token mode.
func testEnv(t *testing.T, authToken string) (*Service, storage.Provider, *index.DB, http.Handler) {
	t.Helper()

	store := testutil.TestStore(t, "lichvn", "tuvi")
	db := testutil.TestDB(t)

	svc := NewService(store, db)
	router := NewRouter(svc, authToken != "", authToken)
	return svc, store, db, router
}

func seedMonth(t *testing.T, store storage.Provider, db *index.DB) {
	t.Helper()

	good := true
	bad := false
	days := []models.DayRecord{
		{
			SolarDate:  "2024-07-15",
			LunarDate:  "10/06/2024",
			DayOfWeek:  2,
			CanChi:     models.CanChi{Day: "Ất Dậu"},
			Activities: models.Activities{IsGoodDay: &good},
			Sources:    []string{"lichvn"},
		},
		{
			SolarDate:  "2024-07-16",
			LunarDate:  "11/06/2024",
			DayOfWeek:  3,
			CanChi:     models.CanChi{Day: "Bính Tuất"},
			Activities: models.Activities{IsGoodDay: &bad},
			Holidays:   models.Holidays{Solar: "Ngày lễ thử nghiệm"},
			Sources:    []string{"lichvn", "tuvi"},
		},
	}
	rec := &models.MonthRecord{Year: 2024, Month: 7, TotalDays: 31, Days: days}
	rec.Summarize()
	if err := store.SaveMonth(rec); err != nil {
		t.Fatalf("SaveMonth: %v", err)
	}
	if err := index.Sync(db, store, testutil.DiscardLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
}

func get(t *testing.T, router http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGetMonth(t *testing.T) {
	_, store, db, router := testEnv(t, "")
	seedMonth(t, store, db)

	w := get(t, router, "/calendar/2024/7")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var rec models.MonthRecord
	if err := json.Unmarshal(w.Body.Bytes(), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.Year != 2024 || rec.Month != 7 || len(rec.Days) != 2 {
		t.Fatalf("unexpected month: year=%d month=%d days=%d", rec.Year, rec.Month, len(rec.Days))
	}
	if rec.Summary.GoodDays != 1 || rec.Summary.Holidays != 1 {
		t.Errorf("summary = %+v", rec.Summary)
	}
}

func TestGetMonthMissing(t *testing.T) {
	_, _, _, router := testEnv(t, "")

	w := get(t, router, "/calendar/2024/7")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestGetMonthValidation(t *testing.T) {
	_, _, _, router := testEnv(t, "")

	for _, path := range []string{
		"/calendar/2019/7",
		"/calendar/2031/7",
		"/calendar/2024/0",
		"/calendar/2024/13",
		"/calendar/abc/7",
	} {
		if w := get(t, router, path); w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", path, w.Code)
		}
	}
}

func TestGetDay(t *testing.T) {
	_, store, db, router := testEnv(t, "")
	seedMonth(t, store, db)

	w := get(t, router, "/days/2024-07-16")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var day models.DayRecord
	if err := json.Unmarshal(w.Body.Bytes(), &day); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if day.CanChi.Day != "Bính Tuất" || day.Holidays.Solar == "" {
		t.Fatalf("unexpected day: %+v", day)
	}

	if w := get(t, router, "/days/2024-07-01"); w.Code != http.StatusNotFound {
		t.Errorf("missing day status = %d, want 404", w.Code)
	}
	if w := get(t, router, "/days/16-07-2024"); w.Code != http.StatusBadRequest {
		t.Errorf("bad date status = %d, want 400", w.Code)
	}
}

func TestHolidaysAndGoodDays(t *testing.T) {
	_, store, db, router := testEnv(t, "")
	seedMonth(t, store, db)

	w := get(t, router, "/holidays/2024/7")
	if w.Code != http.StatusOK {
		t.Fatalf("holidays status = %d", w.Code)
	}
	var hol DayListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &hol); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if hol.Total != 1 || hol.Days[0].SolarDate != "2024-07-16" {
		t.Fatalf("unexpected holidays: %+v", hol)
	}

	w = get(t, router, "/good-days/2024/7")
	if w.Code != http.StatusOK {
		t.Fatalf("good days status = %d", w.Code)
	}
	var good DayListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &good); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if good.Total != 1 || good.Days[0].SolarDate != "2024-07-15" {
		t.Fatalf("unexpected good days: %+v", good)
	}

	// Empty month still returns a well-formed list.
	w = get(t, router, "/good-days/2024/8")
	if w.Code != http.StatusOK {
		t.Fatalf("empty month status = %d", w.Code)
	}
	var empty DayListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &empty); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if empty.Total != 0 || empty.Days == nil {
		t.Fatalf("unexpected empty list: %+v", empty)
	}
}

func TestBadDays(t *testing.T) {
	_, store, db, router := testEnv(t, "")
	seedMonth(t, store, db)

	// Both verdict listings are routed, not just the auspicious one.
	if w := get(t, router, "/good-days/2024/7"); w.Code != http.StatusOK {
		t.Fatalf("good days status = %d", w.Code)
	}
	w := get(t, router, "/bad-days/2024/7")
	if w.Code != http.StatusOK {
		t.Fatalf("bad days status = %d, body = %s", w.Code, w.Body.String())
	}
	var bad DayListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &bad); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if bad.Total != 1 || bad.Days[0].SolarDate != "2024-07-16" {
		t.Fatalf("unexpected bad days: %+v", bad)
	}

	if w := get(t, router, "/bad-days/2024/13"); w.Code != http.StatusBadRequest {
		t.Errorf("invalid month status = %d, want 400", w.Code)
	}
}

func TestSearchByLunarDate(t *testing.T) {
	_, store, db, router := testEnv(t, "")
	seedMonth(t, store, db)

	w := get(t, router, "/search?lunar_day=11&lunar_month=6&year=2024")
	if w.Code != http.StatusOK {
		t.Fatalf("search status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp SearchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Year != 2024 || resp.LunarDate != "11/06" {
		t.Fatalf("unexpected query echo: %+v", resp)
	}
	if resp.Total != 1 || resp.Days[0].SolarDate != "2024-07-16" {
		t.Fatalf("unexpected results: %+v", resp)
	}

	// No match still returns a well-formed empty list.
	w = get(t, router, "/search?lunar_day=1&lunar_month=1&year=2024")
	if w.Code != http.StatusOK {
		t.Fatalf("empty search status = %d", w.Code)
	}
	var empty SearchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &empty); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if empty.Total != 0 || empty.Days == nil {
		t.Fatalf("unexpected empty search: %+v", empty)
	}

	for _, path := range []string{
		"/search",
		"/search?lunar_day=0&lunar_month=6",
		"/search?lunar_day=31&lunar_month=6",
		"/search?lunar_day=11&lunar_month=13",
		"/search?lunar_day=11&lunar_month=6&year=1999",
	} {
		if w := get(t, router, path); w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", path, w.Code)
		}
	}
}

func TestAvailableMonths(t *testing.T) {
	_, store, db, router := testEnv(t, "")
	seedMonth(t, store, db)

	w := get(t, router, "/available-months")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp MonthListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Months) != 1 || resp.Months[0] != "2024-07" {
		t.Fatalf("months = %v", resp.Months)
	}
}

func TestSources(t *testing.T) {
	_, _, _, router := testEnv(t, "")

	w := get(t, router, "/sources")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp SourcesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Sources) != 2 {
		t.Fatalf("sources = %v", resp.Sources)
	}
}

func TestAuthModes(t *testing.T) {
	_, store, db, router := testEnv(t, "secret")
	seedMonth(t, store, db)

	// Missing token.
	if w := get(t, router, "/available-months"); w.Code != http.StatusUnauthorized {
		t.Errorf("no token status = %d, want 401", w.Code)
	}

	// Wrong token.
	req := httptest.NewRequest(http.MethodGet, "/available-months", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token status = %d, want 401", w.Code)
	}

	// Valid token.
	req = httptest.NewRequest(http.MethodGet, "/available-months", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("valid token status = %d, want 200", w.Code)
	}
}
