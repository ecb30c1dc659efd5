package handlers

import (
	"net/url"
	"testing"
	"time"
)

// A Wednesday. The surrounding weekend is Sep 5-6, the next one Sep 12-13.
var wednesday = time.Date(2026, 9, 2, 15, 30, 0, 0, time.UTC)

func TestNormalizeEventFilters(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		f := normalizeEventFilters(url.Values{}, wednesday)

		if f.status != "public" {
			t.Errorf("status = %q, want public", f.status)
		}
		if f.country != "ES" {
			t.Errorf("country = %q, want ES", f.country)
		}
		if f.countyState != "all" || f.category != "all" {
			t.Errorf("countyState = %q, category = %q, want all/all", f.countyState, f.category)
		}
		if f.page != 1 || f.perPage != 50 {
			t.Errorf("page = %d perPage = %d, want 1/50", f.page, f.perPage)
		}
		if f.hasDistance {
			t.Error("hasDistance = true without a distance param")
		}
		if f.organizerID != 0 {
			t.Errorf("organizerID = %d, want 0", f.organizerID)
		}
	})

	t.Run("pagination clamps", func(t *testing.T) {
		cases := []struct {
			page, perPage         string
			wantPage, wantPerPage int
		}{
			{"0", "1", 1, 5},
			{"-3", "4", 1, 5},
			{"99", "500", 10, 100},
			{"abc", "xyz", 1, 50},
			{"7", "25", 7, 25},
		}
		for _, tc := range cases {
			f := normalizeEventFilters(url.Values{"page": {tc.page}, "perPage": {tc.perPage}}, wednesday)
			if f.page != tc.wantPage || f.perPage != tc.wantPerPage {
				t.Errorf("page=%q perPage=%q: got %d/%d, want %d/%d",
					tc.page, tc.perPage, f.page, f.perPage, tc.wantPage, tc.wantPerPage)
			}
		}
	})

	t.Run("category tag decomposition", func(t *testing.T) {
		f := normalizeEventFilters(url.Values{"category": {"running_trail"}}, wednesday)
		if f.category != "running" || f.categoryTag != "trail" {
			t.Errorf("got %q/%q, want running/trail", f.category, f.categoryTag)
		}

		f = normalizeEventFilters(url.Values{"category": {"cycling"}}, wednesday)
		if f.category != "cycling" || f.categoryTag != "" {
			t.Errorf("got %q/%q, want cycling with no tag", f.category, f.categoryTag)
		}
	})

	t.Run("organizer", func(t *testing.T) {
		f := normalizeEventFilters(url.Values{"organizer": {"42"}}, wednesday)
		if f.organizerID != 42 {
			t.Errorf("organizerID = %d, want 42", f.organizerID)
		}
		for _, raw := range []string{"all", "0", "-1", "junk", ""} {
			f := normalizeEventFilters(url.Values{"organizer": {raw}}, wednesday)
			if f.organizerID != 0 {
				t.Errorf("organizer=%q: organizerID = %d, want 0", raw, f.organizerID)
			}
		}
	})

	t.Run("featured", func(t *testing.T) {
		f := normalizeEventFilters(url.Values{"featured": {"1"}}, wednesday)
		if !f.featured {
			t.Error("featured=1 not recognized")
		}
		f = normalizeEventFilters(url.Values{"featured": {"true"}}, wednesday)
		if f.featured {
			t.Error("featured should only accept the literal 1")
		}
	})
}

func TestParseDistance(t *testing.T) {
	cases := []struct {
		in       string
		min, max float64
	}{
		{"10,42", 10, 42},
		{"21", 21, 9999},
		{"21,", 21, 9999},
		{",50", 0, 50},
		{"junk,more", 0, 9999},
		{"0,0", 0, 9999},
		{" 5 , 10 ", 5, 10},
		{"-3,10", 0, 10},
	}
	for _, tc := range cases {
		min, max := parseDistance(tc.in)
		if min != tc.min || max != tc.max {
			t.Errorf("parseDistance(%q) = %g,%g, want %g,%g", tc.in, min, max, tc.min, tc.max)
		}
	}
}

func TestDateWindow(t *testing.T) {
	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	t.Run("default grace window", func(t *testing.T) {
		from, to := dateWindow("all", wednesday)
		if want := day(2026, 8, 31); !from.Equal(want) {
			t.Errorf("from = %v, want %v", from, want)
		}
		if !to.IsZero() {
			t.Errorf("to = %v, want open-ended", to)
		}
	})

	t.Run("unknown token falls back", func(t *testing.T) {
		from, to := dateWindow("tomorrow", wednesday)
		if want := day(2026, 8, 31); !from.Equal(want) || !to.IsZero() {
			t.Errorf("got %v..%v, want %v open-ended", from, to, want)
		}
	})

	t.Run("weekend", func(t *testing.T) {
		from, to := dateWindow("weekend", wednesday)
		if !from.Equal(day(2026, 9, 5)) || !to.Equal(day(2026, 9, 7)) {
			t.Errorf("got %v..%v, want Sep 5..Sep 7", from, to)
		}
	})

	t.Run("weekend covers saturday and sunday themselves", func(t *testing.T) {
		// From any day of the Monday-based week the window is the same.
		for d := 31; d <= 37; d++ {
			now := time.Date(2026, 8, d, 12, 0, 0, 0, time.UTC)
			from, to := dateWindow("weekend", now)
			if !from.Equal(day(2026, 9, 5)) || !to.Equal(day(2026, 9, 7)) {
				t.Errorf("now=%v: got %v..%v, want Sep 5..Sep 7", now, from, to)
			}
		}
	})

	t.Run("nextweekend", func(t *testing.T) {
		from, to := dateWindow("nextweekend", wednesday)
		if !from.Equal(day(2026, 9, 12)) || !to.Equal(day(2026, 9, 14)) {
			t.Errorf("got %v..%v, want Sep 12..Sep 14", from, to)
		}
	})

	t.Run("month", func(t *testing.T) {
		from, to := dateWindow("month", wednesday)
		if !from.Equal(day(2026, 9, 1)) || !to.Equal(day(2026, 10, 1)) {
			t.Errorf("got %v..%v, want Sep 1..Oct 1", from, to)
		}
	})

	t.Run("nextmonth", func(t *testing.T) {
		from, to := dateWindow("nextmonth", wednesday)
		if !from.Equal(day(2026, 10, 1)) || !to.Equal(day(2026, 11, 1)) {
			t.Errorf("got %v..%v, want Oct 1..Nov 1", from, to)
		}
	})

	t.Run("explicit range includes end day", func(t *testing.T) {
		from, to := dateWindow("2026-10-01,2026-10-15", wednesday)
		if !from.Equal(day(2026, 10, 1)) || !to.Equal(day(2026, 10, 16)) {
			t.Errorf("got %v..%v, want Oct 1..Oct 16", from, to)
		}
	})

	t.Run("explicit range with bad bounds", func(t *testing.T) {
		from, to := dateWindow("junk,2026-10-15", wednesday)
		if !from.IsZero() || !to.Equal(day(2026, 10, 16)) {
			t.Errorf("got %v..%v, want zero..Oct 16", from, to)
		}

		from, to = dateWindow("2026-10-01,junk", wednesday)
		if !from.Equal(day(2026, 10, 1)) || !to.IsZero() {
			t.Errorf("got %v..%v, want Oct 1..open", from, to)
		}
	})
}

func TestSaturdayOfWeek(t *testing.T) {
	want := time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC)
	// Monday Aug 31 through Sunday Sep 6 all resolve to Saturday Sep 5.
	for d := 0; d < 7; d++ {
		in := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC).AddDate(0, 0, d)
		if got := saturdayOfWeek(in); !got.Equal(want) {
			t.Errorf("saturdayOfWeek(%v) = %v, want %v", in, got, want)
		}
	}
}
