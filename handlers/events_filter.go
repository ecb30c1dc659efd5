package handlers

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Pagination bounds for list endpoints. Values outside the range are
// silently clamped, never rejected.
const (
	minPage    = 1
	maxPage    = 10
	minPerPage = 5
	maxPerPage = 100
	defPerPage = 50
)

// Events older than this still show up under the default date filter,
// so multi-day events that already started are not hidden.
const dateGraceWindow = 48 * time.Hour

// eventFilters is the normalized filter set for the events listing.
type eventFilters struct {
	status      string
	country     string
	countyState string
	category    string
	categoryTag string
	organizerID int

	distMin     float64
	distMax     float64
	hasDistance bool

	// dateFrom is inclusive; dateTo is exclusive, zero means open-ended.
	dateFrom time.Time
	dateTo   time.Time

	q        string
	featured bool
	page     int
	perPage  int
}

// normalizeEventFilters parses raw query parameters into a typed filter set
// with defaults and bounds. It never fails: out-of-range values clamp and
// malformed values fall back to their defaults.
func normalizeEventFilters(params url.Values, now time.Time) eventFilters {
	f := eventFilters{
		status:      "public",
		country:     paramOr(params, "country", "ES"),
		countyState: paramOr(params, "countyState", "all"),
		category:    paramOr(params, "category", "all"),
		q:           params.Get("q"),
		featured:    params.Get("featured") == "1",
		page:        clamp(atoiOr(params.Get("page"), 1), minPage, maxPage),
		perPage:     clamp(atoiOr(params.Get("perPage"), defPerPage), minPerPage, maxPerPage),
	}

	// A combined "slug_tag" token narrows the category with a tag.
	if f.category != "all" {
		if slug, tag, found := strings.Cut(f.category, "_"); found {
			f.category = slug
			f.categoryTag = tag
		}
	}

	if org := params.Get("organizer"); org != "" && org != "all" {
		if id, err := strconv.Atoi(org); err == nil && id > 0 {
			f.organizerID = id
		}
	}

	if dist := paramOr(params, "distance", "all"); dist != "all" {
		f.distMin, f.distMax = parseDistance(dist)
		f.hasDistance = true
	}

	f.dateFrom, f.dateTo = dateWindow(paramOr(params, "date", "all"), now)

	return f
}

// parseDistance parses a "min,max" pair in kilometers. Non-numeric parts
// default to 0 and 9999.
func parseDistance(s string) (min, max float64) {
	min, max = 0, 9999
	parts := strings.SplitN(s, ",", 2)

	if v, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64); err == nil && v > 0 {
		min = v
	}
	if len(parts) == 2 {
		if v, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64); err == nil && v > 0 {
			max = v
		}
	}
	return min, max
}

// dateWindow maps a date filter token to a [from, to) predicate window on
// the event date. The zero "to" means open-ended. Unknown tokens and "all"
// fall back to the grace window from now.
func dateWindow(token string, now time.Time) (from, to time.Time) {
	day := func(t time.Time) time.Time {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	}

	switch token {
	case "weekend":
		sat := saturdayOfWeek(now)
		return sat, sat.AddDate(0, 0, 2)
	case "nextweekend":
		sat := saturdayOfWeek(now).AddDate(0, 0, 7)
		return sat, sat.AddDate(0, 0, 2)
	case "month":
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return start, start.AddDate(0, 1, 0)
	case "nextmonth":
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, 1, 0)
		return start, start.AddDate(0, 1, 0)
	}

	if strings.Contains(token, ",") {
		// Explicit range, each bound applied independently. Unparseable
		// bounds are ignored.
		parts := strings.SplitN(token, ",", 2)
		if t, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(parts[0]), now.Location()); err == nil {
			from = t
		}
		if t, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(parts[1]), now.Location()); err == nil {
			to = t.AddDate(0, 0, 1) // include the whole end day
		}
		return from, to
	}

	return day(now.Add(-dateGraceWindow)), time.Time{}
}

// saturdayOfWeek returns midnight of the Saturday in the Monday-based week
// containing t, whatever weekday t falls on.
func saturdayOfWeek(t time.Time) time.Time {
	daysSinceMonday := (int(t.Weekday()) + 6) % 7
	monday := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()).AddDate(0, 0, -daysSinceMonday)
	return monday.AddDate(0, 0, 5)
}

func paramOr(params url.Values, key, def string) string {
	if v := params.Get(key); v != "" {
		return v
	}
	return def
}

func atoiOr(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
