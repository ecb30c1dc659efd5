package handlers

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/raceatlas/raceatlas-api/models"
)

func TestShapeLinks(t *testing.T) {
	raw := []byte(`{"website":"https://vall-trail.example.com","register":"https://tickets.example.com/123","whatsapp":""}`)

	t.Run("public mode rewrites and drops empty", func(t *testing.T) {
		links := shapeLinks(raw, "vall-trail-2026", "https://api.raceatlas.com", false)

		if len(links) != 2 {
			t.Fatalf("got %d links, want 2: %v", len(links), links)
		}
		want := "https://api.raceatlas.com/events/vall-trail-2026/link/website"
		if links["website"] != want {
			t.Errorf("website = %q, want %q", links["website"], want)
		}
		if _, ok := links["whatsapp"]; ok {
			t.Error("empty link not dropped")
		}
	})

	t.Run("edit mode returns raw targets", func(t *testing.T) {
		links := shapeLinks(raw, "vall-trail-2026", "https://api.raceatlas.com", true)
		if links["website"] != "https://vall-trail.example.com" {
			t.Errorf("website = %q, want the stored target", links["website"])
		}
		if links["whatsapp"] != "" {
			t.Errorf("edit mode should keep empty entries, got %q", links["whatsapp"])
		}
	})

	t.Run("labels are path-escaped", func(t *testing.T) {
		links := shapeLinks([]byte(`{"more info":"https://example.com"}`), "x", "https://api.raceatlas.com", false)
		if got := links["more info"]; !strings.HasSuffix(got, "/link/more%20info") {
			t.Errorf("label not escaped: %q", got)
		}
	})

	t.Run("malformed and empty json", func(t *testing.T) {
		if links := shapeLinks([]byte(`{broken`), "x", "base", false); len(links) != 0 {
			t.Errorf("got %v, want empty", links)
		}
		if links := shapeLinks(nil, "x", "base", false); links == nil || len(links) != 0 {
			t.Errorf("got %v, want empty non-nil map", links)
		}
	})
}

func TestEventState(t *testing.T) {
	now := time.Date(2026, 9, 5, 10, 0, 0, 0, time.UTC)
	secs := func(h int) *int { s := h * 3600; return &s }
	at := func(h time.Duration) *time.Time { d := now.Add(h); return &d }

	t.Run("future event is upcoming", func(t *testing.T) {
		if got := eventState(now.Add(time.Minute), nil, now); got != stateUpcoming {
			t.Errorf("got %q, want upcoming", got)
		}
	})

	t.Run("default two hour window without time limits", func(t *testing.T) {
		if got := eventState(now.Add(-time.Hour), nil, now); got != stateLive {
			t.Errorf("1h in: got %q, want live", got)
		}
		if got := eventState(now.Add(-3*time.Hour), nil, now); got != stateFinished {
			t.Errorf("3h in: got %q, want finished", got)
		}
	})

	t.Run("longest race time limit extends the live window", func(t *testing.T) {
		races := []models.Race{
			{Date: at(-4 * time.Hour), TimeLimit: secs(3)},
			{Date: at(-4 * time.Hour), TimeLimit: secs(5)},
		}
		if got := eventState(now, races, now); got != stateLive {
			t.Errorf("4h in with a 5h limit: got %q, want live", got)
		}

		races = []models.Race{
			{Date: at(-6 * time.Hour), TimeLimit: secs(3)},
			{Date: at(-6 * time.Hour), TimeLimit: secs(5)},
		}
		if got := eventState(now, races, now); got != stateFinished {
			t.Errorf("6h in with a 5h limit: got %q, want finished", got)
		}
	})

	t.Run("earliest race date wins over the event date", func(t *testing.T) {
		races := []models.Race{{Date: at(-3 * time.Hour)}}
		// The event date itself is in the future, a race already started.
		if got := eventState(now.Add(2*time.Hour), races, now); got != stateFinished {
			t.Errorf("got %q, want finished", got)
		}
	})

	t.Run("races without dates keep the event date", func(t *testing.T) {
		races := []models.Race{{TimeLimit: secs(5)}}
		if got := eventState(now.Add(-4*time.Hour), races, now); got != stateLive {
			t.Errorf("got %q, want live", got)
		}
	})
}

func TestPageLinks(t *testing.T) {
	params := url.Values{"country": {"ES"}, "page": {"2"}}

	t.Run("middle page has all rels", func(t *testing.T) {
		header := pageLinks("/events", params, pagination{total: 230, pages: 5, page: 2, perPage: 50})

		for _, rel := range []string{`rel="self"`, `rel="prev"`, `rel="next"`, `rel="last"`} {
			if !strings.Contains(header, rel) {
				t.Errorf("missing %s in %q", rel, header)
			}
		}
		if !strings.Contains(header, "</events?country=ES&page=1&perPage=50>; rel=\"prev\"") {
			t.Errorf("prev link wrong: %q", header)
		}
		if !strings.Contains(header, "page=5") {
			t.Errorf("last link wrong: %q", header)
		}
	})

	t.Run("first page omits prev", func(t *testing.T) {
		header := pageLinks("/events", url.Values{}, pagination{pages: 3, page: 1, perPage: 50})
		if strings.Contains(header, `rel="prev"`) {
			t.Errorf("unexpected prev: %q", header)
		}
		if !strings.Contains(header, `rel="next"`) {
			t.Errorf("missing next: %q", header)
		}
	})

	t.Run("last page omits next and last", func(t *testing.T) {
		header := pageLinks("/events", url.Values{}, pagination{pages: 3, page: 3, perPage: 50})
		if strings.Contains(header, `rel="next"`) || strings.Contains(header, `rel="last"`) {
			t.Errorf("unexpected next/last: %q", header)
		}
		if !strings.Contains(header, `rel="self"`) {
			t.Errorf("missing self: %q", header)
		}
	})
}
