package search

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/raceatlas/raceatlas-api/models"
)

type fakeStore struct {
	people     []*models.Person
	events     []*models.Event
	organizers []*models.Organizer

	countriesByCode map[string]*models.Country
	countriesByID   map[int]*models.Country

	markedPeople     []int
	markedEvents     []int
	markedOrganizers []int
}

func (s *fakeStore) UnindexedPeople(_ context.Context, limit int) ([]*models.Person, error) {
	if len(s.people) > limit {
		return s.people[:limit], nil
	}
	return s.people, nil
}

func (s *fakeStore) UnindexedEvents(_ context.Context, limit int) ([]*models.Event, error) {
	if len(s.events) > limit {
		return s.events[:limit], nil
	}
	return s.events, nil
}

func (s *fakeStore) UnindexedOrganizers(_ context.Context, limit int) ([]*models.Organizer, error) {
	if len(s.organizers) > limit {
		return s.organizers[:limit], nil
	}
	return s.organizers, nil
}

func (s *fakeStore) CountriesByCode(context.Context, []string) (map[string]*models.Country, error) {
	return s.countriesByCode, nil
}

func (s *fakeStore) CountriesByID(context.Context, []int) (map[int]*models.Country, error) {
	return s.countriesByID, nil
}

func (s *fakeStore) MarkPeopleIndexed(_ context.Context, ids []int) error {
	s.markedPeople = append(s.markedPeople, ids...)
	removeMarked(&s.people, ids, func(p *models.Person) int { return p.ID })
	return nil
}

func (s *fakeStore) MarkEventsIndexed(_ context.Context, ids []int) error {
	s.markedEvents = append(s.markedEvents, ids...)
	removeMarked(&s.events, ids, func(e *models.Event) int { return e.ID })
	return nil
}

func (s *fakeStore) MarkOrganizersIndexed(_ context.Context, ids []int) error {
	s.markedOrganizers = append(s.markedOrganizers, ids...)
	removeMarked(&s.organizers, ids, func(o *models.Organizer) int { return o.ID })
	return nil
}

func removeMarked[T any](rows *[]*T, ids []int, id func(*T) int) {
	marked := make(map[int]bool, len(ids))
	for _, v := range ids {
		marked[v] = true
	}
	var kept []*T
	for _, row := range *rows {
		if !marked[id(row)] {
			kept = append(kept, row)
		}
	}
	*rows = kept
}

type fakeIndexer struct {
	batches [][]Document
	err     error
}

func (f *fakeIndexer) AddDocuments(_ context.Context, docs []Document) error {
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, docs)
	return nil
}

func str(s string) *string { return &s }

func testRunner(store Store, index Indexer) *Runner {
	return NewRunner(store, index, "https://files.raceatlas.com", "https://raceatlas.com", zap.NewNop())
}

func TestIndexPeople(t *testing.T) {
	t.Run("empty batch is a no-op", func(t *testing.T) {
		store := &fakeStore{}
		index := &fakeIndexer{}

		docs, err := testRunner(store, index).IndexPeople(context.Background(), DefaultLimit)
		if err != nil {
			t.Fatal(err)
		}
		if docs != nil {
			t.Errorf("docs = %v, want nil", docs)
		}
		if len(index.batches) != 0 || len(store.markedPeople) != 0 {
			t.Error("no-op run pushed or marked rows")
		}
	})

	t.Run("pushes then marks", func(t *testing.T) {
		store := &fakeStore{
			people: []*models.Person{
				{ID: 1, Handle: "ana", Name: "Ana", Email: " Ana@Example.COM ", Visibility: "public", Followers: 12, City: "Girona", CountryCode: str("ES")},
				{ID: 2, Handle: "bo", Name: "Bo", Email: "bo@example.com", Visibility: "public", PictureURL: str("avatars/bo.jpg")},
			},
			countriesByCode: map[string]*models.Country{"ES": {Name: "Spain", Code: "ES"}},
		}
		index := &fakeIndexer{}

		docs, err := testRunner(store, index).IndexPeople(context.Background(), DefaultLimit)
		if err != nil {
			t.Fatal(err)
		}
		if len(docs) != 2 {
			t.Fatalf("got %d docs, want 2", len(docs))
		}

		if docs[0].ID != "id_1" {
			t.Errorf("ID = %q, want id_1", docs[0].ID)
		}
		if docs[0].Location != "Girona, Spain" {
			t.Errorf("Location = %q, want Girona, Spain", docs[0].Location)
		}
		// md5 of "ana@example.com", lowercased and trimmed.
		wantAvatar := "https://www.gravatar.com/avatar/cdb9d6a1dddc375a09cc83e3001598dc?s=100&d="
		if got := docs[0].Image; !strings.HasPrefix(got, wantAvatar) {
			t.Errorf("Image = %q, want gravatar prefix %q", got, wantAvatar)
		}
		if docs[1].Image != "https://files.raceatlas.com/avatars/bo.jpg" {
			t.Errorf("Image = %q, want the CDN picture", docs[1].Image)
		}

		if len(store.markedPeople) != 2 {
			t.Errorf("marked %v, want both ids", store.markedPeople)
		}
	})

	t.Run("second run is a no-op", func(t *testing.T) {
		store := &fakeStore{
			people: []*models.Person{{ID: 1, Handle: "ana", Name: "Ana", Email: "a@example.com", Visibility: "public"}},
		}
		index := &fakeIndexer{}
		runner := testRunner(store, index)

		if _, err := runner.IndexPeople(context.Background(), DefaultLimit); err != nil {
			t.Fatal(err)
		}
		docs, err := runner.IndexPeople(context.Background(), DefaultLimit)
		if err != nil {
			t.Fatal(err)
		}
		if docs != nil || len(index.batches) != 1 {
			t.Errorf("second run pushed again: docs=%v batches=%d", docs, len(index.batches))
		}
	})

	t.Run("failed push marks nothing", func(t *testing.T) {
		store := &fakeStore{
			people: []*models.Person{{ID: 1, Handle: "ana", Name: "Ana", Email: "a@example.com", Visibility: "public"}},
		}
		index := &fakeIndexer{err: errors.New("index down")}

		if _, err := testRunner(store, index).IndexPeople(context.Background(), DefaultLimit); err == nil {
			t.Fatal("expected an error")
		}
		if len(store.markedPeople) != 0 {
			t.Errorf("marked %v after a failed push", store.markedPeople)
		}
		if len(store.people) != 1 {
			t.Error("row no longer selectable for the retry run")
		}
	})

	t.Run("limit bounds the batch", func(t *testing.T) {
		store := &fakeStore{}
		for i := 1; i <= 5; i++ {
			store.people = append(store.people, &models.Person{ID: i, Handle: "h", Name: "n", Email: "e@example.com", Visibility: "public"})
		}
		index := &fakeIndexer{}

		docs, err := testRunner(store, index).IndexPeople(context.Background(), 2)
		if err != nil {
			t.Fatal(err)
		}
		if len(docs) != 2 || len(store.markedPeople) != 2 {
			t.Errorf("got %d docs, marked %v; want 2 and 2", len(docs), store.markedPeople)
		}
	})
}

func TestIndexEvents(t *testing.T) {
	store := &fakeStore{
		events: []*models.Event{{
			ID:                7,
			Name:              "Vall Trail",
			Slug:              "vall-trail-2026",
			Status:            models.EventStatusPublic,
			Date:              time.Date(2026, 10, 4, 0, 0, 0, 0, time.UTC),
			LocationName:      "Vall de Boí",
			LocationLocality:  "Vall de Boí",
			LocationCountryID: 1,
			DistanceMin:       10,
			DistanceMax:       42,
			CategoryTags:      []byte(`["trail","ultra"]`),
			StatViews:         340,
		}},
		countriesByID: map[int]*models.Country{1: {ID: 1, Name: "Spain"}},
	}
	index := &fakeIndexer{}

	docs, err := testRunner(store, index).IndexEvents(context.Background(), DefaultLimit)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 {
		t.Fatalf("got %d docs, want 1", len(docs))
	}

	doc := docs[0]
	if doc.ID != "ev_7" {
		t.Errorf("ID = %q, want ev_7", doc.ID)
	}
	// Duplicate locality collapses.
	if doc.Location != "Vall de Boí, Spain" {
		t.Errorf("Location = %q", doc.Location)
	}
	if doc.Date != "2026-10-04" {
		t.Errorf("Date = %q", doc.Date)
	}
	if doc.Races != "10km - 42km" {
		t.Errorf("Races = %q", doc.Races)
	}
	if doc.Categories != "trail, ultra" {
		t.Errorf("Categories = %q", doc.Categories)
	}
	if doc.Image != "https://files.raceatlas.com/events/vall-trail-2026-md.webp" {
		t.Errorf("Image = %q", doc.Image)
	}
	if len(store.markedEvents) != 1 || store.markedEvents[0] != 7 {
		t.Errorf("marked %v, want [7]", store.markedEvents)
	}
}

func TestIndexOrganizers(t *testing.T) {
	countryID := 1
	store := &fakeStore{
		organizers: []*models.Organizer{
			{ID: 3, Slug: "club-x", Name: "Club X", Status: models.OrganizerStatusPublic, CountryID: &countryID, UpcomingEventsCount: 4, Verified: true},
			{ID: 4, Slug: "club-y", Name: "Club Y", Status: models.OrganizerStatusArchived, LogoURL: str("logos/y.png")},
		},
		countriesByID: map[int]*models.Country{1: {ID: 1, Name: "Spain"}},
	}
	index := &fakeIndexer{}

	docs, err := testRunner(store, index).IndexOrganizers(context.Background(), DefaultLimit)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d docs, want 2", len(docs))
	}

	if docs[0].ID != "og_3" || docs[0].Location != "Spain" {
		t.Errorf("doc 0 = %+v", docs[0])
	}
	if docs[0].Verified == nil || !*docs[0].Verified {
		t.Error("verified flag lost")
	}
	if docs[0].Image != "https://raceatlas.com/assets/icon-organizer.png" {
		t.Errorf("Image = %q, want the default icon", docs[0].Image)
	}
	if docs[1].Image != "https://files.raceatlas.com/logos/y.png" {
		t.Errorf("Image = %q, want the CDN logo", docs[1].Image)
	}
	if docs[1].Location != "" {
		t.Errorf("Location = %q, want empty without a country", docs[1].Location)
	}
}

func TestJoinLocation(t *testing.T) {
	cases := []struct {
		in   []string
		want string
	}{
		{[]string{"Girona", "Girona", "Spain"}, "Girona, Spain"},
		{[]string{"  Girona  ", "", "Spain"}, "Girona, Spain"},
		{[]string{"", "   "}, ""},
		{[]string{"A", "B", "A", "C"}, "A, B, C"},
	}
	for _, tc := range cases {
		if got := joinLocation(tc.in...); got != tc.want {
			t.Errorf("joinLocation(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestGravatarURL(t *testing.T) {
	a := GravatarURL(" USER@Example.com ", 100)
	b := GravatarURL("user@example.com", 100)
	if a != b {
		t.Errorf("gravatar not normalized: %q vs %q", a, b)
	}
	if want := "?s=100&d="; !strings.Contains(a, want) {
		t.Errorf("URL %q missing %q", a, want)
	}
}
