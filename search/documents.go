// Package search synchronizes people, events and organizers from the
// database into the search index in bounded batches.
package search

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/raceatlas/raceatlas-api/models"
)

// Document is the denormalized shape pushed to the search index. The index
// upserts by ID, so re-pushing the same document is safe.
type Document struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Status   string `json:"status"`
	Number   int    `json:"number"`
	Location string `json:"location"`
	Image    string `json:"image"`

	// Kind-specific fields.
	Verified   *bool  `json:"verified,omitempty"`
	Date       string `json:"date,omitempty"`
	Races      string `json:"races,omitempty"`
	Categories string `json:"categories,omitempty"`
}

// Fallback avatar shown when a person has no picture and no gravatar.
const defaultAvatarURL = "https://files.layered.market/neutral-2.png"

const defaultOrganizerIcon = "/assets/icon-organizer.png"

// GravatarURL derives a deterministic avatar URL from an email address.
func GravatarURL(email string, size int) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%s?s=%d&d=%s",
		hex.EncodeToString(sum[:]), size, url.QueryEscape(defaultAvatarURL))
}

// PersonImageURL resolves a person's image: explicit picture URL first
// (CDN-prefixed when stored relative), gravatar otherwise.
func PersonImageURL(pictureURL *string, email, filesBase string, size int) string {
	if pictureURL != nil && *pictureURL != "" {
		if strings.HasPrefix(*pictureURL, "https://") {
			return *pictureURL
		}
		return filesBase + "/" + strings.TrimPrefix(*pictureURL, "/")
	}
	return GravatarURL(email, size)
}

// joinLocation composes a display location from fragments: trimmed,
// blanks filtered, duplicates removed, joined with commas.
func joinLocation(fragments ...string) string {
	seen := make(map[string]bool, len(fragments))
	parts := make([]string, 0, len(fragments))
	for _, fragment := range fragments {
		f := strings.TrimSpace(fragment)
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		parts = append(parts, f)
	}
	return strings.Join(parts, ", ")
}

func personDocument(p *models.Person, countries map[string]*models.Country, filesBase string) Document {
	countryName := ""
	if p.CountryCode != nil {
		if country, ok := countries[*p.CountryCode]; ok {
			countryName = country.Name
		}
	}

	verified := p.Verified
	return Document{
		ID:       fmt.Sprintf("id_%d", p.ID),
		Name:     p.Name,
		Slug:     p.Handle,
		Status:   p.Visibility,
		Number:   p.Followers,
		Location: joinLocation(p.City, countryName),
		Image:    PersonImageURL(p.PictureURL, p.Email, filesBase, 100),
		Verified: &verified,
	}
}

func eventDocument(e *models.Event, countries map[int]*models.Country, filesBase string) Document {
	countryName := ""
	if country, ok := countries[e.LocationCountryID]; ok {
		countryName = country.Name
	}

	countyState := ""
	if e.LocationCountyState != nil {
		countyState = *e.LocationCountyState
	}

	var tags []string
	if len(e.CategoryTags) > 0 {
		_ = json.Unmarshal(e.CategoryTags, &tags)
	}

	return Document{
		ID:         fmt.Sprintf("ev_%d", e.ID),
		Name:       e.Name,
		Slug:       e.Slug,
		Status:     e.Status,
		Number:     e.StatViews,
		Location:   joinLocation(e.LocationName, e.LocationLocality, countyState, countryName),
		Image:      fmt.Sprintf("%s/events/%s-md.webp", filesBase, e.Slug),
		Date:       e.Date.Format("2006-01-02"),
		Races:      distanceLabel(e.DistanceMin, e.DistanceMax),
		Categories: strings.Join(tags, ", "),
	}
}

func organizerDocument(o *models.Organizer, countries map[int]*models.Country, filesBase, siteBase string) Document {
	location := ""
	if o.CountryID != nil {
		if country, ok := countries[*o.CountryID]; ok {
			location = country.Name
		}
	}

	image := siteBase + defaultOrganizerIcon
	if o.LogoURL != nil && *o.LogoURL != "" {
		image = filesBase + "/" + strings.TrimPrefix(*o.LogoURL, "/")
	}

	verified := o.Verified
	return Document{
		ID:       fmt.Sprintf("og_%d", o.ID),
		Name:     o.Name,
		Slug:     o.Slug,
		Status:   o.Status,
		Number:   o.UpcomingEventsCount,
		Location: location,
		Image:    image,
		Verified: &verified,
	}
}

// distanceLabel renders the event distance interval, collapsing equal
// bounds to a single value.
func distanceLabel(min, max float64) string {
	if min == max {
		return fmt.Sprintf("%gkm", min)
	}
	return fmt.Sprintf("%gkm - %gkm", min, max)
}
