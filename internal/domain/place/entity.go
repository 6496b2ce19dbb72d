// Package place contains the place aggregate: a geo-located content entity
// with tags, images and comments as soft-deletable children.
package place

import (
	"strings"

	"github.com/hjun-park/backend/internal/domain/geo"
	"github.com/hjun-park/backend/internal/domain/shared"
)

// Place is a spot members can search, view, bookmark and review.
type Place struct {
	ID          shared.ID
	MemberID    shared.ID
	Name        string
	Address     string
	PhoneNumber string
	Latitude    float64
	Longitude   float64
	Status      shared.Status
	shared.Timestamps
}

// Point returns the stored coordinate.
func (p *Place) Point() geo.Point {
	return geo.Point{Latitude: p.Latitude, Longitude: p.Longitude}
}

// DistanceFrom returns the distance in kilometers from the given viewer position.
func (p *Place) DistanceFrom(lat, lng float64) float64 {
	return geo.Distance(lat, lng, p.Latitude, p.Longitude)
}

// IsOwnedBy reports whether memberID registered the place.
func (p *Place) IsOwnedBy(memberID shared.ID) bool {
	return p.MemberID != 0 && p.MemberID == memberID
}

// Matches reports whether query is a case-sensitive substring of the name or address.
func (p *Place) Matches(query string) bool {
	return strings.Contains(p.Name, query) || strings.Contains(p.Address, query)
}

// Tag is a free-form label attached to a place.
type Tag struct {
	ID      shared.ID
	PlaceID shared.ID
	Name    string
	Status  shared.Status
}

// TagName returns the reconciliation label of a tag.
func TagName(t Tag) string { return t.Name }

// Image is a stored image URL attached to a place.
type Image struct {
	ID      shared.ID
	PlaceID shared.ID
	URL     string
	Status  shared.Status
}

// ImageURL returns the reconciliation label of an image.
func ImageURL(i Image) string { return i.URL }

// Comment is a member review of a place.
type Comment struct {
	ID       shared.ID
	PlaceID  shared.ID
	MemberID shared.ID
	Nickname string
	Content  string
	Status   shared.Status
	shared.Timestamps
}

// IsWrittenBy reports whether memberID authored the comment.
func (c *Comment) IsWrittenBy(memberID shared.ID) bool {
	return c.MemberID == memberID
}

// Bookmarks is the set of place ids a member bookmarked.
type Bookmarks map[shared.ID]struct{}

// Has reports whether placeID is bookmarked. A nil set has no bookmarks.
func (b Bookmarks) Has(placeID shared.ID) bool {
	_, ok := b[placeID]
	return ok
}
