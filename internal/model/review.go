package model

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
)

// Point is a geographic coordinate. It travels as {"lat","lng"} in JSON and is
// persisted as the packed string "(lng,lat)".
type Point struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
}

// Value implements driver.Valuer.
func (p Point) Value() (driver.Value, error) {
	return p.String(), nil
}

// String returns the packed "(lng,lat)" form.
func (p Point) String() string {
	return "(" + strconv.FormatFloat(p.Lng, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lat, 'f', -1, 64) + ")"
}

// Scan implements sql.Scanner.
func (p *Point) Scan(src interface{}) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	case nil:
		*p = Point{}
		return nil
	default:
		return fmt.Errorf("scan point: unsupported type %T", src)
	}
	parsed, err := ParsePoint(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePoint parses the packed "(lng,lat)" form.
func ParsePoint(s string) (Point, error) {
	trimmed := strings.TrimSpace(s)
	trimmed = strings.TrimPrefix(trimmed, "(")
	trimmed = strings.TrimSuffix(trimmed, ")")

	parts := strings.Split(trimmed, ",")
	if len(parts) != 2 {
		return Point{}, fmt.Errorf("parse point %q: want two components", s)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Point{}, fmt.Errorf("parse point %q: lng: %w", s, err)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Point{}, fmt.Errorf("parse point %q: lat: %w", s, err)
	}
	return Point{Lat: lat, Lng: lng}, nil
}

// ReviewFeedLimit caps the review feed.
const ReviewFeedLimit = 50

// Review is a geo-tagged location review.
type Review struct {
	ID           int64          `db:"id" json:"id"`
	UserID       int64          `db:"user_id" json:"user_id"`
	LocationName string         `db:"location_name" json:"location_name"`
	LocationType string         `db:"location_type" json:"location_type"`
	Coordinates  Point          `db:"coordinates" json:"coordinates"`
	PrimaryEmoji string         `db:"primary_emoji" json:"primary_emoji"`
	ReviewText   string         `db:"review_text" json:"review_text"`
	Images       pq.StringArray `db:"images" json:"images"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`

	Preferences []ReviewPreference `json:"preferences"`

	// Joined field for display
	User *UserSummary `json:"user,omitempty"`
}

// ReviewPreference tags a review with a preference and whether the place caters to it.
type ReviewPreference struct {
	ReviewID     int64   `db:"review_id" json:"-"`
	PreferenceID int64   `db:"preference_id" json:"preference_id"`
	Name         string  `db:"name" json:"name,omitempty"`
	IsAvailable  bool    `db:"is_available" json:"is_available"`
	Note         *string `db:"note" json:"note"`
}

// ReviewPreferenceInput is one preference entry in a review write.
type ReviewPreferenceInput struct {
	PreferenceID int64   `json:"preference_id" validate:"required,gt=0"`
	IsAvailable  bool    `json:"is_available"`
	Note         *string `json:"note" validate:"omitempty,max=500"`
}

// ReviewRequest is the body of POST /reviews and PUT /reviews/{id}.
type ReviewRequest struct {
	LocationName string                  `json:"location_name" validate:"required,max=200"`
	LocationType string                  `json:"location_type" validate:"required,max=50"`
	Coordinates  *Point                  `json:"coordinates" validate:"required"`
	PrimaryEmoji string                  `json:"primary_emoji" validate:"required,max=16"`
	ReviewText   string                  `json:"review_text" validate:"max=5000"`
	Images       []string                `json:"images" validate:"max=10,dive,url,max=2048"`
	Preferences  []ReviewPreferenceInput `json:"preferences" validate:"max=50,dive"`
}

// ToReview builds a review owned by userID from the request.
func (r *ReviewRequest) ToReview(userID int64) *Review {
	images := pq.StringArray(r.Images)
	if images == nil {
		images = pq.StringArray{}
	}
	return &Review{
		UserID:       userID,
		LocationName: r.LocationName,
		LocationType: r.LocationType,
		Coordinates:  *r.Coordinates,
		PrimaryEmoji: r.PrimaryEmoji,
		ReviewText:   r.ReviewText,
		Images:       images,
	}
}

// UsefulRequest is the body of POST /reviews/useful.
type UsefulRequest struct {
	ReviewID int64 `json:"reviewId" validate:"required,gt=0"`
}

var (
	// ErrReviewNotFound is returned when a review cannot be found
	ErrReviewNotFound = errors.New("review not found")

	// ErrCannotMarkOwnReview is returned when a user marks their own review useful
	ErrCannotMarkOwnReview = errors.New("cannot mark own review as useful")

	// ErrMustFollowToView is returned when reading reviews of a user the caller does not follow
	ErrMustFollowToView = errors.New("you must follow this user to view their reviews")

	// ErrPreferenceNotFound is returned when a review references an unknown preference
	ErrPreferenceNotFound = errors.New("preference not found")
)
