package domain

import (
	"fmt"
	"time"
)

// DateLayout is the ISO calendar date used for availability entries and stay
// boundaries.
const DateLayout = "2006-01-02"

type Room struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	Price        float64  `json:"price"`
	Currency     string   `json:"currency"`
	Description  string   `json:"description"`
	ImageURL     string   `json:"image_url"`
	Images       []string `json:"images"`
	Capacity     int      `json:"capacity"`
	Amenities    []string `json:"amenities"`
	Size         string   `json:"size"`
	BedType      string   `json:"bed_type"`
	Availability []string `json:"availability"`
}

type SearchFilters struct {
	Query     string   `json:"query"`
	CheckIn   string   `json:"check_in"`
	CheckOut  string   `json:"check_out"`
	Guests    int      `json:"guests"`
	RoomType  string   `json:"room_type"`
	MinPrice  *float64 `json:"min_price,omitempty"`
	MaxPrice  *float64 `json:"max_price,omitempty"`
	Amenities []string `json:"amenities"`
}

// ParseDate reads a YYYY-MM-DD string as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DateOf returns midnight UTC of the calendar date t falls on in its own
// location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
