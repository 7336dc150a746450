package models

import (
	"time"
)

// Event is the display metadata the storefront needs for an event page.
type Event struct {
	ID           int64     `json:"id"`
	Slug         string    `json:"slug"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	EventDate    time.Time `json:"event_date"`
	EventEndDate time.Time `json:"event_end_date"`
	Location     string    `json:"location"`
	VenueName    string    `json:"venue_name"`
	Address      string    `json:"address"`
	BannerImage  string    `json:"banner_image"`
	Status       string    `json:"status"` // draft, published, cancelled, completed
	IsPublic     bool      `json:"is_public"`
}
