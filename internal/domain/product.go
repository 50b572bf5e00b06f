package domain

import (
	"time"
)

// Product represents the authoritative catalog record. The catalog store owns
// this document; the search index only ever holds a derived copy. Identifiers
// are UUIDs and are never reused after deletion.
type Product struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	Categories  []string  `json:"categories"`
	Size        string    `json:"size"`
	Color       string    `json:"color"`
	PriceCents  int64     `json:"price_cents"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
