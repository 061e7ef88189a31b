package model

import "time"

type Gallery struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	OwnerEmail string    `json:"email,omitempty"`
	ObjectKey  string    `json:"s3_key"`
	Category   string    `json:"category"`
	Title      string    `json:"title"`
	CreatedAt  time.Time `json:"created_at"`
}

// GalleryItem is a gallery row enriched with a time-limited read URL.
type GalleryItem struct {
	Gallery
	PresignedURL *string `json:"presigned_url"`
}

type GalleryList struct {
	Galleries []GalleryItem `json:"galleries"`
	Count     int           `json:"count"`
}
