package models

import "time"

// Listing is a marketplace entry (tours, experiences, gear) shown in the
// browse views. Browsing is read-only; checkout happens elsewhere.
type Listing struct {
	ListingID   string    `json:"listingid" bson:"listingid"`
	Title       string    `json:"title" bson:"title"`
	Description string    `json:"description" bson:"description"`
	Category    string    `json:"category" bson:"category"`
	City        string    `json:"city,omitempty" bson:"city,omitempty"`
	Price       float64   `json:"price" bson:"price"`
	Currency    string    `json:"currency" bson:"currency"`
	ImageURL    string    `json:"image_url,omitempty" bson:"image_url,omitempty"`
	SellerID    string    `json:"seller_id" bson:"seller_id"`
	Rating      float64   `json:"rating,omitempty" bson:"rating,omitempty"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	Deleted     bool      `json:"-" bson:"deleted,omitempty"`
}
