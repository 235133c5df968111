package models

import "time"

// Trip is the top-level travel plan a user builds and optionally shares.
type Trip struct {
	TripID      string    `json:"tripid" bson:"tripid"`
	UserID      string    `json:"user_id" bson:"user_id"`
	Name        string    `json:"name" bson:"name"`
	Destination string    `json:"destination" bson:"destination"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	StartDate   string    `json:"start_date" bson:"start_date"`
	EndDate     string    `json:"end_date" bson:"end_date"`
	Status      string    `json:"status" bson:"status"` // planning | booked | done
	Published   bool      `json:"published" bson:"published"`
	ShareCode   string    `json:"share_code,omitempty" bson:"share_code,omitempty"`
	PlaceIDs    []string  `json:"place_ids,omitempty" bson:"place_ids,omitempty"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
	Deleted     bool      `json:"-" bson:"deleted,omitempty"`
}
