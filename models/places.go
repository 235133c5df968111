package models

import "time"

type Place struct {
	PlaceID        string      `json:"placeid" bson:"placeid"`
	Name           string      `json:"name" bson:"name"`
	ShortDesc      string      `json:"short_desc" bson:"short_desc"`
	Description    string      `json:"description" bson:"description"`
	Address        string      `json:"address" bson:"address"`
	City           string      `json:"city,omitempty" bson:"city,omitempty"`
	Country        string      `json:"country,omitempty" bson:"country,omitempty"`
	Category       string      `json:"category" bson:"category"`
	Banner         string      `json:"banner" bson:"banner"`
	Tags           []string    `json:"tags" bson:"tags"`
	Location       Coordinates `json:"location" bson:"location,omitempty"`
	Website        string      `json:"website,omitempty" bson:"website,omitempty"`
	Phone          string      `json:"phone,omitempty" bson:"phone,omitempty"`
	IsOpen         bool        `json:"isopen,omitempty" bson:"isopen,omitempty"`
	Views          int         `json:"views,omitempty" bson:"views,omitempty"`
	ReviewCount    int         `json:"reviewcount,omitempty" bson:"reviewcount,omitempty"`
	Rating         float64     `json:"rating,omitempty" bson:"rating,omitempty"`
	OperatingHours []string    `json:"operatinghours,omitempty" bson:"operatinghours,omitempty"`
	CreatedBy      string      `json:"createdBy,omitempty" bson:"createdBy,omitempty"`
	CreatedAt      time.Time   `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at" bson:"updated_at"`
	Deleted        bool        `json:"-" bson:"deleted,omitempty"`
}

type Coordinates struct {
	Latitude  float64 `json:"latitude,omitempty" bson:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty" bson:"longitude,omitempty"`
}

// PlacesResponse is the trimmed list view of a place.
type PlacesResponse struct {
	PlaceID        string   `json:"placeid"`
	Name           string   `json:"name"`
	ShortDesc      string   `json:"short_desc"`
	Address        string   `json:"address"`
	Category       string   `json:"category"`
	Tags           []string `json:"tags"`
	Banner         string   `json:"banner"`
	OperatingHours []string `json:"operatinghours,omitempty"`
}

// SavedPlace records a user bookmarking a place, optionally onto a board.
type SavedPlace struct {
	UserID  string    `json:"user_id" bson:"user_id"`
	PlaceID string    `json:"placeid" bson:"placeid"`
	Board   string    `json:"board,omitempty" bson:"board,omitempty"`
	SavedAt time.Time `json:"saved_at" bson:"saved_at"`
}

type City struct {
	CityID  string      `json:"cityid" bson:"cityid"`
	Name    string      `json:"name" bson:"name"`
	Country string      `json:"country" bson:"country"`
	Center  Coordinates `json:"center" bson:"center,omitempty"`
	Summary string      `json:"summary,omitempty" bson:"summary,omitempty"`
}
