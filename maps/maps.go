package maps

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"

	"voyagr/db"
	"voyagr/models"
	"voyagr/utils"
)

// GetMapConfig hands the frontend its tile and pin configuration.
func GetMapConfig(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var config struct {
		TileURL     string            `json:"tileUrl"`
		Attribution string            `json:"attribution"`
		PinIcons    map[string]string `json:"pinIcons"`
	}

	config.TileURL = "https://tile.openstreetmap.org/{z}/{x}/{y}.png"
	config.Attribution = "© OpenStreetMap contributors"
	config.PinIcons = map[string]string{
		"food":      "/pins/food.svg",
		"sight":     "/pins/sight.svg",
		"hotel":     "/pins/hotel.svg",
		"shopping":  "/pins/shopping.svg",
		"nightlife": "/pins/nightlife.svg",
	}

	utils.RespondWithJSON(w, http.StatusOK, config)
}

type marker struct {
	PlaceID  string  `json:"placeid"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
}

// GetMapMarkers returns pins for every place in a city that has
// coordinates.
func GetMapMarkers(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	city := r.URL.Query().Get("city")
	if city == "" {
		http.Error(w, "city is required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	places, err := utils.FindAndDecode[models.Place](ctx, db.PlacesCollection, bson.M{
		"city":    city,
		"deleted": bson.M{"$ne": true},
		"location.latitude":  bson.M{"$ne": 0},
		"location.longitude": bson.M{"$ne": 0},
	})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch markers")
		return
	}

	markers := make([]marker, 0, len(places))
	for _, p := range places {
		markers = append(markers, marker{
			PlaceID:  p.PlaceID,
			Name:     p.Name,
			Category: p.Category,
			Lat:      p.Location.Latitude,
			Lng:      p.Location.Longitude,
		})
	}

	utils.RespondWithJSON(w, http.StatusOK, markers)
}
