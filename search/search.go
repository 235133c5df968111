package search

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"

	"voyagr/db"
	"voyagr/models"
	"voyagr/utils"
)

const searchLimit = 25

// Result groups resolved entities for one query.
type Result struct {
	Places []models.Place `json:"places"`
	Trips  []models.Trip  `json:"trips"`
	Cities []models.City  `json:"cities"`
}

// Search resolves index hits back to their documents, grouped by kind.
// GET /api/search?q=...
func Search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		http.Error(w, "q is required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	members, err := IndexedResults(ctx, query, searchLimit)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Search failed")
		return
	}

	var placeIDs, tripIDs, cityIDs []string
	for _, m := range members {
		kind, id, ok := strings.Cut(m, "|")
		if !ok {
			continue
		}
		switch kind {
		case KindPlace:
			placeIDs = append(placeIDs, id)
		case KindTrip:
			tripIDs = append(tripIDs, id)
		case KindCity:
			cityIDs = append(cityIDs, id)
		}
	}

	result := Result{
		Places: []models.Place{},
		Trips:  []models.Trip{},
		Cities: []models.City{},
	}

	if len(placeIDs) > 0 {
		places, err := utils.FindAndDecode[models.Place](ctx, db.PlacesCollection,
			bson.M{"placeid": bson.M{"$in": placeIDs}, "deleted": bson.M{"$ne": true}})
		if err == nil {
			result.Places = places
		}
	}
	if len(tripIDs) > 0 {
		trips, err := utils.FindAndDecode[models.Trip](ctx, db.TripsCollection,
			bson.M{"tripid": bson.M{"$in": tripIDs}, "published": true, "deleted": bson.M{"$ne": true}})
		if err == nil {
			result.Trips = trips
		}
	}
	if len(cityIDs) > 0 {
		cities, err := utils.FindAndDecode[models.City](ctx, db.CitiesCollection,
			bson.M{"cityid": bson.M{"$in": cityIDs}})
		if err == nil {
			result.Cities = cities
		}
	}

	utils.RespondWithJSON(w, http.StatusOK, result)
}
