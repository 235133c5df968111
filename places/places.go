package places

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"voyagr/db"
	"voyagr/globals"
	"voyagr/models"
	"voyagr/search"
	"voyagr/utils"
)

var cache Cache = NewRedisCache()

// GetPlaces lists places, optionally filtered by search text and city.
func GetPlaces(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	opts := utils.ParseQueryOptions(r)
	filter := bson.M{"deleted": bson.M{"$ne": true}}
	if opts.Search != "" {
		filter["name"] = bson.M{"$regex": opts.Search, "$options": "i"}
	}
	if opts.Urban != "" {
		filter["city"] = opts.Urban
	}

	places, err := utils.FindAndDecode[models.Place](ctx, db.PlacesCollection, filter, opts.Find())
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch places")
		return
	}

	result := make([]models.PlacesResponse, 0, len(places))
	for _, p := range places {
		desc := p.Description
		if len(desc) > 60 {
			desc = desc[:60] + "..."
		}
		tags := p.Tags
		if len(tags) > 5 {
			tags = tags[:5]
		}
		result = append(result, models.PlacesResponse{
			PlaceID:        p.PlaceID,
			Name:           p.Name,
			ShortDesc:      desc,
			Address:        p.Address,
			Category:       p.Category,
			Tags:           tags,
			Banner:         p.Banner,
			OperatingHours: p.OperatingHours,
		})
	}

	utils.RespondWithJSON(w, http.StatusOK, result)
}

func GetPlace(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("placeid")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if cached, ok, err := cache.Get(ctx, "place:"+id); err == nil && ok {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(cached))
		return
	}

	var place models.Place
	err := db.PlacesCollection.FindOne(ctx, bson.M{"placeid": id, "deleted": bson.M{"$ne": true}}).Decode(&place)
	if err == mongo.ErrNoDocuments {
		http.Error(w, "Place not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	data, err := json.Marshal(place)
	if err != nil {
		http.Error(w, "Failed to encode place", http.StatusInternalServerError)
		return
	}
	if err := cache.Set(ctx, "place:"+id, string(data), placeCacheTTL); err != nil {
		log.Printf("place cache set failed for %s: %v", id, err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func CreatePlace(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestingUserID, ok := r.Context().Value(globals.UserIDKey).(string)
	if !ok {
		http.Error(w, "Invalid user", http.StatusUnauthorized)
		return
	}

	var place models.Place
	if err := json.NewDecoder(r.Body).Decode(&place); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if place.Name == "" || place.Address == "" {
		http.Error(w, "Name and address are required", http.StatusBadRequest)
		return
	}

	place.PlaceID = utils.GetUUID()
	place.CreatedBy = requestingUserID
	place.CreatedAt = time.Now()
	place.UpdatedAt = place.CreatedAt
	place.Deleted = false

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, err := db.PlacesCollection.InsertOne(ctx, place); err != nil {
		http.Error(w, "Error creating place", http.StatusInternalServerError)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		text := place.Name + " " + place.City + " " + place.Category
		if err := search.IndexEntity(ctx, search.KindPlace, place.PlaceID, text, place.CreatedAt); err != nil {
			log.Printf("place indexing failed for %s: %v", place.PlaceID, err)
		}
	}()

	utils.RespondWithJSON(w, http.StatusCreated, place)
}

func UpdatePlace(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	placeID := ps.ByName("placeid")
	requestingUserID, ok := r.Context().Value(globals.UserIDKey).(string)
	if !ok {
		http.Error(w, "Invalid user", http.StatusUnauthorized)
		return
	}

	var updates map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	// Only presentation fields are editable over this endpoint.
	allowed := map[string]bool{
		"name": true, "description": true, "address": true, "city": true,
		"country": true, "category": true, "tags": true, "website": true,
		"phone": true, "operatinghours": true,
	}
	set := bson.M{"updated_at": time.Now()}
	for k, v := range updates {
		if allowed[k] {
			set[k] = v
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := db.PlacesCollection.UpdateOne(ctx,
		bson.M{"placeid": placeID, "createdBy": requestingUserID},
		bson.M{"$set": set})
	if err != nil {
		http.Error(w, "Error updating place", http.StatusInternalServerError)
		return
	}
	if res.MatchedCount == 0 {
		http.Error(w, "Place not found", http.StatusNotFound)
		return
	}

	if err := cache.Del(ctx, "place:"+placeID); err != nil {
		log.Printf("place cache invalidation failed for %s: %v", placeID, err)
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"ok": true})
}

func GetCities(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	opts := utils.ParseQueryOptions(r)
	filter := bson.M{}
	if opts.Search != "" {
		filter["name"] = bson.M{"$regex": opts.Search, "$options": "i"}
	}

	cities, err := utils.FindAndDecode[models.City](ctx, db.CitiesCollection, filter, opts.Find())
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch cities")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, cities)
}
