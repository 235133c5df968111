package trips

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"voyagr/db"
	"voyagr/models"
	"voyagr/search"
	"voyagr/utils"
)

func CreateTrip(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		http.Error(w, "Invalid user", http.StatusUnauthorized)
		return
	}

	var trip models.Trip
	if err := json.NewDecoder(r.Body).Decode(&trip); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if trip.Name == "" || trip.Destination == "" {
		http.Error(w, "Name and destination are required", http.StatusBadRequest)
		return
	}

	trip.TripID = utils.GetUUID()
	trip.UserID = userID
	if trip.Status == "" {
		trip.Status = "planning"
	}
	trip.ShareCode = utils.GenerateRandomString(10)
	trip.CreatedAt = time.Now()
	trip.UpdatedAt = trip.CreatedAt
	trip.Deleted = false

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, err := db.TripsCollection.InsertOne(ctx, trip); err != nil {
		http.Error(w, "Error creating trip", http.StatusInternalServerError)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		text := trip.Name + " " + trip.Destination
		if err := search.IndexEntity(ctx, search.KindTrip, trip.TripID, text, trip.CreatedAt); err != nil {
			log.Printf("trip indexing failed for %s: %v", trip.TripID, err)
		}
	}()

	utils.RespondWithJSON(w, http.StatusCreated, trip)
}

func GetTrips(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		http.Error(w, "Invalid user", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	trips, err := utils.FindAndDecode[models.Trip](ctx, db.TripsCollection,
		bson.M{"user_id": userID, "deleted": bson.M{"$ne": true}},
		options.Find().SetSort(bson.M{"created_at": -1}))
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch trips")
		return
	}
	if trips == nil {
		trips = []models.Trip{}
	}
	utils.RespondWithJSON(w, http.StatusOK, trips)
}

func GetTrip(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	tripID := ps.ByName("tripid")
	userID := utils.GetUserIDFromRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var trip models.Trip
	err := db.TripsCollection.FindOne(ctx,
		bson.M{"tripid": tripID, "deleted": bson.M{"$ne": true}}).Decode(&trip)
	if err == mongo.ErrNoDocuments {
		http.Error(w, "Trip not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	// Private trips are visible to their owner only.
	if !trip.Published && trip.UserID != userID {
		http.Error(w, "Trip not found", http.StatusNotFound)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, trip)
}

func UpdateTrip(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	tripID := ps.ByName("tripid")
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		http.Error(w, "Invalid user", http.StatusUnauthorized)
		return
	}

	var updates map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	allowed := map[string]bool{
		"name": true, "destination": true, "description": true,
		"start_date": true, "end_date": true, "status": true,
		"published": true, "place_ids": true,
	}
	set := bson.M{"updated_at": time.Now()}
	for k, v := range updates {
		if allowed[k] {
			set[k] = v
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := db.TripsCollection.UpdateOne(ctx,
		bson.M{"tripid": tripID, "user_id": userID, "deleted": bson.M{"$ne": true}},
		bson.M{"$set": set})
	if err != nil {
		http.Error(w, "Error updating trip", http.StatusInternalServerError)
		return
	}
	if res.MatchedCount == 0 {
		http.Error(w, "Trip not found", http.StatusNotFound)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"ok": true})
}

func DeleteTrip(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	tripID := ps.ByName("tripid")
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		http.Error(w, "Invalid user", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var trip models.Trip
	err := db.TripsCollection.FindOne(ctx,
		bson.M{"tripid": tripID, "user_id": userID, "deleted": bson.M{"$ne": true}}).Decode(&trip)
	if err != nil {
		http.Error(w, "Trip not found", http.StatusNotFound)
		return
	}

	_, err = db.TripsCollection.UpdateOne(ctx,
		bson.M{"tripid": tripID, "user_id": userID},
		bson.M{"$set": bson.M{"deleted": true, "updated_at": time.Now()}})
	if err != nil {
		http.Error(w, "Error deleting trip", http.StatusInternalServerError)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		text := trip.Name + " " + trip.Destination
		if err := search.RemoveEntity(ctx, search.KindTrip, trip.TripID, text); err != nil {
			log.Printf("trip index removal failed for %s: %v", trip.TripID, err)
		}
	}()

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"ok": true})
}

// AddTripPlace appends a place to the trip's place list.
func AddTripPlace(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	tripID := ps.ByName("tripid")
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		http.Error(w, "Invalid user", http.StatusUnauthorized)
		return
	}

	var body struct {
		PlaceID string `json:"placeid"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.PlaceID == "" {
		http.Error(w, "placeid is required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := db.TripsCollection.UpdateOne(ctx,
		bson.M{"tripid": tripID, "user_id": userID, "deleted": bson.M{"$ne": true}},
		bson.M{
			"$addToSet": bson.M{"place_ids": body.PlaceID},
			"$set":      bson.M{"updated_at": time.Now()},
		})
	if err != nil {
		http.Error(w, "Error updating trip", http.StatusInternalServerError)
		return
	}
	if res.MatchedCount == 0 {
		http.Error(w, "Trip not found", http.StatusNotFound)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"ok": true})
}
