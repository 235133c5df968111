package itinerary

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"

	"voyagr/db"
	"voyagr/models"
	"voyagr/utils"
)

// POST /api/itineraries
func CreateItinerary(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var itinerary models.Itinerary
	if err := json.NewDecoder(r.Body).Decode(&itinerary); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	itinerary.UserID = userID
	itinerary.ItineraryID = utils.GenerateRandomString(13)
	if itinerary.Status == "" {
		itinerary.Status = "Draft"
	}
	itinerary.Deleted = false

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, err := db.ItineraryCollection.InsertOne(ctx, itinerary); err != nil {
		http.Error(w, "Error inserting itinerary", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, itinerary)
}

// GET /api/itineraries
func GetItineraries(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	filter := bson.M{"deleted": bson.M{"$ne": true}, "published": true}
	if userID := utils.GetUserIDFromRequest(r); userID != "" && r.URL.Query().Get("mine") == "true" {
		filter = bson.M{"deleted": bson.M{"$ne": true}, "user_id": userID}
	}

	itineraries, err := utils.FindAndDecode[models.Itinerary](ctx, db.ItineraryCollection, filter)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error fetching itineraries")
		return
	}
	if itineraries == nil {
		itineraries = []models.Itinerary{}
	}
	utils.RespondWithJSON(w, http.StatusOK, itineraries)
}

// GET /api/itineraries/all/:id
func GetItinerary(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	itineraryID := ps.ByName("id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var itinerary models.Itinerary
	err := db.ItineraryCollection.FindOne(ctx,
		bson.M{"itineraryid": itineraryID, "deleted": bson.M{"$ne": true}}).Decode(&itinerary)
	if err != nil {
		http.Error(w, "Itinerary not found", http.StatusNotFound)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, itinerary)
}

// PUT /api/itineraries/:id
func UpdateItinerary(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	itineraryID := ps.ByName("id")
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var existing models.Itinerary
	err := db.ItineraryCollection.FindOne(ctx, bson.M{"itineraryid": itineraryID}).Decode(&existing)
	if err != nil {
		http.Error(w, "Itinerary not found", http.StatusNotFound)
		return
	}
	if existing.UserID != userID {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	var updated models.Itinerary
	if err := json.NewDecoder(r.Body).Decode(&updated); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	update := bson.M{"$set": bson.M{
		"name":        updated.Name,
		"description": updated.Description,
		"start_date":  updated.StartDate,
		"end_date":    updated.EndDate,
		"status":      updated.Status,
		"published":   updated.Published,
		"days":        updated.Days,
	}}

	if _, err := db.ItineraryCollection.UpdateOne(ctx, bson.M{"itineraryid": itineraryID}, update); err != nil {
		http.Error(w, "Error updating itinerary", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Itinerary updated successfully"})
}

// DELETE /api/itineraries/:id
func DeleteItinerary(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	itineraryID := ps.ByName("id")
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var itinerary models.Itinerary
	err := db.ItineraryCollection.FindOne(ctx, bson.M{"itineraryid": itineraryID}).Decode(&itinerary)
	if err != nil {
		http.Error(w, "Itinerary not found", http.StatusNotFound)
		return
	}
	if itinerary.UserID != userID {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	update := bson.M{"$set": bson.M{"deleted": true}}
	if _, err := db.ItineraryCollection.UpdateOne(ctx, bson.M{"itineraryid": itineraryID}, update); err != nil {
		http.Error(w, "Error deleting itinerary", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Itinerary deleted successfully"})
}

// POST /api/itineraries/:id/fork
func ForkItinerary(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	originalID := ps.ByName("id")
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var original models.Itinerary
	err := db.ItineraryCollection.FindOne(ctx,
		bson.M{"itineraryid": originalID, "deleted": bson.M{"$ne": true}}).Decode(&original)
	if err != nil {
		http.Error(w, "Original itinerary not found", http.StatusNotFound)
		return
	}
	// Only published itineraries can be forked by other users.
	if !original.Published && original.UserID != userID {
		http.Error(w, "Original itinerary not found", http.StatusNotFound)
		return
	}

	fork := models.Itinerary{
		ItineraryID: utils.GenerateRandomString(13),
		UserID:      userID,
		Name:        "Forked - " + original.Name,
		Description: original.Description,
		StartDate:   original.StartDate,
		EndDate:     original.EndDate,
		Days:        original.Days,
		Status:      "Draft",
		Published:   false,
		ForkedFrom:  &originalID,
	}

	if _, err := db.ItineraryCollection.InsertOne(ctx, fork); err != nil {
		http.Error(w, "Error forking itinerary", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, fork)
}

// PUT /api/itineraries/:id/publish
func PublishItinerary(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id := ps.ByName("id")
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := db.ItineraryCollection.UpdateOne(ctx,
		bson.M{"itineraryid": id, "user_id": userID},
		bson.M{"$set": bson.M{"published": true}})
	if err != nil {
		http.Error(w, "Error publishing itinerary", http.StatusInternalServerError)
		return
	}
	if res.MatchedCount == 0 {
		http.Error(w, "Itinerary not found", http.StatusNotFound)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Itinerary published"})
}

// GET /api/itineraries/search
func SearchItineraries(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()

	filter := bson.M{"deleted": bson.M{"$ne": true}}
	if start := query.Get("start_date"); start != "" {
		filter["start_date"] = start
	}
	if location := query.Get("location"); location != "" {
		filter["days.visits.location"] = bson.M{"$in": []string{location}}
	}
	if status := query.Get("status"); status != "" {
		filter["status"] = status
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	itineraries, err := utils.FindAndDecode[models.Itinerary](ctx, db.ItineraryCollection, filter)
	if err != nil {
		http.Error(w, "Error fetching itineraries", http.StatusInternalServerError)
		return
	}
	if itineraries == nil {
		itineraries = []models.Itinerary{}
	}

	utils.RespondWithJSON(w, http.StatusOK, itineraries)
}
