package places

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"voyagr/db"
	"voyagr/models"
	"voyagr/utils"
)

// SavePlace bookmarks a place for the requesting user. Saving the same
// place twice just refreshes the board.
func SavePlace(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		http.Error(w, "Invalid user", http.StatusUnauthorized)
		return
	}
	placeID := ps.ByName("placeid")

	var body struct {
		Board string `json:"board"`
	}
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&body)
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var exists models.Place
	err := db.PlacesCollection.FindOne(ctx, bson.M{"placeid": placeID}).Decode(&exists)
	if err != nil {
		http.Error(w, "Place not found", http.StatusNotFound)
		return
	}

	saved := models.SavedPlace{
		UserID:  userID,
		PlaceID: placeID,
		Board:   body.Board,
		SavedAt: time.Now(),
	}
	_, err = db.SavedPlacesCollection.UpdateOne(ctx,
		bson.M{"user_id": userID, "placeid": placeID},
		bson.M{"$set": saved},
		options.Update().SetUpsert(true))
	if err != nil {
		http.Error(w, "Error saving place", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, saved)
}

func UnsavePlace(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		http.Error(w, "Invalid user", http.StatusUnauthorized)
		return
	}
	placeID := ps.ByName("placeid")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := db.SavedPlacesCollection.DeleteOne(ctx,
		bson.M{"user_id": userID, "placeid": placeID})
	if err != nil {
		http.Error(w, "Error removing saved place", http.StatusInternalServerError)
		return
	}
	if res.DeletedCount == 0 {
		http.Error(w, "Saved place not found", http.StatusNotFound)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"ok": true})
}

// GetSavedPlaces returns the user's bookmarks with the full place
// documents resolved.
func GetSavedPlaces(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		http.Error(w, "Invalid user", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	saved, err := utils.FindAndDecode[models.SavedPlace](ctx, db.SavedPlacesCollection,
		bson.M{"user_id": userID},
		options.Find().SetSort(bson.M{"saved_at": -1}))
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch saved places")
		return
	}
	if len(saved) == 0 {
		utils.RespondWithJSON(w, http.StatusOK, []models.Place{})
		return
	}

	ids := make([]string, 0, len(saved))
	for _, s := range saved {
		ids = append(ids, s.PlaceID)
	}
	places, err := utils.FindAndDecode[models.Place](ctx, db.PlacesCollection,
		bson.M{"placeid": bson.M{"$in": ids}})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch saved places")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, places)
}
