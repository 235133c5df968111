package places

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"voyagr/db"
	"voyagr/models"
	"voyagr/utils"
)

const bannerUploadDir = "./static/placepic"

// EditPlaceBanner replaces a place's banner image. The upload is saved
// full-size plus a 300px-wide thumbnail for list views.
func EditPlaceBanner(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	placeID := ps.ByName("placeid")
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		http.Error(w, "Invalid user", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var place models.Place
	err := db.PlacesCollection.FindOne(ctx, bson.M{"placeid": placeID}).Decode(&place)
	if err == mongo.ErrNoDocuments {
		http.Error(w, "Place not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	if place.CreatedBy != userID {
		http.Error(w, "Not authorized to edit this place", http.StatusForbidden)
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "Unable to parse form", http.StatusBadRequest)
		return
	}
	file, _, err := r.FormFile("banner")
	if err != nil {
		http.Error(w, "Banner file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	img, err := imaging.Decode(file)
	if err != nil {
		http.Error(w, "Invalid image file", http.StatusBadRequest)
		return
	}

	fileName := placeID + ".jpg"
	thumbDir := filepath.Join(bannerUploadDir, "thumb")
	if err := utils.EnsureDir(bannerUploadDir); err != nil {
		http.Error(w, "Error saving banner", http.StatusInternalServerError)
		return
	}
	if err := utils.EnsureDir(thumbDir); err != nil {
		http.Error(w, "Error saving banner", http.StatusInternalServerError)
		return
	}

	if err := imaging.Save(img, filepath.Join(bannerUploadDir, fileName)); err != nil {
		http.Error(w, "Error saving banner", http.StatusInternalServerError)
		return
	}
	thumb := imaging.Resize(img, 300, 0, imaging.Lanczos)
	if err := imaging.Save(thumb, filepath.Join(thumbDir, fileName)); err != nil {
		http.Error(w, "Error saving banner thumbnail", http.StatusInternalServerError)
		return
	}

	bannerPath := "/placepic/" + fileName
	_, err = db.PlacesCollection.UpdateOne(ctx,
		bson.M{"placeid": placeID},
		bson.M{"$set": bson.M{"banner": bannerPath, "updated_at": time.Now()}})
	if err != nil {
		http.Error(w, "Error updating place", http.StatusInternalServerError)
		return
	}

	if err := cache.Del(ctx, "place:"+placeID); err != nil {
		log.Printf("place cache invalidation failed for %s: %v", placeID, err)
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"banner": fmt.Sprintf("%s?t=%d", bannerPath, time.Now().Unix()),
	})
}
