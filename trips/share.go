package trips

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/julienschmidt/httprouter"
	qrcode "github.com/skip2/go-qrcode"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"voyagr/db"
	"voyagr/models"
	"voyagr/utils"
)

func shareURL(code string) string {
	base := os.Getenv("PUBLIC_BASE_URL")
	if base == "" {
		base = "http://localhost:4000"
	}
	return fmt.Sprintf("%s/trips/shared/%s", base, code)
}

// GetSharedTrip resolves a share code to its trip. Share links work
// without signing in.
func GetSharedTrip(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	code := ps.ByName("code")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var trip models.Trip
	err := db.TripsCollection.FindOne(ctx,
		bson.M{"share_code": code, "deleted": bson.M{"$ne": true}}).Decode(&trip)
	if err == mongo.ErrNoDocuments {
		http.Error(w, "Trip not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, trip)
}

// TripShareQR renders the trip's share link as a QR code PNG.
func TripShareQR(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
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
	if err == mongo.ErrNoDocuments {
		http.Error(w, "Trip not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	png, err := qrcode.Encode(shareURL(trip.ShareCode), qrcode.Medium, 256)
	if err != nil {
		http.Error(w, "Error generating QR code", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="trip-%s.png"`, trip.TripID))
	w.Write(png)
}
