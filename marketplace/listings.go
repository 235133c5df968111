package marketplace

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"voyagr/db"
	"voyagr/models"
	"voyagr/utils"
)

// GetListings browses marketplace entries with paging and filters.
func GetListings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	opts := utils.ParseQueryOptions(r)
	filter := bson.M{"deleted": bson.M{"$ne": true}}
	if opts.Search != "" {
		filter["title"] = bson.M{"$regex": opts.Search, "$options": "i"}
	}
	if opts.Urban != "" {
		filter["city"] = opts.Urban
	}
	if category := r.URL.Query().Get("category"); category != "" {
		filter["category"] = category
	}

	listings, err := utils.FindAndDecode[models.Listing](ctx, db.ListingsCollection,
		filter, opts.Find().SetSort(bson.M{"created_at": -1}))
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch listings")
		return
	}
	if listings == nil {
		listings = []models.Listing{}
	}
	utils.RespondWithJSON(w, http.StatusOK, listings)
}

func GetListing(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	listingID := ps.ByName("listingid")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var listing models.Listing
	err := db.ListingsCollection.FindOne(ctx,
		bson.M{"listingid": listingID, "deleted": bson.M{"$ne": true}}).Decode(&listing)
	if err == mongo.ErrNoDocuments {
		http.Error(w, "Listing not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, listing)
}

// GetListingCategories returns the distinct categories in the catalog,
// for the browse filter chips.
func GetListingCategories(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	raw, err := db.ListingsCollection.Distinct(ctx, "category", bson.M{"deleted": bson.M{"$ne": true}})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch categories")
		return
	}

	categories := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			categories = append(categories, s)
		}
	}
	utils.RespondWithJSON(w, http.StatusOK, categories)
}
