package db

import (
	"context"
	"log"
	"os"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ConversationsCollection *mongo.Collection
	ChatMessagesCollection  *mongo.Collection
	PlacesCollection        *mongo.Collection
	SavedPlacesCollection   *mongo.Collection
	TripsCollection         *mongo.Collection
	ItineraryCollection     *mongo.Collection
	ListingsCollection      *mongo.Collection
	CitiesCollection        *mongo.Collection
	Client                  *mongo.Client
)

// Initialize MongoDB connection
func init() {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	clientOptions := options.Client().ApplyURI(uri)
	var err error
	Client, err = mongo.Connect(context.TODO(), clientOptions)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}

	database := Client.Database("voyagr")
	ConversationsCollection = database.Collection("conversations")
	ChatMessagesCollection = database.Collection("chatmessages")
	PlacesCollection = database.Collection("places")
	SavedPlacesCollection = database.Collection("savedplaces")
	TripsCollection = database.Collection("trips")
	ItineraryCollection = database.Collection("itinerary")
	ListingsCollection = database.Collection("listings")
	CitiesCollection = database.Collection("cities")
}
