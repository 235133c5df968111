package routes

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"voyagr/chat"
	"voyagr/itinerary"
	"voyagr/maps"
	"voyagr/marketplace"
	"voyagr/middleware"
	"voyagr/places"
	"voyagr/ratelim"
	"voyagr/search"
	"voyagr/suggestions"
	"voyagr/trips"
	"voyagr/videos"
	"voyagr/weather"
)

func AddStaticRoutes(router *httprouter.Router) {
	router.ServeFiles("/static/placepic/*filepath", http.Dir("static/placepic"))
}

// AddChatRoutes wires the assistant chat surface. Send and the
// websocket entry accept guests, so they go through OptionalAuth.
func AddChatRoutes(router *httprouter.Router, h *chat.Handler, rl *ratelim.RateLimiter) {
	router.POST("/api/chat/send", rl.Limit(middleware.OptionalAuth(h.Send)))
	router.POST("/api/chat/cancel", middleware.OptionalAuth(h.Cancel))
	router.GET("/api/chat/ws", middleware.OptionalAuth(h.SendWS))

	router.GET("/api/chat/conversations", middleware.Authenticate(h.ListConversations))
	router.POST("/api/chat/conversations", middleware.Authenticate(h.CreateConversation))
	router.GET("/api/chat/conversations/:id/messages", middleware.Authenticate(h.GetMessages))
	router.PUT("/api/chat/conversations/:id/mode", middleware.Authenticate(h.UpdateMode))
	router.DELETE("/api/chat/conversations/:id", middleware.Authenticate(h.DeleteConversation))

	router.GET("/api/chat/guest/messages", h.GuestMessages)
	router.DELETE("/api/chat/guest/messages", h.ClearGuestMessages)
}

func AddPlaceRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.GET("/api/places", rl.Limit(places.GetPlaces))
	router.POST("/api/places", middleware.Authenticate(places.CreatePlace))
	router.GET("/api/places/place/:placeid", places.GetPlace)
	router.PUT("/api/places/place/:placeid", middleware.Authenticate(places.UpdatePlace))
	router.POST("/api/places/place/:placeid/banner", middleware.Authenticate(places.EditPlaceBanner))

	router.GET("/api/places/saved", middleware.Authenticate(places.GetSavedPlaces))
	router.POST("/api/places/place/:placeid/save", middleware.Authenticate(places.SavePlace))
	router.DELETE("/api/places/place/:placeid/save", middleware.Authenticate(places.UnsavePlace))

	router.GET("/api/cities", places.GetCities)
}

func AddTripRoutes(router *httprouter.Router) {
	router.GET("/api/trips", middleware.Authenticate(trips.GetTrips))
	router.POST("/api/trips", middleware.Authenticate(trips.CreateTrip))
	router.GET("/api/trips/trip/:tripid", middleware.Authenticate(trips.GetTrip))
	router.PUT("/api/trips/trip/:tripid", middleware.Authenticate(trips.UpdateTrip))
	router.DELETE("/api/trips/trip/:tripid", middleware.Authenticate(trips.DeleteTrip))
	router.POST("/api/trips/trip/:tripid/places", middleware.Authenticate(trips.AddTripPlace))
	router.GET("/api/trips/trip/:tripid/qr", middleware.Authenticate(trips.TripShareQR))
	router.GET("/api/trips/shared/:code", trips.GetSharedTrip)
}

func AddItineraryRoutes(router *httprouter.Router) {
	router.GET("/api/itineraries", middleware.OptionalAuth(itinerary.GetItineraries))
	router.POST("/api/itineraries", middleware.Authenticate(itinerary.CreateItinerary))
	router.GET("/api/itineraries/all/:id", itinerary.GetItinerary)
	router.GET("/api/itineraries/all/:id/pdf", middleware.OptionalAuth(itinerary.ExportItineraryPDF))
	router.PUT("/api/itineraries/:id", middleware.Authenticate(itinerary.UpdateItinerary))
	router.DELETE("/api/itineraries/:id", middleware.Authenticate(itinerary.DeleteItinerary))
	router.GET("/api/itineraries/search", itinerary.SearchItineraries)
	router.POST("/api/itineraries/:id/fork", middleware.Authenticate(itinerary.ForkItinerary))
	router.PUT("/api/itineraries/:id/publish", middleware.Authenticate(itinerary.PublishItinerary))
}

func AddMarketplaceRoutes(router *httprouter.Router) {
	router.GET("/api/marketplace/listings", marketplace.GetListings)
	router.GET("/api/marketplace/listings/:listingid", marketplace.GetListing)
	router.GET("/api/marketplace/categories", marketplace.GetListingCategories)
}

func AddSearchRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.GET("/api/search", rl.Limit(search.Search))
}

func AddSuggestionsRoutes(router *httprouter.Router) {
	router.GET("/api/suggestions", suggestions.GetSuggestions)
	router.GET("/api/suggestions/sections", suggestions.GetSuggestionSections)
}

func AddMapRoutes(router *httprouter.Router) {
	router.GET("/api/map/config", maps.GetMapConfig)
	router.GET("/api/map/markers", maps.GetMapMarkers)
}

func AddWeatherRoutes(router *httprouter.Router) {
	router.GET("/api/weather", weather.GetForecast)
}

func AddVideoRoutes(router *httprouter.Router) {
	router.GET("/api/videos", videos.SearchVideos)
}
