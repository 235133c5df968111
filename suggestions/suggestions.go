package suggestions

import (
	"math/rand"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	"voyagr/utils"
)

// Curated starting points shown on the explore page before a user has
// any history to personalize from.
var curated = map[string][]map[string]string{
	"destinations": {
		{"name": "Tokyo", "country": "Japan", "tagline": "Neon, temples, and the best food city on earth"},
		{"name": "Lisbon", "country": "Portugal", "tagline": "Tiled hills and pasteis de nata"},
		{"name": "Kyoto", "country": "Japan", "tagline": "Gardens, shrines, and quiet mornings"},
		{"name": "Mexico City", "country": "Mexico", "tagline": "Markets, murals, and mezcal"},
		{"name": "Istanbul", "country": "Turkey", "tagline": "Two continents, one skyline"},
		{"name": "Marrakech", "country": "Morocco", "tagline": "Souks and riads in the medina"},
		{"name": "Seoul", "country": "South Korea", "tagline": "Street food till sunrise"},
		{"name": "Buenos Aires", "country": "Argentina", "tagline": "Steak, tango, and late dinners"},
		{"name": "Reykjavik", "country": "Iceland", "tagline": "Gateway to waterfalls and lava fields"},
		{"name": "Hanoi", "country": "Vietnam", "tagline": "Pho at dawn in the old quarter"},
	},
	"experiences": {
		{"title": "Street food crawl", "location": "Bangkok", "duration": "3h"},
		{"title": "Sunrise hot-air balloon", "location": "Cappadocia", "duration": "4h"},
		{"title": "Tea ceremony", "location": "Kyoto", "duration": "2h"},
		{"title": "Tango night", "location": "Buenos Aires", "duration": "3h"},
		{"title": "Northern lights chase", "location": "Tromso", "duration": "6h"},
		{"title": "Cooking class with a nonna", "location": "Bologna", "duration": "4h"},
		{"title": "Desert camp under the stars", "location": "Wadi Rum", "duration": "overnight"},
		{"title": "Island hopping by longtail", "location": "Krabi", "duration": "full day"},
	},
	"seasonal": {
		{"title": "Cherry blossom season", "where": "Japan", "when": "late March"},
		{"title": "Midnight sun", "where": "Norway", "when": "June"},
		{"title": "Fall foliage", "where": "New England", "when": "October"},
		{"title": "Carnival", "where": "Rio de Janeiro", "when": "February"},
		{"title": "Lavender bloom", "where": "Provence", "when": "July"},
		{"title": "Whale watching", "where": "Azores", "when": "April"},
	},
}

// filterList keeps entries where any field matches the query text.
func filterList(data []map[string]string, q string) []map[string]string {
	out := make([]map[string]string, 0, len(data))
	for _, item := range data {
		for _, v := range item {
			if utils.ContainsIgnoreCase(v, q) {
				out = append(out, item)
				break
			}
		}
	}
	return out
}

func shuffleList(data []map[string]string) {
	rand.Shuffle(len(data), func(i, j int) { data[i], data[j] = data[j], data[i] })
}

func paginateList(data []map[string]string, page, itemsPerPage int) []map[string]string {
	out := make([]map[string]string, len(data))
	copy(out, data)
	shuffleList(out)

	start := (page - 1) * itemsPerPage
	end := start + itemsPerPage
	if start >= len(out) {
		return []map[string]string{}
	}
	if end > len(out) {
		end = len(out)
	}
	return out[start:end]
}

// GetSuggestions serves one curated section, shuffled per request and
// optionally narrowed by a text query.
// GET /api/suggestions?section=destinations&page=1&q=japan
func GetSuggestions(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	section := r.URL.Query().Get("section")
	if section == "" {
		section = "destinations"
	}
	data, exists := curated[section]
	if !exists {
		http.Error(w, "Invalid section", http.StatusBadRequest)
		return
	}

	if q := r.URL.Query().Get("q"); q != "" {
		data = filterList(data, q)
	}

	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	utils.RespondWithJSON(w, http.StatusOK, paginateList(data, page, 6))
}

// GetSuggestionSections lists the available section names.
func GetSuggestionSections(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	sections := make([]string, 0, len(curated))
	for name := range curated {
		sections = append(sections, name)
	}
	utils.RespondWithJSON(w, http.StatusOK, sections)
}
