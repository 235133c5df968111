package weather

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/julienschmidt/httprouter"
)

var client = &http.Client{Timeout: 10 * time.Second}

func baseURL() string {
	if v := os.Getenv("WEATHER_URL"); v != "" {
		return v
	}
	return "http://localhost:7040"
}

// GetForecast proxies the city forecast from the weather provider.
// GET /api/weather?city=Tokyo
func GetForecast(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	city := r.URL.Query().Get("city")
	if city == "" {
		http.Error(w, "city is required", http.StatusBadRequest)
		return
	}

	u := fmt.Sprintf("%s/forecast?city=%s", baseURL(), url.QueryEscape(city))
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, u, nil)
	if err != nil {
		http.Error(w, "Weather service unavailable", http.StatusBadGateway)
		return
	}

	resp, err := client.Do(req)
	if err != nil {
		http.Error(w, "Weather service unavailable", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	io.Copy(w, resp.Body)
}
