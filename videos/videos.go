package videos

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/julienschmidt/httprouter"
)

var client = &http.Client{Timeout: 15 * time.Second}

func baseURL() string {
	if v := os.Getenv("VIDEOS_URL"); v != "" {
		return v
	}
	return "http://localhost:7050"
}

// SearchVideos proxies destination video search to the video provider.
// GET /api/videos?q=tokyo+street+food
func SearchVideos(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, "q is required", http.StatusBadRequest)
		return
	}

	u := fmt.Sprintf("%s/search?q=%s", baseURL(), url.QueryEscape(query))
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, u, nil)
	if err != nil {
		http.Error(w, "Video service unavailable", http.StatusBadGateway)
		return
	}

	resp, err := client.Do(req)
	if err != nil {
		http.Error(w, "Video service unavailable", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	io.Copy(w, resp.Body)
}
