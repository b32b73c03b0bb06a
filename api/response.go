package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/jon-the-dev/album-relay/utils"
)

const maxPageLimit = 100

type ErrorResponse struct {
	Error string `json:"error"`
}

// ListResponse wraps a page of items with the cursor for the next page. An
// empty NextPageToken means the listing is exhausted.
type ListResponse struct {
	Items         interface{} `json:"items"`
	NextPageToken string      `json:"next_page_token,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

func writeError(w http.ResponseWriter, err error) {
	var apiErr *utils.APIError
	if errors.As(err, &apiErr) {
		writeJSON(w, apiErr.Code, ErrorResponse{Error: apiErr.Message})
		return
	}
	writeJSON(w, utils.GetHTTPStatusFromError(err), ErrorResponse{Error: err.Error()})
}

// pageParams reads the page_token and limit query parameters, clamping the
// limit to a sane window.
func pageParams(r *http.Request) (string, int) {
	token := r.URL.Query().Get("page_token")

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return token, limit
}
