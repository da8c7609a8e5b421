package api

import (
	"net/http"
	"slices"

	"github.com/rs/cors"
)

func supportCORS(next http.Handler, origins []string) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowedHeaders: []string{"Origin", "X-Requested-With", "Content-Type", "Accept"},
	})
	return c.Handler(next)
}

// allowedOrigin is the WebSocket origin check once CORS is enabled.
// Requests without an Origin header are not from browsers and pass.
func (h *Handler) allowedOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return slices.Contains(h.origins, "*") || slices.Contains(h.origins, origin)
}
