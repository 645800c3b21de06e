package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS applies the allowed-origin policy for the web frontends.
func CORS() func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:3000",
			"https://campusmart-62265cad6213.herokuapp.com",
			"https://campusmart.vercel.app",
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CM-Token", "Idempotency-Key", "X-Requested-With"},
		ExposedHeaders:   []string{"X-CM-Token"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
