package http

import (
	"net/http"

	"trivia-match-service/internal/app"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
)

// NewRouter wires the REST and websocket endpoints behind CORS.
func NewRouter(service *app.MatchService, allowedOrigins []string) http.Handler {
	rooms := NewRoomsHandler(service)
	ws := NewWSHandler(service)

	mux := httprouter.New()
	mux.GET("/healthz", rooms.Health)
	mux.GET("/stats", rooms.Stats)
	mux.GET("/rooms", rooms.List)
	mux.POST("/rooms", rooms.Create)
	mux.GET("/rooms/:id", rooms.Get)
	mux.GET("/rooms/:id/qr", rooms.QR)
	mux.GET("/rooms/:id/ws", ws.ServeWS)

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedOrigins: allowedOrigins,
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(mux)
}
