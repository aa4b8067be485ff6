package routes

import (
	"os"

	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"

	"github.com/vediprashant/bluff-api/internal/socketsvc/handlers"
	"github.com/vediprashant/bluff-api/internal/socketsvc/ws"
)

var tokenAuth *jwtauth.JWTAuth

func SetRoutes(r *chi.Mux, ws *ws.Ws) {
	h := handlers.NewHandler(ws, tokenAuth)
	r.Route("/v1", func(r chi.Router) {
		// The socket endpoint authenticates via ?token=, inside the
		// handler, since browsers cannot set upgrade headers.
		r.Get("/ws", h.HandleWebSocket)

		r.Get("/health", h.HealthHandler)
	})
}

func InitAuth() {
	var jwtKey = os.Getenv("JWT_SECRET_KEY")
	tokenAuth = jwtauth.New("HS256", []byte(jwtKey), nil)
}
