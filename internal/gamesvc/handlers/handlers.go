package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"
	log "github.com/sirupsen/logrus"

	"github.com/vediprashant/bluff-api/internal/gamesvc/engine"
	"github.com/vediprashant/bluff-api/internal/gamesvc/models"
	"github.com/vediprashant/bluff-api/internal/gamesvc/service"
)

type Handler struct {
	tokenAuth   *jwtauth.JWTAuth
	gameService *service.GameService
	userService *service.UserService
}

func NewHandler(gameService *service.GameService, userService *service.UserService) *Handler {
	return &Handler{
		gameService: gameService,
		userService: userService,
	}
}

type Response struct {
	Message string      `json:"message"`
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error,omitempty"`
}

func (h *Handler) CreateResponse(w http.ResponseWriter, rsp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rsp.Code)

	if err := json.NewEncoder(w).Encode(rsp); err != nil {
		log.Errorf("Failed to encode response: %v", err)
	}
}

func (h *Handler) errorResponse(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, engine.ErrValidation), errors.Is(err, engine.ErrGameStarted):
		code = http.StatusBadRequest
	case errors.Is(err, engine.ErrGameNotFound):
		code = http.StatusNotFound
	case errors.Is(err, engine.ErrNotAParticipant):
		code = http.StatusForbidden
	}
	h.CreateResponse(w, Response{Code: code, Error: err.Error()})
}

// authUserID pulls the authenticated participant id out of the verified
// JWT claims.
func (h *Handler) authUserID(r *http.Request) (int64, error) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return 0, err
	}
	switch v := claims["user_id"].(type) {
	case float64:
		return int64(v), nil
	case int64:
		return v, nil
	case json.Number:
		return v.Int64()
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, errors.New("token has no user_id claim")
	}
}

// CreateGameHandler creates a game with the caller as owner on seat 1.
func (h *Handler) CreateGameHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := h.authUserID(r)
	if err != nil {
		h.CreateResponse(w, Response{Code: http.StatusUnauthorized, Error: err.Error()})
		return
	}

	var req struct {
		Decks int    `json:"decks"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.CreateResponse(w, Response{Code: http.StatusBadRequest, Error: "malformed request body"})
		return
	}

	// Mirror the identity into the users table for foreign keys.
	name := req.Name
	if name == "" {
		name = "player-" + strconv.FormatInt(userID, 10)
	}
	if _, err := h.userService.GetOrCreateUser(r.Context(), models.User{UserId: userID, Name: name}); err != nil {
		h.errorResponse(w, err)
		return
	}

	game, err := h.gameService.CreateGame(r.Context(), req.Decks, userID)
	if err != nil {
		h.errorResponse(w, err)
		return
	}
	h.CreateResponse(w, Response{Code: http.StatusOK, Data: game})
}

// InviteHandler adds a participant without a seat.
func (h *Handler) InviteHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := h.authUserID(r)
	if err != nil {
		h.CreateResponse(w, Response{Code: http.StatusUnauthorized, Error: err.Error()})
		return
	}
	gameID, err := strconv.ParseInt(chi.URLParam(r, "gameID"), 10, 64)
	if err != nil {
		h.CreateResponse(w, Response{Code: http.StatusBadRequest, Error: "invalid game id"})
		return
	}

	var req struct {
		UserID int64 `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.CreateResponse(w, Response{Code: http.StatusBadRequest, Error: "malformed request body"})
		return
	}

	player, err := h.gameService.InvitePlayer(r.Context(), gameID, userID, req.UserID)
	if err != nil {
		h.errorResponse(w, err)
		return
	}
	h.CreateResponse(w, Response{Code: http.StatusOK, Data: player})
}

// ListGamesHandler lists the caller's games, optionally filtered on
// completion (winner set or not).
func (h *Handler) ListGamesHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := h.authUserID(r)
	if err != nil {
		h.CreateResponse(w, Response{Code: http.StatusUnauthorized, Error: err.Error()})
		return
	}

	var completed *bool
	if v := r.URL.Query().Get("completed"); v != "" {
		c, err := strconv.ParseBool(v)
		if err != nil {
			h.CreateResponse(w, Response{Code: http.StatusBadRequest, Error: "invalid completed filter"})
			return
		}
		completed = &c
	}

	games, err := h.gameService.ListGamesForUser(r.Context(), userID, completed)
	if err != nil {
		h.errorResponse(w, err)
		return
	}
	h.CreateResponse(w, Response{Code: http.StatusOK, Data: games})
}

// GameDetailHandler returns a game with its players (cards as counts are
// rendered by the socket layer, not here).
func (h *Handler) GameDetailHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := h.authUserID(r)
	if err != nil {
		h.CreateResponse(w, Response{Code: http.StatusUnauthorized, Error: err.Error()})
		return
	}
	gameID, err := strconv.ParseInt(chi.URLParam(r, "gameID"), 10, 64)
	if err != nil {
		h.CreateResponse(w, Response{Code: http.StatusBadRequest, Error: "invalid game id"})
		return
	}

	game, err := h.gameService.GetGameByID(r.Context(), gameID)
	if err != nil {
		h.errorResponse(w, err)
		return
	}
	if game == nil {
		h.CreateResponse(w, Response{Code: http.StatusNotFound, Error: "game not found"})
		return
	}

	players, err := h.gameService.GetGamePlayers(r.Context(), gameID)
	if err != nil {
		h.errorResponse(w, err)
		return
	}

	isParticipant := false
	for _, p := range players {
		if p.UserID == userID {
			isParticipant = true
			break
		}
	}
	if !isParticipant {
		h.CreateResponse(w, Response{Code: http.StatusForbidden, Error: "not a participant of this game"})
		return
	}

	h.CreateResponse(w, Response{Code: http.StatusOK, Data: map[string]interface{}{
		"game":    game,
		"players": players,
	}})
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	rsp := Response{
		Message: "game service is running at port " + os.Getenv("GAME_SERVICE_PORT"),
		Code:    200,
		Data:    nil,
	}
	if err := json.NewEncoder(w).Encode(rsp); err != nil {
		log.Errorf("Failed to encode health response: %v", err)
	}
}
