// Package api provides the JSON handlers for counter and game state.
package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ayusman/handplay/internal/app"
	"github.com/ayusman/handplay/internal/game"
)

// Source is the application state exposed over HTTP.
type Source interface {
	Mode() app.Mode
	CounterState() app.CounterState
	GameState() game.Snapshot
	Restart()
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// CounterHandler serves GET /api/counter.
type CounterHandler struct {
	source Source
}

// NewCounterHandler creates a new CounterHandler reading from source.
func NewCounterHandler(source Source) *CounterHandler {
	return &CounterHandler{source: source}
}

func (h *CounterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, h.source.CounterState())
}

// GameHandler serves GET /api/game and POST /api/game/restart.
type GameHandler struct {
	source Source
}

// NewGameHandler creates a new GameHandler for source.
func NewGameHandler(source Source) *GameHandler {
	return &GameHandler{source: source}
}

func (h *GameHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/game")
	path = strings.Trim(path, "/")

	switch path {
	case "":
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		writeJSON(w, http.StatusOK, h.source.GameState())

	case "restart":
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		if h.source.Mode() != app.ModeGame {
			writeError(w, http.StatusConflict, "Game is not running in this mode")
			return
		}
		h.source.Restart()
		writeJSON(w, http.StatusOK, h.source.GameState())

	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}
