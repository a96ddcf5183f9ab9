package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
)

// APIHandler exposes the session management REST surface. The caller
// identity in X-Host-ID is verified upstream; the core trusts it.
type APIHandler struct {
	service *app.GameService
	log     zerolog.Logger
}

func NewAPIHandler(service *app.GameService, log zerolog.Logger) *APIHandler {
	return &APIHandler{service: service, log: log}
}

// Register mounts the game routes on the mux.
func (h *APIHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /games", h.createGame)
	mux.HandleFunc("POST /games/{pin}/join", h.joinGame)
	mux.HandleFunc("POST /games/{pin}/start", h.startGame)
	mux.HandleFunc("POST /games/{pin}/end", h.endGame)
	mux.HandleFunc("GET /games/{pin}", h.getGame)
	mux.HandleFunc("GET /games/{pin}/results", h.getResults)
}

type createGameRequest struct {
	QuizID   string          `json:"quizId"`
	Settings domain.Settings `json:"settings"`
}

type createGameResponse struct {
	Pin           string `json:"pin"`
	QuestionCount int    `json:"questionCount"`
}

func (h *APIHandler) createGame(w http.ResponseWriter, r *http.Request) {
	hostID := r.Header.Get("X-Host-ID")
	if hostID == "" {
		writeJSONError(w, http.StatusUnauthorized, "missing host identity")
		return
	}
	var req createGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.QuizID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	pin, count, err := h.service.CreateSession(r.Context(), hostID, req.QuizID, req.Settings)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createGameResponse{Pin: pin, QuestionCount: count})
}

type joinGameRequest struct {
	Name string `json:"name"`
}

type joinGameResponse struct {
	PlayerID string `json:"playerId"`
}

func (h *APIHandler) joinGame(w http.ResponseWriter, r *http.Request) {
	var req joinGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	playerID, err := h.service.Join(r.Context(), r.PathValue("pin"), req.Name)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, joinGameResponse{PlayerID: playerID})
}

func (h *APIHandler) startGame(w http.ResponseWriter, r *http.Request) {
	hostID := r.Header.Get("X-Host-ID")
	if hostID == "" {
		writeJSONError(w, http.StatusUnauthorized, "missing host identity")
		return
	}
	if err := h.service.Start(r.Context(), r.PathValue("pin"), hostID); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "started"})
}

func (h *APIHandler) endGame(w http.ResponseWriter, r *http.Request) {
	hostID := r.Header.Get("X-Host-ID")
	if hostID == "" {
		writeJSONError(w, http.StatusUnauthorized, "missing host identity")
		return
	}
	if err := h.service.EndGame(r.Context(), r.PathValue("pin"), hostID); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "finished"})
}

func (h *APIHandler) getGame(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Snapshot(r.PathValue("pin"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *APIHandler) getResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.service.Results(r.PathValue("pin"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *APIHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrPlayerNotFound):
		writeJSONError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrNotHost):
		writeJSONError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, domain.ErrNoPlayers),
		errors.Is(err, domain.ErrDuplicateAnswer),
		errors.Is(err, domain.ErrStaleQuestion):
		writeJSONError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidQuiz):
		writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrPinExhausted):
		writeJSONError(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.log.Error().Err(err).Msg("unexpected API error")
		writeJSONError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
