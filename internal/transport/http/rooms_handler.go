package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"trivia-match-service/internal/app"
	"trivia-match-service/internal/domain"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"
	qrcode "github.com/skip2/go-qrcode"
)

const qrSize = 320

type RoomsHandler struct {
	service *app.MatchService
}

func NewRoomsHandler(service *app.MatchService) *RoomsHandler {
	return &RoomsHandler{service: service}
}

type createRoomRequest struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Capacity         int    `json:"capacity"`
	TimeBudgetMs     int64  `json:"timeBudgetMs"`
	ResultsDelayMs   int64  `json:"resultsDelayMs"`
	QuestionSetID    string `json:"questionSetId"`
	QuestionsPerGame int    `json:"questionsPerGame"`
	Shuffle          *bool  `json:"shuffle"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (h *RoomsHandler) Health(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	_, _ = w.Write([]byte("ok"))
}

// List serves the room directory; ?waiting=true limits it to joinable rooms.
func (h *RoomsHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	waitingOnly := r.URL.Query().Get("waiting") == "true"
	writeJSON(w, http.StatusOK, h.service.ListRooms(waitingOnly))
}

func (h *RoomsHandler) Stats(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, h.service.Stats())
}

func (h *RoomsHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Code: "BAD_REQUEST", Message: "invalid room payload"})
		return
	}
	room, err := h.service.CreateRoom(r.Context(), app.SessionConfig{
		ID:               req.ID,
		Name:             req.Name,
		Capacity:         req.Capacity,
		TimeBudget:       time.Duration(req.TimeBudgetMs) * time.Millisecond,
		ResultsDelay:     time.Duration(req.ResultsDelayMs) * time.Millisecond,
		QuestionSetID:    req.QuestionSetID,
		QuestionsPerGame: req.QuestionsPerGame,
		Shuffle:          req.Shuffle,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, room)
}

func (h *RoomsHandler) Get(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	snap, err := h.service.Snapshot(ps.ByName("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// QR renders a PNG QR code pointing at the room's websocket endpoint.
func (h *RoomsHandler) QR(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	sessionID := ps.ByName("id")
	if _, err := h.service.Snapshot(sessionID); err != nil {
		writeError(w, err)
		return
	}

	scheme := "ws"
	if r.TLS != nil {
		scheme = "wss"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "https" {
		scheme = "wss"
	}
	url := scheme + "://" + r.Host + strings.TrimSuffix(r.URL.Path, "/qr") + "/ws"

	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("qr generation failed")
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrQuestionSetNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrSessionExists):
		status = http.StatusConflict
	}
	rej := domain.Reject("", err)
	if errors.Is(err, domain.ErrSessionExists) {
		rej.ReasonCode = "SESSION_EXISTS"
	}
	writeJSON(w, status, errorPayload{Code: rej.ReasonCode, Message: rej.Message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Warn().Err(err).Msg("write response failed")
	}
}
