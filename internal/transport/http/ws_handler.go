package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"trivia-match-service/internal/app"
	"trivia-match-service/internal/domain"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"
)

const writeWait = 5 * time.Second

type WSHandler struct {
	service  *app.MatchService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.MatchService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// inboundMessage is a player action. The player id is bound to the
// connection, so any playerId sent by the client is ignored.
type inboundMessage struct {
	Type        domain.ActionKind `json:"type"`
	Value       string            `json:"value"`
	DisplayName string            `json:"displayName"`
}

type outboundMessage struct {
	Type    domain.EventType `json:"type"`
	Payload any              `json:"payload"`
}

// ServeWS upgrades the request, joins the player to the room and relays
// actions and events until either side goes away. A dropped connection is
// treated as a leave.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	sessionID := ps.ByName("id")
	playerID := r.URL.Query().Get("playerId")
	displayName := r.URL.Query().Get("name")
	if displayName == "" {
		http.Error(w, "missing name", http.StatusBadRequest)
		return
	}
	if playerID == "" {
		playerID = uuid.NewString()
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	// Subscribe before joining so the player sees their own join event.
	events, cancel, err := h.service.Subscribe(r.Context(), sessionID)
	if err != nil {
		writeRejected(conn, sessionID, domain.ActionJoin, err)
		return
	}
	defer cancel()

	joined, err := h.service.Join(r.Context(), sessionID, playerID, displayName)
	if err != nil {
		writeRejected(conn, sessionID, domain.ActionJoin, err)
		return
	}
	defer h.leave(sessionID, playerID)

	logger := log.With().Str("session_id", sessionID).Str("player_id", playerID).Logger()
	logger.Info().Msg("ws connected")

	send := make(chan any, 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	eventsDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				logger.Warn().Err(err).Msg("ws write error")
				return
			}
		}
	}()

	go func() {
		defer close(eventsDone)
		for {
			select {
			case evt, ok := <-events:
				if !ok {
					// Room reclaimed or this client fell behind.
					_ = conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"),
						time.Now().Add(writeWait))
					_ = conn.Close()
					return
				}
				select {
				case send <- evt:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage{Type: "joined", Payload: joined}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug().Err(err).Msg("ws closed unexpectedly")
			}
			break
		}
		action := domain.Action{
			Kind:        inbound.Type,
			PlayerID:    playerID,
			DisplayName: inbound.DisplayName,
			Value:       inbound.Value,
		}
		if action.Kind == domain.ActionJoin && action.DisplayName == "" {
			action.DisplayName = displayName
		}
		if err := h.service.Dispatch(r.Context(), sessionID, action); err != nil {
			logger.Debug().Err(err).Str("action", string(action.Kind)).Msg("action rejected")
			send <- rejected(sessionID, action.Kind, err)
			continue
		}
		if action.Kind == domain.ActionLeave {
			break
		}
	}

	close(closeSignals)
	<-eventsDone
	close(send)
	<-writerDone
	logger.Info().Msg("ws disconnected")
}

func (h *WSHandler) leave(sessionID, playerID string) {
	err := h.service.Leave(context.Background(), sessionID, playerID)
	if err != nil && !errors.Is(err, domain.ErrUnknownPlayer) && !errors.Is(err, domain.ErrSessionNotFound) {
		log.Warn().Err(err).Str("session_id", sessionID).Str("player_id", playerID).Msg("leave on disconnect failed")
	}
}

func rejected(sessionID string, kind domain.ActionKind, err error) domain.Event {
	return domain.Event{
		Type:       domain.EventRejected,
		SessionID:  sessionID,
		OccurredAt: time.Now(),
		Payload:    domain.Reject(kind, err),
	}
}

func writeRejected(conn *websocket.Conn, sessionID string, kind domain.ActionKind, err error) {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteJSON(rejected(sessionID, kind, err))
}
