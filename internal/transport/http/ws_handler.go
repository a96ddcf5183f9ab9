package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
)

// WSHandler upgrades HTTP requests to websockets and wires them into the
// game coordinator. A connection carries one identity: the session host
// (role=host) or one player (role=player).
type WSHandler struct {
	service  *app.GameService
	registry *app.ConnectionRegistry
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewWSHandler(service *app.GameService, registry *app.ConnectionRegistry, log zerolog.Logger) *WSHandler {
	return &WSHandler{
		service:  service,
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type joinPayload struct {
	Name string `json:"name"`
}

type joinedPayload struct {
	Pin      string `json:"pin"`
	PlayerID string `json:"playerId"`
}

type submitPayload struct {
	QuestionIndex int   `json:"questionIndex"`
	AnswerIndex   int   `json:"answerIndex"`
	TimeTakenMs   int64 `json:"timeTakenMs"`
}

type errorPayload struct {
	Message string `json:"message"`
}

var errSendBufferFull = errors.New("send buffer full")

// wsConn adapts one websocket connection to app.Conn. Send never blocks:
// a full buffer drops the event and reports it, so a stalled peer cannot
// hold up the game loop.
type wsConn struct {
	mu     sync.Mutex
	closed bool
	send   chan app.Event
}

func newWSConn() *wsConn {
	return &wsConn{send: make(chan app.Event, 32)}
}

func (c *wsConn) Send(ev app.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- ev:
		return nil
	default:
		return errSendBufferFull
	}
}

func (c *wsConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// ServeWS handles /ws?pin=...&role=host|player. Hosts authenticate with
// hostId (verified upstream); players either reconnect with playerId or
// join with a join message after connecting.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	pin := r.URL.Query().Get("pin")
	role := r.URL.Query().Get("role")
	if pin == "" || (role != "host" && role != "player") {
		http.Error(w, "missing pin or role", http.StatusBadRequest)
		return
	}

	hostID := r.URL.Query().Get("hostId")
	if role == "host" {
		if hostID == "" {
			http.Error(w, "missing hostId", http.StatusBadRequest)
			return
		}
		// Only the creating host may attach to the host event stream.
		if err := h.service.VerifyHost(pin, hostID); err != nil {
			status := http.StatusForbidden
			if errors.Is(err, domain.ErrSessionNotFound) {
				status = http.StatusNotFound
			}
			http.Error(w, err.Error(), status)
			return
		}
	}
	playerID := r.URL.Query().Get("playerId")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	wsc := newWSConn()
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for ev := range wsc.send {
			if err := conn.WriteJSON(ev); err != nil {
				h.log.Debug().Err(err).Str("pin", pin).Msg("ws write error")
				return
			}
		}
	}()

	var identity app.Identity
	registered := false
	register := func(id app.Identity) {
		identity = id
		registered = true
		h.registry.Register(id, wsc)
	}

	switch role {
	case "host":
		register(app.HostIdentity(pin))
	case "player":
		if playerID != "" {
			// Reconnect: the player record survives disconnects, so the
			// same identity resumes with its score intact.
			register(app.PlayerIdentity(pin, playerID))
		}
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "join":
			if role != "player" || registered {
				_ = wsc.Send(app.Event{Type: "error", Payload: errorPayload{Message: "already joined"}})
				continue
			}
			var payload joinPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.Name == "" {
				_ = wsc.Send(app.Event{Type: "error", Payload: errorPayload{Message: "invalid join payload"}})
				continue
			}
			id, err := h.service.Join(r.Context(), pin, payload.Name)
			if err != nil {
				_ = wsc.Send(app.Event{Type: "error", Payload: errorPayload{Message: err.Error()}})
				continue
			}
			playerID = id
			register(app.PlayerIdentity(pin, id))
			_ = wsc.Send(app.Event{Type: "joined", Payload: joinedPayload{Pin: pin, PlayerID: id}})

		case "start":
			if role != "host" {
				_ = wsc.Send(app.Event{Type: "error", Payload: errorPayload{Message: "host only"}})
				continue
			}
			if err := h.service.Start(r.Context(), pin, hostID); err != nil {
				_ = wsc.Send(app.Event{Type: "error", Payload: errorPayload{Message: err.Error()}})
			}

		case "end":
			if role != "host" {
				_ = wsc.Send(app.Event{Type: "error", Payload: errorPayload{Message: "host only"}})
				continue
			}
			if err := h.service.EndGame(r.Context(), pin, hostID); err != nil {
				_ = wsc.Send(app.Event{Type: "error", Payload: errorPayload{Message: err.Error()}})
			}

		case "submitAnswer":
			if role != "player" || playerID == "" {
				_ = wsc.Send(app.Event{Type: "error", Payload: errorPayload{Message: "join first"}})
				continue
			}
			var payload submitPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				_ = wsc.Send(app.Event{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}})
				continue
			}
			// The acknowledgment arrives as an answerResult event routed
			// through the registry to this same connection.
			if _, err := h.service.SubmitAnswer(r.Context(), pin, playerID, payload.QuestionIndex, payload.AnswerIndex, payload.TimeTakenMs); err != nil {
				_ = wsc.Send(app.Event{Type: "error", Payload: errorPayload{Message: err.Error()}})
			}

		default:
			_ = wsc.Send(app.Event{Type: "error", Payload: errorPayload{Message: "unsupported message type"}})
		}
	}

	if registered {
		h.registry.Unregister(identity)
	}
	wsc.Close()
	<-writerDone
}
