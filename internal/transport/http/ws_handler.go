package http

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"mindgap-tutor/internal/app"
	"mindgap-tutor/internal/logger"
)

type WSHandler struct {
	service  *app.TutorService
	upgrader websocket.Upgrader
	log      *logger.Logger
}

func NewWSHandler(service *app.TutorService, log *logger.Logger) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: log.With("handler", "ws"),
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type lessonPayload struct {
	Topic  string `json:"topic"`
	Lesson string `json:"lesson"`
}

// ServeWS upgrades the request, starts a quiz session for the requested topic
// and drives it from client messages until the socket closes.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	topic := r.URL.Query().Get("topic")
	difficulty := r.URL.Query().Get("difficulty")
	if topic == "" {
		http.Error(w, "missing topic", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	started, err := h.service.Start(r.Context(), topic, difficulty)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	sessionID := started.State.SessionID
	defer h.service.Abandon(r.Context(), sessionID)

	out := newOutbox(16)

	// conn supports one concurrent writer; everything outbound goes through out.
	go func() {
		defer close(out.done)
		for msg := range out.send {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Warn("ws write error", "session", sessionID, "error", err)
				// unblock the read loop
				_ = conn.Close()
				return
			}
		}
	}()

	out.push(outboundMessage[any]{Type: "lesson", Payload: lessonPayload{Topic: started.State.Topic, Lesson: started.Lesson}})
	out.push(outboundMessage[any]{Type: "state", Payload: started.State})

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		var (
			st    app.State
			opErr error
			msg   outboundMessage[any]
		)
		switch inbound.Type {
		case "select":
			var payload selectRequest
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				msg = errorMessage("invalid select payload")
				break
			}
			st, opErr = h.service.Select(r.Context(), sessionID, payload.Option)
			msg = stateMessage(st, opErr)
		case "next":
			st, opErr = h.service.Advance(r.Context(), sessionID)
			msg = stateMessage(st, opErr)
		default:
			msg = errorMessage("unsupported message type")
		}
		if !out.push(msg) {
			break
		}
	}

	close(out.send)
	<-out.done
}

// outbox queues messages for the writer goroutine. push gives up once the
// writer has stopped so the read loop never blocks on a dead connection.
type outbox struct {
	send chan outboundMessage[any]
	done chan struct{}
}

func newOutbox(size int) outbox {
	return outbox{send: make(chan outboundMessage[any], size), done: make(chan struct{})}
}

func (o outbox) push(msg outboundMessage[any]) bool {
	select {
	case o.send <- msg:
		return true
	case <-o.done:
		return false
	}
}

func stateMessage(st app.State, err error) outboundMessage[any] {
	if err != nil {
		return errorMessage(err.Error())
	}
	return outboundMessage[any]{Type: "state", Payload: st}
}

func errorMessage(msg string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: msg}}
}
