package http

import (
	"encoding/json"
	"log"
	"net/http"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"timed-quiz-service/internal/app"
	"timed-quiz-service/internal/domain"
)

// WSHandler is the presentation-layer boundary: one socket per session. The
// client drives the run with discrete events and receives a render-ready view
// after every mutation, including countdown ticks and the forced finish.
type WSHandler struct {
	service  *app.SessionService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.SessionService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	OptionIndex int `json:"optionIndex"`
}

// navigatePayload carries the option the UI currently has selected but not
// yet committed; next/prev/finish commit it before acting.
type navigatePayload struct {
	Selected *int `json:"selected,omitempty"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and wires the socket into the session
// controller. quizId and userId identify the run; a reconnect resumes it from
// the persisted snapshot.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	userID := r.URL.Query().Get("userId")
	if quizID == "" || userID == "" {
		http.Error(w, "missing quizId or userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	key := app.SessionKey(quizID, userID)
	view, err := h.service.Load(r.Context(), quizID, userID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	updates, cancel, err := h.service.Subscribe(key)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()
	defer h.service.Leave(key)

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})
	var summarySent atomic.Bool

	go func() {
		defer close(writerDone)
		broken := false
		for msg := range send {
			if broken {
				continue
			}
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				// Keep draining so senders never block on a dead socket.
				broken = true
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "view", Payload: update}:
				case <-closeSignals:
					return
				}
				// The countdown can force a finish with no client event;
				// push the summary so the client learns the outcome.
				if update.Finished && summarySent.CompareAndSwap(false, true) {
					if summary, err := h.service.Finish(r.Context(), key, nil); err == nil {
						select {
						case send <- outboundMessage[any]{Type: "summary", Payload: summary}:
						case <-closeSignals:
							return
						}
					}
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "view", Payload: view}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.handle(r, key, inbound, send, &summarySent)
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func (h *WSHandler) handle(r *http.Request, key string, inbound inboundMessage, send chan<- outboundMessage[any], summarySent *atomic.Bool) {
	ctx := r.Context()
	switch inbound.Type {
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}
			return
		}
		view, err := h.service.Answer(ctx, key, payload.OptionIndex)
		if err != nil {
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
			return
		}
		send <- outboundMessage[any]{Type: "view", Payload: view}
	case "next", "prev":
		var payload navigatePayload
		if len(inbound.Payload) > 0 {
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid navigate payload"}}
				return
			}
		}
		var (
			view domain.View
			err  error
		)
		if inbound.Type == "next" {
			view, err = h.service.Next(ctx, key, payload.Selected)
		} else {
			view, err = h.service.Prev(ctx, key, payload.Selected)
		}
		if err != nil {
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
			return
		}
		send <- outboundMessage[any]{Type: "view", Payload: view}
	case "finish":
		var payload navigatePayload
		if len(inbound.Payload) > 0 {
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid finish payload"}}
				return
			}
		}
		summary, err := h.service.Finish(ctx, key, payload.Selected)
		if err != nil {
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
			return
		}
		summarySent.Store(true)
		send <- outboundMessage[any]{Type: "summary", Payload: summary}
	case "restart":
		view, err := h.service.Restart(ctx, key)
		if err != nil {
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
			return
		}
		summarySent.Store(false)
		send <- outboundMessage[any]{Type: "view", Payload: view}
	case "review":
		review, err := h.service.Review(ctx, key)
		if err != nil {
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
			return
		}
		send <- outboundMessage[any]{Type: "review", Payload: review}
	default:
		send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
	}
}
