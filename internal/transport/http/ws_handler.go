package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"wordsprint/internal/app"
)

// WSHandler streams one session: state messages after every transition and
// tick messages carrying the live clock.
type WSHandler struct {
	service  *app.GameService
	tick     time.Duration
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.GameService, tick time.Duration) *WSHandler {
	return &WSHandler{
		service: service,
		tick:    tick,
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

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type tickPayload struct {
	ElapsedSeconds int    `json:"elapsedSeconds"`
	Clock          string `json:"clock"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and wires the socket to the session.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	session, updates, cancel, err := h.service.Subscribe(r.Context(), id)
	if err != nil {
		respondWithErr(w, r, err)
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx, stop := context.WithCancel(r.Context())
	defer stop()
	ticks := app.Ticks(ctx, session, h.tick)

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	pumpDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	// push gives up once the writer has stopped, so a dead socket never blocks
	// the reader or the pump.
	push := func(msg outboundMessage[any]) bool {
		select {
		case send <- msg:
			return true
		case <-writerDone:
			return false
		}
	}

	go func() {
		defer close(pumpDone)
		for {
			var msg outboundMessage[any]
			select {
			case snap, ok := <-updates:
				if !ok {
					// session discarded; unblock the reader
					_ = conn.SetReadDeadline(time.Now())
					return
				}
				msg = outboundMessage[any]{Type: "state", Payload: snap}
			case secs, ok := <-ticks:
				if !ok {
					ticks = nil
					continue
				}
				msg = outboundMessage[any]{Type: "tick", Payload: tickPayload{ElapsedSeconds: secs, Clock: app.FormatClock(secs)}}
			case <-closeSignals:
				return
			}
			select {
			case send <- msg:
			case <-writerDone:
				return
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if !push(h.handle(r.Context(), id, inbound)) {
			break
		}
	}

	close(closeSignals)
	stop()
	<-pumpDone
	close(send)
	<-writerDone
}

func (h *WSHandler) handle(ctx context.Context, id string, in inboundMessage) outboundMessage[any] {
	switch in.Type {
	case "answer":
		var payload answerRequest
		if err := json.Unmarshal(in.Payload, &payload); err != nil {
			return errorMessage("invalid answer payload")
		}
		result, _, err := h.service.Answer(ctx, id, payload.Answer)
		if err != nil {
			return errorMessage(err.Error())
		}
		return outboundMessage[any]{Type: "answerResult", Payload: result}
	case "next":
		snap, err := h.service.Next(ctx, id)
		if err != nil {
			return errorMessage(err.Error())
		}
		return outboundMessage[any]{Type: "state", Payload: snap}
	case "snapshot":
		snap, err := h.service.Snapshot(ctx, id)
		if err != nil {
			return errorMessage(err.Error())
		}
		return outboundMessage[any]{Type: "state", Payload: snap}
	}
	return errorMessage("unsupported message type")
}

func errorMessage(msg string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: msg}}
}
