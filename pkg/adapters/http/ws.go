package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aretw0/parley/internal/dto"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/gorilla/websocket"
)

// maxMessageSize bounds inbound websocket frames.
const maxMessageSize = 4096

// Websocket message types.
const (
	MessageStart   = "start"
	MessageAdvance = "advance"
	MessageChoose  = "choose"
	MessageEnd     = "end"
	MessageState   = "state"
	MessageStep    = "step"
	MessageError   = "error"
)

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type outboundMessage struct {
	Type  string    `json:"type"`
	Step  *dto.Step `json:"step,omitempty"`
	Error string    `json:"error,omitempty"`
}

// ServeWS plays dialogues over a websocket. Every inbound message is answered
// with the resulting step or an error:
//
//	{"type":"start","payload":{"document_id":"tavern"}}
//	{"type":"advance"}
//	{"type":"choose","payload":{"choice":2}}
//	{"type":"end"}
//	{"type":"state"}
func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("websocket read failed", "err", err)
			}
			return
		}
		if err := conn.WriteJSON(s.handleMessage(r.Context(), data)); err != nil {
			s.logger.Warn("websocket write failed", "err", err)
			return
		}
	}
}

func (s *Server) handleMessage(ctx context.Context, data []byte) outboundMessage {
	var msg inboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return outboundMessage{Type: MessageError, Error: err.Error()}
	}

	var (
		step domain.Step
		err  error
	)
	switch msg.Type {
	case MessageStart:
		var payload struct {
			DocumentID string `json:"document_id"`
		}
		if err := decodePayload(msg.Payload, &payload); err != nil {
			return outboundMessage{Type: MessageError, Error: err.Error()}
		}
		step, err = s.Engine.Play(ctx, payload.DocumentID)
	case MessageAdvance:
		step, err = s.Engine.Resume(ctx, domain.Advance())
	case MessageChoose:
		var payload struct {
			Choice int `json:"choice"`
		}
		if err := decodePayload(msg.Payload, &payload); err != nil {
			return outboundMessage{Type: MessageError, Error: err.Error()}
		}
		step, err = s.Engine.Resume(ctx, domain.Choose(payload.Choice))
	case MessageEnd:
		if err = s.Engine.End(ctx); err == nil {
			step, _ = s.Engine.Current()
		}
	case MessageState:
		step, _ = s.Engine.Current()
		if step.Status == "" {
			err = domain.ErrNoActiveSession
		}
	default:
		err = fmt.Errorf("%w: message type %q", domain.ErrUnexpectedInput, msg.Type)
	}
	if err != nil {
		return outboundMessage{Type: MessageError, Error: err.Error()}
	}

	if msg.Type != MessageState {
		s.broadcast(step)
	}
	out := dto.FromStep(step, s.Engine.Render)
	return outboundMessage{Type: MessageStep, Step: &out}
}

func decodePayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return fmt.Errorf("missing payload")
	}
	return json.Unmarshal(raw, v)
}
