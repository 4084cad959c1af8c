package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"token-risk-engine/internal/domain"
)

const wsWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// wsAnalyzeRequest is the first message a WebSocket client sends.
type wsAnalyzeRequest struct {
	Tokens []domain.TokenRequest `json:"tokens"`
}

// handleAnalyzeWS serves the batch feed over a WebSocket connection.
// The client sends a single JSON request message, then receives one
// JSON message per stream event until the batch is done.
func (s *Server) handleAnalyzeWS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	tier, err := s.auth.Authenticate(r)
	if err != nil {
		httpError(w, http.StatusUnauthorized, err.Error())
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	_, payload, err := conn.ReadMessage()
	if err != nil {
		return
	}
	var req wsAnalyzeRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		s.writeWSClose(conn, websocket.ClosePolicyViolation, "invalid request message")
		return
	}
	if len(req.Tokens) == 0 {
		s.writeWSClose(conn, websocket.ClosePolicyViolation, "tokens must not be empty")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Read pump: the client is not expected to send anything else.
	// A read error (including close) cancels the batch.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	out := make(chan domain.StreamMessage, streamBuffer)
	go s.runner.Run(ctx, tier, req.Tokens, out)

	for msg := range out {
		conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(msg); err != nil {
			s.logger.Printf("websocket write: %v", err)
			cancel()
			for range out {
			}
			return
		}
	}

	s.writeWSClose(conn, websocket.CloseNormalClosure, "")
}

func (s *Server) writeWSClose(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	conn.WriteMessage(websocket.CloseMessage, msg)
}
