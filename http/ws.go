package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"premiumcalc/ml"
)

const (
	socketWriteWait = 10 * time.Second
	socketIdle      = 5 * time.Minute
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// socketMessage is the frame sent back for every submission.
type socketMessage struct {
	Type  string         `json:"type"`
	Quote *quoteResponse `json:"quote,omitempty"`
	Error string         `json:"error,omitempty"`
}

// handleQuoteSocket prices every RiskInput frame the client sends, one at a
// time and in order. A bad frame gets an error reply; the connection stays
// open for the next attempt.
func (h *handlers) handleQuoteSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	requestID := GetRequestID(r.Context())
	h.logger.Info("quote socket connected", zap.String("request_id", requestID))

	for {
		conn.SetReadDeadline(time.Now().Add(socketIdle))
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("quote socket read failed", zap.String("request_id", requestID), zap.Error(err))
			}
			return
		}

		reply := h.socketReply(payload)
		message, err := json.Marshal(reply)
		if err != nil {
			h.logger.Error("encode socket reply failed", zap.Error(err))
			return
		}
		conn.SetWriteDeadline(time.Now().Add(socketWriteWait))
		if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
			h.logger.Warn("quote socket write failed", zap.String("request_id", requestID), zap.Error(err))
			return
		}
	}
}

func (h *handlers) socketReply(payload []byte) socketMessage {
	var input ml.RiskInput
	if err := json.Unmarshal(payload, &input); err != nil {
		return socketMessage{Type: "error", Error: fmt.Errorf("%w: %v", errMalformed, err).Error()}
	}
	q, err := h.quotes.Quote(input)
	if err != nil {
		return socketMessage{Type: "error", Error: err.Error()}
	}
	resp := newQuoteResponse(q)
	return socketMessage{Type: "quote", Quote: &resp}
}
