package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"swap-telemetry-lab/internal/observability"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsMaxFrame     = maxBodyBytes
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// wsAck is the per-frame response on the streaming feed.
type wsAck struct {
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Records int    `json:"records,omitempty"`
	Wallets int    `json:"wallets,omitempty"`
	Deduped int    `json:"deduped,omitempty"`
}

// handleWS upgrades to a websocket feed of RawPayload frames. Each text frame
// carries one payload object or array and is answered with an ack frame;
// rejected frames do not close the connection.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("[server] ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(wsMaxFrame)

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Printf("[server] ws read: %v", err)
			}
			return
		}

		ack := s.ingestFrame(r, frame)
		if err := conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
			s.logger.Printf("[server] ws set write deadline: %v", err)
			return
		}
		if err := conn.WriteJSON(ack); err != nil {
			s.logger.Printf("[server] ws write: %v", err)
			return
		}
	}
}

func (s *Server) ingestFrame(r *http.Request, frame []byte) wsAck {
	payloads, err := decodePayloads(frame)
	if err != nil {
		observability.RecordPayloadRejected("malformed_json")
		return wsAck{Status: "rejected", Error: err.Error()}
	}
	observability.RecordPayloadReceived("ws")

	stats, err := s.intake.Ingest(r.Context(), payloads)
	if err != nil {
		var reject *RejectError
		if errors.As(err, &reject) {
			observability.RecordPayloadRejected("validation")
			return wsAck{Status: "rejected", Error: reject.Error()}
		}
		s.logger.Printf("[server] ws ingest failed: %v", err)
		return wsAck{Status: "error", Error: "storage failure"}
	}
	return wsAck{
		Status:  "ok",
		Records: stats.Records,
		Wallets: stats.Wallets,
		Deduped: stats.Deduped,
	}
}
