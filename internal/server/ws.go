package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/ayusman/signcoach/internal/landmark"
	"github.com/ayusman/signcoach/internal/practice"
	"github.com/ayusman/signcoach/internal/server/api"
	"github.com/ayusman/signcoach/internal/templates"
)

// maxMessageSize bounds one client message; a frame is well under 4 KiB.
const maxMessageSize = 64 << 10

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// Client message types.
const (
	msgStart   = "start"
	msgFrame   = "frame"
	msgStop    = "stop"
	msgAbandon = "abandon"
)

// Server message types.
const (
	msgStarted   = "started"
	msgResult    = "result"
	msgAbandoned = "abandoned"
	msgError     = "error"
)

// clientMessage is a message received from a practice client.
type clientMessage struct {
	Type      string              `json:"type"`
	Symbol    string              `json:"symbol,omitempty"`
	Landmarks []landmark.RawPoint `json:"landmarks,omitempty"`
}

// serverMessage is a message sent to a practice client.
type serverMessage struct {
	Type    string              `json:"type"`
	Session string              `json:"session,omitempty"`
	Symbol  string              `json:"symbol,omitempty"`
	Result  *api.ResultResponse `json:"result,omitempty"`
	Message string              `json:"message,omitempty"`
}

// PracticeHandler streams practice attempts over a WebSocket. The client
// starts an attempt for a symbol, pushes one landmark frame per message and
// stops the attempt to receive its result. A connection holds at most one
// session, removed when the connection closes.
type PracticeHandler struct {
	practice *practice.Coordinator
	logger   *slog.Logger
}

// NewPracticeHandler creates a PracticeHandler backed by c.
func NewPracticeHandler(c *practice.Coordinator, logger *slog.Logger) *PracticeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PracticeHandler{practice: c, logger: logger}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *PracticeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade error", "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)

	var session *practice.Session
	defer func() {
		if session != nil {
			h.practice.Remove(session.ID)
		}
	}()

	ctx := r.Context()
	for {
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("practice connection closed", "error", err)
			}
			return
		}

		var reply *serverMessage
		switch msg.Type {
		case msgStart:
			if session != nil {
				h.practice.Remove(session.ID)
				session = nil
			}
			s, err := h.practice.Start(ctx, msg.Symbol)
			if err != nil {
				reply = errorMessage(startError(err))
				break
			}
			session = s
			reply = &serverMessage{Type: msgStarted, Session: s.ID, Symbol: s.Symbol}

		case msgFrame:
			if session == nil {
				reply = errorMessage("no attempt started")
				break
			}
			f, err := landmark.ParseLandmarks(msg.Landmarks)
			if err == nil {
				err = landmark.ValidateFrame(f)
			}
			if err != nil {
				reply = errorMessage(err.Error())
				break
			}
			// Frames that arrive after stop are dropped.
			session.AddFrame(f)

		case msgStop:
			if session == nil {
				reply = errorMessage("no attempt started")
				break
			}
			result, err := h.practice.Evaluate(ctx, session.ID)
			if err != nil {
				reply = errorMessage(err.Error())
				break
			}
			resp := api.NewResultResponse(result)
			reply = &serverMessage{Type: msgResult, Session: session.ID, Symbol: session.Symbol, Result: &resp}

		case msgAbandon:
			if session != nil {
				session.Abandon()
			}
			reply = &serverMessage{Type: msgAbandoned}

		default:
			reply = errorMessage("unknown message type " + msg.Type)
		}

		if reply == nil {
			continue
		}
		if err := conn.WriteJSON(reply); err != nil {
			h.logger.Debug("practice write failed", "error", err)
			return
		}
	}
}

func errorMessage(text string) *serverMessage {
	return &serverMessage{Type: msgError, Message: text}
}

func startError(err error) string {
	if errors.Is(err, templates.ErrUnknownSymbol) {
		return "unknown symbol"
	}
	return err.Error()
}
