package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/editor"
	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/results"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsIncoming is a message from the client.
type wsIncoming struct {
	Type   string `json:"type"` // source, reset, run or tests
	Source string `json:"source,omitempty"`
}

// wsOutgoing is a message to the client.
type wsOutgoing struct {
	Type    string                 `json:"type"` // saved, output, summary or error
	Content string                 `json:"content,omitempty"`
	Output  *editor.RunOutput      `json:"output,omitempty"`
	Summary *results.PublicSummary `json:"summary,omitempty"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sess, es, err := s.resolve(r)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade", zap.Error(err))
		return
	}
	defer conn.Close()

	logger := s.logger.With(zap.String("session", sess.ID))
	ctx := r.Context()

	for {
		var msg wsIncoming
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("websocket read", zap.Error(err))
			}
			return
		}

		// Messages are handled in order; a run blocks further reads on this
		// connection until it finishes.
		var out wsOutgoing
		switch msg.Type {
		case "source":
			es.SetSource(ctx, msg.Source)
			out = wsOutgoing{Type: "saved"}
		case "reset":
			es.Reset(ctx)
			out = wsOutgoing{Type: "saved", Content: es.Source()}
		case "run":
			res, err := es.RunCode(ctx)
			out = wsResult(err, func() wsOutgoing { return wsOutgoing{Type: "output", Output: &res} })
		case "tests":
			summary, err := es.RunTests(ctx)
			out = wsResult(err, func() wsOutgoing { return wsOutgoing{Type: "summary", Summary: &summary} })
		default:
			out = wsOutgoing{Type: "error", Content: "invalid message"}
		}
		wsWriteJSON(conn, out, logger)
	}
}

func wsResult(err error, ok func() wsOutgoing) wsOutgoing {
	if err == nil {
		return ok()
	}
	if errors.Is(err, editor.ErrBusy) {
		return wsOutgoing{Type: "error", Content: "busy"}
	}
	return wsOutgoing{Type: "error", Content: err.Error()}
}

func wsWriteJSON(conn *websocket.Conn, v any, logger *zap.Logger) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Error("websocket marshal", zap.Error(err))
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		logger.Debug("websocket write", zap.Error(err))
	}
}
