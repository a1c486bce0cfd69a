// Package natshandler serves run and grade requests over NATS request/reply.
// Requests execute in the worker's own engine; requested timeouts are capped
// by the sandbox policy.
package natshandler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/engine"
	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/execution"
	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/results"
)

// QueueGroup load-balances requests across worker processes.
const QueueGroup = "assess-workers"

// RunRequest asks for one scratch execution.
type RunRequest struct {
	Language  string `json:"language"`
	Code      string `json:"code"`
	Stdin     string `json:"stdin,omitempty"`
	TimeoutMs int64  `json:"timeout_ms,omitempty"`
}

// RunReply carries the execution result, or Error when the request itself was invalid.
type RunReply struct {
	Result *execution.Result `json:"result,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// GradeRequest asks for a submission to be graded against a question.
type GradeRequest struct {
	QuestionID string `json:"question_id"`
	Code       string `json:"code"`
}

// GradeReply carries only the public summary; hidden case details never
// leave the worker.
type GradeReply struct {
	Summary *results.PublicSummary `json:"summary,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

// Handler answers requests using an engine.
type Handler struct {
	engine *engine.Engine
	logger *zap.Logger
}

// New creates a Handler.
func New(eng *engine.Engine, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{engine: eng, logger: logger}
}

// RunSubject and GradeSubject build the request subjects for prefix.
func RunSubject(prefix string) string   { return prefix + ".run.request" }
func GradeSubject(prefix string) string { return prefix + ".grade.request" }

// Subscribe registers both handlers on nc as queue subscribers.
func (h *Handler) Subscribe(ctx context.Context, nc *nats.Conn, prefix string) ([]*nats.Subscription, error) {
	routes := []struct {
		subject string
		handle  func(context.Context, []byte) []byte
	}{
		{RunSubject(prefix), h.HandleRun},
		{GradeSubject(prefix), h.HandleGrade},
	}

	var subs []*nats.Subscription
	for _, route := range routes {
		handle := route.handle
		sub, err := nc.QueueSubscribe(route.subject, QueueGroup, func(msg *nats.Msg) {
			reply := handle(ctx, msg.Data)
			if msg.Reply == "" {
				return
			}
			if err := msg.Respond(reply); err != nil {
				h.logger.Warn("responding", zap.String("subject", msg.Subject), zap.Error(err))
			}
		})
		if err != nil {
			for _, s := range subs {
				s.Unsubscribe()
			}
			return nil, fmt.Errorf("subscribing to %s: %w", route.subject, err)
		}
		h.logger.Info("subscribed", zap.String("subject", route.subject), zap.String("queue", QueueGroup))
		subs = append(subs, sub)
	}
	return subs, nil
}

// HandleRun decodes a RunRequest and returns an encoded RunReply.
func (h *Handler) HandleRun(ctx context.Context, data []byte) []byte {
	var req RunRequest
	if err := json.Unmarshal(data, &req); err != nil {
		h.logger.Warn("invalid run request", zap.Error(err))
		return encode(RunReply{Error: "invalid request: " + err.Error()})
	}
	lang, err := execution.ParseLanguage(req.Language)
	if err != nil {
		return encode(RunReply{Error: err.Error()})
	}

	result := h.engine.Run(ctx, execution.Request{
		Language: lang,
		Source:   req.Code,
		Stdin:    req.Stdin,
	}, time.Duration(req.TimeoutMs)*time.Millisecond)
	return encode(RunReply{Result: &result})
}

// HandleGrade decodes a GradeRequest and returns an encoded GradeReply.
func (h *Handler) HandleGrade(ctx context.Context, data []byte) []byte {
	var req GradeRequest
	if err := json.Unmarshal(data, &req); err != nil {
		h.logger.Warn("invalid grade request", zap.Error(err))
		return encode(GradeReply{Error: "invalid request: " + err.Error()})
	}
	q, err := h.engine.Question(req.QuestionID)
	if err != nil {
		return encode(GradeReply{Error: err.Error()})
	}

	summary := h.engine.GradePublic(ctx, q, req.Code)
	h.logger.Info("graded",
		zap.String("question", q.ID),
		zap.Int("passed", summary.PassedCases),
		zap.Int("total", summary.TotalCases))
	return encode(GradeReply{Summary: &summary})
}

func encode(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		// Replies are plain structs of strings and numbers.
		return []byte(`{"error":"encoding reply"}`)
	}
	return data
}
