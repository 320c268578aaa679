package action

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// InvalidActionText is returned for an (actionGroup, function) pair nobody registered.
const InvalidActionText = "Invalid actionGroup or function"

// HandlerFunc answers one agent function call with user-facing text. Failures are part of the
// text; there is no error channel back to the agent.
type HandlerFunc func(ctx context.Context, ev Event) string

type routeKey struct {
	group    string
	function string
}

// Router dispatches agent events on their (actionGroup, function) pair.
type Router struct {
	routes map[routeKey]HandlerFunc
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		routes: make(map[routeKey]HandlerFunc),
		logger: logger,
	}
}

// Handle registers h for function within actionGroup. Registering a pair twice panics.
func (r *Router) Handle(actionGroup, function string, h HandlerFunc) {
	k := routeKey{group: actionGroup, function: function}
	if _, exists := r.routes[k]; exists {
		panic(fmt.Sprintf("action: duplicate route %s/%s", actionGroup, function))
	}
	r.routes[k] = h
}

// Dispatch runs the matching handler and always produces a response.
func (r *Router) Dispatch(ctx context.Context, ev Event) Response {
	r.logger.Info("received action event",
		zap.String("agent", ev.Agent.Name),
		zap.String("action_group", ev.ActionGroup),
		zap.String("function", ev.Function),
		zap.Int("parameters", len(ev.Parameters)),
		zap.String("session_id", ev.SessionID),
	)

	h, ok := r.routes[routeKey{group: ev.ActionGroup, function: ev.Function}]
	if !ok {
		r.logger.Warn("no handler for action", zap.String("action_group", ev.ActionGroup), zap.String("function", ev.Function))
		return NewTextResponse(ev, InvalidActionText)
	}

	resp := NewTextResponse(ev, h(ctx, ev))
	r.logger.Info("action response",
		zap.String("action_group", ev.ActionGroup),
		zap.String("function", ev.Function),
		zap.String("body", resp.Text()),
	)
	return resp
}

// LambdaHandler adapts Dispatch to the signature lambda.Start expects.
func (r *Router) LambdaHandler() func(ctx context.Context, ev Event) (Response, error) {
	return func(ctx context.Context, ev Event) (Response, error) {
		return r.Dispatch(ctx, ev), nil
	}
}
