package gateway

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/clawdbot/clawdbot/pkg/protocol"
)

// MethodHandler processes a single RPC request.
type MethodHandler func(ctx context.Context, client *Client, req *protocol.RequestFrame)

// adminMethods require the admin role.
var adminMethods = map[string]bool{
	protocol.MethodConfigPatch: true,
}

// writeMethods require at least the operator role; everything else is
// open to viewers.
var writeMethods = map[string]bool{
	protocol.MethodTtsEnable:      true,
	protocol.MethodTtsDisable:     true,
	protocol.MethodTtsConvert:     true,
	protocol.MethodTtsSetProvider: true,
}

// MethodRouter maps RPC method names to handlers.
type MethodRouter struct {
	handlers map[string]MethodHandler
	server   *Server
}

func NewMethodRouter(server *Server) *MethodRouter {
	r := &MethodRouter{
		handlers: make(map[string]MethodHandler),
		server:   server,
	}
	r.registerDefaults()
	return r
}

// Register adds a method handler.
func (r *MethodRouter) Register(method string, handler MethodHandler) {
	r.handlers[method] = handler
}

// Handle dispatches a request to its handler after the role check.
func (r *MethodRouter) Handle(ctx context.Context, client *Client, req *protocol.RequestFrame) {
	handler, ok := r.handlers[req.Method]
	if !ok {
		slog.Warn("unknown method", "method", req.Method, "client", client.id)
		client.SendResponse(protocol.NewErrorResponse(
			req.ID,
			protocol.ErrNotFound,
			"unknown method: "+req.Method,
		))
		return
	}

	if !allowed(client.role, req.Method) {
		slog.Warn("permission denied", "method", req.Method, "role", client.role, "client", client.id)
		client.SendResponse(protocol.NewErrorResponse(
			req.ID,
			protocol.ErrUnauthorized,
			"permission denied: insufficient role for "+req.Method,
		))
		return
	}

	slog.Debug("handling method", "method", req.Method, "client", client.id, "req_id", req.ID)
	handler(ctx, client, req)
}

func allowed(role Role, method string) bool {
	if adminMethods[method] {
		return role == RoleAdmin
	}
	if writeMethods[method] {
		return role == RoleAdmin || role == RoleOperator
	}
	return true
}

func (r *MethodRouter) registerDefaults() {
	r.Register(protocol.MethodConnect, r.handleConnect)
	r.Register(protocol.MethodHealth, r.handleHealth)
	r.Register(protocol.MethodStatus, r.handleStatus)
}

// --- Built-in handlers ---

func (r *MethodRouter) handleConnect(_ context.Context, client *Client, req *protocol.RequestFrame) {
	var params struct {
		Token  string `json:"token"`
		UserID string `json:"user_id"`
	}
	if req.Params != nil {
		json.Unmarshal(req.Params, &params)
	}

	configToken := r.server.Config().Gateway.Token

	switch {
	case configToken != "" && params.Token == configToken:
		client.role = RoleAdmin
	case configToken == "":
		// No token configured: local trusted use.
		client.role = RoleOperator
	default:
		client.role = RoleViewer
	}
	client.authenticated = true
	client.userID = params.UserID

	client.SendResponse(protocol.NewOKResponse(req.ID, map[string]interface{}{
		"protocol": protocol.ProtocolVersion,
		"role":     string(client.role),
		"user_id":  client.userID,
		"server": map[string]interface{}{
			"name":    "clawdbot",
			"version": Version,
		},
	}))
}

func (r *MethodRouter) handleHealth(_ context.Context, client *Client, req *protocol.RequestFrame) {
	client.SendResponse(protocol.NewOKResponse(req.ID, map[string]interface{}{
		"status": "ok",
	}))
}

func (r *MethodRouter) handleStatus(_ context.Context, client *Client, req *protocol.RequestFrame) {
	client.SendResponse(protocol.NewOKResponse(req.ID, map[string]interface{}{
		"version":   Version,
		"uptime_ms": r.server.Uptime().Milliseconds(),
		"clients":   r.server.ClientCount(),
	}))
}
