package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/mcp"
)

type mcpHandler struct {
	dispatcher *mcp.Dispatcher
}

// rpcRequest is the minimal JSON-RPC 2.0 envelope for MCP's tools/call
// method, per spec.md §9's "SSE/MCP transport" note: tool handlers are
// pure functions from request to response plus the shared services.
type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	} `json:"params"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// call handles POST /mcp: one JSON-RPC tools/call request in, one response
// out, routed straight through the same Dispatcher the stdio MCP transport
// would use.
func (h *mcpHandler) call(c *gin.Context) {
	var req rpcRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, rpcResponse{JSONRPC: "2.0", Error: &rpcError{Code: -32700, Message: "invalid request"}})
		return
	}
	if req.Method != "tools/call" {
		c.JSON(http.StatusOK, rpcResponse{JSONRPC: "2.0", ID: req.ID, Error: &rpcError{Code: -32601, Message: "unknown method: " + req.Method}})
		return
	}

	env := h.dispatcher.Dispatch(c.Request.Context(), req.Params.Name, req.Params.Arguments)
	if env.Error != nil {
		c.JSON(http.StatusOK, rpcResponse{JSONRPC: "2.0", ID: req.ID, Error: &rpcError{Code: -32000, Message: env.Error.Code + ": " + env.Error.Message}})
		return
	}
	c.JSON(http.StatusOK, rpcResponse{JSONRPC: "2.0", ID: req.ID, Result: env.Result})
}

// stream handles GET /mcp: the long-lived SSE half of the MCP HTTP
// transport. Clients that speak the SSE transport open this first and
// receive an "endpoint" event naming the POST URL for tools/call requests;
// this server answers every call synchronously over that POST rather than
// pushing results back down the SSE channel, since the dispatcher has no
// notion of an asynchronous subscription.
func (h *mcpHandler) stream(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)

	c.SSEvent("endpoint", "/mcp")
	c.Writer.Flush()

	<-c.Request.Context().Done()
}
