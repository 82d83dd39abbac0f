package mcp

import (
	"encoding/json"
	"errors"
	"math/rand"

	"github.com/forgesyte/forgesyte/internal/logger"
)

// Handler processes one method's params and returns a result mapping or
// an error. Returning an *InvalidParamsError or *RPCError gives the
// dispatcher precise control over the response's error code; any other
// error maps to InternalError.
type Handler func(params map[string]interface{}) (interface{}, error)

// Server dispatches incoming JSON-RPC requests to registered method
// handlers.
type Server struct {
	methods map[string]Handler
}

// NewServer constructs an empty Server; register methods with RegisterMethod.
func NewServer() *Server {
	return &Server{methods: make(map[string]Handler)}
}

// RegisterMethod adds or replaces the handler for name.
func (s *Server) RegisterMethod(name string, h Handler) {
	s.methods[name] = h
}

// HandleRequest dispatches a single request. It returns nil for
// notifications, per §4.6.2.
func (s *Server) HandleRequest(req *Request) *Response {
	s.applyLegacyFallback(req)

	if req.JSONRPC != "2.0" {
		if req.IsNotification() {
			return nil
		}
		return errorResponse(req.Id, CodeInvalidRequest, "jsonrpc must be \"2.0\"", nil)
	}
	if req.Method == "" {
		if req.IsNotification() {
			return nil
		}
		return errorResponse(req.Id, CodeInvalidRequest, "method must be a non-empty string", nil)
	}

	handler, ok := s.methods[req.Method]
	if !ok {
		if req.IsNotification() {
			return nil
		}
		return errorResponse(req.Id, CodeMethodNotFound, "method not found: "+req.Method, nil)
	}

	params, err := req.ParamsMap()
	if err != nil {
		if req.IsNotification() {
			return nil
		}
		return errorResponse(req.Id, CodeInvalidParams, "invalid params: "+err.Error(), nil)
	}

	result, err := handler(params)
	if req.IsNotification() {
		if err != nil {
			logger.MCP().Error().Str("method", req.Method).Err(err).Msg("notification handler failed")
		}
		return nil
	}
	if err != nil {
		return (&Response{JSONRPC: "2.0", Id: req.Id}).fromError(err)
	}
	return successResponse(req.Id, result)
}

// fromError maps err to the appropriate JSON-RPC error code/message.
func (r *Response) fromError(err error) *Response {
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		r.Error = &Error{Code: rpcErr.Code, Message: rpcErr.Message, Data: rpcErr.Data}
		return r
	}
	var invalidErr *InvalidParamsError
	if errors.As(err, &invalidErr) {
		r.Error = &Error{Code: CodeInvalidParams, Message: invalidErr.Message}
		return r
	}
	r.Error = &Error{Code: CodeInternalError, Message: err.Error()}
	return r
}

// applyLegacyFallback rewrites a "1.0" jsonrpc field to "2.0", assigning a
// random id if absent, and logs a deprecation warning.
func (s *Server) applyLegacyFallback(req *Request) {
	if req.JSONRPC != "1.0" {
		return
	}
	req.JSONRPC = "2.0"
	if req.Id == nil {
		req.Id = rand.Int63()
	}
	logger.MCP().Warn().Str("method", req.Method).Msg("deprecated JSON-RPC 1.0 request received; rewritten to 2.0")
}

// HandleBatch processes a JSON array of requests, returning responses in
// the same order, omitting notifications. An empty batch returns an
// empty slice.
func (s *Server) HandleBatch(reqs []*Request) []*Response {
	responses := make([]*Response, 0, len(reqs))
	for _, req := range reqs {
		if resp := s.HandleRequest(req); resp != nil {
			responses = append(responses, resp)
		}
	}
	return responses
}

// ParseMessage decodes a raw JSON-RPC payload as either a single Request
// or a batch, reporting which.
func ParseMessage(data []byte) (single *Request, batch []*Request, err error) {
	trimmed := trimLeadingSpace(data)
	if len(trimmed) == 0 {
		return nil, nil, errors.New("empty message")
	}
	if trimmed[0] == '[' {
		if err := json.Unmarshal(data, &batch); err != nil {
			return nil, nil, err
		}
		return nil, batch, nil
	}
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, nil, err
	}
	return &req, nil, nil
}

func trimLeadingSpace(data []byte) []byte {
	i := 0
	for i < len(data) {
		switch data[i] {
		case ' ', '\t', '\n', '\r':
			i++
		default:
			return data[i:]
		}
	}
	return data[i:]
}
