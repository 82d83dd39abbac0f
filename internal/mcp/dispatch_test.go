package mcp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleRequest_MethodNotFound(t *testing.T) {
	s := NewServer()
	resp := s.HandleRequest(&Request{JSONRPC: "2.0", Method: "nope", Id: float64(1)})
	require.NotNil(t, resp)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeMethodNotFound, resp.Error.Code)
}

func TestHandleRequest_NotificationEmitsNoResponse(t *testing.T) {
	called := false
	s := NewServer()
	s.RegisterMethod("ping", func(params map[string]interface{}) (interface{}, error) {
		called = true
		return map[string]interface{}{"status": "pong"}, nil
	})

	resp := s.HandleRequest(&Request{JSONRPC: "2.0", Method: "ping"})
	assert.Nil(t, resp)
	assert.True(t, called)
}

func TestHandleRequest_InvalidParamsMapping(t *testing.T) {
	s := NewServer()
	s.RegisterMethod("call", func(params map[string]interface{}) (interface{}, error) {
		return nil, invalidParams("bad thing")
	})
	resp := s.HandleRequest(&Request{JSONRPC: "2.0", Method: "call", Id: "x"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeInvalidParams, resp.Error.Code)
}

func TestHandleRequest_GenericErrorMapsToInternalError(t *testing.T) {
	s := NewServer()
	s.RegisterMethod("call", func(params map[string]interface{}) (interface{}, error) {
		return nil, assertErr{}
	})
	resp := s.HandleRequest(&Request{JSONRPC: "2.0", Method: "call", Id: "x"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeInternalError, resp.Error.Code)
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }

func TestHandleBatch_PreservesOrderAndOmitsNotifications(t *testing.T) {
	s := NewServer()
	s.RegisterMethod("echo", func(params map[string]interface{}) (interface{}, error) {
		return params, nil
	})

	reqs := []*Request{
		{JSONRPC: "2.0", Method: "echo", Id: float64(1)},
		{JSONRPC: "2.0", Method: "echo"}, // notification
		{JSONRPC: "2.0", Method: "echo", Id: float64(2)},
	}
	resps := s.HandleBatch(reqs)
	require.Len(t, resps, 2)
	assert.Equal(t, float64(1), resps[0].Id)
	assert.Equal(t, float64(2), resps[1].Id)
}

func TestHandleBatch_EmptyReturnsEmpty(t *testing.T) {
	s := NewServer()
	resps := s.HandleBatch(nil)
	assert.Empty(t, resps)
}

func TestLegacyFallback_RewritesVersionAndAssignsId(t *testing.T) {
	s := NewServer()
	s.RegisterMethod("ping", func(params map[string]interface{}) (interface{}, error) {
		return map[string]interface{}{"status": "pong"}, nil
	})

	req := &Request{JSONRPC: "1.0", Method: "ping"}
	resp := s.HandleRequest(req)
	require.NotNil(t, resp)
	assert.Equal(t, "2.0", req.JSONRPC)
	assert.NotNil(t, req.Id)
}

func TestParseMessage_SingleAndBatch(t *testing.T) {
	single, batch, err := ParseMessage([]byte(`{"jsonrpc":"2.0","method":"ping","id":1}`))
	require.NoError(t, err)
	require.Nil(t, batch)
	require.NotNil(t, single)
	assert.Equal(t, "ping", single.Method)

	single, batch, err = ParseMessage([]byte(`[{"jsonrpc":"2.0","method":"ping","id":1}]`))
	require.NoError(t, err)
	require.Nil(t, single)
	require.Len(t, batch, 1)
}

func TestRequest_ParamsMapDefaultsToEmpty(t *testing.T) {
	req := &Request{}
	m, err := req.ParamsMap()
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{}, m)
}

func TestRequest_ParamsMapDecodes(t *testing.T) {
	req := &Request{Params: json.RawMessage(`{"name":"ocr"}`)}
	m, err := req.ParamsMap()
	require.NoError(t, err)
	assert.Equal(t, "ocr", m["name"])
}
