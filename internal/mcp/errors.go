package mcp

import "fmt"

// RPCError lets a method handler specify an exact JSON-RPC error code and
// message, for the server-defined range [-32099,-32000] or any of the
// standard codes.
type RPCError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// InvalidParamsError marks a handler error as a bad-parameters failure,
// mapped to CodeInvalidParams by the dispatcher.
type InvalidParamsError struct {
	Message string
}

func (e *InvalidParamsError) Error() string { return e.Message }

func invalidParams(format string, args ...interface{}) *InvalidParamsError {
	return &InvalidParamsError{Message: fmt.Sprintf(format, args...)}
}
