package connector

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum"
)

// RPCError wraps any failure raised by the node or the transport while
// serving a JSON-RPC call.
type RPCError struct {
	Op  string
	Err error
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc %s: %v", e.Op, e.Err)
}

func (e *RPCError) Unwrap() error {
	return e.Err
}

// WrapRPC wraps err as an *RPCError for op. Errors that already carry an
// *RPCError are returned unchanged.
func WrapRPC(op string, err error) error {
	if err == nil {
		return nil
	}
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return err
	}
	return &RPCError{Op: op, Err: err}
}

// IsNotFound reports whether the node returned no object for the request.
func IsNotFound(err error) bool {
	return errors.Is(err, ethereum.NotFound)
}
