package rpcapi

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// JSON-RPC 2.0 standard error codes.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternal       = -32603
)

// Ethereum/zkSync convention error codes used above the standard range.
const (
	codeExecutionReverted = 3
	codeUnknownBlock      = -32001
	codeUnknownTx         = -32002
	codeFilterNotFound    = -32003
	codeForkUnavailable   = -32004
	codeInvalidTx         = -32010
	codeNonceTooLow       = -32011
	codeInsufficientFunds = -32012
	codeGasTooLow         = -32013
	codeCannotEstimate    = -32014
)

// Sentinel kinds a namespace handler returns; toRPCError classifies them
// into a JSON-RPC error code.
var (
	ErrMethodNotFound     = errors.New("rpcapi: method not found")
	ErrInvalidParams      = errors.New("rpcapi: invalid params")
	ErrUnknownBlock       = errors.New("rpcapi: unknown block")
	ErrUnknownTransaction = errors.New("rpcapi: unknown transaction")
	ErrFilterNotFound     = errors.New("rpcapi: filter not found")
	ErrForkUnavailable    = errors.New("rpcapi: fork source unavailable")
	ErrCannotEstimate     = errors.New("rpcapi: gas required exceeds allowance or transaction always reverts")
)

// RevertError carries ABI-encoded revert data alongside the message, per
// eth_call / eth_estimateGas conventions.
type RevertError struct {
	Reason string
	Data   []byte
}

func (e *RevertError) Error() string { return "execution reverted: " + e.Reason }

// InvalidTransactionError wraps structural/semantic transaction rejections
// (bad signature without impersonation, malformed envelope, nonce/balance
// checks, unsupported tx type).
type InvalidTransactionError struct {
	msg  string
	code int
}

func (e *InvalidTransactionError) Error() string { return e.msg }

func NewNonceTooLowError(msg string) error {
	return &InvalidTransactionError{msg: msg, code: codeNonceTooLow}
}

func NewInsufficientFundsError(msg string) error {
	return &InvalidTransactionError{msg: msg, code: codeInsufficientFunds}
}

func NewInvalidTransactionError(msg string) error {
	return &InvalidTransactionError{msg: msg, code: codeInvalidTx}
}

// toRPCError classifies an arbitrary error returned by a handler into a
// wire-level JSON-RPC error object. Anything not recognized is treated as
// InternalError and wrapped with a stack trace for the server log.
func toRPCError(err error) *Error {
	if err == nil {
		return nil
	}

	var revertErr *RevertError
	if errors.As(err, &revertErr) {
		return &Error{Code: codeExecutionReverted, Message: revertErr.Error(), Data: hexBytes(revertErr.Data)}
	}

	var invalidTx *InvalidTransactionError
	if errors.As(err, &invalidTx) {
		return &Error{Code: invalidTx.code, Message: invalidTx.msg}
	}

	switch {
	case errors.Is(err, ErrMethodNotFound):
		return &Error{Code: codeMethodNotFound, Message: err.Error()}
	case errors.Is(err, ErrInvalidParams):
		return &Error{Code: codeInvalidParams, Message: err.Error()}
	case errors.Is(err, ErrUnknownBlock):
		return &Error{Code: codeUnknownBlock, Message: err.Error()}
	case errors.Is(err, ErrUnknownTransaction):
		return &Error{Code: codeUnknownTx, Message: err.Error()}
	case errors.Is(err, ErrFilterNotFound):
		return &Error{Code: codeFilterNotFound, Message: err.Error()}
	case errors.Is(err, ErrForkUnavailable):
		return &Error{Code: codeForkUnavailable, Message: err.Error()}
	case errors.Is(err, ErrCannotEstimate):
		return &Error{Code: codeCannotEstimate, Message: err.Error()}
	default:
		wrapped := pkgerrors.WithStack(err)
		return &Error{Code: codeInternal, Message: fmt.Sprintf("internal error: %v", wrapped)}
	}
}
