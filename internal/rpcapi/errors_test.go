package rpcapi

import (
	"errors"
	"testing"
)

func TestToRPCErrorClassifiesSentinels(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"method not found", ErrMethodNotFound, codeMethodNotFound},
		{"invalid params", ErrInvalidParams, codeInvalidParams},
		{"unknown block", ErrUnknownBlock, codeUnknownBlock},
		{"unknown transaction", ErrUnknownTransaction, codeUnknownTx},
		{"filter not found", ErrFilterNotFound, codeFilterNotFound},
		{"fork unavailable", ErrForkUnavailable, codeForkUnavailable},
		{"cannot estimate", ErrCannotEstimate, codeCannotEstimate},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rpcErr := toRPCError(c.err)
			if rpcErr.Code != c.code {
				t.Fatalf("code = %d, want %d", rpcErr.Code, c.code)
			}
		})
	}
}

func TestToRPCErrorWrapsUnknownErrorsAsInternal(t *testing.T) {
	rpcErr := toRPCError(errors.New("boom"))
	if rpcErr.Code != codeInternal {
		t.Fatalf("code = %d, want %d", rpcErr.Code, codeInternal)
	}
}

func TestToRPCErrorNilIsNil(t *testing.T) {
	if toRPCError(nil) != nil {
		t.Fatal("expected nil for a nil error")
	}
}

func TestRevertErrorCarriesData(t *testing.T) {
	revert := &RevertError{Reason: "out of gas", Data: []byte{0xde, 0xad}}
	rpcErr := toRPCError(revert)
	if rpcErr.Code != codeExecutionReverted {
		t.Fatalf("code = %d, want %d", rpcErr.Code, codeExecutionReverted)
	}
	if rpcErr.Data != "0xdead" {
		t.Fatalf("data = %v, want 0xdead", rpcErr.Data)
	}
}

func TestInvalidTransactionConstructorsSetCodes(t *testing.T) {
	if toRPCError(NewNonceTooLowError("x")).Code != codeNonceTooLow {
		t.Fatal("expected nonce-too-low code")
	}
	if toRPCError(NewInsufficientFundsError("x")).Code != codeInsufficientFunds {
		t.Fatal("expected insufficient-funds code")
	}
	if toRPCError(NewInvalidTransactionError("x")).Code != codeInvalidTx {
		t.Fatal("expected invalid-tx code")
	}
}
