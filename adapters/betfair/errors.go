package betfair

import "fmt"

// AuthError indicates a login failure. A previously cached session, if
// any, survives the failure and remains usable until its own expiry.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("betfair auth: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("betfair auth: %s", e.Reason)
}

func (e *AuthError) Unwrap() error { return e.Err }

// RPCError indicates a malformed or error-bearing RPC envelope. The
// current fetch is aborted; no partial odds are returned.
type RPCError struct {
	Method string
	Detail string
	Err    error
}

func (e *RPCError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("betfair rpc %s: %s: %v", e.Method, e.Detail, e.Err)
	}
	return fmt.Sprintf("betfair rpc %s: %s", e.Method, e.Detail)
}

func (e *RPCError) Unwrap() error { return e.Err }
