// Package nezha provides a typed client for the Nezha dashboard API.
//
// # Overview
//
// Every endpoint method is the same composition: resolve the dashboard
// settings, obtain an Authorization header, build the request, send it
// through a Transport and decode the envelope. The first failure is returned
// unchanged.
//
// # Architecture
//
//   - transport.go: one HTTP exchange, raw status and body
//   - auth.go: static tokens and cached login sessions
//   - envelope.go: modern and legacy envelope decoding
//   - errors.go: the error taxonomy and UserMessage
//   - client.go: request construction and the auth retry
//   - stream.go: the websocket live feed
//
// The remaining files hold one method per REST operation, grouped by
// resource.
//
// # Envelopes
//
// Two shapes exist on the same backend family:
//
//	{"success": true, "error": "", "data": ...}
//	{"code": 200, "message": "", "result": ...}
//
// The shape is chosen per endpoint and never inferred from the body. Legacy
// responses treat code 200 and 0 as success.
//
// # Authentication
//
// A static token is sent as "Authorization: <token>". Username and password
// credentials are exchanged through POST /api/v1/login for a bearer token,
// which is cached per credential value and reused until it expires or a
// request is rejected. A rejected request invalidates the session, logs in
// again and is retried once. Static tokens are never retried.
//
// # Errors
//
//   - *AuthError: login rejected or failed
//   - *NetworkError: DNS, TLS, timeout, reset
//   - *DecodeError: corrupted, missingKey or typeMismatch
//   - *BackendError: the dashboard reported a failure
//   - *InvalidResponseError: success without the expected payload
//   - ErrMissingConfiguration: no host or credentials
//
// UserMessage turns any of these into text for display.
//
// # Thread Safety
//
// Client and Authenticator are safe for concurrent use.
package nezha
