// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package gi

import (
	"errors"
	"fmt"
)

// ErrMalformedBody is wrapped by a TransportError when a successful response
// is not valid JSON.
var ErrMalformedBody = errors.New("malformed JSON response")

// ErrBodyTooLarge is wrapped by a TransportError when a response exceeds the
// configured body limit.
var ErrBodyTooLarge = errors.New("response body too large")

// UpstreamError is returned when a data call answers with a non-2xx status.
// Body and ContentType are kept verbatim so callers can pass them through.
type UpstreamError struct {
	Endpoint    string
	Status      int
	Body        []byte
	ContentType string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s returned %d: %s", e.Endpoint, e.Status, e.Body)
}

// TransportError wraps failures that never produced a usable response:
// network errors, timeouts and undecodable bodies.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
