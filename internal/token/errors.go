// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package token

import (
	"errors"
	"fmt"
)

// ErrNoAccessToken is wrapped by an AuthError when the upstream answered but
// did not include an access token.
var ErrNoAccessToken = errors.New("no access token in auth response")

// AuthError reports a rejected or malformed authentication exchange. Status
// and Body mirror the upstream response.
type AuthError struct {
	Status int
	Body   string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth failed %d: %v", e.Status, e.Err)
	}
	return fmt.Sprintf("auth failed %d: %s", e.Status, e.Body)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}
