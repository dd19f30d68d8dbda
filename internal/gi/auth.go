// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package gi

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/staranto/drivedengo/internal/token"
)

const (
	EndpointAuth   = "auth"
	EndpointSearch = "search"
	EndpointGPS    = "gps"
)

// The upstream has been seen to spell these fields both ways.
var (
	accessTokenFields = []string{"accessToken", "access_token"}
	lifetimeFields    = []string{"expiresIn", "expires_in"}
)

// Authenticator exchanges the configured client id and secret for a bearer
// token. It implements token.Source.
type Authenticator struct {
	base     string
	clientID string
	secret   string
	http     *http.Client
	rec      Recorder
	maxBody  int64
}

// NewAuthenticator returns an Authenticator for the API rooted at base.
func NewAuthenticator(base, clientID, secret string, opts ...Option) *Authenticator {
	o := buildOptions(opts)
	return &Authenticator{
		base:     strings.TrimRight(base, "/"),
		clientID: clientID,
		secret:   secret,
		http:     o.http,
		rec:      o.rec,
		maxBody:  o.maxBody,
	}
}

// Fetch performs the client-credentials exchange. Non-2xx answers and answers
// without an access token come back as *token.AuthError.
func (a *Authenticator) Fetch(ctx context.Context) (token.Grant, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("code", a.secret)
	form.Set("client_id", a.clientID)

	req, err := newRequest(http.MethodPost, a.base+"/auth/authenticateToken",
		strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return token.Grant{}, err
	}

	status, _, body, err := hit(ctx, a.http, a.rec, a.maxBody, EndpointAuth, req)
	if err != nil {
		return token.Grant{}, err
	}

	if !isSuccess(status) {
		return token.Grant{}, &token.AuthError{Status: status, Body: string(body)}
	}

	if !gjson.ValidBytes(body) {
		return token.Grant{}, &TransportError{Op: EndpointAuth, Err: ErrMalformedBody}
	}

	doc := gjson.ParseBytes(body)
	access := firstString(doc, accessTokenFields...)
	if access == "" {
		return token.Grant{}, &token.AuthError{Status: status, Body: string(body), Err: token.ErrNoAccessToken}
	}

	var lifetime time.Duration
	if secs := firstPositive(doc, lifetimeFields...); secs > 0 {
		lifetime = time.Duration(secs * float64(time.Second))
	}

	return token.Grant{AccessToken: access, Lifetime: lifetime}, nil
}

func firstString(doc gjson.Result, paths ...string) string {
	for _, p := range paths {
		if v := doc.Get(p); v.Type == gjson.String && v.Str != "" {
			return v.Str
		}
	}
	return ""
}

// firstPositive accepts numbers and numeric strings.
func firstPositive(doc gjson.Result, paths ...string) float64 {
	for _, p := range paths {
		if v := doc.Get(p).Float(); v > 0 {
			return v
		}
	}
	return 0
}
