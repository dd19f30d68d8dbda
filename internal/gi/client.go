// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package gi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/tidwall/gjson"

	"github.com/staranto/drivedengo/internal/token"
)

const (
	DefaultBaseURL    = "https://api.golfintelligence.com"
	DefaultTimeout    = 15 * time.Second
	DefaultSearchRows = 10

	// DefaultMaxBodyBytes caps how much of an upstream response is read.
	DefaultMaxBodyBytes int64 = 8 << 20
)

// TokenProvider supplies the bearer credential for data calls.
type TokenProvider interface {
	Token(ctx context.Context) (token.Token, error)
}

// invalidator is implemented by providers that can drop a rejected token.
type invalidator interface {
	Invalidate(rejected string)
}

// Coordinate is a WGS84 point.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// SearchRequest is the body of searchCourseGroups.
type SearchRequest struct {
	Rows          int        `json:"rows"`
	Offset        int        `json:"offset"`
	Keywords      string     `json:"keywords"`
	CountryCode   string     `json:"countryCode"`
	RegionCode    string     `json:"regionCode"`
	GPSCoordinate Coordinate `json:"gpsCoordinate"`
}

type options struct {
	http       *http.Client
	rec        Recorder
	searchRows int
	maxBody    int64
}

// Option customizes an Authenticator or Client.
type Option func(*options)

// WithHTTPClient replaces the pooled default client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.http = hc }
}

// WithTimeout bounds every upstream call made through the default client.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.http.Timeout = d
		}
	}
}

// WithRecorder reports upstream exchanges to rec.
func WithRecorder(rec Recorder) Option {
	return func(o *options) {
		if rec != nil {
			o.rec = rec
		}
	}
}

// WithSearchRows sets the page size used by Search.
func WithSearchRows(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.searchRows = n
		}
	}
}

// WithMaxBodyBytes overrides DefaultMaxBodyBytes.
func WithMaxBodyBytes(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxBody = n
		}
	}
}

func buildOptions(opts []Option) options {
	hc := cleanhttp.DefaultPooledClient()
	hc.Timeout = DefaultTimeout
	o := options{http: hc, rec: noopRecorder{}, searchRows: DefaultSearchRows, maxBody: DefaultMaxBodyBytes}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Client performs bearer-authorized data calls.
type Client struct {
	base       string
	tokens     TokenProvider
	http       *http.Client
	rec        Recorder
	searchRows int
	maxBody    int64
}

// NewClient returns a Client for the API rooted at base.
func NewClient(base string, tokens TokenProvider, opts ...Option) *Client {
	o := buildOptions(opts)
	return &Client{
		base:       strings.TrimRight(base, "/"),
		tokens:     tokens,
		http:       o.http,
		rec:        o.rec,
		searchRows: o.searchRows,
		maxBody:    o.maxBody,
	}
}

// NewSearchRequest returns the default search body for keywords.
func (c *Client) NewSearchRequest(keywords string) SearchRequest {
	return SearchRequest{Rows: c.searchRows, Keywords: keywords}
}

// Search runs searchCourseGroups for keywords and returns the payload,
// unwrapped from its "data" envelope when there is one.
func (c *Client) Search(ctx context.Context, keywords string) (json.RawMessage, error) {
	return c.SearchCourseGroups(ctx, c.NewSearchRequest(keywords))
}

// SearchCourseGroups is Search with full control over the request body.
func (c *Client) SearchCourseGroups(ctx context.Context, sr SearchRequest) (json.RawMessage, error) {
	body, err := json.Marshal(sr)
	if err != nil {
		return nil, fmt.Errorf("failed to encode search request: %w", err)
	}

	req, err := newRequest(http.MethodPost, c.base+"/courses/searchCourseGroups",
		bytes.NewReader(body), "application/json")
	if err != nil {
		return nil, err
	}

	doc, err := c.authorizedHit(ctx, EndpointSearch, req)
	if err != nil {
		return nil, err
	}
	return unwrapData(doc), nil
}

// CourseGroupGPS fetches GPS data for the course group publicID.
func (c *Client) CourseGroupGPS(ctx context.Context, publicID string) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("publicId", publicID)

	req, err := newRequest(http.MethodGet, c.base+"/courses/getCourseGroupGPS?"+q.Encode(), nil, "")
	if err != nil {
		return nil, err
	}

	doc, err := c.authorizedHit(ctx, EndpointGPS, req)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(doc), nil
}

// authorizedHit obtains a token, then performs exactly one upstream call.
func (c *Client) authorizedHit(ctx context.Context, endpoint string, req *http.Request) ([]byte, error) {
	tok, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+tok.Value)

	status, contentType, body, err := hit(ctx, c.http, c.rec, c.maxBody, endpoint, req)
	if err != nil {
		return nil, err
	}

	if !isSuccess(status) {
		if status == http.StatusUnauthorized {
			if inv, ok := c.tokens.(invalidator); ok {
				log.WithField("endpoint", endpoint).Warn("upstream rejected bearer token, dropping it")
				inv.Invalidate(tok.Value)
			}
		}
		return nil, &UpstreamError{Endpoint: endpoint, Status: status, Body: body, ContentType: contentType}
	}

	if !gjson.ValidBytes(body) {
		return nil, &TransportError{Op: endpoint, Err: ErrMalformedBody}
	}
	return body, nil
}

// unwrapData returns doc.data when it is present and truthy, doc otherwise.
func unwrapData(doc []byte) json.RawMessage {
	data := gjson.GetBytes(doc, "data")
	if truthy(data) {
		return json.RawMessage(data.Raw)
	}
	return json.RawMessage(doc)
}

func truthy(r gjson.Result) bool {
	switch r.Type {
	case gjson.JSON, gjson.True:
		return true
	case gjson.String:
		return r.Str != ""
	case gjson.Number:
		return r.Num != 0
	default:
		return false
	}
}
