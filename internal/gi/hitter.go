// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package gi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/apex/log"
)

// Recorder is told about every upstream exchange. code is 0 when no response
// was received.
type Recorder interface {
	ObserveUpstream(endpoint string, code int, elapsed time.Duration)
}

type noopRecorder struct{}

func (noopRecorder) ObserveUpstream(string, int, time.Duration) {}

// hit carries out one upstream request and returns the status, content type
// and full body. Bodies larger than maxBody are rejected. Only transport
// failures produce an error; status handling is left to the caller.
func hit(ctx context.Context, hc *http.Client, rec Recorder, maxBody int64, endpoint string, req *http.Request) (int, string, []byte, error) {
	start := time.Now()

	resp, err := hc.Do(req.WithContext(ctx))
	if err != nil {
		rec.ObserveUpstream(endpoint, 0, time.Since(start))
		return 0, "", nil, &TransportError{Op: endpoint, Err: fmt.Errorf("failed to execute request: %w", err)}
	}
	defer resp.Body.Close()

	var doc bytes.Buffer
	if _, err := doc.ReadFrom(io.LimitReader(resp.Body, maxBody+1)); err != nil {
		rec.ObserveUpstream(endpoint, resp.StatusCode, time.Since(start))
		return 0, "", nil, &TransportError{Op: endpoint, Err: fmt.Errorf("failed to read response: %w", err)}
	}
	if int64(doc.Len()) > maxBody {
		rec.ObserveUpstream(endpoint, resp.StatusCode, time.Since(start))
		return 0, "", nil, &TransportError{Op: endpoint, Err: fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, maxBody)}
	}

	elapsed := time.Since(start)
	rec.ObserveUpstream(endpoint, resp.StatusCode, elapsed)
	log.WithFields(log.Fields{
		"endpoint": endpoint,
		"status":   resp.StatusCode,
		"bytes":    doc.Len(),
		"elapsed":  elapsed.Round(time.Millisecond),
	}).Debug("upstream hit")

	return resp.StatusCode, resp.Header.Get("Content-Type"), doc.Bytes(), nil
}

func newRequest(method, url string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
