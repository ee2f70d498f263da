package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/pokymono/kisame-sub001/internal/progress"
)

// progressWindow bounds the upload event rate independent of chunk size.
// Fast local links produce thousands of reads; the UI gets at most one
// event per window plus the guaranteed final 100%.
const progressWindow = 80 * time.Millisecond

// countingReader forwards bytes unchanged while accumulating a running
// total and reporting it after every read.
type countingReader struct {
	r      io.Reader
	loaded int64
	onRead func(loaded int64)
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.loaded += int64(n)
		if c.onRead != nil {
			c.onRead(c.loaded)
		}
	}
	return n, err
}

// UploadPcap streams the capture at filePath to POST /pcap on the backend,
// emitting throttled upload-stage progress events. It returns the backend
// session id for the uploaded capture.
//
// The final event always reports loaded=total and percent=100, including
// for an empty file (which produces exactly that one event).
func (c *Client) UploadPcap(ctx context.Context, baseURL, filePath, clientID string, emit progress.Func) (string, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return "", fmt.Errorf("stat capture: %w", err)
	}
	total := info.Size()

	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("open capture: %w", err)
	}
	defer f.Close()

	throttle := progress.NewThrottle(emit, progressWindow)
	body := &countingReader{
		r: f,
		onRead: func(loaded int64) {
			throttle.Emit(progress.Event{
				Stage:   progress.StageUpload,
				Loaded:  loaded,
				Total:   total,
				Percent: percentOf(loaded, total),
			})
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/pcap", body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("x-filename", filepath.Base(filePath))
	if clientID != "" {
		req.Header.Set("x-client-id", clientID)
	}
	req.ContentLength = total

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", statusError("upload", resp)
	}

	var result struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("upload: decode response: %w", err)
	}

	throttle.Flush(progress.Event{
		Stage:   progress.StageUpload,
		Loaded:  total,
		Total:   total,
		Percent: 100,
	})
	return result.SessionID, nil
}

func percentOf(loaded, total int64) float64 {
	if total <= 0 {
		return 100
	}
	return float64(loaded) / float64(total) * 100
}
