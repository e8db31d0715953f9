package nezha

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const streamHandshakeTimeout = 10 * time.Second

// StreamServers subscribes to the live server feed and calls fn for every
// frame. It returns when ctx ends (nil), the socket closes or a frame cannot
// be decoded.
func (c *Client) StreamServers(ctx context.Context, fn func(StreamFrame)) error {
	dash, err := c.resolver.Resolve()
	if err != nil {
		return err
	}
	authorization, err := c.auth.Authorization(ctx, dash)
	if err != nil {
		return err
	}

	header := http.Header{}
	header.Set("Authorization", authorization)
	header.Set("User-Agent", c.userAgent)

	target := "ws" + strings.TrimPrefix(dash.BaseURL(), "http") + "/api/v1/ws/server"
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: streamHandshakeTimeout,
	}
	conn, resp, err := dialer.DialContext(ctx, target, header)
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			c.auth.Invalidate(dash)
			return backendStatusError(resp.StatusCode, http.StatusText(resp.StatusCode))
		}
		return &NetworkError{Err: err}
	}
	defer func() { _ = conn.Close() }()
	c.logger.Info("stream connected", zap.String("url", target))

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return &NetworkError{Err: errors.New("stream closed by dashboard")}
			}
			return &NetworkError{Err: err}
		}

		frame, err := decodeFrame(data)
		if err != nil {
			var decodeErr *DecodeError
			if errors.As(err, &decodeErr) {
				c.logger.Warn("stream frame decode failed",
					zap.String("kind", decodeErr.Kind.String()),
					zap.String("detail", decodeErr.Detail))
			}
			return err
		}
		fn(frame)
	}
}

// decodeFrame applies the same required-key rules as REST payloads, so a
// frame without servers never replaces the published snapshot.
func decodeFrame(data []byte) (StreamFrame, error) {
	var frame StreamFrame
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return frame, &DecodeError{Kind: DecodeCorrupted, Detail: "frame is not a JSON object"}
	}
	if err := checkRequired(trimmed, reflect.TypeFor[StreamFrame](), "frame"); err != nil {
		return frame, err
	}
	if err := json.Unmarshal(trimmed, &frame); err != nil {
		return frame, classify(err, "frame")
	}
	return frame, nil
}
