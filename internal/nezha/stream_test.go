package nezha

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestStreamServers_DeliversFramesUntilCancelled(t *testing.T) {
	t.Parallel()

	upgrader := websocket.Upgrader{}
	gotAuth := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/ws/server" {
			http.NotFound(w, r)
			return
		}
		gotAuth <- r.Header.Get("Authorization")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for i := 1; i <= 2; i++ {
			frame := `{"now":1700000000000,"online":1,"servers":[{"id":` + string(rune('0'+i)) + `,"name":"srv"}]}`
			if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
				return
			}
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(server.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	var frames []StreamFrame
	err := tokenClient(t, server).StreamServers(ctx, func(f StreamFrame) {
		frames = append(frames, f)
		if len(frames) == 2 {
			cancel()
		}
	})
	if err != nil {
		t.Fatalf("StreamServers returned error: %v", err)
	}
	if len(frames) != 2 || frames[1].Servers[0].ID != 2 {
		t.Fatalf("frames = %#v, want two frames ending with server 2", frames)
	}
	if got := frames[0].Time(); !got.Equal(time.UnixMilli(1700000000000)) {
		t.Fatalf("frame time = %v", got)
	}
	if auth := <-gotAuth; auth != "abc" {
		t.Fatalf("Authorization = %q, want abc", auth)
	}
}

func TestStreamServers_BadFrameIsDecodeError(t *testing.T) {
	t.Parallel()

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"now":"soon","servers":[]}`))
		_, _, _ = conn.ReadMessage()
	}))
	t.Cleanup(server.Close)

	err := tokenClient(t, server).StreamServers(testContext(t), func(StreamFrame) {})
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) || decodeErr.Kind != DecodeTypeMismatch {
		t.Fatalf("StreamServers error = %v, want typeMismatch", err)
	}
}

func TestStreamServers_IncompleteFrameIsMissingKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		frame      string
		wantDetail string
	}{
		{name: "no servers", frame: `{"now":1}`, wantDetail: `missing key "servers"`},
		{name: "null servers", frame: `{"now":1,"servers":null}`, wantDetail: `key "servers" is null`},
		{name: "empty server", frame: `{"servers":[{}]}`, wantDetail: `frame.servers[0]: missing key "id"`},
		{name: "null server", frame: `{"servers":[{"id":1,"name":"a"},null]}`, wantDetail: "frame.servers[1] is null"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			upgrader := websocket.Upgrader{}
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				conn, err := upgrader.Upgrade(w, r, nil)
				if err != nil {
					return
				}
				defer conn.Close()
				_ = conn.WriteMessage(websocket.TextMessage, []byte(tt.frame))
				_, _, _ = conn.ReadMessage()
			}))
			t.Cleanup(server.Close)

			delivered := 0
			err := tokenClient(t, server).StreamServers(testContext(t), func(StreamFrame) { delivered++ })
			var decodeErr *DecodeError
			if !errors.As(err, &decodeErr) || decodeErr.Kind != DecodeMissingKey {
				t.Fatalf("StreamServers error = %v, want missingKey", err)
			}
			if !strings.Contains(decodeErr.Detail, tt.wantDetail) {
				t.Fatalf("detail = %q, want it to contain %q", decodeErr.Detail, tt.wantDetail)
			}
			if delivered != 0 {
				t.Fatalf("delivered %d frames, want none", delivered)
			}
		})
	}
}

func TestStreamServers_DialFailureIsNetworkError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	c := tokenClient(t, server)
	server.Close()

	err := c.StreamServers(testContext(t), func(StreamFrame) {})
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("StreamServers error = %v, want *NetworkError", err)
	}
}
