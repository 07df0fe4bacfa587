package speech

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
)

func boolPtr(v bool) *bool { return &v }

// gorilla/websocket allows a single writer per connection; the ping loop and
// the response path write from different goroutines and must be serialized.
func TestSafeConnSerializesConcurrentWriters(t *testing.T) {
	done := make(chan struct{})
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		out := &safeConn{conn: conn}
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 50; j++ {
					if err := out.WriteJSON(map[string]string{"type": "result"}); err != nil {
						return
					}
					if err := out.Ping(); err != nil {
						return
					}
				}
			}()
		}
		wg.Wait()
		close(done)
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	go func() {
		for {
			if _, _, err := client.ReadMessage(); err != nil {
				return
			}
		}
	}()

	<-done
}

func TestApplyConfigUpdatesState(t *testing.T) {
	state := newConnectionState("session", "hi-IN")

	applyConfig(state, ConfigMessage{
		Locale:     "ta-IN",
		Format:     "webm",
		ASREnabled: boolPtr(false),
		TTSEnabled: boolPtr(true),
	})

	if state.locale != "ta-IN" {
		t.Fatalf("expected locale ta-IN, got %s", state.locale)
	}
	if state.audioFormat != "webm" {
		t.Fatalf("expected format webm, got %s", state.audioFormat)
	}
	if state.asrEnabled {
		t.Fatalf("expected ASR disabled")
	}
	if !state.ttsEnabled {
		t.Fatalf("expected TTS enabled")
	}
}

func TestApplyConfigKeepsUnsetFields(t *testing.T) {
	state := newConnectionState("session", "hi-IN")

	applyConfig(state, ConfigMessage{})

	if state.locale != "hi-IN" {
		t.Fatalf("expected locale unchanged, got %s", state.locale)
	}
	if !state.asrEnabled || !state.ttsEnabled {
		t.Fatal("expected ASR and TTS to stay enabled")
	}
}
