package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/ishaygamliely-create/SoloTrading-sub001/config"
)

// TestDecodeRow tests the compact row decoding, including the placeholder and
// short-row rejections.
func TestDecodeRow(t *testing.T) {
	// indices: 1=time(ms), 4=open, 5=high, 6=low, 7=close, 8=volume
	row := []float64{0, 1700000000000, 0, 0, 100, 105, 99, 104, 2500}

	c, ok := decodeRow(row)
	if !ok {
		t.Fatal("Expected a valid row to decode")
	}
	if c.Time != 1700000000 {
		t.Errorf("Expected time in unix seconds 1700000000, got %d", c.Time)
	}
	if c.Open != 100 || c.High != 105 || c.Low != 99 || c.Close != 104 || c.Volume != 2500 {
		t.Errorf("Decoded candle fields wrong: %+v", c)
	}

	if _, ok := decodeRow(row[:8]); ok {
		t.Error("Short row must be rejected")
	}

	placeholder := []float64{0, 1700000000000, 0, 0, 0, 0, 0, 0, 50}
	if _, ok := decodeRow(placeholder); ok {
		t.Error("All-zero OHLC row must be rejected")
	}
}

// TestTokenValidUntil tests the cache-horizon derivation from a JWT exp claim
// and the fallback for opaque tokens.
func TestTokenValidUntil(t *testing.T) {
	exp := time.Now().Add(4 * time.Hour)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": exp.Unix(),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("building test token: %v", err)
	}

	got := tokenValidUntil(token)
	want := exp.Add(-sessionExpiry)
	if diff := got.Sub(want); diff < -time.Second || diff > time.Second {
		t.Errorf("Expected valid-until near %v, got %v", want, got)
	}

	opaque := tokenValidUntil("not-a-jwt")
	if until := time.Until(opaque); until < defaultSessionTTL-time.Minute || until > defaultSessionTTL+time.Minute {
		t.Errorf("Opaque token should fall back to the default TTL, got %v", until)
	}
}

// TestSessionManagerCachesToken tests that a second Token call reuses the
// cached credential and Invalidate forces re-authentication.
func TestSessionManagerCachesToken(t *testing.T) {
	authCalls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authCalls++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"accessToken": "opaque-session-token"}`))
	}))
	defer server.Close()

	manager := NewSessionManager(&config.RealtimeConfig{
		Username: "user", Password: "pass",
		AuthURL: server.URL,
		Timeout: time.Second,
	}, zerolog.Nop())

	for i := 0; i < 3; i++ {
		token, err := manager.Token(context.Background())
		if err != nil {
			t.Fatalf("Token failed: %v", err)
		}
		if token != "opaque-session-token" {
			t.Fatalf("Unexpected token %q", token)
		}
	}
	if authCalls != 1 {
		t.Errorf("Expected a single auth call for cached token, got %d", authCalls)
	}

	manager.Invalidate()
	if _, err := manager.Token(context.Background()); err != nil {
		t.Fatalf("Token after invalidate failed: %v", err)
	}
	if authCalls != 2 {
		t.Errorf("Expected re-authentication after invalidate, got %d calls", authCalls)
	}
}

// streamHandler runs the server side of the handshake and feeds rows in data
// frames until done.
func streamHandler(t *testing.T, rowsPerFrame, frames int, hang bool) http.HandlerFunc {
	upgrader := websocket.Upgrader{}
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		var f frame
		if err := conn.ReadJSON(&f); err != nil || f.Type != "auth" || f.Ticket != "test-ticket" {
			t.Errorf("Expected auth frame with ticket, got %+v (%v)", f, err)
			return
		}
		conn.WriteJSON(frame{Type: "auth_ok"})

		if err := conn.ReadJSON(&f); err != nil || f.Type != "open_channel" {
			t.Errorf("Expected open_channel frame, got %+v (%v)", f, err)
			return
		}
		conn.WriteJSON(frame{Type: "channel_ok", Channel: 7})

		if err := conn.ReadJSON(&f); err != nil || f.Type != "subscribe" {
			t.Errorf("Expected subscribe frame, got %+v (%v)", f, err)
			return
		}
		if f.Channel != 7 || f.Symbol != "NQ" {
			t.Errorf("Subscribe frame did not echo channel/symbol: %+v", f)
		}

		baseMs := int64(1700000000000)
		seq := 0
		for i := 0; i < frames; i++ {
			rows := make([][]float64, 0, rowsPerFrame)
			for j := 0; j < rowsPerFrame; j++ {
				seq++
				tMs := float64(baseMs + int64(seq)*60000)
				rows = append(rows, []float64{0, tMs, 0, 0, 100, 101, 99, 100.5, 10})
			}
			if err := conn.WriteJSON(frame{Type: "data", Rows: rows}); err != nil {
				return
			}
		}
		if hang {
			// Stop sending but keep the connection open so the client's read
			// deadline is what ends the stream.
			time.Sleep(2 * time.Second)
		}
	}
}

func dialTest(t *testing.T, server *httptest.Server) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	return conn
}

// TestStreamCollectsTargetBars tests the full handshake and that the stream
// ends once enough bars have arrived.
func TestStreamCollectsTargetBars(t *testing.T) {
	server := httptest.NewServer(streamHandler(t, 100, 9, false)) // 900 rows > targetBars
	defer server.Close()

	adapter := &RealtimeAdapter{
		cfg:    &config.RealtimeConfig{Timeout: 5 * time.Second},
		logger: zerolog.Nop(),
	}
	conn := dialTest(t, server)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	candles, err := adapter.stream(conn, "test-ticket", "NQ", "15m", time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("stream failed: %v", err)
	}
	if len(candles) < targetBars {
		t.Errorf("Expected at least %d candles, got %d", targetBars, len(candles))
	}
	for i := 1; i < len(candles); i++ {
		if candles[i].Time <= candles[i-1].Time {
			t.Fatalf("Candles not strictly ascending at index %d", i)
		}
	}
}

// TestStreamPartialOnTimeout tests that a stream cut short by the read
// deadline still returns a usable partial history.
func TestStreamPartialOnTimeout(t *testing.T) {
	server := httptest.NewServer(streamHandler(t, 50, 1, true)) // 50 rows, then silence
	defer server.Close()

	adapter := &RealtimeAdapter{
		cfg:    &config.RealtimeConfig{Timeout: 5 * time.Second},
		logger: zerolog.Nop(),
	}
	conn := dialTest(t, server)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))

	candles, err := adapter.stream(conn, "test-ticket", "NQ", "15m", time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("Expected partial result, got error: %v", err)
	}
	if len(candles) != 50 {
		t.Errorf("Expected 50 partial candles, got %d", len(candles))
	}
}
