package feed

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/ishaygamliely-create/SoloTrading-sub001/config"
	"github.com/ishaygamliely-create/SoloTrading-sub001/internal/market"
)

const (
	// targetBars is enough history for downstream analysis; the stream is cut
	// as soon as this many bars have accumulated.
	targetBars = 820
	// minUsableBars is the smallest partial result worth returning when the
	// stream times out before reaching targetBars.
	minUsableBars = 10
)

// Compact row layout of the realtime candle feed. Remaining indices carry
// provider bookkeeping we do not use.
const (
	rowIdxTimeMs = 1
	rowIdxOpen   = 4
	rowIdxHigh   = 5
	rowIdxLow    = 6
	rowIdxClose  = 7
	rowIdxVolume = 8
	rowMinLen    = 9
)

// streamState drives the handshake. Every incoming frame either advances the
// state or terminates the stream; there is no partial-success path.
type streamState int

const (
	stateAuthorizing streamState = iota
	stateOpeningChannel
	stateSubscribed
)

// frame is the wire envelope for both directions of the stream.
type frame struct {
	Type     string      `json:"type"`
	Ticket   string      `json:"ticket,omitempty"`
	Channel  int64       `json:"channel,omitempty"`
	Symbol   string      `json:"symbol,omitempty"`
	Interval string      `json:"interval,omitempty"`
	FromMs   int64       `json:"from,omitempty"`
	Rows     [][]float64 `json:"rows,omitempty"`
	Reason   string      `json:"reason,omitempty"`
}

type ticketResponse struct {
	Ticket    string `json:"ticket"`
	StreamURL string `json:"streamUrl"`
}

// RealtimeAdapter acquires candles over the broker's streaming feed: session
// credential, streaming ticket, then a websocket subscription that is read
// until enough bars arrive or the call deadline expires. The connection never
// outlives one Fetch call.
type RealtimeAdapter struct {
	cfg     *config.RealtimeConfig
	session *SessionManager
	client  *resty.Client
	dialer  *websocket.Dialer
	logger  zerolog.Logger
}

// NewRealtimeAdapter creates the streaming broker adapter.
func NewRealtimeAdapter(cfg *config.RealtimeConfig, logger zerolog.Logger) *RealtimeAdapter {
	return &RealtimeAdapter{
		cfg:     cfg,
		session: NewSessionManager(cfg, logger),
		client:  resty.New().SetTimeout(cfg.Timeout),
		dialer:  websocket.DefaultDialer,
		logger:  logger,
	}
}

func (a *RealtimeAdapter) Source() market.DataSource {
	return market.SourceBroker
}

// Fetch runs one full acquisition: authenticate, exchange the ticket, stream
// until targetBars or the deadline. On timeout a partial result above
// minUsableBars is still usable; anything else fails.
func (a *RealtimeAdapter) Fetch(ctx context.Context, symbol, interval string, since time.Time) ([]market.Candle, error) {
	token, err := a.session.Token(ctx)
	if err != nil {
		return nil, err
	}

	ticket, err := a.exchangeTicket(ctx, token)
	if err != nil {
		return nil, err
	}

	conn, _, err := a.dialer.DialContext(ctx, ticket.StreamURL, nil)
	if err != nil {
		return nil, fmt.Errorf("realtime dial: %w", err)
	}
	defer conn.Close()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(a.cfg.Timeout)
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		return nil, fmt.Errorf("realtime deadline: %w", err)
	}

	return a.stream(conn, ticket.Ticket, symbol, interval, since)
}

func (a *RealtimeAdapter) exchangeTicket(ctx context.Context, token string) (*ticketResponse, error) {
	var ticket ticketResponse
	resp, err := a.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetResult(&ticket).
		Post(a.cfg.TicketURL)
	if err != nil {
		return nil, fmt.Errorf("realtime ticket: %w", err)
	}
	if resp.IsError() {
		// A rejected ticket usually means the cached session died early.
		a.session.Invalidate()
		return nil, fmt.Errorf("realtime ticket rejected: %s", resp.Status())
	}
	if ticket.Ticket == "" || ticket.StreamURL == "" {
		return nil, fmt.Errorf("realtime ticket response incomplete")
	}
	return &ticket, nil
}

// stream performs the frame-level handshake and collects candle rows. The
// handshake is a strict state machine; any unexpected or error frame tears the
// stream down with no result.
func (a *RealtimeAdapter) stream(conn *websocket.Conn, ticket, symbol, interval string, since time.Time) ([]market.Candle, error) {
	if err := conn.WriteJSON(frame{Type: "auth", Ticket: ticket}); err != nil {
		return nil, fmt.Errorf("realtime auth frame: %w", err)
	}

	state := stateAuthorizing
	var channel int64
	var candles []market.Candle

	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() && len(candles) > minUsableBars {
				a.logger.Warn().Int("bars", len(candles)).Msg("realtime stream timed out, returning partial history")
				return sanitize(candles), nil
			}
			return nil, fmt.Errorf("realtime read: %w", err)
		}

		// Keepalives can arrive in any state and must be echoed.
		if f.Type == "ping" {
			if err := conn.WriteJSON(frame{Type: "pong"}); err != nil {
				return nil, fmt.Errorf("realtime keepalive: %w", err)
			}
			continue
		}
		if f.Type == "error" {
			if state == stateAuthorizing {
				a.session.Invalidate()
			}
			return nil, fmt.Errorf("realtime stream error: %s", f.Reason)
		}

		switch state {
		case stateAuthorizing:
			if f.Type != "auth_ok" {
				return nil, fmt.Errorf("realtime handshake: unexpected %q while authorizing", f.Type)
			}
			if err := conn.WriteJSON(frame{Type: "open_channel"}); err != nil {
				return nil, fmt.Errorf("realtime open channel: %w", err)
			}
			state = stateOpeningChannel

		case stateOpeningChannel:
			if f.Type != "channel_ok" {
				return nil, fmt.Errorf("realtime handshake: unexpected %q while opening channel", f.Type)
			}
			channel = f.Channel
			sub := frame{
				Type:     "subscribe",
				Channel:  channel,
				Symbol:   symbol,
				Interval: interval,
				FromMs:   since.UnixMilli(),
			}
			if err := conn.WriteJSON(sub); err != nil {
				return nil, fmt.Errorf("realtime subscribe: %w", err)
			}
			state = stateSubscribed

		case stateSubscribed:
			if f.Type != "data" {
				return nil, fmt.Errorf("realtime stream: unexpected %q while subscribed", f.Type)
			}
			for _, row := range f.Rows {
				if c, ok := decodeRow(row); ok {
					candles = append(candles, c)
				}
			}
			if len(candles) >= targetBars {
				return sanitize(candles), nil
			}
		}
	}
}

// decodeRow rebuilds a candle field-by-field from the compact row format so no
// incidental provider fields leak into the sanitized output.
func decodeRow(row []float64) (market.Candle, bool) {
	if len(row) < rowMinLen {
		return market.Candle{}, false
	}
	c := market.Candle{
		Time:   int64(row[rowIdxTimeMs]) / 1000,
		Open:   row[rowIdxOpen],
		High:   row[rowIdxHigh],
		Low:    row[rowIdxLow],
		Close:  row[rowIdxClose],
		Volume: row[rowIdxVolume],
	}
	if c.Empty() {
		return market.Candle{}, false
	}
	return c, true
}
