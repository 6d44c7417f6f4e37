// Package binance streams diff-depth and trade events for one symbol
// over a reconnecting websocket.
package binance

import (
	"context"
	"fmt"
	"strings"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"
	"github.com/yanun0323/pkg/ws"

	"main/pkg/exception"
)

const _binanceBaseWsUrl = "wss://stream.binance.com:9443/ws"

const _subscribeReqID = 1

// Stream is the market data channel for a single symbol. Reconnection
// and keepalive pings are handled inside the websocket layer; the
// registered subscription is replayed on every reconnect, so from the
// consumer's point of view the event sequence simply resumes.
type Stream struct {
	symbol string
	wss    *ws.WebSocket
}

// NewStream creates an unconnected stream. An empty wsURL uses the
// production endpoint.
func NewStream(ctx context.Context, wsURL, symbol string) *Stream {
	if wsURL == "" {
		wsURL = _binanceBaseWsUrl
	}
	return &Stream{
		symbol: symbol,
		wss:    ws.New(ctx, wsURL),
	}
}

func (s *Stream) Close() {
	s.wss.Close()
}

// Start dials the websocket.
func (s *Stream) Start(ctx context.Context) error {
	if err := s.wss.Start(ctx); err != nil {
		return errors.Wrap(err, "start wss")
	}

	return nil
}

type subscribeRequest struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
	ID     int64    `json:"id"`
}

type subscribeResponse struct {
	ID     int64 `json:"id"`
	Result any   `json:"result"`
}

// Subscribe requests the diff-depth and trade streams and waits for the
// exchange acknowledgement. The request is registered so it is resent
// after every reconnect; a rejected subscription surfaces as an error
// instead of being silently swallowed.
func (s *Stream) Subscribe(ctx context.Context) error {
	appendIntoRegister := true
	if err := s.wss.SendAndWait(ctx, ws.Sidecar{
		Sender: func(ctx context.Context, client *ws.WebSocket) error {
			payload := subscribeRequest{
				Method: "SUBSCRIBE",
				Params: []string{
					fmt.Sprintf("%s@depth@100ms", strings.ToLower(s.symbol)),
					fmt.Sprintf("%s@trade", strings.ToLower(s.symbol)),
				},
				ID: _subscribeReqID,
			}

			if err := client.WriteJSON(payload); err != nil {
				return errors.Wrap(err, "write subscribe payload").With("payload", payload)
			}

			return nil
		},
		Waiter: func(ctx context.Context, m ws.Message) (bool, error) {
			var resp subscribeResponse
			if err := m.Unmarshal(&resp); err != nil || resp.ID != _subscribeReqID {
				return false, nil
			}

			if resp.Result != nil {
				return false, errors.Wrapf(exception.ErrMarketDataSubscribe, "result: %+v", resp.Result)
			}
			return true, nil
		},
	}, appendIntoRegister); err != nil {
		return errors.Wrap(err, "send and wait")
	}

	return nil
}

// Observe decodes frames into tagged events and feeds them to the
// handler until the context is done. Malformed frames are logged and
// skipped, never fatal.
func (s *Stream) Observe(ctx context.Context, handler func(Event)) (unsubscribe func()) {
	ch, cancel := s.wss.Subscribe()

	go func() {
		defer cancel()
		for {
			select {
			case <-sys.Shutdown():
				return
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok {
					return
				}

				event, ok := decodeEvent(m)
				if !ok {
					logs.Errorf("skip frame, err: %+v", errors.Wrapf(exception.ErrMarketDataMalformedFrame, "frame: %s", m))
					continue
				}

				handler(event)
			}
		}
	}()

	return cancel
}
