package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gorilla/websocket"
	"github.com/holiman/uint256"

	"github.com/fly-arb/fly/internal/arb"
	"github.com/fly-arb/fly/internal/domain"
)

const (
	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// pongWait is the time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// pingPeriod sends pings to the peer at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// reconnectDelay is the base delay before attempting to reconnect.
	reconnectDelay = 2 * time.Second

	// maxReconnectDelay caps the exponential backoff for reconnection.
	maxReconnectDelay = 60 * time.Second
)

// syncTopic is the event signature hash of Sync(uint112,uint112), emitted by
// every UniswapV2-style pair after each reserve change.
var syncTopic = crypto.Keccak256Hash([]byte("Sync(uint112,uint112)"))

// UpdateHandler is called for every decoded reserve update.
type UpdateHandler func(domain.ReserveUpdate)

// Subscriber is a websocket JSON-RPC client that subscribes to Sync event
// logs and dispatches decoded reserve updates to registered handlers. It
// manages the connection lifecycle and re-subscribes after reconnects.
type Subscriber struct {
	wsURL  string
	logger *slog.Logger

	mu     sync.RWMutex
	conn   *websocket.Conn
	closed bool

	handlerMu sync.RWMutex
	handlers  []UpdateHandler

	nextID int64

	// done is closed when the subscriber is shut down.
	done chan struct{}
}

// NewSubscriber creates a subscriber for the given websocket JSON-RPC URL.
func NewSubscriber(wsURL string, logger *slog.Logger) *Subscriber {
	return &Subscriber{
		wsURL:  wsURL,
		logger: logger.With(slog.String("component", "chain_subscriber")),
		done:   make(chan struct{}),
	}
}

// OnUpdate registers a handler that is called for every reserve update.
func (s *Subscriber) OnUpdate(handler UpdateHandler) {
	s.handlerMu.Lock()
	defer s.handlerMu.Unlock()
	s.handlers = append(s.handlers, handler)
}

// Connect establishes the websocket connection and subscribes to Sync logs.
func (s *Subscriber) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("chain: %w", domain.ErrWSDisconnect)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 15 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, s.wsURL, nil)
	if err != nil {
		return fmt.Errorf("chain: connect %s: %w", s.wsURL, err)
	}

	s.conn = conn

	// Set up pong handler for keep-alive.
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	if err := s.subscribeLogs(); err != nil {
		s.conn.Close()
		s.conn = nil
		return err
	}

	go s.readLoop()
	go s.pingLoop()

	return nil
}

// Close shuts down the connection and stops the read loop.
func (s *Subscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	close(s.done)

	if s.conn != nil {
		_ = s.conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
		return s.conn.Close()
	}

	return nil
}

// subscribeLogs sends the eth_subscribe request for Sync logs. Caller must
// hold s.mu.
func (s *Subscriber) subscribeLogs() error {
	s.nextID++
	req := map[string]any{
		"jsonrpc": "2.0",
		"id":      s.nextID,
		"method":  "eth_subscribe",
		"params": []any{
			"logs",
			map[string]any{"topics": []any{syncTopic.Hex()}},
		},
	}

	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("chain: marshal subscribe request: %w", err)
	}

	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("chain: subscribe: %w", err)
	}
	return nil
}

// readLoop continuously reads messages and dispatches decoded updates. On
// disconnect it attempts to reconnect with exponential backoff.
func (s *Subscriber) readLoop() {
	for {
		select {
		case <-s.done:
			return
		default:
		}

		s.mu.RLock()
		conn := s.conn
		s.mu.RUnlock()

		if conn == nil {
			return
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
			}

			s.logger.Warn("websocket read failed, reconnecting",
				slog.String("error", err.Error()))
			s.reconnect()
			return // readLoop is restarted by reconnect -> Connect
		}

		s.handleMessage(message)
	}
}

// pingLoop sends periodic ping messages to keep the connection alive.
func (s *Subscriber) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.RLock()
			conn := s.conn
			s.mu.RUnlock()

			if conn == nil {
				return
			}

			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// rpcLog is the subset of an eth_subscription log notification the decoder
// needs.
type rpcLog struct {
	Address     string   `json:"address"`
	Topics      []string `json:"topics"`
	Data        string   `json:"data"`
	BlockNumber string   `json:"blockNumber"`
	TxHash      string   `json:"transactionHash"`
	Removed     bool     `json:"removed"`
}

// handleMessage parses a raw websocket message and, when it is a Sync log
// notification, dispatches the decoded update. Subscription confirmations and
// unrelated messages are ignored.
func (s *Subscriber) handleMessage(raw []byte) {
	var envelope struct {
		Method string `json:"method"`
		Params struct {
			Result json.RawMessage `json:"result"`
		} `json:"params"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return
	}
	if envelope.Method != "eth_subscription" {
		return
	}

	var lg rpcLog
	if err := json.Unmarshal(envelope.Params.Result, &lg); err != nil {
		return
	}

	update, err := decodeSyncLog(lg)
	if err != nil {
		s.logger.Debug("dropping undecodable log",
			slog.String("error", err.Error()))
		return
	}

	s.handlerMu.RLock()
	handlers := s.handlers
	s.handlerMu.RUnlock()

	for _, h := range handlers {
		h(update)
	}
}

// decodeSyncLog turns one Sync event log into a reserve update. The event
// data is two 256-bit words holding the uint112 reserves.
func decodeSyncLog(lg rpcLog) (domain.ReserveUpdate, error) {
	if lg.Removed {
		return domain.ReserveUpdate{}, fmt.Errorf("reorged log")
	}
	if len(lg.Topics) == 0 || lg.Topics[0] != syncTopic.Hex() {
		return domain.ReserveUpdate{}, fmt.Errorf("not a sync event")
	}
	if !common.IsHexAddress(lg.Address) {
		return domain.ReserveUpdate{}, fmt.Errorf("malformed pool address %q", lg.Address)
	}

	data := common.FromHex(lg.Data)
	if len(data) != 64 {
		return domain.ReserveUpdate{}, fmt.Errorf("sync data is %d bytes, want 64", len(data))
	}

	var r0, r1 uint256.Int
	r0.SetBytes(data[:32])
	r1.SetBytes(data[32:])

	var block uint64
	if lg.BlockNumber != "" {
		n, err := hexutil.DecodeUint64(lg.BlockNumber)
		if err != nil {
			return domain.ReserveUpdate{}, fmt.Errorf("block number %q: %w", lg.BlockNumber, err)
		}
		block = n
	}

	return domain.ReserveUpdate{
		Pool:        arb.PoolID(common.HexToAddress(lg.Address)),
		Reserve0:    r0.ToBig(),
		Reserve1:    r1.ToBig(),
		BlockNumber: block,
		TxHash:      lg.TxHash,
		ObservedAt:  time.Now().UTC(),
	}, nil
}

// reconnect attempts to re-establish the connection with exponential backoff.
// It blocks until successful or the subscriber is closed.
func (s *Subscriber) reconnect() {
	delay := reconnectDelay

	for {
		select {
		case <-s.done:
			return
		default:
		}

		time.Sleep(delay)

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		err := s.Connect(ctx)
		cancel()

		if err == nil {
			return
		}

		delay *= 2
		if delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}
	}
}
