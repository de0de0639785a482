// Package bridge implements wallet.Extension over a WebSocket to a local
// extension bridge (a small page or companion process that forwards calls
// to the browser wallet).
//
// Requests are {"id": n, "method": m}. Replies echo the id and carry either
// "result" or "error". Pushed notifications look like
// {"message": {"action": "accountsChanged"}}.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/prestigeforum/internal/client/wallet"
	"github.com/dmitrijs2005/prestigeforum/internal/logging"
	"github.com/gorilla/websocket"
)

const (
	MethodDefaultAddress = "defaultAddress"

	handshakeTimeout = 5 * time.Second
	writeTimeout     = 5 * time.Second
)

var ErrClosed = errors.New("wallet bridge connection closed")

type request struct {
	ID     uint64 `json:"id"`
	Method string `json:"method"`
}

type envelope struct {
	ID      uint64               `json:"id,omitempty"`
	Result  json.RawMessage      `json:"result,omitempty"`
	Error   string               `json:"error,omitempty"`
	Message *wallet.Notification `json:"message,omitempty"`
}

type reply struct {
	result json.RawMessage
	err    error
}

type Bridge struct {
	url    string
	dialer websocket.Dialer
	logger logging.Logger

	mu      sync.Mutex
	conn    *websocket.Conn
	nextID  uint64
	pending map[uint64]chan reply
	closed  bool

	writeMu sync.Mutex

	subMu   sync.Mutex
	subs    map[int]func(wallet.Notification)
	nextSub int
}

var _ wallet.Extension = (*Bridge)(nil)

// New does not dial; the first call that needs the bridge does.
func New(url string, logger logging.Logger) *Bridge {
	return &Bridge{
		url:     url,
		dialer:  websocket.Dialer{HandshakeTimeout: handshakeTimeout},
		logger:  logger.With("module", "wallet_bridge"),
		pending: map[uint64]chan reply{},
		subs:    map[int]func(wallet.Notification){},
	}
}

// connection returns the live connection, dialing if needed.
func (b *Bridge) connection(ctx context.Context) (*websocket.Conn, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}
	if b.conn != nil {
		return b.conn, nil
	}
	if b.url == "" {
		return nil, errors.New("wallet bridge url not configured")
	}

	conn, resp, err := b.dialer.DialContext(ctx, b.url, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial wallet bridge (status: %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("dial wallet bridge: %w", err)
	}
	b.conn = conn
	go b.readPump(conn)

	b.logger.Debug(ctx, "wallet bridge connected", "url", b.url)
	return conn, nil
}

func (b *Bridge) readPump(conn *websocket.Conn) {
	for {
		var env envelope
		if err := conn.ReadJSON(&env); err != nil {
			b.drop(conn, err)
			return
		}

		if env.Message != nil {
			b.dispatch(*env.Message)
			continue
		}

		b.mu.Lock()
		ch, ok := b.pending[env.ID]
		delete(b.pending, env.ID)
		b.mu.Unlock()
		if !ok {
			continue
		}

		r := reply{result: env.Result}
		if env.Error != "" {
			r.err = errors.New(env.Error)
		}
		ch <- r
	}
}

// drop forgets a dead connection and fails its pending calls.
func (b *Bridge) drop(conn *websocket.Conn, cause error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn != conn {
		return
	}
	_ = conn.Close()
	b.conn = nil
	for id, ch := range b.pending {
		ch <- reply{err: fmt.Errorf("%w: %v", ErrClosed, cause)}
		delete(b.pending, id)
	}
}

func (b *Bridge) dispatch(n wallet.Notification) {
	b.subMu.Lock()
	subs := make([]func(wallet.Notification), 0, len(b.subs))
	for _, fn := range b.subs {
		subs = append(subs, fn)
	}
	b.subMu.Unlock()

	for _, fn := range subs {
		fn(n)
	}
}

func (b *Bridge) call(ctx context.Context, method string) (json.RawMessage, error) {
	conn, err := b.connection(ctx)
	if err != nil {
		return nil, err
	}

	ch := make(chan reply, 1)
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.pending[id] = ch
	b.mu.Unlock()

	forget := func() {
		b.mu.Lock()
		delete(b.pending, id)
		b.mu.Unlock()
	}

	b.writeMu.Lock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	err = conn.WriteJSON(request{ID: id, Method: method})
	b.writeMu.Unlock()
	if err != nil {
		forget()
		b.drop(conn, err)
		return nil, fmt.Errorf("send %s: %w", method, err)
	}

	select {
	case r := <-ch:
		return r.result, r.err
	case <-ctx.Done():
		forget()
		return nil, ctx.Err()
	}
}

// Installed reports whether the bridge can be reached.
func (b *Bridge) Installed(ctx context.Context) bool {
	_, err := b.connection(ctx)
	return err == nil
}

func (b *Bridge) DefaultAddress(ctx context.Context) (string, error) {
	raw, err := b.call(ctx, MethodDefaultAddress)
	if err != nil {
		return "", err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}

	var addr struct {
		Base58 string `json:"base58"`
	}
	if err := json.Unmarshal(raw, &addr); err != nil {
		return "", fmt.Errorf("decode default address: %w", err)
	}
	return addr.Base58, nil
}

func (b *Bridge) Request(ctx context.Context, method string) error {
	_, err := b.call(ctx, method)
	return err
}

func (b *Bridge) Subscribe(fn func(wallet.Notification)) func() {
	b.subMu.Lock()
	defer b.subMu.Unlock()
	id := b.nextSub
	b.nextSub++
	b.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			b.subMu.Lock()
			defer b.subMu.Unlock()
			delete(b.subs, id)
		})
	}
}

func (b *Bridge) Close() error {
	b.mu.Lock()
	b.closed = true
	conn := b.conn
	b.mu.Unlock()

	if conn == nil {
		return nil
	}
	b.drop(conn, ErrClosed)
	return nil
}
