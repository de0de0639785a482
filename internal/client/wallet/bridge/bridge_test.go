package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/dmitrijs2005/prestigeforum/internal/client/wallet"
	"github.com/dmitrijs2005/prestigeforum/internal/logging"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeWallet plays the extension side of the bridge.
type fakeWallet struct {
	mu       sync.Mutex
	address  string
	grant    string
	reject   bool
	silent   bool
	methods  []string
	conn     *websocket.Conn
	writeMu  sync.Mutex
	upgrader websocket.Upgrader
}

func (f *fakeWallet) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	f.mu.Lock()
	f.conn = conn
	f.mu.Unlock()
	defer conn.Close()

	for {
		var req request
		if err := conn.ReadJSON(&req); err != nil {
			return
		}

		f.mu.Lock()
		f.methods = append(f.methods, req.Method)
		resp := map[string]any{"id": req.ID}
		switch {
		case f.silent:
			f.mu.Unlock()
			continue
		case req.Method == MethodDefaultAddress && f.address == "":
			resp["result"] = nil
		case req.Method == MethodDefaultAddress:
			resp["result"] = map[string]string{"base58": f.address}
		case f.reject:
			resp["error"] = "user rejected the request"
		default:
			f.address = f.grant
			resp["result"] = true
		}
		f.mu.Unlock()

		f.writeMu.Lock()
		err := conn.WriteJSON(resp)
		f.writeMu.Unlock()
		if err != nil {
			return
		}
	}
}

func (f *fakeWallet) push(t *testing.T, action string) {
	t.Helper()
	f.mu.Lock()
	conn := f.conn
	f.mu.Unlock()
	require.NotNil(t, conn)

	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	require.NoError(t, conn.WriteJSON(map[string]any{"message": map[string]string{"action": action}}))
}

func start(t *testing.T, f *fakeWallet) *Bridge {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	b := New("ws"+strings.TrimPrefix(srv.URL, "http"), logging.NewNopLogger())
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func address(b byte) string {
	return base58.CheckEncode(bytes.Repeat([]byte{b}, 20), 0x41)
}

func TestBridge_NotInstalled(t *testing.T) {
	b := New("ws://127.0.0.1:1/none", logging.NewNopLogger())
	defer b.Close()
	assert.False(t, b.Installed(context.Background()))

	_, err := b.DefaultAddress(context.Background())
	assert.Error(t, err)

	assert.False(t, New("", logging.NewNopLogger()).Installed(context.Background()))
}

func TestBridge_DefaultAddressAndRequest(t *testing.T) {
	f := &fakeWallet{grant: address(1)}
	b := start(t, f)
	ctx := context.Background()

	require.True(t, b.Installed(ctx))

	addr, err := b.DefaultAddress(ctx)
	require.NoError(t, err)
	assert.Empty(t, addr)

	require.NoError(t, b.Request(ctx, wallet.MethodRequestAccounts))

	addr, err = b.DefaultAddress(ctx)
	require.NoError(t, err)
	assert.Equal(t, f.grant, addr)

	f.mu.Lock()
	defer f.mu.Unlock()
	assert.Equal(t, []string{MethodDefaultAddress, wallet.MethodRequestAccounts, MethodDefaultAddress}, f.methods)
}

func TestBridge_RequestRejected(t *testing.T) {
	b := start(t, &fakeWallet{reject: true})
	err := b.Request(context.Background(), wallet.MethodRequestAccounts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rejected")
}

func TestBridge_CallHonoursContext(t *testing.T) {
	b := start(t, &fakeWallet{silent: true})
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := b.Request(ctx, wallet.MethodRequestAccounts)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	b.mu.Lock()
	defer b.mu.Unlock()
	assert.Empty(t, b.pending)
}

func TestBridge_Notifications(t *testing.T) {
	f := &fakeWallet{}
	b := start(t, f)
	require.True(t, b.Installed(context.Background()))

	got := make(chan wallet.Notification, 4)
	unsubscribe := b.Subscribe(func(n wallet.Notification) { got <- n })

	require.Eventually(t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.conn != nil
	}, time.Second, time.Millisecond)

	f.push(t, wallet.ActionAccountsChanged)
	select {
	case n := <-got:
		assert.Equal(t, wallet.ActionAccountsChanged, n.Action)
	case <-time.After(time.Second):
		t.Fatal("notification not delivered")
	}

	unsubscribe()
	unsubscribe()
	f.push(t, wallet.ActionAccountsChanged)
	_, err := b.DefaultAddress(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestBridge_WithController(t *testing.T) {
	f := &fakeWallet{grant: address(2)}
	b := start(t, f)

	c := wallet.New(context.Background(), b, wallet.WithConnectTimeout(time.Second))
	defer c.Close()
	assert.Equal(t, wallet.StateInstalledDisconnected, c.Link().State)

	link, err := c.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, f.grant, link.Address)

	f.mu.Lock()
	f.address = address(3)
	f.mu.Unlock()
	f.push(t, wallet.ActionAccountsChanged)

	require.Eventually(t, func() bool { return c.Link().Address == address(3) }, time.Second, 5*time.Millisecond)
}

func TestEnvelope_Decode(t *testing.T) {
	var env envelope
	require.NoError(t, json.Unmarshal([]byte(`{"message":{"action":"accountsChanged"}}`), &env))
	require.NotNil(t, env.Message)
	assert.Equal(t, "accountsChanged", env.Message.Action)

	env = envelope{}
	require.NoError(t, json.Unmarshal([]byte(`{"id":3,"error":"nope"}`), &env))
	assert.Equal(t, uint64(3), env.ID)
	assert.Equal(t, "nope", env.Error)
}
