package core

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

type ConnIDGenerator interface {
	Generate(r *http.Request, conn *websocket.Conn) (int, error)
}

type AutoIncrementConnIDGenerator struct {
	counter int
	mu      sync.Mutex
}

func (g *AutoIncrementConnIDGenerator) Generate(_ *http.Request, _ *websocket.Conn) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return g.counter, nil
}

// DisplayHub manages the websocket connections of kiosk displays.
// Displays are anonymous: connections are keyed by an auto-incremented
// id, not by an identity. Server events are broadcast to every
// connected display; events sent by displays surface on Receive.
type DisplayHub struct {
	conns   *SyncMap[int, *Conn]
	idGen   ConnIDGenerator
	connWg  *sync.WaitGroup
	context context.Context
	logger  *slog.Logger

	onDisplayConnected    func(int)
	onDisplayDisconnected func(int)

	receivedEvent chan *Event

	upgrader        websocket.Upgrader
	ReadStreamSize  int
	WriteStreamSize int
}

var defaultUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type HubOption func(*DisplayHub)

func WithCheckOrigin(f func(r *http.Request) bool) HubOption {
	return func(h *DisplayHub) {
		h.upgrader.CheckOrigin = f
	}
}

func WithConnIDGenerator(g ConnIDGenerator) HubOption {
	return func(h *DisplayHub) {
		h.idGen = g
	}
}

func NewDisplayHub(ctx context.Context, wg *sync.WaitGroup, logger *slog.Logger, opts ...HubOption) *DisplayHub {
	h := &DisplayHub{
		conns:                 NewSyncMap[int, *Conn](),
		idGen:                 &AutoIncrementConnIDGenerator{},
		connWg:                wg,
		context:               ctx,
		logger:                logger,
		upgrader:              defaultUpgrader,
		ReadStreamSize:        100,
		WriteStreamSize:       100,
		onDisplayConnected:    func(int) {},
		onDisplayDisconnected: func(int) {},
	}

	for _, opt := range opts {
		opt(h)
	}

	h.receivedEvent = make(chan *Event, h.ReadStreamSize)

	return h
}

func (h *DisplayHub) Receive() <-chan *Event {
	return h.receivedEvent
}

func (h *DisplayHub) OnDisplayConnected(f func(int)) {
	h.onDisplayConnected = f
}

func (h *DisplayHub) OnDisplayDisconnected(f func(int)) {
	h.onDisplayDisconnected = f
}

// Count reports the number of connected displays.
func (h *DisplayHub) Count() int {
	return h.conns.Len()
}

func (h *DisplayHub) Connect(w http.ResponseWriter, r *http.Request) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	id, err := h.idGen.Generate(r, conn)
	if err != nil {
		conn.Close()
		return fmt.Errorf("generating connection id: %w", err)
	}

	wsConn := &Conn{
		id:          id,
		conn:        conn,
		context:     h.context,
		writeStream: make(chan *Event, h.WriteStreamSize),
		readStream:  h.receivedEvent,
		ticker:      time.NewTicker(pingPeriod),
		logger:      h.logger.With(slog.Int("display", id)),
		notifyDisconnect: func() {
			h.disconnect(id)
		},
	}
	h.conns.Store(id, wsConn)

	h.connWg.Add(1)
	go func() {
		defer h.connWg.Done()
		wsConn.readLoop()
	}()
	h.connWg.Add(1)
	go func() {
		defer h.connWg.Done()
		wsConn.writeLoop()
	}()

	h.onDisplayConnected(id)

	return nil
}

func (h *DisplayHub) disconnect(id int) {
	conn, ok := h.conns.LoadAndDelete(id)
	if !ok {
		return
	}
	conn.close()
	h.onDisplayDisconnected(id)
}

// Send broadcasts an event to every connected display.
func (h *DisplayHub) Send(e *Event) {
	h.conns.RRange(func(_ int, conn *Conn) bool {
		conn.writeStream <- e
		return true
	})
}
