package events

import (
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/zishang520/engine.io/v2/types"
	socketio "github.com/zishang520/socket.io/v2/socket"
)

// OrderPlaced is broadcast to the admin dashboard whenever checkout succeeds.
type OrderPlaced struct {
	OrderID   string  `json:"order_id"`
	UserID    string  `json:"user_id"`
	Total     float64 `json:"total"`
	ItemCount int     `json:"item_count"`
}

// Hub fans order events out to in-process subscribers. Publishing never
// blocks; a subscriber that falls behind loses events.
type Hub struct {
	mu   sync.RWMutex
	subs []chan OrderPlaced
}

func NewHub() *Hub {
	return &Hub{}
}

func (h *Hub) Subscribe() <-chan OrderPlaced {
	ch := make(chan OrderPlaced, 16)
	h.mu.Lock()
	h.subs = append(h.subs, ch)
	h.mu.Unlock()
	return ch
}

func (h *Hub) Publish(ev OrderPlaced) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			logrus.WithField("order_id", ev.OrderID).Warn("Dropping order event for slow subscriber")
		}
	}
}

const adminRoom = socketio.Room("admin-feed")

// NewSocketServer exposes the hub over socket.io. Dashboard clients emit
// "join-admin" after connecting and then receive "order-placed" events.
func NewSocketServer(hub *Hub) *socketio.Server {
	opts := socketio.DefaultServerOptions()
	opts.SetPath("/socket.io")
	opts.SetAllowEIO3(true)
	opts.SetCors(&types.Cors{
		Origin:      "*",
		Credentials: true,
	})
	ioo := socketio.NewServer(nil, opts)

	ioo.On("connection", func(clients ...any) {
		socket := clients[0].(*socketio.Socket)
		logrus.WithField("socket_id", socket.Id()).Debug("Dashboard socket connected")

		socket.On("join-admin", func(datas ...any) {
			socket.Join(adminRoom)
		})
		socket.On("disconnect", func(datas ...any) {
			socket.RemoveAllListeners("")
			socket.Disconnect(true)
		})
	})

	events := hub.Subscribe()
	go func() {
		for ev := range events {
			ioo.To(adminRoom).Emit("order-placed", ev)
		}
	}()

	return ioo
}
