package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/Camilejo/TallerBDRedis/adapters/gateway/broker"
	"github.com/Camilejo/TallerBDRedis/model"
)

type Config struct {
	LogLevel int `yaml:"LogLevel"`
}

// event is the frame pushed to browser clients, mirroring the socket
// "weather-update" broadcast the dashboard listens for.
type event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub bridges the broker's weather channel onto WebSocket connections. It
// subscribes once and rebroadcasts every message to all connected clients.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	broker     *broker.Broker
	upgrader   websocket.Upgrader
	logger     zerolog.Logger
}

func NewHub(conf Config, b *broker.Broker) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		broker:     b,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// the dashboard is served from another origin in dev
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: zerolog.New(
			zerolog.ConsoleWriter{
				Out:        os.Stdout,
				TimeFormat: time.RFC3339}).
			Level(zerolog.InfoLevel + zerolog.Level(conf.LogLevel)).
			With().
			Timestamp().
			Int("pid", os.Getpid()).
			Logger(),
	}
}

func (h *Hub) Start(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	sub := h.broker.Subscribe(model.ChannelWeather)
	go h.run(ctx, wg, sub)
}

func (h *Hub) run(ctx context.Context, wg *sync.WaitGroup, sub *broker.Subscription) {
	defer wg.Done()
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			sub.Unsubscribe()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.logger.Warn().Msg("websocket hub shutting down")
			return

		case client := <-h.register:
			h.clients[client] = true
			h.logger.Info().Str("remote", client.conn.RemoteAddr().String()).Msg("websocket client connected")

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.logger.Info().Str("remote", client.conn.RemoteAddr().String()).Msg("websocket client disconnected")
			}

		case msg, ok := <-sub.C:
			if !ok {
				return
			}
			b, err := json.Marshal(event{Type: "weather-update", Payload: msg.Payload})
			if err != nil {
				h.logger.Error().Err(err).Msg("failed to marshal broadcast frame")
				continue
			}
			for client := range h.clients {
				select {
				case client.send <- b:
				default:
					// client buffer full, drop the connection
					delete(h.clients, client)
					close(client.send)
					h.logger.Warn().Str("remote", client.conn.RemoteAddr().String()).Msg("websocket client too slow, dropped")
				}
			}
		}
	}
}

// Handler upgrades an HTTP request and attaches the client to the hub.
func (h *Hub) Handler(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &Client{hub: h, conn: conn, send: make(chan []byte, 64)}
	select {
	case h.register <- client:
	case <-h.done:
		// hub already stopped, refuse the connection
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
